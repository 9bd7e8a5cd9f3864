package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending archive schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			archive, err := initArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = archive.Close() }()

			slog.Info("archive schema up to date")
			return nil
		},
	}
}
