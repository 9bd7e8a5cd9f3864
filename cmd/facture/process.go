package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Kdotropez/facture-fournisseur/internal/engine"
)

func processCmd() *cobra.Command {
	var supplier string
	var skipArchive bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Extract a structured invoice from one text file",
		Long: `Process reads the raw text of a supplier document, runs the extraction
pipeline with any learned profiles applied, archives the result and
prints the invoice as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, _, kv, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			result, err := processFile(cmd, args[0], supplier, eng)
			if err != nil {
				return err
			}

			if !skipArchive {
				archive, err := initArchive(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = archive.Close() }()
				if err := archive.SaveInvoice(ctx, result.Invoice, result.Warnings); err != nil {
					return fmt.Errorf("archiving invoice: %w", err)
				}
			}

			return printJSON(result.Invoice)
		},
	}

	cmd.Flags().StringVar(&supplier, "supplier", "", "supplier name (required)")
	cmd.Flags().BoolVar(&skipArchive, "no-archive", false, "do not record the invoice in the archive")
	_ = cmd.MarkFlagRequired("supplier")

	return cmd
}

func processFile(cmd *cobra.Command, path, supplier string, eng *engine.Engine) (*engine.Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := eng.Process(cmd.Context(), string(data), filepath.Base(path), supplier)
	if err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		slog.Warn(w, "source_file", filepath.Base(path))
	}
	for _, e := range result.Errors {
		slog.Error(e, "source_file", filepath.Base(path))
	}
	return result, nil
}
