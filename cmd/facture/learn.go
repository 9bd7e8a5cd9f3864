package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
)

func learnCmd() *cobra.Command {
	var supplier, originalPath, correctedPath, rawPath string

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Feed a corrected invoice back into the profiles",
		Long: `Learn diffs the original extraction against a user-corrected invoice and
updates (or creates) the supplier's parsing profile, so the corrections
are applied automatically on the next import.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			corrected, err := readInvoiceFile(correctedPath)
			if err != nil {
				return err
			}

			var original *model.Invoice
			if originalPath != "" {
				if original, err = readInvoiceFile(originalPath); err != nil {
					return err
				}
			}

			var rawText string
			if rawPath != "" {
				data, err := os.ReadFile(rawPath) // #nosec G304 -- user-supplied path is the point
				if err != nil {
					return fmt.Errorf("reading %s: %w", rawPath, err)
				}
				rawText = string(data)
			} else if corrected.RawData != nil {
				rawText = corrected.RawData.Text
			}

			eng, _, kv, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			p, err := eng.Learn(cmd.Context(), supplier, original, corrected, rawText)
			if err != nil {
				return err
			}

			slog.Info("profile updated",
				"profile", p.ID,
				"supplier", p.Supplier,
				"use_count", p.UseCount,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&supplier, "supplier", "", "supplier name (required)")
	cmd.Flags().StringVar(&originalPath, "original", "", "JSON file with the original extraction")
	cmd.Flags().StringVar(&correctedPath, "corrected", "", "JSON file with the corrected invoice (required)")
	cmd.Flags().StringVar(&rawPath, "raw", "", "raw text file of the source document")
	_ = cmd.MarkFlagRequired("supplier")
	_ = cmd.MarkFlagRequired("corrected")

	return cmd
}
