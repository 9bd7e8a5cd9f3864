package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var supplier string

	cmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Process every text document in a directory",
		Long: `Import walks a directory of extracted PDF text files (*.txt), runs each
through the extraction pipeline and archives the results. Files that
fail keep the batch going; a summary is printed at the end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			files, err := collectTextFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .txt files found in %s", args[0])
			}

			eng, _, kv, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			archive, err := initArchive(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = archive.Close() }()

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Importing invoices..."),
			)

			var processed, replayed, warned, failed int
			for _, path := range files {
				result, err := processFile(cmd, path, supplier, eng)
				if err != nil {
					failed++
					slog.Error("import failed", "file", filepath.Base(path), "error", err)
					_ = bar.Add(1)
					continue
				}
				if err := archive.SaveInvoice(ctx, result.Invoice, result.Warnings); err != nil {
					return fmt.Errorf("archiving %s: %w", filepath.Base(path), err)
				}

				processed++
				if result.Replayed {
					replayed++
				}
				if len(result.Warnings) > 0 {
					warned++
				}
				_ = bar.Add(1)
			}

			slog.Info("import complete",
				"processed", processed,
				"replayed", replayed,
				"with_warnings", warned,
				"failed", failed,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&supplier, "supplier", "", "supplier name (required)")
	_ = cmd.MarkFlagRequired("supplier")

	return cmd
}

func collectTextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
