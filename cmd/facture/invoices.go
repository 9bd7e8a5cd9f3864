package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func invoicesCmd() *cobra.Command {
	var supplier string
	var limit int
	var summary bool

	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List archived invoices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			archive, err := initArchive(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = archive.Close() }()

			if summary {
				summaries, err := archive.GetSupplierSummary(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SUPPLIER\tINVOICES\tTOTAL HT\tLAST IMPORT")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\n",
						s.Supplier, s.InvoiceCount, s.TotalExclTax,
						s.LastImportedAt.Format("2006-01-02"))
				}
				return w.Flush()
			}

			invoices, err := archive.ListInvoices(ctx, supplier, limit)
			if err != nil {
				return err
			}
			if len(invoices) == 0 {
				fmt.Println("No archived invoices")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUPPLIER\tNUMBER\tDATE\tLINES\tTOTAL HT")
			for _, inv := range invoices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\n",
					inv.ID, inv.Supplier, inv.DocumentNumber,
					inv.DocumentDate.Format("2006-01-02"), len(inv.Lines), inv.TotalExclTax)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&supplier, "supplier", "", "filter by supplier")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of invoices to list (0 for all)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print per-supplier totals instead")

	return cmd
}
