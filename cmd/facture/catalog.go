package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	var addRef, addDesc string

	cmd := &cobra.Command{
		Use:   "catalog <supplier>",
		Short: "Inspect or seed the reference catalog",
		Long: `Catalog lists the reference descriptions accumulated for a supplier.
With --add and --description, it seeds one entry by hand instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, kv, err := initCatalog()
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			supplier := args[0]
			if addRef != "" {
				if addDesc == "" {
					return fmt.Errorf("--description is required with --add")
				}
				if err := catalog.Remember(cmd.Context(), supplier, addRef, addDesc); err != nil {
					return err
				}
				fmt.Printf("Recorded %s for %s\n", addRef, supplier)
				return nil
			}

			refs, err := catalog.References(cmd.Context(), supplier)
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				fmt.Printf("No catalog entries for %s\n", supplier)
				return nil
			}

			entries, err := catalog.Entries(cmd.Context(), supplier)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tUSES\tDESCRIPTION")
			for _, ref := range refs {
				entry := entries[ref]
				fmt.Fprintf(w, "%s\t%d\t%s\n", ref, entry.UseCount, entry.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&addRef, "add", "", "reference code to seed")
	cmd.Flags().StringVar(&addDesc, "description", "", "description for the seeded reference")

	return cmd
}
