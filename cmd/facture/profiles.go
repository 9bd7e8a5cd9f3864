package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Kdotropez/facture-fournisseur/internal/storage"
)

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles <supplier>",
		Short: "List learned parsing profiles for a supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := initKV()
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()
			profiles := storage.NewProfileStore(kv)

			stored, err := profiles.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(stored) == 0 {
				fmt.Printf("No profiles for %s\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSES\tLAST USED\tREMOVE RULES\tNUMBER PATTERNS\tMEMORIZED")
			for _, p := range stored {
				removes, numbers := 0, 0
				if p.Rules != nil {
					removes = len(p.Rules.RemovePatterns)
					numbers = len(p.Rules.NumberPatterns)
				}
				memorized := "-"
				if p.MemorizedInvoice != nil {
					memorized = p.MemorizedInvoice.DocumentNumber
				}
				lastUsed := "-"
				if !p.LastUsed.IsZero() {
					lastUsed = p.LastUsed.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\n",
					p.ID, p.UseCount, lastUsed, removes, numbers, memorized)
			}
			return w.Flush()
		},
	}
}
