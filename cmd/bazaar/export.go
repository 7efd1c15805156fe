package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bazaar/pkg/types"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the ledger state as JSONL files",
		Long:  "Export writes items.jsonl, offers.jsonl, rentals.jsonl, quantities.jsonl, and accounts.jsonl into the data directory for audit and diffing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := types.NewSnapshot()
			engine.Capture(snap)
			env.Capture(snap)
			if err := backend.Export(snap); err != nil {
				return fmt.Errorf("export ledger: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ledger exported")
			return nil
		},
	}
}
