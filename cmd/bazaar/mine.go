package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine [BLOCKS]",
		Short: "Advance the block height",
		Long:  "Advance the ambient block height by BLOCKS (default 1). Offer and rental expiry is evaluated lazily against this height.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks := uint64(1)
			if len(args) == 1 {
				var err error
				blocks, err = parseUint(args[0], "block count")
				if err != nil {
					return err
				}
			}
			height := env.Mine(blocks)
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Height is now %d\n", height)
			return nil
		},
	}
}
