// Trade commands: creating and accepting item-swap offers.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Manage trade offers",
	}
	cmd.AddCommand(newTradeCreateCmd())
	cmd.AddCommand(newTradeAcceptCmd())
	return cmd
}

func newTradeCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create OFFERED REQUESTED COUNTERPARTY DURATION",
		Short: "Propose swapping the caller's item for another",
		Long: `Create proposes trading the caller's item OFFERED for item REQUESTED held
by COUNTERPARTY. The offer expires DURATION blocks from the current height.

Example:
  bazaar trade create 1 2 bob 100 --caller alice`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			offeredID, err := parseUint(args[0], "offered item id")
			if err != nil {
				return err
			}
			requestedID, err := parseUint(args[1], "requested item id")
			if err != nil {
				return err
			}
			counterparty, err := resolveIdentity(args[2])
			if err != nil {
				return err
			}
			duration, err := parseUint(args[3], "duration")
			if err != nil {
				return err
			}

			id, err := engine.CreateTradeOffer(caller, offeredID, requestedID, counterparty, duration)
			if err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			return printResult(cmd, map[string]any{"id": id},
				fmt.Sprintf("Created trade offer %d", id))
		},
	}
}

func newTradeAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept OFFERID",
		Short: "Accept a trade offer, swapping the two items' owners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			offerID, err := parseUint(args[0], "offer id")
			if err != nil {
				return err
			}
			if err := engine.AcceptTrade(caller, offerID); err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted trade offer %d\n", offerID)
			return nil
		},
	}
}
