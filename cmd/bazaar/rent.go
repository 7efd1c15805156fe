// Rent commands: starting and ending fixed-duration rentals.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rent",
		Short: "Manage item rentals",
	}
	cmd.AddCommand(newRentStartCmd())
	cmd.AddCommand(newRentEndCmd())
	return cmd
}

func newRentStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start ITEM RENTER DURATION",
		Short: "Rent an item out for a fixed number of blocks",
		Long: `Start creates a rental of ITEM to RENTER lasting DURATION blocks from the
current height. The caller must be the item's owner. The item's sale flag
drops and stays locked until the rental ends. If the item has a rental
price, that amount moves from the renter to the owner first.

Example:
  bazaar rent start 1 bob 100 --caller alice`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			itemID, err := parseUint(args[0], "item id")
			if err != nil {
				return err
			}
			renter, err := resolveIdentity(args[1])
			if err != nil {
				return err
			}
			duration, err := parseUint(args[2], "duration")
			if err != nil {
				return err
			}
			if err := engine.RentItem(caller, itemID, renter, duration); err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d rented until height %d\n", itemID, env.Height()+duration)
			return nil
		},
	}
}

func newRentEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end ITEM",
		Short: "Clear an item's rental once it has run its duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseUint(args[0], "item id")
			if err != nil {
				return err
			}
			if err := engine.EndRental(itemID); err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rental on item %d ended\n", itemID)
			return nil
		},
	}
}
