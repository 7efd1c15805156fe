// Item commands: listing, reading, sale-flag control, purchase, rental
// pricing, and quantity lookups.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage marketplace items",
	}
	cmd.AddCommand(newItemListCmd())
	cmd.AddCommand(newItemLsCmd())
	cmd.AddCommand(newItemGetCmd())
	cmd.AddCommand(newItemBuyCmd())
	cmd.AddCommand(newItemForSaleCmd())
	cmd.AddCommand(newItemRentalPriceCmd())
	cmd.AddCommand(newItemQuantityCmd())
	return cmd
}

func newItemListCmd() *cobra.Command {
	var (
		name  string
		price uint64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a new item for sale",
		Long: `List mints a new item owned by the caller, for sale at the given price.

Example:
  bazaar item list --name "Neon Cabinet" --price 100000000 --caller alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			id, err := engine.ListItem(caller, name, price)
			if err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			return printResult(cmd, map[string]any{"id": id},
				fmt.Sprintf("Listed item %d", id))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name (required)")
	cmd.Flags().Uint64Var(&price, "price", 0, "sale price in the smallest value unit")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newItemLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Print every item record",
		RunE: func(cmd *cobra.Command, args []string) error {
			items := engine.Items()
			ids := make([]uint64, 0, len(items))
			for id := range items {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			if flags.jsonMode {
				out := make([]any, 0, len(ids))
				for _, id := range ids {
					out = append(out, items[id])
				}
				return printResult(cmd, out, "")
			}
			for _, id := range ids {
				item := items[id]
				fmt.Fprintf(cmd.OutOrStdout(), "item %d: %q price=%d rental_price=%d for_sale=%v owner=%s\n",
					item.ID, item.Name, item.Price, item.RentalPrice, item.ForSale, item.Owner)
			}
			return nil
		},
	}
}

func newItemGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print an item record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint(args[0], "item id")
			if err != nil {
				return err
			}
			item, err := engine.GetItem(id)
			if err != nil {
				return opError(err)
			}
			return printResult(cmd, item,
				fmt.Sprintf("item %d: %q price=%d rental_price=%d for_sale=%v owner=%s",
					item.ID, item.Name, item.Price, item.RentalPrice, item.ForSale, item.Owner))
		},
	}
}

func newItemBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy ID",
		Short: "Purchase an item",
		Long:  "Buy transfers the listed price from the caller to the owner, takes ownership, and drops the sale flag, all atomically.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			id, err := parseUint(args[0], "item id")
			if err != nil {
				return err
			}
			if err := engine.PurchaseItem(caller, id); err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purchased item %d\n", id)
			return nil
		},
	}
}

func newItemForSaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-for-sale ID FLAG",
		Short: "Toggle an item's sale flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			id, err := parseUint(args[0], "item id")
			if err != nil {
				return err
			}
			forSale, err := parseBool(args[1], "flag")
			if err != nil {
				return err
			}
			if err := engine.SetItemForSale(caller, id, forSale); err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d for-sale set to %v\n", id, forSale)
			return nil
		},
	}
}

func newItemRentalPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-rental-price ID PRICE",
		Short: "Set an item's per-rental fee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := resolveCaller()
			if err != nil {
				return err
			}
			id, err := parseUint(args[0], "item id")
			if err != nil {
				return err
			}
			price, err := parseUint(args[1], "rental price")
			if err != nil {
				return err
			}
			if err := engine.SetRentalPrice(caller, id, price); err != nil {
				return opError(err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d rental price set to %d\n", id, price)
			return nil
		},
	}
}

func newItemQuantityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quantity OWNER ID",
		Short: "Print how many times an identity has purchased an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveIdentity(args[0])
			if err != nil {
				return err
			}
			id, err := parseUint(args[1], "item id")
			if err != nil {
				return err
			}
			quantity := engine.UserItemQuantity(owner, id)
			return printResult(cmd,
				map[string]any{"owner": owner, "item_id": id, "quantity": quantity},
				fmt.Sprintf("%d", quantity))
		},
	}
}
