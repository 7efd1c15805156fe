// Package main provides the bazaar CLI: a stateful driver for the
// marketplace ledger engine. Every invocation attaches the backend, restores
// the ledger snapshot, runs one operation, and persists the result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bazaar",
	Short: "Bazaar is a deterministic marketplace ledger",
	Long: `Bazaar manages a digital-item marketplace: listing and buying items,
peer-to-peer trade offers with expiry, and fixed-duration rentals that
suspend sale rights. State lives in a local SQLite database; block height
advances only when you mine.`,
	SilenceUsage:       true,
	PersistentPreRunE:  openLedger,
	PersistentPostRunE: closeLedger,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .bazaar)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .bazaar-db)")
	rootCmd.PersistentFlags().StringVar(&flags.caller, "caller", "", "caller identity (account alias or principal)")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newMineCmd())
	rootCmd.AddCommand(newItemCmd())
	rootCmd.AddCommand(newTradeCmd())
	rootCmd.AddCommand(newRentCmd())
	rootCmd.AddCommand(newExportCmd())
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the bazaar ledger",
	Long:  "Create the configuration and data directories and initialize the storage backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The ledger is already attached by PersistentPreRunE; persist the
		// (possibly empty) snapshot so the database is fully materialized.
		if err := saveLedger(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Bazaar ledger initialized successfully")
		return nil
	},
}
