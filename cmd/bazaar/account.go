// Account commands: provisioning principals and managing balances in the
// chain environment.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage ledger accounts",
	}
	cmd.AddCommand(newAccountNewCmd())
	cmd.AddCommand(newAccountFundCmd())
	cmd.AddCommand(newAccountBalanceCmd())
	cmd.AddCommand(newAccountListCmd())
	return cmd
}

func newAccountNewCmd() *cobra.Command {
	var (
		alias   string
		balance uint64
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new account with a fresh principal",
		Example: `  bazaar account new --alias alice --balance 1000000000
  bazaar account new`,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := env.NewAccount(alias, balance)
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			if err := saveLedger(); err != nil {
				return err
			}
			return printResult(cmd, acct,
				fmt.Sprintf("Created account %s (alias %q, balance %d)", acct.Principal, acct.Alias, acct.Balance))
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "human-readable alias for the account")
	cmd.Flags().Uint64Var(&balance, "balance", 0, "initial balance")
	return cmd
}

func newAccountFundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund IDENTITY AMOUNT",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := resolveIdentity(args[0])
			if err != nil {
				return err
			}
			amount, err := parseUint(args[1], "amount")
			if err != nil {
				return err
			}
			env.Credit(principal, amount)
			if err := saveLedger(); err != nil {
				return err
			}
			balance, _ := env.Balance(principal)
			fmt.Fprintf(cmd.OutOrStdout(), "Credited %d, new balance %d\n", amount, balance)
			return nil
		},
	}
}

func newAccountBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance IDENTITY",
		Short: "Print an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := resolveIdentity(args[0])
			if err != nil {
				return err
			}
			balance, err := env.Balance(principal)
			if err != nil {
				return err
			}
			return printResult(cmd,
				map[string]any{"principal": principal, "balance": balance},
				fmt.Sprintf("%d", balance))
		},
	}
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := env.Accounts()
			principals := make([]string, 0, len(accounts))
			for principal := range accounts {
				principals = append(principals, principal)
			}
			sort.Strings(principals)

			if flags.jsonMode {
				out := make([]any, 0, len(principals))
				for _, principal := range principals {
					out = append(out, accounts[principal])
				}
				return printResult(cmd, out, "")
			}
			for _, principal := range principals {
				acct := accounts[principal]
				fmt.Fprintf(cmd.OutOrStdout(), "%s\talias=%q\tbalance=%d\n", acct.Principal, acct.Alias, acct.Balance)
			}
			return nil
		},
	}
}
