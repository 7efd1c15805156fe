// Shared state and helpers for bazaar CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bazaar/internal/chain"
	"github.com/mesh-intelligence/bazaar/internal/market"
	"github.com/mesh-intelligence/bazaar/internal/sqlite"
	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	caller    string
	jsonMode  bool
}

var flags rootFlags

// Ledger session for the current invocation, opened by PersistentPreRunE.
var (
	backend *sqlite.Backend
	env     *chain.Sim
	engine  *market.Engine
)

// openLedger attaches the backend and restores the snapshot into a fresh
// environment and engine.
func openLedger(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	v, err := loadConfig(resolveConfigDir())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg := types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: resolveDataDir(v),
	}

	backend = sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return fmt.Errorf("attach backend: %w", err)
	}

	snap, err := backend.Load()
	if err != nil {
		backend.Detach()
		return fmt.Errorf("load ledger: %w", err)
	}

	env = chain.NewSim()
	env.Restore(snap)
	engine = market.New(env)
	engine.Restore(snap)
	return nil
}

// saveLedger persists the current engine and environment state. Commands
// call it after a successful mutation; a failed operation saves nothing.
func saveLedger() error {
	snap := types.NewSnapshot()
	engine.Capture(snap)
	env.Capture(snap)
	if err := backend.Save(snap); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// closeLedger detaches the backend.
func closeLedger(cmd *cobra.Command, args []string) error {
	if backend != nil {
		return backend.Detach()
	}
	return nil
}

// resolveCaller maps the --caller flag to a principal. Mutating commands
// require it.
func resolveCaller() (string, error) {
	if flags.caller == "" {
		return "", errors.New("--caller is required for this command")
	}
	principal, err := env.Resolve(flags.caller)
	if err != nil {
		return "", fmt.Errorf("resolve caller %q: %w", flags.caller, err)
	}
	return principal, nil
}

// resolveIdentity maps an alias or principal argument to a principal.
func resolveIdentity(id string) (string, error) {
	principal, err := env.Resolve(id)
	if err != nil {
		return "", fmt.Errorf("resolve identity %q: %w", id, err)
	}
	return principal, nil
}

// parseUint parses a non-negative integer command argument.
func parseUint(arg, what string) (uint64, error) {
	v, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, arg, err)
	}
	return v, nil
}

// parseBool parses a boolean command argument.
func parseBool(arg, what string) (bool, error) {
	v, err := strconv.ParseBool(arg)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", what, arg, err)
	}
	return v, nil
}

// printResult writes v as indented JSON when --json is set, or via text
// otherwise. text is a preformatted human-readable line.
func printResult(cmd *cobra.Command, v any, text string) error {
	if flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// opError decorates ledger errors with their numeric code for CLI output.
func opError(err error) error {
	if code := types.CodeOf(err); code != 0 {
		return fmt.Errorf("%w (err u%d)", err, code)
	}
	return err
}
