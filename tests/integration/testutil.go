// Package integration provides end-to-end marketplace scenarios driving the
// engine, the chain environment, and the SQLite backend together.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bazaar/internal/chain"
	"github.com/mesh-intelligence/bazaar/internal/market"
	"github.com/mesh-intelligence/bazaar/internal/sqlite"
	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// initialBalance funds each provisioned test account.
const initialBalance = 100_000_000_000

// Harness wires a funded environment, an engine, and an attached backend in
// a temp directory. It mimics the shape of a chain test driver: provisioned
// accounts, explicit block mining, and a persisted ledger.
type Harness struct {
	t       *testing.T
	DataDir string
	Env     *chain.Sim
	Engine  *market.Engine
	Backend *sqlite.Backend

	Deployer string
	User1    string
	User2    string
	User3    string
}

// NewHarness provisions four funded accounts and attaches a fresh backend.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		t:       t,
		DataDir: t.TempDir(),
		Env:     chain.NewSim(),
	}
	h.Engine = market.New(h.Env)

	h.Deployer = h.newAccount("deployer")
	h.User1 = h.newAccount("user1")
	h.User2 = h.newAccount("user2")
	h.User3 = h.newAccount("user3")

	h.Backend = sqlite.NewBackend()
	require.NoError(t, h.Backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: h.DataDir,
	}))
	t.Cleanup(func() { h.Backend.Detach() })

	return h
}

// Snapshot captures the full ledger state.
func (h *Harness) Snapshot() *types.Snapshot {
	snap := types.NewSnapshot()
	h.Engine.Capture(snap)
	h.Env.Capture(snap)
	return snap
}

// Persist saves the current state through the backend.
func (h *Harness) Persist() {
	h.t.Helper()
	require.NoError(h.t, h.Backend.Save(h.Snapshot()))
}

// Reload detaches, reattaches, and restores the engine and environment from
// the persisted snapshot, as a fresh CLI invocation would.
func (h *Harness) Reload() {
	h.t.Helper()

	require.NoError(h.t, h.Backend.Detach())
	require.NoError(h.t, h.Backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: h.DataDir,
	}))

	snap, err := h.Backend.Load()
	require.NoError(h.t, err)

	h.Env = chain.NewSim()
	h.Env.Restore(snap)
	h.Engine = market.New(h.Env)
	h.Engine.Restore(snap)
}

// Balance returns the principal's balance, failing the test on lookup error.
func (h *Harness) Balance(principal string) uint64 {
	h.t.Helper()
	balance, err := h.Env.Balance(principal)
	require.NoError(h.t, err)
	return balance
}

func (h *Harness) newAccount(alias string) string {
	h.t.Helper()
	acct, err := h.Env.NewAccount(alias, initialBalance)
	require.NoError(h.t, err)
	return acct.Principal
}
