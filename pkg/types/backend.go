package types

import "errors"

// Backend defines the persistence interface for ledger state. Callers attach
// to a backend, load and save whole snapshots, and detach when done. Save is
// all-or-nothing, mirroring the per-operation atomicity of the engine.
type Backend interface {
	// Attach connects the backend described by config. Creates the DataDir
	// if it does not exist. Returns ErrAlreadyAttached if called while
	// already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, Load and Save return ErrDetached.
	Detach() error

	// Load reads the persisted snapshot. A freshly initialized backend
	// returns an empty snapshot, not an error.
	Load() (*Snapshot, error)

	// Save persists the snapshot atomically, replacing the previous state.
	Save(snap *Snapshot) error
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
