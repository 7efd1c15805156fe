// Package chain provides the ambient execution environment the market engine
// consumes: a monotonic block-height clock, principal accounts, and an atomic
// value-transfer primitive. It stands in for the blockchain runtime; the
// engine only ever sees it through the types.Environment interface.
package chain

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// Account lookup errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAliasTaken      = errors.New("alias already in use")
)

// Compile-time interface check: Sim must implement Environment.
var _ types.Environment = (*Sim)(nil)

// Sim is an in-process chain environment: height, accounts, balances.
// All methods are safe for concurrent use, though the intended execution
// model is one operation at a time.
type Sim struct {
	mu       sync.Mutex
	height   uint64
	accounts map[string]*types.Account // keyed by principal
	aliases  map[string]string         // alias -> principal
}

// NewSim returns an environment at height 0 with no accounts.
func NewSim() *Sim {
	return &Sim{
		accounts: make(map[string]*types.Account),
		aliases:  make(map[string]string),
	}
}

// Height returns the current block height.
func (s *Sim) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Mine advances the height by n blocks and returns the new height.
func (s *Sim) Mine(n uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height += n
	return s.height
}

// NewAccount mints a fresh principal, registers it with the given alias and
// initial balance, and returns the account. The alias may be empty; a
// non-empty alias must be unused.
func (s *Sim) NewAccount(alias string, balance uint64) (*types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alias != "" {
		if _, taken := s.aliases[alias]; taken {
			return nil, ErrAliasTaken
		}
	}

	acct := &types.Account{
		Principal: newPrincipal(),
		Alias:     alias,
		Balance:   balance,
	}
	s.accounts[acct.Principal] = acct
	if alias != "" {
		s.aliases[alias] = acct.Principal
	}
	return acct, nil
}

// Resolve maps an alias or principal to a principal. Unknown identifiers
// return ErrAccountNotFound.
func (s *Sim) Resolve(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if principal, ok := s.aliases[id]; ok {
		return principal, nil
	}
	if _, ok := s.accounts[id]; ok {
		return id, nil
	}
	return "", ErrAccountNotFound
}

// Balance returns the balance of the given principal.
func (s *Sim) Balance(principal string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[principal]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return acct.Balance, nil
}

// Credit adds amount to the principal's balance, creating the account if it
// does not exist.
func (s *Sim) Credit(principal string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creditLocked(principal, amount)
}

// Transfer atomically moves amount from one principal to another. It fails
// with types.ErrInsufficientFunds when the payer's balance is short and with
// ErrAccountNotFound for an unknown payer; on failure neither balance
// changes. Zero-amount and self transfers succeed. Unknown payees are
// created on first credit, as chain addresses are.
func (s *Sim) Transfer(from, to string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payer, ok := s.accounts[from]
	if !ok {
		return ErrAccountNotFound
	}
	if payer.Balance < amount {
		return types.ErrInsufficientFunds
	}
	if from == to {
		return nil
	}

	payer.Balance -= amount
	s.creditLocked(to, amount)
	return nil
}

// Accounts returns a copy of every account, keyed by principal.
func (s *Sim) Accounts() map[string]*types.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*types.Account, len(s.accounts))
	for principal, acct := range s.accounts {
		cp := *acct
		out[principal] = &cp
	}
	return out
}

// Restore replaces the environment state with the snapshot's chain portion.
func (s *Sim) Restore(snap *types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.height = snap.Height
	s.accounts = make(map[string]*types.Account, len(snap.Accounts))
	s.aliases = make(map[string]string)
	for principal, acct := range snap.Accounts {
		cp := *acct
		s.accounts[principal] = &cp
		if cp.Alias != "" {
			s.aliases[cp.Alias] = principal
		}
	}
}

// Capture writes the environment state into the snapshot's chain portion.
func (s *Sim) Capture(snap *types.Snapshot) {
	snap.Height = s.Height()
	snap.Accounts = s.Accounts()
}

// creditLocked adds amount to principal, creating the account if needed.
// The caller must hold s.mu.
func (s *Sim) creditLocked(principal string, amount uint64) {
	acct, ok := s.accounts[principal]
	if !ok {
		acct = &types.Account{Principal: principal}
		s.accounts[principal] = acct
	}
	acct.Balance += amount
}

// newPrincipal generates a fresh principal identifier (UUID v7, with a v4
// fallback if v7 generation fails).
func newPrincipal() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
