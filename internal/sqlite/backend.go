// Package sqlite implements the persistent backend for the marketplace
// ledger. State is stored in a single SQLite database; Load and Save move
// whole snapshots, with Save replacing the previous state inside one
// transaction to mirror the per-operation atomicity of the engine.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// dbFileName is the database file created inside DataDir.
const dbFileName = "bazaar.db"

// Compile-time interface check: Backend must implement Backend.
var _ types.Backend = (*Backend)(nil)

// Backend implements the types.Backend interface on SQLite.
type Backend struct {
	mu       sync.Mutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database under config.DataDir, creating the directory and
// applying the schema as needed. Returns ErrAlreadyAttached if called while
// already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return err
	}
	for _, ddl := range allSchemas {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent; after Detach, Load and Save return
// ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Load reads the complete persisted snapshot. A freshly initialized database
// yields an empty snapshot with the id nonces at 1.
func (b *Backend) Load() (*types.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	snap := types.NewSnapshot()

	err := b.db.QueryRow(
		"SELECT height, next_item_id, next_offer_id FROM chain WHERE id = 1",
	).Scan(&snap.Height, &snap.NextItemID, &snap.NextOfferID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("loading chain row: %w", err)
	}

	if err := b.loadItems(snap); err != nil {
		return nil, err
	}
	if err := b.loadQuantities(snap); err != nil {
		return nil, err
	}
	if err := b.loadOffers(snap); err != nil {
		return nil, err
	}
	if err := b.loadRentals(snap); err != nil {
		return nil, err
	}
	if err := b.loadAccounts(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save persists the snapshot, replacing all previous state in one
// transaction.
func (b *Backend) Save(snap *types.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"items", "quantities", "offers", "rentals", "accounts", "chain"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO chain (id, height, next_item_id, next_offer_id) VALUES (1, ?, ?, ?)",
		snap.Height, snap.NextItemID, snap.NextOfferID,
	); err != nil {
		return fmt.Errorf("saving chain row: %w", err)
	}

	for _, item := range snap.Items {
		if _, err := tx.Exec(
			"INSERT INTO items (item_id, name, price, rental_price, for_sale, owner) VALUES (?, ?, ?, ?, ?, ?)",
			item.ID, item.Name, item.Price, item.RentalPrice, boolToInt(item.ForSale), item.Owner,
		); err != nil {
			return fmt.Errorf("saving item %d: %w", item.ID, err)
		}
	}
	for key, count := range snap.Quantities {
		if _, err := tx.Exec(
			"INSERT INTO quantities (owner, item_id, quantity) VALUES (?, ?, ?)",
			key.Owner, key.ItemID, count,
		); err != nil {
			return fmt.Errorf("saving quantity (%s, %d): %w", key.Owner, key.ItemID, err)
		}
	}
	for _, offer := range snap.Offers {
		if _, err := tx.Exec(
			"INSERT INTO offers (offer_id, offered_item_id, requested_item_id, proposer, counterparty, expiry_height, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
			offer.ID, offer.OfferedItemID, offer.RequestedItemID, offer.Proposer, offer.Counterparty, offer.ExpiryHeight, offer.Status,
		); err != nil {
			return fmt.Errorf("saving offer %d: %w", offer.ID, err)
		}
	}
	for _, rental := range snap.Rentals {
		if _, err := tx.Exec(
			"INSERT INTO rentals (item_id, renter, owner_at_start, start_height, duration, end_height) VALUES (?, ?, ?, ?, ?, ?)",
			rental.ItemID, rental.Renter, rental.OwnerAtStart, rental.StartHeight, rental.Duration, rental.EndHeight,
		); err != nil {
			return fmt.Errorf("saving rental for item %d: %w", rental.ItemID, err)
		}
	}
	for _, acct := range snap.Accounts {
		if _, err := tx.Exec(
			"INSERT INTO accounts (principal, alias, balance) VALUES (?, ?, ?)",
			acct.Principal, acct.Alias, acct.Balance,
		); err != nil {
			return fmt.Errorf("saving account %s: %w", acct.Principal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func (b *Backend) loadItems(snap *types.Snapshot) error {
	rows, err := b.db.Query("SELECT item_id, name, price, rental_price, for_sale, owner FROM items")
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &types.Item{}
		var forSale int
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.RentalPrice, &forSale, &item.Owner); err != nil {
			return fmt.Errorf("scanning item: %w", err)
		}
		item.ForSale = forSale != 0
		snap.Items[item.ID] = item
	}
	return rows.Err()
}

func (b *Backend) loadQuantities(snap *types.Snapshot) error {
	rows, err := b.db.Query("SELECT owner, item_id, quantity FROM quantities")
	if err != nil {
		return fmt.Errorf("loading quantities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key types.QuantityKey
		var count uint64
		if err := rows.Scan(&key.Owner, &key.ItemID, &count); err != nil {
			return fmt.Errorf("scanning quantity: %w", err)
		}
		snap.Quantities[key] = count
	}
	return rows.Err()
}

func (b *Backend) loadOffers(snap *types.Snapshot) error {
	rows, err := b.db.Query("SELECT offer_id, offered_item_id, requested_item_id, proposer, counterparty, expiry_height, status FROM offers")
	if err != nil {
		return fmt.Errorf("loading offers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		offer := &types.TradeOffer{}
		if err := rows.Scan(&offer.ID, &offer.OfferedItemID, &offer.RequestedItemID, &offer.Proposer, &offer.Counterparty, &offer.ExpiryHeight, &offer.Status); err != nil {
			return fmt.Errorf("scanning offer: %w", err)
		}
		snap.Offers[offer.ID] = offer
	}
	return rows.Err()
}

func (b *Backend) loadRentals(snap *types.Snapshot) error {
	rows, err := b.db.Query("SELECT item_id, renter, owner_at_start, start_height, duration, end_height FROM rentals")
	if err != nil {
		return fmt.Errorf("loading rentals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rental := &types.Rental{}
		if err := rows.Scan(&rental.ItemID, &rental.Renter, &rental.OwnerAtStart, &rental.StartHeight, &rental.Duration, &rental.EndHeight); err != nil {
			return fmt.Errorf("scanning rental: %w", err)
		}
		snap.Rentals[rental.ItemID] = rental
	}
	return rows.Err()
}

func (b *Backend) loadAccounts(snap *types.Snapshot) error {
	rows, err := b.db.Query("SELECT principal, alias, balance FROM accounts")
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		acct := &types.Account{}
		var alias sql.NullString
		if err := rows.Scan(&acct.Principal, &alias, &acct.Balance); err != nil {
			return fmt.Errorf("scanning account: %w", err)
		}
		acct.Alias = alias.String
		snap.Accounts[acct.Principal] = acct
	}
	return rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
