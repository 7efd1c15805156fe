// JSONL export for audit and diff-friendly inspection of the ledger state.
// Each entity type is written to its own .jsonl file with the temp-file,
// fsync, rename pattern so a crashed export never leaves a torn file.
package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// Export file names inside DataDir.
const (
	itemsJSONL      = "items.jsonl"
	offersJSONL     = "offers.jsonl"
	rentalsJSONL    = "rentals.jsonl"
	quantitiesJSONL = "quantities.jsonl"
	accountsJSONL   = "accounts.jsonl"
)

// quantityRow is the export shape of one quantity record; the in-memory map
// key has no natural JSON form.
type quantityRow struct {
	Owner    string `json:"owner"`
	ItemID   uint64 `json:"item_id"`
	Quantity uint64 `json:"quantity"`
}

// Export writes the snapshot to JSONL files in the backend's DataDir.
// Records are ordered by id (or key) so repeated exports of the same state
// are byte-identical.
func (b *Backend) Export(snap *types.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}

	items := make([]any, 0, len(snap.Items))
	for _, id := range sortedKeys(snap.Items) {
		items = append(items, snap.Items[id])
	}
	if err := writeEntitiesJSONL(filepath.Join(dataDir, itemsJSONL), items); err != nil {
		return err
	}

	offers := make([]any, 0, len(snap.Offers))
	for _, id := range sortedKeys(snap.Offers) {
		offers = append(offers, snap.Offers[id])
	}
	if err := writeEntitiesJSONL(filepath.Join(dataDir, offersJSONL), offers); err != nil {
		return err
	}

	rentals := make([]any, 0, len(snap.Rentals))
	for _, id := range sortedKeys(snap.Rentals) {
		rentals = append(rentals, snap.Rentals[id])
	}
	if err := writeEntitiesJSONL(filepath.Join(dataDir, rentalsJSONL), rentals); err != nil {
		return err
	}

	qKeys := make([]types.QuantityKey, 0, len(snap.Quantities))
	for key := range snap.Quantities {
		qKeys = append(qKeys, key)
	}
	sort.Slice(qKeys, func(i, j int) bool {
		if qKeys[i].Owner != qKeys[j].Owner {
			return qKeys[i].Owner < qKeys[j].Owner
		}
		return qKeys[i].ItemID < qKeys[j].ItemID
	})
	quantities := make([]any, 0, len(qKeys))
	for _, key := range qKeys {
		quantities = append(quantities, quantityRow{Owner: key.Owner, ItemID: key.ItemID, Quantity: snap.Quantities[key]})
	}
	if err := writeEntitiesJSONL(filepath.Join(dataDir, quantitiesJSONL), quantities); err != nil {
		return err
	}

	principals := make([]string, 0, len(snap.Accounts))
	for principal := range snap.Accounts {
		principals = append(principals, principal)
	}
	sort.Strings(principals)
	accounts := make([]any, 0, len(principals))
	for _, principal := range principals {
		accounts = append(accounts, snap.Accounts[principal])
	}
	return writeEntitiesJSONL(filepath.Join(dataDir, accountsJSONL), accounts)
}

// writeEntitiesJSONL marshals each entity to one line and writes the file
// atomically.
func writeEntitiesJSONL(path string, entities []any) error {
	records := make([]json.RawMessage, 0, len(entities))
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling record for %s: %w", path, err)
		}
		records = append(records, data)
	}
	return writeJSONL(path, records)
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// sortedKeys returns the map's keys in ascending order.
func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
