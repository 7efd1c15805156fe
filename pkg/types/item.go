package types

// MaxItemNameLen bounds item names, in bytes.
const MaxItemNameLen = 64

// Item is a canonical marketplace item record. Items are minted by listing
// and never deleted; ownership and the sale flag change through purchases,
// explicit toggles, trade settlement, and rentals.
type Item struct {
	ID          uint64 `json:"id"`           // monotonic, assigned at listing, never reused
	Name        string `json:"name"`         // non-empty, at most MaxItemNameLen bytes
	Price       uint64 `json:"price"`        // sale price in the smallest value unit
	RentalPrice uint64 `json:"rental_price"` // per-rental fee, 0 means free
	ForSale     bool   `json:"for_sale"`
	Owner       string `json:"owner"` // principal of the current owner
}

// ValidateName reports whether name is acceptable for a new item.
// Returns ErrInvalidName for empty or oversized names.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxItemNameLen {
		return ErrInvalidName
	}
	return nil
}

// QuantityKey identifies one quantity record: how many times owner has
// acquired the item through purchases. Counts are cumulative and never
// decremented.
type QuantityKey struct {
	Owner  string
	ItemID uint64
}
