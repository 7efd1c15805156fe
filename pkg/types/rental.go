package types

// Rental is a fixed-duration custody transfer, keyed by item id: at most one
// record per item. While active it locks the item's sale flag. The record
// stays in place after expiry until EndRental clears it; activity is a pure
// function of ambient height.
type Rental struct {
	ItemID       uint64 `json:"item_id"`
	Renter       string `json:"renter"`
	OwnerAtStart string `json:"owner_at_start"` // principal that initiated the rental
	StartHeight  uint64 `json:"start_height"`
	Duration     uint64 `json:"duration"` // blocks
	EndHeight    uint64 `json:"end_height"`
}

// ActiveAt reports whether the rental still locks the item at the given
// height.
func (r *Rental) ActiveAt(height uint64) bool {
	return height < r.EndHeight
}
