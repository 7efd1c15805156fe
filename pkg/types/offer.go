package types

// Trade offer statuses. An offer is created open and resolved terminally by
// acceptance. Expired offers keep the open status but become inert; expiry
// is a read-time height comparison, never a stored transition.
const (
	OfferStatusOpen     = "open"
	OfferStatusAccepted = "accepted"
)

// TradeOffer is a two-party item-swap proposal with an absolute expiry
// height.
type TradeOffer struct {
	ID              uint64 `json:"id"`
	OfferedItemID   uint64 `json:"offered_item_id"`
	RequestedItemID uint64 `json:"requested_item_id"`
	Proposer        string `json:"proposer"`     // owned the offered item at creation
	Counterparty    string `json:"counterparty"` // the only principal that may accept
	ExpiryHeight    uint64 `json:"expiry_height"`
	Status          string `json:"status"`
}

// ExpiredAt reports whether the offer can no longer be accepted at the given
// height.
func (o *TradeOffer) ExpiredAt(height uint64) bool {
	return height >= o.ExpiryHeight
}
