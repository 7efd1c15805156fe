package types

// Account is a value-holding principal in the chain environment. Principals
// are opaque unique strings; Alias is an optional human-readable handle used
// by the CLI.
type Account struct {
	Principal string `json:"principal"`
	Alias     string `json:"alias,omitempty"`
	Balance   uint64 `json:"balance"`
}

// Environment provides the two ambient inputs every ledger operation
// consumes: the current block height and an atomic value-transfer primitive.
// Transfer moves amount from one principal to another or fails the whole
// operation with ErrInsufficientFunds, leaving both balances untouched.
type Environment interface {
	Height() uint64
	Transfer(from, to string, amount uint64) error
}

// Snapshot is the complete serializable ledger state: the market arenas, the
// id nonces, and the chain environment (height and accounts). It is the unit
// of persistence; a backend loads one on open and saves one after each
// successful mutation.
type Snapshot struct {
	Height      uint64
	NextItemID  uint64
	NextOfferID uint64
	Accounts    map[string]*Account
	Items       map[uint64]*Item
	Offers      map[uint64]*TradeOffer
	Rentals     map[uint64]*Rental
	Quantities  map[QuantityKey]uint64
}

// NewSnapshot returns an empty snapshot with id nonces at their initial
// values. The first listed item and the first trade offer both get id 1.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		NextItemID:  1,
		NextOfferID: 1,
		Accounts:    make(map[string]*Account),
		Items:       make(map[uint64]*Item),
		Offers:      make(map[uint64]*TradeOffer),
		Rentals:     make(map[uint64]*Rental),
		Quantities:  make(map[QuantityKey]uint64),
	}
}
