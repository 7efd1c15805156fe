// Package market implements the deterministic ledger-state engine for the
// marketplace: item listing and purchase, sale-flag control, trade offers
// with expiry, and fixed-duration rentals. Every exported operation is one
// atomic state transition: all preconditions are checked before any mutation,
// and a failed operation leaves the state byte-for-byte as it was.
//
// The engine holds the arenas in memory; persistence happens through
// Snapshot/Restore against a backend. Expiry of offers and rentals is lazy:
// a pure comparison against the ambient height at call time, never a timer.
package market

import (
	"sync"

	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// Engine is the shared ledger state plus the ambient environment it consumes.
// A single mutex serializes operations, giving each call the total-order
// isolation the semantics require.
type Engine struct {
	mu  sync.Mutex
	env types.Environment

	items      map[uint64]*types.Item
	offers     map[uint64]*types.TradeOffer
	rentals    map[uint64]*types.Rental // keyed by item id, one per item
	quantities map[types.QuantityKey]uint64

	nextItemID  uint64
	nextOfferID uint64
}

// New returns an empty engine reading height and value transfers from env.
func New(env types.Environment) *Engine {
	return &Engine{
		env:         env,
		items:       make(map[uint64]*types.Item),
		offers:      make(map[uint64]*types.TradeOffer),
		rentals:     make(map[uint64]*types.Rental),
		quantities:  make(map[types.QuantityKey]uint64),
		nextItemID:  1,
		nextOfferID: 1,
	}
}

// ListItem mints a new item owned by the caller, for sale at the given
// price, and returns its id. Ids are monotonic and never reused.
func (e *Engine) ListItem(caller, name string, price uint64) (uint64, error) {
	if err := types.ValidateName(name); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextItemID
	e.nextItemID++
	e.items[id] = &types.Item{
		ID:      id,
		Name:    name,
		Price:   price,
		ForSale: true,
		Owner:   caller,
	}
	return id, nil
}

// GetItem returns a copy of the item record, or ErrItemNotFound. Read-only.
func (e *Engine) GetItem(id uint64) (*types.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.items[id]
	if !ok {
		return nil, types.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

// SetItemForSale toggles the sale flag. Only the owner may call it, and the
// flag cannot be raised while the item has an active rental.
func (e *Engine) SetItemForSale(caller string, id uint64, forSale bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.items[id]
	if !ok {
		return types.ErrItemNotFound
	}
	if item.Owner != caller {
		return types.ErrUnauthorized
	}
	if forSale && e.rentalActiveLocked(id) {
		return types.ErrItemRented
	}

	item.ForSale = forSale
	return nil
}

// SetRentalPrice sets the per-rental fee charged by RentItem. Owner only.
func (e *Engine) SetRentalPrice(caller string, id uint64, price uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.items[id]
	if !ok {
		return types.ErrItemNotFound
	}
	if item.Owner != caller {
		return types.ErrUnauthorized
	}

	item.RentalPrice = price
	return nil
}

// PurchaseItem executes a direct buy: the caller pays the listed price to the
// current owner, takes ownership, the sale flag drops, and the caller's
// quantity record for the item increments. The transfer and the record
// mutations are one indivisible transition; a failed transfer changes
// nothing.
func (e *Engine) PurchaseItem(caller string, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.items[id]
	if !ok {
		return types.ErrItemNotFound
	}
	if !item.ForSale {
		return types.ErrItemNotForSale
	}

	if err := e.env.Transfer(caller, item.Owner, item.Price); err != nil {
		return err
	}

	item.Owner = caller
	item.ForSale = false
	e.quantities[types.QuantityKey{Owner: caller, ItemID: id}]++
	return nil
}

// UserItemQuantity returns the cumulative number of purchases of the item by
// the owner. Absent records read as 0. Read-only.
func (e *Engine) UserItemQuantity(owner string, id uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quantities[types.QuantityKey{Owner: owner, ItemID: id}]
}

// CreateTradeOffer proposes swapping the caller's item for the counterparty's
// and returns the new offer id. The offer expires duration blocks from the
// current height; expiry is checked lazily at acceptance time.
func (e *Engine) CreateTradeOffer(caller string, offeredID, requestedID uint64, counterparty string, duration uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	offered, ok := e.items[offeredID]
	if !ok {
		return 0, types.ErrItemNotFound
	}
	if offered.Owner != caller {
		return 0, types.ErrUnauthorized
	}

	id := e.nextOfferID
	e.nextOfferID++
	e.offers[id] = &types.TradeOffer{
		ID:              id,
		OfferedItemID:   offeredID,
		RequestedItemID: requestedID,
		Proposer:        caller,
		Counterparty:    counterparty,
		ExpiryHeight:    e.env.Height() + duration,
		Status:          types.OfferStatusOpen,
	}
	return id, nil
}

// AcceptTrade settles an open offer: the proposer receives the requested
// item, the counterparty receives the offered item, and the offer becomes
// terminally accepted. Only the recorded counterparty may accept, and only
// before the expiry height. A resolved offer reads as not found.
func (e *Engine) AcceptTrade(caller string, offerID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	offer, ok := e.offers[offerID]
	if !ok || offer.Status != types.OfferStatusOpen {
		return types.ErrOfferNotFound
	}
	if offer.Counterparty != caller {
		return types.ErrUnauthorized
	}
	if offer.ExpiredAt(e.env.Height()) {
		return types.ErrOfferExpired
	}

	offered, ok := e.items[offer.OfferedItemID]
	if !ok {
		return types.ErrItemNotFound
	}
	requested, ok := e.items[offer.RequestedItemID]
	if !ok {
		return types.ErrItemNotFound
	}

	offered.Owner = offer.Counterparty
	requested.Owner = offer.Proposer
	offer.Status = types.OfferStatusAccepted
	return nil
}

// RentItem starts a fixed-duration rental of the item to renter, locking the
// sale flag until the rental ends. If the item carries a rental price, that
// amount moves from the renter to the owner before any record is written.
// Only the current owner may rent out the item, and only while no rental is
// active; an expired but uncleared record is overwritten.
func (e *Engine) RentItem(caller string, itemID uint64, renter string, duration uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.items[itemID]
	if !ok {
		return types.ErrItemNotFound
	}
	if item.Owner != caller {
		return types.ErrUnauthorized
	}
	if e.rentalActiveLocked(itemID) {
		return types.ErrRentalActive
	}

	if item.RentalPrice > 0 {
		if err := e.env.Transfer(renter, item.Owner, item.RentalPrice); err != nil {
			return err
		}
	}

	start := e.env.Height()
	e.rentals[itemID] = &types.Rental{
		ItemID:       itemID,
		Renter:       renter,
		OwnerAtStart: caller,
		StartHeight:  start,
		Duration:     duration,
		EndHeight:    start + duration,
	}
	item.ForSale = false
	return nil
}

// EndRental clears the item's rental record once the rental has run its full
// duration, restoring sale-flag control to the owner. Termination is not
// early-cancelable: the call fails until the ambient height reaches the end
// height.
func (e *Engine) EndRental(itemID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rental, ok := e.rentals[itemID]
	if !ok {
		return types.ErrRentalNotFound
	}
	if rental.ActiveAt(e.env.Height()) {
		return types.ErrRentalNotExpired
	}

	delete(e.rentals, itemID)
	return nil
}

// Rental returns a copy of the item's rental record, cleared or not by
// expiry, or ErrRentalNotFound. Read-only.
func (e *Engine) Rental(itemID uint64) (*types.Rental, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rental, ok := e.rentals[itemID]
	if !ok {
		return nil, types.ErrRentalNotFound
	}
	cp := *rental
	return &cp, nil
}

// Items returns a copy of every item record, keyed by id. Read-only; used by
// listing surfaces and persistence.
func (e *Engine) Items() map[uint64]*types.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyItems(e.items)
}

// Restore replaces the engine's market state with the snapshot's.
func (e *Engine) Restore(snap *types.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = copyItems(snap.Items)
	e.offers = make(map[uint64]*types.TradeOffer, len(snap.Offers))
	for id, offer := range snap.Offers {
		cp := *offer
		e.offers[id] = &cp
	}
	e.rentals = make(map[uint64]*types.Rental, len(snap.Rentals))
	for id, rental := range snap.Rentals {
		cp := *rental
		e.rentals[id] = &cp
	}
	e.quantities = make(map[types.QuantityKey]uint64, len(snap.Quantities))
	for key, count := range snap.Quantities {
		e.quantities[key] = count
	}
	e.nextItemID = snap.NextItemID
	e.nextOfferID = snap.NextOfferID
	if e.nextItemID == 0 {
		e.nextItemID = 1
	}
	if e.nextOfferID == 0 {
		e.nextOfferID = 1
	}
}

// Capture writes the engine's market state into the snapshot.
func (e *Engine) Capture(snap *types.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap.Items = copyItems(e.items)
	snap.Offers = make(map[uint64]*types.TradeOffer, len(e.offers))
	for id, offer := range e.offers {
		cp := *offer
		snap.Offers[id] = &cp
	}
	snap.Rentals = make(map[uint64]*types.Rental, len(e.rentals))
	for id, rental := range e.rentals {
		cp := *rental
		snap.Rentals[id] = &cp
	}
	snap.Quantities = make(map[types.QuantityKey]uint64, len(e.quantities))
	for key, count := range e.quantities {
		snap.Quantities[key] = count
	}
	snap.NextItemID = e.nextItemID
	snap.NextOfferID = e.nextOfferID
}

// rentalActiveLocked reports whether the item has an unexpired rental at the
// current ambient height. The caller must hold e.mu.
func (e *Engine) rentalActiveLocked(itemID uint64) bool {
	rental, ok := e.rentals[itemID]
	return ok && rental.ActiveAt(e.env.Height())
}

func copyItems(items map[uint64]*types.Item) map[uint64]*types.Item {
	out := make(map[uint64]*types.Item, len(items))
	for id, item := range items {
		cp := *item
		out[id] = &cp
	}
	return out
}
