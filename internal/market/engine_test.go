package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bazaar/internal/chain"
	"github.com/mesh-intelligence/bazaar/pkg/types"
)

// testEnv builds a chain simulator with two funded principals.
func testEnv(t *testing.T) (sim *chain.Sim, alice, bob string) {
	t.Helper()
	sim = chain.NewSim()
	a, err := sim.NewAccount("alice", 1_000_000_000)
	require.NoError(t, err)
	b, err := sim.NewAccount("bob", 1_000_000_000)
	require.NoError(t, err)
	return sim, a.Principal, b.Principal
}

func TestListItem(t *testing.T) {
	sim, alice, _ := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, "Neon Cabinet", item.Name)
	assert.Equal(t, uint64(100_000_000), item.Price)
	assert.True(t, item.ForSale)
	assert.Equal(t, alice, item.Owner)

	// Ids are monotonic.
	id2, err := eng.ListItem(alice, "Pinball Deck", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)
}

func TestListItemRejectsBadNames(t *testing.T) {
	sim, alice, _ := testEnv(t)
	eng := New(sim)

	_, err := eng.ListItem(alice, "", 10)
	assert.ErrorIs(t, err, types.ErrInvalidName)

	long := make([]byte, types.MaxItemNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = eng.ListItem(alice, string(long), 10)
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestGetItemUnknown(t *testing.T) {
	sim, _, _ := testEnv(t)
	eng := New(sim)

	_, err := eng.GetItem(42)
	assert.ErrorIs(t, err, types.ErrItemNotFound)
}

func TestGetItemReturnsCopy(t *testing.T) {
	sim, alice, _ := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Claw Machine", 10)
	require.NoError(t, err)

	item, err := eng.GetItem(id)
	require.NoError(t, err)
	item.Owner = "mallory"

	again, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, alice, again.Owner)
}

func TestPurchaseItem(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 100_000_000)
	require.NoError(t, err)

	require.NoError(t, eng.PurchaseItem(bob, id))

	// Purchase is atomic: ownership, flag, both balances, and the quantity
	// record all moved together.
	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, bob, item.Owner)
	assert.False(t, item.ForSale)

	aliceBal, _ := sim.Balance(alice)
	bobBal, _ := sim.Balance(bob)
	assert.Equal(t, uint64(1_100_000_000), aliceBal)
	assert.Equal(t, uint64(900_000_000), bobBal)

	assert.Equal(t, uint64(1), eng.UserItemQuantity(bob, id))
	assert.Equal(t, uint64(0), eng.UserItemQuantity(alice, id))
}

func TestPurchaseItemErrors(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	err := eng.PurchaseItem(bob, 99)
	assert.ErrorIs(t, err, types.ErrItemNotFound)
	assert.Equal(t, types.CodeItemNotFound, types.CodeOf(err))

	id, err := eng.ListItem(alice, "Neon Cabinet", 100)
	require.NoError(t, err)
	require.NoError(t, eng.SetItemForSale(alice, id, false))

	err = eng.PurchaseItem(bob, id)
	assert.ErrorIs(t, err, types.ErrItemNotForSale)
	assert.Equal(t, types.CodeItemNotForSale, types.CodeOf(err))
}

func TestPurchaseItemInsufficientFundsMutatesNothing(t *testing.T) {
	sim := chain.NewSim()
	seller, err := sim.NewAccount("seller", 0)
	require.NoError(t, err)
	pauper, err := sim.NewAccount("pauper", 99)
	require.NoError(t, err)

	eng := New(sim)
	id, err := eng.ListItem(seller.Principal, "Neon Cabinet", 100)
	require.NoError(t, err)

	err = eng.PurchaseItem(pauper.Principal, id)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)

	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, seller.Principal, item.Owner)
	assert.True(t, item.ForSale)
	assert.Equal(t, uint64(0), eng.UserItemQuantity(pauper.Principal, id))

	sellerBal, _ := sim.Balance(seller.Principal)
	pauperBal, _ := sim.Balance(pauper.Principal)
	assert.Equal(t, uint64(0), sellerBal)
	assert.Equal(t, uint64(99), pauperBal)
}

func TestQuantityIsCumulative(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)

	// Bob buys, relists, Alice buys back, Bob buys again: each purchase
	// increments only the buyer, and nothing ever decrements.
	require.NoError(t, eng.PurchaseItem(bob, id))
	require.NoError(t, eng.SetItemForSale(bob, id, true))
	require.NoError(t, eng.PurchaseItem(alice, id))
	require.NoError(t, eng.SetItemForSale(alice, id, true))
	require.NoError(t, eng.PurchaseItem(bob, id))

	assert.Equal(t, uint64(2), eng.UserItemQuantity(bob, id))
	assert.Equal(t, uint64(1), eng.UserItemQuantity(alice, id))
}

func TestSetItemForSale(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)

	err = eng.SetItemForSale(bob, id, false)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, eng.SetItemForSale(alice, id, false))
	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.False(t, item.ForSale)

	require.NoError(t, eng.SetItemForSale(alice, id, true))
	item, err = eng.GetItem(id)
	require.NoError(t, err)
	assert.True(t, item.ForSale)

	err = eng.SetItemForSale(alice, 99, true)
	assert.ErrorIs(t, err, types.ErrItemNotFound)
}

func TestCreateTradeOffer(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	itemA, err := eng.ListItem(alice, "Cabinet A", 10)
	require.NoError(t, err)
	itemB, err := eng.ListItem(bob, "Cabinet B", 10)
	require.NoError(t, err)

	sim.Mine(5)

	offerID, err := eng.CreateTradeOffer(alice, itemA, itemB, bob, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), offerID)

	// Proposer must own the offered item.
	_, err = eng.CreateTradeOffer(alice, itemB, itemA, bob, 100)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	// Offered item must exist.
	_, err = eng.CreateTradeOffer(alice, 99, itemB, bob, 100)
	assert.ErrorIs(t, err, types.ErrItemNotFound)
}

func TestAcceptTrade(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	itemA, err := eng.ListItem(alice, "Cabinet A", 10)
	require.NoError(t, err)
	itemB, err := eng.ListItem(bob, "Cabinet B", 10)
	require.NoError(t, err)

	offerID, err := eng.CreateTradeOffer(alice, itemA, itemB, bob, 100)
	require.NoError(t, err)

	sim.Mine(50)
	require.NoError(t, eng.AcceptTrade(bob, offerID))

	// A true swap: the owners have exactly exchanged.
	a, err := eng.GetItem(itemA)
	require.NoError(t, err)
	b, err := eng.GetItem(itemB)
	require.NoError(t, err)
	assert.Equal(t, bob, a.Owner)
	assert.Equal(t, alice, b.Owner)

	// Acceptance is terminal: a second accept reads as not found.
	err = eng.AcceptTrade(bob, offerID)
	assert.ErrorIs(t, err, types.ErrOfferNotFound)
}

func TestAcceptTradeRejectsWrongCaller(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	itemA, err := eng.ListItem(alice, "Cabinet A", 10)
	require.NoError(t, err)
	itemB, err := eng.ListItem(bob, "Cabinet B", 10)
	require.NoError(t, err)

	offerID, err := eng.CreateTradeOffer(alice, itemA, itemB, bob, 100)
	require.NoError(t, err)

	// Only the recorded counterparty may accept, not even the proposer.
	err = eng.AcceptTrade(alice, offerID)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	item, err := eng.GetItem(itemA)
	require.NoError(t, err)
	assert.Equal(t, alice, item.Owner)
}

func TestAcceptTradeExpiry(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	itemA, err := eng.ListItem(alice, "Cabinet A", 10)
	require.NoError(t, err)
	itemB, err := eng.ListItem(bob, "Cabinet B", 10)
	require.NoError(t, err)

	start := sim.Height()
	offerID, err := eng.CreateTradeOffer(alice, itemA, itemB, bob, 100)
	require.NoError(t, err)

	// Exactly at the expiry height acceptance already fails.
	sim.Mine(100 - (sim.Height() - start))
	err = eng.AcceptTrade(bob, offerID)
	assert.ErrorIs(t, err, types.ErrOfferExpired)

	sim.Mine(50)
	err = eng.AcceptTrade(bob, offerID)
	assert.ErrorIs(t, err, types.ErrOfferExpired)

	// No partial settlement happened.
	a, err := eng.GetItem(itemA)
	require.NoError(t, err)
	assert.Equal(t, alice, a.Owner)

	err = eng.AcceptTrade(bob, 42)
	assert.ErrorIs(t, err, types.ErrOfferNotFound)
}

func TestRentItem(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)

	sim.Mine(7)
	start := sim.Height()

	require.NoError(t, eng.RentItem(alice, id, bob, 100))

	rental, err := eng.Rental(id)
	require.NoError(t, err)
	assert.Equal(t, bob, rental.Renter)
	assert.Equal(t, alice, rental.OwnerAtStart)
	assert.Equal(t, start, rental.StartHeight)
	assert.Equal(t, start+100, rental.EndHeight)

	// Renting drops the sale flag as a locking side effect.
	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.False(t, item.ForSale)
}

func TestRentItemErrors(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	err := eng.RentItem(alice, 99, bob, 100)
	assert.ErrorIs(t, err, types.ErrItemNotFound)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)

	err = eng.RentItem(bob, id, bob, 100)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, eng.RentItem(alice, id, bob, 100))
	err = eng.RentItem(alice, id, bob, 100)
	assert.ErrorIs(t, err, types.ErrRentalActive)
}

func TestRentalLocksSaleFlag(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)
	require.NoError(t, eng.RentItem(alice, id, bob, 100))

	err = eng.SetItemForSale(alice, id, true)
	assert.ErrorIs(t, err, types.ErrItemRented)
	assert.Equal(t, 106, types.CodeOf(err))

	// Lowering the flag is still allowed while rented.
	require.NoError(t, eng.SetItemForSale(alice, id, false))

	// Once the rental is cleared the owner regains full control.
	sim.Mine(101)
	require.NoError(t, eng.EndRental(id))
	require.NoError(t, eng.SetItemForSale(alice, id, true))
}

func TestEndRentalHeightGate(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)

	err = eng.EndRental(id)
	assert.ErrorIs(t, err, types.ErrRentalNotFound)

	require.NoError(t, eng.RentItem(alice, id, bob, 100))
	end := sim.Height() + 100

	// Fails for every height strictly below the end height.
	err = eng.EndRental(id)
	assert.ErrorIs(t, err, types.ErrRentalNotExpired)

	sim.Mine(end - sim.Height() - 1)
	err = eng.EndRental(id)
	assert.ErrorIs(t, err, types.ErrRentalNotExpired)

	// Succeeds exactly at the end height.
	sim.Mine(1)
	require.NoError(t, eng.EndRental(id))

	err = eng.EndRental(id)
	assert.ErrorIs(t, err, types.ErrRentalNotFound)
}

func TestExpiredRentalUnblocksLazily(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)
	require.NoError(t, eng.RentItem(alice, id, bob, 10))

	// Past the end height the record still exists, but it no longer locks
	// the sale flag and no longer blocks a fresh rental.
	sim.Mine(10)
	require.NoError(t, eng.SetItemForSale(alice, id, true))

	require.NoError(t, eng.RentItem(alice, id, bob, 20))
	rental, err := eng.Rental(id)
	require.NoError(t, err)
	assert.Equal(t, sim.Height()+20, rental.EndHeight)
}

func TestSetRentalPrice(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)

	err = eng.SetRentalPrice(bob, id, 50_000_000)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	err = eng.SetRentalPrice(alice, 99, 50_000_000)
	assert.ErrorIs(t, err, types.ErrItemNotFound)

	require.NoError(t, eng.SetRentalPrice(alice, id, 50_000_000))
	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), item.RentalPrice)
}

func TestRentItemChargesRentalPrice(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	id, err := eng.ListItem(alice, "Neon Cabinet", 10)
	require.NoError(t, err)
	require.NoError(t, eng.SetRentalPrice(alice, id, 50_000_000))

	require.NoError(t, eng.RentItem(alice, id, bob, 100))

	aliceBal, _ := sim.Balance(alice)
	bobBal, _ := sim.Balance(bob)
	assert.Equal(t, uint64(1_050_000_000), aliceBal)
	assert.Equal(t, uint64(950_000_000), bobBal)
}

func TestRentItemFailedPaymentLeavesNoRecord(t *testing.T) {
	sim := chain.NewSim()
	owner, err := sim.NewAccount("owner", 0)
	require.NoError(t, err)
	pauper, err := sim.NewAccount("pauper", 1)
	require.NoError(t, err)

	eng := New(sim)
	id, err := eng.ListItem(owner.Principal, "Neon Cabinet", 10)
	require.NoError(t, err)
	require.NoError(t, eng.SetRentalPrice(owner.Principal, id, 50))

	err = eng.RentItem(owner.Principal, id, pauper.Principal, 100)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)

	_, err = eng.Rental(id)
	assert.ErrorIs(t, err, types.ErrRentalNotFound)

	// The sale flag was not touched either.
	item, err := eng.GetItem(id)
	require.NoError(t, err)
	assert.True(t, item.ForSale)
}

func TestGetItemUnknownIsStableAcrossFailedMutations(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	_, err := eng.GetItem(7)
	assert.ErrorIs(t, err, types.ErrItemNotFound)

	// A run of failed mutations must not conjure the record into existence.
	assert.Error(t, eng.PurchaseItem(bob, 7))
	assert.Error(t, eng.SetItemForSale(alice, 7, true))
	assert.Error(t, eng.RentItem(alice, 7, bob, 10))
	assert.Error(t, eng.EndRental(7))

	_, err = eng.GetItem(7)
	assert.ErrorIs(t, err, types.ErrItemNotFound)
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	sim, alice, bob := testEnv(t)
	eng := New(sim)

	itemA, err := eng.ListItem(alice, "Cabinet A", 100)
	require.NoError(t, err)
	itemB, err := eng.ListItem(bob, "Cabinet B", 200)
	require.NoError(t, err)
	require.NoError(t, eng.PurchaseItem(bob, itemA))
	require.NoError(t, eng.SetItemForSale(bob, itemA, true))
	_, err = eng.CreateTradeOffer(bob, itemA, itemB, alice, 100)
	require.NoError(t, err)
	require.NoError(t, eng.RentItem(bob, itemB, alice, 50))

	snap := types.NewSnapshot()
	eng.Capture(snap)
	sim.Capture(snap)

	restored := New(sim)
	restored.Restore(snap)

	item, err := restored.GetItem(itemA)
	require.NoError(t, err)
	assert.Equal(t, bob, item.Owner)
	assert.Equal(t, uint64(1), restored.UserItemQuantity(bob, itemA))

	rental, err := restored.Rental(itemB)
	require.NoError(t, err)
	assert.Equal(t, alice, rental.Renter)

	// Nonces carry over: the next item id continues the sequence.
	next, err := restored.ListItem(alice, "Cabinet C", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)

	nextOffer, err := restored.CreateTradeOffer(alice, next, itemA, bob, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nextOffer)
}
