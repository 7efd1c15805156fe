package sqlite

// Schema DDL for all tables. Attach applies these idempotently; the database
// file is the source of truth across CLI invocations.
const (
	createItems = `CREATE TABLE IF NOT EXISTS items (
    item_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    price INTEGER NOT NULL,
    rental_price INTEGER NOT NULL DEFAULT 0,
    for_sale INTEGER NOT NULL,
    owner TEXT NOT NULL
);`

	createQuantities = `CREATE TABLE IF NOT EXISTS quantities (
    owner TEXT NOT NULL,
    item_id INTEGER NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (owner, item_id)
);`

	createOffers = `CREATE TABLE IF NOT EXISTS offers (
    offer_id INTEGER PRIMARY KEY,
    offered_item_id INTEGER NOT NULL,
    requested_item_id INTEGER NOT NULL,
    proposer TEXT NOT NULL,
    counterparty TEXT NOT NULL,
    expiry_height INTEGER NOT NULL,
    status TEXT NOT NULL
);`

	createRentals = `CREATE TABLE IF NOT EXISTS rentals (
    item_id INTEGER PRIMARY KEY,
    renter TEXT NOT NULL,
    owner_at_start TEXT NOT NULL,
    start_height INTEGER NOT NULL,
    duration INTEGER NOT NULL,
    end_height INTEGER NOT NULL
);`

	createAccounts = `CREATE TABLE IF NOT EXISTS accounts (
    principal TEXT PRIMARY KEY,
    alias TEXT,
    balance INTEGER NOT NULL
);`

	createChain = `CREATE TABLE IF NOT EXISTS chain (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    height INTEGER NOT NULL,
    next_item_id INTEGER NOT NULL,
    next_offer_id INTEGER NOT NULL
);`
)

// allSchemas lists every DDL statement Attach executes.
var allSchemas = []string{
	createItems,
	createQuantities,
	createOffers,
	createRentals,
	createAccounts,
	createChain,
}
