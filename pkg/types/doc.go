// Package types defines the marketplace entity types, the backend and
// environment interfaces, the Config struct, and the coded errors surfaced
// by every ledger operation.
package types
