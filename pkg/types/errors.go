package types

import "errors"

// Stable numeric error codes surfaced to callers. The values are part of the
// public contract and must stay distinct; external tooling matches on them.
const (
	CodeInsufficientFunds = 1 // raised by the value-transfer primitive
	CodeItemNotFound      = 101
	CodeUnauthorized      = 102
	CodeItemNotForSale    = 103
	CodeOfferNotFound     = 104
	CodeOfferExpired      = 105
	CodeItemRented        = 106
	CodeRentalActive      = 107
	CodeRentalNotExpired  = 108
	CodeRentalNotFound    = 109
)

// Error is a ledger failure with a stable numeric code. Operations return the
// package-level sentinels below, so callers can match with errors.Is or read
// the code via CodeOf.
type Error struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Ledger operation errors. Every failed operation leaves state untouched.
var (
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds"}
	ErrItemNotFound      = &Error{Code: CodeItemNotFound, Message: "item not found"}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "caller lacks the required role"}
	ErrItemNotForSale    = &Error{Code: CodeItemNotForSale, Message: "item is not for sale"}
	ErrOfferNotFound     = &Error{Code: CodeOfferNotFound, Message: "trade offer not found or already resolved"}
	ErrOfferExpired      = &Error{Code: CodeOfferExpired, Message: "trade offer expired"}
	ErrItemRented        = &Error{Code: CodeItemRented, Message: "item has an active rental"}
	ErrRentalActive      = &Error{Code: CodeRentalActive, Message: "item already has an active rental"}
	ErrRentalNotExpired  = &Error{Code: CodeRentalNotExpired, Message: "rental has not reached its end height"}
	ErrRentalNotFound    = &Error{Code: CodeRentalNotFound, Message: "no rental record for item"}
)

// Entity validation errors.
var (
	ErrInvalidName = errors.New("invalid name")
)

// CodeOf returns the numeric code carried by err, or 0 if err is not a ledger
// error.
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
