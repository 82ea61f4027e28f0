package services

import "errors"

// One sentinel per failure the HTTP layer has to tell apart. Validation
// failures name the input that failed so callers get a field-level
// reason; the signature mismatch is deliberately distinct from any
// not-found condition.
var (
	ErrPriceNotProcessable    = errors.New("price data is not processable")
	ErrQuantityNotProcessable = errors.New("quantity data is not processable")
	ErrProductNotProcessable  = errors.New("product data is not processable")
	ErrAddressNotProcessable  = errors.New("address data is not processable")
	ErrOrderNotProcessable    = errors.New("order data is not processable")
	ErrBadSignature           = errors.New("payment signature mismatch")
	ErrNotAuthorized          = errors.New("actor not authorized for this order")
	ErrAlreadyDecided         = errors.New("order already decided")
	ErrRefundFailed           = errors.New("refund could not be created")
)
