package reconcile

import "errors"

var (
	// ErrInvalidTotal rejects a captured total that is absent or not > 0.
	ErrInvalidTotal = errors.New("reconcile: captured total must be greater than zero")
	// ErrNegativeItemsSubtotal rejects a shipping charge exceeding the captured total.
	ErrNegativeItemsSubtotal = errors.New("reconcile: shipping charge exceeds captured total")
	// ErrNoItems rejects an empty item list.
	ErrNoItems = errors.New("reconcile: no items to reconcile")
	// ErrInvalidQuantities rejects a cart whose quantities sum to zero or less.
	ErrInvalidQuantities = errors.New("reconcile: item quantities must sum to a positive number")
)
