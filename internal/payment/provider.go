// Package payment looks up captured payments at the external processor. The
// bridge never derives amounts itself: when the inbound payload omits the
// captured total, the processor's record is the authoritative source.
package payment

import (
	"context"

	"github.com/noah-isme/paybridge/internal/money"
	"github.com/noah-isme/paybridge/internal/order"
)

// Capture is the authoritative record of one collected payment.
type Capture struct {
	CapturedTotal  money.Amount
	CurrencyCode   string
	CaptureRef     string
	PayerEmail     string
	PayerFirstName string
	PayerLastName  string
	Shipping       *order.Address
}

// CaptureSource abstracts the processor's capture lookup.
type CaptureSource interface {
	LookupCapture(ctx context.Context, paymentRef string) (Capture, error)
}
