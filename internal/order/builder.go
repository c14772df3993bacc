// Package order assembles the platform-neutral order request handed to the
// commerce submitter. Building is pure and total; all validation happens
// before reconciliation.
package order

import (
	"fmt"
	"strings"

	"github.com/noah-isme/paybridge/internal/money"
	"github.com/noah-isme/paybridge/internal/reconcile"
)

// DefaultShippingLabel is used when the payload carries no shipping method name.
const DefaultShippingLabel = "Standard Shipping"

// Address is the recipient shape shared by billing and shipping sub-objects.
// Email never appears here: the platform rejects address objects carrying an
// email field, so it is attached at the order level instead.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem is one purchasable line of the order. Price is set only when
// reconciliation produced an explicit unit price; otherwise the platform's
// catalog price applies. Title is used for custom lines whose variant
// reference cannot be resolved to a numeric identifier.
type LineItem struct {
	VariantID int64  `json:"variant_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price,omitempty"`
}

// ShippingLine describes the shipping charge attached to the order.
type ShippingLine struct {
	Title string `json:"title"`
	Price string `json:"price"`
}

// Request is the shape-agnostic order request. The commerce submitters map it
// onto their wire payloads (single-call order or two-phase draft).
type Request struct {
	LineItems       []LineItem
	Shipping        *ShippingLine
	Email           string
	BillingAddress  Address
	ShippingAddress Address
	Note            string
	Currency        string
}

// BuildInput carries everything the builder needs.
type BuildInput struct {
	Lines            []reconcile.Line
	ShippingCharge   money.Amount
	ShippingLabel    string
	Address          Address
	Email            string
	Currency         string
	PaymentReference string
	CaptureReference string
}

// Build assembles the order request from reconciled lines.
func Build(in BuildInput) Request {
	req := Request{
		LineItems:       make([]LineItem, 0, len(in.Lines)),
		Email:           strings.TrimSpace(in.Email),
		BillingAddress:  in.Address,
		ShippingAddress: in.Address,
		Note:            note(in.PaymentReference, in.CaptureReference),
		Currency:        strings.ToUpper(strings.TrimSpace(in.Currency)),
	}
	for _, line := range in.Lines {
		item := LineItem{Quantity: line.Quantity}
		if id, ok := VariantID(line.VariantRef); ok {
			item.VariantID = id
		} else {
			item.Title = line.VariantRef
		}
		if line.Priced {
			item.Price = line.UnitPrice.String()
		}
		req.LineItems = append(req.LineItems, item)
	}
	// Platforms handle zero-amount shipping lines inconsistently; omitting
	// the line entirely is the safe shape.
	if in.ShippingCharge > 0 {
		label := strings.TrimSpace(in.ShippingLabel)
		if label == "" {
			label = DefaultShippingLabel
		}
		req.Shipping = &ShippingLine{Title: label, Price: in.ShippingCharge.String()}
	}
	return req
}

// VariantID maps an opaque catalog variant reference to the platform's
// numeric identifier. Accepts bare integers and global id strings of the form
// "gid://shopify/ProductVariant/123".
func VariantID(ref string) (int64, bool) {
	trimmed := strings.TrimSpace(ref)
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" {
		return 0, false
	}
	var id int64
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int64(r-'0')
	}
	if id == 0 {
		return 0, false
	}
	return id, true
}

func note(paymentRef, captureRef string) string {
	paymentRef = strings.TrimSpace(paymentRef)
	captureRef = strings.TrimSpace(captureRef)
	if captureRef == "" {
		return fmt.Sprintf("PayPal payment %s", paymentRef)
	}
	return fmt.Sprintf("PayPal payment %s / capture %s", paymentRef, captureRef)
}
