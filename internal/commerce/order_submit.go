package commerce

import (
	"context"
	"net/http"

	"github.com/noah-isme/paybridge/internal/order"
)

// OrderSubmitter creates the order with a single call. The order arrives
// already paid, so no payment action is requested from the platform and no
// customer receipt is sent.
type OrderSubmitter struct {
	Client *Client
}

type orderWire struct {
	LineItems          []order.LineItem     `json:"line_items"`
	ShippingLines      []order.ShippingLine `json:"shipping_lines,omitempty"`
	Email              string               `json:"email,omitempty"`
	BillingAddress     *order.Address       `json:"billing_address,omitempty"`
	ShippingAddress    *order.Address       `json:"shipping_address,omitempty"`
	Note               string               `json:"note,omitempty"`
	Currency           string               `json:"currency,omitempty"`
	FinancialStatus    string               `json:"financial_status"`
	InventoryBehaviour string               `json:"inventory_behaviour"`
	SendReceipt        bool                 `json:"send_receipt"`
}

type orderEnvelope struct {
	Order struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		TotalPrice string `json:"total_price"`
	} `json:"order"`
}

// Submit implements Submitter.
func (s OrderSubmitter) Submit(ctx context.Context, req order.Request) (Result, error) {
	wire := orderWire{
		LineItems:          req.LineItems,
		Email:              req.Email,
		Note:               req.Note,
		Currency:           req.Currency,
		FinancialStatus:    "paid",
		InventoryBehaviour: "bypass",
	}
	if req.Shipping != nil {
		wire.ShippingLines = []order.ShippingLine{*req.Shipping}
	}
	if hasAddress(req.BillingAddress) {
		billing := req.BillingAddress
		shipping := req.ShippingAddress
		wire.BillingAddress = &billing
		wire.ShippingAddress = &shipping
	}

	var resp orderEnvelope
	if err := s.Client.do(ctx, http.MethodPost, "/orders.json", map[string]any{"order": wire}, &resp); err != nil {
		return Result{}, err
	}
	return Result{ID: resp.Order.ID, Name: resp.Order.Name, TotalPrice: resp.Order.TotalPrice}, nil
}

func hasAddress(a order.Address) bool {
	return a != (order.Address{})
}
