package commerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/paybridge/internal/common"
	"github.com/noah-isme/paybridge/internal/order"
)

// DraftSubmitter creates a provisional draft order and then completes it as
// paid. A draft created but never completed is surfaced to the caller with
// the draft id in the error details and is not rolled back; operators
// reconcile orphaned drafts manually.
type DraftSubmitter struct {
	Client *Client
}

type draftWire struct {
	LineItems       []order.LineItem    `json:"line_items"`
	ShippingLine    *order.ShippingLine `json:"shipping_line,omitempty"`
	Email           string              `json:"email,omitempty"`
	BillingAddress  *order.Address      `json:"billing_address,omitempty"`
	ShippingAddress *order.Address      `json:"shipping_address,omitempty"`
	Note            string              `json:"note,omitempty"`
	Currency        string              `json:"currency,omitempty"`
}

type draftEnvelope struct {
	DraftOrder struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		OrderID    int64  `json:"order_id"`
		TotalPrice string `json:"total_price"`
		Status     string `json:"status"`
	} `json:"draft_order"`
}

// Submit implements Submitter.
func (s DraftSubmitter) Submit(ctx context.Context, req order.Request) (Result, error) {
	wire := draftWire{
		LineItems:    req.LineItems,
		ShippingLine: req.Shipping,
		Email:        req.Email,
		Note:         req.Note,
		Currency:     req.Currency,
	}
	if hasAddress(req.BillingAddress) {
		billing := req.BillingAddress
		shipping := req.ShippingAddress
		wire.BillingAddress = &billing
		wire.ShippingAddress = &shipping
	}

	var created draftEnvelope
	if err := s.Client.do(ctx, http.MethodPost, "/draft_orders.json", map[string]any{"draft_order": wire}, &created); err != nil {
		return Result{}, err
	}
	draftID := created.DraftOrder.ID
	if draftID == 0 {
		return Result{}, common.NewAppError(common.CodeUpstreamRejection, "draft order response carried no id",
			http.StatusInternalServerError, errors.New("commerce: empty draft order id"))
	}

	// payment_pending=false marks the completed order as already paid.
	var completed draftEnvelope
	completePath := fmt.Sprintf("/draft_orders/%d/complete.json?payment_pending=false", draftID)
	if err := s.Client.do(ctx, http.MethodPut, completePath, nil, &completed); err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			appErr.Details = map[string]any{
				"draft_order_id": draftID,
				"upstream":       appErr.Details,
			}
		}
		return Result{}, err
	}

	result := Result{
		ID:         completed.DraftOrder.OrderID,
		Name:       completed.DraftOrder.Name,
		TotalPrice: completed.DraftOrder.TotalPrice,
	}
	if result.ID == 0 {
		result.ID = draftID
	}
	return result, nil
}
