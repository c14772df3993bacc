package bridge

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paybridge/internal/commerce"
	"github.com/noah-isme/paybridge/internal/common"
	"github.com/noah-isme/paybridge/internal/money"
	"github.com/noah-isme/paybridge/internal/obs"
	"github.com/noah-isme/paybridge/internal/order"
	"github.com/noah-isme/paybridge/internal/payment"
	"github.com/noah-isme/paybridge/internal/reconcile"
)

// Service orchestrates one confirmation: validate, look up the capture when
// the payload omits the total, reconcile, build, submit. All validation
// faults are rejected before any upstream call is made.
type Service struct {
	Captures      payment.CaptureSource
	Submitter     commerce.Submitter
	SubmitMode    string
	Currency      string
	ShippingLabel string
	Validate      *validator.Validate
	Logger        zerolog.Logger
}

// Confirm processes one completed-payment payload end to end.
func (s *Service) Confirm(ctx context.Context, in ConfirmRequest) (ConfirmedOrder, error) {
	out, err := s.confirm(ctx, in)
	if obs.BridgeOrdersTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.BridgeOrdersTotal.WithLabelValues(s.SubmitMode, result).Inc()
	}
	return out, err
}

func (s *Service) confirm(ctx context.Context, in ConfirmRequest) (ConfirmedOrder, error) {
	if err := s.validatePayload(in); err != nil {
		return ConfirmedOrder{}, err
	}

	items := make([]reconcile.Item, 0, len(in.Items))
	for _, it := range in.Items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return ConfirmedOrder{}, common.BadRequest(common.CodeInvalidQuantities, "item quantity must be positive")
		}
		if it.UnitPriceHint.Invalid {
			return ConfirmedOrder{}, common.BadRequest(common.CodeInvalidTotal, "unitPriceHint is not numeric")
		}
		items = append(items, reconcile.Item{
			VariantRef:    string(it.CatalogVariantReference),
			Quantity:      qty,
			UnitPriceHint: it.UnitPriceHint.Minor(),
			HasHint:       it.UnitPriceHint.Set,
		})
	}

	shipping := in.ShippingCharge.Minor()
	captureRef := strings.TrimSpace(in.CaptureReference)
	currency := strings.TrimSpace(in.CurrencyCode)
	email := ""
	var addr order.Address
	if in.Address != nil {
		email = strings.TrimSpace(in.Address.Email)
		addr = order.Address{
			FirstName: in.Address.FirstName,
			LastName:  in.Address.LastName,
			Address1:  in.Address.Address1,
			City:      in.Address.City,
			Zip:       in.Address.Zip,
			Country:   in.Address.Country,
			Phone:     in.Address.Phone,
		}
	}

	var total money.Amount
	if in.CapturedTotal.Set {
		total = in.CapturedTotal.Minor()
	} else {
		// The payload carries no total: the processor's record is the only
		// authoritative source left.
		if s.Captures == nil {
			return ConfirmedOrder{}, common.BadRequest(common.CodeInvalidTotal,
				"capturedTotal is required when no payment processor is configured")
		}
		capture, err := s.Captures.LookupCapture(ctx, in.PaymentReference)
		if err != nil {
			return ConfirmedOrder{}, err
		}
		total = capture.CapturedTotal
		if captureRef == "" {
			captureRef = capture.CaptureRef
		}
		if currency == "" {
			currency = capture.CurrencyCode
		}
		if email == "" {
			email = capture.PayerEmail
		}
		if in.Address == nil && capture.Shipping != nil {
			addr = *capture.Shipping
		}
	}
	if currency == "" {
		currency = s.Currency
	}

	lines, strategy, err := reconcile.Reconcile(items, total, shipping)
	if err != nil {
		return ConfirmedOrder{}, mapReconcileError(err)
	}
	if obs.ReconcileStrategyTotal != nil {
		obs.ReconcileStrategyTotal.WithLabelValues(string(strategy)).Inc()
	}

	label := strings.TrimSpace(in.ShippingLabel)
	if label == "" {
		label = s.ShippingLabel
	}
	built := order.Build(order.BuildInput{
		Lines:            lines,
		ShippingCharge:   shipping,
		ShippingLabel:    label,
		Address:          addr,
		Email:            email,
		Currency:         currency,
		PaymentReference: in.PaymentReference,
		CaptureReference: captureRef,
	})

	result, err := s.Submitter.Submit(ctx, built)
	if err != nil {
		s.Logger.Error().Err(err).Str("payment_ref", in.PaymentReference).Msg("order submission failed")
		return ConfirmedOrder{}, err
	}

	s.Logger.Info().
		Str("payment_ref", in.PaymentReference).
		Str("capture_ref", captureRef).
		Int64("order_id", result.ID).
		Str("strategy", string(strategy)).
		Msg("order created")
	return ConfirmedOrder{ID: result.ID, Name: result.Name, TotalPrice: result.TotalPrice}, nil
}

func (s *Service) validatePayload(in ConfirmRequest) error {
	if len(in.Items) == 0 {
		return common.BadRequest(common.CodeNoItems, "at least one item is required")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(string(it.CatalogVariantReference)) == "" {
			return common.BadRequest(common.CodeBadRequest, "item missing catalogVariantReference")
		}
	}
	if in.CapturedTotal.Invalid {
		return common.BadRequest(common.CodeInvalidTotal, "capturedTotal is not numeric")
	}
	if in.ShippingCharge.Invalid || in.ShippingCharge.Minor() < 0 {
		return common.BadRequest(common.CodeInvalidTotal, "shippingCharge must be a non-negative amount")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fe := range fieldErrs {
					if strings.Contains(fe.Namespace(), "Address") {
						return &common.AppError{
							Code:       common.CodeInvalidAddress,
							Message:    "address is missing required fields",
							HTTPStatus: http.StatusBadRequest,
							Details:    map[string]string{"field": fe.Field(), "rule": fe.Tag()},
						}
					}
				}
			}
			return common.BadRequest(common.CodeBadRequest, err.Error())
		}
	}
	return nil
}

func mapReconcileError(err error) error {
	switch {
	case errors.Is(err, reconcile.ErrInvalidTotal):
		return common.BadRequest(common.CodeInvalidTotal, "capturedTotal must be greater than zero")
	case errors.Is(err, reconcile.ErrNegativeItemsSubtotal):
		return common.BadRequest(common.CodeNegativeItemsSubtotal, "shippingCharge exceeds capturedTotal")
	case errors.Is(err, reconcile.ErrNoItems):
		return common.BadRequest(common.CodeNoItems, "at least one item is required")
	case errors.Is(err, reconcile.ErrInvalidQuantities):
		return common.BadRequest(common.CodeInvalidQuantities, "item quantities must sum to a positive number")
	default:
		return common.NewAppError(common.CodeInternal, "reconciliation failed", http.StatusInternalServerError, err)
	}
}
