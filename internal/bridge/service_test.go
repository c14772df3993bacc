package bridge_test

import (
	"context"
	"errors"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paybridge/internal/bridge"
	"github.com/noah-isme/paybridge/internal/commerce"
	"github.com/noah-isme/paybridge/internal/common"
	"github.com/noah-isme/paybridge/internal/money"
	"github.com/noah-isme/paybridge/internal/order"
	"github.com/noah-isme/paybridge/internal/payment"
)

type fakeSubmitter struct {
	last   *order.Request
	result commerce.Result
	err    error
	calls  int
}

func (f *fakeSubmitter) Submit(_ context.Context, req order.Request) (commerce.Result, error) {
	f.calls++
	f.last = &req
	if f.err != nil {
		return commerce.Result{}, f.err
	}
	return f.result, nil
}

type fakeCaptures struct {
	capture payment.Capture
	err     error
	calls   int
}

func (f *fakeCaptures) LookupCapture(_ context.Context, _ string) (payment.Capture, error) {
	f.calls++
	return f.capture, f.err
}

func newService(sub *fakeSubmitter, captures payment.CaptureSource) *bridge.Service {
	return &bridge.Service{
		Captures:      captures,
		Submitter:     sub,
		SubmitMode:    "draft",
		Currency:      "USD",
		ShippingLabel: "Standard Shipping",
		Validate:      validator.New(),
		Logger:        zerolog.Nop(),
	}
}

func amount(s string) money.Value {
	var v money.Value
	if err := v.UnmarshalJSON([]byte(s)); err != nil {
		panic(err)
	}
	return v
}

func validRequest() bridge.ConfirmRequest {
	return bridge.ConfirmRequest{
		PaymentReference: "PAY-1",
		CaptureReference: "CAP-1",
		CapturedTotal:    amount("10.00"),
		ShippingCharge:   amount("2.50"),
		Address: &bridge.AddressPayload{
			FirstName: "Ada",
			Address1:  "1 Main St",
			City:      "Springfield",
			Zip:       "12345",
			Country:   "US",
			Email:     "ada@example.com",
		},
		Items: []bridge.ItemPayload{
			{CatalogVariantReference: "41523", Quantity: 1, UnitPriceHint: amount("7.50")},
		},
	}
}

func TestConfirmSuccess(t *testing.T) {
	sub := &fakeSubmitter{result: commerce.Result{ID: 900123, Name: "#1042", TotalPrice: "10.00"}}
	svc := newService(sub, nil)

	out, err := svc.Confirm(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, int64(900123), out.ID)
	require.Equal(t, "#1042", out.Name)

	require.NotNil(t, sub.last)
	require.Len(t, sub.last.LineItems, 1)
	require.Equal(t, "7.50", sub.last.LineItems[0].Price)
	require.NotNil(t, sub.last.Shipping)
	require.Equal(t, "2.50", sub.last.Shipping.Price)
	require.Equal(t, "ada@example.com", sub.last.Email)
	require.Equal(t, "USD", sub.last.Currency)
}

func TestConfirmRejectsBeforeSubmit(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*bridge.ConfirmRequest)
		code string
	}{
		{"no items", func(r *bridge.ConfirmRequest) { r.Items = nil }, common.CodeNoItems},
		{"zero total", func(r *bridge.ConfirmRequest) { r.CapturedTotal = amount("0") }, common.CodeInvalidTotal},
		{"negative total", func(r *bridge.ConfirmRequest) { r.CapturedTotal = amount("-5") }, common.CodeInvalidTotal},
		{"non-numeric total", func(r *bridge.ConfirmRequest) { r.CapturedTotal = amount(`"abc"`) }, common.CodeInvalidTotal},
		{"oversized shipping", func(r *bridge.ConfirmRequest) {
			r.CapturedTotal = amount("10.00")
			r.ShippingCharge = amount("15.00")
		}, common.CodeNegativeItemsSubtotal},
		{"negative quantity", func(r *bridge.ConfirmRequest) { r.Items[0].Quantity = -2 }, common.CodeInvalidQuantities},
		{"incomplete address", func(r *bridge.ConfirmRequest) { r.Address.City = "" }, common.CodeInvalidAddress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			svc := newService(sub, nil)
			req := validRequest()
			tc.mut(&req)
			_, err := svc.Confirm(context.Background(), req)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tc.code, appErr.Code)
			require.Equal(t, 400, appErr.HTTPStatus)
			require.Zero(t, sub.calls, "no upstream call may happen after a validation fault")
		})
	}
}

func TestConfirmFetchesCaptureWhenTotalAbsent(t *testing.T) {
	captures := &fakeCaptures{capture: payment.Capture{
		CapturedTotal: 1000,
		CurrencyCode:  "EUR",
		CaptureRef:    "CAP-9",
		PayerEmail:    "payer@example.com",
		Shipping: &order.Address{
			FirstName: "Ada", Address1: "1 Main St", City: "Springfield", Zip: "12345", Country: "US",
		},
	}}
	sub := &fakeSubmitter{result: commerce.Result{ID: 1, Name: "#1"}}
	svc := newService(sub, captures)

	req := validRequest()
	req.CapturedTotal = money.Value{}
	req.CaptureReference = ""
	req.Address = nil

	_, err := svc.Confirm(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, captures.calls)
	require.Equal(t, "EUR", sub.last.Currency)
	require.Equal(t, "payer@example.com", sub.last.Email)
	require.Equal(t, "Springfield", sub.last.ShippingAddress.City)
	require.Contains(t, sub.last.Note, "CAP-9")
}

func TestConfirmWithoutTotalOrProcessor(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := newService(sub, nil)
	req := validRequest()
	req.CapturedTotal = money.Value{}

	_, err := svc.Confirm(context.Background(), req)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeInvalidTotal, appErr.Code)
	require.Zero(t, sub.calls)
}

func TestConfirmPropagatesUpstreamRejection(t *testing.T) {
	upstream := &common.AppError{Code: common.CodeUpstreamRejection, Message: "rejected", HTTPStatus: 400}
	sub := &fakeSubmitter{err: upstream}
	svc := newService(sub, nil)

	_, err := svc.Confirm(context.Background(), validRequest())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeUpstreamRejection, appErr.Code)
}

func TestConfirmDefaultsQuantityToOne(t *testing.T) {
	sub := &fakeSubmitter{result: commerce.Result{ID: 1}}
	svc := newService(sub, nil)
	req := validRequest()
	req.Items[0].Quantity = 0
	req.Items[0].UnitPriceHint = amount("7.50")

	_, err := svc.Confirm(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, sub.last.LineItems[0].Quantity)
}

func TestConfirmUnknownErrorWrapped(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("boom")}
	svc := newService(sub, nil)
	_, err := svc.Confirm(context.Background(), validRequest())
	require.Error(t, err)
}
