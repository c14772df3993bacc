// Package bridge is the inbound surface of the service: it validates a
// completed-payment payload, reconciles amounts, builds the order request and
// hands it to the commerce submitter. Everything is request-scoped; nothing
// survives the response.
package bridge

import (
	"strings"

	"github.com/noah-isme/paybridge/internal/money"
)

// ConfirmRequest is the inbound completed-payment payload.
type ConfirmRequest struct {
	PaymentReference string          `json:"paymentReference" validate:"required"`
	CaptureReference string          `json:"captureReference"`
	CapturedTotal    money.Value     `json:"capturedTotal"`
	CurrencyCode     string          `json:"currencyCode"`
	ShippingLabel    string          `json:"shippingLabel"`
	ShippingCharge   money.Value     `json:"shippingCharge"`
	Address          *AddressPayload `json:"address"`
	Items            []ItemPayload   `json:"items"`
}

// AddressPayload is the recipient block of the inbound payload. Email rides
// here on the wire but is re-attached at the order level by the builder.
type AddressPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1" validate:"required"`
	City      string `json:"city" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// ItemPayload is one purchased line of the inbound payload.
type ItemPayload struct {
	CatalogVariantReference VariantRef  `json:"catalogVariantReference"`
	Quantity                int         `json:"quantity"`
	UnitPriceHint           money.Value `json:"unitPriceHint"`
}

// VariantRef accepts the variant reference as either a JSON string or a bare
// number, normalised to its string form.
type VariantRef string

// UnmarshalJSON implements tolerant decoding for string-or-number references.
func (v *VariantRef) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	*v = VariantRef(strings.TrimSpace(s))
	return nil
}

// ConfirmedOrder is the success payload returned to the storefront.
type ConfirmedOrder struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TotalPrice string `json:"totalPrice,omitempty"`
}
