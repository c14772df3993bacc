package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paybridge/internal/common"
	"github.com/noah-isme/paybridge/internal/money"
	"github.com/noah-isme/paybridge/internal/obs"
	"github.com/noah-isme/paybridge/internal/order"
	"github.com/noah-isme/paybridge/internal/resilience"
)

// PayPal implements CaptureSource against the PayPal REST API using
// client-credentials OAuth. The access token is cached until shortly before
// expiry; lookups hold no other state.
type PayPal struct {
	ClientID string
	Secret   string
	BaseURL  string
	HTTP     resilience.HTTPClient
	Logger   zerolog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// tokenSlack renews the cached token this long before its reported expiry.
const tokenSlack = 30 * time.Second

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type orderResponse struct {
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
		Name         struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Shipping struct {
			Name struct {
				FullName string `json:"full_name"`
			} `json:"name"`
			Address struct {
				AddressLine1 string `json:"address_line_1"`
				AdminArea2   string `json:"admin_area_2"`
				PostalCode   string `json:"postal_code"`
				CountryCode  string `json:"country_code"`
			} `json:"address"`
		} `json:"shipping"`
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					Value        string `json:"value"`
					CurrencyCode string `json:"currency_code"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// LookupCapture fetches the processor's record for one checkout order.
func (p *PayPal) LookupCapture(ctx context.Context, paymentRef string) (Capture, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return Capture{}, err
	}

	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s", p.baseURL(), url.PathEscape(strings.TrimSpace(paymentRef)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Capture{}, common.NewAppError(common.CodeInternal, "build processor request", http.StatusInternalServerError, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		obs.ObserveUpstream("payment", "unavailable", obs.DurationMillis(time.Since(start)))
		return Capture{}, common.NewAppError(common.CodeUpstreamUnavailable, "payment processor unreachable", http.StatusInternalServerError, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		obs.ObserveUpstream("payment", "unavailable", obs.DurationMillis(time.Since(start)))
		return Capture{}, common.NewAppError(common.CodeUpstreamUnavailable, "read processor response", http.StatusInternalServerError, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		obs.ObserveUpstream("payment", "auth_failure", obs.DurationMillis(time.Since(start)))
		p.invalidateToken()
		return Capture{}, common.NewAppError(common.CodeUpstreamAuthFailure, "payment processor rejected credentials", http.StatusInternalServerError, nil)
	case resp.StatusCode >= 400:
		obs.ObserveUpstream("payment", "rejected", obs.DurationMillis(time.Since(start)))
		return Capture{}, &common.AppError{
			Code:       common.CodeUpstreamRejection,
			Message:    fmt.Sprintf("payment processor rejected the lookup (HTTP %d)", resp.StatusCode),
			HTTPStatus: http.StatusBadRequest,
			Details:    strings.TrimSpace(string(raw)),
		}
	}
	obs.ObserveUpstream("payment", "ok", obs.DurationMillis(time.Since(start)))

	var decoded orderResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Capture{}, common.NewAppError(common.CodeUpstreamUnavailable, "decode processor response", http.StatusInternalServerError, err)
	}
	return p.toCapture(decoded)
}

func (p *PayPal) toCapture(resp orderResponse) (Capture, error) {
	if len(resp.PurchaseUnits) == 0 || len(resp.PurchaseUnits[0].Payments.Captures) == 0 {
		return Capture{}, &common.AppError{
			Code:       common.CodeUpstreamRejection,
			Message:    "payment has no completed capture",
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]string{"status": resp.Status},
		}
	}
	unit := resp.PurchaseUnits[0]
	captured := unit.Payments.Captures[0]
	amount, err := money.Parse(captured.Amount.Value)
	if err != nil {
		return Capture{}, common.NewAppError(common.CodeUpstreamUnavailable, "processor returned unparsable amount", http.StatusInternalServerError, err)
	}

	out := Capture{
		CapturedTotal:  amount,
		CurrencyCode:   captured.Amount.CurrencyCode,
		CaptureRef:     captured.ID,
		PayerEmail:     resp.Payer.EmailAddress,
		PayerFirstName: resp.Payer.Name.GivenName,
		PayerLastName:  resp.Payer.Name.Surname,
	}
	addr := unit.Shipping.Address
	if addr.AddressLine1 != "" || addr.AdminArea2 != "" {
		first, last := splitName(unit.Shipping.Name.FullName)
		if first == "" {
			first, last = out.PayerFirstName, out.PayerLastName
		}
		out.Shipping = &order.Address{
			FirstName: first,
			LastName:  last,
			Address1:  addr.AddressLine1,
			City:      addr.AdminArea2,
			Zip:       addr.PostalCode,
			Country:   addr.CountryCode,
		}
	}
	return out, nil
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.tokenExp.Add(-tokenSlack)) {
		return p.token, nil
	}

	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/v1/oauth2/token", body)
	if err != nil {
		return "", common.NewAppError(common.CodeInternal, "build token request", http.StatusInternalServerError, err)
	}
	req.SetBasicAuth(p.ClientID, p.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		obs.ObserveUpstream("payment", "unavailable", obs.DurationMillis(time.Since(start)))
		return "", common.NewAppError(common.CodeUpstreamUnavailable, "payment processor unreachable", http.StatusInternalServerError, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", common.NewAppError(common.CodeUpstreamUnavailable, "read token response", http.StatusInternalServerError, err)
	}
	if resp.StatusCode != http.StatusOK {
		obs.ObserveUpstream("payment", "auth_failure", obs.DurationMillis(time.Since(start)))
		p.Logger.Warn().Int("status", resp.StatusCode).Msg("processor token request failed")
		return "", common.NewAppError(common.CodeUpstreamAuthFailure, "payment processor rejected credentials", http.StatusInternalServerError, nil)
	}
	obs.ObserveUpstream("payment", "ok", obs.DurationMillis(time.Since(start)))

	var decoded tokenResponse
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.AccessToken == "" {
		return "", common.NewAppError(common.CodeUpstreamAuthFailure, "processor token response malformed", http.StatusInternalServerError, err)
	}
	p.token = decoded.AccessToken
	p.tokenExp = time.Now().Add(time.Duration(decoded.ExpiresIn) * time.Second)
	return p.token, nil
}

func (p *PayPal) invalidateToken() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

func (p *PayPal) baseURL() string {
	base := strings.TrimSuffix(strings.TrimSpace(p.BaseURL), "/")
	if base == "" {
		base = "https://api-m.paypal.com"
	}
	return base
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
