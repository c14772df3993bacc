// Package commerce submits built orders to the Shopify Admin API. Two
// submission shapes are supported behind one Submitter interface: a single
// order-creation call, and the two-phase draft-then-complete workflow. The
// shape is fixed once at startup; the rest of the system never branches on it.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paybridge/internal/common"
	"github.com/noah-isme/paybridge/internal/obs"
	"github.com/noah-isme/paybridge/internal/order"
	"github.com/noah-isme/paybridge/internal/resilience"
)

// Result identifies the created order.
type Result struct {
	ID         int64
	Name       string
	TotalPrice string
}

// Submitter turns a built order request into a platform order.
type Submitter interface {
	Submit(ctx context.Context, req order.Request) (Result, error)
}

// Client carries the REST plumbing shared by both submitters.
type Client struct {
	ShopDomain string
	Token      string
	APIVersion string
	HTTP       resilience.HTTPClient
	Logger     zerolog.Logger
}

// BaseURL returns the admin API root for the configured shop.
func (c *Client) BaseURL() string {
	domain := strings.TrimSuffix(strings.TrimSpace(c.ShopDomain), "/")
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return fmt.Sprintf("%s/admin/api/%s", domain, c.APIVersion)
}

// do issues one authenticated JSON call and decodes the response into out.
// Platform faults are mapped onto the bridge's error taxonomy here so the
// submitters stay thin.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return common.NewAppError(common.CodeInternal, "encode commerce payload", http.StatusInternalServerError, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, body)
	if err != nil {
		return common.NewAppError(common.CodeInternal, "build commerce request", http.StatusInternalServerError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.Token)
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		obs.ObserveUpstream("commerce", "unavailable", obs.DurationMillis(time.Since(start)))
		return common.NewAppError(common.CodeUpstreamUnavailable, "commerce platform unreachable", http.StatusInternalServerError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		obs.ObserveUpstream("commerce", "unavailable", obs.DurationMillis(time.Since(start)))
		return common.NewAppError(common.CodeUpstreamUnavailable, "read commerce response", http.StatusInternalServerError, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		obs.ObserveUpstream("commerce", "auth_failure", obs.DurationMillis(time.Since(start)))
		return &common.AppError{
			Code:       common.CodeUpstreamAuthFailure,
			Message:    "commerce platform rejected credentials",
			HTTPStatus: http.StatusInternalServerError,
			Details:    rejectionDetail(raw),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		obs.ObserveUpstream("commerce", "rejected", obs.DurationMillis(time.Since(start)))
		c.Logger.Warn().Int("status", resp.StatusCode).Str("path", path).RawJSON("errors", sanitizeJSON(raw)).Msg("commerce rejection")
		return &common.AppError{
			Code:       common.CodeUpstreamRejection,
			Message:    fmt.Sprintf("commerce platform rejected the order (HTTP %d)", resp.StatusCode),
			HTTPStatus: http.StatusBadRequest,
			Details:    rejectionDetail(raw),
		}
	case resp.StatusCode >= 500:
		obs.ObserveUpstream("commerce", "unavailable", obs.DurationMillis(time.Since(start)))
		return &common.AppError{
			Code:       common.CodeUpstreamUnavailable,
			Message:    fmt.Sprintf("commerce platform error (HTTP %d)", resp.StatusCode),
			HTTPStatus: http.StatusInternalServerError,
			Details:    rejectionDetail(raw),
		}
	}

	obs.ObserveUpstream("commerce", "ok", obs.DurationMillis(time.Since(start)))
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return common.NewAppError(common.CodeUpstreamUnavailable, "decode commerce response", http.StatusInternalServerError, err)
	}
	return nil
}

// rejectionDetail surfaces the platform's structured error body verbatim,
// falling back to the raw text when it is not JSON.
func rejectionDetail(raw []byte) any {
	var decoded struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && len(decoded.Errors) > 0 {
		var errs any
		if err := json.Unmarshal(decoded.Errors, &errs); err == nil {
			return errs
		}
	}
	return strings.TrimSpace(string(raw))
}

func sanitizeJSON(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	encoded, _ := json.Marshal(strings.TrimSpace(string(raw)))
	return encoded
}
