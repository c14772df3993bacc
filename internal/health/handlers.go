package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker represents upstream dependencies that can be probed for readiness.
type Checker interface {
	PingCommerce(ctx context.Context, timeout time.Duration) error
	PingPayment(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker         Checker
	CommerceTimeout time.Duration
	PaymentTimeout  time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on upstream probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	commerceStatus := "ok"
	if err := h.Checker.PingCommerce(ctx, h.commerceTimeout()); err != nil {
		commerceStatus = err.Error()
	}
	paymentStatus := "ok"
	if err := h.Checker.PingPayment(ctx, h.paymentTimeout()); err != nil {
		paymentStatus = err.Error()
	}
	status := map[string]string{
		"commerce": commerceStatus,
		"payment":  paymentStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if commerceStatus != "ok" || paymentStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) commerceTimeout() time.Duration {
	if h.CommerceTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.CommerceTimeout
}

func (h Handler) paymentTimeout() time.Duration {
	if h.PaymentTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.PaymentTimeout
}
