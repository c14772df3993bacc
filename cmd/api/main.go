package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paybridge/internal/bridge"
	"github.com/noah-isme/paybridge/internal/commerce"
	"github.com/noah-isme/paybridge/internal/common"
	"github.com/noah-isme/paybridge/internal/config"
	"github.com/noah-isme/paybridge/internal/health"
	"github.com/noah-isme/paybridge/internal/obs"
	"github.com/noah-isme/paybridge/internal/payment"
	"github.com/noah-isme/paybridge/internal/ratelimit"
	"github.com/noah-isme/paybridge/internal/resilience"
	"github.com/noah-isme/paybridge/internal/security"
)

const serviceName = "paybridge"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	logger.Info().Str("env", cfg.AppEnv).Str("submit_mode", cfg.SubmitMode).Msg("starting")

	obs.MustRegisterDomainMetrics(serviceName, prometheus.DefaultRegisterer)
	httpMetrics := obs.NewHTTPMetrics(serviceName, obs.ParseBucketsCSV(cfg.MetricsBucketsCSV), prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("tracing init failed, continuing without traces")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn().Err(err).Msg("tracer shutdown")
				}
			}()
		}
	}

	commerceClient := &commerce.Client{
		ShopDomain: cfg.ShopifyShopDomain,
		Token:      cfg.ShopifyAdminToken,
		APIVersion: cfg.ShopifyAPIVersion,
		HTTP:       upstreamHTTP(cfg, logger, "commerce"),
		Logger:     logger.With().Str("component", "commerce").Logger(),
	}
	var submitter commerce.Submitter
	switch cfg.SubmitMode {
	case config.SubmitModeOrder:
		submitter = commerce.OrderSubmitter{Client: commerceClient}
	default:
		submitter = commerce.DraftSubmitter{Client: commerceClient}
	}

	var captures payment.CaptureSource
	if cfg.PayPalConfigured() {
		captures = &payment.PayPal{
			ClientID: cfg.PayPalClientID,
			Secret:   cfg.PayPalSecret,
			BaseURL:  cfg.PayPalBaseURL,
			HTTP:     upstreamHTTP(cfg, logger, "payment"),
			Logger:   logger.With().Str("component", "payment").Logger(),
		}
	} else {
		logger.Warn().Msg("payment processor not configured, payloads must carry capturedTotal")
	}

	svc := &bridge.Service{
		Captures:      captures,
		Submitter:     submitter,
		SubmitMode:    cfg.SubmitMode,
		Currency:      cfg.CurrencyCode,
		ShippingLabel: cfg.ShippingLabel,
		Validate:      validator.New(),
		Logger:        logger.With().Str("component", "bridge").Logger(),
	}
	confirm := &bridge.Handler{Svc: svc}

	healthHandler := health.Handler{
		Checker: &upstreamChecker{
			commerceURL:      commerceClient.BaseURL(),
			paypalURL:        cfg.PayPalBaseURL,
			paypalConfigured: cfg.PayPalConfigured(),
		},
		CommerceTimeout: cfg.UpstreamTimeout,
		PaymentTimeout:  cfg.UpstreamTimeout,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		r.Use(ratelimit.Handler{
			Limiter: ratelimit.NewMemoryLimiter(),
			Config: ratelimit.Config{
				Key:    common.ClientIP,
				Window: cfg.RateLimitWindow,
				Max:    cfg.RateLimitMax,
			},
			OnError: func(err error) {
				logger.Warn().Err(err).Msg("rate limiter error")
			},
		}.Middleware)
		r.Use(security.Token{Value: cfg.SharedToken}.Middleware)
		r.Post("/orders/confirm", confirm.Confirm)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("stopped")
}

// upstreamHTTP builds the retrying client used for one upstream target, with
// its own breaker so a flapping processor cannot trip commerce calls.
func upstreamHTTP(cfg *config.Config, logger zerolog.Logger, target string) resilience.HTTPClient {
	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget(target).
		WithLogger(logger)
	return resilience.HTTPClient{
		Client:      &http.Client{Timeout: cfg.UpstreamTimeout},
		Breaker:     breaker,
		BaseBackoff: cfg.UpstreamBackoffBase,
		MaxAttempts: cfg.UpstreamMaxAttempts,
		Jitter:      0.2,
		Timeout:     cfg.UpstreamTimeout,
	}
}

// upstreamChecker probes upstream reachability for readiness. Any HTTP
// response counts as reachable; only transport failures mark a dependency
// down.
type upstreamChecker struct {
	commerceURL      string
	paypalURL        string
	paypalConfigured bool
}

func (c *upstreamChecker) PingCommerce(ctx context.Context, timeout time.Duration) error {
	return probe(ctx, timeout, c.commerceURL)
}

func (c *upstreamChecker) PingPayment(ctx context.Context, timeout time.Duration) error {
	if !c.paypalConfigured {
		return nil
	}
	return probe(ctx, timeout, c.paypalURL)
}

func probe(ctx context.Context, timeout time.Duration, rawURL string) error {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return errors.New("not configured")
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, target, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
