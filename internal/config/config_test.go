package config_test

import (
	"testing"
	"time"

	"github.com/noah-isme/paybridge/internal/config"
)

func TestLoadRequiresShopify(t *testing.T) {
	if _, err := config.LoadForTests(map[string]string{
		"SHOPIFY_SHOP_DOMAIN": "",
		"SHOPIFY_ADMIN_TOKEN": "",
	}); err == nil {
		t.Fatal("expected error when shopify settings are absent")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"SHOPIFY_SHOP_DOMAIN": "example.myshopify.com",
		"SHOPIFY_ADMIN_TOKEN": "shpat_test",
		"COMMERCE_SUBMIT_MODE": "",
		"PORT":                 "",
		"PAYPAL_CLIENT_ID":     "",
		"PAYPAL_CLIENT_SECRET": "",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SubmitMode != config.SubmitModeDraft {
		t.Fatalf("submit mode = %q", cfg.SubmitMode)
	}
	if cfg.CurrencyCode != "USD" {
		t.Fatalf("currency = %q", cfg.CurrencyCode)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTPAddr())
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Fatalf("timeout = %s", cfg.UpstreamTimeout)
	}
	if cfg.PayPalConfigured() {
		t.Fatal("paypal should be unconfigured")
	}
}

func TestLoadRejectsUnknownSubmitMode(t *testing.T) {
	if _, err := config.LoadForTests(map[string]string{
		"SHOPIFY_SHOP_DOMAIN":  "example.myshopify.com",
		"SHOPIFY_ADMIN_TOKEN":  "shpat_test",
		"COMMERCE_SUBMIT_MODE": "batch",
	}); err == nil {
		t.Fatal("expected error for unknown submit mode")
	}
}
