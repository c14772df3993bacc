package reconcile

import (
	"errors"
	"testing"

	"github.com/noah-isme/paybridge/internal/money"
)

func TestSumInvariant(t *testing.T) {
	carts := [][]Item{
		{{VariantRef: "1", Quantity: 1}},
		{{VariantRef: "1", Quantity: 3}, {VariantRef: "2", Quantity: 7}},
		{{VariantRef: "1", Quantity: 1}, {VariantRef: "2", Quantity: 1}, {VariantRef: "3", Quantity: 1}},
		{
			{VariantRef: "1", Quantity: 2, UnitPriceHint: 333, HasHint: true},
			{VariantRef: "2", Quantity: 5, UnitPriceHint: 199, HasHint: true},
			{VariantRef: "3", Quantity: 1, UnitPriceHint: 1, HasHint: true},
		},
	}
	totals := []money.Amount{1000, 1001, 999, 10007, 3, 123457}
	for _, items := range carts {
		for _, total := range totals {
			lines, strategy, err := Reconcile(items, total, 0)
			if err != nil {
				t.Fatalf("reconcile total=%d: %v", total, err)
			}
			if strategy == StrategyCatalog {
				continue
			}
			var sum money.Amount
			for _, l := range lines {
				sum += l.LineAmount
			}
			if sum != total {
				t.Fatalf("sum=%d want %d (items=%d strategy=%s)", sum, total, len(items), strategy)
			}
		}
	}
}

func TestSingleItem(t *testing.T) {
	lines, strategy, err := Reconcile(
		[]Item{{VariantRef: "1", Quantity: 4, UnitPriceHint: 100, HasHint: true}},
		1000, 0,
	)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyDistributed {
		t.Fatalf("strategy = %s", strategy)
	}
	if lines[0].LineAmount != 1000 {
		t.Fatalf("line amount = %d", lines[0].LineAmount)
	}
	if lines[0].UnitPrice != 250 {
		t.Fatalf("unit price = %d, want 250", lines[0].UnitPrice)
	}
}

func TestProportionalByQuantity(t *testing.T) {
	// Mixed hints fall back to quantity weights: shares 0.25 / 0.75.
	items := []Item{
		{VariantRef: "1", Quantity: 1, UnitPriceHint: 100, HasHint: true},
		{VariantRef: "2", Quantity: 3},
	}
	lines, strategy, err := Reconcile(items, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyDistributed {
		t.Fatalf("strategy = %s", strategy)
	}
	if lines[0].LineAmount != 250 || lines[1].LineAmount != 750 {
		t.Fatalf("lines = %d / %d, want 250 / 750", lines[0].LineAmount, lines[1].LineAmount)
	}

	// With an odd cent the last item absorbs the residual.
	lines, _, err = Reconcile(items, 1001, 0)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0].LineAmount != 250 || lines[1].LineAmount != 751 {
		t.Fatalf("lines = %d / %d, want 250 / 751", lines[0].LineAmount, lines[1].LineAmount)
	}
}

func TestHintedPassthrough(t *testing.T) {
	items := []Item{
		{VariantRef: "1", Quantity: 2, UnitPriceHint: 250, HasHint: true},
		{VariantRef: "2", Quantity: 1, UnitPriceHint: 499, HasHint: true},
	}
	// Hinted subtotal 999; target 1000 is within epsilon so hints are kept.
	lines, strategy, err := Reconcile(items, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyHinted {
		t.Fatalf("strategy = %s", strategy)
	}
	if lines[0].UnitPrice != 250 || lines[1].UnitPrice != 499 {
		t.Fatalf("unit prices = %d / %d", lines[0].UnitPrice, lines[1].UnitPrice)
	}

	// Beyond epsilon the hints become weights and the target wins.
	lines, strategy, err = Reconcile(items, 1099, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyDistributed {
		t.Fatalf("strategy = %s", strategy)
	}
	var sum money.Amount
	for _, l := range lines {
		sum += l.LineAmount
	}
	if sum != 1099 {
		t.Fatalf("sum = %d", sum)
	}
}

func TestCatalogPassthrough(t *testing.T) {
	lines, strategy, err := Reconcile(
		[]Item{{VariantRef: "1", Quantity: 2}, {VariantRef: "2", Quantity: 1}},
		1000, 0,
	)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyCatalog {
		t.Fatalf("strategy = %s", strategy)
	}
	for _, l := range lines {
		if l.Priced {
			t.Fatalf("catalog line should carry no price: %+v", l)
		}
	}
}

func TestShippingReducesTarget(t *testing.T) {
	items := []Item{{VariantRef: "1", Quantity: 1, UnitPriceHint: 100, HasHint: true}}
	lines, _, err := Reconcile(items, 1000, 250)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0].LineAmount != 750 {
		t.Fatalf("line amount = %d, want 750", lines[0].LineAmount)
	}
}

func TestRejections(t *testing.T) {
	items := []Item{{VariantRef: "1", Quantity: 1}}
	if _, _, err := Reconcile(items, 0, 0); !errors.Is(err, ErrInvalidTotal) {
		t.Fatalf("zero total: %v", err)
	}
	if _, _, err := Reconcile(items, -500, 0); !errors.Is(err, ErrInvalidTotal) {
		t.Fatalf("negative total: %v", err)
	}
	if _, _, err := Reconcile(items, 1000, 1500); !errors.Is(err, ErrNegativeItemsSubtotal) {
		t.Fatalf("oversized shipping: %v", err)
	}
	if _, _, err := Reconcile(nil, 1000, 0); !errors.Is(err, ErrNoItems) {
		t.Fatalf("no items: %v", err)
	}
	if _, _, err := Reconcile([]Item{{VariantRef: "1"}}, 1000, 0); !errors.Is(err, ErrInvalidQuantities) {
		t.Fatalf("zero quantities: %v", err)
	}
}
