// Package reconcile adjusts per-item prices so their sum matches the amount
// actually captured by the payment processor.
//
// All arithmetic runs on integer minor units. Rounding is half away from
// zero; the rounding remainder of the proportional split is absorbed by the
// last item so the line amounts always sum to the target exactly.
package reconcile

import "github.com/noah-isme/paybridge/internal/money"

// Epsilon is the tolerance, in minor units, within which hinted prices are
// accepted verbatim instead of triggering redistribution.
const Epsilon = money.Amount(2)

// Item is one cart line entering reconciliation.
type Item struct {
	VariantRef    string
	Quantity      int
	UnitPriceHint money.Amount
	HasHint       bool
}

// Line is a reconciled cart line. LineAmount is authoritative; UnitPrice is
// the rounded per-unit quotient emitted to the commerce platform. Priced is
// false when the catalog should supply pricing downstream.
type Line struct {
	Item
	UnitPrice  money.Amount
	LineAmount money.Amount
	Priced     bool
}

// Strategy identifies which branch of the algorithm produced the lines.
type Strategy string

const (
	// StrategyCatalog passes quantities through with no explicit price.
	StrategyCatalog Strategy = "catalog"
	// StrategyHinted uses the storefront's hinted unit prices verbatim.
	StrategyHinted Strategy = "hinted"
	// StrategyDistributed splits the target proportionally across items.
	StrategyDistributed Strategy = "distributed"
)

// Reconcile produces line amounts whose sum plus shipping equals the captured
// total to the cent.
func Reconcile(items []Item, capturedTotal, shippingCharge money.Amount) ([]Line, Strategy, error) {
	if capturedTotal <= 0 {
		return nil, "", ErrInvalidTotal
	}
	if len(items) == 0 {
		return nil, "", ErrNoItems
	}
	target := capturedTotal - shippingCharge
	if target < 0 {
		return nil, "", ErrNegativeItemsSubtotal
	}

	qtySum := 0
	hinted := 0
	var hintSubtotal money.Amount
	for _, it := range items {
		qtySum += it.Quantity
		if it.HasHint {
			hinted++
			hintSubtotal += it.UnitPriceHint * money.Amount(it.Quantity)
		}
	}
	if qtySum <= 0 {
		return nil, "", ErrInvalidQuantities
	}

	// No hints anywhere: reconciliation to a target is meaningless, let the
	// catalog price the lines.
	if hinted == 0 {
		lines := make([]Line, len(items))
		for i, it := range items {
			lines[i] = Line{Item: it}
		}
		return lines, StrategyCatalog, nil
	}

	// Fully hinted and consistent with the target: trust the storefront's
	// discount engine.
	if hinted == len(items) && (hintSubtotal-target).Abs() <= Epsilon {
		lines := make([]Line, len(items))
		for i, it := range items {
			lines[i] = Line{
				Item:       it,
				UnitPrice:  it.UnitPriceHint,
				LineAmount: it.UnitPriceHint * money.Amount(it.Quantity),
				Priced:     true,
			}
		}
		return lines, StrategyHinted, nil
	}

	// Hints disagree with the target (or are partial): distribute the target
	// proportionally. Weights are hinted line amounts when every item carries
	// one, otherwise quantities.
	weights := make([]int64, len(items))
	var weightSum int64
	if hinted == len(items) && hintSubtotal > 0 {
		for i, it := range items {
			weights[i] = int64(it.UnitPriceHint) * int64(it.Quantity)
		}
	} else {
		for i, it := range items {
			weights[i] = int64(it.Quantity)
		}
	}
	for _, w := range weights {
		weightSum += w
	}

	lines := make([]Line, len(items))
	var assigned money.Amount
	for i, it := range items {
		var line money.Amount
		if i == len(items)-1 {
			// Residual absorption: the last item takes whatever keeps the
			// sum exact despite earlier independent rounding.
			line = target - assigned
		} else {
			line = money.Amount(divRound(int64(target)*weights[i], weightSum))
			assigned += line
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines[i] = Line{
			Item:       it,
			UnitPrice:  money.Amount(divRound(int64(line), int64(qty))),
			LineAmount: line,
			Priced:     true,
		}
	}
	return lines, StrategyDistributed, nil
}

// divRound divides num by den rounding half away from zero. den must be > 0.
func divRound(num, den int64) int64 {
	if num >= 0 {
		return (2*num + den) / (2 * den)
	}
	return -((-2*num + den) / (2 * den))
}
