// Package finance derives a contract's financial totals from its line items
// and execution costs. Everything here is pure: no I/O, no shared state, and
// deterministic output for identical input, which the approval policy relies
// on when it branches on profit margin.
package finance

import (
	"github.com/shopspring/decimal"

	"cicerp/internal/models"
)

// DefaultVATRate is applied when the caller passes a non-positive rate.
var DefaultVATRate = decimal.NewFromFloat(0.10)

var hundred = decimal.NewFromInt(100)

// Totals is the derived financial summary of a contract. It is recomputed on
// demand and frozen into a business plan snapshot at submission time; it is
// never a source of truth on its own.
type Totals struct {
	SigningValue        decimal.Decimal `json:"signing_value"`
	TotalInput          decimal.Decimal `json:"total_input"`
	TotalDirectCosts    decimal.Decimal `json:"total_direct_costs"`
	ExecutionCostsSum   decimal.Decimal `json:"execution_costs_sum"`
	SupplierDiscount    decimal.Decimal `json:"supplier_discount_amount"`
	TotalCosts          decimal.Decimal `json:"total_costs"`
	GrossProfit         decimal.Decimal `json:"gross_profit"`
	ProfitMargin        decimal.Decimal `json:"profit_margin"`
	EstimatedRevenue    decimal.Decimal `json:"estimated_revenue"`
	SupplierDiscountPct decimal.Decimal `json:"supplier_discount_percent"`
	VATRate             decimal.Decimal `json:"vat_rate"`
	HasExpertCost       bool            `json:"has_expert_cost"`
}

// ComputeTotals derives the totals summary. Malformed numeric input
// (negative quantities, prices or amounts) is coerced to zero rather than
// reported, keeping the function total. Safe for concurrent use.
func ComputeTotals(items []models.LineItem, costs []models.ExecutionCost, supplierDiscountPercent, vatRate decimal.Decimal) Totals {
	if vatRate.Sign() <= 0 {
		vatRate = DefaultVATRate
	}
	discountPct := nonNegative(supplierDiscountPercent)

	var signing, input, direct decimal.Decimal
	for _, it := range items {
		qty := nonNegative(it.Quantity)
		signing = signing.Add(qty.Mul(nonNegative(it.OutputPrice)))
		input = input.Add(qty.Mul(nonNegative(it.InputPrice)))
		direct = direct.Add(nonNegative(it.DirectCost))
	}

	var execSum decimal.Decimal
	for _, c := range costs {
		execSum = execSum.Add(nonNegative(c.Amount))
	}

	discount := input.Mul(discountPct).Div(hundred)
	totalCosts := input.Add(direct).Add(execSum).Sub(discount)
	grossProfit := signing.Sub(totalCosts)

	// Margin is 0 for a zero signing value; a zero-value contract is never
	// auto-skip eligible.
	margin := decimal.Zero
	if signing.Sign() != 0 {
		margin = grossProfit.Div(signing).Mul(hundred)
	}

	return Totals{
		SigningValue:        signing,
		TotalInput:          input,
		TotalDirectCosts:    direct,
		ExecutionCostsSum:   execSum,
		SupplierDiscount:    discount,
		TotalCosts:          totalCosts,
		GrossProfit:         grossProfit,
		ProfitMargin:        margin,
		EstimatedRevenue:    signing.Div(decimal.NewFromInt(1).Add(vatRate)),
		SupplierDiscountPct: discountPct,
		VATRate:             vatRate,
		HasExpertCost:       HasExpertCost(costs),
	}
}

// HasExpertCost reports whether any execution cost is flagged as an external
// expert hire with a positive amount.
func HasExpertCost(costs []models.ExecutionCost) bool {
	for _, c := range costs {
		if c.RequiresExpert && c.Amount.Sign() > 0 {
			return true
		}
	}
	return false
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.Sign() < 0 {
		return decimal.Zero
	}
	return v
}
