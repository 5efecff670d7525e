package finance

import (
	"testing"

	"github.com/shopspring/decimal"

	"cicerp/internal/models"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeTotals_SingleItemNoCosts(t *testing.T) {
	items := []models.LineItem{
		{Quantity: d(1), InputPrice: d(0), OutputPrice: d(50_000_000)},
	}
	got := ComputeTotals(items, nil, decimal.Zero, decimal.Zero)
	if got.SigningValue.Cmp(d(50_000_000)) != 0 {
		t.Fatalf("signing=%s want 50000000", got.SigningValue)
	}
	if got.TotalCosts.Cmp(decimal.Zero) != 0 {
		t.Fatalf("totalCosts=%s want 0", got.TotalCosts)
	}
	if got.GrossProfit.Cmp(d(50_000_000)) != 0 {
		t.Fatalf("grossProfit=%s want 50000000", got.GrossProfit)
	}
	if got.ProfitMargin.Cmp(d(100)) != 0 {
		t.Fatalf("margin=%s want 100", got.ProfitMargin)
	}
}

func TestComputeTotals_DiscountAndExecutionCosts(t *testing.T) {
	items := []models.LineItem{
		{Quantity: d(1), InputPrice: d(20_000_000), OutputPrice: d(30_000_000)},
	}
	costs := []models.ExecutionCost{
		{Name: "Chi phí triển khai", Amount: d(300_000)},
	}
	got := ComputeTotals(items, costs, d(5), decimal.Zero)
	if got.SupplierDiscount.Cmp(d(1_000_000)) != 0 {
		t.Fatalf("discount=%s want 1000000", got.SupplierDiscount)
	}
	if got.TotalCosts.Cmp(d(19_300_000)) != 0 {
		t.Fatalf("totalCosts=%s want 19300000", got.TotalCosts)
	}
	if got.GrossProfit.Cmp(d(10_700_000)) != 0 {
		t.Fatalf("grossProfit=%s want 10700000", got.GrossProfit)
	}
	// 10_700_000 / 30_000_000 * 100 ≈ 35.67
	if got.ProfitMargin.StringFixed(2) != "35.67" {
		t.Fatalf("margin=%s want 35.67", got.ProfitMargin.StringFixed(2))
	}
}

func TestComputeTotals_Deterministic(t *testing.T) {
	items := []models.LineItem{
		{Quantity: d(3), InputPrice: d(1_234_567), OutputPrice: d(2_345_678), DirectCost: d(99_999)},
		{Quantity: d(7), InputPrice: d(888), OutputPrice: d(999)},
	}
	costs := []models.ExecutionCost{
		{Name: "Vận chuyển", Amount: d(150_000)},
		{Name: "Phí thuê chuyên gia", Amount: d(2_000_000), RequiresExpert: true},
	}
	a := ComputeTotals(items, costs, d(3), decimal.Zero)
	b := ComputeTotals(items, costs, d(3), decimal.Zero)
	if a.TotalCosts.Cmp(b.TotalCosts) != 0 || a.ProfitMargin.Cmp(b.ProfitMargin) != 0 ||
		a.SigningValue.Cmp(b.SigningValue) != 0 || a.EstimatedRevenue.Cmp(b.EstimatedRevenue) != 0 {
		t.Fatalf("totals differ between identical calls: %+v vs %+v", a, b)
	}
}

func TestComputeTotals_ZeroSigningValueMargin(t *testing.T) {
	costs := []models.ExecutionCost{{Name: "Chi phí khác", Amount: d(500_000)}}
	got := ComputeTotals(nil, costs, d(10), decimal.Zero)
	if got.SigningValue.Sign() != 0 {
		t.Fatalf("signing=%s want 0", got.SigningValue)
	}
	if got.ProfitMargin.Sign() != 0 {
		t.Fatalf("margin=%s want 0", got.ProfitMargin)
	}
}

func TestComputeTotals_NegativeInputCoercedToZero(t *testing.T) {
	items := []models.LineItem{
		{Quantity: d(-5), InputPrice: d(100), OutputPrice: d(200)},
		{Quantity: d(2), InputPrice: d(-100), OutputPrice: d(300), DirectCost: d(-50)},
	}
	costs := []models.ExecutionCost{{Name: "x", Amount: d(-1_000)}}
	got := ComputeTotals(items, costs, d(-5), decimal.Zero)
	if got.SigningValue.Cmp(d(600)) != 0 {
		t.Fatalf("signing=%s want 600", got.SigningValue)
	}
	if got.TotalInput.Sign() != 0 {
		t.Fatalf("totalInput=%s want 0", got.TotalInput)
	}
	if got.TotalDirectCosts.Sign() != 0 || got.ExecutionCostsSum.Sign() != 0 || got.SupplierDiscount.Sign() != 0 {
		t.Fatalf("negative inputs leaked into totals: %+v", got)
	}
}

func TestComputeTotals_EstimatedRevenueDefaultVAT(t *testing.T) {
	items := []models.LineItem{
		{Quantity: d(1), OutputPrice: d(11_000_000)},
	}
	got := ComputeTotals(items, nil, decimal.Zero, decimal.Zero)
	if got.EstimatedRevenue.Cmp(d(10_000_000)) != 0 {
		t.Fatalf("estimatedRevenue=%s want 10000000", got.EstimatedRevenue)
	}
	if got.VATRate.Cmp(DefaultVATRate) != 0 {
		t.Fatalf("vatRate=%s want %s", got.VATRate, DefaultVATRate)
	}
}

func TestHasExpertCost(t *testing.T) {
	costs := []models.ExecutionCost{
		{Name: "Phí thuê chuyên gia", Amount: decimal.Zero, RequiresExpert: true},
		{Name: "Vận chuyển", Amount: d(100)},
	}
	if HasExpertCost(costs) {
		t.Fatalf("zero-amount expert cost should not count")
	}
	costs[0].Amount = d(2_000_000)
	if !HasExpertCost(costs) {
		t.Fatalf("positive expert cost should count")
	}
}
