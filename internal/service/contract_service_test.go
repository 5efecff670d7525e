package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cicerp/internal/models"
)

func seedContractWithInput(s *stubRepo, id uint64, totalInput int64) {
	s.contracts[id] = &models.Contract{ID: id, Code: "HD-001", CustomerID: 1}
	s.items[id] = []models.LineItem{
		{ContractID: id, Quantity: decimal.NewFromInt(1), InputPrice: decimal.NewFromInt(totalInput)},
	}
}

func TestClassifyExpertCost(t *testing.T) {
	cases := map[string]bool{
		"Phí thuê chuyên gia":    true,
		"Thue chuyen gia tu van": true,
		"External expert fee":    true,
		"Chi phí vận chuyển":     false,
		"":                       false,
	}
	for name, want := range cases {
		if got := ClassifyExpertCost(name); got != want {
			t.Fatalf("ClassifyExpertCost(%q)=%v want %v", name, got, want)
		}
	}
}

func TestUpsertExecutionCost_AmountDrivesPercent(t *testing.T) {
	repo := newStubRepo()
	seedContractWithInput(repo, 1, 20_000_000)
	svc := &ContractService{Repo: repo}

	amount := decimal.NewFromInt(1_000_000)
	item, err := svc.UpsertExecutionCost(context.Background(), 1, CostInput{Name: "Chi phí triển khai", Amount: &amount})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if item.Amount.Cmp(amount) != 0 {
		t.Fatalf("amount=%s want 1000000", item.Amount)
	}
	if item.PercentOfInput.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("percent=%s want 5", item.PercentOfInput)
	}
	if item.RequiresExpert {
		t.Fatalf("plain cost classified as expert")
	}
}

func TestUpsertExecutionCost_PercentDrivesAmount(t *testing.T) {
	repo := newStubRepo()
	seedContractWithInput(repo, 1, 20_000_000)
	svc := &ContractService{Repo: repo}

	pct := decimal.NewFromInt(3)
	item, err := svc.UpsertExecutionCost(context.Background(), 1, CostInput{Name: "Bảo hành", Percent: &pct})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if item.Amount.Cmp(decimal.NewFromInt(600_000)) != 0 {
		t.Fatalf("amount=%s want 600000", item.Amount)
	}
	if item.PercentOfInput.Cmp(pct) != 0 {
		t.Fatalf("percent=%s want 3", item.PercentOfInput)
	}
}

func TestUpsertExecutionCost_ExpertDefaultedFromName(t *testing.T) {
	repo := newStubRepo()
	seedContractWithInput(repo, 1, 20_000_000)
	svc := &ContractService{Repo: repo}

	amount := decimal.NewFromInt(2_000_000)
	item, err := svc.UpsertExecutionCost(context.Background(), 1, CostInput{Name: "Phí thuê chuyên gia", Amount: &amount})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !item.RequiresExpert {
		t.Fatalf("expert-hire name not classified")
	}

	// An explicit flag wins over the classifier.
	explicit := false
	item, err = svc.UpsertExecutionCost(context.Background(), 1, CostInput{
		ID: item.ID, Name: "Phí thuê chuyên gia", Amount: &amount, RequiresExpert: &explicit,
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if item.RequiresExpert {
		t.Fatalf("explicit flag overridden by classifier")
	}
}

func TestReplaceLineItems_ResyncsPercentCosts(t *testing.T) {
	repo := newStubRepo()
	seedContractWithInput(repo, 1, 20_000_000)
	svc := &ContractService{Repo: repo}

	pct := decimal.NewFromInt(5)
	cost, err := svc.UpsertExecutionCost(context.Background(), 1, CostInput{Name: "Quản lý", Percent: &pct})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cost.Amount.Cmp(decimal.NewFromInt(1_000_000)) != 0 {
		t.Fatalf("amount=%s want 1000000", cost.Amount)
	}

	// Double the input: the pegged amount follows.
	err = svc.ReplaceLineItems(context.Background(), 1, []models.LineItem{
		{Quantity: decimal.NewFromInt(1), InputPrice: decimal.NewFromInt(40_000_000)},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	stored := repo.costs[1][cost.ID]
	if stored.Amount.Cmp(decimal.NewFromInt(2_000_000)) != 0 {
		t.Fatalf("resynced amount=%s want 2000000", stored.Amount)
	}
}

func TestScanOverdue(t *testing.T) {
	repo := newStubRepo()
	seedContractWithInput(repo, 1, 0)
	svc := &PaymentService{Repo: repo}

	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	repo.payments[1] = &models.PlannedPayment{
		ID: 1, ContractID: 1, Name: "Đợt 1", Amount: decimal.NewFromInt(5_000_000),
		DueDate: now.Add(-24 * time.Hour), Status: models.PaymentStatusScheduled,
	}
	repo.payments[2] = &models.PlannedPayment{
		ID: 2, ContractID: 1, Name: "Đợt 2", Amount: decimal.NewFromInt(5_000_000),
		DueDate: now.Add(24 * time.Hour), Status: models.PaymentStatusScheduled,
	}

	n, err := svc.ScanOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 1 {
		t.Fatalf("flipped=%d want 1", n)
	}
	if repo.payments[1].Status != models.PaymentStatusOverdue {
		t.Fatalf("past-due payment not overdue: %s", repo.payments[1].Status)
	}
	if repo.payments[2].Status != models.PaymentStatusScheduled {
		t.Fatalf("future payment flipped: %s", repo.payments[2].Status)
	}
}

func TestMarkPaid_DefaultsToFullAmount(t *testing.T) {
	repo := newStubRepo()
	svc := &PaymentService{Repo: repo}
	repo.payments[1] = &models.PlannedPayment{
		ID: 1, ContractID: 1, Name: "Đợt 1", Amount: decimal.NewFromInt(5_000_000),
		DueDate: time.Now().UTC(), Status: models.PaymentStatusScheduled,
	}
	item, err := svc.MarkPaid(context.Background(), 1, nil, time.Time{})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if item.Status != models.PaymentStatusPaid || item.PaidAt == nil {
		t.Fatalf("status=%s paidAt=%v", item.Status, item.PaidAt)
	}
	if item.PaidAmount == nil || item.PaidAmount.Cmp(item.Amount) != 0 {
		t.Fatalf("paidAmount=%v want full amount", item.PaidAmount)
	}
}
