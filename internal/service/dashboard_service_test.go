package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cicerp/internal/models"
	"cicerp/internal/repository"
)

func seedDashboardRepo() *stubRepo {
	repo := newStubRepo()
	repo.contracts[1] = &models.Contract{ID: 1, Status: models.ContractStatusActive}
	repo.contracts[2] = &models.Contract{ID: 2, Status: models.ContractStatusActive}
	repo.contracts[3] = &models.Contract{ID: 3, Status: models.ContractStatusDraft}
	repo.plansApproved = 2
	repo.plansRejected = 1
	repo.planSums = repository.PlanTotalsSummary{
		SigningValueSum: decimal.NewFromInt(80_000_000),
		GrossProfitSum:  decimal.NewFromInt(21_400_000),
	}
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.payments[1] = &models.PlannedPayment{ID: 1, ContractID: 1, Amount: decimal.NewFromInt(10_000_000), DueDate: due, Status: models.PaymentStatusScheduled}
	repo.payments[2] = &models.PlannedPayment{ID: 2, ContractID: 1, Amount: decimal.NewFromInt(5_000_000), DueDate: due, Status: models.PaymentStatusOverdue}
	repo.payments[3] = &models.PlannedPayment{ID: 3, ContractID: 2, Amount: decimal.NewFromInt(20_000_000), DueDate: due, Status: models.PaymentStatusPaid}
	return repo
}

func TestDashboardSummary_Sums(t *testing.T) {
	svc := &DashboardService{Repo: seedDashboardRepo()}

	out, err := svc.Summary(context.Background(), true)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if out.ContractsTotal != 3 || out.ContractsActive != 2 {
		t.Fatalf("contract counts = %d/%d, want 3/2", out.ContractsTotal, out.ContractsActive)
	}
	if out.PlansApproved != 2 || out.PlansRejected != 1 {
		t.Fatalf("plan counts = %d/%d, want 2/1", out.PlansApproved, out.PlansRejected)
	}
	if !out.SigningValueSum.Equal(decimal.NewFromInt(80_000_000)) {
		t.Fatalf("signing value sum = %s", out.SigningValueSum)
	}
	// due = scheduled + overdue
	if !out.PaymentsDueSum.Equal(decimal.NewFromInt(15_000_000)) {
		t.Fatalf("payments due sum = %s, want 15000000", out.PaymentsDueSum)
	}
	if !out.PaymentsPaidSum.Equal(decimal.NewFromInt(20_000_000)) {
		t.Fatalf("payments paid sum = %s, want 20000000", out.PaymentsPaidSum)
	}
}

func TestSnapshotDaily_UpsertsByDay(t *testing.T) {
	repo := seedDashboardRepo()
	svc := &DashboardService{Repo: repo}

	now := time.Date(2025, 6, 2, 0, 30, 0, 0, time.UTC)
	if err := svc.SnapshotDaily(context.Background(), now); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := svc.SnapshotDaily(context.Background(), now); err != nil {
		t.Fatalf("snapshot rerun: %v", err)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshot rows = %d, want 1", len(repo.snapshots))
	}
	snap, ok := repo.snapshots["2025-06-02"]
	if !ok {
		t.Fatalf("snapshot keyed by day missing, have %v", repo.snapshots)
	}
	if snap.ContractsTotal != 3 {
		t.Fatalf("snapshot contracts total = %d, want 3", snap.ContractsTotal)
	}
	if !snap.GrossProfitSum.Equal(decimal.NewFromInt(21_400_000)) {
		t.Fatalf("snapshot gross profit sum = %s", snap.GrossProfitSum)
	}
}
