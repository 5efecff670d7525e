package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cicerp/internal/cache"
	"cicerp/internal/models"
	"cicerp/internal/repository"
)

const dashboardCacheKey = "dashboard:summary"

// DashboardSummary is the KPI block shown on the landing screen.
type DashboardSummary struct {
	ContractsTotal  int64           `json:"contracts_total"`
	ContractsActive int64           `json:"contracts_active"`
	PlansApproved   int64           `json:"plans_approved"`
	PlansRejected   int64           `json:"plans_rejected"`
	SigningValueSum decimal.Decimal `json:"signing_value_sum"`
	GrossProfitSum  decimal.Decimal `json:"gross_profit_sum"`
	PaymentsDueSum  decimal.Decimal `json:"payments_due_sum"`
	PaymentsPaidSum decimal.Decimal `json:"payments_paid_sum"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type DashboardService struct {
	Repo     repository.Repository
	Cache    *cache.RedisStore
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// Summary computes the dashboard KPIs, served from redis when fresh.
func (s *DashboardService) Summary(ctx context.Context, skipCache bool) (DashboardSummary, error) {
	if s == nil || s.Repo == nil {
		return DashboardSummary{}, nil
	}
	if !skipCache && s.Cache != nil {
		if raw, ok, err := s.Cache.Get(ctx, dashboardCacheKey); err == nil && ok {
			var cached DashboardSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	out, err := s.compute(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	if s.Cache != nil {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		if raw, err := json.Marshal(out); err == nil {
			if err := s.Cache.Set(ctx, dashboardCacheKey, raw, ttl); err != nil && s.Logger != nil {
				s.Logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return out, nil
}

func (s *DashboardService) compute(ctx context.Context) (DashboardSummary, error) {
	out := DashboardSummary{GeneratedAt: time.Now().UTC()}

	var err error
	if out.ContractsTotal, err = s.Repo.CountContractsByStatus(ctx, ""); err != nil {
		return out, err
	}
	if out.ContractsActive, err = s.Repo.CountContractsByStatus(ctx, models.ContractStatusActive); err != nil {
		return out, err
	}
	if out.PlansApproved, err = s.Repo.CountPlansByStatus(ctx, models.PlanStatusApproved); err != nil {
		return out, err
	}
	if out.PlansRejected, err = s.Repo.CountPlansByStatus(ctx, models.PlanStatusRejected); err != nil {
		return out, err
	}

	sums, err := s.Repo.SumApprovedPlanTotals(ctx)
	if err != nil {
		return out, err
	}
	out.SigningValueSum = sums.SigningValueSum
	out.GrossProfitSum = sums.GrossProfitSum

	scheduled, err := s.Repo.SumPaymentsByStatus(ctx, models.PaymentStatusScheduled)
	if err != nil {
		return out, err
	}
	overdue, err := s.Repo.SumPaymentsByStatus(ctx, models.PaymentStatusOverdue)
	if err != nil {
		return out, err
	}
	out.PaymentsDueSum = scheduled.Add(overdue)
	if out.PaymentsPaidSum, err = s.Repo.SumPaymentsByStatus(ctx, models.PaymentStatusPaid); err != nil {
		return out, err
	}
	return out, nil
}

// SnapshotDaily persists one rollup row per day. Invoked by cron shortly
// after midnight; upsert keeps reruns idempotent.
func (s *DashboardService) SnapshotDaily(ctx context.Context, now time.Time) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	summary, err := s.compute(ctx)
	if err != nil {
		return err
	}
	item := &models.KPISnapshot{
		Day:             now.UTC().Format("2006-01-02"),
		ContractsTotal:  summary.ContractsTotal,
		ContractsActive: summary.ContractsActive,
		PlansApproved:   summary.PlansApproved,
		PlansRejected:   summary.PlansRejected,
		SigningValueSum: summary.SigningValueSum,
		GrossProfitSum:  summary.GrossProfitSum,
		PaymentsDueSum:  summary.PaymentsDueSum,
		PaymentsPaidSum: summary.PaymentsPaidSum,
	}
	if err := s.Repo.UpsertKPISnapshot(ctx, item); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("kpi snapshot saved", zap.String("day", item.Day))
	}
	return nil
}
