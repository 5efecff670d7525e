package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cicerp/internal/models"
	"cicerp/internal/repository"
)

// stubRepo is a test-only in-memory implementation of
// repository.Repository. It implements the full interface but only the
// subset used by service tests carries real behavior.
type stubRepo struct {
	customers map[uint64]*models.Customer
	contracts map[uint64]*models.Contract
	items     map[uint64][]models.LineItem
	costs     map[uint64]map[uint64]*models.ExecutionCost
	payments  map[uint64]*models.PlannedPayment
	snapshots map[string]*models.KPISnapshot
	settings  map[string]*models.SystemSetting

	planSums      repository.PlanTotalsSummary
	plansApproved int64
	plansRejected int64

	nextCostID    uint64
	nextPaymentID uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		customers:     map[uint64]*models.Customer{},
		contracts:     map[uint64]*models.Contract{},
		items:         map[uint64][]models.LineItem{},
		costs:         map[uint64]map[uint64]*models.ExecutionCost{},
		payments:      map[uint64]*models.PlannedPayment{},
		snapshots:     map[string]*models.KPISnapshot{},
		settings:      map[string]*models.SystemSetting{},
		nextCostID:    1,
		nextPaymentID: 1,
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) InsertCustomer(ctx context.Context, item *models.Customer) error { return nil }
func (s *stubRepo) SaveCustomer(ctx context.Context, item *models.Customer) error   { return nil }
func (s *stubRepo) GetCustomerByID(ctx context.Context, id uint64) (*models.Customer, error) {
	return s.customers[id], nil
}
func (s *stubRepo) ListCustomers(ctx context.Context, params repository.ListCustomersParams) ([]models.Customer, error) {
	return nil, nil
}
func (s *stubRepo) CountCustomers(ctx context.Context, params repository.ListCustomersParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertProduct(ctx context.Context, item *models.Product) error { return nil }
func (s *stubRepo) SaveProduct(ctx context.Context, item *models.Product) error   { return nil }
func (s *stubRepo) GetProductByID(ctx context.Context, id uint64) (*models.Product, error) {
	return nil, nil
}
func (s *stubRepo) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	return nil, nil
}
func (s *stubRepo) CountProducts(ctx context.Context, params repository.ListProductsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertContract(ctx context.Context, item *models.Contract) error {
	s.contracts[item.ID] = item
	return nil
}
func (s *stubRepo) SaveContract(ctx context.Context, item *models.Contract) error {
	s.contracts[item.ID] = item
	return nil
}
func (s *stubRepo) GetContractByID(ctx context.Context, id uint64) (*models.Contract, error) {
	return s.contracts[id], nil
}
func (s *stubRepo) ListContracts(ctx context.Context, params repository.ListContractsParams) ([]models.Contract, error) {
	return nil, nil
}
func (s *stubRepo) CountContracts(ctx context.Context, params repository.ListContractsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) CountContractsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	for _, c := range s.contracts {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n, nil
}
func (s *stubRepo) ListLineItemsByContractID(ctx context.Context, contractID uint64) ([]models.LineItem, error) {
	return s.items[contractID], nil
}
func (s *stubRepo) ReplaceLineItemsTx(ctx context.Context, tx *gorm.DB, contractID uint64, items []models.LineItem) error {
	s.items[contractID] = items
	return nil
}
func (s *stubRepo) ListExecutionCostsByContractID(ctx context.Context, contractID uint64) ([]models.ExecutionCost, error) {
	var out []models.ExecutionCost
	for _, c := range s.costs[contractID] {
		out = append(out, *c)
	}
	return out, nil
}
func (s *stubRepo) UpsertExecutionCost(ctx context.Context, item *models.ExecutionCost) error {
	if s.costs[item.ContractID] == nil {
		s.costs[item.ContractID] = map[uint64]*models.ExecutionCost{}
	}
	if item.ID == 0 {
		item.ID = s.nextCostID
		s.nextCostID++
	}
	cp := *item
	s.costs[item.ContractID][item.ID] = &cp
	return nil
}
func (s *stubRepo) DeleteExecutionCost(ctx context.Context, contractID, costID uint64) error {
	delete(s.costs[contractID], costID)
	return nil
}

func (s *stubRepo) GetBusinessPlanByID(ctx context.Context, id uint64) (*models.BusinessPlan, error) {
	return nil, nil
}
func (s *stubRepo) GetOpenBusinessPlanByContractID(ctx context.Context, contractID uint64) (*models.BusinessPlan, error) {
	return nil, nil
}
func (s *stubRepo) InsertBusinessPlan(ctx context.Context, item *models.BusinessPlan) error {
	return nil
}
func (s *stubRepo) SaveBusinessPlan(ctx context.Context, item *models.BusinessPlan) error { return nil }
func (s *stubRepo) ListBusinessPlans(ctx context.Context, params repository.ListBusinessPlansParams) ([]models.BusinessPlan, error) {
	return nil, nil
}
func (s *stubRepo) CountBusinessPlans(ctx context.Context, params repository.ListBusinessPlansParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) SumApprovedPlanTotals(ctx context.Context) (repository.PlanTotalsSummary, error) {
	return s.planSums, nil
}
func (s *stubRepo) CountPlansByStatus(ctx context.Context, status string) (int64, error) {
	switch status {
	case models.PlanStatusApproved:
		return s.plansApproved, nil
	case models.PlanStatusRejected:
		return s.plansRejected, nil
	}
	return 0, nil
}

func (s *stubRepo) AppendReviewLog(ctx context.Context, item *models.ReviewLog) error { return nil }
func (s *stubRepo) ListReviewLogsByPlanID(ctx context.Context, planID uint64) ([]models.ReviewLog, error) {
	return nil, nil
}

func (s *stubRepo) InsertPlannedPayment(ctx context.Context, item *models.PlannedPayment) error {
	if item.ID == 0 {
		item.ID = s.nextPaymentID
		s.nextPaymentID++
	}
	cp := *item
	s.payments[item.ID] = &cp
	return nil
}
func (s *stubRepo) SavePlannedPayment(ctx context.Context, item *models.PlannedPayment) error {
	cp := *item
	s.payments[item.ID] = &cp
	return nil
}
func (s *stubRepo) GetPlannedPaymentByID(ctx context.Context, id uint64) (*models.PlannedPayment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (s *stubRepo) ListPlannedPayments(ctx context.Context, params repository.ListPlannedPaymentsParams) ([]models.PlannedPayment, error) {
	return nil, nil
}
func (s *stubRepo) CountPlannedPayments(ctx context.Context, params repository.ListPlannedPaymentsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) MarkPaymentsOverdue(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for _, p := range s.payments {
		if p.Status == models.PaymentStatusScheduled && p.DueDate.Before(before) {
			p.Status = models.PaymentStatusOverdue
			n++
		}
	}
	return n, nil
}
func (s *stubRepo) SumPaymentsByStatus(ctx context.Context, status string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.payments {
		if p.Status == status {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *stubRepo) UpsertKPISnapshot(ctx context.Context, item *models.KPISnapshot) error {
	cp := *item
	s.snapshots[item.Day] = &cp
	return nil
}
func (s *stubRepo) ListKPISnapshots(ctx context.Context, limit int) ([]models.KPISnapshot, error) {
	return nil, nil
}

func (s *stubRepo) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	cp := *item
	s.settings[item.Key] = &cp
	return nil
}
func (s *stubRepo) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	return s.settings[key], nil
}
func (s *stubRepo) ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error) {
	return nil, nil
}
