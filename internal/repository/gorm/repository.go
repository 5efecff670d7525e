package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cicerp/internal/models"
	"cicerp/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Customers ---------------------------------------------------------------

func (s *Store) InsertCustomer(ctx context.Context, item *models.Customer) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveCustomer(ctx context.Context, item *models.Customer) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetCustomerByID(ctx context.Context, id uint64) (*models.Customer, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Customer
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func customerListQuery(db *gorm.DB, params repository.ListCustomersParams) *gorm.DB {
	query := db.Model(&models.Customer{})
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		pattern := "%" + strings.TrimSpace(*params.Search) + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	return query
}

func (s *Store) ListCustomers(ctx context.Context, params repository.ListCustomersParams) ([]models.Customer, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := customerListQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Customer
	if err := query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCustomers(ctx context.Context, params repository.ListCustomersParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := customerListQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- Products ----------------------------------------------------------------

func (s *Store) InsertProduct(ctx context.Context, item *models.Product) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveProduct(ctx context.Context, item *models.Product) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetProductByID(ctx context.Context, id uint64) (*models.Product, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Product
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func productListQuery(db *gorm.DB, params repository.ListProductsParams) *gorm.DB {
	query := db.Model(&models.Product{})
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		pattern := "%" + strings.TrimSpace(*params.Search) + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	return query
}

func (s *Store) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := productListQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Product
	if err := query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountProducts(ctx context.Context, params repository.ListProductsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := productListQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- Contracts ---------------------------------------------------------------

func (s *Store) InsertContract(ctx context.Context, item *models.Contract) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveContract(ctx context.Context, item *models.Contract) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetContractByID(ctx context.Context, id uint64) (*models.Contract, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Contract
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func contractListQuery(db *gorm.DB, params repository.ListContractsParams) *gorm.DB {
	query := db.Model(&models.Contract{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.CustomerID != nil && *params.CustomerID > 0 {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.UnitName != nil && strings.TrimSpace(*params.UnitName) != "" {
		query = query.Where("unit_name = ?", strings.TrimSpace(*params.UnitName))
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		pattern := "%" + strings.TrimSpace(*params.Search) + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	return query
}

func (s *Store) ListContracts(ctx context.Context, params repository.ListContractsParams) ([]models.Contract, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := contractListQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Contract
	if err := query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountContracts(ctx context.Context, params repository.ListContractsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := contractListQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountContractsByStatus(ctx context.Context, status string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := s.db.WithContext(ctx).Model(&models.Contract{})
	if strings.TrimSpace(status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(status))
	}
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListLineItemsByContractID(ctx context.Context, contractID uint64) ([]models.LineItem, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.LineItem
	if err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("position asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceLineItemsTx swaps a contract's line items wholesale inside the
// caller's transaction; items are never updated row-by-row.
func (s *Store) ReplaceLineItemsTx(ctx context.Context, tx *gorm.DB, contractID uint64, items []models.LineItem) error {
	if s == nil || tx == nil || contractID == 0 {
		return nil
	}
	if err := tx.Where("contract_id = ?", contractID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].ContractID = contractID
	}
	return tx.CreateInBatches(items, 200).Error
}

func (s *Store) ListExecutionCostsByContractID(ctx context.Context, contractID uint64) ([]models.ExecutionCost, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ExecutionCost
	if err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("position asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertExecutionCost(ctx context.Context, item *models.ExecutionCost) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeleteExecutionCost(ctx context.Context, contractID, costID uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("contract_id = ? AND id = ?", contractID, costID).
		Delete(&models.ExecutionCost{}).Error
}

// --- Business plans ----------------------------------------------------------

func (s *Store) InsertBusinessPlan(ctx context.Context, item *models.BusinessPlan) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveBusinessPlan(ctx context.Context, item *models.BusinessPlan) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetBusinessPlanByID(ctx context.Context, id uint64) (*models.BusinessPlan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.BusinessPlan
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetOpenBusinessPlanByContractID(ctx context.Context, contractID uint64) (*models.BusinessPlan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.BusinessPlan
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Where("status NOT IN ?", []string{models.PlanStatusApproved, models.PlanStatusRejected}).
		Order("id desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func planListQuery(db *gorm.DB, params repository.ListBusinessPlansParams) *gorm.DB {
	query := db.Model(&models.BusinessPlan{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.ContractID != nil && *params.ContractID > 0 {
		query = query.Where("contract_id = ?", *params.ContractID)
	}
	return query
}

func (s *Store) ListBusinessPlans(ctx context.Context, params repository.ListBusinessPlansParams) ([]models.BusinessPlan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := planListQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.BusinessPlan
	if err := query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountBusinessPlans(ctx context.Context, params repository.ListBusinessPlansParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := planListQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountPlansByStatus(ctx context.Context, status string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&models.BusinessPlan{}).
		Where("status = ?", status).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumApprovedPlanTotals folds the frozen snapshots of approved plans. The
// snapshot JSON is authoritative for these sums; live contract rows may have
// drifted since approval.
func (s *Store) SumApprovedPlanTotals(ctx context.Context) (repository.PlanTotalsSummary, error) {
	out := repository.PlanTotalsSummary{
		SigningValueSum: decimal.Zero,
		GrossProfitSum:  decimal.Zero,
	}
	if s == nil || s.db == nil {
		return out, nil
	}
	var plans []models.BusinessPlan
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.PlanStatusApproved).
		Find(&plans).Error; err != nil {
		return out, err
	}
	for _, p := range plans {
		if len(p.Totals) == 0 {
			continue
		}
		var snap struct {
			SigningValue decimal.Decimal `json:"signing_value"`
			GrossProfit  decimal.Decimal `json:"gross_profit"`
		}
		if err := json.Unmarshal(p.Totals, &snap); err != nil {
			continue
		}
		out.SigningValueSum = out.SigningValueSum.Add(snap.SigningValue)
		out.GrossProfitSum = out.GrossProfitSum.Add(snap.GrossProfit)
	}
	return out, nil
}

// --- Review logs -------------------------------------------------------------

func (s *Store) AppendReviewLog(ctx context.Context, item *models.ReviewLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListReviewLogsByPlanID(ctx context.Context, planID uint64) ([]models.ReviewLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ReviewLog
	if err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Planned payments --------------------------------------------------------

func (s *Store) InsertPlannedPayment(ctx context.Context, item *models.PlannedPayment) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SavePlannedPayment(ctx context.Context, item *models.PlannedPayment) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetPlannedPaymentByID(ctx context.Context, id uint64) (*models.PlannedPayment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PlannedPayment
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func paymentListQuery(db *gorm.DB, params repository.ListPlannedPaymentsParams) *gorm.DB {
	query := db.Model(&models.PlannedPayment{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.ContractID != nil && *params.ContractID > 0 {
		query = query.Where("contract_id = ?", *params.ContractID)
	}
	if params.DueBefore != nil && !params.DueBefore.IsZero() {
		query = query.Where("due_date < ?", *params.DueBefore)
	}
	return query
}

func (s *Store) ListPlannedPayments(ctx context.Context, params repository.ListPlannedPaymentsParams) ([]models.PlannedPayment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := paymentListQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "due_date")
	var items []models.PlannedPayment
	if err := query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPlannedPayments(ctx context.Context, params repository.ListPlannedPaymentsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := paymentListQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkPaymentsOverdue(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&models.PlannedPayment{}).
		Where("status = ?", models.PaymentStatusScheduled).
		Where("due_date < ?", before).
		Update("status", models.PaymentStatusOverdue)
	return res.RowsAffected, res.Error
}

func (s *Store) SumPaymentsByStatus(ctx context.Context, status string) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var raw *string
	if err := s.db.WithContext(ctx).
		Model(&models.PlannedPayment{}).
		Where("status = ?", status).
		Select("SUM(amount)::text").
		Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

// --- KPI snapshots -----------------------------------------------------------

func (s *Store) UpsertKPISnapshot(ctx context.Context, item *models.KPISnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"contracts_total",
			"contracts_active",
			"plans_approved",
			"plans_rejected",
			"signing_value_sum",
			"gross_profit_sum",
			"payments_due_sum",
			"payments_paid_sum",
		}),
	}).Create(item).Error
}

func (s *Store) ListKPISnapshots(ctx context.Context, limit int) ([]models.KPISnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.KPISnapshot
	if err := s.db.WithContext(ctx).
		Model(&models.KPISnapshot{}).
		Order("day desc").
		Limit(normalizeLimit(limit, 30)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- System settings ---------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(item).Error
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).First(&item, "key = ?", strings.TrimSpace(key)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SystemSetting
	if err := s.db.WithContext(ctx).
		Model(&models.SystemSetting{}).
		Order("key asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
