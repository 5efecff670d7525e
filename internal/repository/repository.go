package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cicerp/internal/models"
)

// ContractStore is the read surface the workflow core needs from the
// contract catalog.
type ContractStore interface {
	GetContractByID(ctx context.Context, id uint64) (*models.Contract, error)
	ListLineItemsByContractID(ctx context.Context, contractID uint64) ([]models.LineItem, error)
	ListExecutionCostsByContractID(ctx context.Context, contractID uint64) ([]models.ExecutionCost, error)
}

// PlanStore persists business plans.
type PlanStore interface {
	GetBusinessPlanByID(ctx context.Context, id uint64) (*models.BusinessPlan, error)
	GetOpenBusinessPlanByContractID(ctx context.Context, contractID uint64) (*models.BusinessPlan, error)
	InsertBusinessPlan(ctx context.Context, item *models.BusinessPlan) error
	SaveBusinessPlan(ctx context.Context, item *models.BusinessPlan) error
	ListBusinessPlans(ctx context.Context, params ListBusinessPlansParams) ([]models.BusinessPlan, error)
	CountBusinessPlans(ctx context.Context, params ListBusinessPlansParams) (int64, error)
}

// ReviewLogStore is append-only; no update or delete methods exist.
type ReviewLogStore interface {
	AppendReviewLog(ctx context.Context, item *models.ReviewLog) error
	ListReviewLogsByPlanID(ctx context.Context, planID uint64) ([]models.ReviewLog, error)
}

// Repository is the unified store used by services and handlers. It embeds
// the three interfaces the workflow core depends on so the core can be wired
// against narrow fakes in tests.
type Repository interface {
	ContractStore
	PlanStore
	ReviewLogStore

	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Customers
	InsertCustomer(ctx context.Context, item *models.Customer) error
	SaveCustomer(ctx context.Context, item *models.Customer) error
	GetCustomerByID(ctx context.Context, id uint64) (*models.Customer, error)
	ListCustomers(ctx context.Context, params ListCustomersParams) ([]models.Customer, error)
	CountCustomers(ctx context.Context, params ListCustomersParams) (int64, error)

	// Products
	InsertProduct(ctx context.Context, item *models.Product) error
	SaveProduct(ctx context.Context, item *models.Product) error
	GetProductByID(ctx context.Context, id uint64) (*models.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, error)
	CountProducts(ctx context.Context, params ListProductsParams) (int64, error)

	// Contracts
	InsertContract(ctx context.Context, item *models.Contract) error
	SaveContract(ctx context.Context, item *models.Contract) error
	ListContracts(ctx context.Context, params ListContractsParams) ([]models.Contract, error)
	CountContracts(ctx context.Context, params ListContractsParams) (int64, error)
	CountContractsByStatus(ctx context.Context, status string) (int64, error)
	ReplaceLineItemsTx(ctx context.Context, tx *gorm.DB, contractID uint64, items []models.LineItem) error
	UpsertExecutionCost(ctx context.Context, item *models.ExecutionCost) error
	DeleteExecutionCost(ctx context.Context, contractID, costID uint64) error

	// Plans (beyond PlanStore)
	SumApprovedPlanTotals(ctx context.Context) (PlanTotalsSummary, error)
	CountPlansByStatus(ctx context.Context, status string) (int64, error)

	// Payments
	InsertPlannedPayment(ctx context.Context, item *models.PlannedPayment) error
	SavePlannedPayment(ctx context.Context, item *models.PlannedPayment) error
	GetPlannedPaymentByID(ctx context.Context, id uint64) (*models.PlannedPayment, error)
	ListPlannedPayments(ctx context.Context, params ListPlannedPaymentsParams) ([]models.PlannedPayment, error)
	CountPlannedPayments(ctx context.Context, params ListPlannedPaymentsParams) (int64, error)
	MarkPaymentsOverdue(ctx context.Context, before time.Time) (int64, error)
	SumPaymentsByStatus(ctx context.Context, status string) (decimal.Decimal, error)

	// KPI snapshots
	UpsertKPISnapshot(ctx context.Context, item *models.KPISnapshot) error
	ListKPISnapshots(ctx context.Context, limit int) ([]models.KPISnapshot, error)

	// System settings
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error)
}

// PlanTotalsSummary aggregates the frozen snapshots of approved plans.
type PlanTotalsSummary struct {
	SigningValueSum decimal.Decimal `json:"signing_value_sum"`
	GrossProfitSum  decimal.Decimal `json:"gross_profit_sum"`
}

type ListCustomersParams struct {
	Limit   int
	Offset  int
	Search  *string
	OrderBy string
	Asc     *bool
}

type ListProductsParams struct {
	Limit   int
	Offset  int
	Search  *string
	Active  *bool
	OrderBy string
	Asc     *bool
}

type ListContractsParams struct {
	Limit      int
	Offset     int
	Status     *string
	CustomerID *uint64
	UnitName   *string
	Search     *string
	OrderBy    string
	Asc        *bool
}

type ListBusinessPlansParams struct {
	Limit      int
	Offset     int
	Status     *string
	ContractID *uint64
	OrderBy    string
	Asc        *bool
}

type ListPlannedPaymentsParams struct {
	Limit      int
	Offset     int
	Status     *string
	ContractID *uint64
	DueBefore  *time.Time
	OrderBy    string
	Asc        *bool
}
