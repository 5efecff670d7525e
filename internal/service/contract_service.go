package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cicerp/internal/finance"
	"cicerp/internal/models"
	"cicerp/internal/repository"
)

var (
	ErrContractNotFound = errors.New("service: contract not found")
	ErrCustomerNotFound = errors.New("service: customer not found")
	ErrCostNotFound     = errors.New("service: execution cost not found")
	ErrInvalidInput     = errors.New("service: invalid input")
)

// expertNamePatterns default the RequiresExpert flag for legacy payloads
// that name the cost but omit the attribute. The flag on the row is
// authoritative everywhere downstream; no other code matches names.
var expertNamePatterns = []string{"chuyên gia", "chuyen gia", "expert"}

// ClassifyExpertCost reports whether a cost name looks like an external
// expert hire.
func ClassifyExpertCost(name string) bool {
	lowered := strings.ToLower(name)
	for _, p := range expertNamePatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

type ContractService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	VATRate decimal.Decimal
}

func (s *ContractService) Create(ctx context.Context, item *models.Contract) error {
	if s == nil || s.Repo == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Code) == "" || strings.TrimSpace(item.Name) == "" {
		return ErrInvalidInput
	}
	customer, err := s.Repo.GetCustomerByID(ctx, item.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return ErrCustomerNotFound
	}
	if item.Status == "" {
		item.Status = models.ContractStatusDraft
	}
	return s.Repo.InsertContract(ctx, item)
}

func (s *ContractService) Update(ctx context.Context, item *models.Contract) error {
	if s == nil || s.Repo == nil || item == nil {
		return nil
	}
	existing, err := s.Repo.GetContractByID(ctx, item.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrContractNotFound
	}
	return s.Repo.SaveContract(ctx, item)
}

// ReplaceLineItems swaps the contract's line items and re-pegs any
// percent-based execution cost against the new total input.
func (s *ContractService) ReplaceLineItems(ctx context.Context, contractID uint64, items []models.LineItem) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	contract, err := s.Repo.GetContractByID(ctx, contractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return ErrContractNotFound
	}
	if err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Repo.ReplaceLineItemsTx(ctx, tx, contractID, items)
	}); err != nil {
		return err
	}
	return s.resyncPercentCosts(ctx, contractID)
}

// CostInput is one execution cost write. Exactly one of Amount or Percent
// drives the entry; the service recomputes the counterpart against the
// contract's total input cost.
type CostInput struct {
	ID             uint64
	Name           string
	Amount         *decimal.Decimal
	Percent        *decimal.Decimal
	RequiresExpert *bool
	Position       int
}

func (s *ContractService) UpsertExecutionCost(ctx context.Context, contractID uint64, in CostInput) (*models.ExecutionCost, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrInvalidInput
	}
	if in.Amount == nil && in.Percent == nil {
		return nil, ErrInvalidInput
	}
	contract, err := s.Repo.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}
	totalInput, err := s.totalInput(ctx, contractID)
	if err != nil {
		return nil, err
	}

	item := &models.ExecutionCost{
		ID:         in.ID,
		ContractID: contractID,
		Name:       strings.TrimSpace(in.Name),
		Position:   in.Position,
	}
	item.Amount, item.PercentOfInput = reconcileCost(in.Amount, in.Percent, totalInput)
	if in.RequiresExpert != nil {
		item.RequiresExpert = *in.RequiresExpert
	} else {
		item.RequiresExpert = ClassifyExpertCost(item.Name)
	}
	if err := s.Repo.UpsertExecutionCost(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ContractService) DeleteExecutionCost(ctx context.Context, contractID, costID uint64) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	return s.Repo.DeleteExecutionCost(ctx, contractID, costID)
}

// Totals is the live computation for the contract edit surface. Approvals
// never use this; they read the snapshot frozen at submission.
func (s *ContractService) Totals(ctx context.Context, contractID uint64) (finance.Totals, error) {
	if s == nil || s.Repo == nil {
		return finance.Totals{}, nil
	}
	contract, err := s.Repo.GetContractByID(ctx, contractID)
	if err != nil {
		return finance.Totals{}, err
	}
	if contract == nil {
		return finance.Totals{}, ErrContractNotFound
	}
	items, err := s.Repo.ListLineItemsByContractID(ctx, contractID)
	if err != nil {
		return finance.Totals{}, err
	}
	costs, err := s.Repo.ListExecutionCostsByContractID(ctx, contractID)
	if err != nil {
		return finance.Totals{}, err
	}
	return finance.ComputeTotals(items, costs, contract.SupplierDiscountPercent, s.VATRate), nil
}

func (s *ContractService) totalInput(ctx context.Context, contractID uint64) (decimal.Decimal, error) {
	items, err := s.Repo.ListLineItemsByContractID(ctx, contractID)
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	for _, it := range items {
		if it.Quantity.Sign() < 0 || it.InputPrice.Sign() < 0 {
			continue
		}
		total = total.Add(it.Quantity.Mul(it.InputPrice))
	}
	return total, nil
}

// resyncPercentCosts recomputes amounts for percent-pegged costs after the
// line items (and therefore total input) changed.
func (s *ContractService) resyncPercentCosts(ctx context.Context, contractID uint64) error {
	totalInput, err := s.totalInput(ctx, contractID)
	if err != nil {
		return err
	}
	costs, err := s.Repo.ListExecutionCostsByContractID(ctx, contractID)
	if err != nil {
		return err
	}
	for i := range costs {
		c := costs[i]
		if c.PercentOfInput.Sign() <= 0 {
			continue
		}
		amount, _ := reconcileCost(nil, &c.PercentOfInput, totalInput)
		if amount.Cmp(c.Amount) == 0 {
			continue
		}
		c.Amount = amount
		if err := s.Repo.UpsertExecutionCost(ctx, &c); err != nil {
			return err
		}
		if s.Logger != nil {
			s.Logger.Debug("resynced percent cost",
				zap.Uint64("contract_id", contractID),
				zap.Uint64("cost_id", c.ID),
				zap.String("amount", amount.String()),
			)
		}
	}
	return nil
}

var costHundred = decimal.NewFromInt(100)

// reconcileCost returns (amount, percent) with the missing side derived from
// the other against totalInput. An explicit amount wins when both are set.
func reconcileCost(amount, percent *decimal.Decimal, totalInput decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if amount != nil {
		a := *amount
		if a.Sign() < 0 {
			a = decimal.Zero
		}
		pct := decimal.Zero
		if totalInput.Sign() > 0 {
			pct = a.Div(totalInput).Mul(costHundred)
		}
		return a, pct
	}
	pct := *percent
	if pct.Sign() < 0 {
		pct = decimal.Zero
	}
	return totalInput.Mul(pct).Div(costHundred), pct
}
