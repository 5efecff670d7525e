// Package approval decides how a business plan moves through its review
// stages. The decision is a pure function of the current status, the acting
// role, and the frozen financial snapshot; nothing here touches a store.
package approval

import (
	"errors"

	"github.com/shopspring/decimal"

	"cicerp/internal/finance"
	"cicerp/internal/models"
)

const (
	RoleSales      = "sales"
	RoleUnitLead   = "unit_lead"
	RoleAccountant = "accountant"
	RoleBoard      = "board"
	RoleAdmin      = "admin"
)

var (
	// ErrInvalidTransition means the acting role is not authorized to act on
	// the plan's current status.
	ErrInvalidTransition = errors.New("approval: role not authorized for current status")
	// ErrPlanClosed means the plan is already approved or rejected.
	ErrPlanClosed = errors.New("approval: plan is closed")
)

// DefaultAutoSkipMargin is the profit margin (percent) at or above which a
// finance-stage approval may skip board review.
var DefaultAutoSkipMargin = decimal.NewFromInt(30)

// Config carries the tunable knobs of the policy. The zero value falls back
// to the defaults.
type Config struct {
	AutoSkipEnabled bool
	// AutoSkipMargin is the minimum profit margin for the board skip.
	AutoSkipMargin decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		AutoSkipEnabled: true,
		AutoSkipMargin:  DefaultAutoSkipMargin,
	}
}

// stageOrder is the normal forward sequence of review stages.
var stageOrder = map[string]string{
	models.PlanStatusDraft:          models.PlanStatusPendingUnit,
	models.PlanStatusPendingUnit:    models.PlanStatusPendingFinance,
	models.PlanStatusPendingFinance: models.PlanStatusPendingBoard,
	models.PlanStatusPendingBoard:   models.PlanStatusApproved,
}

// advanceRoles is the authorization table for forward transitions:
// status → roles allowed to advance a plan out of it. The admin bypass is an
// explicit override flag checked by the policy, not a row in this table.
var advanceRoles = map[string]map[string]bool{
	models.PlanStatusDraft:          {RoleSales: true, RoleUnitLead: true},
	models.PlanStatusPendingUnit:    {RoleUnitLead: true},
	models.PlanStatusPendingFinance: {RoleAccountant: true},
	models.PlanStatusPendingBoard:   {RoleBoard: true},
}

// Policy evaluates transitions against the authorization table.
type Policy struct {
	cfg Config
}

func New(cfg Config) *Policy {
	if cfg.AutoSkipMargin.Sign() <= 0 {
		cfg.AutoSkipMargin = DefaultAutoSkipMargin
	}
	return &Policy{cfg: cfg}
}

// NextStatus returns the status a plan advances to when role acts on
// current, and whether the transition is the board auto-skip. adminOverride
// lets an admin advance exactly one stage regardless of role gating; it does
// not unlock any extra skipping beyond the same auto-skip rule.
func (p *Policy) NextStatus(current, role string, totals finance.Totals, adminOverride bool) (string, bool, error) {
	if models.PlanTerminal(current) {
		return current, false, ErrPlanClosed
	}
	next, ok := stageOrder[current]
	if !ok {
		return current, false, ErrInvalidTransition
	}
	if !p.authorized(current, role, adminOverride) {
		return current, false, ErrInvalidTransition
	}
	if current == models.PlanStatusPendingFinance && p.autoSkip(totals) {
		return models.PlanStatusApproved, true, nil
	}
	return next, false, nil
}

// CanReject reports whether role may reject a plan in current status.
// Rejection is allowed from any pending stage by the same role that gates
// that stage, and is always terminal.
func (p *Policy) CanReject(current, role string, adminOverride bool) error {
	if models.PlanTerminal(current) {
		return ErrPlanClosed
	}
	if current == models.PlanStatusDraft {
		return ErrInvalidTransition
	}
	if !p.authorized(current, role, adminOverride) {
		return ErrInvalidTransition
	}
	return nil
}

func (p *Policy) authorized(current, role string, adminOverride bool) bool {
	if adminOverride && role == RoleAdmin {
		return true
	}
	return advanceRoles[current][role]
}

// autoSkip holds when the frozen margin clears the threshold and no
// execution cost requires an external expert. A zero signing value yields a
// zero margin upstream and is therefore never eligible.
func (p *Policy) autoSkip(totals finance.Totals) bool {
	if !p.cfg.AutoSkipEnabled {
		return false
	}
	if totals.HasExpertCost {
		return false
	}
	return totals.ProfitMargin.Cmp(p.cfg.AutoSkipMargin) >= 0
}
