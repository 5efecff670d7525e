// Package workflow orchestrates business plan transitions: it validates a
// requested action against the approval policy, persists the stage change,
// and appends one immutable review-log entry per transition.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"cicerp/internal/approval"
	"cicerp/internal/finance"
	"cicerp/internal/models"
	"cicerp/internal/repository"
)

var (
	ErrPlanNotFound           = errors.New("workflow: plan not found")
	ErrContractNotFound       = errors.New("workflow: contract not found")
	ErrOpenPlanExists         = errors.New("workflow: contract already has an open plan")
	ErrMissingRejectionReason = errors.New("workflow: rejection requires a reason")
	// ErrLogAppendFailed is returned together with the updated plan when the
	// audit append fails after the status write committed. The status change
	// is not rolled back; audit completeness is best-effort.
	ErrLogAppendFailed = errors.New("workflow: review log append failed")
)

const autoApproveComment = "auto-approved: margin threshold met, no expert-hire cost (system)"

// TransitionRequest is one requested action on a plan. Actor identity and
// role come from the caller; no auth logic lives here.
type TransitionRequest struct {
	PlanID        uint64
	ActorID       string
	Role          string
	Action        string
	Comment       string
	AdminOverride bool
	RequestID     string
}

type Engine struct {
	Contracts repository.ContractStore
	Plans     repository.PlanStore
	Logs      repository.ReviewLogStore
	Policy    *approval.Policy
	Logger    *zap.Logger

	// VATRate feeds the totals computation; zero falls back to the engine
	// default.
	VATRate decimal.Decimal

	locks *planLocks
}

func NewEngine(contracts repository.ContractStore, plans repository.PlanStore, logs repository.ReviewLogStore, policy *approval.Policy, logger *zap.Logger) *Engine {
	return &Engine{
		Contracts: contracts,
		Plans:     plans,
		Logs:      logs,
		Policy:    policy,
		Logger:    logger,
		locks:     newPlanLocks(),
	}
}

// CreateDraft opens a new draft plan for a contract. A contract carries at
// most one open plan; a rejected plan is resubmitted only through a fresh
// draft.
func (e *Engine) CreateDraft(ctx context.Context, contractID uint64, actorID string) (*models.BusinessPlan, error) {
	contract, err := e.Contracts.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}
	open, err := e.Plans.GetOpenBusinessPlanByContractID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrOpenPlanExists
	}
	plan := &models.BusinessPlan{
		ContractID:  contractID,
		Status:      models.PlanStatusDraft,
		SubmittedBy: actorID,
	}
	if err := e.Plans.InsertBusinessPlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Transition runs the load → decide → persist → log sequence for one plan.
// Transitions on the same plan are serialized; distinct plans proceed
// concurrently. On ErrLogAppendFailed the returned plan is valid and its
// status change has been committed.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (*models.BusinessPlan, error) {
	unlock := e.locks.lock(req.PlanID)
	defer unlock()

	plan, err := e.Plans.GetBusinessPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if models.PlanTerminal(plan.Status) {
		return nil, approval.ErrPlanClosed
	}

	fromStatus := plan.Status
	now := time.Now().UTC()
	autoApproved := false

	switch req.Action {
	case models.ReviewActionSubmit, models.ReviewActionApprove:
		// Submit only opens a cycle; re-submitting a pending plan would
		// re-freeze the snapshot mid-review.
		if req.Action == models.ReviewActionSubmit && plan.Status != models.PlanStatusDraft {
			return nil, approval.ErrInvalidTransition
		}
		totals, err := e.planTotals(ctx, plan, req.Action == models.ReviewActionSubmit)
		if err != nil {
			return nil, err
		}
		next, auto, err := e.Policy.NextStatus(plan.Status, req.Role, totals, req.AdminOverride)
		if err != nil {
			return nil, err
		}
		autoApproved = auto
		plan.Status = next
		if req.Action == models.ReviewActionSubmit {
			plan.SubmittedBy = req.ActorID
			plan.SubmittedAt = &now
		}
		if next == models.PlanStatusApproved {
			plan.AutoApproved = auto
			plan.ApprovedBy = req.ActorID
			plan.ApprovedAt = &now
		}
	case models.ReviewActionReject:
		if strings.TrimSpace(req.Comment) == "" {
			return nil, ErrMissingRejectionReason
		}
		if err := e.Policy.CanReject(plan.Status, req.Role, req.AdminOverride); err != nil {
			return nil, err
		}
		plan.Status = models.PlanStatusRejected
		plan.RejectedReason = req.Comment
	default:
		return nil, fmt.Errorf("workflow: unknown action %q: %w", req.Action, approval.ErrInvalidTransition)
	}

	if err := e.Plans.SaveBusinessPlan(ctx, plan); err != nil {
		return nil, err
	}

	comment := req.Comment
	if autoApproved {
		comment = strings.TrimSpace(comment + " " + autoApproveComment)
	}
	entry := &models.ReviewLog{
		PlanID:       plan.ID,
		ContractID:   plan.ContractID,
		ReviewerID:   req.ActorID,
		Role:         req.Role,
		Action:       req.Action,
		FromStatus:   fromStatus,
		ToStatus:     plan.Status,
		Comment:      comment,
		AutoApproved: autoApproved,
		RequestID:    req.RequestID,
	}
	if err := e.Logs.AppendReviewLog(ctx, entry); err != nil {
		if e.Logger != nil {
			e.Logger.Warn("review log append failed after status commit",
				zap.Uint64("plan_id", plan.ID),
				zap.String("from", fromStatus),
				zap.String("to", plan.Status),
				zap.Error(err),
			)
		}
		return plan, fmt.Errorf("%w: %v", ErrLogAppendFailed, err)
	}
	return plan, nil
}

// Totals returns the current live computation for a contract; used by the
// contract surfaces, never by mid-cycle approvals (those read the frozen
// snapshot).
func (e *Engine) Totals(ctx context.Context, contractID uint64) (finance.Totals, error) {
	contract, err := e.Contracts.GetContractByID(ctx, contractID)
	if err != nil {
		return finance.Totals{}, err
	}
	if contract == nil {
		return finance.Totals{}, ErrContractNotFound
	}
	items, err := e.Contracts.ListLineItemsByContractID(ctx, contractID)
	if err != nil {
		return finance.Totals{}, err
	}
	costs, err := e.Contracts.ListExecutionCostsByContractID(ctx, contractID)
	if err != nil {
		return finance.Totals{}, err
	}
	return finance.ComputeTotals(items, costs, contract.SupplierDiscountPercent, e.VATRate), nil
}

// planTotals returns the totals a decision is based on. Submission computes
// fresh numbers and freezes them onto the plan; later approvals reuse the
// frozen snapshot so every reviewer in the cycle sees identical values.
func (e *Engine) planTotals(ctx context.Context, plan *models.BusinessPlan, recompute bool) (finance.Totals, error) {
	if !recompute && len(plan.Totals) > 0 {
		var totals finance.Totals
		if err := json.Unmarshal(plan.Totals, &totals); err == nil {
			return totals, nil
		}
		// Unreadable snapshot: fall through and recompute.
	}
	totals, err := e.Totals(ctx, plan.ContractID)
	if err != nil {
		return finance.Totals{}, err
	}
	raw, err := json.Marshal(totals)
	if err != nil {
		return finance.Totals{}, err
	}
	plan.Totals = datatypes.JSON(raw)
	return totals, nil
}
