package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cicerp/internal/approval"
	"cicerp/internal/finance"
	"cicerp/internal/models"
	"cicerp/internal/repository"
)

// stubStore is a test-only in-memory implementation of the three store
// interfaces the engine depends on.
type stubStore struct {
	contracts map[uint64]*models.Contract
	items     map[uint64][]models.LineItem
	costs     map[uint64][]models.ExecutionCost
	plans     map[uint64]*models.BusinessPlan
	logs      []models.ReviewLog

	nextPlanID uint64
	failAppend bool
}

func newStubStore() *stubStore {
	return &stubStore{
		contracts:  map[uint64]*models.Contract{},
		items:      map[uint64][]models.LineItem{},
		costs:      map[uint64][]models.ExecutionCost{},
		plans:      map[uint64]*models.BusinessPlan{},
		nextPlanID: 1,
	}
}

func (s *stubStore) GetContractByID(ctx context.Context, id uint64) (*models.Contract, error) {
	return s.contracts[id], nil
}
func (s *stubStore) ListLineItemsByContractID(ctx context.Context, contractID uint64) ([]models.LineItem, error) {
	return s.items[contractID], nil
}
func (s *stubStore) ListExecutionCostsByContractID(ctx context.Context, contractID uint64) ([]models.ExecutionCost, error) {
	return s.costs[contractID], nil
}
func (s *stubStore) GetBusinessPlanByID(ctx context.Context, id uint64) (*models.BusinessPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (s *stubStore) GetOpenBusinessPlanByContractID(ctx context.Context, contractID uint64) (*models.BusinessPlan, error) {
	for _, p := range s.plans {
		if p.ContractID == contractID && !models.PlanTerminal(p.Status) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *stubStore) InsertBusinessPlan(ctx context.Context, item *models.BusinessPlan) error {
	item.ID = s.nextPlanID
	s.nextPlanID++
	cp := *item
	s.plans[item.ID] = &cp
	return nil
}
func (s *stubStore) SaveBusinessPlan(ctx context.Context, item *models.BusinessPlan) error {
	cp := *item
	s.plans[item.ID] = &cp
	return nil
}
func (s *stubStore) ListBusinessPlans(ctx context.Context, params repository.ListBusinessPlansParams) ([]models.BusinessPlan, error) {
	return nil, nil
}
func (s *stubStore) CountBusinessPlans(ctx context.Context, params repository.ListBusinessPlansParams) (int64, error) {
	return 0, nil
}
func (s *stubStore) AppendReviewLog(ctx context.Context, item *models.ReviewLog) error {
	if s.failAppend {
		return errors.New("store unavailable")
	}
	item.ID = uint64(len(s.logs) + 1)
	s.logs = append(s.logs, *item)
	return nil
}
func (s *stubStore) ListReviewLogsByPlanID(ctx context.Context, planID uint64) ([]models.ReviewLog, error) {
	var out []models.ReviewLog
	for _, l := range s.logs {
		if l.PlanID == planID {
			out = append(out, l)
		}
	}
	return out, nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// seedContract installs a contract whose live totals yield the given margin
// shape: margin 35% without expert cost.
func seedContract(s *stubStore, id uint64, withExpert bool) {
	s.contracts[id] = &models.Contract{ID: id, Code: "HD-001", CustomerID: 1, SupplierDiscountPercent: d(5)}
	s.items[id] = []models.LineItem{
		{ContractID: id, Quantity: d(1), InputPrice: d(20_000_000), OutputPrice: d(30_000_000)},
	}
	costs := []models.ExecutionCost{
		{ContractID: id, Name: "Chi phí triển khai", Amount: d(300_000)},
	}
	if withExpert {
		costs = append(costs, models.ExecutionCost{
			ContractID: id, Name: "Phí thuê chuyên gia", Amount: d(2_000_000), RequiresExpert: true,
		})
	}
	s.costs[id] = costs
}

func newTestEngine(s *stubStore) *Engine {
	return NewEngine(s, s, s, approval.New(approval.DefaultConfig()), nil)
}

func submitPlan(t *testing.T, e *Engine, s *stubStore, contractID uint64) *models.BusinessPlan {
	t.Helper()
	plan, err := e.CreateDraft(context.Background(), contractID, "sales-01")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	plan, err = e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "sales-01", Role: approval.RoleSales, Action: models.ReviewActionSubmit,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return plan
}

func TestTransition_AutoSkipAtFinance(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	plan, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("unit approve: %v", err)
	}
	if plan.Status != models.PlanStatusPendingFinance {
		t.Fatalf("status=%s want pending_finance", plan.Status)
	}

	plan, err = e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "acct-01", Role: approval.RoleAccountant, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("finance approve: %v", err)
	}
	if plan.Status != models.PlanStatusApproved || !plan.AutoApproved {
		t.Fatalf("status=%s auto=%v want approved/true", plan.Status, plan.AutoApproved)
	}
	if plan.ApprovedBy != "acct-01" || plan.ApprovedAt == nil {
		t.Fatalf("approval attribution missing: by=%q at=%v", plan.ApprovedBy, plan.ApprovedAt)
	}

	logs, _ := s.ListReviewLogsByPlanID(context.Background(), plan.ID)
	if len(logs) != 3 {
		t.Fatalf("logs=%d want 3", len(logs))
	}
	last := logs[len(logs)-1]
	if last.Role != approval.RoleAccountant || !last.AutoApproved {
		t.Fatalf("auto-skip log role=%s auto=%v want accountant/true", last.Role, last.AutoApproved)
	}
	if !strings.Contains(last.Comment, "auto-approved") {
		t.Fatalf("auto-skip comment not annotated: %q", last.Comment)
	}
}

func TestTransition_ExpertCostForcesBoard(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, true)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	plan, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("unit approve: %v", err)
	}
	plan, err = e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "acct-01", Role: approval.RoleAccountant, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("finance approve: %v", err)
	}
	if plan.Status != models.PlanStatusPendingBoard || plan.AutoApproved {
		t.Fatalf("status=%s auto=%v want pending_board/false", plan.Status, plan.AutoApproved)
	}

	plan, err = e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "board-01", Role: approval.RoleBoard, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("board approve: %v", err)
	}
	if plan.Status != models.PlanStatusApproved || plan.AutoApproved {
		t.Fatalf("status=%s auto=%v want approved/false", plan.Status, plan.AutoApproved)
	}
}

func TestTransition_SnapshotFrozenAtSubmit(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	// Tank the margin after submission; the frozen snapshot must still
	// drive the finance decision.
	s.costs[7] = append(s.costs[7], models.ExecutionCost{
		ContractID: 7, Name: "Chi phí phát sinh", Amount: d(15_000_000),
	})

	plan, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("unit approve: %v", err)
	}
	plan, err = e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "acct-01", Role: approval.RoleAccountant, Action: models.ReviewActionApprove,
	})
	if err != nil {
		t.Fatalf("finance approve: %v", err)
	}
	if plan.Status != models.PlanStatusApproved || !plan.AutoApproved {
		t.Fatalf("frozen snapshot ignored: status=%s auto=%v", plan.Status, plan.AutoApproved)
	}

	var frozen finance.Totals
	if err := json.Unmarshal(plan.Totals, &frozen); err != nil {
		t.Fatalf("snapshot unreadable: %v", err)
	}
	if frozen.ProfitMargin.StringFixed(2) != "35.67" {
		t.Fatalf("frozen margin=%s want 35.67", frozen.ProfitMargin.StringFixed(2))
	}
}

func TestTransition_RejectRequiresReason(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	_, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead, Action: models.ReviewActionReject,
	})
	if !errors.Is(err, ErrMissingRejectionReason) {
		t.Fatalf("err=%v want ErrMissingRejectionReason", err)
	}
	stored, _ := s.GetBusinessPlanByID(context.Background(), plan.ID)
	if stored.Status != models.PlanStatusPendingUnit {
		t.Fatalf("status mutated on failed reject: %s", stored.Status)
	}

	rejected, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead,
		Action: models.ReviewActionReject, Comment: "đơn giá đầu vào chưa có báo giá",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.PlanStatusRejected || rejected.RejectedReason == "" {
		t.Fatalf("status=%s reason=%q", rejected.Status, rejected.RejectedReason)
	}
}

func TestTransition_UnauthorizedRoleLeavesStatusUntouched(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	_, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "sales-01", Role: approval.RoleSales, Action: models.ReviewActionApprove,
	})
	if !errors.Is(err, approval.ErrInvalidTransition) {
		t.Fatalf("err=%v want ErrInvalidTransition", err)
	}
	stored, _ := s.GetBusinessPlanByID(context.Background(), plan.ID)
	if stored.Status != models.PlanStatusPendingUnit {
		t.Fatalf("status=%s want pending_unit", stored.Status)
	}
	logs, _ := s.ListReviewLogsByPlanID(context.Background(), plan.ID)
	if len(logs) != 1 {
		t.Fatalf("failed transition appended a log entry: %d", len(logs))
	}
}

func TestTransition_TerminalPlanNoLog(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	rejected, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead,
		Action: models.ReviewActionReject, Comment: "không đạt",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	before, _ := s.ListReviewLogsByPlanID(context.Background(), rejected.ID)

	_, err = e.Transition(context.Background(), TransitionRequest{
		PlanID: rejected.ID, ActorID: "admin-01", Role: approval.RoleAdmin,
		Action: models.ReviewActionApprove, AdminOverride: true,
	})
	if !errors.Is(err, approval.ErrPlanClosed) {
		t.Fatalf("err=%v want ErrPlanClosed", err)
	}
	after, _ := s.ListReviewLogsByPlanID(context.Background(), rejected.ID)
	if len(after) != len(before) {
		t.Fatalf("terminal transition appended a log entry")
	}
}

func TestTransition_LogAppendFailureKeepsStatus(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	s.failAppend = true
	got, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "lead-01", Role: approval.RoleUnitLead, Action: models.ReviewActionApprove,
	})
	if !errors.Is(err, ErrLogAppendFailed) {
		t.Fatalf("err=%v want ErrLogAppendFailed", err)
	}
	if got == nil || got.Status != models.PlanStatusPendingFinance {
		t.Fatalf("plan=%v want committed pending_finance", got)
	}
	stored, _ := s.GetBusinessPlanByID(context.Background(), plan.ID)
	if stored.Status != models.PlanStatusPendingFinance {
		t.Fatalf("status rolled back: %s", stored.Status)
	}
}

func TestCreateDraft_OpenPlanGuard(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)

	if _, err := e.CreateDraft(context.Background(), 7, "sales-01"); err != nil {
		t.Fatalf("first draft: %v", err)
	}
	if _, err := e.CreateDraft(context.Background(), 7, "sales-01"); !errors.Is(err, ErrOpenPlanExists) {
		t.Fatalf("err=%v want ErrOpenPlanExists", err)
	}
	if _, err := e.CreateDraft(context.Background(), 99, "sales-01"); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("err=%v want ErrContractNotFound", err)
	}
}

func TestTransition_PlanNotFound(t *testing.T) {
	s := newStubStore()
	e := newTestEngine(s)
	_, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: 42, ActorID: "x", Role: approval.RoleAdmin, Action: models.ReviewActionApprove, AdminOverride: true,
	})
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("err=%v want ErrPlanNotFound", err)
	}
}

func TestTransition_ResubmitPendingPlanRejected(t *testing.T) {
	s := newStubStore()
	seedContract(s, 7, false)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 7)

	_, err := e.Transition(context.Background(), TransitionRequest{
		PlanID: plan.ID, ActorID: "sales-01", Role: approval.RoleSales, Action: models.ReviewActionSubmit,
	})
	if !errors.Is(err, approval.ErrInvalidTransition) {
		t.Fatalf("err=%v want ErrInvalidTransition", err)
	}
}

func TestReviewLogs_FullTrailInOrder(t *testing.T) {
	s := newStubStore()
	seedContract(s, 8, true)
	e := newTestEngine(s)
	plan := submitPlan(t, e, s, 8)

	steps := []struct {
		actor string
		role  string
	}{
		{"unit-01", approval.RoleUnitLead},
		{"acct-01", approval.RoleAccountant},
		{"board-01", approval.RoleBoard},
	}
	for _, step := range steps {
		var err error
		plan, err = e.Transition(context.Background(), TransitionRequest{
			PlanID: plan.ID, ActorID: step.actor, Role: step.role, Action: models.ReviewActionApprove,
		})
		if err != nil {
			t.Fatalf("approve as %s: %v", step.role, err)
		}
	}
	if plan.Status != models.PlanStatusApproved {
		t.Fatalf("status=%s want approved", plan.Status)
	}

	logs, err := s.ListReviewLogsByPlanID(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	want := []struct {
		action string
		from   string
		to     string
	}{
		{models.ReviewActionSubmit, models.PlanStatusDraft, models.PlanStatusPendingUnit},
		{models.ReviewActionApprove, models.PlanStatusPendingUnit, models.PlanStatusPendingFinance},
		{models.ReviewActionApprove, models.PlanStatusPendingFinance, models.PlanStatusPendingBoard},
		{models.ReviewActionApprove, models.PlanStatusPendingBoard, models.PlanStatusApproved},
	}
	if len(logs) != len(want) {
		t.Fatalf("logs=%d want %d", len(logs), len(want))
	}
	for i, w := range want {
		got := logs[i]
		if got.Action != w.action || got.FromStatus != w.from || got.ToStatus != w.to {
			t.Fatalf("log[%d] = %s %s->%s, want %s %s->%s", i, got.Action, got.FromStatus, got.ToStatus, w.action, w.from, w.to)
		}
	}
}
