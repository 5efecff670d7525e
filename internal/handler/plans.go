package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cicerp/internal/approval"
	"cicerp/internal/auth"
	"cicerp/internal/models"
	"cicerp/internal/repository"
	"cicerp/internal/workflow"
)

type PlanHandler struct {
	Repo   repository.Repository
	Engine *workflow.Engine
}

func (h *PlanHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/plans")
	group.GET("", h.list)
	group.POST("", h.createDraft)
	group.GET("/:id", h.get)
	group.GET("/:id/logs", h.logs)
	group.POST("/:id/submit", h.submit)
	group.POST("/:id/approve", h.approve)
	group.POST("/:id/reject", h.reject)
}

func workflowErrStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrPlanNotFound),
		errors.Is(err, workflow.ErrContractNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrOpenPlanExists),
		errors.Is(err, approval.ErrInvalidTransition),
		errors.Is(err, approval.ErrPlanClosed):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrMissingRejectionReason):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// @Summary List business plans
// @Tags plans
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param status query string false "plan status"
// @Param contract_id query int false "filter by contract"
// @Success 200 {object} apiResponse
// @Router /api/v1/plans [get]
func (h *PlanHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListBusinessPlansParams{
		Limit:      limit,
		Offset:     offset,
		Status:     strQueryPtr(c, "status"),
		ContractID: uintQueryPtr(c, "contract_id"),
		OrderBy:    "created_at",
		Asc:        boolPtr(false),
	}
	items, err := h.Repo.ListBusinessPlans(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountBusinessPlans(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *PlanHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetBusinessPlanByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "plan not found", nil)
		return
	}
	Ok(c, item, nil)
}

// logs returns the full audit trail of one plan, oldest first.
func (h *PlanHandler) logs(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetBusinessPlanByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "plan not found", nil)
		return
	}
	logs, err := h.Repo.ListReviewLogsByPlanID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, logs, nil)
}

type createPlanRequest struct {
	ContractID uint64 `json:"contract_id"`
}

// @Summary Open a draft plan for a contract
// @Tags plans
// @Success 200 {object} apiResponse
// @Router /api/v1/plans [post]
func (h *PlanHandler) createDraft(c *gin.Context) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "workflow unavailable", nil)
		return
	}
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ContractID == 0 {
		Error(c, http.StatusBadRequest, "contract_id required", nil)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	plan, err := h.Engine.CreateDraft(c.Request.Context(), req.ContractID, claims.ActorID)
	if err != nil {
		Error(c, workflowErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, plan, nil)
}

type transitionRequest struct {
	Comment       string `json:"comment"`
	AdminOverride bool   `json:"admin_override"`
}

func (h *PlanHandler) submit(c *gin.Context) {
	h.transition(c, models.ReviewActionSubmit)
}

func (h *PlanHandler) approve(c *gin.Context) {
	h.transition(c, models.ReviewActionApprove)
}

func (h *PlanHandler) reject(c *gin.Context) {
	h.transition(c, models.ReviewActionReject)
}

func (h *PlanHandler) transition(c *gin.Context, action string) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "workflow unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid payload", nil)
			return
		}
	}
	claims, found := auth.ClaimsFrom(c)
	if !found {
		Error(c, http.StatusUnauthorized, "identity required", nil)
		return
	}
	plan, err := h.Engine.Transition(c.Request.Context(), workflow.TransitionRequest{
		PlanID:        id,
		ActorID:       claims.ActorID,
		Role:          claims.Role,
		Action:        action,
		Comment:       req.Comment,
		AdminOverride: req.AdminOverride,
		RequestID:     auth.RequestIDFrom(c),
	})
	if err != nil {
		// The status change committed; only the audit append failed.
		if errors.Is(err, workflow.ErrLogAppendFailed) && plan != nil {
			OkWithWarning(c, plan, "review log entry was not recorded")
			return
		}
		Error(c, workflowErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, plan, nil)
}
