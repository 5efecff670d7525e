package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cicerp/internal/models"
	"cicerp/internal/repository"
	"cicerp/internal/service"
)

type PaymentHandler struct {
	Repo     repository.Repository
	Payments *service.PaymentService
}

func (h *PaymentHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/payments")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.POST("/:id/mark-paid", h.markPaid)
}

// @Summary List planned payments
// @Tags payments
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param status query string false "scheduled, paid or overdue"
// @Param contract_id query int false "filter by contract"
// @Success 200 {object} apiResponse
// @Router /api/v1/payments [get]
func (h *PaymentHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListPlannedPaymentsParams{
		Limit:      limit,
		Offset:     offset,
		Status:     strQueryPtr(c, "status"),
		ContractID: uintQueryPtr(c, "contract_id"),
		OrderBy:    "due_date",
		Asc:        boolPtr(true),
	}
	if v := strings.TrimSpace(c.Query("due_before")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			params.DueBefore = &ts
		}
	}
	items, err := h.Repo.ListPlannedPayments(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountPlannedPayments(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *PaymentHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetPlannedPaymentByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "payment not found", nil)
		return
	}
	Ok(c, item, nil)
}

type paymentRequest struct {
	ContractID uint64          `json:"contract_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
	Notes      string          `json:"notes"`
}

func (h *PaymentHandler) create(c *gin.Context) {
	if h.Payments == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if req.ContractID == 0 {
		Error(c, http.StatusBadRequest, "contract_id required", nil)
		return
	}
	item := &models.PlannedPayment{
		ContractID: req.ContractID,
		Name:       strings.TrimSpace(req.Name),
		Amount:     req.Amount,
		DueDate:    req.DueDate,
		Status:     models.PaymentStatusScheduled,
		Notes:      req.Notes,
	}
	if err := h.Payments.Create(c.Request.Context(), item); err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

type markPaidRequest struct {
	PaidAmount *decimal.Decimal `json:"paid_amount"`
	PaidAt     *time.Time       `json:"paid_at"`
}

// @Summary Mark a planned payment as paid
// @Tags payments
// @Success 200 {object} apiResponse
// @Router /api/v1/payments/{id}/mark-paid [post]
func (h *PaymentHandler) markPaid(c *gin.Context) {
	if h.Payments == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req markPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid payload", nil)
			return
		}
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	item, err := h.Payments.MarkPaid(c.Request.Context(), id, req.PaidAmount, paidAt)
	if err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
