package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cicerp/internal/auth"
	"cicerp/internal/models"
	"cicerp/internal/repository"
	"cicerp/internal/service"
)

// maxDraftPayloadBytes bounds what a client can park in the draft cache.
const maxDraftPayloadBytes = 1 << 20

type ContractHandler struct {
	Repo      repository.Repository
	Contracts *service.ContractService
	Drafts    *service.DraftCacheService
	Settings  *service.SystemSettingsService
}

func (h *ContractHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/contracts")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.PUT("/:id/line-items", h.replaceLineItems)
	group.GET("/:id/totals", h.totals)
	group.POST("/:id/execution-costs", h.upsertCost)
	group.PUT("/:id/execution-costs/:costID", h.updateCost)
	group.DELETE("/:id/execution-costs/:costID", h.deleteCost)
	group.PUT("/:id/draft", h.saveDraft)
	group.GET("/:id/draft", h.loadDraft)
	group.DELETE("/:id/draft", h.deleteDraft)
}

func serviceErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrContractNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrCostNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// @Summary List contracts
// @Tags contracts
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param status query string false "contract status"
// @Param customer_id query int false "filter by customer"
// @Param unit query string false "filter by business unit"
// @Param search query string false "match code or name"
// @Success 200 {object} apiResponse
// @Router /api/v1/contracts [get]
func (h *ContractHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListContractsParams{
		Limit:      limit,
		Offset:     offset,
		Status:     strQueryPtr(c, "status"),
		CustomerID: uintQueryPtr(c, "customer_id"),
		UnitName:   strQueryPtr(c, "unit"),
		Search:     strQueryPtr(c, "search"),
		OrderBy:    "created_at",
		Asc:        boolPtr(false),
	}
	items, err := h.Repo.ListContracts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountContracts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

type contractDetail struct {
	Contract       *models.Contract       `json:"contract"`
	LineItems      []models.LineItem      `json:"line_items"`
	ExecutionCosts []models.ExecutionCost `json:"execution_costs"`
}

func (h *ContractHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetContractByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "contract not found", nil)
		return
	}
	items, err := h.Repo.ListLineItemsByContractID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	costs, err := h.Repo.ListExecutionCostsByContractID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, contractDetail{Contract: item, LineItems: items, ExecutionCosts: costs}, nil)
}

type contractRequest struct {
	Code                    string           `json:"code"`
	Name                    string           `json:"name"`
	CustomerID              uint64           `json:"customer_id"`
	UnitName                string           `json:"unit_name"`
	Status                  string           `json:"status"`
	SignedAt                *time.Time       `json:"signed_at"`
	SupplierDiscountPercent *decimal.Decimal `json:"supplier_discount_percent"`
	Notes                   string           `json:"notes"`
}

func (h *ContractHandler) create(c *gin.Context) {
	if h.Contracts == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	item := &models.Contract{
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		CustomerID:   req.CustomerID,
		SalesOwnerID: claims.ActorID,
		UnitName:     req.UnitName,
		Status:       models.ContractStatusDraft,
		SignedAt:     req.SignedAt,
		Notes:        req.Notes,
	}
	if req.SupplierDiscountPercent != nil {
		item.SupplierDiscountPercent = *req.SupplierDiscountPercent
	}
	if err := h.Contracts.Create(c.Request.Context(), item); err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *ContractHandler) update(c *gin.Context) {
	if h.Repo == nil || h.Contracts == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetContractByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "contract not found", nil)
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if v := strings.TrimSpace(req.Code); v != "" {
		item.Code = v
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		item.Name = v
	}
	if req.CustomerID != 0 {
		item.CustomerID = req.CustomerID
	}
	if req.UnitName != "" {
		item.UnitName = req.UnitName
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if req.SignedAt != nil {
		item.SignedAt = req.SignedAt
	}
	if req.SupplierDiscountPercent != nil {
		item.SupplierDiscountPercent = *req.SupplierDiscountPercent
	}
	item.Notes = req.Notes
	if err := h.Contracts.Update(c.Request.Context(), item); err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

type lineItemRequest struct {
	ProductID   *uint64         `json:"product_id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	InputPrice  decimal.Decimal `json:"input_price"`
	OutputPrice decimal.Decimal `json:"output_price"`
	DirectCost  decimal.Decimal `json:"direct_cost"`
}

// replaceLineItems swaps the full line-item set of a contract in one
// transaction. Percent-pegged execution costs are resynced afterwards.
func (h *ContractHandler) replaceLineItems(c *gin.Context) {
	if h.Contracts == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req struct {
		Items []lineItemRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	items := make([]models.LineItem, 0, len(req.Items))
	for i, in := range req.Items {
		if strings.TrimSpace(in.Name) == "" {
			Error(c, http.StatusBadRequest, "line item name required", nil)
			return
		}
		items = append(items, models.LineItem{
			ContractID:  id,
			ProductID:   in.ProductID,
			Name:        strings.TrimSpace(in.Name),
			Unit:        in.Unit,
			Quantity:    in.Quantity,
			InputPrice:  in.InputPrice,
			OutputPrice: in.OutputPrice,
			DirectCost:  in.DirectCost,
			Position:    i,
		})
	}
	if err := h.Contracts.ReplaceLineItems(c.Request.Context(), id, items); err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	saved, err := h.Repo.ListLineItemsByContractID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, saved, nil)
}

// @Summary Live financial totals for a contract
// @Tags contracts
// @Success 200 {object} apiResponse
// @Router /api/v1/contracts/{id}/totals [get]
func (h *ContractHandler) totals(c *gin.Context) {
	if h.Contracts == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	totals, err := h.Contracts.Totals(c.Request.Context(), id)
	if err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, totals, nil)
}

type executionCostRequest struct {
	Name           string           `json:"name"`
	Amount         *decimal.Decimal `json:"amount"`
	PercentOfInput *decimal.Decimal `json:"percent_of_input"`
	RequiresExpert *bool            `json:"requires_expert"`
	Position       int              `json:"position"`
}

func (h *ContractHandler) upsertCost(c *gin.Context) {
	h.writeCost(c, 0)
}

func (h *ContractHandler) updateCost(c *gin.Context) {
	costID, ok := uintParam(c, "costID")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid cost id", nil)
		return
	}
	h.writeCost(c, costID)
}

func (h *ContractHandler) writeCost(c *gin.Context, costID uint64) {
	if h.Contracts == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req executionCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	cost, err := h.Contracts.UpsertExecutionCost(c.Request.Context(), id, service.CostInput{
		ID:             costID,
		Name:           req.Name,
		Amount:         req.Amount,
		Percent:        req.PercentOfInput,
		RequiresExpert: req.RequiresExpert,
		Position:       req.Position,
	})
	if err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, cost, nil)
}

func (h *ContractHandler) deleteCost(c *gin.Context) {
	if h.Contracts == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	costID, ok := uintParam(c, "costID")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid cost id", nil)
		return
	}
	if err := h.Contracts.DeleteExecutionCost(c.Request.Context(), id, costID); err != nil {
		Error(c, serviceErrStatus(err), err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"deleted": costID}, nil)
}

func (h *ContractHandler) draftCacheEnabled(c *gin.Context) bool {
	if h.Settings == nil {
		return true
	}
	return h.Settings.IsEnabled(c.Request.Context(), service.FeatureDraftCache, true)
}

// saveDraft parks an in-progress edit payload in redis, keyed per actor, so
// an interrupted editing session can be resumed from another device.
func (h *ContractHandler) saveDraft(c *gin.Context) {
	if h.Drafts == nil {
		Error(c, http.StatusInternalServerError, "draft cache unavailable", nil)
		return
	}
	if !h.draftCacheEnabled(c) {
		Error(c, http.StatusServiceUnavailable, "draft cache disabled", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftPayloadBytes+1))
	if err != nil {
		Error(c, http.StatusBadRequest, "unreadable payload", nil)
		return
	}
	if len(payload) == 0 || len(payload) > maxDraftPayloadBytes {
		Error(c, http.StatusBadRequest, "payload empty or too large", nil)
		return
	}
	if err := h.Drafts.Save(c.Request.Context(), id, claims.ActorID, payload); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"contract_id": id, "bytes": len(payload)}, nil)
}

func (h *ContractHandler) loadDraft(c *gin.Context) {
	if h.Drafts == nil {
		Error(c, http.StatusInternalServerError, "draft cache unavailable", nil)
		return
	}
	if !h.draftCacheEnabled(c) {
		Error(c, http.StatusServiceUnavailable, "draft cache disabled", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	payload, found, err := h.Drafts.Load(c.Request.Context(), id, claims.ActorID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if !found {
		Error(c, http.StatusNotFound, "no draft saved", nil)
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

func (h *ContractHandler) deleteDraft(c *gin.Context) {
	if h.Drafts == nil {
		Error(c, http.StatusInternalServerError, "draft cache unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	if err := h.Drafts.Delete(c.Request.Context(), id, claims.ActorID); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"contract_id": id}, nil)
}
