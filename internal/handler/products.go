package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cicerp/internal/models"
	"cicerp/internal/repository"
)

type ProductHandler struct {
	Repo repository.Repository
}

func (h *ProductHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/products")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
}

// @Summary List products
// @Tags products
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param search query string false "match code or name"
// @Param active query bool false "filter by active flag"
// @Success 200 {object} apiResponse
// @Router /api/v1/products [get]
func (h *ProductHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListProductsParams{
		Limit:   limit,
		Offset:  offset,
		Search:  strQueryPtr(c, "search"),
		Active:  boolQueryPtr(c, "active"),
		OrderBy: "name",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListProducts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountProducts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *ProductHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "product not found", nil)
		return
	}
	Ok(c, item, nil)
}

type productRequest struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	Unit               string           `json:"unit"`
	DefaultInputPrice  *decimal.Decimal `json:"default_input_price"`
	DefaultOutputPrice *decimal.Decimal `json:"default_output_price"`
	Active             *bool            `json:"active"`
}

func (h *ProductHandler) create(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		Error(c, http.StatusBadRequest, "code and name required", nil)
		return
	}
	item := &models.Product{
		Code:   strings.TrimSpace(req.Code),
		Name:   strings.TrimSpace(req.Name),
		Unit:   req.Unit,
		Active: true,
	}
	if req.DefaultInputPrice != nil {
		item.DefaultInputPrice = *req.DefaultInputPrice
	}
	if req.DefaultOutputPrice != nil {
		item.DefaultOutputPrice = *req.DefaultOutputPrice
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := h.Repo.InsertProduct(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *ProductHandler) update(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "product not found", nil)
		return
	}
	var req productRequest
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
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	if req.DefaultInputPrice != nil {
		item.DefaultInputPrice = *req.DefaultInputPrice
	}
	if req.DefaultOutputPrice != nil {
		item.DefaultOutputPrice = *req.DefaultOutputPrice
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := h.Repo.SaveProduct(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
