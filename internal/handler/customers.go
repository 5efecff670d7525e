package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cicerp/internal/models"
	"cicerp/internal/repository"
)

type CustomerHandler struct {
	Repo repository.Repository
}

func (h *CustomerHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/customers")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
}

// @Summary List customers
// @Tags customers
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param search query string false "match code or name"
// @Success 200 {object} apiResponse
// @Router /api/v1/customers [get]
func (h *CustomerHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListCustomersParams{
		Limit:   limit,
		Offset:  offset,
		Search:  strQueryPtr(c, "search"),
		OrderBy: "name",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListCustomers(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountCustomers(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *CustomerHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetCustomerByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "customer not found", nil)
		return
	}
	Ok(c, item, nil)
}

type customerRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	TaxCode      string `json:"tax_code"`
	Address      string `json:"address"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	Notes        string `json:"notes"`
}

func (h *CustomerHandler) create(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		Error(c, http.StatusBadRequest, "code and name required", nil)
		return
	}
	item := &models.Customer{
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		TaxCode:      req.TaxCode,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Notes:        req.Notes,
	}
	if err := h.Repo.InsertCustomer(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *CustomerHandler) update(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetCustomerByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "customer not found", nil)
		return
	}
	var req customerRequest
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
	item.TaxCode = req.TaxCode
	item.Address = req.Address
	item.ContactName = req.ContactName
	item.ContactPhone = req.ContactPhone
	item.ContactEmail = req.ContactEmail
	item.Notes = req.Notes
	if err := h.Repo.SaveCustomer(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
