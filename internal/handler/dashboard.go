package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cicerp/internal/repository"
	"cicerp/internal/service"
)

type DashboardHandler struct {
	Repo      repository.Repository
	Dashboard *service.DashboardService
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/dashboard")
	group.GET("/summary", h.summary)
	group.GET("/kpi-snapshots", h.snapshots)
}

// @Summary Dashboard KPI summary
// @Tags dashboard
// @Param refresh query bool false "bypass the cache"
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) summary(c *gin.Context) {
	if h.Dashboard == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	refresh := boolQueryDefault(c, "refresh", false)
	summary, err := h.Dashboard.Summary(c.Request.Context(), refresh)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}

// @Summary Daily KPI snapshots, newest first
// @Tags dashboard
// @Param limit query int false "number of days"
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/kpi-snapshots [get]
func (h *DashboardHandler) snapshots(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 30)
	items, err := h.Repo.ListKPISnapshots(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
