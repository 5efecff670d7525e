package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cicerp/internal/approval"
	"cicerp/internal/auth"
	"cicerp/internal/repository"
	"cicerp/internal/service"
)

type SystemSettingsHandler struct {
	Repo     repository.Repository
	Settings *service.SystemSettingsService
}

func (h *SystemSettingsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/system-settings")
	group.GET("", h.list)
	group.GET("/:key", h.get)
	group.PUT("/:key", h.put)
}

func (h *SystemSettingsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListSystemSettings(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *SystemSettingsHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	item, err := h.Repo.GetSystemSettingByKey(c.Request.Context(), key)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "setting not found", nil)
		return
	}
	Ok(c, item, nil)
}

type putSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// put writes a setting. Restricted to admins; feature switches take effect
// on the next cron tick without a restart.
func (h *SystemSettingsHandler) put(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	if claims.Role != approval.RoleAdmin {
		Error(c, http.StatusForbidden, "admin role required", nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if err := h.Settings.Set(c.Request.Context(), key, req.Value, req.Description); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	item, err := h.Repo.GetSystemSettingByKey(c.Request.Context(), key)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
