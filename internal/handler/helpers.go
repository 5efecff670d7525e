package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryDefault(c *gin.Context, key string, def bool) bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func uintQueryPtr(c *gin.Context, key string) *uint64 {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			return &i
		}
	}
	return nil
}

func uintParam(c *gin.Context, key string) (uint64, bool) {
	val := strings.TrimSpace(c.Param(key))
	if val == "" {
		return 0, false
	}
	i, err := strconv.ParseUint(val, 10, 64)
	if err != nil || i == 0 {
		return 0, false
	}
	return i, true
}

func decimalPtr(raw string) *decimal.Decimal {
	if val := strings.TrimSpace(raw); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return &d
		}
	}
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}
