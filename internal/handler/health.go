package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/pkg/response"
)

// Health runs every registered check and answers 503 when any fails.
func (h *Handler) Health(c *gin.Context) {
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.Checks[name](c.Request.Context()); err != nil {
			h.Logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Data:    status,
			Error:   &response.ErrorInfo{Code: "UNAVAILABLE", Message: "dependency unavailable"},
		})
		return
	}
	response.OK(c, status)
}
