package server

import (
	"github.com/emrgen/travelexpense/internal/module"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	data, err := h.dashboard.GetUserData(c.Request.Context(), module.GetUserID(c))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, data)
}
