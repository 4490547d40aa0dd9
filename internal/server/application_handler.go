package server

import (
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/module"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applications *service.ApplicationService
}

func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

type statusRequest struct {
	Status model.ApplicationStatus `json:"status"`
}

func (h *ApplicationHandler) ListExpenses(c *gin.Context) {
	apps, err := h.applications.ListExpenses(c.Request.Context(), module.GetUserID(c))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, apps)
}

func (h *ApplicationHandler) CreateExpense(c *gin.Context) {
	var input service.ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	app, err := h.applications.CreateExpense(c.Request.Context(), module.GetUserID(c), input)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, app)
}

func (h *ApplicationHandler) ListBusinessTrips(c *gin.Context) {
	apps, err := h.applications.ListBusinessTrips(c.Request.Context(), module.GetUserID(c))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, apps)
}

func (h *ApplicationHandler) CreateBusinessTrip(c *gin.Context) {
	var input service.BusinessTripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	app, err := h.applications.CreateBusinessTrip(c.Request.Context(), module.GetUserID(c), input)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, app)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	kind := model.ApplicationKind(c.Param("kind"))
	if err := h.applications.UpdateStatus(c.Request.Context(), module.GetUserID(c), kind, c.Param("id"), req.Status); err != nil {
		Error(c, err)
		return
	}

	Success(c, nil)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	kind := model.ApplicationKind(c.Param("kind"))
	if err := h.applications.Delete(c.Request.Context(), module.GetUserID(c), kind, c.Param("id")); err != nil {
		Error(c, err)
		return
	}

	Success(c, nil)
}
