package server

import (
	"net/http"
	"net/url"

	"github.com/emrgen/travelexpense/internal/module"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/gin-gonic/gin"
)

type RegulationHandler struct {
	regulations *service.RegulationService
}

func NewRegulationHandler(regulations *service.RegulationService) *RegulationHandler {
	return &RegulationHandler{regulations: regulations}
}

func bindRegulation(c *gin.Context) (service.RegulationInput, bool) {
	var input service.RegulationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return input, false
	}
	return input, true
}

// Create saves the first revision of a company (201) or returns a revision
// proposal to confirm (202).
func (h *RegulationHandler) Create(c *gin.Context) {
	input, ok := bindRegulation(c)
	if !ok {
		return
	}

	result, err := h.regulations.Create(c.Request.Context(), module.GetUserID(c), input)
	if err != nil {
		Error(c, err)
		return
	}

	if result.Proposal != nil {
		Accepted(c, result.Proposal.Message, result)
		return
	}
	Created(c, result)
}

func (h *RegulationHandler) Propose(c *gin.Context) {
	input, ok := bindRegulation(c)
	if !ok {
		return
	}

	proposal, err := h.regulations.ProposeRevision(c.Request.Context(), module.GetUserID(c), input)
	if err != nil {
		Error(c, err)
		return
	}

	Accepted(c, proposal.Message, proposal)
}

func (h *RegulationHandler) Confirm(c *gin.Context) {
	regulation, err := h.regulations.ConfirmRevision(c.Request.Context(), module.GetUserID(c), c.Param("token"))
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, regulation)
}

func (h *RegulationHandler) Preview(c *gin.Context) {
	input, ok := bindRegulation(c)
	if !ok {
		return
	}

	text, err := h.regulations.Preview(input)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{"text": text})
}

func (h *RegulationHandler) List(c *gin.Context) {
	list := h.regulations.List
	if c.Query("latest") == "true" {
		list = h.regulations.ListLatest
	}

	regulations, err := list(c.Request.Context(), module.GetUserID(c), c.Query("search"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, regulations)
}

func (h *RegulationHandler) ListByCompany(c *gin.Context) {
	groups, err := h.regulations.ListByCompany(c.Request.Context(), module.GetUserID(c), c.Query("search"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, groups)
}

func (h *RegulationHandler) Get(c *gin.Context) {
	regulation, err := h.regulations.Get(c.Request.Context(), module.GetUserID(c), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, regulation)
}

func (h *RegulationHandler) Update(c *gin.Context) {
	input, ok := bindRegulation(c)
	if !ok {
		return
	}

	regulation, err := h.regulations.Update(c.Request.Context(), module.GetUserID(c), c.Param("id"), input)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, regulation)
}

func (h *RegulationHandler) Delete(c *gin.Context) {
	if err := h.regulations.Delete(c.Request.Context(), module.GetUserID(c), c.Param("id")); err != nil {
		Error(c, err)
		return
	}

	Success(c, nil)
}

func (h *RegulationHandler) History(c *gin.Context) {
	history, err := h.regulations.History(c.Request.Context(), module.GetUserID(c), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, history)
}

func (h *RegulationHandler) Snapshots(c *gin.Context) {
	snapshots, err := h.regulations.Snapshots(c.Request.Context(), module.GetUserID(c), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, snapshots)
}

func (h *RegulationHandler) Text(c *gin.Context) {
	text, err := h.regulations.Render(c.Request.Context(), module.GetUserID(c), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{"text": text})
}

func (h *RegulationHandler) Export(c *gin.Context) {
	file, err := h.regulations.Export(c.Request.Context(), module.GetUserID(c), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(file.FileName))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(file.Content))
}
