package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

type CompanyHandler struct {
	svc *services.CompanyService
}

func NewCompanyHandler(svc *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// GET /api/companies
func (h *CompanyHandler) List(c *gin.Context) {
	err := h.svc.Load(requestContext(c))
	respondView(c, err, h.svc.View().Snapshot(), h.svc.Companies())
}

// POST /api/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req upstream.CreateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Create(requestContext(c), req)
	respondAction(c, err, h.svc.View().Snapshot())
}
