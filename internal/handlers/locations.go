package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

type LocationHandler struct {
	svc       *services.LocationService
	companies *services.CompanyService
}

func NewLocationHandler(svc *services.LocationService, companies *services.CompanyService) *LocationHandler {
	return &LocationHandler{svc: svc, companies: companies}
}

// GET /api/locations
func (h *LocationHandler) List(c *gin.Context) {
	err := h.svc.Load(requestContext(c))
	respondView(c, err, h.svc.View().Snapshot(), h.svc.Rows(h.companies.Companies()))
}

// POST /api/locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req upstream.CreateLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Create(requestContext(c), req)
	respondAction(c, err, h.svc.View().Snapshot())
}

// DELETE /api/locations/:id
func (h *LocationHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(requestContext(c), c.Param("id"))
	respondAction(c, err, h.svc.View().Snapshot())
}
