package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

type DeviceHandler struct {
	svc       *services.DeviceService
	companies *services.CompanyService
}

func NewDeviceHandler(svc *services.DeviceService, companies *services.CompanyService) *DeviceHandler {
	return &DeviceHandler{svc: svc, companies: companies}
}

// GET /api/devices
func (h *DeviceHandler) List(c *gin.Context) {
	err := h.svc.Load(requestContext(c))
	respondView(c, err, h.svc.View().Snapshot(), h.svc.Rows(h.companies.Companies()))
}

// POST /api/devices
func (h *DeviceHandler) Register(c *gin.Context) {
	var req upstream.RegisterDeviceRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Register(requestContext(c), req)
	respondAction(c, err, h.svc.View().Snapshot())
}

// DELETE /api/devices/:id
func (h *DeviceHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(requestContext(c), c.Param("id"))
	respondAction(c, err, h.svc.View().Snapshot())
}
