package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/present"
	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

type UserHandler struct {
	svc       *services.UserService
	companies *services.CompanyService
}

func NewUserHandler(svc *services.UserService, companies *services.CompanyService) *UserHandler {
	return &UserHandler{svc: svc, companies: companies}
}

type assignDeviceRequest struct {
	DeviceID string `json:"deviceId"`
}

type reportQuery struct {
	UserID string `form:"userId"`
	Type   string `form:"type"`
	Date   string `form:"date"`
}

func (q reportQuery) request() upstream.ReportRequest {
	return upstream.ReportRequest{
		UserID: q.UserID,
		Type:   models.ReportType(strings.TrimSpace(q.Type)),
		Date:   q.Date,
	}
}

// reportView pairs a work report with its rendered figures.
type reportView struct {
	models.WorkReport
	Title      string `json:"title"`
	Worked     string `json:"worked"`
	PerSession string `json:"perSession"`
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	ctx := requestContext(c)
	role := strings.TrimSpace(c.Query("role"))

	var err error
	if role != h.svc.View().Snapshot().Filter.Role {
		err = h.svc.FilterRole(ctx, role)
	} else {
		err = h.svc.Load(ctx)
	}

	respondView(c, err, h.svc.View().Snapshot(), h.svc.Rows(h.companies.Companies()))
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req upstream.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Create(requestContext(c), req)
	respondAction(c, err, h.svc.View().Snapshot())
}

// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req upstream.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Update(requestContext(c), c.Param("id"), req)
	respondAction(c, err, h.svc.View().Snapshot())
}

// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(requestContext(c), c.Param("id"))
	respondAction(c, err, h.svc.View().Snapshot())
}

// PUT /api/users/:id/device
func (h *UserHandler) AssignDevice(c *gin.Context) {
	var req assignDeviceRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.AssignDevice(requestContext(c), upstream.AssignDeviceRequest{
		UserID:   c.Param("id"),
		DeviceID: strings.TrimSpace(req.DeviceID),
	})
	respondAction(c, err, h.svc.View().Snapshot())
}

// GET /api/users/available-devices
func (h *UserHandler) AvailableDevices(c *gin.Context) {
	devices, err := h.svc.AvailableDevices(requestContext(c), c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, devices)
}

// GET /api/reports/work
func (h *UserHandler) Report(c *gin.Context) {
	var q reportQuery
	if !bindQuery(c, &q) {
		return
	}

	report, err := h.svc.Report(requestContext(c), q.request())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, reportView{
		WorkReport: report,
		Title:      present.ReportTitle(report.Type),
		Worked:     present.WorkDuration(report.TotalWorkingMinutes),
		PerSession: present.AveragePerSession(report),
	})
}

// GET /api/reports/work/export
func (h *UserHandler) ExportReport(c *gin.Context) {
	var q reportQuery
	if !bindQuery(c, &q) {
		return
	}

	out := newAttachment(c, "work-report.csv", "text/csv")
	if _, err := h.svc.ExportReport(requestContext(c), q.request(), out); err != nil {
		if !out.started {
			response.Error(c, err)
		}
		return
	}
	out.finish()
}
