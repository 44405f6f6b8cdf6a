package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type sessionListQuery struct {
	listview.Filter
	Page int `form:"page"`
}

type autoRefreshRequest struct {
	Enabled bool `json:"enabled"`
}

// GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	var q sessionListQuery
	if !bindQuery(c, &q) {
		return
	}

	err := h.svc.Navigate(requestContext(c), q.Filter, q.Page)
	respondView(c, err, h.svc.View().Snapshot(), h.svc.Rows())
}

// POST /api/sessions/:id/resolve
func (h *SessionHandler) Resolve(c *gin.Context) {
	err := h.svc.Resolve(requestContext(c), c.Param("id"))
	respondAction(c, err, h.svc.View().Snapshot())
}

// POST /api/sessions/:id/force-logout
func (h *SessionHandler) ForceLogout(c *gin.Context) {
	err := h.svc.ForceLogout(requestContext(c), c.Param("id"))
	respondAction(c, err, h.svc.View().Snapshot())
}

// DELETE /api/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(requestContext(c), c.Param("id"))
	respondAction(c, err, h.svc.View().Snapshot())
}

// GET /api/sessions/export
func (h *SessionHandler) Export(c *gin.Context) {
	var f listview.Filter
	if !bindQuery(c, &f) {
		return
	}

	out := newAttachment(c, "sessions.csv", "text/csv")
	if _, err := h.svc.ExportFiltered(requestContext(c), f, out); err != nil {
		if !out.started {
			response.Error(c, err)
		}
		return
	}
	out.finish()
}

// PUT /api/sessions/auto-refresh
func (h *SessionHandler) AutoRefresh(c *gin.Context) {
	var req autoRefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetAutoRefresh(requestContext(c), req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"autoRefresh": h.svc.View().Snapshot().AutoRefresh})
}

// GET /api/sessions/metadata
func (h *SessionHandler) Metadata(c *gin.Context) {
	err := h.svc.LoadMetadata(requestContext(c))
	users, companies := h.svc.Metadata()
	data := gin.H{"users": users, "companies": companies}
	if err != nil && len(users) == 0 && len(companies) == 0 {
		response.ErrorWithData(c, err, data)
		return
	}
	response.Success(c, http.StatusOK, data)
}

// POST /api/sessions/dismiss
func (h *SessionHandler) Dismiss(c *gin.Context) {
	h.svc.View().Dismiss()
	c.Status(http.StatusNoContent)
}
