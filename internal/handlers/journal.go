package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

type JournalHandler struct {
	svc *services.JournalService
}

func NewJournalHandler(svc *services.JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

// GET /api/journal
func (h *JournalHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	if page <= 0 {
		page = 1
	}
	perPage := parseIntQuery(c, "per_page", 50)
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	filters := services.JournalFilters{
		View:     strings.TrimSpace(c.Query("view")),
		Kind:     strings.TrimSpace(c.Query("kind")),
		Outcome:  strings.TrimSpace(c.Query("outcome")),
		TargetID: strings.TrimSpace(c.Query("target")),
	}

	var err error
	if filters.Since, err = parseTimeQuery(c, "since"); err != nil {
		response.Error(c, err)
		return
	}
	if filters.Until, err = parseTimeQuery(c, "until"); err != nil {
		response.Error(c, err)
		return
	}

	entries, total, err := h.svc.List(requestContext(c), services.JournalListOptions{
		Page:     page,
		PageSize: perPage,
		Filters:  filters,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{
		Page:     page,
		PageSize: perPage,
		Total:    int(total),
		HasNext:  int64(page*perPage) < total,
	})
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.NewBadRequest(key + " must be an RFC3339 timestamp")
	}
	return &t, nil
}
