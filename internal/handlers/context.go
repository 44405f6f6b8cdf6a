package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// viewState is the console rendition of a list view: rendered rows plus banners.
type viewState struct {
	Rows        any                            `json:"rows"`
	Filter      listview.Filter                `json:"filter"`
	Loading     bool                           `json:"loading"`
	Error       string                         `json:"error,omitempty"`
	Success     string                         `json:"success,omitempty"`
	AutoRefresh bool                           `json:"autoRefresh"`
	InFlight    map[string]listview.ActionKind `json:"inFlight,omitempty"`
}

func newViewState[T any](snap listview.Snapshot[T], rows any) viewState {
	return viewState{
		Rows:        rows,
		Filter:      snap.Filter,
		Loading:     snap.Loading,
		Error:       snap.Error,
		Success:     snap.Success,
		AutoRefresh: snap.AutoRefresh,
		InFlight:    snap.InFlight,
	}
}

func listMeta[T any](snap listview.Snapshot[T]) *response.Meta {
	return &response.Meta{
		Page:     snap.Page,
		PageSize: snap.PageSize,
		Total:    snap.Total,
		HasNext:  snap.HasNext(),
	}
}

// respondView writes the view state, or the load error alongside it. A load replaced
// by a newer one is not an error for this request.
func respondView[T any](c *gin.Context, err error, snap listview.Snapshot[T], rows any) {
	state := newViewState(snap, rows)
	if err != nil && !errors.Is(err, listview.ErrSuperseded) {
		response.ErrorWithData(c, err, state)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, state, listMeta(snap))
}

// respondAction reports a dispatched action. Success carries the view's banner.
func respondAction[T any](c *gin.Context, err error, snap listview.Snapshot[T]) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, snap.Success, nil)
}
