package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/realtime"
	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /api/realtime?streams=sessions,users
func (h *RealtimeHandler) Stream(c *gin.Context) {
	streams := gatherStreams(c)
	if len(streams) == 0 {
		streams = realtime.ViewStreams
	}
	for _, stream := range streams {
		if !h.hub.Allowed(stream) {
			response.Error(c, errors.ErrNotFound.WithMessage(fmt.Sprintf("unknown stream %q", stream)))
			return
		}
	}

	h.hub.Serve(c.Writer, c.Request, streams)
}

func gatherStreams(c *gin.Context) []string {
	var streams []string
	for _, raw := range c.QueryArray("streams") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				streams = append(streams, part)
			}
		}
	}
	if stream := strings.TrimSpace(c.Query("stream")); stream != "" {
		streams = append(streams, stream)
	}
	return streams
}
