package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// attachment writes a download. Headers are only committed on the first write so a
// failure before any data arrives can still be answered with a JSON error.
type attachment struct {
	c           *gin.Context
	filename    string
	contentType string
	started     bool
}

func newAttachment(c *gin.Context, filename, contentType string) *attachment {
	return &attachment{c: c, filename: filename, contentType: contentType}
}

func (a *attachment) start() {
	if a.started {
		return
	}
	a.started = true
	header := a.c.Writer.Header()
	header.Set("Content-Type", a.contentType)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.filename))
	a.c.Status(http.StatusOK)
}

func (a *attachment) Write(p []byte) (int, error) {
	a.start()
	return a.c.Writer.Write(p)
}

// finish commits the headers of an empty download.
func (a *attachment) finish() {
	a.start()
	a.c.Writer.WriteHeaderNow()
}
