package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/listview"
)

// ConfirmHeader carries the operator's approval of a destructive action.
const ConfirmHeader = "X-Confirm"

// Confirmation records on the request context whether the caller approved the action,
// through the X-Confirm header or the confirm query parameter.
func Confirmation() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ConfirmHeader)
		if raw == "" {
			raw = c.Query("confirm")
		}
		confirmed, _ := strconv.ParseBool(strings.TrimSpace(raw))

		ctx := listview.WithConfirmation(c.Request.Context(), confirmed)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
