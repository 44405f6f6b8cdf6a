package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxCompanyIDKey = "companyID"
)

// SessionHolder exposes the signed-in administrator.
type SessionHolder interface {
	Authenticated() bool
	Current() auth.State
}

// RequireSession rejects requests while no administrator is signed in and propagates
// the session identity into the gin context.
func RequireSession(sessions SessionHolder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil || !sessions.Authenticated() {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		state := sessions.Current()
		c.Set(CtxUserIDKey, state.User.ID)
		c.Set(CtxSessionIDKey, state.SessionID)
		c.Set(CtxCompanyIDKey, state.CompanyID)

		c.Next()
	}
}

// AccessToken guards the console API with a static bearer token. An empty token
// disables the check.
func AccessToken(token string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(token))
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		presented := []byte(strings.TrimSpace(authz[7:]))
		if subtle.ConstantTimeCompare(presented, expected) != 1 {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Next()
	}
}
