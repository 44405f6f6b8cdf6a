package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/pkg/logger"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

type AuthHandler struct {
	sessions *auth.SessionContext
	console  *services.Console
	log      *zap.Logger
}

func NewAuthHandler(sessions *auth.SessionContext, console *services.Console) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		console:  console,
		log:      logger.WithModule("auth"),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type selectCompanyRequest struct {
	CompanyID string `json:"companyId"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	state, err := h.sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.console != nil {
		if err := h.console.Companies.Load(ctx); err != nil {
			h.log.Debug("company list unavailable after login", zap.Error(err))
		}
		if err := h.console.Sessions.LoadMetadata(ctx); err != nil {
			h.log.Debug("session metadata unavailable after login", zap.Error(err))
		}
	}

	response.SuccessWithMessage(c, http.StatusOK, "Signed in", state)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	if h.console != nil {
		h.console.Reset()
	}
	response.SuccessWithMessage(c, http.StatusOK, "Signed out", nil)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, h.sessions.Current())
}

// PUT /api/auth/company
func (h *AuthHandler) SelectCompany(c *gin.Context) {
	var req selectCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := requestContext(c)
	state, err := h.sessions.SelectCompany(ctx, req.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.console != nil {
		if err := h.console.Refresh(ctx); err != nil {
			h.log.Warn("views not refreshed after company change", zap.Error(err))
		}
	}
	response.Success(c, http.StatusOK, state)
}
