package security

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/charlesng35/fenceadmin/internal/app"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
}

// Result aggregates all checks with a simple status summary.
type Result struct {
	CheckedAt time.Time      `json:"checkedAt"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// AuditService evaluates how safely the console is configured.
type AuditService struct {
	cfg       *app.Config
	keySource app.StateKeySource
	now       func() time.Time
}

// NewAuditService audits cfg. keySource is where the session sealing key came from.
func NewAuditService(cfg *app.Config, keySource app.StateKeySource) *AuditService {
	return &AuditService{cfg: cfg, keySource: keySource, now: time.Now}
}

// WithClock overrides the clock used in results (primarily for testing).
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes all audit checks and returns their outcome.
func (s *AuditService) Run(_ context.Context) Result {
	var checks []Check
	if s.cfg == nil {
		checks = []Check{{
			ID:          "configuration",
			Status:      StatusWarn,
			Message:     "Configuration not loaded, nothing to audit.",
			Remediation: "Load configuration before running the security audit.",
		}}
	} else {
		checks = []Check{
			s.checkAccessToken(),
			s.checkStateSealing(),
			s.checkPlatformTransport(),
			s.checkLoginLimit(),
		}
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

func (s *AuditService) checkAccessToken() Check {
	token := strings.TrimSpace(s.cfg.Server.AccessToken)
	switch {
	case token == "":
		return Check{
			ID:          "console_access_token",
			Status:      StatusWarn,
			Message:     "The console API accepts requests from anyone who can reach it.",
			Remediation: "Set FENCEADMIN_SERVER_ACCESS_TOKEN and send it as a bearer token.",
		}
	case len(token) < 24:
		return Check{
			ID:          "console_access_token",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Console access token is short (%d characters).", len(token)),
			Remediation: "Use a random token of at least 24 characters.",
		}
	default:
		return Check{ID: "console_access_token", Status: StatusPass, Message: "Console access token configured."}
	}
}

func (s *AuditService) checkStateSealing() Check {
	switch s.keySource {
	case app.StateKeyDisabled, "":
		return Check{
			ID:          "state_sealing",
			Status:      StatusFail,
			Message:     "The stored admin session is not encrypted.",
			Remediation: "Enable state.seal or provide state.encryption_key.",
		}
	case app.StateKeyFromDatabase:
		return Check{
			ID:          "state_sealing",
			Status:      StatusWarn,
			Message:     "The session sealing key is kept in the same database as the session.",
			Remediation: "Provide state.encryption_key or state.passphrase from the environment.",
		}
	default:
		return Check{
			ID:      "state_sealing",
			Status:  StatusPass,
			Message: fmt.Sprintf("Admin session sealed with a key from %s.", s.keySource),
		}
	}
}

func (s *AuditService) checkPlatformTransport() Check {
	base, err := url.Parse(strings.TrimSpace(s.cfg.Upstream.BaseURL))
	if err != nil || base.Host == "" {
		return Check{
			ID:          "platform_transport",
			Status:      StatusFail,
			Message:     "Platform base URL is not a valid URL.",
			Remediation: "Set upstream.base_url to the attendance API, for example https://host/api.",
		}
	}
	if base.Scheme == "https" || isLoopback(base.Hostname()) {
		return Check{ID: "platform_transport", Status: StatusPass, Message: "Platform traffic is encrypted or local."}
	}
	return Check{
		ID:          "platform_transport",
		Status:      StatusWarn,
		Message:     fmt.Sprintf("Session ids travel in clear text to %s.", base.Host),
		Remediation: "Serve the attendance API over https.",
	}
}

func (s *AuditService) checkLoginLimit() Check {
	limit := s.cfg.Server.LoginLimit
	if limit.Requests <= 0 || limit.Window <= 0 {
		return Check{
			ID:          "login_rate_limit",
			Status:      StatusWarn,
			Message:     "Console logins are not rate limited.",
			Remediation: "Set server.login_limit.requests and server.login_limit.window.",
		}
	}
	return Check{
		ID:      "login_rate_limit",
		Status:  StatusPass,
		Message: fmt.Sprintf("Logins limited to %d per %s.", limit.Requests, limit.Window),
	}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
