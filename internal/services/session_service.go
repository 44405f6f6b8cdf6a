package services

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/present"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

// ExportCompanyRequired is shown when an export is attempted without a company filter.
const ExportCompanyRequired = "Please select a company to export sessions"

// SessionsAPI is the slice of the platform API the sessions view uses.
type SessionsAPI interface {
	ListSessions(ctx context.Context, query url.Values) (upstream.List[models.Session], error)
	ResolveSession(ctx context.Context, id string) error
	ForceLogout(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
	ExportSessions(ctx context.Context, req upstream.ExportRequest, w io.Writer) (int64, error)
	ListUsers(ctx context.Context, query url.Values) (upstream.List[models.User], error)
	ListCompanies(ctx context.Context) (upstream.List[models.Company], error)
}

// SessionService drives the attendance sessions view: filters, pagination, auto
// refresh and the resolve, force logout and delete row actions.
type SessionService struct {
	api  SessionsAPI
	view *listview.View[models.Session]
	loc  *time.Location
	log  *zap.Logger

	mu        sync.RWMutex
	users     []models.User
	companies []models.Company
}

// NewSessionService constructs the sessions view over api.
func NewSessionService(api SessionsAPI, cfg Config) (*SessionService, error) {
	if api == nil {
		return nil, errors.New("session service: api is required")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = listview.DefaultPageSize
	}

	fetch := func(ctx context.Context, q listview.Query) (listview.Result[models.Session], error) {
		page, err := api.ListSessions(ctx, q.Values())
		if err != nil {
			return listview.Result[models.Session]{}, err
		}
		return listview.Result[models.Session]{Records: page.Items, Total: page.Total}, nil
	}

	return &SessionService{
		api:  api,
		view: listview.NewView(fetch, cfg.viewOptions(ViewSessions, "Failed to load sessions", pageSize, cfg.RefreshInterval)),
		loc:  cfg.location(),
		log:  cfg.logger("sessions"),
	}, nil
}

// View exposes the underlying list view.
func (s *SessionService) View() *listview.View[models.Session] { return s.view }

// Load fetches the current page.
func (s *SessionService) Load(ctx context.Context) error {
	return s.view.Load(ctx)
}

// Navigate validates f, applies it together with a 1 based page and fetches once.
// page 0 keeps the current page unless the filter changed.
func (s *SessionService) Navigate(ctx context.Context, f listview.Filter, page int) error {
	if err := validate(f); err != nil {
		s.view.Fail(err, "")
		return err
	}
	return s.view.Navigate(ctx, f, page)
}

// SetAutoRefresh toggles the periodic reload.
func (s *SessionService) SetAutoRefresh(ctx context.Context, on bool) error {
	return s.view.SetAutoRefresh(ctx, on)
}

// LoadMetadata fetches the users and companies used to label rows. Each list is kept
// only when its request succeeds.
func (s *SessionService) LoadMetadata(ctx context.Context) error {
	var (
		wg                 sync.WaitGroup
		users              upstream.List[models.User]
		companies          upstream.List[models.Company]
		usersErr, compsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, usersErr = s.api.ListUsers(ctx, nil)
	}()
	go func() {
		defer wg.Done()
		companies, compsErr = s.api.ListCompanies(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	if usersErr == nil {
		s.users = users.Items
	}
	if compsErr == nil {
		s.companies = companies.Items
	}
	s.mu.Unlock()

	err := multierr.Combine(usersErr, compsErr)
	if err != nil {
		s.log.Warn("session metadata incomplete", zap.Error(err))
	}
	return err
}

// Metadata returns the last fetched users and companies.
func (s *SessionService) Metadata() ([]models.User, []models.Company) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User(nil), s.users...), append([]models.Company(nil), s.companies...)
}

// Rows renders the current page for display.
func (s *SessionService) Rows() []present.SessionRow {
	snap := s.view.Snapshot()
	users, _ := s.Metadata()
	return present.SessionRows(snap.Records, users, s.loc, snap.Busy)
}

// Resolve clears the suspect flag of a session. Only suspect sessions qualify.
func (s *SessionService) Resolve(ctx context.Context, id string) error {
	session, found := s.view.Find(id)
	return s.view.Dispatch(ctx, listview.Action{
		Kind:     listview.ActionResolve,
		RecordID: id,
		Prompt:   "Mark this suspect session as resolved?",
		Precondition: func() error {
			if !found {
				return notFound("Session")
			}
			if !present.CanResolve(session) {
				return apperrors.Precondition("Only suspect sessions can be resolved")
			}
			return nil
		},
		Run:            func(ctx context.Context) error { return s.api.ResolveSession(ctx, id) },
		SuccessMessage: "Session resolved successfully!",
		FailureMessage: "Failed to resolve session",
	})
}

// ForceLogout ends an active session on the employee's behalf.
func (s *SessionService) ForceLogout(ctx context.Context, id string) error {
	session, found := s.view.Find(id)
	return s.view.Dispatch(ctx, listview.Action{
		Kind:     listview.ActionForceLogout,
		RecordID: id,
		Prompt:   "Are you sure you want to force logout this session?",
		Precondition: func() error {
			if !found {
				return notFound("Session")
			}
			if !present.CanForceLogout(session) {
				return apperrors.Precondition("Only active sessions can be logged out")
			}
			return nil
		},
		Run:            func(ctx context.Context) error { return s.api.ForceLogout(ctx, id) },
		SuccessMessage: "Session logged out successfully!",
		FailureMessage: "Failed to force logout",
	})
}

// Delete removes a session record.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.view.Dispatch(ctx, listview.Action{
		Kind:           listview.ActionDelete,
		RecordID:       id,
		Prompt:         "Are you sure you want to delete this session?",
		Run:            func(ctx context.Context) error { return s.api.DeleteSession(ctx, id) },
		SuccessMessage: "Session deleted successfully!",
		FailureMessage: "Failed to delete session",
	})
}

// Export streams the CSV of sessions matching the current company and date filters
// into w. A company filter is required.
func (s *SessionService) Export(ctx context.Context, w io.Writer) (int64, error) {
	return s.ExportFiltered(ctx, s.view.Snapshot().Filter, w)
}

// ExportFiltered is Export for an explicit filter; only its company and date range apply.
func (s *SessionService) ExportFiltered(ctx context.Context, f listview.Filter, w io.Writer) (int64, error) {
	f = f.Normalize()
	if f.CompanyID == "" {
		err := apperrors.ErrCompanyRequired.WithMessage(ExportCompanyRequired)
		s.view.Fail(err, "")
		return 0, err
	}

	n, err := s.api.ExportSessions(ctx, upstream.ExportRequest{CompanyID: f.CompanyID, From: f.From, To: f.To}, w)
	if err != nil {
		s.view.Fail(err, "Failed to export sessions")
		return n, err
	}
	return n, nil
}

// Reset closes the view and forgets records and the user and company metadata.
func (s *SessionService) Reset() {
	s.view.Reset()
	s.mu.Lock()
	s.users, s.companies = nil, nil
	s.mu.Unlock()
}

// Close stops auto refresh and abandons any load in progress.
func (s *SessionService) Close() {
	s.view.Close()
}
