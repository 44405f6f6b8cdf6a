package services

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/present"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

// UsersAPI is the slice of the platform API the users view uses.
type UsersAPI interface {
	ListUsers(ctx context.Context, query url.Values) (upstream.List[models.User], error)
	CreateUser(ctx context.Context, req upstream.CreateUserRequest) (models.User, error)
	UpdateUser(ctx context.Context, id string, req upstream.UpdateUserRequest) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	AssignDevice(ctx context.Context, req upstream.AssignDeviceRequest) error
	AvailableDevices(ctx context.Context, companyID string) ([]models.Device, error)
	WorkReport(ctx context.Context, req upstream.ReportRequest) (models.WorkReport, error)
	ExportWorkReport(ctx context.Context, req upstream.ReportRequest, w io.Writer) (int64, error)
}

// UserService manages platform accounts and per-user work reports.
type UserService struct {
	api   UsersAPI
	scope Scope
	view  *listview.View[models.User]
	log   *zap.Logger

	report     *listview.Store[models.WorkReport]
	reportOrch *listview.Orchestrator[models.WorkReport]
}

// NewUserService constructs the users view. The list is scoped to the working company
// of scope; an empty company lists every user.
func NewUserService(api UsersAPI, scope Scope, cfg Config) (*UserService, error) {
	if api == nil {
		return nil, errors.New("user service: api is required")
	}

	fetch := func(ctx context.Context, q listview.Query) (listview.Result[models.User], error) {
		page, err := api.ListUsers(ctx, q.Values())
		if err != nil {
			return listview.Result[models.User]{}, err
		}
		return listview.Result[models.User]{Records: page.Items, Total: page.Total}, nil
	}

	log := cfg.logger("users")
	report := listview.NewStore[models.WorkReport](0)
	fetchReport := func(ctx context.Context, q listview.Query) (listview.Result[models.WorkReport], error) {
		r, err := api.WorkReport(ctx, reportRequestOf(q))
		if err != nil {
			return listview.Result[models.WorkReport]{}, err
		}
		return listview.Result[models.WorkReport]{Records: []models.WorkReport{r}, Total: 1}, nil
	}

	return &UserService{
		api:        api,
		scope:      scope,
		view:       listview.NewView(fetch, cfg.viewOptions(ViewUsers, "Failed to fetch users", 0, cfg.RefreshInterval)),
		log:        log,
		report:     report,
		reportOrch: listview.NewOrchestrator(ViewReport, report, fetchReport, "Failed to load report", log),
	}, nil
}

// View exposes the underlying list view.
func (s *UserService) View() *listview.View[models.User] { return s.view }

// Load points the list at the working company and fetches it.
func (s *UserService) Load(ctx context.Context) error {
	return syncCompany(ctx, s.view, s.scope)
}

// FilterRole narrows the list to one role; empty shows every role.
func (s *UserService) FilterRole(ctx context.Context, role string) error {
	f := s.view.Snapshot().Filter
	f.Role = strings.TrimSpace(role)
	if err := validate(f); err != nil {
		s.view.Fail(err, "")
		return err
	}
	f.CompanyID = companyOf(s.scope)
	return s.view.SetFilter(ctx, f)
}

// Rows renders the loaded users, labelling companies from companies.
func (s *UserService) Rows(companies []models.Company) []present.UserRow {
	return present.UserRows(s.view.Snapshot().Records, companies)
}

// Create adds a user. Employees without a company are placed in the working company.
func (s *UserService) Create(ctx context.Context, req upstream.CreateUserRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Role == models.RoleEmployee && strings.TrimSpace(req.CompanyID) == "" {
		req.CompanyID = companyOf(s.scope)
	}

	return s.view.Dispatch(ctx, listview.Action{
		Kind:         listview.ActionCreate,
		Precondition: func() error { return validate(req) },
		Run: func(ctx context.Context) error {
			_, err := s.api.CreateUser(ctx, req)
			return err
		},
		SuccessMessage: "User created successfully!",
		FailureMessage: "Failed to create user",
	})
}

// Update sends the non-empty fields of req for user id.
func (s *UserService) Update(ctx context.Context, id string, req upstream.UpdateUserRequest) error {
	return s.view.Dispatch(ctx, listview.Action{
		Kind:     listview.ActionUpdate,
		RecordID: id,
		Precondition: func() error {
			if strings.TrimSpace(id) == "" {
				return apperrors.Precondition("User id is required")
			}
			if req.Empty() {
				return apperrors.Precondition("Nothing to update")
			}
			return validate(req)
		},
		Run: func(ctx context.Context) error {
			_, err := s.api.UpdateUser(ctx, id, req)
			return err
		},
		SuccessMessage: "User updated successfully!",
		FailureMessage: "Failed to update user",
	})
}

// Delete removes user id after confirmation.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.view.Dispatch(ctx, listview.Action{
		Kind:           listview.ActionDelete,
		RecordID:       id,
		Prompt:         "Are you sure you want to delete this user?",
		Run:            func(ctx context.Context) error { return s.api.DeleteUser(ctx, id) },
		SuccessMessage: "User deleted successfully!",
		FailureMessage: "Failed to delete user",
	})
}

// AssignDevice binds a device to a user.
func (s *UserService) AssignDevice(ctx context.Context, req upstream.AssignDeviceRequest) error {
	return s.view.Dispatch(ctx, listview.Action{
		Kind:           listview.ActionAssignDevice,
		RecordID:       req.UserID,
		Precondition:   func() error { return validate(req) },
		Run:            func(ctx context.Context) error { return s.api.AssignDevice(ctx, req) },
		SuccessMessage: "Device assigned successfully!",
		FailureMessage: "Failed to assign device",
	})
}

// AvailableDevices lists the unassigned devices of companyID, or of the working
// company when companyID is empty.
func (s *UserService) AvailableDevices(ctx context.Context, companyID string) ([]models.Device, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		companyID = companyOf(s.scope)
	}
	if companyID == "" {
		err := apperrors.ErrCompanyRequired
		s.view.Fail(err, "")
		return nil, err
	}

	devices, err := s.api.AvailableDevices(ctx, companyID)
	if err != nil {
		s.view.Fail(err, "Failed to fetch available devices")
		return nil, err
	}
	return devices, nil
}

// Report loads a work report. A newer call supersedes an older one still in flight:
// the older returns listview.ErrSuperseded and never reaches the report state.
func (s *UserService) Report(ctx context.Context, req upstream.ReportRequest) (models.WorkReport, error) {
	req = normalizeReportRequest(req)
	if err := validate(req); err != nil {
		return models.WorkReport{}, err
	}

	if err := s.reportOrch.Load(ctx, listview.NewQuery(reportValues(req))); err != nil {
		return models.WorkReport{}, err
	}
	snap := s.report.Snapshot()
	if len(snap.Records) == 0 {
		return models.WorkReport{}, nil
	}
	return snap.Records[0], nil
}

// ReportSnapshot returns the state of the report panel.
func (s *UserService) ReportSnapshot() listview.Snapshot[models.WorkReport] {
	return s.report.Snapshot()
}

// ExportReport streams the CSV rendition of a work report into w.
func (s *UserService) ExportReport(ctx context.Context, req upstream.ReportRequest, w io.Writer) (int64, error) {
	req = normalizeReportRequest(req)
	if err := validate(req); err != nil {
		return 0, err
	}

	n, err := s.api.ExportWorkReport(ctx, req, w)
	if err != nil {
		s.log.Warn("report export failed", zap.String("user", req.UserID), zap.Error(err))
		return n, err
	}
	return n, nil
}

// Reset closes the view and the report panel and forgets what both held.
func (s *UserService) Reset() {
	s.view.Reset()
	s.reportOrch.Cancel()
	s.report.Reset()
}

// Close stops auto refresh and abandons loads in progress.
func (s *UserService) Close() {
	s.view.Close()
	s.reportOrch.Cancel()
}

func normalizeReportRequest(req upstream.ReportRequest) upstream.ReportRequest {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Date = strings.TrimSpace(req.Date)
	if req.Type == "" {
		req.Type = models.ReportDaily
	}
	return req
}

func reportValues(req upstream.ReportRequest) url.Values {
	values := url.Values{}
	values.Set("userId", req.UserID)
	values.Set("type", string(req.Type))
	values.Set("date", req.Date)
	return values
}

func reportRequestOf(q listview.Query) upstream.ReportRequest {
	return upstream.ReportRequest{
		UserID: q.Get("userId"),
		Type:   models.ReportType(q.Get("type")),
		Date:   q.Get("date"),
	}
}
