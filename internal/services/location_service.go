package services

import (
	"context"
	"errors"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/present"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

// LocationsAPI is the slice of the platform API the locations view uses.
type LocationsAPI interface {
	ListLocations(ctx context.Context, companyID string) (upstream.List[models.Location], error)
	CreateLocation(ctx context.Context, req upstream.CreateLocationRequest) (models.Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

// LocationService manages the geofences employees are allocated to.
type LocationService struct {
	api   LocationsAPI
	scope Scope
	view  *listview.View[models.Location]
}

// NewLocationService constructs the locations view scoped to the working company.
func NewLocationService(api LocationsAPI, scope Scope, cfg Config) (*LocationService, error) {
	if api == nil {
		return nil, errors.New("location service: api is required")
	}

	fetch := func(ctx context.Context, q listview.Query) (listview.Result[models.Location], error) {
		page, err := api.ListLocations(ctx, q.Get("companyId"))
		if err != nil {
			return listview.Result[models.Location]{}, err
		}
		return listview.Result[models.Location]{Records: page.Items, Total: page.Total}, nil
	}

	return &LocationService{
		api:   api,
		scope: scope,
		view:  listview.NewView(fetch, cfg.viewOptions(ViewLocations, "Failed to fetch locations", 0, cfg.RefreshInterval)),
	}, nil
}

// View exposes the underlying list view.
func (s *LocationService) View() *listview.View[models.Location] { return s.view }

// Load points the list at the working company and fetches it.
func (s *LocationService) Load(ctx context.Context) error {
	return syncCompany(ctx, s.view, s.scope)
}

// Rows renders the loaded geofences.
func (s *LocationService) Rows(companies []models.Company) []present.LocationRow {
	return present.LocationRows(s.view.Snapshot().Records, companies)
}

// Create defines a geofence. Without an explicit company it goes to the working company.
func (s *LocationService) Create(ctx context.Context, req upstream.CreateLocationRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if strings.TrimSpace(req.CompanyID) == "" {
		req.CompanyID = companyOf(s.scope)
	}

	return s.view.Dispatch(ctx, listview.Action{
		Kind: listview.ActionCreate,
		Precondition: func() error {
			if req.CompanyID == "" {
				return apperrors.ErrCompanyRequired
			}
			return validate(req)
		},
		Run: func(ctx context.Context) error {
			_, err := s.api.CreateLocation(ctx, req)
			return err
		},
		SuccessMessage: "Location created successfully!",
		FailureMessage: "Failed to create location",
	})
}

// Delete removes geofence id after confirmation.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	return s.view.Dispatch(ctx, listview.Action{
		Kind:           listview.ActionDelete,
		RecordID:       id,
		Prompt:         "Are you sure you want to delete this location?",
		Run:            func(ctx context.Context) error { return s.api.DeleteLocation(ctx, id) },
		SuccessMessage: "Location deleted successfully!",
		FailureMessage: "Failed to delete location",
	})
}

// Reset closes the view and forgets the locations it listed.
func (s *LocationService) Reset() {
	s.view.Reset()
}

// Close stops auto refresh and abandons the load in progress.
func (s *LocationService) Close() {
	s.view.Close()
}
