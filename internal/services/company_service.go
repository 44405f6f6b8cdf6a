package services

import (
	"context"
	"errors"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

// CompaniesAPI is the slice of the platform API the companies view uses.
type CompaniesAPI interface {
	ListCompanies(ctx context.Context) (upstream.List[models.Company], error)
	CreateCompany(ctx context.Context, req upstream.CreateCompanyRequest) (models.Company, error)
}

// CompanyService lists and creates tenants. The platform offers no company delete.
type CompanyService struct {
	api  CompaniesAPI
	view *listview.View[models.Company]
}

// NewCompanyService constructs the companies view.
func NewCompanyService(api CompaniesAPI, cfg Config) (*CompanyService, error) {
	if api == nil {
		return nil, errors.New("company service: api is required")
	}

	fetch := func(ctx context.Context, _ listview.Query) (listview.Result[models.Company], error) {
		page, err := api.ListCompanies(ctx)
		if err != nil {
			return listview.Result[models.Company]{}, err
		}
		return listview.Result[models.Company]{Records: page.Items, Total: page.Total}, nil
	}

	return &CompanyService{
		api:  api,
		view: listview.NewView(fetch, cfg.viewOptions(ViewCompanies, "Failed to fetch companies", 0, cfg.RefreshInterval)),
	}, nil
}

// View exposes the underlying list view.
func (s *CompanyService) View() *listview.View[models.Company] { return s.view }

// Load fetches every company.
func (s *CompanyService) Load(ctx context.Context) error {
	return s.view.Load(ctx)
}

// Companies returns the loaded companies, used to label other views.
func (s *CompanyService) Companies() []models.Company {
	return s.view.Snapshot().Records
}

// Create adds a tenant.
func (s *CompanyService) Create(ctx context.Context, req upstream.CreateCompanyRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Timezone = strings.TrimSpace(req.Timezone)

	return s.view.Dispatch(ctx, listview.Action{
		Kind:         listview.ActionCreate,
		Precondition: func() error { return validate(req) },
		Run: func(ctx context.Context) error {
			_, err := s.api.CreateCompany(ctx, req)
			return err
		},
		SuccessMessage: "Company created successfully!",
		FailureMessage: "Failed to create company",
	})
}

// Reset closes the view and forgets the companies it listed.
func (s *CompanyService) Reset() {
	s.view.Reset()
}

// Close stops auto refresh and abandons the load in progress.
func (s *CompanyService) Close() {
	s.view.Close()
}
