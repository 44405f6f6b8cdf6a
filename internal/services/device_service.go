package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/present"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

// DevicesAPI is the slice of the platform API the devices view uses.
type DevicesAPI interface {
	ListDevices(ctx context.Context, companyID string) (upstream.List[models.Device], error)
	RegisterDevice(ctx context.Context, req upstream.RegisterDeviceRequest) (models.Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

// DeviceService lists, registers and deletes attendance handsets.
type DeviceService struct {
	api   DevicesAPI
	scope Scope
	view  *listview.View[models.Device]
	loc   *time.Location
}

// NewDeviceService constructs the devices view scoped to the working company.
func NewDeviceService(api DevicesAPI, scope Scope, cfg Config) (*DeviceService, error) {
	if api == nil {
		return nil, errors.New("device service: api is required")
	}

	fetch := func(ctx context.Context, q listview.Query) (listview.Result[models.Device], error) {
		page, err := api.ListDevices(ctx, q.Get("companyId"))
		if err != nil {
			return listview.Result[models.Device]{}, err
		}
		return listview.Result[models.Device]{Records: page.Items, Total: page.Total}, nil
	}

	return &DeviceService{
		api:   api,
		scope: scope,
		view:  listview.NewView(fetch, cfg.viewOptions(ViewDevices, "Failed to load devices", 0, cfg.RefreshInterval)),
		loc:   cfg.location(),
	}, nil
}

// View exposes the underlying list view.
func (s *DeviceService) View() *listview.View[models.Device] { return s.view }

// Load points the list at the working company and fetches it.
func (s *DeviceService) Load(ctx context.Context) error {
	return syncCompany(ctx, s.view, s.scope)
}

// Rows renders the loaded devices.
func (s *DeviceService) Rows(companies []models.Company) []present.DeviceRow {
	return present.DeviceRows(s.view.Snapshot().Records, companies, s.loc)
}

// Register adds a device. Without an explicit company it goes to the working company.
func (s *DeviceService) Register(ctx context.Context, req upstream.RegisterDeviceRequest) error {
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.Name = strings.TrimSpace(req.Name)
	req.Serial = strings.TrimSpace(req.Serial)
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
			_, err := s.api.RegisterDevice(ctx, req)
			return err
		},
		SuccessMessage: "Device registered successfully!",
		FailureMessage: "Failed to register device",
	})
}

// Delete removes device id after confirmation.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	return s.view.Dispatch(ctx, listview.Action{
		Kind:           listview.ActionDelete,
		RecordID:       id,
		Prompt:         "Are you sure you want to delete this device?",
		Run:            func(ctx context.Context) error { return s.api.DeleteDevice(ctx, id) },
		SuccessMessage: "Device deleted successfully!",
		FailureMessage: "Failed to delete device",
	})
}

// Reset closes the view and forgets the devices it listed.
func (s *DeviceService) Reset() {
	s.view.Reset()
}

// Close stops auto refresh and abandons the load in progress.
func (s *DeviceService) Close() {
	s.view.Close()
}
