package services

import (
	"context"
	"errors"

	"go.uber.org/multierr"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

var _ PlatformAPI = (*upstream.Client)(nil)

// PlatformAPI is everything the console needs from the platform.
type PlatformAPI interface {
	SessionsAPI
	UsersAPI
	DevicesAPI
	LocationsAPI
	CompaniesAPI
}

// Console groups the views of one signed-in administrator.
type Console struct {
	Sessions  *SessionService
	Users     *UserService
	Devices   *DeviceService
	Locations *LocationService
	Companies *CompanyService
	Journal   *JournalService
}

// NewConsole builds every view over api. journal may be nil; when set it records each
// dispatched action in addition to any cfg.OnAction hook.
func NewConsole(api PlatformAPI, scope Scope, journal *JournalService, cfg Config) (*Console, error) {
	if api == nil {
		return nil, errors.New("console: api is required")
	}

	if journal != nil {
		next := cfg.OnAction
		cfg.OnAction = func(ctx context.Context, o listview.Outcome) {
			journal.Record(ctx, o)
			if next != nil {
				next(ctx, o)
			}
		}
	}

	console := &Console{Journal: journal}
	var err error
	if console.Sessions, err = NewSessionService(api, cfg); err != nil {
		return nil, err
	}
	if console.Users, err = NewUserService(api, scope, cfg); err != nil {
		return nil, err
	}
	if console.Devices, err = NewDeviceService(api, scope, cfg); err != nil {
		return nil, err
	}
	if console.Locations, err = NewLocationService(api, scope, cfg); err != nil {
		return nil, err
	}
	if console.Companies, err = NewCompanyService(api, cfg); err != nil {
		return nil, err
	}
	return console, nil
}

// Close stops every view.
func (c *Console) Close() {
	c.Sessions.Close()
	c.Users.Close()
	c.Devices.Close()
	c.Locations.Close()
	c.Companies.Close()
}

// Reset stops every view and drops everything loaded for the signed-in administrator.
func (c *Console) Reset() {
	c.Sessions.Reset()
	c.Users.Reset()
	c.Devices.Reset()
	c.Locations.Reset()
	c.Companies.Reset()
}

// Refresh reloads the views that depend on the working company after it changed.
func (c *Console) Refresh(ctx context.Context) error {
	return multierr.Combine(
		c.Users.Load(ctx),
		c.Devices.Load(ctx),
		c.Locations.Load(ctx),
	)
}
