package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/logger"
	"github.com/charlesng35/fenceadmin/pkg/validator"
)

// View names, also used as realtime stream names and metric labels.
const (
	ViewSessions  = "sessions"
	ViewUsers     = "users"
	ViewDevices   = "devices"
	ViewLocations = "locations"
	ViewCompanies = "companies"
	ViewReport    = "report"
)

// Scope exposes the signed-in administrator's working company.
type Scope interface {
	Current() auth.State
}

// Config holds what every list service shares.
type Config struct {
	PageSize        int
	RefreshInterval time.Duration
	Location        *time.Location
	Confirmer       listview.Confirmer
	OnAction        func(ctx context.Context, o listview.Outcome)
	Logger          *zap.Logger
	RefresherOpts   []listview.RefresherOption
}

func (c Config) logger(module string) *zap.Logger {
	if c.Logger != nil {
		return c.Logger.With(zap.String("module", module))
	}
	return logger.WithModule(module)
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Config) viewOptions(name, fallback string, pageSize int, refresh time.Duration) listview.Options {
	return listview.Options{
		Name:            name,
		PageSize:        pageSize,
		RefreshInterval: refresh,
		Fallback:        fallback,
		Confirmer:       c.Confirmer,
		Logger:          c.logger("listview"),
		OnAction:        c.OnAction,
		RefresherOpts:   c.RefresherOpts,
	}
}

func companyOf(scope Scope) string {
	if scope == nil {
		return ""
	}
	return strings.TrimSpace(scope.Current().CompanyID)
}

// syncCompany points a company-scoped view at the working company and reloads it.
func syncCompany[T listview.Record](ctx context.Context, view *listview.View[T], scope Scope) error {
	companyID := companyOf(scope)
	if view.Snapshot().Filter.CompanyID != companyID {
		return view.UpdateFilter(ctx, func(f *listview.Filter) {
			f.CompanyID = companyID
		})
	}
	return view.Load(ctx)
}

// validate turns payload validation failures into a precondition error.
func validate(payload any) error {
	if err := validator.ValidateStruct(payload); err != nil {
		return errors.Precondition(validator.Describe(err))
	}
	return nil
}

func notFound(what string) error {
	return errors.ErrNotFound.WithMessage(what + " not found")
}
