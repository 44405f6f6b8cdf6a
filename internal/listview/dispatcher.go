package listview

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/metrics"
)

// ActionKind names a point mutation dispatched from a view.
type ActionKind string

const (
	ActionResolve      ActionKind = "resolve"
	ActionForceLogout  ActionKind = "force_logout"
	ActionDelete       ActionKind = "delete"
	ActionCreate       ActionKind = "create"
	ActionUpdate       ActionKind = "update"
	ActionAssignDevice ActionKind = "assign_device"
)

// formKey tracks actions that have no target record yet, such as create.
const formKey = "_form"

// Action describes one mutation. Prompt, when set, must be confirmed before Run.
type Action struct {
	Kind           ActionKind
	RecordID       string
	Prompt         string
	Precondition   func() error
	Run            func(ctx context.Context) error
	SuccessMessage string
	FailureMessage string
}

func (a Action) key() string {
	if id := strings.TrimSpace(a.RecordID); id != "" {
		return id
	}
	return formKey
}

// Outcome reports how a dispatched action ended.
type Outcome struct {
	View     string
	Kind     ActionKind
	RecordID string
	Declined bool
	Err      error
	Message  string
	Duration time.Duration
}

// Succeeded reports whether the action ran and the platform accepted it.
func (o Outcome) Succeeded() bool {
	return !o.Declined && o.Err == nil
}

// actionState is the slice of Store a dispatcher needs.
type actionState interface {
	beginAction(id string, kind ActionKind) bool
	endAction(id, success, failure string)
	fail(message string)
}

// Dispatcher runs actions against one view, tracking in-flight work per record.
type Dispatcher struct {
	name      string
	state     actionState
	confirmer Confirmer
	reload    func(ctx context.Context) error
	onAction  func(ctx context.Context, o Outcome)
	log       *zap.Logger
}

// IsNotConfirmed reports whether err means the operator did not approve an action.
func IsNotConfirmed(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == apperrors.ErrConfirmationRequired.Code
}

// Dispatch validates, confirms and runs a. While it runs, a second action on the same
// record fails with ErrActionInFlight; other records stay available. On success the view
// is reloaded; on failure the error banner is set and records stay untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) error {
	if a.Run == nil {
		return apperrors.New("ACTION_INVALID", "action has nothing to run", http.StatusInternalServerError)
	}

	if a.Precondition != nil {
		if err := a.Precondition(); err != nil {
			d.state.fail(apperrors.Message(err, a.FailureMessage))
			d.report(ctx, Outcome{View: d.name, Kind: a.Kind, RecordID: a.RecordID, Err: err, Message: apperrors.Message(err, a.FailureMessage)})
			return err
		}
	}

	key := a.key()
	if !d.state.beginAction(key, a.Kind) {
		return apperrors.ErrActionInFlight
	}

	if a.Prompt != "" {
		confirmed, err := d.confirm(ctx, a.Prompt)
		if err != nil || !confirmed {
			d.state.endAction(key, "", "")
			if err == nil {
				err = apperrors.ErrConfirmationRequired.WithMessage(a.Prompt)
			}
			d.report(ctx, Outcome{View: d.name, Kind: a.Kind, RecordID: a.RecordID, Declined: true, Err: err})
			return err
		}
	}

	return d.run(ctx, key, a)
}

func (d *Dispatcher) confirm(ctx context.Context, prompt string) (bool, error) {
	if d.confirmer == nil {
		return false, nil
	}
	return d.confirmer.Confirm(ctx, prompt)
}

func (d *Dispatcher) run(ctx context.Context, key string, a Action) (err error) {
	gauge := metrics.ActionsInFlight.WithLabelValues(d.name)
	gauge.Inc()
	start := time.Now()

	finished := false
	defer func() {
		gauge.Dec()
		if !finished {
			d.state.endAction(key, "", a.FailureMessage)
		}
	}()

	err = a.Run(ctx)
	finished = true
	outcome := Outcome{View: d.name, Kind: a.Kind, RecordID: a.RecordID, Duration: time.Since(start)}

	if err != nil {
		outcome.Err = err
		outcome.Message = apperrors.Message(err, a.FailureMessage)
		d.state.endAction(key, "", outcome.Message)
		d.log.Warn("action failed",
			zap.String("kind", string(a.Kind)),
			zap.String("record", a.RecordID),
			zap.String("message", outcome.Message),
			zap.Error(err),
		)
		d.report(ctx, outcome)
		return err
	}

	outcome.Message = a.SuccessMessage
	d.state.endAction(key, a.SuccessMessage, "")
	d.report(ctx, outcome)

	if d.reload != nil {
		if rerr := d.reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
			d.log.Debug("reload after action failed", zap.Error(rerr))
		}
	}
	return nil
}

func (d *Dispatcher) report(ctx context.Context, o Outcome) {
	result := "succeeded"
	switch {
	case o.Declined:
		result = "declined"
	case o.Err != nil:
		result = "failed"
	}
	metrics.ViewActions.WithLabelValues(d.name, string(o.Kind), result).Inc()

	if d.onAction != nil {
		d.onAction(ctx, o)
	}
}
