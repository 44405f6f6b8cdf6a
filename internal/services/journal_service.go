package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/logger"
)

// Journal outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDeclined  = "declined"
)

// JournalFilters narrows journal queries. Zero values match everything.
type JournalFilters struct {
	View     string
	Kind     string
	Outcome  string
	TargetID string
	Since    *time.Time
	Until    *time.Time
}

// JournalListOptions controls pagination and filtering for journal queries.
type JournalListOptions struct {
	Page     int
	PageSize int
	Filters  JournalFilters
}

// JournalService persists the actions dispatched from the console views.
type JournalService struct {
	db    *gorm.DB
	scope Scope
	now   func() time.Time
	log   *zap.Logger
}

// JournalOption customises a JournalService.
type JournalOption func(*JournalService)

// WithJournalActor attributes entries to the administrator signed in on scope.
func WithJournalActor(scope Scope) JournalOption {
	return func(s *JournalService) {
		s.scope = scope
	}
}

// WithJournalClock overrides the clock used for retention cutoffs.
func WithJournalClock(now func() time.Time) JournalOption {
	return func(s *JournalService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewJournalService constructs a JournalService using the provided database handle.
func NewJournalService(db *gorm.DB, opts ...JournalOption) (*JournalService, error) {
	if db == nil {
		return nil, errors.New("journal service: db is required")
	}
	s := &JournalService{db: db, now: time.Now, log: logger.WithModule("journal")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Log stores an entry.
func (s *JournalService) Log(ctx context.Context, entry models.JournalEntry) error {
	if strings.TrimSpace(entry.Kind) == "" {
		return errors.New("journal service: kind is required")
	}
	if strings.TrimSpace(entry.Outcome) == "" {
		return errors.New("journal service: outcome is required")
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// Record journals a dispatched action. Its signature matches the view OnAction hook;
// storage failures are logged, never surfaced to the view.
func (s *JournalService) Record(ctx context.Context, o listview.Outcome) {
	entry := models.JournalEntry{
		View:     o.View,
		Kind:     string(o.Kind),
		TargetID: o.RecordID,
		Actor:    s.actor(),
		Outcome:  outcomeOf(o),
		Message:  o.Message,
		Duration: o.Duration,
	}
	if o.Err != nil {
		details, err := json.Marshal(map[string]any{"error": o.Err.Error()})
		if err == nil {
			entry.Details = datatypes.JSON(details)
		}
	}

	if err := s.Log(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Warn("failed to journal action",
			zap.String("view", o.View),
			zap.String("kind", string(o.Kind)),
			zap.Error(err),
		)
	}
}

// List returns paginated entries, newest first.
func (s *JournalService) List(ctx context.Context, opts JournalListOptions) ([]models.JournalEntry, int64, error) {
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.JournalEntry
		total   int64
	)

	query := applyJournalFilters(s.db.WithContext(ctx).Model(&models.JournalEntry{}), opts.Filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("journal service: count entries: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("journal service: list entries: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes entries older than the retention window in days.
func (s *JournalService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("journal service: retentionDays must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.JournalEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("journal service: cleanup entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *JournalService) actor() string {
	if s.scope == nil {
		return ""
	}
	return s.scope.Current().User.Username
}

func outcomeOf(o listview.Outcome) string {
	switch {
	case o.Declined:
		return OutcomeDeclined
	case o.Err != nil:
		return OutcomeFailed
	default:
		return OutcomeSucceeded
	}
}

func applyJournalFilters(query *gorm.DB, filters JournalFilters) *gorm.DB {
	if filters.View != "" {
		query = query.Where("view = ?", filters.View)
	}
	if filters.Kind != "" {
		query = query.Where("kind = ?", filters.Kind)
	}
	if filters.Outcome != "" {
		query = query.Where("outcome = ?", filters.Outcome)
	}
	if filters.TargetID != "" {
		query = query.Where("target_id = ?", filters.TargetID)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
