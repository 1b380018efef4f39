// Package store holds the persistence contracts of the reminder engine and
// their gorm and in-memory implementations.
package store

import (
	"context"
	"time"

	"clinicpro-backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record conflicts with an existing one")
	ErrNotClaimed = errors.New("schedule is no longer pending")
)

type ConfigStore interface {
	// Get returns the live configuration, creating it with defaults if absent.
	Get(ctx context.Context) (models.ReminderConfig, error)
	Update(ctx context.Context, patch models.ReminderConfigPatch) (models.ReminderConfig, error)
}

type TemplateFilter struct {
	Kind    models.ReminderKind
	Channel models.Channel
	Active  *bool
}

type TemplateStore interface {
	// FindByKindAndChannel returns the active template for the pair.
	FindByKindAndChannel(ctx context.Context, kind models.ReminderKind, ch models.Channel) (*models.ReminderTemplate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReminderTemplate, error)
	List(ctx context.Context, f TemplateFilter) ([]models.ReminderTemplate, error)
	// Create and Update return ErrConflict when t is active and another
	// active template already covers the same kind and channel.
	Create(ctx context.Context, t *models.ReminderTemplate) error
	Update(ctx context.Context, t *models.ReminderTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ScheduleStore interface {
	// ReplaceForAppointment atomically swaps the full schedule set of an
	// appointment for the given one.
	ReplaceForAppointment(ctx context.Context, appointmentID uuid.UUID, schedules []models.ReminderSchedule) error
	DeleteByAppointment(ctx context.Context, appointmentID uuid.UUID) (int64, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderSchedule, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReminderSchedule, error)
	// FindDue returns pending schedules due at now, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]models.ReminderSchedule, error)
	// Claim moves a schedule from PENDING to SENDING in one conditional
	// write and returns the fresh row. Returns ErrNotClaimed if another
	// caller got there first or the row is no longer pending.
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (*models.ReminderSchedule, error)
	Save(ctx context.Context, s *models.ReminderSchedule) error
	CountByStatus(ctx context.Context, status models.ScheduleStatus) (int64, error)
}

type LogFilter struct {
	AppointmentID *uuid.UUID
	Channel       models.Channel
	Status        models.LogStatus
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Paging returns the normalized page number (1-based) and page size.
func (f LogFilter) Paging() (page, size int) {
	page, size = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

type LogStore interface {
	Append(ctx context.Context, l *models.ReminderLog) error
	List(ctx context.Context, f LogFilter) ([]models.ReminderLog, int64, error)
	// Stats aggregates matching rows by channel. Paging is ignored and
	// Pending is left for the caller to fill from the schedule store.
	Stats(ctx context.Context, f LogFilter) (models.ReminderStats, error)
	// MarkReceipt records a delivery or read receipt reported by a provider.
	// Receipts never move a log backwards (a late DELIVERED after READ is
	// ignored); ErrNotFound means no log carries providerMessageID.
	MarkReceipt(ctx context.Context, providerMessageID string, status models.LogStatus, at time.Time, errMsg string) error
}

type AppointmentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
}

func wrap(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, msg)
	}
	return errors.Wrap(err, msg)
}

func newStats() models.ReminderStats {
	return models.ReminderStats{ByChannel: map[models.Channel]models.ChannelStats{}}
}

func addToStats(st *models.ReminderStats, ch models.Channel, status models.LogStatus, n int64) {
	cs := st.ByChannel[ch]
	cs.Total += n
	st.Total += n
	switch {
	case status.Delivered():
		cs.Sent += n
		st.Sent += n
	case status == models.LogStatusFailed:
		cs.Failed += n
		st.Failed += n
	}
	st.ByChannel[ch] = cs
}
