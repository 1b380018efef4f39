package store

import (
	"context"
	"time"

	"clinicpro-backend/models"

	"gorm.io/gorm"
)

type GormLogStore struct {
	db *gorm.DB
}

func NewGormLogStore(db *gorm.DB) *GormLogStore {
	return &GormLogStore{db: db}
}

func (s *GormLogStore) Append(ctx context.Context, l *models.ReminderLog) error {
	return wrap(s.db.WithContext(ctx).Create(l).Error, "append reminder log")
}

func (s *GormLogStore) filtered(ctx context.Context, f LogFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.ReminderLog{})
	if f.AppointmentID != nil {
		q = q.Where("appointment_id = ?", *f.AppointmentID)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

func (s *GormLogStore) List(ctx context.Context, f LogFilter) ([]models.ReminderLog, int64, error) {
	var total int64
	if err := s.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count reminder logs")
	}

	page, size := f.Paging()
	var out []models.ReminderLog
	err := s.filtered(ctx, f).
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error
	if err != nil {
		return nil, 0, wrap(err, "list reminder logs")
	}
	return out, total, nil
}

func (s *GormLogStore) Stats(ctx context.Context, f LogFilter) (models.ReminderStats, error) {
	var rows []struct {
		Channel models.Channel
		Status  models.LogStatus
		Count   int64
	}
	err := s.filtered(ctx, f).
		Select("channel, status, COUNT(*) AS count").
		Group("channel, status").
		Scan(&rows).Error
	if err != nil {
		return models.ReminderStats{}, wrap(err, "aggregate reminder logs")
	}

	st := newStats()
	for _, r := range rows {
		addToStats(&st, r.Channel, r.Status, r.Count)
	}
	return st, nil
}

func (s *GormLogStore) MarkReceipt(ctx context.Context, providerMessageID string, status models.LogStatus, at time.Time, errMsg string) error {
	updates := map[string]any{"status": status}
	switch status {
	case models.LogStatusDelivered:
		updates["delivered_at"] = at
	case models.LogStatusRead:
		updates["read_at"] = at
	case models.LogStatusFailed:
		updates["error_message"] = errMsg
	}
	result := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("provider_message_id = ? AND status IN ?", providerMessageID, status.ReceiptPredecessors()).
		Updates(updates)
	if result.Error != nil {
		return wrap(result.Error, "mark receipt")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// nothing moved: either an unknown message or a stale receipt
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("provider_message_id = ?", providerMessageID).
		Count(&n).Error; err != nil {
		return wrap(err, "mark receipt")
	}
	if n == 0 {
		return wrap(ErrNotFound, "mark receipt")
	}
	return nil
}
