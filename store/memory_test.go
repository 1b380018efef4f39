package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clinicpro-backend/models"
	"clinicpro-backend/store"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx       context.Context
	configs   *store.MemoryConfigStore
	templates *store.MemoryTemplateStore
	schedules *store.MemoryScheduleStore
	logs      *store.MemoryLogStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.configs = store.NewMemoryConfigStore()
	s.templates = store.NewMemoryTemplateStore()
	s.schedules = store.NewMemoryScheduleStore()
	s.logs = store.NewMemoryLogStore()
}

func (s *MemoryStoreSuite) TestConfigDefaultsAndPatch() {
	cfg, err := s.configs.Get(s.ctx)
	s.Require().NoError(err)
	s.True(cfg.Enabled)
	s.Equal(models.ChannelWhatsApp, cfg.DefaultChannel)
	s.Equal(3, cfg.RetryAttempts)
	s.Equal(30, cfg.RetryIntervalMinutes)

	ch := models.ChannelEmail
	days := 5
	cfg, err = s.configs.Update(s.ctx, models.ReminderConfigPatch{DefaultChannel: &ch, FirstReminderDays: &days})
	s.Require().NoError(err)
	s.Equal(models.ChannelEmail, cfg.DefaultChannel)
	s.Equal(5, cfg.FirstReminderDays)
	s.Equal(1, cfg.SecondReminderDays)

	again, err := s.configs.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(cfg.DefaultChannel, again.DefaultChannel)
}

func (s *MemoryStoreSuite) TestTemplateActiveConflict() {
	first := models.ReminderTemplate{Name: "a", Kind: models.KindFirstReminder, Channel: models.ChannelSMS, Content: "x", IsActive: true}
	s.Require().NoError(s.templates.Create(s.ctx, &first))

	dup := models.ReminderTemplate{Name: "b", Kind: models.KindFirstReminder, Channel: models.ChannelSMS, Content: "y", IsActive: true}
	err := s.templates.Create(s.ctx, &dup)
	s.True(errors.Is(err, store.ErrConflict))

	dup.IsActive = false
	s.Require().NoError(s.templates.Create(s.ctx, &dup))

	dup.IsActive = true
	s.True(errors.Is(s.templates.Update(s.ctx, &dup), store.ErrConflict))

	got, err := s.templates.FindByKindAndChannel(s.ctx, models.KindFirstReminder, models.ChannelSMS)
	s.Require().NoError(err)
	s.Equal(first.ID, got.ID)

	_, err = s.templates.FindByKindAndChannel(s.ctx, models.KindFirstReminder, models.ChannelEmail)
	s.True(errors.Is(err, store.ErrNotFound))

	active := true
	list, err := s.templates.List(s.ctx, store.TemplateFilter{Active: &active})
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.templates.Delete(s.ctx, first.ID))
	s.True(errors.Is(s.templates.Delete(s.ctx, first.ID), store.ErrNotFound))
}

func (s *MemoryStoreSuite) pending(appt uuid.UUID, at time.Time) models.ReminderSchedule {
	return models.ReminderSchedule{
		AppointmentID: appt,
		TemplateID:    uuid.New(),
		Kind:          models.KindFirstReminder,
		Channel:       models.ChannelSMS,
		ScheduledFor:  at,
		Status:        models.ScheduleStatusPending,
	}
}

func (s *MemoryStoreSuite) TestFindDueOrderAndLimit() {
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	appt := uuid.New()
	s.Require().NoError(s.schedules.ReplaceForAppointment(s.ctx, appt, []models.ReminderSchedule{
		s.pending(appt, now.Add(-time.Minute)),
		s.pending(appt, now.Add(-time.Hour)),
		s.pending(appt, now),
		s.pending(appt, now.Add(time.Second)),
	}))

	due, err := s.schedules.FindDue(s.ctx, now, 0)
	s.Require().NoError(err)
	s.Require().Len(due, 3)
	s.Equal(now.Add(-time.Hour), due[0].ScheduledFor)
	s.Equal(now.Add(-time.Minute), due[1].ScheduledFor)
	s.Equal(now, due[2].ScheduledFor)

	limited, err := s.schedules.FindDue(s.ctx, now, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *MemoryStoreSuite) TestReplaceForAppointment() {
	now := time.Now()
	appt := uuid.New()
	other := uuid.New()
	s.Require().NoError(s.schedules.ReplaceForAppointment(s.ctx, other, []models.ReminderSchedule{s.pending(other, now)}))
	s.Require().NoError(s.schedules.ReplaceForAppointment(s.ctx, appt, []models.ReminderSchedule{s.pending(appt, now), s.pending(appt, now)}))
	s.Require().NoError(s.schedules.ReplaceForAppointment(s.ctx, appt, []models.ReminderSchedule{s.pending(appt, now)}))

	list, err := s.schedules.ListByAppointment(s.ctx, appt)
	s.Require().NoError(err)
	s.Len(list, 1)

	list, err = s.schedules.ListByAppointment(s.ctx, other)
	s.Require().NoError(err)
	s.Len(list, 1)

	n, err := s.schedules.DeleteByAppointment(s.ctx, appt)
	s.Require().NoError(err)
	s.EqualValues(1, n)
}

func (s *MemoryStoreSuite) TestClaimIsExclusive() {
	now := time.Now()
	appt := uuid.New()
	sc := s.pending(appt, now)
	s.Require().NoError(s.schedules.Save(s.ctx, &sc))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := s.schedules.Claim(s.ctx, sc.ID, now)
			if err == nil {
				wins.Add(1)
				s.Equal(models.ScheduleStatusSending, claimed.Status)
				return
			}
			s.True(errors.Is(err, store.ErrNotClaimed))
		}()
	}
	wg.Wait()
	s.EqualValues(1, wins.Load())

	got, err := s.schedules.FindByID(s.ctx, sc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastAttempt)
	s.True(got.LastAttempt.Equal(now))

	due, err := s.schedules.FindDue(s.ctx, now, 0)
	s.Require().NoError(err)
	s.Empty(due)
}

func (s *MemoryStoreSuite) TestLogListPagingAndStats() {
	base := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	appt := uuid.New()
	for i := 0; i < 25; i++ {
		status := models.LogStatusSent
		ch := models.ChannelWhatsApp
		if i%5 == 0 {
			status = models.LogStatusFailed
			ch = models.ChannelEmail
		}
		s.Require().NoError(s.logs.Append(s.ctx, &models.ReminderLog{
			AppointmentID:     appt,
			Channel:           ch,
			Status:            status,
			ProviderMessageID: uuid.NewString(),
			CreatedAt:         base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page, total, err := s.logs.List(s.ctx, store.LogFilter{Page: 2, PageSize: 10})
	s.Require().NoError(err)
	s.EqualValues(25, total)
	s.Require().Len(page, 10)
	s.Equal(base.Add(14*time.Hour), page[0].CreatedAt)

	last, _, err := s.logs.List(s.ctx, store.LogFilter{Page: 3, PageSize: 10})
	s.Require().NoError(err)
	s.Len(last, 5)

	beyond, _, err := s.logs.List(s.ctx, store.LogFilter{Page: 9, PageSize: 10})
	s.Require().NoError(err)
	s.Empty(beyond)

	from := base.Add(10 * time.Hour)
	to := base.Add(20 * time.Hour)
	_, total, err = s.logs.List(s.ctx, store.LogFilter{From: &from, To: &to})
	s.Require().NoError(err)
	s.EqualValues(10, total)

	st, err := s.logs.Stats(s.ctx, store.LogFilter{})
	s.Require().NoError(err)
	s.EqualValues(25, st.Total)
	s.EqualValues(20, st.Sent)
	s.EqualValues(5, st.Failed)
	s.EqualValues(20, st.ByChannel[models.ChannelWhatsApp].Total)
	s.EqualValues(5, st.ByChannel[models.ChannelEmail].Failed)
}

func (s *MemoryStoreSuite) TestReceiptsOnlyMoveForward() {
	at := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.logs.Append(s.ctx, &models.ReminderLog{
		Channel:           models.ChannelWhatsApp,
		Status:            models.LogStatusSent,
		ProviderMessageID: "SM1",
		CreatedAt:         at,
	}))
	status := func() models.LogStatus {
		logs, _, err := s.logs.List(s.ctx, store.LogFilter{})
		s.Require().NoError(err)
		s.Require().Len(logs, 1)
		return logs[0].Status
	}

	s.Require().NoError(s.logs.MarkReceipt(s.ctx, "SM1", models.LogStatusRead, at.Add(2*time.Minute), ""))
	s.Require().NoError(s.logs.MarkReceipt(s.ctx, "SM1", models.LogStatusDelivered, at.Add(time.Minute), ""))
	s.Equal(models.LogStatusRead, status())

	s.Require().NoError(s.logs.MarkReceipt(s.ctx, "SM1", models.LogStatusFailed, at.Add(3*time.Minute), "late failure"))
	s.Equal(models.LogStatusRead, status())

	s.True(errors.Is(s.logs.MarkReceipt(s.ctx, "SM404", models.LogStatusDelivered, at, ""), store.ErrNotFound))
}

func (s *MemoryStoreSuite) TestLogFilterPaging() {
	page, size := store.LogFilter{}.Paging()
	s.Equal(1, page)
	s.Equal(20, size)

	page, size = store.LogFilter{Page: -3, PageSize: 1000}.Paging()
	s.Equal(1, page)
	s.Equal(100, size)
}
