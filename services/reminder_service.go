// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"clinicpro-backend/config"
	"clinicpro-backend/models"
	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/providers"
	"clinicpro-backend/store"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators a ReminderService cannot run without.
type Deps struct {
	Configs      store.ConfigStore
	Templates    store.TemplateStore
	Schedules    store.ScheduleStore
	Logs         store.LogStore
	Appointments store.AppointmentStore
	Registry     *providers.Registry
}

type Option func(*ReminderService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReminderService) { s.now = now }
}

// WithWorkers sets how many due schedules are dispatched concurrently.
func WithWorkers(n int) Option {
	return func(s *ReminderService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize caps the number of due schedules fetched per pass.
func WithBatchSize(n int) Option {
	return func(s *ReminderService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithClinic(c config.ClinicInfo) Option {
	return func(s *ReminderService) { s.clinic = c }
}

func WithMetrics(m *Metrics) Option {
	return func(s *ReminderService) { s.metrics = m }
}

// ReminderService computes reminder schedules for appointments, renders
// them from templates and dispatches them through the channel providers.
type ReminderService struct {
	configs      store.ConfigStore
	templates    store.TemplateStore
	schedules    store.ScheduleStore
	logs         store.LogStore
	appointments store.AppointmentStore
	registry     *providers.Registry

	clinic    config.ClinicInfo
	metrics   *Metrics
	now       func() time.Time
	workers   int
	batchSize int
}

func NewReminderService(d Deps, opts ...Option) (*ReminderService, error) {
	switch {
	case d.Configs == nil:
		return nil, errors.New("config store is required")
	case d.Templates == nil:
		return nil, errors.New("template store is required")
	case d.Schedules == nil:
		return nil, errors.New("schedule store is required")
	case d.Logs == nil:
		return nil, errors.New("log store is required")
	case d.Appointments == nil:
		return nil, errors.New("appointment store is required")
	case d.Registry == nil:
		return nil, errors.New("provider registry is required")
	}

	s := &ReminderService{
		configs:      d.Configs,
		templates:    d.Templates,
		schedules:    d.Schedules,
		logs:         d.Logs,
		appointments: d.Appointments,
		registry:     d.Registry,
		now:          time.Now,
		workers:      1,
		batchSize:    100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ReminderService) Registry() *providers.Registry { return s.registry }

// LoadAppointment fetches an appointment with the relations rendering needs.
func (s *ReminderService) LoadAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.appointments.FindByID(ctx, id)
}

// ScheduleReminders replaces the reminder schedules of appt with a freshly
// computed set. Reminders whose fire time already passed are skipped, as are
// kinds without an active template for the resolved channel.
func (s *ReminderService) ScheduleReminders(ctx context.Context, appt *models.Appointment) ([]models.ReminderSchedule, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		zlog.Debug("reminders disabled, not scheduling", zap.String("appointment_id", appt.ID.String()))
		return nil, nil
	}

	now := s.now()
	channel := ResolveChannel(cfg, appt.Patient)

	out := make([]models.ReminderSchedule, 0, len(models.ScheduledKinds))
	for _, kind := range models.ScheduledKinds {
		offset, _ := cfg.Offset(kind)
		if offset <= 0 {
			continue
		}
		at := appt.StartsAt.Add(-offset)
		if !at.After(now) {
			continue
		}

		tmpl, err := s.templates.FindByKindAndChannel(ctx, kind, channel)
		if errors.Is(err, store.ErrNotFound) {
			zlog.Warn("no active template, reminder skipped",
				zap.String("appointment_id", appt.ID.String()),
				zap.String("kind", string(kind)),
				zap.String("channel", string(channel)))
			continue
		}
		if err != nil {
			return nil, err
		}

		out = append(out, models.ReminderSchedule{
			AppointmentID: appt.ID,
			TemplateID:    tmpl.ID,
			Kind:          kind,
			Channel:       channel,
			ScheduledFor:  at,
			Status:        models.ScheduleStatusPending,
		})
	}

	if err := s.schedules.ReplaceForAppointment(ctx, appt.ID, out); err != nil {
		return nil, err
	}
	zlog.Info("reminders scheduled",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("channel", string(channel)),
		zap.Int("count", len(out)))
	return out, nil
}

// CancelReminders deletes every schedule of an appointment.
func (s *ReminderService) CancelReminders(ctx context.Context, appointmentID uuid.UUID) (int64, error) {
	n, err := s.schedules.DeleteByAppointment(ctx, appointmentID)
	if err != nil {
		return 0, err
	}
	zlog.Info("reminders cancelled", zap.String("appointment_id", appointmentID.String()), zap.Int64("count", n))
	return n, nil
}

func (s *ReminderService) RescheduleReminders(ctx context.Context, appt *models.Appointment) ([]models.ReminderSchedule, error) {
	if _, err := s.CancelReminders(ctx, appt.ID); err != nil {
		return nil, err
	}
	return s.ScheduleReminders(ctx, appt)
}

func (s *ReminderService) ListSchedules(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderSchedule, error) {
	return s.schedules.ListByAppointment(ctx, appointmentID)
}

// ResendSchedule puts a terminal failed or cancelled schedule back in the
// queue, due immediately, with a fresh retry budget.
func (s *ReminderService) ResendSchedule(ctx context.Context, id uuid.UUID) (*models.ReminderSchedule, error) {
	sc, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc.Status != models.ScheduleStatusFailed && sc.Status != models.ScheduleStatusCancelled {
		return nil, errors.Wrapf(ErrNotResendable, "schedule is %s", sc.Status)
	}
	sc.Status = models.ScheduleStatusPending
	sc.RetryCount = 0
	sc.ErrorMessage = ""
	sc.ScheduledFor = s.now()
	if err := s.schedules.Save(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// ChannelOutcome reports what happened on one channel of an immediate send.
type ChannelOutcome struct {
	Channel           models.Channel `json:"channel"`
	Success           bool           `json:"success"`
	Skipped           bool           `json:"skipped,omitempty"`
	ProviderMessageID string         `json:"providerMessageId,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// SendImmediateNotification renders and dispatches a notification right away
// on each requested channel (the default channel when none is given).
// Disabled channels are skipped. There is no retry: any failed dispatch is
// returned to the caller as an error wrapping ErrDispatchFailed.
func (s *ReminderService) SendImmediateNotification(ctx context.Context, appt *models.Appointment, kind models.ReminderKind, customMessage string, channels []models.Channel) ([]ChannelOutcome, error) {
	if kind == "" {
		kind = models.KindImmediate
	}
	if !kind.Valid() {
		return nil, errors.Wrapf(ErrInvalidReminderKind, "%q", kind)
	}
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, ErrRemindersDisabled
	}
	if len(channels) == 0 {
		channels = []models.Channel{cfg.DefaultChannel}
	}

	var (
		outcomes []ChannelOutcome
		failures []string
		sent     int
	)
	for _, ch := range channels {
		if !cfg.ChannelEnabled(ch) {
			zlog.Warn("immediate send skipped, channel disabled", zap.String("channel", string(ch)))
			outcomes = append(outcomes, ChannelOutcome{Channel: ch, Skipped: true, Error: ErrChannelDisabled.Error()})
			continue
		}
		sent++

		oc := ChannelOutcome{Channel: ch}
		res, err := s.sendImmediateOn(ctx, appt, kind, ch, customMessage)
		switch {
		case err != nil:
			oc.Error = err.Error()
		case !res.Success:
			oc.Error = res.ErrorMessage
		default:
			oc.Success = true
			oc.ProviderMessageID = res.ProviderMessageID
		}
		if !oc.Success {
			failures = append(failures, fmt.Sprintf("%s: %s", ch, oc.Error))
		}
		outcomes = append(outcomes, oc)
	}

	if sent == 0 {
		return outcomes, ErrChannelDisabled
	}
	if len(failures) > 0 {
		return outcomes, errors.Wrap(ErrDispatchFailed, strings.Join(failures, "; "))
	}
	return outcomes, nil
}

func (s *ReminderService) sendImmediateOn(ctx context.Context, appt *models.Appointment, kind models.ReminderKind, ch models.Channel, customMessage string) (providers.Result, error) {
	provider, ok := s.registry.Get(ch)
	if !ok || !provider.IsConfigured() {
		return providers.Result{}, errors.Wrapf(ErrProviderNotReady, "%s", ch)
	}

	vars := TemplateVariables(appt, s.clinic)
	tmpl, err := s.templates.FindByKindAndChannel(ctx, kind, ch)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return providers.Result{}, err
	}

	var subject, body string
	switch {
	case customMessage != "":
		body = Render(customMessage, vars)
		if tmpl != nil {
			subject = Render(tmpl.Subject, vars)
		}
	case tmpl != nil:
		subject = Render(tmpl.Subject, vars)
		body = Render(tmpl.Content, vars)
	default:
		return providers.Result{}, errors.Wrapf(ErrTemplateNotFound, "%s/%s", kind, ch)
	}

	return s.deliver(ctx, appt, kind, ch, provider, subject, body)
}

// deliver sends one rendered message and appends its log row.
func (s *ReminderService) deliver(ctx context.Context, appt *models.Appointment, kind models.ReminderKind, ch models.Channel, provider providers.Provider, subject, body string) (providers.Result, error) {
	msg := providers.Message{
		Channel: ch,
		To:      appt.Patient.RecipientFor(ch),
		Subject: subject,
		Body:    body,
	}

	var res providers.Result
	if msg.To == "" {
		res = providers.Result{ErrorMessage: ErrRecipientNotFound.Error(), Permanent: true}
	} else {
		res = provider.Send(ctx, msg)
	}

	now := s.now()
	entry := &models.ReminderLog{
		AppointmentID:     appt.ID,
		PatientID:         appt.PatientID,
		Kind:              kind,
		Channel:           ch,
		Recipient:         msg.To,
		Subject:           subject,
		Content:           body,
		Status:            models.LogStatusFailed,
		ErrorMessage:      res.ErrorMessage,
		ProviderMessageID: res.ProviderMessageID,
		ProviderPayload:   res.RawPayload,
		CreatedAt:         now,
	}
	if res.Success {
		entry.Status = models.LogStatusSent
		entry.SentAt = &now
	}

	fields := []zap.Field{
		zap.String("appointment_id", appt.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("channel", string(ch)),
	}
	if res.Success {
		zlog.Info("reminder sent", append(fields, zap.String("provider_message_id", res.ProviderMessageID))...)
	} else {
		zlog.Warn("reminder dispatch failed", append(fields, zap.String("error", res.ErrorMessage), zap.Bool("permanent", res.Permanent))...)
	}

	// the message is already out; record it even if the caller went away
	if err := s.logs.Append(context.WithoutCancel(ctx), entry); err != nil {
		return res, errors.Wrap(err, "append reminder log")
	}
	return res, nil
}

// ProcessSummary counts what one pass over due schedules did.
type ProcessSummary struct {
	Due       int `json:"due"`
	Sent      int `json:"sent"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type outcome string

const (
	outcomeSent      outcome = "sent"
	outcomeRetried   outcome = "retried"
	outcomeFailed    outcome = "failed"
	outcomeCancelled outcome = "cancelled"
	outcomeSkipped   outcome = "skipped"
	outcomeError     outcome = "error"
)

func (p *ProcessSummary) add(o outcome) {
	switch o {
	case outcomeSent:
		p.Sent++
	case outcomeRetried:
		p.Retried++
	case outcomeFailed:
		p.Failed++
	case outcomeCancelled:
		p.Cancelled++
	case outcomeSkipped:
		p.Skipped++
	case outcomeError:
		p.Errors++
	}
}

// ProcessScheduledNotifications dispatches every pending schedule that is due.
// Schedules are handled independently: one failing never stops the others.
// The returned error only reports failure to query the due schedules.
func (s *ReminderService) ProcessScheduledNotifications(ctx context.Context) (ProcessSummary, error) {
	start := time.Now()
	due, err := s.schedules.FindDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return ProcessSummary{}, errors.Wrap(err, "query due schedules")
	}

	summary := ProcessSummary{Due: len(due)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range due {
		sc := due[i]
		g.Go(func() error {
			o := s.processSchedule(gctx, sc)
			mu.Lock()
			summary.add(o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.observePass(time.Since(start), len(due))
	return summary, nil
}

func (s *ReminderService) processSchedule(ctx context.Context, due models.ReminderSchedule) (o outcome) {
	sc, err := s.schedules.Claim(ctx, due.ID, s.now())
	if errors.Is(err, store.ErrNotClaimed) {
		return outcomeSkipped
	}
	if err != nil {
		zlog.Error("claim schedule failed", zap.String("schedule_id", due.ID.String()), zap.Error(err))
		return outcomeError
	}

	defer func() {
		if r := recover(); r != nil {
			zlog.Error("panic while dispatching schedule", zap.String("schedule_id", sc.ID.String()), zap.Any("panic", r))
			o = s.finish(ctx, sc, models.ScheduleStatusFailed, fmt.Sprintf("panic: %v", r))
			s.metrics.observeDispatch(string(sc.Channel), string(o))
		}
	}()

	o = s.dispatchSchedule(ctx, sc)
	s.metrics.observeDispatch(string(sc.Channel), string(o))
	return o
}

// dispatchSchedule runs one claimed schedule to its next state.
func (s *ReminderService) dispatchSchedule(ctx context.Context, sc *models.ReminderSchedule) outcome {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, err.Error())
	}
	if !cfg.Enabled {
		return s.finish(ctx, sc, models.ScheduleStatusCancelled, ErrRemindersDisabled.Error())
	}

	provider, ok := s.registry.Get(sc.Channel)
	if !ok || !provider.IsConfigured() {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, fmt.Sprintf("%s: %s", ErrProviderNotReady, sc.Channel))
	}
	if !cfg.ChannelEnabled(sc.Channel) {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, fmt.Sprintf("%s: %s", ErrChannelDisabled, sc.Channel))
	}

	appt, err := s.appointments.FindByID(ctx, sc.AppointmentID)
	if err != nil {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, err.Error())
	}
	tmpl, err := s.templates.FindByID(ctx, sc.TemplateID)
	if err != nil {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, err.Error())
	}
	if !tmpl.IsActive {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, fmt.Sprintf("%s: template %s is inactive", ErrTemplateNotFound, tmpl.ID))
	}

	vars := TemplateVariables(appt, s.clinic)
	res, err := s.deliver(ctx, appt, sc.Kind, sc.Channel, provider, Render(tmpl.Subject, vars), Render(tmpl.Content, vars))
	if err != nil {
		return s.finish(ctx, sc, models.ScheduleStatusFailed, err.Error())
	}

	switch {
	case res.Success:
		return s.finish(ctx, sc, models.ScheduleStatusSent, "")
	case res.Permanent:
		return s.finish(ctx, sc, models.ScheduleStatusFailed, res.ErrorMessage)
	case sc.RetryCount < cfg.RetryAttempts:
		sc.RetryCount++
		sc.ScheduledFor = s.now().Add(cfg.RetryInterval())
		return s.finish(ctx, sc, models.ScheduleStatusPending, res.ErrorMessage)
	default:
		return s.finish(ctx, sc, models.ScheduleStatusFailed, res.ErrorMessage)
	}
}

// finish writes the schedule's new status and maps it to an outcome.
// The write ignores cancellation of ctx: a claimed schedule must never be
// left in SENDING.
func (s *ReminderService) finish(ctx context.Context, sc *models.ReminderSchedule, status models.ScheduleStatus, errMsg string) outcome {
	sc.Status = status
	sc.ErrorMessage = errMsg
	if err := s.schedules.Save(context.WithoutCancel(ctx), sc); err != nil {
		zlog.Error("save schedule failed",
			zap.String("schedule_id", sc.ID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
		return outcomeError
	}
	switch status {
	case models.ScheduleStatusSent:
		return outcomeSent
	case models.ScheduleStatusCancelled:
		return outcomeCancelled
	case models.ScheduleStatusPending:
		return outcomeRetried
	}
	zlog.Warn("schedule failed",
		zap.String("schedule_id", sc.ID.String()),
		zap.String("appointment_id", sc.AppointmentID.String()),
		zap.Int("retry_count", sc.RetryCount),
		zap.String("error", errMsg))
	return outcomeFailed
}

// PreviewTemplate renders a template against an appointment without sending.
func (s *ReminderService) PreviewTemplate(ctx context.Context, templateID, appointmentID uuid.UUID) (subject, content string, err error) {
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return "", "", err
	}
	appt, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		return "", "", err
	}
	vars := TemplateVariables(appt, s.clinic)
	return Render(tmpl.Subject, vars), Render(tmpl.Content, vars), nil
}

// Stats aggregates the delivery log and adds the pending schedule count.
func (s *ReminderService) Stats(ctx context.Context, f store.LogFilter) (models.ReminderStats, error) {
	st, err := s.logs.Stats(ctx, f)
	if err != nil {
		return models.ReminderStats{}, err
	}
	pending, err := s.schedules.CountByStatus(ctx, models.ScheduleStatusPending)
	if err != nil {
		return models.ReminderStats{}, err
	}
	st.Pending = pending
	return st, nil
}

func (s *ReminderService) ListLogs(ctx context.Context, f store.LogFilter) ([]models.ReminderLog, int64, error) {
	return s.logs.List(ctx, f)
}

// HandleDeliveryReceipt records a Twilio status callback on the matching log
// row. Intermediate statuses (queued, sending, sent) are ignored.
func (s *ReminderService) HandleDeliveryReceipt(ctx context.Context, messageSID, providerStatus, errorCode string) error {
	var status models.LogStatus
	switch strings.ToLower(providerStatus) {
	case "delivered":
		status = models.LogStatusDelivered
	case "read":
		status = models.LogStatusRead
	case "failed", "undelivered":
		status = models.LogStatusFailed
	default:
		return nil
	}
	errMsg := ""
	if status == models.LogStatusFailed {
		errMsg = "provider reported " + providerStatus
		if errorCode != "" {
			errMsg += " (code " + errorCode + ")"
		}
	}
	return s.logs.MarkReceipt(ctx, messageSID, status, s.now(), errMsg)
}
