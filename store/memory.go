package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinicpro-backend/models"

	"github.com/google/uuid"
)

// MemoryConfigStore keeps the configuration row in process memory.
type MemoryConfigStore struct {
	mu  sync.RWMutex
	cfg *models.ReminderConfig
}

func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{}
}

func (s *MemoryConfigStore) Get(_ context.Context) (models.ReminderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(), nil
}

func (s *MemoryConfigStore) getLocked() models.ReminderConfig {
	if s.cfg == nil {
		cfg := models.DefaultReminderConfig()
		cfg.ID = configRowID
		cfg.CreatedAt = time.Now()
		cfg.UpdatedAt = cfg.CreatedAt
		s.cfg = &cfg
	}
	return *s.cfg
}

func (s *MemoryConfigStore) Update(_ context.Context, patch models.ReminderConfigPatch) (models.ReminderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.getLocked()
	patch.Apply(&cfg)
	cfg.UpdatedAt = time.Now()
	s.cfg = &cfg
	return cfg, nil
}

// MemoryTemplateStore is an in-memory TemplateStore.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]models.ReminderTemplate
}

func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{templates: map[uuid.UUID]models.ReminderTemplate{}}
}

func (s *MemoryTemplateStore) FindByKindAndChannel(_ context.Context, kind models.ReminderKind, ch models.Channel) (*models.ReminderTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templates {
		if t.Kind == kind && t.Channel == ch && t.IsActive {
			out := t
			return &out, nil
		}
	}
	return nil, wrap(ErrNotFound, "find template")
}

func (s *MemoryTemplateStore) FindByID(_ context.Context, id uuid.UUID) (*models.ReminderTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, wrap(ErrNotFound, "find template")
	}
	return &t, nil
}

func (s *MemoryTemplateStore) List(_ context.Context, f TemplateFilter) ([]models.ReminderTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ReminderTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.Channel != "" && t.Channel != f.Channel {
			continue
		}
		if f.Active != nil && t.IsActive != *f.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Channel < out[j].Channel
	})
	return out, nil
}

func (s *MemoryTemplateStore) Create(_ context.Context, t *models.ReminderTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if _, exists := s.templates[t.ID]; exists {
		return wrap(ErrConflict, "create template")
	}
	if err := s.conflictLocked(t); err != nil {
		return err
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.templates[t.ID] = *t
	return nil
}

func (s *MemoryTemplateStore) Update(_ context.Context, t *models.ReminderTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID]; !ok {
		return wrap(ErrNotFound, "update template")
	}
	if err := s.conflictLocked(t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	s.templates[t.ID] = *t
	return nil
}

func (s *MemoryTemplateStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return wrap(ErrNotFound, "delete template")
	}
	delete(s.templates, id)
	return nil
}

func (s *MemoryTemplateStore) conflictLocked(t *models.ReminderTemplate) error {
	if !t.IsActive {
		return nil
	}
	for id, other := range s.templates {
		if id != t.ID && other.IsActive && other.Kind == t.Kind && other.Channel == t.Channel {
			return wrap(ErrConflict, "active template for this kind and channel already exists")
		}
	}
	return nil
}

// MemoryScheduleStore is an in-memory ScheduleStore.
type MemoryScheduleStore struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]models.ReminderSchedule
}

func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{schedules: map[uuid.UUID]models.ReminderSchedule{}}
}

func (s *MemoryScheduleStore) ReplaceForAppointment(_ context.Context, appointmentID uuid.UUID, schedules []models.ReminderSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(appointmentID)
	now := time.Now()
	for i := range schedules {
		sc := &schedules[i]
		if sc.ID == uuid.Nil {
			sc.ID = uuid.New()
		}
		sc.AppointmentID = appointmentID
		sc.CreatedAt, sc.UpdatedAt = now, now
		s.schedules[sc.ID] = *sc
	}
	return nil
}

func (s *MemoryScheduleStore) DeleteByAppointment(_ context.Context, appointmentID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(appointmentID), nil
}

func (s *MemoryScheduleStore) deleteLocked(appointmentID uuid.UUID) int64 {
	var n int64
	for id, sc := range s.schedules {
		if sc.AppointmentID == appointmentID {
			delete(s.schedules, id)
			n++
		}
	}
	return n
}

func (s *MemoryScheduleStore) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]models.ReminderSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReminderSchedule
	for _, sc := range s.schedules {
		if sc.AppointmentID == appointmentID {
			out = append(out, sc)
		}
	}
	sortByDue(out)
	return out, nil
}

func (s *MemoryScheduleStore) FindByID(_ context.Context, id uuid.UUID) (*models.ReminderSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return nil, wrap(ErrNotFound, "find schedule")
	}
	return &sc, nil
}

func (s *MemoryScheduleStore) FindDue(_ context.Context, now time.Time, limit int) ([]models.ReminderSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReminderSchedule
	for _, sc := range s.schedules {
		if sc.Status == models.ScheduleStatusPending && !sc.ScheduledFor.After(now) {
			out = append(out, sc)
		}
	}
	sortByDue(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryScheduleStore) Claim(_ context.Context, id uuid.UUID, now time.Time) (*models.ReminderSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok || sc.Status != models.ScheduleStatusPending {
		return nil, ErrNotClaimed
	}
	sc.Status = models.ScheduleStatusSending
	sc.LastAttempt = &now
	sc.UpdatedAt = now
	s.schedules[id] = sc
	return &sc, nil
}

func (s *MemoryScheduleStore) Save(_ context.Context, sc *models.ReminderSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
		sc.CreatedAt = time.Now()
	}
	sc.UpdatedAt = time.Now()
	s.schedules[sc.ID] = *sc
	return nil
}

func (s *MemoryScheduleStore) CountByStatus(_ context.Context, status models.ScheduleStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sc := range s.schedules {
		if sc.Status == status {
			n++
		}
	}
	return n, nil
}

func sortByDue(list []models.ReminderSchedule) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ScheduledFor.Equal(list[j].ScheduledFor) {
			return list[i].ScheduledFor.Before(list[j].ScheduledFor)
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

// MemoryLogStore is an in-memory LogStore.
type MemoryLogStore struct {
	mu   sync.RWMutex
	logs []models.ReminderLog
}

func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

func (s *MemoryLogStore) Append(_ context.Context, l *models.ReminderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.logs = append(s.logs, *l)
	return nil
}

func (s *MemoryLogStore) match(f LogFilter, l models.ReminderLog) bool {
	if f.AppointmentID != nil && l.AppointmentID != *f.AppointmentID {
		return false
	}
	if f.Channel != "" && l.Channel != f.Channel {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.From != nil && l.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !l.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

func (s *MemoryLogStore) List(_ context.Context, f LogFilter) ([]models.ReminderLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.ReminderLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.match(f, s.logs[i]) {
			matched = append(matched, s.logs[i])
		}
	}
	total := int64(len(matched))
	page, size := f.Paging()
	start := (page - 1) * size
	if start >= len(matched) {
		return []models.ReminderLog{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *MemoryLogStore) Stats(_ context.Context, f LogFilter) (models.ReminderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := newStats()
	for _, l := range s.logs {
		if s.match(f, l) {
			addToStats(&st, l.Channel, l.Status, 1)
		}
	}
	return st, nil
}

func (s *MemoryLogStore) MarkReceipt(_ context.Context, providerMessageID string, status models.LogStatus, at time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.logs {
		l := &s.logs[i]
		if l.ProviderMessageID != providerMessageID {
			continue
		}
		found = true
		if !l.Status.Precedes(status) {
			continue
		}
		l.Status = status
		switch status {
		case models.LogStatusDelivered:
			l.DeliveredAt = &at
		case models.LogStatusRead:
			l.ReadAt = &at
		case models.LogStatusFailed:
			l.ErrorMessage = errMsg
		}
	}
	if !found {
		return wrap(ErrNotFound, "mark receipt")
	}
	return nil
}

// MemoryAppointmentStore is an in-memory AppointmentStore.
type MemoryAppointmentStore struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]models.Appointment
}

func NewMemoryAppointmentStore() *MemoryAppointmentStore {
	return &MemoryAppointmentStore{appointments: map[uuid.UUID]models.Appointment{}}
}

// Put inserts or replaces an appointment.
func (s *MemoryAppointmentStore) Put(a models.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.appointments[a.ID] = a
}

func (s *MemoryAppointmentStore) FindByID(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, wrap(ErrNotFound, "find appointment")
	}
	return &a, nil
}
