package appointments

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"medscheduler/internal/domain"
	"medscheduler/internal/logging"
)

// Rules are the booking constraints every stored appointment satisfies.
// Open and Close are offsets from midnight.
type Rules struct {
	Open        time.Duration
	Close       time.Duration
	MinDuration time.Duration
}

// DefaultRules is 08:00-17:00 with a 15 minute minimum.
func DefaultRules() Rules {
	return Rules{
		Open:        8 * time.Hour,
		Close:       17 * time.Hour,
		MinDuration: 15 * time.Minute,
	}
}

// Scheduler is the only writer of the appointment collection. It is not safe
// for concurrent use; a multi-threaded host must serialize calls.
type Scheduler struct {
	rules        Rules
	log          logging.Logger
	appointments []*domain.Appointment
}

// NewScheduler returns an empty scheduler. A nil log discards output.
func NewScheduler(rules Rules, log logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{rules: rules, log: log}
}

func (s *Scheduler) Rules() Rules {
	return s.rules
}

func (s *Scheduler) Len() int {
	return len(s.appointments)
}

// Add books appt after checking id uniqueness, the time rules and conflicts
// against the whole collection.
func (s *Scheduler) Add(appt domain.Appointment) error {
	if strings.TrimSpace(appt.ID()) == "" {
		return domain.NewValidationError("id", "id is required")
	}
	if _, ok := s.find(appt.ID()); ok {
		return domain.NewValidationError("id", fmt.Sprintf("appointment id '%s' already exists", appt.ID()))
	}
	if err := s.validateTimeRules(appt.Start(), appt.End()); err != nil {
		return err
	}
	if err := s.ensureNoConflicts(appt, ""); err != nil {
		return err
	}

	stored := appt
	s.appointments = append(s.appointments, &stored)
	s.log.Info("Added " + stored.String())
	return nil
}

// Cancel removes the appointment with the given id. It reports false and
// changes nothing when the id is unknown.
func (s *Scheduler) Cancel(id string) bool {
	idx, ok := s.find(id)
	if !ok {
		return false
	}

	removed := s.appointments[idx]
	s.appointments = append(s.appointments[:idx], s.appointments[idx+1:]...)
	s.log.Info("Cancelled " + removed.String())
	return true
}

// Reschedule validates the new range against the rules and every other
// appointment before touching the stored one.
func (s *Scheduler) Reschedule(id string, newStart, newEnd time.Time) error {
	idx, ok := s.find(id)
	if !ok {
		return &domain.NotFoundError{ID: strings.TrimSpace(id)}
	}
	appt := s.appointments[idx]

	if err := s.validateTimeRules(newStart, newEnd); err != nil {
		return err
	}

	candidate, err := domain.NewAppointment(appt.ID(), appt.PatientName(), appt.ProviderName(), newStart, newEnd, appt.Room())
	if err != nil {
		return err
	}
	if err := s.ensureNoConflicts(candidate, appt.ID()); err != nil {
		return err
	}

	before := appt.String()
	if err := appt.Reschedule(newStart, newEnd); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Rescheduled %s -> %s", before, appt.String()))
	return nil
}

// Get returns a copy of the appointment with the given id.
func (s *Scheduler) Get(id string) (domain.Appointment, bool) {
	idx, ok := s.find(id)
	if !ok {
		return domain.Appointment{}, false
	}
	return *s.appointments[idx], true
}

// ListByProvider matches the provider name case-insensitively. A blank name
// matches nothing.
func (s *Scheduler) ListByProvider(name string) []domain.Appointment {
	name = strings.TrimSpace(name)
	if name == "" {
		return []domain.Appointment{}
	}
	return s.collect(func(a *domain.Appointment) bool {
		return strings.EqualFold(a.ProviderName(), name)
	})
}

// ListByDay returns appointments starting on day's calendar date; the
// time-of-day part of day is ignored.
func (s *Scheduler) ListByDay(day time.Time) []domain.Appointment {
	y, m, d := day.Date()
	return s.collect(func(a *domain.Appointment) bool {
		ay, am, ad := a.Start().Date()
		return ay == y && am == m && ad == d
	})
}

// All lists every appointment by start time.
func (s *Scheduler) All() []domain.Appointment {
	return s.collect(func(*domain.Appointment) bool { return true })
}

func (s *Scheduler) collect(keep func(a *domain.Appointment) bool) []domain.Appointment {
	out := make([]domain.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start().Before(out[j].Start())
	})
	return out
}

func (s *Scheduler) find(id string) (int, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1, false
	}
	for i, a := range s.appointments {
		if a.SameID(id) {
			return i, true
		}
	}
	return -1, false
}

func (s *Scheduler) validateTimeRules(start, end time.Time) error {
	if !end.After(start) {
		return domain.NewInvalidTimeError("End time must be after start time.")
	}
	if end.Sub(start) < s.rules.MinDuration {
		return domain.NewInvalidTimeError("Appointment must be at least %s minutes.", formatMinutes(s.rules.MinDuration))
	}
	if timeOfDay(start) < s.rules.Open || timeOfDay(end) > s.rules.Close || !sameDate(start, end) {
		return domain.NewInvalidTimeError("Appointment must be within business hours: %s-%s.",
			formatClock(s.rules.Open), formatClock(s.rules.Close))
	}
	return nil
}

func (s *Scheduler) ensureNoConflicts(candidate domain.Appointment, excludeID string) error {
	for _, existing := range s.appointments {
		if excludeID != "" && existing.SameID(excludeID) {
			continue
		}
		if !candidate.Overlaps(*existing) {
			continue
		}

		providerClash := strings.EqualFold(existing.ProviderName(), candidate.ProviderName())
		roomClash := strings.EqualFold(existing.Room(), candidate.Room())
		if !providerClash && !roomClash {
			continue
		}

		conflict := &domain.DoubleBookingError{
			Resource:      domain.ResourceRoom,
			Name:          candidate.Room(),
			ExistingID:    existing.ID(),
			Start:         candidate.Start(),
			End:           candidate.End(),
			ExistingStart: existing.Start(),
			ExistingEnd:   existing.End(),
		}
		if providerClash {
			conflict.Resource = domain.ResourceProvider
			conflict.Name = candidate.ProviderName()
		}
		return conflict
	}
	return nil
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func formatMinutes(d time.Duration) string {
	return fmt.Sprintf("%g", d.Minutes())
}
