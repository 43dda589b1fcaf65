package appointments

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medscheduler/internal/domain"
)

type recordingLogger struct {
	infos  []string
	warns  []string
	errors []string
}

func (r *recordingLogger) Info(msg string)  { r.infos = append(r.infos, msg) }
func (r *recordingLogger) Warn(msg string)  { r.warns = append(r.warns, msg) }
func (r *recordingLogger) Error(msg string) { r.errors = append(r.errors, msg) }

func day(d, hour, minute int) time.Time {
	return time.Date(2025, 11, d, hour, minute, 0, 0, time.UTC)
}

func mustAppt(t *testing.T, id, provider, room string, start, end time.Time) domain.Appointment {
	t.Helper()
	a, err := domain.NewAppointment(id, "Patient "+id, provider, start, end, room)
	require.NoError(t, err)
	return a
}

func newTestScheduler() (*Scheduler, *recordingLogger) {
	log := &recordingLogger{}
	return NewScheduler(DefaultRules(), log), log
}

func ids(appts []domain.Appointment) []string {
	out := make([]string, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.ID())
	}
	return out
}

func TestSchedulerAdd_LogsAndStores(t *testing.T) {
	s, log := newTestScheduler()
	appt := mustAppt(t, "A1001", "Dr. Nguyen", "Room 201", day(12, 9, 0), day(12, 9, 30))

	require.NoError(t, s.Add(appt))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"Added [A1001] 2025-11-12 09:00–09:30 Patient A1001 with Dr. Nguyen in Room 201"}, log.infos)
	assert.Empty(t, log.warns)
}

func TestSchedulerAdd_TimeRules(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr string
	}{
		{name: "before open", start: day(12, 7, 45), end: day(12, 8, 15), wantErr: "Appointment must be within business hours: 08:00-17:00."},
		{name: "after close", start: day(12, 16, 45), end: day(12, 17, 15), wantErr: "Appointment must be within business hours: 08:00-17:00."},
		{name: "crosses midnight", start: day(12, 16, 0), end: day(13, 0, 0), wantErr: "Appointment must be within business hours: 08:00-17:00."},
		{name: "too short", start: day(12, 9, 0), end: day(12, 9, 10), wantErr: "Appointment must be at least 15 minutes."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, log := newTestScheduler()
			err := s.Add(mustAppt(t, "A1", "Dr. Nguyen", "201", tt.start, tt.end))

			var tErr *domain.InvalidTimeError
			require.True(t, errors.As(err, &tErr), "error type = %T, want *InvalidTimeError", err)
			assert.Equal(t, tt.wantErr, tErr.Error())
			assert.Equal(t, 0, s.Len())
			assert.Empty(t, log.infos)
		})
	}
}

func TestSchedulerAdd_AcceptsBoundaries(t *testing.T) {
	s, _ := newTestScheduler()

	require.NoError(t, s.Add(mustAppt(t, "min", "Dr. A", "1", day(12, 9, 0), day(12, 9, 15))), "exactly the minimum duration")
	require.NoError(t, s.Add(mustAppt(t, "open", "Dr. B", "2", day(12, 8, 0), day(12, 8, 30))), "starts at opening")
	require.NoError(t, s.Add(mustAppt(t, "close", "Dr. C", "3", day(12, 16, 30), day(12, 17, 0))), "ends at closing")
}

func TestSchedulerAdd_Conflicts(t *testing.T) {
	base := func(t *testing.T) *Scheduler {
		s, _ := newTestScheduler()
		require.NoError(t, s.Add(mustAppt(t, "A", "Dr. Nguyen", "Room 201", day(12, 9, 0), day(12, 10, 0))))
		return s
	}

	t.Run("same provider overlapping", func(t *testing.T) {
		s := base(t)
		err := s.Add(mustAppt(t, "B", "dr. NGUYEN", "Room 305", day(12, 9, 30), day(12, 10, 30)))

		var dErr *domain.DoubleBookingError
		require.True(t, errors.As(err, &dErr))
		assert.Equal(t, domain.ResourceProvider, dErr.Resource)
		assert.Equal(t, "A", dErr.ExistingID)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("same room overlapping", func(t *testing.T) {
		s := base(t)
		err := s.Add(mustAppt(t, "B", "Dr. Patel", "room 201", day(12, 9, 30), day(12, 10, 30)))

		var dErr *domain.DoubleBookingError
		require.True(t, errors.As(err, &dErr))
		assert.Equal(t, domain.ResourceRoom, dErr.Resource)
		assert.Equal(t, "room 201", dErr.Name)
	})

	t.Run("provider wins when both clash", func(t *testing.T) {
		s := base(t)
		err := s.Add(mustAppt(t, "B", "Dr. Nguyen", "Room 201", day(12, 9, 15), day(12, 9, 45)))

		var dErr *domain.DoubleBookingError
		require.True(t, errors.As(err, &dErr))
		assert.Equal(t, domain.ResourceProvider, dErr.Resource)
		assert.Equal(t, "Time conflict: 2025-11-12 09:15-09:45 overlaps 09:00-10:00 for provider (Dr. Nguyen).", dErr.Error())
	})

	t.Run("overlap with different provider and room", func(t *testing.T) {
		s := base(t)
		require.NoError(t, s.Add(mustAppt(t, "B", "Dr. Patel", "Room 305", day(12, 9, 30), day(12, 10, 30))))
		assert.Equal(t, 2, s.Len())
	})

	t.Run("touching ranges share provider and room", func(t *testing.T) {
		s := base(t)
		require.NoError(t, s.Add(mustAppt(t, "B", "Dr. Nguyen", "Room 201", day(12, 10, 0), day(12, 11, 0))))
		require.NoError(t, s.Add(mustAppt(t, "C", "Dr. Nguyen", "Room 201", day(12, 8, 30), day(12, 9, 0))))
	})

	t.Run("same slot on another day", func(t *testing.T) {
		s := base(t)
		require.NoError(t, s.Add(mustAppt(t, "B", "Dr. Nguyen", "Room 201", day(13, 9, 0), day(13, 10, 0))))
	})
}

func TestSchedulerAdd_RejectsDuplicateID(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.Add(mustAppt(t, "A1", "Dr. A", "1", day(12, 9, 0), day(12, 9, 30))))

	err := s.Add(mustAppt(t, "a1", "Dr. B", "2", day(12, 13, 0), day(12, 13, 30)))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "id", vErr.Field)
	assert.Equal(t, 1, s.Len())
}

func TestSchedulerAdd_RejectsZeroAppointment(t *testing.T) {
	s, _ := newTestScheduler()

	var vErr *domain.ValidationError
	require.True(t, errors.As(s.Add(domain.Appointment{}), &vErr))
}

func TestSchedulerCancel(t *testing.T) {
	s, log := newTestScheduler()
	require.NoError(t, s.Add(mustAppt(t, "A1", "Dr. A", "1", day(12, 9, 0), day(12, 9, 30))))
	require.NoError(t, s.Add(mustAppt(t, "A2", "Dr. A", "1", day(12, 10, 0), day(12, 10, 30))))

	assert.False(t, s.Cancel("nope"))
	assert.False(t, s.Cancel("  "))
	assert.Equal(t, []string{"A1", "A2"}, ids(s.All()))

	assert.True(t, s.Cancel("a1"))
	assert.Equal(t, []string{"A2"}, ids(s.All()))
	assert.Equal(t, "Cancelled [A1] 2025-11-12 09:00–09:30 Patient A1 with Dr. A in 1", log.infos[len(log.infos)-1])

	assert.False(t, s.Cancel("A1"))
}

func TestSchedulerReschedule(t *testing.T) {
	setup := func(t *testing.T) (*Scheduler, *recordingLogger) {
		s, log := newTestScheduler()
		require.NoError(t, s.Add(mustAppt(t, "A", "Dr. Nguyen", "Room 201", day(12, 9, 0), day(12, 10, 0))))
		require.NoError(t, s.Add(mustAppt(t, "B", "Dr. Nguyen", "Room 305", day(12, 11, 0), day(12, 12, 0))))
		return s, log
	}

	t.Run("unknown id", func(t *testing.T) {
		s, _ := setup(t)
		err := s.Reschedule("Z", day(12, 13, 0), day(12, 14, 0))

		var nErr *domain.NotFoundError
		require.True(t, errors.As(err, &nErr))
		assert.Equal(t, "Z", nErr.ID)
	})

	t.Run("conflict leaves booked times untouched", func(t *testing.T) {
		s, _ := setup(t)
		err := s.Reschedule("A", day(12, 11, 30), day(12, 12, 30))

		var dErr *domain.DoubleBookingError
		require.True(t, errors.As(err, &dErr))
		got, ok := s.Get("A")
		require.True(t, ok)
		assert.True(t, got.Start().Equal(day(12, 9, 0)))
		assert.True(t, got.End().Equal(day(12, 10, 0)))
	})

	t.Run("rule violation leaves booked times untouched", func(t *testing.T) {
		s, _ := setup(t)
		err := s.Reschedule("A", day(12, 16, 50), day(12, 17, 30))

		var tErr *domain.InvalidTimeError
		require.True(t, errors.As(err, &tErr))
		got, _ := s.Get("A")
		assert.True(t, got.Start().Equal(day(12, 9, 0)))
	})

	t.Run("overlapping its own old slot is allowed", func(t *testing.T) {
		s, log := setup(t)
		require.NoError(t, s.Reschedule("a", day(12, 9, 30), day(12, 10, 30)))

		got, _ := s.Get("A")
		assert.True(t, got.Start().Equal(day(12, 9, 30)))
		assert.True(t, got.End().Equal(day(12, 10, 30)))
		assert.Equal(t,
			"Rescheduled [A] 2025-11-12 09:00–10:00 Patient A with Dr. Nguyen in Room 201 -> [A] 2025-11-12 09:30–10:30 Patient A with Dr. Nguyen in Room 201",
			log.infos[len(log.infos)-1])
	})

	t.Run("touching another appointment", func(t *testing.T) {
		s, _ := setup(t)
		require.NoError(t, s.Reschedule("A", day(12, 10, 0), day(12, 11, 0)))
	})
}

func TestSchedulerListings(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.Add(mustAppt(t, "late", "Dr. Nguyen", "1", day(12, 15, 0), day(12, 15, 30))))
	require.NoError(t, s.Add(mustAppt(t, "other", "Dr. Patel", "2", day(12, 8, 0), day(12, 8, 30))))
	require.NoError(t, s.Add(mustAppt(t, "early", "dr. nguyen", "1", day(12, 9, 0), day(12, 9, 30))))
	require.NoError(t, s.Add(mustAppt(t, "tomorrow", "Dr. Nguyen", "1", day(13, 8, 0), day(13, 8, 30))))

	t.Run("all ordered by start", func(t *testing.T) {
		assert.Equal(t, []string{"other", "early", "late", "tomorrow"}, ids(s.All()))
	})

	t.Run("by provider ignores case", func(t *testing.T) {
		assert.Equal(t, []string{"early", "late", "tomorrow"}, ids(s.ListByProvider("DR. NGUYEN")))
		assert.Empty(t, s.ListByProvider("Dr. Nobody"))
	})

	t.Run("by provider blank", func(t *testing.T) {
		got := s.ListByProvider("   ")
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("by day ignores query time of day", func(t *testing.T) {
		assert.Equal(t, []string{"other", "early", "late"}, ids(s.ListByDay(day(12, 23, 59))))
		assert.Equal(t, []string{"tomorrow"}, ids(s.ListByDay(day(13, 0, 0))))
		assert.Empty(t, s.ListByDay(day(14, 12, 0)))
	})

	t.Run("listings are copies", func(t *testing.T) {
		all := s.All()
		require.NoError(t, all[0].Reschedule(day(12, 7, 0), day(12, 7, 30)))
		got, _ := s.Get("other")
		assert.True(t, got.Start().Equal(day(12, 8, 0)))
	})
}

func TestSchedulerCustomRules(t *testing.T) {
	rules := Rules{Open: 7 * time.Hour, Close: 19*time.Hour + 30*time.Minute, MinDuration: 30 * time.Minute}
	s := NewScheduler(rules, nil)
	assert.Equal(t, rules, s.Rules())
	assert.Equal(t, Rules{Open: 8 * time.Hour, Close: 17 * time.Hour, MinDuration: 15 * time.Minute}, NewScheduler(DefaultRules(), nil).Rules())

	require.NoError(t, s.Add(mustAppt(t, "early", "Dr. A", "1", day(12, 7, 0), day(12, 7, 30))))
	require.NoError(t, s.Add(mustAppt(t, "late", "Dr. A", "1", day(12, 19, 0), day(12, 19, 30))))

	err := s.Add(mustAppt(t, "short", "Dr. B", "2", day(12, 9, 0), day(12, 9, 15)))
	assert.EqualError(t, err, "Appointment must be at least 30 minutes.")

	err = s.Add(mustAppt(t, "out", "Dr. B", "2", day(12, 19, 15), day(12, 20, 0)))
	assert.EqualError(t, err, "Appointment must be within business hours: 07:00-19:30.")
}
