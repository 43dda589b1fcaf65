package store

import (
	"medscheduler/internal/domain"
)

// Booker accepts appointments through the same rules as interactive booking.
type Booker interface {
	Add(appt domain.Appointment) error
}

// LoadResult counts the lines a load booked and the lines it skipped.
type LoadResult struct {
	Loaded  int
	Skipped int
}

type AppointmentRepository interface {
	Save(appts []domain.Appointment) error
	Load(dst Booker) (LoadResult, error)
}
