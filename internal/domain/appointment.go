package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Layouts shared by rendering, persistence and the shell.
const (
	DateTimeLayout = "2006-01-02 15:04"
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("label"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type appointmentFields struct {
	ID       string    `label:"id" validate:"required"`
	Patient  string    `label:"patient name" validate:"required"`
	Provider string    `label:"provider name" validate:"required"`
	Room     string    `label:"room" validate:"required"`
	Start    time.Time `label:"start time"`
	End      time.Time `label:"end time" validate:"gtfield=Start"`
}

// Appointment books a patient with a provider in a room. Identity and
// participants are fixed at construction; the time range only changes
// through Reschedule.
type Appointment struct {
	id           string
	patientName  string
	providerName string
	room         string
	start        time.Time
	end          time.Time
}

// NewAppointment trims every string field and rejects empty fields or a
// range whose end is not after its start.
func NewAppointment(id, patientName, providerName string, start, end time.Time, room string) (Appointment, error) {
	f := appointmentFields{
		ID:       strings.TrimSpace(id),
		Patient:  strings.TrimSpace(patientName),
		Provider: strings.TrimSpace(providerName),
		Room:     strings.TrimSpace(room),
		Start:    start,
		End:      end,
	}
	if err := validate.Struct(f); err != nil {
		return Appointment{}, translateValidation(err)
	}

	return Appointment{
		id:           f.ID,
		patientName:  f.Patient,
		providerName: f.Provider,
		room:         f.Room,
		start:        start,
		end:          end,
	}, nil
}

func translateValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError("", err.Error())
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return validationError(fe.Field(), fe.Field()+" is required")
	case "gtfield":
		return validationError(fe.Field(), "end time must be after start time")
	default:
		return validationError(fe.Field(), fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

func (a Appointment) ID() string           { return a.id }
func (a Appointment) PatientName() string  { return a.patientName }
func (a Appointment) ProviderName() string { return a.providerName }
func (a Appointment) Room() string         { return a.room }
func (a Appointment) Start() time.Time     { return a.start }
func (a Appointment) End() time.Time       { return a.end }

func (a Appointment) Duration() time.Duration {
	return a.end.Sub(a.start)
}

// Reschedule moves the appointment to [newStart, newEnd). Business hours and
// conflicts are the scheduler's concern; on error nothing changes.
func (a *Appointment) Reschedule(newStart, newEnd time.Time) error {
	if !newEnd.After(newStart) {
		return validationError("end time", "end time must be after start time")
	}
	a.start = newStart
	a.end = newEnd
	return nil
}

// Overlaps treats both ranges as half-open, so touching endpoints do not
// overlap.
func (a Appointment) Overlaps(other Appointment) bool {
	return a.start.Before(other.end) && other.start.Before(a.end)
}

// SameID compares ids case-insensitively.
func (a Appointment) SameID(id string) bool {
	return strings.EqualFold(a.id, strings.TrimSpace(id))
}

func (a Appointment) String() string {
	return fmt.Sprintf("[%s] %s–%s %s with %s in %s",
		a.id,
		a.start.Format(DateTimeLayout),
		a.end.Format(ClockLayout),
		a.patientName,
		a.providerName,
		a.room,
	)
}
