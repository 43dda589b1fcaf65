// Package shell is the interactive terminal front end. It gathers input,
// calls the scheduler and renders the outcome; it holds no booking rules of
// its own.
package shell

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"medscheduler/internal/domain"
	"medscheduler/internal/logging"
	"medscheduler/internal/store"
)

// Scheduler is the part of the appointments service the shell drives.
type Scheduler interface {
	Add(appt domain.Appointment) error
	Cancel(id string) bool
	Reschedule(id string, newStart, newEnd time.Time) error
	Get(id string) (domain.Appointment, bool)
	ListByProvider(name string) []domain.Appointment
	ListByDay(day time.Time) []domain.Appointment
	All() []domain.Appointment
}

const cancelKeyword = "cancel"

const invalidDateTimeMsg = "Invalid date/time format. Use yyyy-MM-dd HH:mm (e.g., 2025-11-15 09:30)."

type mode int

const (
	modeMenu mode = iota
	modePrompt
)

type action int

const (
	actionAdd action = iota + 1
	actionCancel
	actionReschedule
	actionListAll
	actionListByProvider
	actionListByDay
	actionSave
	actionLoad
	actionExit
)

type menuItem struct {
	action action
	label  string
}

var menuItems = []menuItem{
	{actionAdd, "Add Appointment"},
	{actionCancel, "Cancel Appointment"},
	{actionReschedule, "Reschedule Appointment"},
	{actionListAll, "List All Appointments"},
	{actionListByProvider, "List by Provider"},
	{actionListByDay, "List by Day"},
	{actionSave, "Save Appointments"},
	{actionLoad, "Load Appointments"},
	{actionExit, "Exit"},
}

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldDateTime
	fieldDay
)

type prompt struct {
	label       string
	placeholder string
	kind        fieldKind
}

// form collects the answers for one operation, one prompt at a time.
type form struct {
	action  action
	title   string
	prompts []prompt
	step    int
	text    []string
	times   []time.Time
}

func (f *form) current() prompt {
	return f.prompts[f.step]
}

func (f *form) done() bool {
	return f.step >= len(f.prompts)
}

type outputKind int

const (
	outputPlain outputKind = iota
	outputHeader
	outputSuccess
	outputError
)

type outputLine struct {
	text string
	kind outputKind
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator replaces the generator used when the id prompt is left blank.
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) {
		m.newID = fn
	}
}

// Model is the bubbletea model for the scheduler menu.
type Model struct {
	sched Scheduler
	repo  store.AppointmentRepository
	log   logging.Logger
	newID func() string

	mode     mode
	cursor   int
	form     *form
	input    textinput.Model
	output   []outputLine
	quitting bool
}

func New(sched Scheduler, repo store.AppointmentRepository, log logging.Logger, opts ...Option) *Model {
	if log == nil {
		log = logging.Nop()
	}
	in := textinput.New()
	in.Prompt = "> "

	m := &Model{
		sched: sched,
		repo:  repo,
		log:   log,
		newID: generateID,
		input: in,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func generateID() string {
	return "A-" + strings.ToUpper(uuid.NewString()[:8])
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		if k.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			return m.updateMenu(k)
		case modePrompt:
			return m.updatePrompt(k)
		}
	}

	if m.mode == modePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateMenu(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.choose(menuItems[m.cursor].action)
	}

	if s := k.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		idx := int(s[0] - '1')
		if idx < len(menuItems) {
			m.cursor = idx
			return m.choose(menuItems[idx].action)
		}
	}
	m.setOutput(outputLine{text: "Invalid option.", kind: outputError})
	return m, nil
}

func (m *Model) choose(a action) (tea.Model, tea.Cmd) {
	switch a {
	case actionAdd:
		return m.startForm(a, "Add Appointment",
			prompt{label: "Appointment ID (blank to generate)", placeholder: "A1001"},
			prompt{label: "Patient name", placeholder: "Ann Lee"},
			prompt{label: "Provider name", placeholder: "Dr. Nguyen"},
			prompt{label: "Room", placeholder: "Room 201"},
			prompt{label: "Start (yyyy-MM-dd HH:mm)", placeholder: "2025-11-15 09:30", kind: fieldDateTime},
			prompt{label: "End (yyyy-MM-dd HH:mm)", placeholder: "2025-11-15 10:00", kind: fieldDateTime},
		)
	case actionCancel:
		return m.startForm(a, "Cancel Appointment",
			prompt{label: "Appointment ID", placeholder: "A1001"},
		)
	case actionReschedule:
		return m.startForm(a, "Reschedule Appointment",
			prompt{label: "Appointment ID", placeholder: "A1001"},
			prompt{label: "New start (yyyy-MM-dd HH:mm)", placeholder: "2025-11-15 13:00", kind: fieldDateTime},
			prompt{label: "New end (yyyy-MM-dd HH:mm)", placeholder: "2025-11-15 13:30", kind: fieldDateTime},
		)
	case actionListByProvider:
		return m.startForm(a, "List by Provider",
			prompt{label: "Provider name", placeholder: "Dr. Nguyen"},
		)
	case actionListByDay:
		return m.startForm(a, "List by Day",
			prompt{label: "Day (yyyy-MM-dd)", placeholder: "2025-11-15", kind: fieldDay},
		)
	case actionListAll:
		m.listAll()
	case actionSave:
		m.save()
	case actionLoad:
		m.load()
	case actionExit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startForm(a action, title string, prompts ...prompt) (tea.Model, tea.Cmd) {
	m.form = &form{
		action:  a,
		title:   title,
		prompts: prompts,
		text:    make([]string, len(prompts)),
		times:   make([]time.Time, len(prompts)),
	}
	m.mode = modePrompt
	m.output = nil
	return m, m.resetInput()
}

func (m *Model) resetInput() tea.Cmd {
	m.input.Reset()
	m.input.Placeholder = m.form.current().placeholder
	return m.input.Focus()
}

func (m *Model) updatePrompt(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyEsc:
		m.abort()
		return m, nil
	case tea.KeyEnter:
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if strings.EqualFold(raw, cancelKeyword) {
		m.abort()
		return m, nil
	}

	f := m.form
	switch f.current().kind {
	case fieldDateTime:
		t, err := time.ParseInLocation(domain.DateTimeLayout, raw, time.Local)
		if err != nil {
			m.finish(outputLine{text: invalidDateTimeMsg, kind: outputError})
			return m, nil
		}
		f.times[f.step] = t
	case fieldDay:
		t, ok := parseDay(raw)
		if !ok {
			m.finish(outputLine{text: invalidDateTimeMsg, kind: outputError})
			return m, nil
		}
		f.times[f.step] = t
	}
	f.text[f.step] = raw
	f.step++

	if !f.done() {
		return m, m.resetInput()
	}

	m.finish()
	m.run(f)
	return m, nil
}

func parseDay(raw string) (time.Time, bool) {
	for _, layout := range []string{domain.DateLayout, domain.DateTimeLayout} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *Model) abort() {
	m.finish(outputLine{text: "Operation cancelled.", kind: outputPlain})
}

// finish leaves prompt mode, replacing the output with lines.
func (m *Model) finish(lines ...outputLine) {
	m.mode = modeMenu
	m.form = nil
	m.input.Blur()
	m.input.Reset()
	m.setOutput(lines...)
}

func (m *Model) run(f *form) {
	switch f.action {
	case actionAdd:
		m.add(f.text[0], f.text[1], f.text[2], f.text[3], f.times[4], f.times[5])
	case actionCancel:
		m.cancel(f.text[0])
	case actionReschedule:
		m.reschedule(f.text[0], f.times[1], f.times[2])
	case actionListByProvider:
		m.listByProvider(f.text[0])
	case actionListByDay:
		m.listByDay(f.times[0])
	}
}

func (m *Model) add(id, patient, provider, room string, start, end time.Time) {
	if id == "" {
		id = m.newID()
	}
	appt, err := domain.NewAppointment(id, patient, provider, start, end, room)
	if err == nil {
		err = m.sched.Add(appt)
	}
	if err != nil {
		m.reportError("Add", err)
		return
	}
	m.setOutput(outputLine{text: "Appointment added: " + appt.String(), kind: outputSuccess})
}

func (m *Model) cancel(id string) {
	if !m.sched.Cancel(id) {
		m.log.Warn(fmt.Sprintf("Cancel failed: appointment '%s' not found.", id))
		m.setOutput(outputLine{text: fmt.Sprintf("No appointment found with ID '%s'.", id), kind: outputError})
		return
	}
	m.setOutput(outputLine{text: fmt.Sprintf("Appointment '%s' cancelled.", id), kind: outputSuccess})
}

func (m *Model) reschedule(id string, start, end time.Time) {
	if err := m.sched.Reschedule(id, start, end); err != nil {
		m.reportError("Reschedule", err)
		return
	}
	text := fmt.Sprintf("Appointment '%s' rescheduled.", id)
	if appt, ok := m.sched.Get(id); ok {
		text = "Appointment rescheduled: " + appt.String()
	}
	m.setOutput(outputLine{text: text, kind: outputSuccess})
}

func (m *Model) listAll() {
	m.renderList("--- All Appointments ---", "No appointments scheduled.", m.sched.All())
}

func (m *Model) listByProvider(name string) {
	m.renderList(
		fmt.Sprintf("--- Appointments for %s ---", name),
		fmt.Sprintf("No appointments found for provider '%s'.", name),
		m.sched.ListByProvider(name),
	)
}

func (m *Model) listByDay(day time.Time) {
	d := day.Format(domain.DateLayout)
	m.renderList(
		fmt.Sprintf("--- Appointments on %s ---", d),
		fmt.Sprintf("No appointments on %s.", d),
		m.sched.ListByDay(day),
	)
}

func (m *Model) renderList(header, empty string, appts []domain.Appointment) {
	if len(appts) == 0 {
		m.setOutput(outputLine{text: empty, kind: outputPlain})
		return
	}
	lines := make([]outputLine, 0, len(appts)+1)
	lines = append(lines, outputLine{text: header, kind: outputHeader})
	for _, a := range appts {
		lines = append(lines, outputLine{text: a.String(), kind: outputPlain})
	}
	m.setOutput(lines...)
}

func (m *Model) save() {
	appts := m.sched.All()
	if err := m.repo.Save(appts); err != nil {
		m.reportError("Save", err)
		return
	}
	m.setOutput(outputLine{text: fmt.Sprintf("Saved %d appointment(s).", len(appts)), kind: outputSuccess})
}

func (m *Model) load() {
	res, err := m.repo.Load(m.sched)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.log.Warn(fmt.Sprintf("Load skipped: %v", err))
			m.setOutput(outputLine{text: "No saved appointments file found.", kind: outputError})
			return
		}
		m.reportError("Load", err)
		return
	}
	m.setOutput(outputLine{
		text: fmt.Sprintf("Loaded %d appointment(s), skipped %d.", res.Loaded, res.Skipped),
		kind: outputSuccess,
	})
}

// reportError renders caller-facing failures by kind. Anything unclassified
// is logged at ERROR and shown generically.
func (m *Model) reportError(op string, err error) {
	var (
		vErr *domain.ValidationError
		tErr *domain.InvalidTimeError
		dErr *domain.DoubleBookingError
		nErr *domain.NotFoundError
	)

	var text string
	switch {
	case errors.As(err, &dErr):
		text = "Conflict: " + dErr.Error()
	case errors.As(err, &tErr):
		text = "Invalid time: " + tErr.Error()
	case errors.As(err, &vErr):
		text = "Invalid input: " + vErr.Error()
	case errors.As(err, &nErr):
		text = "Not found: " + nErr.Error()
	default:
		m.log.Error(fmt.Sprintf("%s failed: %v", op, err))
		m.setOutput(outputLine{text: "An unexpected error occurred. See the log for details.", kind: outputError})
		return
	}

	m.log.Warn(fmt.Sprintf("%s rejected: %v", op, err))
	m.setOutput(outputLine{text: text, kind: outputError})
}

func (m *Model) setOutput(lines ...outputLine) {
	m.output = lines
}

// Output returns the result of the last operation as plain text.
func (m *Model) Output() []string {
	out := make([]string, 0, len(m.output))
	for _, l := range m.output {
		out = append(out, l.text)
	}
	return out
}

// Quitting reports whether the user asked to exit.
func (m *Model) Quitting() bool {
	return m.quitting
}
