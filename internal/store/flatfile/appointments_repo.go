package flatfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/afero"

	"medscheduler/internal/domain"
	"medscheduler/internal/logging"
	"medscheduler/internal/store"
)

const (
	fieldCount = 6
	separator  = '|'
	escape     = '\\'
)

// AppointmentRepo keeps the appointment collection in a single text file,
// one pipe-delimited record per line:
//
//	id|patientName|providerName|start|end|room
type AppointmentRepo struct {
	fs   afero.Fs
	path string
	log  logging.Logger
}

func NewAppointmentRepo(fsys afero.Fs, path string, log logging.Logger) *AppointmentRepo {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &AppointmentRepo{fs: fsys, path: path, log: log}
}

// Path is the file the repository reads and writes.
func (r *AppointmentRepo) Path() string {
	return r.path
}

// Save rewrites the whole file with appts.
func (r *AppointmentRepo) Save(appts []domain.Appointment) error {
	var buf bytes.Buffer
	for _, a := range appts {
		buf.WriteString(EncodeRecord(a))
		buf.WriteByte('\n')
	}

	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("flatfile: write %s: %w", tmp, err)
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("flatfile: replace %s: %w", r.path, err)
	}

	r.log.Info(fmt.Sprintf("Saved %d appointment(s) to %s", len(appts), r.path))
	return nil
}

// Load books every record through dst. Records that fail to parse or that dst
// rejects are skipped and logged; only an unreadable file is an error.
func (r *AppointmentRepo) Load(dst store.Booker) (store.LoadResult, error) {
	var res store.LoadResult

	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("flatfile: %s: %w", r.path, store.ErrNotFound)
		}
		return res, fmt.Errorf("flatfile: read %s: %w", r.path, err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		lineNo := i + 1
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		appt, err := DecodeRecord(line)
		if err == nil {
			err = dst.Add(appt)
		}
		if err != nil {
			res.Skipped++
			r.log.Warn(fmt.Sprintf("Skipped line %d: %q (%v)", lineNo, line, err))
			continue
		}
		res.Loaded++
	}

	r.log.Info(fmt.Sprintf("Loaded %d appointment(s) from %s (%d skipped)", res.Loaded, r.path, res.Skipped))
	return res, nil
}

// EncodeRecord renders a single line without the trailing newline.
func EncodeRecord(a domain.Appointment) string {
	fields := []string{
		a.ID(),
		a.PatientName(),
		a.ProviderName(),
		a.Start().Format(domain.DateTimeLayout),
		a.End().Format(domain.DateTimeLayout),
		a.Room(),
	}
	for i, f := range fields {
		fields[i] = escapeField(f)
	}
	return strings.Join(fields, string(separator))
}

// DecodeRecord parses one line and runs it through entity validation.
// Timestamps are read in the local zone.
func DecodeRecord(line string) (domain.Appointment, error) {
	fields := splitRecord(line)
	if len(fields) != fieldCount {
		return domain.Appointment{}, fmt.Errorf("%w: expected %d fields, got %d", store.ErrMalformed, fieldCount, len(fields))
	}

	start, err := time.ParseInLocation(domain.DateTimeLayout, strings.TrimSpace(fields[3]), time.Local)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("%w: start %q", store.ErrMalformed, fields[3])
	}
	end, err := time.ParseInLocation(domain.DateTimeLayout, strings.TrimSpace(fields[4]), time.Local)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("%w: end %q", store.ErrMalformed, fields[4])
	}

	return domain.NewAppointment(fields[0], fields[1], fields[2], start, end, fields[5])
}

func escapeField(s string) string {
	if !strings.ContainsAny(s, `\|`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == escape || r == separator {
			b.WriteRune(escape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitRecord splits on unescaped separators. A backslash escapes only a
// separator or another backslash; any other backslash is kept literally.
func splitRecord(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == escape && i+1 < len(runes) && (runes[i+1] == separator || runes[i+1] == escape):
			i++
			cur.WriteRune(runes[i])
		case r == separator:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}
