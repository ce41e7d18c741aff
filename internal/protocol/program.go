package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/voyagen/mythvault/internal/models"
)

// ErrRecordSize is returned when a record does not have the field count
// declared by its protocol version.
var ErrRecordSize = errors.New("program record size mismatch")

// DecodeProgram maps a positional program record onto a RecordedProgram.
// Empty numeric and time fields decode to zero values.
func DecodeProgram(v Version, fields []string) (models.RecordedProgram, error) {
	l, ok := v.layout()
	if !ok {
		return models.RecordedProgram{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(v))
	}
	if len(fields) != l.size {
		return models.RecordedProgram{}, fmt.Errorf("%w: protocol %d wants %d fields, got %d",
			ErrRecordSize, int(v), l.size, len(fields))
	}

	d := decoder{fields: fields}
	p := models.RecordedProgram{
		Title:          d.str(l.title),
		Subtitle:       d.str(l.subtitle),
		Description:    d.str(l.description),
		Category:       d.str(l.category),
		ChannelID:      d.int(l.chanID, "chanid"),
		ChannelNumber:  d.str(l.chanNum),
		CallSign:       d.str(l.callSign),
		ChannelName:    d.str(l.chanName),
		Filename:       d.str(l.filename),
		StartTime:      d.epoch(l.start, "startts"),
		EndTime:        d.epoch(l.end, "endts"),
		Hostname:       d.str(l.hostname),
		RecordingStart: d.epoch(l.recStart, "recstartts"),
		RecordingEnd:   d.epoch(l.recEnd, "recendts"),
		RecGroup:       d.str(l.recGroup),
	}
	if l.fileSize >= 0 {
		p.FileSize = d.int64(l.fileSize, "filesize")
	} else {
		hi := d.int64(l.fileSizeHi, "filesize_hi")
		lo := d.int64(l.fileSizeLo, "filesize_lo")
		p.FileSize = hi<<32 | lo&0xffffffff
	}
	if d.err != nil {
		return models.RecordedProgram{}, d.err
	}
	return p, nil
}

// decoder keeps the first conversion error so field mapping stays linear.
type decoder struct {
	fields []string
	err    error
}

func (d *decoder) str(i int) string {
	if i < 0 {
		return ""
	}
	return d.fields[i]
}

func (d *decoder) int64(i int, name string) int64 {
	s := strings.TrimSpace(d.str(i))
	if s == "" || d.err != nil {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.err = fmt.Errorf("decode %s (field %d): %w", name, i, err)
		return 0
	}
	return int64(f)
}

func (d *decoder) int(i int, name string) int {
	return int(d.int64(i, name))
}

// epoch reads seconds since the Unix epoch, possibly with a fractional part.
func (d *decoder) epoch(i int, name string) time.Time {
	n := d.int64(i, name)
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}

// Separator delimits the fields of a record on the wire.
const Separator = "[]:[]"

// SplitRecord splits a raw wire record into its fields.
func SplitRecord(raw string) []string {
	return strings.Split(strings.TrimSuffix(raw, "\n"), Separator)
}
