package parser

import (
	"strings"
	"time"
)

// apacheTimeLayout matches '08/Nov/2025:15:50:01 +0700'
const apacheTimeLayout = "02/Jan/2006:15:04:05 -0700"

// syslogTimeLayout matches 'Nov  8 16:01:15' (no year, no zone)
const syslogTimeLayout = "Jan _2 15:04:05"

// rolloverGrace bounds how far in the future a year-inferred syslog timestamp
// may land before it is assumed to come from the previous calendar year.
const rolloverGrace = 72 * time.Hour

// Parser matches raw lines against an ordered set of format descriptors and
// normalizes their timestamps. It is immutable after construction and safe
// for concurrent use.
type Parser struct {
	formats []FormatDescriptor
	now     func() time.Time
}

// New creates a parser with the built-in descriptors
func New() *Parser {
	return NewWithFormats(DefaultFormats())
}

// NewWithFormats creates a parser trying the given descriptors in order
func NewWithFormats(formats []FormatDescriptor) *Parser {
	return &Parser{
		formats: formats,
		now:     time.Now,
	}
}

// Parse matches the line against each descriptor in priority order. The
// first match wins. On no match the line is not discarded: it comes back
// tagged unknown with the raw text retained, so the classifier tier can
// still look at it.
func (p *Parser) Parse(line string) *Record {
	line = strings.TrimSpace(line)

	for _, desc := range p.formats {
		matches := desc.Pattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		fields := make(map[string]string, len(desc.Fields))
		for i, name := range desc.Fields {
			fields[name] = matches[i+1]
		}

		p.normalizeTimestamp(desc.Name, fields)

		return &Record{
			Format: desc.Name,
			Fields: fields,
		}
	}

	return &Record{
		Format: FormatUnknown,
		Fields: map[string]string{FieldRawMessage: line},
	}
}

// normalizeTimestamp rewrites the raw timestamp field as RFC 3339, or removes
// it when malformed. A bad timestamp never fails the parse: downstream tiers
// that do not need the field still get a usable record.
func (p *Parser) normalizeTimestamp(format string, fields map[string]string) {
	raw, ok := fields[FieldTimestamp]
	if !ok {
		return
	}

	var ts time.Time
	var err error

	switch format {
	case FormatApacheCombined, FormatApacheCommon:
		ts, err = time.Parse(apacheTimeLayout, raw)
	case FormatAuthSyslog:
		ts, err = p.parseSyslogTime(raw)
	default:
		return
	}

	if err != nil {
		delete(fields, FieldTimestamp)
		return
	}
	fields[FieldTimestamp] = ts.Format(time.RFC3339)
}

// parseSyslogTime handles the year-less syslog timestamp. The year is
// inferred from the current clock; a result landing further than
// rolloverGrace in the future means the line crossed a calendar-year
// boundary and belongs to the previous year.
func (p *Parser) parseSyslogTime(raw string) (time.Time, error) {
	parsed, err := time.Parse(syslogTimeLayout, raw)
	if err != nil {
		return time.Time{}, err
	}

	now := p.now()
	ts := time.Date(now.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)

	if ts.After(now.UTC().Add(rolloverGrace)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts, nil
}
