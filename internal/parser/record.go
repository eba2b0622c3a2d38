package parser

// Well-known field names shared with the feature adapter and the rule tier.
const (
	FieldIPAddress   = "ip_address"
	FieldClientID    = "client_id"
	FieldUserID      = "user_id"
	FieldTimestamp   = "timestamp"
	FieldRequest     = "request"
	FieldStatusCode  = "status_code"
	FieldSize        = "size"
	FieldReferer     = "referer"
	FieldUserAgent   = "user_agent"
	FieldHostname    = "hostname"
	FieldProcessInfo = "process_info"
	FieldMessage     = "message"
	FieldRawMessage  = "raw_message"
)

// Record is the normalized representation of one log line: the format that
// matched plus the extracted fields. A record is immutable after parsing.
// Absent fields are simply missing from the map; the typed accessors return
// ("", false) rather than fabricating values.
type Record struct {
	Format string
	Fields map[string]string
}

// Field returns the named field and whether it was extracted
func (r *Record) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// IP returns the structured source IP field, if any
func (r *Record) IP() string {
	return r.Fields[FieldIPAddress]
}

// Status returns the HTTP status code field, if any
func (r *Record) Status() string {
	return r.Fields[FieldStatusCode]
}

// Message returns the free-text message field, falling back to the retained
// raw line for unknown-format records
func (r *Record) Message() string {
	if v, ok := r.Fields[FieldMessage]; ok {
		return v
	}
	return r.Fields[FieldRawMessage]
}

// Request returns the HTTP request field, if any
func (r *Record) Request() string {
	return r.Fields[FieldRequest]
}

// ProcessInfo returns the syslog process identifier field, if any
func (r *Record) ProcessInfo() string {
	return r.Fields[FieldProcessInfo]
}
