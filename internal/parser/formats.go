package parser

import "regexp"

// Format tags attached to parsed records
const (
	FormatApacheCombined = "apache_combined"
	FormatApacheCommon   = "apache_common"
	FormatAuthSyslog     = "auth_syslog"
	FormatUnknown        = "unknown"
)

// FormatDescriptor is an immutable log-format definition: a pattern and the
// ordered field names its capture groups map to.
type FormatDescriptor struct {
	Name    string
	Pattern *regexp.Regexp
	Fields  []string
}

// DefaultFormats returns the built-in descriptors in priority order.
//
// The order is a correctness requirement, not a tuning knob: apache_combined
// (9 fields) must be tried before apache_common (7 fields), otherwise a
// combined line matches the common pattern and silently loses its referer
// and user-agent fields.
func DefaultFormats() []FormatDescriptor {
	return []FormatDescriptor{
		{
			Name:    FormatApacheCombined,
			Pattern: regexp.MustCompile(`([\d\.]+) (\S+) (\S+) \[([\w:/]+\s[+\-]\d{4})\] "([^"]*)" (\d{3}) (\S+) "([^"]*)" "([^"]*)"`),
			Fields: []string{
				FieldIPAddress,
				FieldClientID,
				FieldUserID,
				FieldTimestamp,
				FieldRequest,
				FieldStatusCode,
				FieldSize,
				FieldReferer,
				FieldUserAgent,
			},
		},
		{
			Name:    FormatApacheCommon,
			Pattern: regexp.MustCompile(`([\d\.]+) (\S+) (\S+) \[([\w:/]+\s[+\-]\d{4})\] "([^"]*)" (\d{3}) (\S+)`),
			Fields: []string{
				FieldIPAddress,
				FieldClientID,
				FieldUserID,
				FieldTimestamp,
				FieldRequest,
				FieldStatusCode,
				FieldSize,
			},
		},
		{
			Name:    FormatAuthSyslog,
			Pattern: regexp.MustCompile(`^(\w{3}\s+\d+\s[\d:]+) (\S+) ([^:]+): (.*)$`),
			Fields: []string{
				FieldTimestamp,
				FieldHostname,
				FieldProcessInfo,
				FieldMessage,
			},
		},
	}
}
