package logging

import "strings"

// sensitiveHeaders lists header names (lower-cased) that must never appear
// verbatim in a log line. Matched case-insensitively.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
	"x-auth-token":  true,
	"proxy-authorization": true,
}

const redacted = "***redacted***"

// SanitizeHeaders returns a copy of hdrs with sensitive header values
// replaced by a redaction marker, suitable for passing to a log call.
func SanitizeHeaders(hdrs map[string][]string) map[string][]string {
	out := make(map[string][]string, len(hdrs))
	for k, v := range hdrs {
		if sensitiveHeaders[strings.ToLower(k)] {
			out[k] = []string{redacted}
			continue
		}
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
