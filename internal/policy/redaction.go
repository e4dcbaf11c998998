// Package policy masks personal data before it leaves the session: log lines,
// queued notifications and published events.
package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	upiPattern   = regexp.MustCompile(`\b[a-zA-Z0-9._\-]{2,}@[a-zA-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+|\b)[0-9][0-9\-() ]{7,}[0-9]\b`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// RedactPII masks emails, UPI handles, card numbers and phone numbers.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	// Email before UPI since a VPA is an email without the domain suffix.
	// Card before phone so long digit runs are not classified as phone numbers.
	for _, r := range []struct {
		pattern *regexp.Regexp
		marker  string
	}{
		{emailPattern, "[REDACTED_EMAIL]"},
		{upiPattern, "[REDACTED_UPI]"},
		{cardPattern, "[REDACTED_CARD]"},
		{phonePattern, "[REDACTED_PHONE]"},
	} {
		next := r.pattern.ReplaceAllString(out, r.marker)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// Redact is RedactPII without the changed flag, for log fields.
func Redact(input string) string {
	out, _ := RedactPII(input)
	return out
}
