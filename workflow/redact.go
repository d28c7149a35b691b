package workflow

import "regexp"

// RedactedEmailPlaceholder replaces email addresses in redacted text.
// It contains no '@', so redaction is idempotent.
const RedactedEmailPlaceholder = "[REDACTED_EMAIL]"

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

// RedactPII replaces email-shaped substrings with RedactedEmailPlaceholder.
// It is pure and total: any input returns a result, and text without
// matches is returned unchanged.
func RedactPII(text string) string {
	return emailPattern.ReplaceAllString(text, RedactedEmailPlaceholder)
}
