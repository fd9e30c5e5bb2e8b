package pipeline

import (
	"regexp"
	"strings"
)

// The handle and greeting prefixes are fixed; the recipient-name prefix is
// compiled per call because it embeds the resolved name.
var (
	handlePrefixPattern   = regexp.MustCompile(`(?i)^(send|message|tell|text)\s+(to\s+)?@\w+\s*(that|saying|:)?\s*`)
	greetingPrefixPattern = regexp.MustCompile(`(?i)^(hey|hi|hello)\s+\w+\s*,?\s*`)
)

// StripAddressing removes leading addressing language from a corrected
// message body: a prefix naming the resolved recipient, a prefix naming a
// raw @handle, and a bare greeting. Each pattern is anchored to the start,
// matched case-insensitively, and applied at most once, in that fixed
// order. The patterns stay separate matchers rather than one combined
// expression so each can be audited and tested on its own.
func StripAddressing(text, recipientName string) string {
	result := text

	if recipientName != "" {
		namePrefix := regexp.MustCompile(
			`(?i)^(send|message|tell|text)\s+(to\s+)?` + regexp.QuoteMeta(recipientName) + `\s*(that|saying|:)?\s*`)
		result = namePrefix.ReplaceAllString(result, "")
	}

	result = handlePrefixPattern.ReplaceAllString(result, "")
	result = greetingPrefixPattern.ReplaceAllString(result, "")

	return strings.TrimSpace(result)
}
