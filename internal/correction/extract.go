package correction

import (
	"regexp"
	"strings"
)

var (
	handlePattern = regexp.MustCompile(`@\w+`)
	verbPattern   = regexp.MustCompile(`(?:send|message|tell|text)\s+(?:to\s+)?(\w+)`)
	rolePattern   = regexp.MustCompile(`(?:my\s+)?(boss|manager|lead)`)
)

// ExtractHint guesses the intended recipient of a dictated message using
// pattern matching only. It returns an unresolved hint string, or "" when
// nothing matches. Priority, first match wins:
//
//  1. a literal @handle token anywhere in the text, returned verbatim
//  2. a known alias appearing as a case-insensitive substring, returned
//     exactly as supplied in knownAliases (list order wins)
//  3. a "send/message/tell/text [to] <word>" verb pattern
//  4. a "[my] boss/manager/lead" role reference
//
// Absence of a match is a normal outcome, not an error.
func ExtractHint(text string, knownAliases []string) string {
	if m := handlePattern.FindString(text); m != "" {
		return m
	}

	lower := strings.ToLower(text)
	for _, alias := range knownAliases {
		if alias == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(alias)) {
			return alias
		}
	}

	if m := verbPattern.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	if m := rolePattern.FindStringSubmatch(lower); m != nil {
		return m[1]
	}

	return ""
}
