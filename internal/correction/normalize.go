package correction

import (
	"regexp"
	"strings"
	"unicode"
)

// replacement is one entry of the speech-to-text cleanup table, matched
// case-insensitively on word boundaries.
type replacement struct {
	re  *regexp.Regexp
	new string
}

// replacements is the fixed, ordered cleanup table. Entries are applied
// independently, so one substitution never triggers another.
var replacements = buildReplacements([][2]string{
	{"im", "I'm"},
	{"i", "I"},
	{"dont", "don't"},
	{"cant", "can't"},
	{"wont", "won't"},
	{"didnt", "didn't"},
	{"doesnt", "doesn't"},
	{"isnt", "isn't"},
	{"arent", "aren't"},
	{"wasnt", "wasn't"},
	{"werent", "weren't"},
	{"youre", "you're"},
	{"theyre", "they're"},
	{"hes", "he's"},
	{"shes", "she's"},
	{"its", "it's"},
	{"weve", "we've"},
	{"ive", "I've"},
	{"teh", "the"},
	{"taht", "that"},
	{"wiht", "with"},
	{"tommorow", "tomorrow"},
	{"tommorrow", "tomorrow"},
})

func buildReplacements(table [][2]string) []replacement {
	out := make([]replacement, 0, len(table))
	for _, pair := range table {
		out = append(out, replacement{
			re:  regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(pair[0]) + `\b`),
			new: pair[1],
		})
	}
	return out
}

// Normalize cleans up a raw speech-to-text transcription without any AI:
// trims whitespace, capitalizes the first rune, appends a period when the
// text lacks terminal punctuation, and fixes common transcription typos
// from a fixed table. It is deterministic, never fails, and returns ""
// for empty input.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	text = string(runes)

	last := runes[len(runes)-1]
	if last != '.' && last != '!' && last != '?' {
		text += "."
	}

	for _, r := range replacements {
		text = r.re.ReplaceAllLiteralString(text, r.new)
	}

	return text
}
