package correction

import (
	"fmt"
	"regexp"
	"strings"
)

// jsonObjectPattern matches the first brace-delimited object in a provider
// response. Providers sometimes wrap the JSON in prose, so the whole
// response is scanned rather than decoded directly.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{[^{}]*\}`)

// buildPrompt renders the fixed correction instruction with the known
// contact list and the raw transcription embedded.
func buildPrompt(text string, knownContacts []string) string {
	contactsStr := "none specified"
	if len(knownContacts) > 0 {
		contactsStr = strings.Join(knownContacts, ", ")
	}

	return fmt.Sprintf(`You are a grammar correction assistant for a messaging app.
Your task is to:
1. Fix any grammar, spelling, or punctuation errors in the transcribed speech
2. Identify who the message should be sent to
3. Extract just the message content (remove "send to X" prefix)

Known contacts: %s

Input (speech-to-text transcription):
"%s"

Respond in JSON format only:
{
    "corrected_message": "the corrected message content only (not including 'send to X' prefix)",
    "recipient": "detected recipient name or null if unclear",
    "confidence": 0.0-1.0
}

Examples:
- Input: "send message to rahul saying hey can you send me teh files tommorow"
  Output: {"corrected_message": "Hey, can you send me the files tomorrow?", "recipient": "rahul", "confidence": 0.95}

- Input: "tell my boss that the meeting went good and we closed the deal"
  Output: {"corrected_message": "The meeting went well and we closed the deal.", "recipient": "boss", "confidence": 0.9}

Now process the input above:`, contactsStr, text)
}

// extractJSONObject returns the first brace-delimited object found anywhere
// in raw, or "" when there is none.
func extractJSONObject(raw string) string {
	return jsonObjectPattern.FindString(raw)
}
