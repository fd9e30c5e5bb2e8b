package correction

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/providers"
)

const (
	// fixTimeout bounds the single provider call per Fix invocation.
	fixTimeout = 30 * time.Second

	// fallbackConfidence is reported whenever the deterministic path runs.
	fallbackConfidence = 0.5

	// defaultAIConfidence is assumed when the provider omits the field.
	defaultAIConfidence = 0.8
)

// Result is the outcome of one correction pass. It is produced fresh per
// request and never persisted.
type Result struct {
	CorrectedText     string  `json:"corrected_text"`
	DetectedRecipient string  `json:"detected_recipient,omitempty"`
	Confidence        float64 `json:"confidence"`
	Err               string  `json:"error,omitempty"`
}

// Fixer corrects dictated text and guesses the intended recipient. When an
// AI provider is configured it is asked first; any transport, HTTP, or
// parse failure degrades to the deterministic Normalize+ExtractHint path.
// Fix never returns an error to its caller.
type Fixer struct {
	provider providers.Provider
}

// NewFixer selects the first non-nil provider as the active one; pass
// candidates in preference order. With no candidates the Fixer runs in
// degraded (AI-free) mode permanently.
func NewFixer(candidates ...providers.Provider) *Fixer {
	f := &Fixer{}
	for _, c := range candidates {
		if c != nil {
			f.provider = c
			break
		}
	}
	return f
}

// ActiveProvider returns the name of the selected provider, or "none".
func (f *Fixer) ActiveProvider() string {
	if f.provider == nil {
		return "none"
	}
	return f.provider.Name()
}

// Fix corrects text and detects a recipient hint against knownContacts.
// The returned hint is unresolved; resolution is the contact directory's
// job, never this component's.
func (f *Fixer) Fix(ctx context.Context, text string, knownContacts []string) Result {
	if f.provider == nil {
		return f.fallback(text, knownContacts, "")
	}

	ctx, cancel := context.WithTimeout(ctx, fixTimeout)
	defer cancel()

	raw, err := f.provider.Complete(ctx, buildPrompt(text, knownContacts))
	if err != nil {
		slog.Warn("correction: provider call failed, using fallback",
			"provider", f.provider.Name(), "error", err)
		return f.fallback(text, knownContacts, err.Error())
	}

	return f.parseResponse(raw, text, knownContacts)
}

// aiResponse is the JSON object the prompt asks the provider to produce.
type aiResponse struct {
	CorrectedMessage string   `json:"corrected_message"`
	Recipient        *string  `json:"recipient"`
	Confidence       *float64 `json:"confidence"`
}

// parseResponse extracts the structured result from a raw provider reply,
// falling back to the deterministic path when no usable JSON is found.
func (f *Fixer) parseResponse(raw, originalText string, knownContacts []string) Result {
	obj := extractJSONObject(raw)
	if obj == "" {
		slog.Debug("correction: no JSON object in provider response")
		return f.fallback(originalText, knownContacts, "")
	}

	var parsed aiResponse
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		slog.Debug("correction: provider JSON did not decode", "error", err)
		return f.fallback(originalText, knownContacts, "")
	}

	corrected := parsed.CorrectedMessage
	if corrected == "" {
		corrected = Normalize(originalText)
	}

	recipient := ""
	if parsed.Recipient != nil {
		recipient = *parsed.Recipient
	}

	confidence := defaultAIConfidence
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	return Result{
		CorrectedText:     corrected,
		DetectedRecipient: recipient,
		Confidence:        confidence,
	}
}

func (f *Fixer) fallback(text string, knownContacts []string, errMsg string) Result {
	return Result{
		CorrectedText:     Normalize(text),
		DetectedRecipient: ExtractHint(text, knownContacts),
		Confidence:        fallbackConfidence,
		Err:               errMsg,
	}
}
