package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/correction"
)

// ErrRecipientNotFound is returned by Send when the hint resolves to no
// known contact. Unlike provider failures this surfaces to the caller:
// the message is not sent.
var ErrRecipientNotFound = errors.New("recipient not found")

// ErrNotConnected is returned by Send when no delivery client is attached
// or the client reports a dead connection.
var ErrNotConnected = errors.New("not connected to delivery network")

// Deliverer is the external messaging-network collaborator. Send resolves
// the handle and transmits the text as one logical, retryable operation,
// returning the network's message id.
type Deliverer interface {
	Connected() bool
	Send(ctx context.Context, handle, text string) (int, error)
}

// Recorder logs delivered messages; nil disables history.
type Recorder interface {
	Record(ctx context.Context, recipientName, recipientHandle, body string, messageID int, sentAt time.Time) error
}

// Preview is the dry-run outcome of the pipeline: corrected body, resolved
// target (nil when unresolved), and the underlying correction result.
type Preview struct {
	Original  string                   `json:"original"`
	Corrected string                   `json:"corrected"`
	Target    *contacts.ResolvedTarget `json:"recipient"`
	Result    correction.Result        `json:"-"`
}

// Outcome describes a completed delivery.
type Outcome struct {
	Body      string
	Target    contacts.ResolvedTarget
	MessageID int
}

// Pipeline wires the correction adapter, contact directory, and delivery
// collaborator into the dictation flow: raw text in, delivered message
// out. It is constructed once at startup and passed to request handlers;
// there is no package-level shared state.
type Pipeline struct {
	directory *contacts.Directory
	deliverer Deliverer
	history   Recorder
	tracer    trace.Tracer

	mu    sync.RWMutex
	fixer *correction.Fixer
}

// New builds a pipeline. deliverer and history may be nil: a nil deliverer
// makes Send fail with ErrNotConnected, a nil history disables logging.
func New(fixer *correction.Fixer, dir *contacts.Directory, deliverer Deliverer, history Recorder) *Pipeline {
	return &Pipeline{
		fixer:     fixer,
		directory: dir,
		deliverer: deliverer,
		history:   history,
		tracer:    otel.Tracer("pipeline"),
	}
}

// CorrectionProvider reports which AI provider backs grammar correction,
// "none" in degraded mode.
func (p *Pipeline) CorrectionProvider() string {
	return p.currentFixer().ActiveProvider()
}

// ReplaceFixer swaps the correction adapter. Called when provider
// credentials change at runtime; in-flight requests keep the adapter they
// started with.
func (p *Pipeline) ReplaceFixer(f *correction.Fixer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixer = f
}

func (p *Pipeline) currentFixer() *correction.Fixer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fixer
}

// Compose runs correction and resolution without sending. explicitHint,
// when non-empty, wins over the detected recipient. fixGrammar=false skips
// the correction adapter entirely and uses the raw text.
func (p *Pipeline) Compose(ctx context.Context, raw, explicitHint string, fixGrammar bool) Preview {
	ctx, span := p.tracer.Start(ctx, "pipeline.compose")
	defer span.End()

	fixer := p.currentFixer()

	corrected := raw
	hint := explicitHint
	var res correction.Result

	if fixGrammar {
		res = fixer.Fix(ctx, raw, p.directory.ContactIDs())
		corrected = res.CorrectedText
		if hint == "" {
			hint = res.DetectedRecipient
		}
	}

	target := p.directory.Resolve(hint)

	name := ""
	if target != nil {
		name = target.Name
	}
	body := StripAddressing(corrected, name)

	span.SetAttributes(
		attribute.Bool("recipient.resolved", target != nil),
		attribute.String("correction.provider", fixer.ActiveProvider()),
	)

	return Preview{
		Original:  raw,
		Corrected: body,
		Target:    target,
		Result:    res,
	}
}

// Send runs the full pipeline and delivers the result. Resolution failure
// returns ErrRecipientNotFound wrapped with the offending hint; delivery
// failures are returned as-is. The preview is returned even on failure so
// callers can echo the corrected text back to the user.
func (p *Pipeline) Send(ctx context.Context, raw, explicitHint string, fixGrammar bool) (Preview, *Outcome, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.send")
	defer span.End()

	preview := p.Compose(ctx, raw, explicitHint, fixGrammar)
	if preview.Target == nil {
		hint := explicitHint
		if hint == "" {
			hint = preview.Result.DetectedRecipient
		}
		return preview, nil, fmt.Errorf("%w: %q", ErrRecipientNotFound, hint)
	}

	if p.deliverer == nil || !p.deliverer.Connected() {
		return preview, nil, ErrNotConnected
	}

	msgID, err := p.deliverer.Send(ctx, preview.Target.Handle, preview.Corrected)
	if err != nil {
		return preview, nil, fmt.Errorf("deliver to %s: %w", preview.Target.Handle, err)
	}

	outcome := &Outcome{
		Body:      preview.Corrected,
		Target:    *preview.Target,
		MessageID: msgID,
	}

	if p.history != nil {
		if err := p.history.Record(ctx, outcome.Target.Name, outcome.Target.Handle, outcome.Body, msgID, time.Now()); err != nil {
			// History is best-effort; the message is already delivered.
			slog.Warn("pipeline: failed to record sent message", "error", err)
		}
	}

	slog.Info("message delivered",
		"recipient", outcome.Target.Handle,
		"message_id", msgID,
		"chars", len(outcome.Body),
	)
	return preview, outcome, nil
}
