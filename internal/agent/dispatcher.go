package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yolodolo42/notecompanion/internal/vault"
)

var (
	ErrNotInteractive  = errors.New("tool does not take a user choice")
	ErrAlreadySettled  = errors.New("invocation already has a result")
	ErrUnknownAction   = errors.New("unknown action")
	ErrAlreadyReported = errors.New("result already reported for this tool call")
)

// Confirmation results reported for the two actions of askForConfirmation
const (
	ConfirmedResult = "Yes, confirmed."
	CancelledResult = "No, cancelled."
)

// TranscriptFetcher fetches video transcripts and titles
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) (string, error)
	Title(ctx context.Context, videoID string) (string, error)
}

// Dispatcher maps invocations to views and runs the actions behind them.
type Dispatcher struct {
	reporter    Reporter
	tracker     *Tracker
	vault       vault.Vault
	transcripts TranscriptFetcher
	logger      *slog.Logger

	onSearchResults func([]SearchResult)
	onTranscript    func(TranscriptResult)
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithVault sets the document collection searched by getSearchQuery
func WithVault(v vault.Vault) Option {
	return func(d *Dispatcher) { d.vault = v }
}

// WithTranscripts sets the fetcher used by getYoutubeVideoId
func WithTranscripts(f TranscriptFetcher) Option {
	return func(d *Dispatcher) { d.transcripts = f }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// OnSearchResults registers a callback run with search matches before they are reported
func OnSearchResults(fn func([]SearchResult)) Option {
	return func(d *Dispatcher) { d.onSearchResults = fn }
}

// OnTranscript registers a callback run with a fetched transcript before it is reported
func OnTranscript(fn func(TranscriptResult)) Option {
	return func(d *Dispatcher) { d.onTranscript = fn }
}

// NewDispatcher creates a dispatcher reporting to reporter. The tracker is
// owned by the caller; nil gets a fresh one.
func NewDispatcher(reporter Reporter, tracker *Tracker, opts ...Option) *Dispatcher {
	if tracker == nil {
		tracker = NewTracker()
	}
	d := &Dispatcher{
		reporter: reporter,
		tracker:  tracker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tracker returns the tracker the dispatcher records starts and reports in
func (d *Dispatcher) Tracker() *Tracker {
	return d.tracker
}

// Render describes inv in its current state. For a Pending search or
// transcript invocation the first Render starts the action and returns a
// View whose Done channel yields the Outcome; later Renders of the same
// tool call return the in-progress view without starting anything.
func (d *Dispatcher) Render(ctx context.Context, inv Invocation) View {
	call := Decode(inv)
	v := View{
		ToolCallID: inv.ToolCallID,
		ToolName:   inv.ToolName,
		Title:      Title(inv.ToolName),
		State:      inv.State(),
	}

	if inv.Settled() {
		call.renderSettled(*inv.Result, &v)
		return v
	}

	call.renderPending(&v)
	if act, ok := call.(actionCall); ok {
		v.Done = d.trigger(ctx, inv, act)
	}
	return v
}

func (d *Dispatcher) trigger(ctx context.Context, inv Invocation, act actionCall) <-chan Outcome {
	if !d.tracker.Start(inv.ToolCallID) {
		return nil
	}

	// Started actions run to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		done <- d.run(ctx, inv, act)
	}()
	return done
}

func (d *Dispatcher) run(ctx context.Context, inv Invocation, act actionCall) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool action panicked", "tool", inv.ToolName, "tool_call_id", inv.ToolCallID, "panic", r)
			out = d.settle(inv, ErrorResult{Error: fmt.Sprint(r)})
		}
	}()

	d.logger.Debug("tool action started", "tool", inv.ToolName, "tool_call_id", inv.ToolCallID)
	value, err := act.perform(ctx, d)
	if err != nil {
		d.logger.Warn("tool action failed", "tool", inv.ToolName, "tool_call_id", inv.ToolCallID, "error", err)
		value = ErrorResult{Error: err.Error()}
	}
	return d.settle(inv, value)
}

// settle encodes value and reports it, unless a result was already reported
func (d *Dispatcher) settle(inv Invocation, value any) Outcome {
	out := Outcome{Result: encodeResult(value), Value: value}
	if !d.report(inv, out.Result) {
		d.logger.Warn("dropping duplicate tool result", "tool", inv.ToolName, "tool_call_id", inv.ToolCallID)
	}
	return out
}

func (d *Dispatcher) report(inv Invocation, result string) bool {
	if !d.tracker.MarkReported(inv.ToolCallID) {
		return false
	}
	if d.reporter != nil {
		d.reporter.ReportResult(ToolResult{ToolCallID: inv.ToolCallID, Result: result})
	}
	return true
}

// Settle reports value as the result of inv for tools the host executes
// itself. It is also how failures outside an action are surfaced.
func (d *Dispatcher) Settle(inv Invocation, value any) (Outcome, error) {
	if inv.Settled() {
		return Outcome{}, ErrAlreadySettled
	}
	out := Outcome{Result: encodeResult(value), Value: value}
	if !d.report(inv, out.Result) {
		return Outcome{}, ErrAlreadyReported
	}
	return out, nil
}

// Choose resolves a Pending confirmation with the action the user picked.
func (d *Dispatcher) Choose(inv Invocation, actionID string) (string, error) {
	if inv.ToolName != ToolAskForConfirmation {
		return "", ErrNotInteractive
	}
	if inv.Settled() {
		return "", ErrAlreadySettled
	}

	var result string
	switch actionID {
	case ActionConfirm:
		result = ConfirmedResult
	case ActionCancel:
		result = CancelledResult
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}

	if !d.report(inv, result) {
		return "", ErrAlreadyReported
	}
	return result, nil
}
