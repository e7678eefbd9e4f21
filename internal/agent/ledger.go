package agent

import (
	"errors"
	"log/slog"
	"sync"
)

var ErrUnknownInvocation = errors.New("unknown tool call")

// Ledger is the owner-side record of a conversation's invocations. It is the
// only place a result gets attached, so an invocation moves from Pending to
// Settled exactly once and never back.
type Ledger struct {
	mu     sync.Mutex
	order  []string
	items  map[string]Invocation
	logger *slog.Logger
}

// NewLedger creates an empty ledger
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		items:  make(map[string]Invocation),
		logger: logger,
	}
}

// Add records a new invocation and returns the stored record. Adding an id
// that is already known returns the existing record unchanged.
func (l *Ledger) Add(inv Invocation) Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.items[inv.ToolCallID]; ok {
		return existing
	}
	if inv.Result != nil {
		r := *inv.Result
		inv.Result = &r
	}
	l.items[inv.ToolCallID] = inv
	l.order = append(l.order, inv.ToolCallID)
	return inv
}

// Attach settles a Pending invocation
func (l *Ledger) Attach(id, result string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	inv, ok := l.items[id]
	if !ok {
		return ErrUnknownInvocation
	}
	if inv.Settled() {
		return ErrAlreadySettled
	}
	inv.Result = &result
	l.items[id] = inv
	return nil
}

// Get returns the invocation for id
func (l *Ledger) Get(id string) (Invocation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inv, ok := l.items[id]
	return inv, ok
}

// All returns every invocation in the order they were added
func (l *Ledger) All() []Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Invocation, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id])
	}
	return out
}

// Pending returns the invocations still waiting for a result
func (l *Ledger) Pending() []Invocation {
	var out []Invocation
	for _, inv := range l.All() {
		if !inv.Settled() {
			out = append(out, inv)
		}
	}
	return out
}

// Reset forgets every invocation
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.items = make(map[string]Invocation)
}

// ReportResult implements Reporter by attaching the result
func (l *Ledger) ReportResult(result ToolResult) {
	if err := l.Attach(result.ToolCallID, result.Result); err != nil {
		l.logger.Warn("tool result not attached", "tool_call_id", result.ToolCallID, "error", err)
	}
}
