package agent

import "sync"

// Tracker remembers which tool calls already had their action started and
// their result reported. The owner of the invocations keeps one Tracker for
// the lifetime of a conversation so re-rendering a Pending invocation never
// starts its action twice.
type Tracker struct {
	mu    sync.Mutex
	calls map[string]*callState
}

type callState struct {
	started  bool
	reported bool
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{calls: make(map[string]*callState)}
}

func (t *Tracker) state(id string) *callState {
	st, ok := t.calls[id]
	if !ok {
		st = &callState{}
		t.calls[id] = st
	}
	return st
}

// Start marks id as started. It returns false if it was already started.
func (t *Tracker) Start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(id)
	if st.started {
		return false
	}
	st.started = true
	return true
}

// MarkReported marks id as reported. It returns false if a result was
// already reported for id.
func (t *Tracker) MarkReported(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(id)
	if st.reported {
		return false
	}
	st.reported = true
	return true
}

// Started reports whether id has an action in flight or finished
func (t *Tracker) Started(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.calls[id]
	return ok && st.started
}

// Reported reports whether a result was reported for id
func (t *Tracker) Reported(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.calls[id]
	return ok && st.reported
}

// Forget drops all state for id
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.calls, id)
}

// Reset drops all state
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = make(map[string]*callState)
}
