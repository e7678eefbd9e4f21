package agent

// State is the lifecycle state of an invocation
type State string

const (
	StatePending State = "pending"
	StateSettled State = "settled"
)

// Action is a user-triggerable choice shown on a Pending view
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// View is the structured description of how to display one invocation.
// Any rendering layer (terminal, web, log line) can draw it.
type View struct {
	ToolCallID string    `json:"tool_call_id"`
	ToolName   string    `json:"tool_name"`
	Title      string    `json:"title"`
	State      State     `json:"state"`
	Message    string    `json:"message,omitempty"`
	Emphasis   string    `json:"emphasis,omitempty"`
	Actions    []Action  `json:"actions,omitempty"`
	Blocks     []UIBlock `json:"blocks,omitempty"`

	// Done is non-nil only on the render that started the invocation's action.
	// It yields exactly one Outcome and is then closed.
	Done <-chan Outcome `json:"-"`
}

// Empty reports whether the view has no body (unknown tools)
func (v View) Empty() bool {
	return v.Message == "" && v.Emphasis == "" && len(v.Actions) == 0 && len(v.Blocks) == 0
}

// Interactive reports whether the view is waiting on a user choice
func (v View) Interactive() bool {
	return v.State == StatePending && len(v.Actions) > 0
}

type UIBlockKind string

const (
	UIBlockTable UIBlockKind = "table"
	UIBlockKV    UIBlockKind = "kv"
)

// UIBlock is optional structured detail attached to a settled view
type UIBlock struct {
	Kind  UIBlockKind `json:"kind"`
	Table *UITable    `json:"table,omitempty"`
	KV    *UIKV       `json:"kv,omitempty"`
}

type UITable struct {
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type UIKV struct {
	Title string   `json:"title,omitempty"`
	Items []KVItem `json:"items"`
}

type KVItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
