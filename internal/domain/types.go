// Package domain defines the core types shared across the Capstan runtime.
package domain

// Mode is the permission level governing which capabilities may execute.
type Mode string

const (
	// ModeAsk permits only unrestricted capabilities.
	ModeAsk Mode = "ask"
	// ModeAgent permits every registered capability.
	ModeAgent Mode = "agent"
)

// ValidMode reports whether m is one of the two recognized modes.
func ValidMode(m Mode) bool {
	return m == ModeAsk || m == ModeAgent
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation. The conversation is append-only;
// messages are never reordered or deleted.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a single capability invocation requested by the model.
// Args holds the raw JSON argument object.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args []byte `json:"args"`
}

// ToolResult is the outcome of one capability invocation, paired with its
// originating call by ID. A batch of results preserves request order.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// ToolDef describes a capability to the model.
type ToolDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      []byte `json:"schema"`
}

// Completion is one model response: either plain content (the turn is done)
// or one or more tool calls to dispatch.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Usage     UsageDelta
}

// EditAction tags which strategy the edit engine selected for a request.
type EditAction string

const (
	EditCreated  EditAction = "created"
	EditPatched  EditAction = "patched"
	EditEdited   EditAction = "edited"
	EditReplaced EditAction = "replaced"
)

// EditRequest is one file mutation request. Instructions is advisory text
// for audit trails only and is never parsed.
type EditRequest struct {
	TargetFile   string `json:"target_file"`
	CodeEdit     string `json:"code_edit"`
	Instructions string `json:"instructions,omitempty"`
}

// EditResult reports what the edit engine did.
type EditResult struct {
	TargetFile string     `json:"target_file"`
	Action     EditAction `json:"action"`
	Bytes      int        `json:"bytes"`
}

// SessionState is the lifecycle state of a conversation session.
type SessionState string

const (
	SessionActive SessionState = "active"
	SessionFailed SessionState = "failed"
	SessionClosed SessionState = "closed"
)

// Session holds the per-client conversation state.
type Session struct {
	ID            string
	Mode          Mode
	State         SessionState
	MaxIterations int
	CreatedAtUnix int64
	UpdatedAtUnix int64
}

// Invocation is the per-call observability record: exactly one start and
// exactly one terminal outcome (complete or error) per capability call.
type Invocation struct {
	ID          string
	SessionID   string
	ToolCallID  string
	Capability  string
	ArgsJSON    string
	Outcome     string
	ResultJSON  string
	StartedAt   int64
	CompletedAt int64
}

// AuditRecord logs permission decisions and other security-relevant events.
type AuditRecord struct {
	ID           string
	SessionID    string
	Category     string
	Actor        string
	Action       string
	RequestJSON  string
	DecisionJSON string
	Severity     string
	CreatedAt    int64
}

// UsageDelta records token consumption reported by the model for one turn.
type UsageDelta struct {
	SessionID    string
	InputTokens  int64
	OutputTokens int64
	Model        string
}

// ProcState is the lifecycle state of a detached background command.
type ProcState string

const (
	ProcRunning ProcState = "running"
	ProcExited  ProcState = "exited"
	ProcKilled  ProcState = "killed"
)

// ProcRecord tracks a background command spawned by run_command. Its side
// effects are unsynchronized with the conversation once detached.
type ProcRecord struct {
	ID            string
	SessionID     string
	PID           int
	Command       string
	State         ProcState
	StartedAtUnix int64
}

// Diagnostic is the common record every linter provider output is parsed
// into, regardless of the provider's native format.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

// Memo is a persisted note, stored as JSON on disk.
type Memo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// TodoStatus is the state of a todo item.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// Todo is a persisted task item, stored as JSON on disk.
type Todo struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Status    TodoStatus `json:"status"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
}

// SearchHit is one matching line from a workspace search.
type SearchHit struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
	Term string `json:"term"`
}

// WebResult is one result from a search provider backend.
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Summary string `json:"summary,omitempty"`
}
