package agent

// Event is one element of an agent response stream. Each implementation
// marshals to the wire shape clients key off of, so an event can be written
// straight to an SSE data line.
type Event interface {
	event()
}

// TextEvent carries an incremental piece of the assistant's text output.
// Wire shape: {"data": "..."}.
type TextEvent struct {
	Data string `json:"data"`
}

// ToolUseEvent announces a tool invocation the agent is about to make.
// Wire shape: {"current_tool_use": {"name": "...", "input": "..."}}.
type ToolUseEvent struct {
	CurrentToolUse ToolUse `json:"current_tool_use"`
}

// ToolUse identifies a tool call and its JSON-encoded input.
type ToolUse struct {
	Name  string `json:"name"`
	Input string `json:"input"`
}

// CompleteEvent terminates a successful stream.
// Wire shape: {"complete": true}.
type CompleteEvent struct {
	Complete bool `json:"complete"`
}

// ErrorEvent terminates a failed stream.
// Wire shape: {"error": "...", "status": "error"}.
type ErrorEvent struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

// InitEvent signals that the agent loop is being set up.
type InitEvent struct {
	InitEventLoop bool `json:"init_event_loop"`
}

// StartEvent signals that the agent loop has started a cycle.
type StartEvent struct {
	StartEventLoop bool `json:"start_event_loop"`
}

// MessageEvent carries a completed conversation message summary.
type MessageEvent struct {
	Message MessageSummary `json:"message"`
}

// MessageSummary is the role and flattened text of a finished message.
type MessageSummary struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResultEvent carries the final aggregated answer and usage totals.
type ResultEvent struct {
	Result string `json:"result"`
	Usage  *Usage `json:"usage,omitempty"`
}

// Usage accumulates token counts across model turns.
type Usage struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
}

// Add accumulates another turn's usage into u.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

func (TextEvent) event()    {}
func (ToolUseEvent) event() {}
func (CompleteEvent) event() {}
func (ErrorEvent) event()   {}
func (InitEvent) event()    {}
func (StartEvent) event()   {}
func (MessageEvent) event() {}
func (ResultEvent) event()  {}
