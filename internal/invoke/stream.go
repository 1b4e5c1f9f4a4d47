package invoke

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event kinds produced by the stream decoder.
const (
	KindText      = "text"
	KindToolUse   = "tool_use"
	KindComplete  = "complete"
	KindError     = "error"
	KindLifecycle = "lifecycle"
	KindMessage   = "message"
	KindResult    = "result"
	KindRaw       = "raw"
)

// StreamEvent is one decoded element of a runtime response stream.
type StreamEvent struct {
	Kind string
	// Text carries the payload for text, raw, error, message, and result
	// events.
	Text string
	// ToolName and ToolInput are set for tool_use events.
	ToolName  string
	ToolInput string
	// Label names the lifecycle phase for lifecycle events.
	Label string
}

// streamChunk is the union of wire shapes a runtime stream can carry.
type streamChunk struct {
	Data           *json.RawMessage `json:"data"`
	CurrentToolUse *struct {
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"current_tool_use"`
	Complete       *bool            `json:"complete"`
	Error          *string          `json:"error"`
	Message        *json.RawMessage `json:"message"`
	Result         *json.RawMessage `json:"result"`
	InitEventLoop  *bool            `json:"init_event_loop"`
	StartEventLoop *bool            `json:"start_event_loop"`
}

// DecodeStream reads an SSE body line by line and calls handle for every
// decoded event, in arrival order. Chunks that fail to decode are surfaced
// as raw events rather than dropped, so nothing in the stream is lost.
func DecodeStream(body io.Reader, handle func(StreamEvent) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")

		if err := handle(decodeChunk(payload)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// decodeChunk converts one SSE data payload into a StreamEvent.
func decodeChunk(payload string) StreamEvent {
	// A bare JSON string is plain text.
	var text string
	if err := json.Unmarshal([]byte(payload), &text); err == nil {
		return StreamEvent{Kind: KindText, Text: text}
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return StreamEvent{Kind: KindRaw, Text: payload}
	}

	switch {
	case chunk.Data != nil:
		return StreamEvent{Kind: KindText, Text: rawToText(*chunk.Data)}
	case chunk.CurrentToolUse != nil:
		return StreamEvent{
			Kind:      KindToolUse,
			ToolName:  chunk.CurrentToolUse.Name,
			ToolInput: rawToText(chunk.CurrentToolUse.Input),
		}
	case chunk.Error != nil:
		return StreamEvent{Kind: KindError, Text: *chunk.Error}
	case chunk.Complete != nil:
		return StreamEvent{Kind: KindComplete}
	case chunk.Result != nil:
		return StreamEvent{Kind: KindResult, Text: rawToText(*chunk.Result)}
	case chunk.Message != nil:
		return StreamEvent{Kind: KindMessage, Text: rawToText(*chunk.Message)}
	case chunk.InitEventLoop != nil:
		return StreamEvent{Kind: KindLifecycle, Label: "init_event_loop"}
	case chunk.StartEventLoop != nil:
		return StreamEvent{Kind: KindLifecycle, Label: "start_event_loop"}
	}

	// Unknown object shape: pretty-print it rather than losing it.
	return StreamEvent{Kind: KindRaw, Text: prettyJSON(payload)}
}

// rawToText renders a raw JSON value as display text: strings unquoted,
// everything else compact JSON.
func rawToText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// prettyJSON re-indents a JSON payload for display, returning it unchanged
// when it will not parse.
func prettyJSON(payload string) string {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return payload
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return payload
	}
	return string(pretty)
}
