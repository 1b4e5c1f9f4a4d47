package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainquery-labs/blockchain-data-agent/internal/agent"
)

// stubAgent replays canned events and returns a fixed answer.
type stubAgent struct {
	events []agent.Event
	answer string
	err    error
	prompt string
}

func (s *stubAgent) Stream(_ context.Context, prompt string, emit func(agent.Event)) (string, error) {
	s.prompt = prompt
	for _, ev := range s.events {
		emit(ev)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newTestServer(a streamer) *agentServer {
	return &agentServer{
		agent: a,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func postInvocation(t *testing.T, s *agentServer, body, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, invocationsPath, strings.NewReader(body))
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	s.handleInvocation(w, req)
	return w
}

func TestInvocationValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "invalid JSON", body: `{"prompt"`, wantCode: http.StatusBadRequest},
		{name: "missing prompt", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "empty prompt", body: `{"prompt":""}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&stubAgent{})
			w := postInvocation(t, s, tt.body, "")
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestInvocationInputFieldFallback(t *testing.T) {
	stub := &stubAgent{answer: "ok"}
	s := newTestServer(stub)
	w := postInvocation(t, s, `{"input":"how many blocks?"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if stub.prompt != "how many blocks?" {
		t.Errorf("agent prompt = %q", stub.prompt)
	}
}

func TestSyncInvocationSuccess(t *testing.T) {
	s := newTestServer(&stubAgent{answer: "There are 800000 blocks."})
	w := postInvocation(t, s, `{"prompt":"count btc blocks"}`, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp invocationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" || resp.Result != "There are 800000 blocks." {
		t.Errorf("response = %+v", resp)
	}
	if resp.Agent != "blockchain-data-processing" {
		t.Errorf("agent field = %q", resp.Agent)
	}
}

func TestSyncInvocationFailure(t *testing.T) {
	s := newTestServer(&stubAgent{err: errors.New("model unavailable")})
	w := postInvocation(t, s, `{"prompt":"q"}`, "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp invocationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "error" || !strings.Contains(resp.Error, "model unavailable") {
		t.Errorf("response = %+v", resp)
	}
}

// sseDataLines extracts the JSON payloads from an SSE body in order.
func sseDataLines(t *testing.T, body string) []string {
	t.Helper()
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
	return lines
}

func TestStreamingInvocationOrder(t *testing.T) {
	s := newTestServer(&stubAgent{
		events: []agent.Event{
			agent.TextEvent{Data: "Bitcoin "},
			agent.ToolUseEvent{CurrentToolUse: agent.ToolUse{Name: "run_query", Input: `{"q":1}`}},
			agent.TextEvent{Data: "has blocks."},
		},
		answer: "Bitcoin has blocks.",
	})
	w := postInvocation(t, s, `{"prompt":"q"}`, sseContentType)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != sseContentType {
		t.Errorf("content type = %q", ct)
	}

	lines := sseDataLines(t, w.Body.String())
	if len(lines) != 4 {
		t.Fatalf("data lines = %d, want 4: %v", len(lines), lines)
	}
	if lines[0] != `{"data":"Bitcoin "}` {
		t.Errorf("line 0 = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"current_tool_use"`) || !strings.Contains(lines[1], `"run_query"`) {
		t.Errorf("line 1 = %s", lines[1])
	}
	if lines[2] != `{"data":"has blocks."}` {
		t.Errorf("line 2 = %s", lines[2])
	}
	if lines[3] != `{"complete":true}` {
		t.Errorf("line 3 = %s", lines[3])
	}
}

func TestStreamingInvocationError(t *testing.T) {
	s := newTestServer(&stubAgent{
		events: []agent.Event{agent.TextEvent{Data: "partial"}},
		err:    errors.New("throttled"),
	})
	w := postInvocation(t, s, `{"prompt":"q"}`, sseContentType)

	lines := sseDataLines(t, w.Body.String())
	last := lines[len(lines)-1]
	var errEvent struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(last), &errEvent); err != nil {
		t.Fatalf("decode last line %q: %v", last, err)
	}
	if errEvent.Status != "error" || !strings.Contains(errEvent.Error, "throttled") {
		t.Errorf("error event = %+v", errEvent)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	s := newTestServer(&stubAgent{})
	mux := buildMux(s, newHealthHandler())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
