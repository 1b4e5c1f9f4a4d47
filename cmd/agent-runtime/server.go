package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chainquery-labs/blockchain-data-agent/internal/agent"
)

// tracer records one span per invocation when tracing is enabled; with the
// default no-op provider this costs nothing.
var tracer = otel.Tracer("agent-runtime")

// invocationsPath is the HTTP protocol endpoint for agent invocations.
const invocationsPath = "/invocations"

// sessionHeader is the AgentCore header that carries the session ID.
const sessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// sseContentType is the MIME type for Server-Sent Events.
const sseContentType = "text/event-stream"

// streamer runs one agent request, emitting events as it goes. Implemented
// by *agent.Agent; narrowed to an interface so handlers are testable.
type streamer interface {
	Stream(ctx context.Context, prompt string, emit func(agent.Event)) (string, error)
}

// invocationRequest is the payload format sent by InvokeAgentRuntime.
// Supports both "prompt" (our convention) and "input" (AWS example
// convention). Extra top-level fields are kept for logging.
type invocationRequest struct {
	Prompt string         `json:"prompt"`
	Input  string         `json:"input"`
	Extra  map[string]any `json:"-"`
}

// UnmarshalJSON captures unknown top-level fields alongside the known ones.
func (r *invocationRequest) UnmarshalJSON(data []byte) error {
	type alias invocationRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = invocationRequest(a)

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "prompt")
	delete(raw, "input")
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// text returns the user's message, preferring "prompt" over "input".
func (r *invocationRequest) text() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.Input
}

// invocationResponse is the non-streaming HTTP protocol response format.
type invocationResponse struct {
	Result string `json:"result,omitempty"`
	Status string `json:"status"`
	Agent  string `json:"agent,omitempty"`
	Error  string `json:"error,omitempty"`
}

// agentServer serves the AgentCore HTTP protocol contract.
type agentServer struct {
	agent streamer
	log   *slog.Logger
}

// buildMux assembles the runtime's HTTP routes.
func buildMux(s *agentServer, healthH *healthHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+invocationsPath, s.handleInvocation)
	mux.Handle("/ping", healthH)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", s.handleUnknown)
	return mux
}

// handleUnknown logs any unmatched requests for debugging.
func (s *agentServer) handleUnknown(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.log.Warn("unmatched request",
		"method", r.Method, "path", r.URL.Path,
		"content-type", r.Header.Get("Content-Type"),
		"body_size", len(body))
	http.Error(w, "not found", http.StatusNotFound)
}

// wantsSSE returns true if the client accepts text/event-stream.
func wantsSSE(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), sseContentType)
}

// handleInvocation decodes the payload and dispatches to streaming or
// synchronous processing based on the Accept header.
func (s *agentServer) handleInvocation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Error("failed to read body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var req invocationRequest
	if unmarshalErr := json.Unmarshal(body, &req); unmarshalErr != nil {
		s.log.Error("invalid JSON in invocation", "error", unmarshalErr)
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if req.text() == "" {
		s.log.Warn("invocation missing prompt/input field")
		http.Error(w, "No prompt found in input. Please provide a 'prompt' key in the input.",
			http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(sessionHeader)
	s.log.Info("invocation received",
		"session", sessionID, "prompt_size", len(req.text()), "sse", wantsSSE(r))

	ctx, span := tracer.Start(r.Context(), "invocation", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("prompt.size", len(req.text())),
		attribute.Bool("sse", wantsSSE(r)),
	))
	defer span.End()
	r = r.WithContext(ctx)

	if wantsSSE(r) {
		s.handleStreamingInvocation(w, r, &req)
		return
	}
	s.handleSyncInvocation(w, r, &req)
}

// handleSyncInvocation runs the agent to completion and returns the
// aggregated answer as a single JSON document.
func (s *agentServer) handleSyncInvocation(w http.ResponseWriter, r *http.Request, req *invocationRequest) {
	answer, err := s.agent.Stream(r.Context(), req.text(), func(agent.Event) {})
	if err != nil {
		s.log.Error("agent invocation failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(invocationResponse{
			Error:  fmt.Sprintf("Agent processing failed: %v", err),
			Status: "error",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invocationResponse{
		Result: answer,
		Status: "success",
		Agent:  "blockchain-data-processing",
	})
}

// handleStreamingInvocation runs the agent and relays every event to the
// client as an SSE data line, terminating with a complete or error event.
func (s *agentServer) handleStreamingInvocation(w http.ResponseWriter, r *http.Request, req *invocationRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", sseContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	_, err := s.agent.Stream(r.Context(), req.text(), func(ev agent.Event) {
		if writeErr := writeSSEEvent(w, flusher, ev); writeErr != nil {
			s.log.Error("sse write failed", "error", writeErr)
		}
	})
	if err != nil {
		s.log.Error("agent streaming failed", "error", err)
		_ = writeSSEEvent(w, flusher, agent.ErrorEvent{
			Error:  fmt.Sprintf("Agent streaming failed: %v", err),
			Status: "error",
		})
		return
	}

	_ = writeSSEEvent(w, flusher, agent.CompleteEvent{Complete: true})
}

// writeSSEEvent writes a single event as an SSE data line and flushes.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, ev agent.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
