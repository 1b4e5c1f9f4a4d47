package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/chainquery-labs/blockchain-data-agent/internal/agent"
)

// wsReadLimit is the maximum message size for WebSocket reads.
const wsReadLimit = 1 << 20 // 1 MiB

// wsBufferSize is the read/write buffer size for WebSocket connections.
const wsBufferSize = 4096

// upgrader configures the WebSocket upgrade with permissive origin checks
// (the bridge is only reachable from inside the AgentCore network).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsRequest is the WebSocket message payload from the client.
type wsRequest struct {
	Prompt string `json:"prompt"`
	Input  string `json:"input"`
}

// text returns the user's message, preferring "prompt" over "input".
func (r *wsRequest) text() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.Input
}

// handleWebSocket upgrades the connection and processes messages. Each
// message runs one agent request whose events stream back as JSON frames.
func (s *agentServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(wsReadLimit)

	s.log.Info("websocket connection established")

	for {
		_, msg, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				s.log.Error("websocket read error", "error", readErr)
			}
			return
		}

		s.processWSMessage(r, conn, msg)
	}
}

// processWSMessage handles a single WebSocket message by running the agent
// and streaming its events back over the connection.
func (s *agentServer) processWSMessage(r *http.Request, conn *websocket.Conn, msg []byte) {
	var req wsRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		s.writeWSJSON(conn, agent.ErrorEvent{Error: "invalid JSON", Status: "error"})
		return
	}
	if req.text() == "" {
		s.writeWSJSON(conn, agent.ErrorEvent{Error: "prompt or input is required", Status: "error"})
		return
	}

	_, err := s.agent.Stream(r.Context(), req.text(), func(ev agent.Event) {
		s.writeWSJSON(conn, ev)
	})
	if err != nil {
		s.writeWSJSON(conn, agent.ErrorEvent{Error: err.Error(), Status: "error"})
		return
	}

	s.writeWSJSON(conn, agent.CompleteEvent{Complete: true})
}

// writeWSJSON writes a JSON message to the WebSocket connection.
func (s *agentServer) writeWSJSON(conn *websocket.Conn, v any) {
	if err := conn.WriteJSON(v); err != nil {
		s.log.Error("websocket write error", "error", err)
	}
}
