// Package invoke is the data-plane client side of the system: it resolves a
// deployed runtime, sends prompts through InvokeAgentRuntime, decodes the
// streamed response events, and renders them for a terminal.
package invoke

import (
	"strings"

	"github.com/google/uuid"
)

// NewSessionID generates an AgentCore runtime session ID: a hyphen-stripped
// UUID with an "f" suffix. The suffix pads the 32 hex characters past the
// 33-character minimum the API enforces.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "f"
}
