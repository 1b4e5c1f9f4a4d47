package deploy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyErrorMessage(t *testing.T) {
	tests := []struct {
		name         string
		msg          string
		wantCategory string
	}{
		{name: "access denied", msg: "AccessDenied: not allowed", wantCategory: ErrCategoryPermission},
		{name: "not authorized", msg: "User is not authorized to perform bedrock:InvokeModel", wantCategory: ErrCategoryPermission},
		{name: "connection refused", msg: "dial tcp 10.0.0.1:443: connection refused", wantCategory: ErrCategoryNetwork},
		{name: "poll timeout", msg: `runtime "x" did not become ready after 60 attempts`, wantCategory: ErrCategoryTimeout},
		{name: "validation", msg: "ValidationException: invalid runtime name", wantCategory: ErrCategoryConfiguration},
		{name: "unclassified", msg: "something else entirely", wantCategory: ErrCategoryResource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, _ := classifyErrorMessage(tt.msg)
			if category != tt.wantCategory {
				t.Errorf("category = %q, want %q", category, tt.wantCategory)
			}
		})
	}
}

func TestDeployErrorMessage(t *testing.T) {
	de := newDeployError("create", "agent_runtime", "blockchain_data_agent",
		errors.New("AccessDenied: no bedrock permissions"))

	msg := de.Error()
	for _, want := range []string{"create", "agent_runtime", "blockchain_data_agent", "AccessDenied", "hint:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if de.Category != ErrCategoryPermission {
		t.Errorf("category = %q", de.Category)
	}
}

func TestIsDeployErrorUnwrapping(t *testing.T) {
	de := newDeployError("create", "iam_role", "r", errors.New("boom"))
	wrapped := fmt.Errorf("step %q: %w", "ensure role", de)

	if got := IsDeployError(wrapped); got != de {
		t.Errorf("IsDeployError() = %v, want the wrapped DeployError", got)
	}
	if IsDeployError(errors.New("plain")) != nil {
		t.Error("IsDeployError() on plain error should be nil")
	}
}
