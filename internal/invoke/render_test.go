package invoke

import (
	"strings"
	"testing"
)

func renderText(t *testing.T, chunks ...string) string {
	t.Helper()
	var out strings.Builder
	r := NewRenderer(&out)
	for _, c := range chunks {
		if err := r.Handle(StreamEvent{Kind: KindText, Text: c}); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}
	r.Flush()
	return out.String()
}

func TestRendererPlainTextPassthrough(t *testing.T) {
	got := renderText(t, "Bitcoin produced ", "144 blocks today.")
	if got != "Bitcoin produced 144 blocks today." {
		t.Errorf("output = %q", got)
	}
}

func TestRendererToolCallBlock(t *testing.T) {
	got := renderText(t, "Checking.\n<tool_call>\nname: run_query\nparams: {\"sql\": \"SELECT 1\"}\n</tool_call>Done.")
	if strings.Contains(got, "<tool_call>") || strings.Contains(got, "</tool_call>") {
		t.Errorf("markers leaked into output: %q", got)
	}
	if !strings.Contains(got, "run_query") {
		t.Errorf("tool name missing from output: %q", got)
	}
	if !strings.Contains(got, `{"sql": "SELECT 1"}`) {
		t.Errorf("params missing from output: %q", got)
	}
	if !strings.HasPrefix(got, "Checking.\n") || !strings.HasSuffix(got, "Done.") {
		t.Errorf("surrounding text mangled: %q", got)
	}
}

func TestRendererMarkerSplitAcrossChunks(t *testing.T) {
	got := renderText(t, "before <tool", "_call>name: list_databases</tool", "_call> after")
	if strings.Contains(got, "tool_call") {
		t.Errorf("markers leaked into output: %q", got)
	}
	if !strings.Contains(got, "list_databases") {
		t.Errorf("tool name missing: %q", got)
	}
	if !strings.Contains(got, "before ") || !strings.Contains(got, " after") {
		t.Errorf("surrounding text mangled: %q", got)
	}
}

func TestRendererCloseMarkerSplitAcrossChunks(t *testing.T) {
	got := renderText(t, "<tool_call>\nname: run_query\nparams: {}\n</to", "ol_call>done")
	if strings.Contains(got, "ol_call>") {
		t.Errorf("close marker leaked into output: %q", got)
	}
	if !strings.Contains(got, "run_query") {
		t.Errorf("tool name missing: %q", got)
	}
	if !strings.HasSuffix(got, "done") {
		t.Errorf("trailing text mangled: %q", got)
	}
}

func TestRendererPartialOpenNotAMarker(t *testing.T) {
	got := renderText(t, "a < b and a <t", "ag> c")
	if got != "a < b and a <tag> c" {
		t.Errorf("output = %q", got)
	}
}

func TestRendererFlushUnterminatedToolCall(t *testing.T) {
	got := renderText(t, "<tool_call>\nname: run_query\n")
	if !strings.Contains(got, "run_query") {
		t.Errorf("unterminated tool call lost: %q", got)
	}
}

func TestRendererToolUseEvent(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out)
	_ = r.Handle(StreamEvent{Kind: KindToolUse, ToolName: "run_query", ToolInput: `{"sql":"SELECT 1"}`})
	got := out.String()
	if !strings.Contains(got, "run_query") || !strings.Contains(got, "SELECT 1") {
		t.Errorf("output = %q", got)
	}
}

func TestRendererErrorEvent(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out)
	_ = r.Handle(StreamEvent{Kind: KindError, Text: "model timed out"})
	if !strings.Contains(out.String(), "model timed out") {
		t.Errorf("output = %q", out.String())
	}
}
