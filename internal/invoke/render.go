package invoke

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Tool-call markers the runtime's agent embeds in its text stream.
const (
	toolCallOpen  = "<tool_call>"
	toolCallClose = "</tool_call>"
)

var (
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	paramStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Renderer writes stream events to a terminal. Text flows through verbatim
// except for tool-call marker blocks, which are buffered between the open and
// close markers and rendered as a styled summary instead of raw markup.
type Renderer struct {
	w io.Writer

	inToolCall bool
	buf        strings.Builder
	pending    string
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Handle renders one stream event. It is shaped to be passed directly to
// Client.Stream.
func (r *Renderer) Handle(ev StreamEvent) error {
	switch ev.Kind {
	case KindText:
		r.writeText(ev.Text)
	case KindToolUse:
		fmt.Fprintf(r.w, "\n%s %s\n", toolStyle.Render("[tool]"), ev.ToolName)
		if ev.ToolInput != "" && ev.ToolInput != "{}" {
			fmt.Fprintln(r.w, paramStyle.Render(ev.ToolInput))
		}
	case KindError:
		fmt.Fprintf(r.w, "\n%s %s\n", errorStyle.Render("error:"), ev.Text)
	case KindComplete:
		r.Flush()
		fmt.Fprintln(r.w)
	case KindLifecycle:
		// Loop bookkeeping; nothing to show.
	case KindMessage, KindResult:
		// Summaries duplicate the streamed text.
	case KindRaw:
		r.writeText(ev.Text)
	}
	return nil
}

// writeText routes text around tool-call blocks. Markers can be split across
// chunks, so a trailing partial "<" prefix is held back until the next chunk
// settles whether it opens a marker.
func (r *Renderer) writeText(text string) {
	text = r.pending + text
	r.pending = ""

	for text != "" {
		if r.inToolCall {
			// Search the whole buffered body plus the new chunk: the close
			// marker can be split across chunks just like the open marker.
			combined := r.buf.String() + text
			end := strings.Index(combined, toolCallClose)
			if end < 0 {
				r.buf.Reset()
				r.buf.WriteString(combined)
				return
			}
			r.renderToolCall(combined[:end])
			r.buf.Reset()
			r.inToolCall = false
			text = combined[end+len(toolCallClose):]
			continue
		}

		start := strings.Index(text, toolCallOpen)
		if start < 0 {
			if keep := partialMarkerSuffix(text); keep > 0 {
				r.pending = text[len(text)-keep:]
				text = text[:len(text)-keep]
			}
			fmt.Fprint(r.w, text)
			return
		}
		fmt.Fprint(r.w, text[:start])
		r.inToolCall = true
		text = text[start+len(toolCallOpen):]
	}
}

// renderToolCall parses the buffered marker body, which carries "name:" and
// "params:" lines, and prints a styled summary.
func (r *Renderer) renderToolCall(body string) {
	var name, params string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "name:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "name:"))
		case strings.HasPrefix(line, "params:"):
			params = strings.TrimSpace(strings.TrimPrefix(line, "params:"))
		}
	}
	if name == "" {
		name = strings.TrimSpace(body)
	}

	fmt.Fprintf(r.w, "\n%s %s\n", toolStyle.Render("[tool]"), name)
	if params != "" {
		fmt.Fprintln(r.w, paramStyle.Render(params))
	}
}

// Flush emits any buffered text, including an unterminated tool-call block.
func (r *Renderer) Flush() {
	if r.pending != "" {
		fmt.Fprint(r.w, r.pending)
		r.pending = ""
	}
	if r.inToolCall {
		r.renderToolCall(r.buf.String())
		r.buf.Reset()
		r.inToolCall = false
	}
}

// partialMarkerSuffix reports how many trailing bytes of text could be the
// start of a tool-call open marker split across chunks.
func partialMarkerSuffix(text string) int {
	max := len(toolCallOpen) - 1
	if max > len(text) {
		max = len(text)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(text, toolCallOpen[:n]) {
			return n
		}
	}
	return 0
}

// Status renders a dim progress line, for session and connection notices.
func (r *Renderer) Status(msg string) {
	fmt.Fprintln(r.w, statusStyle.Render(msg))
}
