package agent

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

func textDelta(idx int32, text string) types.ConverseStreamOutput {
	return &types.ConverseStreamOutputMemberContentBlockDelta{
		Value: types.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(idx),
			Delta:             &types.ContentBlockDeltaMemberText{Value: text},
		},
	}
}

func toolStart(idx int32, id, name string) types.ConverseStreamOutput {
	return &types.ConverseStreamOutputMemberContentBlockStart{
		Value: types.ContentBlockStartEvent{
			ContentBlockIndex: aws.Int32(idx),
			Start: &types.ContentBlockStartMemberToolUse{
				Value: types.ToolUseBlockStart{
					ToolUseId: aws.String(id),
					Name:      aws.String(name),
				},
			},
		},
	}
}

func toolDelta(idx int32, input string) types.ConverseStreamOutput {
	return &types.ConverseStreamOutputMemberContentBlockDelta{
		Value: types.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(idx),
			Delta: &types.ContentBlockDeltaMemberToolUse{
				Value: types.ToolUseBlockDelta{Input: aws.String(input)},
			},
		},
	}
}

func messageStop(reason types.StopReason) types.ConverseStreamOutput {
	return &types.ConverseStreamOutputMemberMessageStop{
		Value: types.MessageStopEvent{StopReason: reason},
	}
}

func TestTurnAssemblerText(t *testing.T) {
	var got string
	asm := newTurnAssembler(func(s string) { got += s })

	asm.consume(textDelta(0, "Hello"))
	asm.consume(textDelta(0, ", world"))
	asm.consume(messageStop(types.StopReasonEndTurn))

	turn, err := asm.finish()
	if err != nil {
		t.Fatalf("finish() error = %v", err)
	}
	if got != "Hello, world" {
		t.Errorf("deltas = %q, want %q", got, "Hello, world")
	}
	if turn.StopReason != types.StopReasonEndTurn {
		t.Errorf("stop reason = %v", turn.StopReason)
	}
	if len(turn.ToolUses) != 0 {
		t.Errorf("tool uses = %d, want 0", len(turn.ToolUses))
	}
	text, ok := turn.Message.Content[0].(*types.ContentBlockMemberText)
	if !ok || text.Value != "Hello, world" {
		t.Errorf("message content = %#v", turn.Message.Content)
	}
}

func TestTurnAssemblerToolUse(t *testing.T) {
	asm := newTurnAssembler(nil)

	asm.consume(textDelta(0, "Checking the schema."))
	asm.consume(toolStart(1, "tu-abc", "get_table_metadata"))
	asm.consume(toolDelta(1, `{"database":`))
	asm.consume(toolDelta(1, `"btc","table":"blocks"}`))
	asm.consume(messageStop(types.StopReasonToolUse))
	asm.consume(&types.ConverseStreamOutputMemberMetadata{
		Value: types.ConverseStreamMetadataEvent{
			Usage: &types.TokenUsage{
				InputTokens:  aws.Int32(120),
				OutputTokens: aws.Int32(34),
			},
		},
	})

	turn, err := asm.finish()
	if err != nil {
		t.Fatalf("finish() error = %v", err)
	}
	if turn.StopReason != types.StopReasonToolUse {
		t.Errorf("stop reason = %v", turn.StopReason)
	}
	if len(turn.ToolUses) != 1 {
		t.Fatalf("tool uses = %d, want 1", len(turn.ToolUses))
	}
	tu := turn.ToolUses[0]
	if tu.ID != "tu-abc" || tu.Name != "get_table_metadata" {
		t.Errorf("tool use = %+v", tu)
	}
	if string(tu.Input) != `{"database":"btc","table":"blocks"}` {
		t.Errorf("tool input = %s", tu.Input)
	}
	if turn.Usage == nil || turn.Usage.InputTokens != 120 || turn.Usage.OutputTokens != 34 {
		t.Errorf("usage = %+v", turn.Usage)
	}
	// Message keeps block order: text first, then the tool use block.
	if len(turn.Message.Content) != 2 {
		t.Fatalf("content blocks = %d, want 2", len(turn.Message.Content))
	}
	if _, ok := turn.Message.Content[1].(*types.ContentBlockMemberToolUse); !ok {
		t.Errorf("second block = %T, want tool use", turn.Message.Content[1])
	}
}

func TestTurnAssemblerEmptyToolInput(t *testing.T) {
	asm := newTurnAssembler(nil)
	asm.consume(toolStart(0, "tu-1", "list_databases"))
	asm.consume(messageStop(types.StopReasonToolUse))

	turn, err := asm.finish()
	if err != nil {
		t.Fatalf("finish() error = %v", err)
	}
	if string(turn.ToolUses[0].Input) != "{}" {
		t.Errorf("empty tool input = %s, want {}", turn.ToolUses[0].Input)
	}
}

func TestTurnAssemblerBadToolInput(t *testing.T) {
	asm := newTurnAssembler(nil)
	asm.consume(toolStart(0, "tu-1", "run_query"))
	asm.consume(toolDelta(0, `{"truncated`))
	asm.consume(messageStop(types.StopReasonToolUse))

	if _, err := asm.finish(); err == nil {
		t.Fatal("finish() succeeded with malformed tool input JSON")
	}
}
