// Package agent implements the blockchain data processing agent: a system
// prompt specialized for Athena queries over public blockchain datasets, a
// streaming Bedrock model client, and the tool-calling loop that bridges
// model turns to MCP tools.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// maxToolTurns bounds how many consecutive tool-use cycles a single request
// may trigger before the loop gives up.
const maxToolTurns = 10

// ToolCaller executes tools on behalf of the agent. Specs advertises the
// available tools in Converse form; Call runs one and returns its textual
// result, with isError set when the tool itself reported failure.
type ToolCaller interface {
	Specs() []types.Tool
	Call(ctx context.Context, name string, input json.RawMessage) (text string, isError bool, err error)
}

// Agent couples a model, a tool caller, and the event emission contract.
type Agent struct {
	model Model
	tools ToolCaller
}

// New creates an agent from a model and a tool caller. tools may be nil for
// a model-only agent.
func New(model Model, tools ToolCaller) *Agent {
	return &Agent{model: model, tools: tools}
}

// Stream runs the agent loop for one user prompt, emitting events as they
// occur, and returns the final aggregated answer text. The loop alternates
// model turns and tool executions until the model stops asking for tools.
func (a *Agent) Stream(ctx context.Context, prompt string, emit func(Event)) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is empty")
	}

	emit(InitEvent{InitEventLoop: true})

	messages := []types.Message{{
		Role:    types.ConversationRoleUser,
		Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
	}}

	var specs []types.Tool
	if a.tools != nil {
		specs = a.tools.Specs()
	}

	var answer strings.Builder
	totalUsage := &Usage{}

	for turn := 0; turn < maxToolTurns; turn++ {
		emit(StartEvent{StartEventLoop: true})

		result, err := a.model.Stream(ctx, messages, specs, func(text string) {
			answer.WriteString(text)
			emit(TextEvent{Data: text})
		})
		if err != nil {
			return "", fmt.Errorf("model turn %d: %w", turn+1, err)
		}
		totalUsage.Add(result.Usage)
		messages = append(messages, result.Message)

		if result.StopReason != types.StopReasonToolUse {
			emit(MessageEvent{Message: MessageSummary{
				Role:    string(types.ConversationRoleAssistant),
				Content: answer.String(),
			}})
			emit(ResultEvent{Result: answer.String(), Usage: totalUsage})
			return answer.String(), nil
		}

		toolResults, err := a.runTools(ctx, result.ToolUses, emit)
		if err != nil {
			return "", err
		}
		messages = append(messages, types.Message{
			Role:    types.ConversationRoleUser,
			Content: toolResults,
		})
	}

	return "", fmt.Errorf("tool loop did not settle after %d turns", maxToolTurns)
}

// runTools executes every tool the model requested in this turn and builds
// the tool-result content blocks for the next turn.
func (a *Agent) runTools(ctx context.Context, calls []ToolCall, emit func(Event)) ([]types.ContentBlock, error) {
	if a.tools == nil {
		return nil, fmt.Errorf("model requested tools but none are configured")
	}

	var blocks []types.ContentBlock
	for _, call := range calls {
		emit(ToolUseEvent{CurrentToolUse: ToolUse{
			Name:  call.Name,
			Input: string(call.Input),
		}})

		text, isError, err := a.tools.Call(ctx, call.Name, call.Input)
		status := types.ToolResultStatusSuccess
		switch {
		case err != nil:
			// Surface transport failures to the model so it can retry or
			// rephrase rather than aborting the whole request.
			text = fmt.Sprintf("tool execution failed: %v", err)
			status = types.ToolResultStatusError
		case isError:
			status = types.ToolResultStatusError
		}

		blocks = append(blocks, &types.ContentBlockMemberToolResult{
			Value: types.ToolResultBlock{
				ToolUseId: aws.String(call.ID),
				Status:    status,
				Content: []types.ToolResultContentBlock{
					&types.ToolResultContentBlockMemberText{Value: text},
				},
			},
		})
	}
	return blocks, nil
}
