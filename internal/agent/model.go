package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ToolCall is one tool invocation requested by the model, with the input
// JSON fully assembled from stream deltas.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ModelTurn is the outcome of a single streamed model response.
type ModelTurn struct {
	// Message is the complete assistant message, suitable for appending to
	// the conversation before the next turn.
	Message    types.Message
	ToolUses   []ToolCall
	StopReason types.StopReason
	Usage      *Usage
}

// Model streams one conversational turn from a foundation model. Text deltas
// are delivered through onText as they arrive; the assembled turn is returned
// once the stream completes.
type Model interface {
	Stream(ctx context.Context, messages []types.Message, tools []types.Tool, onText func(string)) (*ModelTurn, error)
}

// ModelConfig holds foundation model selection and sampling parameters.
type ModelConfig struct {
	ModelID     string
	Temperature float32
	TopP        float32
	MaxTokens   int32
}

// BedrockModel implements Model over the Bedrock Converse streaming API.
type BedrockModel struct {
	client *bedrockruntime.Client
	system string
	cfg    ModelConfig
}

// NewBedrockModel creates a Bedrock-backed model with the given system
// prompt. Zero-value config fields fall back to the package defaults.
func NewBedrockModel(awsCfg aws.Config, system string, cfg ModelConfig) *BedrockModel {
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &BedrockModel{
		client: bedrockruntime.NewFromConfig(awsCfg),
		system: system,
		cfg:    cfg,
	}
}

// Stream sends the conversation to Bedrock and assembles the response while
// forwarding text deltas to onText.
func (m *BedrockModel) Stream(ctx context.Context, messages []types.Message, tools []types.Tool, onText func(string)) (*ModelTurn, error) {
	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(m.cfg.ModelID),
		Messages: messages,
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: m.system},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(m.cfg.MaxTokens),
			Temperature: aws.Float32(m.cfg.Temperature),
			TopP:        aws.Float32(m.cfg.TopP),
		},
	}
	if len(tools) > 0 {
		input.ToolConfig = &types.ToolConfiguration{Tools: tools}
	}

	out, err := m.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("converse stream: %w", err)
	}

	stream := out.GetStream()
	defer func() { _ = stream.Close() }()

	asm := newTurnAssembler(onText)
	for event := range stream.Events() {
		asm.consume(event)
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("converse stream events: %w", err)
	}

	return asm.finish()
}

// turnAssembler rebuilds a complete assistant message from stream events.
// Content blocks arrive interleaved by index, so partial text and tool input
// accumulate per block until the stream ends.
type turnAssembler struct {
	onText     func(string)
	texts      map[int32]string
	toolStarts map[int32]types.ToolUseBlockStart
	toolInputs map[int32]string
	order      []int32
	seen       map[int32]bool
	stopReason types.StopReason
	usage      *Usage
}

func newTurnAssembler(onText func(string)) *turnAssembler {
	return &turnAssembler{
		onText:     onText,
		texts:      make(map[int32]string),
		toolStarts: make(map[int32]types.ToolUseBlockStart),
		toolInputs: make(map[int32]string),
		seen:       make(map[int32]bool),
	}
}

func (a *turnAssembler) track(idx int32) {
	if !a.seen[idx] {
		a.seen[idx] = true
		a.order = append(a.order, idx)
	}
}

func (a *turnAssembler) consume(event types.ConverseStreamOutput) {
	switch v := event.(type) {
	case *types.ConverseStreamOutputMemberContentBlockStart:
		idx := aws.ToInt32(v.Value.ContentBlockIndex)
		a.track(idx)
		if start, ok := v.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
			a.toolStarts[idx] = start.Value
		}
	case *types.ConverseStreamOutputMemberContentBlockDelta:
		idx := aws.ToInt32(v.Value.ContentBlockIndex)
		a.track(idx)
		switch delta := v.Value.Delta.(type) {
		case *types.ContentBlockDeltaMemberText:
			a.texts[idx] += delta.Value
			if a.onText != nil {
				a.onText(delta.Value)
			}
		case *types.ContentBlockDeltaMemberToolUse:
			a.toolInputs[idx] += aws.ToString(delta.Value.Input)
		}
	case *types.ConverseStreamOutputMemberMessageStop:
		a.stopReason = v.Value.StopReason
	case *types.ConverseStreamOutputMemberMetadata:
		if u := v.Value.Usage; u != nil {
			a.usage = &Usage{
				InputTokens:  aws.ToInt32(u.InputTokens),
				OutputTokens: aws.ToInt32(u.OutputTokens),
			}
		}
	}
}

// finish converts accumulated blocks into an assistant message in block
// index order.
func (a *turnAssembler) finish() (*ModelTurn, error) {
	sort.Slice(a.order, func(i, j int) bool { return a.order[i] < a.order[j] })

	turn := &ModelTurn{
		StopReason: a.stopReason,
		Usage:      a.usage,
	}
	msg := types.Message{Role: types.ConversationRoleAssistant}

	for _, idx := range a.order {
		if text, ok := a.texts[idx]; ok && text != "" {
			msg.Content = append(msg.Content, &types.ContentBlockMemberText{Value: text})
		}
		start, ok := a.toolStarts[idx]
		if !ok {
			continue
		}

		raw := a.toolInputs[idx]
		if raw == "" {
			raw = "{}"
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("tool input for %s is not valid JSON: %w",
				aws.ToString(start.Name), err)
		}

		msg.Content = append(msg.Content, &types.ContentBlockMemberToolUse{
			Value: types.ToolUseBlock{
				ToolUseId: start.ToolUseId,
				Name:      start.Name,
				Input:     document.NewLazyDocument(parsed),
			},
		})
		turn.ToolUses = append(turn.ToolUses, ToolCall{
			ID:    aws.ToString(start.ToolUseId),
			Name:  aws.ToString(start.Name),
			Input: json.RawMessage(raw),
		})
	}

	if len(msg.Content) == 0 {
		log.Printf("agent: model turn produced no content (stop_reason=%s)", a.stopReason)
		msg.Content = append(msg.Content, &types.ContentBlockMemberText{Value: ""})
	}
	turn.Message = msg
	return turn, nil
}
