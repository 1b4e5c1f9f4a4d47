package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
)

// defaultQualifier selects the runtime endpoint version.
const defaultQualifier = "DEFAULT"

// dataPlaneAPI is the slice of the AgentCore data plane we use.
type dataPlaneAPI interface {
	InvokeAgentRuntime(ctx context.Context, in *bedrockagentcore.InvokeAgentRuntimeInput, opts ...func(*bedrockagentcore.Options)) (*bedrockagentcore.InvokeAgentRuntimeOutput, error)
}

// Client invokes a deployed agent runtime within one session.
type Client struct {
	api       dataPlaneAPI
	arn       string
	sessionID string
}

// NewClient creates an invocation client bound to a runtime ARN. A fresh
// session ID is generated when sessionID is empty.
func NewClient(api dataPlaneAPI, arn, sessionID string) *Client {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return &Client{api: api, arn: arn, sessionID: sessionID}
}

// SessionID returns the session this client converses under.
func (c *Client) SessionID() string {
	return c.sessionID
}

// invocationPayload is the request body sent to the runtime.
type invocationPayload struct {
	Prompt string `json:"prompt"`
}

// Stream sends a prompt and decodes the response, forwarding each event to
// handle in order. Non-streaming JSON responses are converted into a single
// text event.
func (c *Client) Stream(ctx context.Context, prompt string, handle func(StreamEvent) error) error {
	payload, err := json.Marshal(invocationPayload{Prompt: prompt})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	out, err := c.api.InvokeAgentRuntime(ctx, &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn:  aws.String(c.arn),
		RuntimeSessionId: aws.String(c.sessionID),
		Qualifier:        aws.String(defaultQualifier),
		Payload:          payload,
	})
	if err != nil {
		return fmt.Errorf("invoke agent runtime: %w", err)
	}
	defer func() { _ = out.Response.Close() }()

	contentType := aws.ToString(out.ContentType)
	if strings.Contains(contentType, "text/event-stream") {
		return DecodeStream(out.Response, handle)
	}
	return decodeJSONResponse(out.Response, handle)
}

// Invoke sends a prompt and returns the aggregated response text. An error
// event in the stream fails the invocation.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	var sb strings.Builder
	var streamErr error

	err := c.Stream(ctx, prompt, func(ev StreamEvent) error {
		switch ev.Kind {
		case KindText, KindRaw:
			sb.WriteString(ev.Text)
		case KindError:
			streamErr = fmt.Errorf("agent error: %s", ev.Text)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if streamErr != nil {
		return "", streamErr
	}
	return sb.String(), nil
}

// jsonResponse is the non-streaming invocation response shape.
type jsonResponse struct {
	Output struct {
		Message struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	} `json:"output"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// decodeJSONResponse converts an application/json body into stream events.
// Text lives at output.message.content[0].text in the Converse-shaped form,
// or under "result" for the runtime's own sync responses.
func decodeJSONResponse(body io.Reader, handle func(StreamEvent) error) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var resp jsonResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return handle(StreamEvent{Kind: KindRaw, Text: string(data)})
	}

	switch {
	case resp.Error != "":
		return handle(StreamEvent{Kind: KindError, Text: resp.Error})
	case resp.Result != "":
		return handle(StreamEvent{Kind: KindText, Text: resp.Result})
	case len(resp.Output.Message.Content) > 0:
		return handle(StreamEvent{Kind: KindText, Text: resp.Output.Message.Content[0].Text})
	}
	return handle(StreamEvent{Kind: KindRaw, Text: string(data)})
}
