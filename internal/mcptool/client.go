// Package mcptool connects the agent to an MCP tool server over stdio and
// adapts its tools to the Bedrock Converse tool-spec form.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// Default MCP server launch command: the AWS data-processing server, which
// exposes Glue schema discovery and Athena query execution tools.
const (
	DefaultCommand = "uvx"
	DefaultArgs    = "awslabs.aws-dataprocessing-mcp-server@latest"
)

// defaultCallTimeout bounds a single tool call. Athena queries routinely
// take tens of seconds on the public blockchain datasets.
const defaultCallTimeout = 2 * time.Minute

// initializeTimeout bounds server startup plus the MCP handshake. The uvx
// launcher may need to download the server package on first run.
const initializeTimeout = 90 * time.Second

// Config describes how to launch and talk to the MCP server.
type Config struct {
	Command     string
	Args        []string
	Env         []string
	CallTimeout time.Duration
}

// Client wraps an MCP stdio session and the tool list discovered at
// connect time.
type Client struct {
	mcp         *mcpclient.Client
	tools       []mcpgo.Tool
	callTimeout time.Duration
}

// Connect launches the MCP server process, performs the MCP handshake, and
// lists its tools. A server that advertises no tools is a hard error: the
// agent cannot answer data questions without schema and query tools.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
		cfg.Args = []string{DefaultArgs}
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultCallTimeout
	}

	mc, err := mcpclient.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server %q: %w", cfg.Command, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "blockchain-data-agent",
		Version: "1.0.0",
	}
	if _, err := mc.Initialize(initCtx, initReq); err != nil {
		_ = mc.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	listed, err := mc.ListTools(initCtx, mcpgo.ListToolsRequest{})
	if err != nil {
		_ = mc.Close()
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}
	if len(listed.Tools) == 0 {
		_ = mc.Close()
		return nil, fmt.Errorf("mcp server %q advertises no tools", cfg.Command)
	}

	log.Printf("mcptool: connected, %d tools available", len(listed.Tools))
	return &Client{
		mcp:         mc,
		tools:       listed.Tools,
		callTimeout: cfg.CallTimeout,
	}, nil
}

// Close terminates the MCP session and the server process.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// ToolNames returns the discovered tool names in server order.
func (c *Client) ToolNames() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name
	}
	return names
}

// Specs converts the discovered tools into Bedrock Converse tool
// specifications, passing each JSON Schema through unchanged.
func (c *Client) Specs() []bedrocktypes.Tool {
	specs := make([]bedrocktypes.Tool, 0, len(c.tools))
	for _, t := range c.tools {
		spec := bedrocktypes.ToolSpecification{
			Name: aws.String(t.Name),
			InputSchema: &bedrocktypes.ToolInputSchemaMemberJson{
				Value: document.NewLazyDocument(schemaToMap(t.InputSchema)),
			},
		}
		if t.Description != "" {
			spec.Description = aws.String(t.Description)
		}
		specs = append(specs, &bedrocktypes.ToolMemberToolSpec{Value: spec})
	}
	return specs
}

// Call invokes one tool with a JSON-encoded input object. The bool result
// reports whether the tool itself flagged its output as an error.
func (c *Client) Call(ctx context.Context, name string, input json.RawMessage) (string, bool, error) {
	args, err := parseArguments(input)
	if err != nil {
		return "", false, fmt.Errorf("tool %s: %w", name, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.mcp.CallTool(callCtx, req)
	if err != nil {
		return "", false, fmt.Errorf("call tool %s: %w", name, err)
	}
	return extractTextContent(result.Content), result.IsError, nil
}

// parseArguments decodes a tool input document into the map form the MCP
// client expects. Empty input means a no-argument call.
func parseArguments(input json.RawMessage) (map[string]any, error) {
	if len(input) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// schemaToMap flattens an MCP tool input schema into the generic map the
// Converse API wants as a JSON document.
func schemaToMap(schema mcpgo.ToolInputSchema) map[string]any {
	m := map[string]any{"type": schema.Type}
	if m["type"] == "" {
		m["type"] = "object"
	}
	if len(schema.Properties) > 0 {
		m["properties"] = schema.Properties
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	return m
}

// extractTextContent concatenates the text parts of a tool result.
func extractTextContent(content []mcpgo.Content) string {
	var sb strings.Builder
	for _, item := range content {
		switch c := item.(type) {
		case mcpgo.TextContent:
			sb.WriteString(c.Text)
		case *mcpgo.TextContent:
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}
