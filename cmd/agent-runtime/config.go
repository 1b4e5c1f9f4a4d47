// Package main implements the AgentCore runtime entrypoint binary for the
// blockchain data processing agent. It serves the runtime HTTP contract on
// port 8080 and answers prompts by driving a Bedrock model against the AWS
// data-processing MCP tools.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	envModelID        = "BLOCKCHAIN_AGENT_MODEL_ID"
	envPort           = "BLOCKCHAIN_AGENT_PORT"
	envMaxTokens      = "BLOCKCHAIN_AGENT_MAX_TOKENS"
	envMCPCommand     = "BLOCKCHAIN_AGENT_MCP_COMMAND"
	envMCPArgs        = "BLOCKCHAIN_AGENT_MCP_ARGS"
	envAWSRegion      = "AWS_REGION"
	envOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envTracingEnabled = "OTEL_TRACING_ENABLED"
)

// defaultPort is the port AgentCore expects the runtime contract on.
const defaultPort = 8080

// runtimeConfig holds all configuration parsed from environment variables.
type runtimeConfig struct {
	ModelID        string
	Port           int
	MaxTokens      int32
	MCPCommand     string
	MCPArgs        []string
	AWSRegion      string
	OTLPEndpoint   string
	TracingEnabled bool
}

// loadConfig reads configuration from environment variables. Everything has
// a default; the agent is usable with an empty environment inside AWS.
func loadConfig() (*runtimeConfig, error) {
	cfg := &runtimeConfig{
		ModelID:      os.Getenv(envModelID),
		MCPCommand:   os.Getenv(envMCPCommand),
		AWSRegion:    os.Getenv(envAWSRegion),
		OTLPEndpoint: os.Getenv(envOTLPEndpoint),
		Port:         defaultPort,
	}

	if argsStr := os.Getenv(envMCPArgs); argsStr != "" {
		cfg.MCPArgs = strings.Fields(argsStr)
	}

	if portStr := os.Getenv(envPort); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envPort, portStr, err)
		}
		cfg.Port = port
	}

	if maxStr := os.Getenv(envMaxTokens); maxStr != "" {
		max, err := strconv.ParseInt(maxStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envMaxTokens, maxStr, err)
		}
		cfg.MaxTokens = int32(max)
	}

	if tracingStr := os.Getenv(envTracingEnabled); tracingStr != "" {
		enabled, err := strconv.ParseBool(tracingStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envTracingEnabled, tracingStr, err)
		}
		cfg.TracingEnabled = enabled
	}

	return cfg, nil
}
