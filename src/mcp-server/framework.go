// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// serverName is announced to MCP clients during initialization.
const serverName = "TLS Trust Validator"

// ErrNoChecker is returned by [ServerBuilder.Build] when no checker was supplied.
var ErrNoChecker = errors.New("mcpserver: trust checker is required")

// ToolHandler is the signature of every tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ResourceHandler is the signature of every resource handler.
type ResourceHandler = func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// ToolDefinition pairs a tool with its handler. Role names the tool inside
// the instructions template, so the template does not hardcode tool names.
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ServerDependencies holds everything a server is built from.
type ServerDependencies struct {
	Checker      cli.TrustChecker
	Policy       *policy.Config
	Version      string
	Tools        []ToolDefinition
	Resources    []server.ServerResource
	Instructions string
}

// ServerBuilder assembles an MCP server step by step.
//
// Example:
//
//	s, err := NewServerBuilder().
//		WithVersion(version).
//		WithChecker(checker).
//		WithPolicy(checker.Policy()).
//		WithDefaultTools().
//		Build()
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder returns an empty builder.
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithChecker sets the checker behind check_tls_trust.
func (b *ServerBuilder) WithChecker(c cli.TrustChecker) *ServerBuilder {
	b.deps.Checker = c
	return b
}

// WithPolicy sets the policy described by get_trust_policy.
func (b *ServerBuilder) WithPolicy(p *policy.Config) *ServerBuilder {
	b.deps.Policy = p
	return b
}

// WithVersion sets the announced server version.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithTools appends tool definitions.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithDefaultTools appends the trust tools bound to the configured checker and
// policy. Call it after WithChecker and WithPolicy.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	return b.WithTools(createTools(b.deps.Checker, b.deps.Policy)...)
}

// WithResources appends static resources.
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithInstructions sets the instructions sent on initialize. When unset,
// Build renders them from the embedded template and the registered tools.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// Build creates the MCP server.
//
// Returns:
//   - *server.MCPServer: Server with every tool and resource registered
//   - error: [ErrNoChecker], or a failure rendering the instructions
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	if b.deps.Checker == nil {
		return nil, ErrNoChecker
	}

	instructions := b.deps.Instructions
	if instructions == "" {
		var err error
		if instructions, err = loadInstructions(b.deps.Tools); err != nil {
			return nil, err
		}
	}

	s := server.NewMCPServer(
		serverName,
		b.deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions(instructions),
	)

	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}
	for _, resource := range b.deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}
	return s, nil
}
