// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/mcp-server/templates"
)

// Resource URIs.
const (
	uriConfigTemplate = "config://template"
	uriVersion        = "info://version"
	uriTrustPolicies  = "docs://trust-policies"
)

// createResources returns the static resources. version is reported by
// info://version together with the tool names.
func createResources(version string, tools []ToolDefinition) []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource(uriConfigTemplate, "Configuration Template",
				mcp.WithResourceDescription("Default configuration in YAML, suitable as a starting point for "+cli.ConfigEnv),
				mcp.WithMIMEType("application/yaml"),
			),
			Handler: handleConfigResource,
		},
		{
			Resource: mcp.NewResource(uriVersion, "Version Information",
				mcp.WithResourceDescription("Server name, version and capabilities"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: handleVersionResource(version, tools),
		},
		{
			Resource: mcp.NewResource(uriTrustPolicies, "Trust Policy Reference",
				mcp.WithResourceDescription("Validators, OCSP modes and the failure kinds a report can name"),
				mcp.WithMIMEType("text/markdown"),
			),
			Handler: handleTrustPoliciesResource,
		},
	}
}

func handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := yaml.Marshal(cli.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config template: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriConfigTemplate,
			MIMEType: "application/yaml",
			Text:     string(data),
		},
	}, nil
}

func handleVersionResource(version string, tools []ToolDefinition) ResourceHandler {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names := make([]string, 0, len(tools))
		for _, tool := range tools {
			names = append(names, tool.Tool.Name)
		}

		info := map[string]any{
			"name":    serverName,
			"version": version,
			"type":    "MCP Server",
			"capabilities": map[string]any{
				"tools":     names,
				"resources": []string{uriConfigTemplate, uriVersion, uriTrustPolicies},
			},
			"validators":       []string{"ct", "ocsp", "crlset"},
			"ocspModes":        []string{"stapling", "direct", "mixed"},
			"supportedFormats": []string{cli.FormatJSON, cli.FormatTable},
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal version info: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uriVersion,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleTrustPoliciesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := templates.MagicEmbed.ReadFile("trust-policies.md")
	if err != nil {
		return nil, fmt.Errorf("failed to load trust policy reference: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriTrustPolicies,
			MIMEType: "text/markdown",
			Text:     string(data),
		},
	}, nil
}
