// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// Tool names.
const (
	toolCheckTLSTrust  = "check_tls_trust"
	toolGetTrustPolicy = "get_trust_policy"
)

// createTools returns the trust tools bound to checker and p.
func createTools(checker cli.TrustChecker, p *policy.Config) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool(toolCheckTLSTrust,
				mcp.WithDescription("Dial a TLS server and validate it against the configured trust policy (Certificate Transparency, OCSP, CRLSet)"),
				mcp.WithString("hostname",
					mcp.Required(),
					mcp.Description("Hostname or IP address to check; may include a port as host:port"),
				),
				mcp.WithNumber("port",
					mcp.Description("TCP port (default: 443)"),
				),
				mcp.WithString("ocsp_mode",
					mcp.Description("Override the OCSP mode for this check: 'stapling', 'direct' or 'mixed'"),
				),
				mcp.WithBoolean("fail_hard",
					mcp.Description("Override whether OCSP errors other than revocation reject the peer"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'json' or 'table' (default: json)"),
					mcp.DefaultString(cli.FormatJSON),
				),
			),
			Handler: handleCheckTLSTrust(checker),
			Role:    "trustChecker",
		},
		{
			Tool: mcp.NewTool(toolGetTrustPolicy,
				mcp.WithDescription("Describe the trust policy applied by check_tls_trust"),
			),
			Handler: handleGetTrustPolicy(p),
			Role:    "policyInspector",
		},
	}
}
