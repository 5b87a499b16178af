// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates provides embedded filesystem access for MCP server template files:
// the server instructions template and the trust policy documentation served as a resource.
//
// Example usage:
//
//	import "github.com/H0llyW00dzZ/tls-trust-validator/src/mcp-server/templates"
//
//	content, err := templates.MagicEmbed.ReadFile("trust-policies.md")
//	if err != nil {
//		return fmt.Errorf("failed to read trust policies: %w", err)
//	}
package templates
