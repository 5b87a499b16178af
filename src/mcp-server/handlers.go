// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/mcp-server/templates"
)

// instructionData holds the data used to populate the instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string // role -> tool name
}

// toolInfo represents an MCP tool for template rendering.
type toolInfo struct {
	Name        string
	Description string
}

// loadInstructions renders the embedded instructions template for tools.
// Each tool's Role maps to its name so the template never hardcodes names.
func loadInstructions(tools []ToolDefinition) (string, error) {
	data := instructionData{ToolRoles: make(map[string]string)}
	for _, tool := range tools {
		data.Tools = append(data.Tools, toolInfo{
			Name:        tool.Tool.Name,
			Description: tool.Tool.Description,
		})
		if tool.Role != "" {
			data.ToolRoles[tool.Role] = tool.Tool.Name
		}
	}

	instructions, err := templates.Render("instructions.md", data)
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions: %w", err)
	}
	return instructions, nil
}
