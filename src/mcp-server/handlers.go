// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/mcp-server/templates"
)

// instructionData holds the data used to populate the MCP server instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string // Maps tool roles to tool names for template use
}

// toolInfo represents information about an MCP tool for template rendering.
type toolInfo struct {
	Name        string
	Description string
}

// loadInstructions renders the embedded instructions template with the
// names and descriptions of tools, so the text never drifts from what the
// server registers.
func loadInstructions(tools []ToolDefinition) (string, error) {
	templateBytes, err := templates.MagicEmbed.ReadFile("instructions.md")
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions template: %w", err)
	}

	data := instructionData{ToolRoles: make(map[string]string, len(tools))}
	for _, tool := range tools {
		data.Tools = append(data.Tools, toolInfo{Name: tool.Tool.Name, Description: tool.Tool.Description})
		if tool.Role != "" {
			data.ToolRoles[tool.Role] = tool.Tool.Name
		}
	}

	tmpl, err := template.New("instructions").Option("missingkey=error").Parse(string(templateBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse instructions template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute instructions template: %w", err)
	}
	return buf.String(), nil
}
