// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
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
)

// createResources returns the static resources: the active trust strategy
// and version information.
func createResources(h *toolHandler, version string) []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource("config://strategy", "Trust Strategy",
				mcp.WithResourceDescription("Accepted algorithms, trusted roots and identity scheme of this server"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: h.handleStrategyResource,
		},
		{
			Resource: mcp.NewResource("info://version", "Version Information",
				mcp.WithResourceDescription("Server name, version and tools"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				var tools []string
				for _, t := range createTools(h) {
					tools = append(tools, t.Tool.Name)
				}
				return jsonResource(request.Params.URI, map[string]any{
					"name":    serverName,
					"version": version,
					"type":    "MCP Server",
					"tools":   tools,
				})
			},
		},
	}
}

// handleStrategyResource describes the strategy every tool applies.
func (h *toolHandler) handleStrategyResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var roots []string
	for _, r := range h.strategy.TrustedRoots() {
		roots = append(roots, r.Subject.String())
	}
	return jsonResource(request.Params.URI, map[string]any{
		"scheme":                h.scheme.String(),
		"signatureAlgorithms":   names(h.strategy.SignatureAlgorithms()),
		"hashAlgorithms":        names(h.strategy.HashAlgorithms()),
		"encryptionAlgorithms":  names(h.strategy.EncryptionAlgorithms()),
		"keyExchangeAlgorithms": names(h.strategy.KeyExchangeAlgorithms()),
		"trustedRoots":          roots,
		"acceptedSuites":        len(h.suites.Accepted(h.strategy)),
		"keyRingEntries":        h.resolver.KeyRing().Len(),
	})
}

func names[T fmt.Stringer](codes []T) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.String()
	}
	return out
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
