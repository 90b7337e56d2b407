// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolHandler is the signature of every tool implementation.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolDefinition pairs an MCP tool specification with its handler.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic
//   - Role: Stable key the instructions template uses to refer to the tool
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// createTools returns the tool definitions bound to h.
//
// The function defines the following tools:
//   - build_cert_chains: builds every chain found in certificate files or base64 data
//   - resolve_credentials: binds the configured key stores to accepted signature algorithms
//   - verify_peer_chain: verifies a peer chain against the trust strategy
//   - list_cipher_suites: lists known cipher suites and whether the strategy accepts them
func createTools(h *toolHandler) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("build_cert_chains",
				mcp.WithDescription("Build every X509 certificate chain found in an unordered set of certificates"),
				mcp.WithString("certificates",
					mcp.Required(),
					mcp.Description("Comma-separated list of certificate file paths or base64-encoded certificate data (PEM, DER or PKCS#7)"),
				),
				mcp.WithString("scheme",
					mcp.Description("Identity key scheme: 'subject' or 'key-identifier' (default: "+h.scheme.String()+")"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'json', 'tree', 'table', 'pem' or 'der' as base64, one line per chain (default: json)"),
					mcp.DefaultString("json"),
				),
			),
			Handler: h.handleBuildCertChains,
			Role:    "chainBuilder",
		},
		{
			Tool: mcp.NewTool("resolve_credentials",
				mcp.WithDescription("Resolve the configured key stores into credentials bound to the signature algorithms the trust strategy accepts"),
				mcp.WithString("algorithm",
					mcp.Description("Return only the credential for this signature algorithm: 'rsa', 'dsa' or 'ecdsa'"),
				),
				mcp.WithString("suite",
					mcp.Description("Return only the credential for this cipher suite, by IANA name or hex identifier such as 0xC02B"),
				),
			),
			Handler: h.handleResolveCredentials,
			Role:    "credentialResolver",
		},
		{
			Tool: mcp.NewTool("verify_peer_chain",
				mcp.WithDescription("Verify a peer certificate chain, leaf first, against the trust strategy"),
				mcp.WithString("certificate",
					mcp.Required(),
					mcp.Description("Certificate chain file path or base64-encoded chain data, leaf first"),
				),
			),
			Handler: h.handleVerifyPeerChain,
			Role:    "peerVerifier",
		},
		{
			Tool: mcp.NewTool("list_cipher_suites",
				mcp.WithDescription("List the cipher suites credentials can be bound for and whether the trust strategy accepts them"),
				mcp.WithBoolean("accepted_only",
					mcp.Description("List only accepted suites (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: h.handleListCipherSuites,
			Role:    "suiteLister",
		},
	}
}
