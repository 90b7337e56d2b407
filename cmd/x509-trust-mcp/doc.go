// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-trust-mcp serves the X509 trust resolver as a Model Context Protocol
// server over stdio.
//
// # Installation
//
//	go install github.com/H0llyW00dzZ/tls-trust-resolver/cmd/x509-trust-mcp@latest
//
// # Configuration
//
// The server reads the file named by MCP_X509_CONFIG_FILE, or by
// X509_TRUST_CONFIG_FILE when the former is unset. Key stores and the trust
// strategy are loaded once at startup. Logs are written to stderr as JSON
// lines.
//
// # Client Setup
//
//	{
//	  "mcpServers": {
//	    "x509-trust": {
//	      "command": "x509-trust-mcp",
//	      "env": {"MCP_X509_CONFIG_FILE": "/etc/x509-trust/trust.yaml"}
//	    }
//	  }
//	}
package main
