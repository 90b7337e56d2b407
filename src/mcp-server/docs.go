// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server of the X509 trust resolver.
// It exposes chain building, credential resolution and peer verification
// as tools over stdio, so that an MCP client can order certificate bundles,
// pick the credential a TLS endpoint would present, and check peer chains
// against the configured trust strategy.
//
// The key stores and the trust strategy are loaded once when the server is
// built; every tool call shares them. Peer verdicts are cached in an LRU
// sized by the peer.cacheSize configuration value.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
