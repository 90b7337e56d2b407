// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates embeds the markdown templates of the MCP server. The
// instructions template is rendered with the registered tools when the
// server is built.
package templates
