// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/config"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/version"
)

// EnvConfigFile names a configuration file for the server only. When it is
// unset the shared X509_TRUST_CONFIG_FILE applies.
const EnvConfigFile = "MCP_X509_CONFIG_FILE"

const serverName = "X509 Trust Resolver"

var appVersion = version.Version // default version

// GetVersion returns the version the server reports to clients.
func GetVersion() string {
	return appVersion
}

// Run starts the MCP server on stdin and stdout.
//
// Server Lifecycle:
//  1. Load configuration from MCP_X509_CONFIG_FILE or X509_TRUST_CONFIG_FILE
//  2. Load the key stores and the trust strategy once
//  3. Serve stdio until the client disconnects or SIGINT/SIGTERM arrives
//
// Logs go to stderr as JSON lines; stdout carries the protocol.
//
// Returns:
//   - error: Configuration or server failure, or a wrapped [context.Canceled] on signal-based shutdown
func Run(version string) error {
	appVersion = version

	cfg, err := config.Load(os.Getenv(EnvConfigFile))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewJSONLogger(os.Stderr, cfg.Log.Silent)

	s, err := NewServer(cfg, version, log)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdioServer := server.NewStdioServer(s)

	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}

// NewServer builds an MCP server whose tools share one key ring, trust
// strategy and peer verifier loaded from cfg.
//
// Parameters:
//   - cfg: Validated configuration
//   - version: Version reported to clients
//   - log: Destination for key store and resolution warnings
//
// Returns:
//   - *server.MCPServer: Server with tools and resources registered
//   - error: Strategy, key ring or instruction template failure
func NewServer(cfg *config.Config, version string, log logger.Logger) (*server.MCPServer, error) {
	h, err := newToolHandler(cfg, log)
	if err != nil {
		return nil, err
	}

	tools := createTools(h)
	instructions, err := loadInstructions(tools)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(instructions),
	)

	for _, tool := range tools {
		s.AddTool(tool.Tool, tool.Handler)
	}
	for _, r := range createResources(h, version) {
		s.AddResource(r.Resource, r.Handler)
	}
	return s, nil
}
