// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the TLS trust resolver.
// It implements a Cobra command tree with three subcommands:
//
//   - chains: build certificate chains from unordered certificate files
//   - credentials: bind the configured key stores to accepted signature algorithms
//   - verify: check a peer chain against the trust strategy
//
// Every subcommand reads the configuration described in package config and
// accepts the persistent --config, --scheme and --format flags. Warnings go
// to the logger passed to [Execute]; results go to the command output.
package cli
