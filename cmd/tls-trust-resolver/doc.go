// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// tls-trust-resolver builds certificate chains, binds key store credentials
// to the signature algorithms a trust strategy accepts, and verifies peer
// chains against that strategy.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-trust-resolver/cmd/tls-trust-resolver@latest
//
// # Usage
//
//	tls-trust-resolver [--config FILE] [--scheme SCHEME] [--format FORMAT] COMMAND
//
// # Commands
//
//	chains FILE...   Build every chain found in the certificate files
//	credentials      Resolve the configured key stores into bound credentials
//	verify FILE      Verify a peer chain, leaf first, against the strategy
//
// # Flags
//
//	-c, --config   Configuration file, JSON or YAML (default: $X509_TRUST_CONFIG_FILE)
//	    --scheme   Identity key scheme: subject or key-identifier
//	-f, --format   Output format: tree, table, json, pem or der (default: tree)
//
// # Examples
//
// Order an unsorted bundle into chains and print them as PEM:
//
//	tls-trust-resolver chains --format pem bundle.pem > chain.pem
//
// List the credentials a server would offer:
//
//	tls-trust-resolver credentials -c trust.yaml --format table
//
// Pick the credential for a negotiated cipher suite:
//
//	tls-trust-resolver credentials -c trust.yaml --suite 0xC02B
//
// Check a peer chain against an extra root:
//
//	tls-trust-resolver verify --roots ca.pem peer.pem
package main
