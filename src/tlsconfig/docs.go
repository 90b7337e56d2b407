// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package tlsconfig connects the trust resolver to [crypto/tls]. Servers
// pick the first bound credential the client supports, clients answer
// certificate requests the same way, and every peer chain is checked by the
// strategy's [x509trust.PeerVerifier] instead of the system roots.
//
// Example:
//
//	cfg, err := tlsconfig.New(resolver, strategy, tlsconfig.WithClientAuth(tlsconfig.ClientAuthNeeds))
//	if err != nil {
//		return err
//	}
//	ln, err := tls.Listen("tcp", ":8443", cfg.Server())
//
// [x509trust.PeerVerifier]: https://pkg.go.dev/github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust#PeerVerifier
package tlsconfig
