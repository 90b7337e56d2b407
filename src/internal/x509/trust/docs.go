// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509trust decides which signing credentials a TLS endpoint may use
// and whether a peer's certificate chain is trusted. It provides:
//   - Algorithm codes for signatures, hashes, bulk ciphers and key exchanges.
//   - A classifier mapping a leaf certificate to the signature algorithm it can sign with.
//   - An immutable trust [Strategy] with accepted algorithms and trusted roots.
//   - A [KeyRing] written once by a [KeyRingBuilder] and read concurrently afterwards.
//   - A [Resolver] that binds key ring entries to chains under a strategy.
//   - A [SuiteTable] mapping cipher suites to their parts.
//   - A [PeerVerifier] that checks presented chains against a strategy.
//
// A typical setup:
//
//	kb := x509trust.NewKeyRingBuilder()
//	if err := kb.AddKey(cert.PublicKey, key, chain); err != nil {
//		return err
//	}
//	resolver := x509trust.NewResolver(kb.Build())
//	res, err := resolver.ResolveCredentials(x509trust.DefaultStrategy())
//
// Per-chain problems never abort a batch. They are reported in the
// [Resolution] next to the credentials that did resolve.
package x509trust
