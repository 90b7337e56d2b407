// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain reconstructs [X.509] certificate chains from an unordered
// pool of certificates. It provides capabilities to:
//   - Index a pool into a trust graph by subject name or by key identifier.
//   - Walk every leaf up to a self-signed root, isolating per-leaf failures.
//   - Check the structural link invariant and signatures of a chain.
//   - Render chains as ASCII trees, markdown tables, or JSON.
//
// Chain building is pure computation over certificates already in memory.
// It performs no network access, no validity period check and no
// revocation check.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
