// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509view provides a normalized, read-only projection of [X.509]
// certificates for trust graph reconstruction. A [View] exposes the subject and
// issuer identities under two schemes (distinguished names or key identifiers),
// the public key family, and the key usage bits, all computed once when the
// view is created.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509view
