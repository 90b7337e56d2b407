// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package keystore loads key pairs and certificates from files and hands
// them to the trust resolver. Supported sources are:
//   - A certificate file with a separate private key file.
//   - A single PEM bundle holding certificates and one private key.
//   - A legacy password-protected PKCS#12 file.
//
// Loaded entries populate an [x509trust.KeyRingBuilder] through [Populate].
// [LoadPool] reads plain certificate files for chain building.
//
// [x509trust.KeyRingBuilder]: https://pkg.go.dev/github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust#KeyRingBuilder
package keystore
