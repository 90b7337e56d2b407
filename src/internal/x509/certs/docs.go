// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs provides encoding and decoding operations for [X.509] certificates
// and the private keys stored next to them. It supports [PEM], DER, and [PKCS7]
// certificate inputs, PKCS#1, PKCS#8 and SEC 1 private keys, and mixed PEM bundles
// as produced by most key stores. The key store loader uses it to turn files into
// key ring entries and certificate pools.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
