// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the trust resolver configuration from a JSON or YAML
// file and turns it into a trust strategy, a key ring and a logger.
//
// Example YAML:
//
//	scheme: key-identifier
//	strategy:
//	  signatureAlgorithms: [ecdsa, rsa]
//	  hashAlgorithms: [sha-256, sha-384]
//	  encryptionAlgorithms: [aes_128_gcm]
//	  keyExchangeAlgorithms: [ecdhe_ecdsa, ecdhe_rsa]
//	  trustedRoots: [/etc/tls/root.pem]
//	keyStores:
//	  - type: pem
//	    cert: /etc/tls/server.pem
//	    key: /etc/tls/server.key
//	  - type: pkcs12
//	    path: /etc/tls/client.p12
//	peer:
//	  cacheSize: 256
//	log:
//	  format: json
package config
