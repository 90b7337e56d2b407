// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/testpki"
)

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

func TestCertificateOperations(t *testing.T) {
	root := testpki.Root(t, "Codec Root")
	leaf := testpki.Leaf(t, "codec.example", root)

	tests := []struct {
		name     string
		testFunc func(t *testing.T, decoder *x509certs.Certificate)
	}{
		{
			name: "Decode PEM",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				certs, err := decoder.DecodeMultiple(leaf.PEM())
				require.NoError(t, err)
				require.Len(t, certs, 1)
				assert.Equal(t, "codec.example", certs[0].Subject.CommonName)
			},
		},
		{
			name: "Decode DER",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				certs, err := decoder.DecodeMultiple(decoder.EncodeDER(leaf.Cert))
				require.NoError(t, err)
				require.Len(t, certs, 1)
				assert.True(t, certs[0].Equal(leaf.Cert))
			},
		},
		{
			name: "Decode-Encode-Decode Round Trip",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				certs, err := decoder.DecodeMultiple(decoder.EncodePEM(leaf.Cert))
				require.NoError(t, err)
				require.Len(t, certs, 1)
				assert.True(t, certs[0].Equal(leaf.Cert))
			},
		},
		{
			name: "Decode Multiple PEM Preserves Order",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				data := decoder.EncodeMultiplePEM([]*x509.Certificate{leaf.Cert, root.Cert})
				certs, err := decoder.DecodeMultiple(data)
				require.NoError(t, err)
				require.Len(t, certs, 2)
				assert.True(t, certs[0].Equal(leaf.Cert))
				assert.True(t, certs[1].Equal(root.Cert))
			},
		},
		{
			name: "Decode Multiple DER",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				data := decoder.EncodeMultipleDER([]*x509.Certificate{leaf.Cert, root.Cert})
				certs, err := decoder.DecodeMultiple(data)
				require.NoError(t, err)
				assert.Len(t, certs, 2)
			},
		},
		{
			name: "Encode PEM Block Type",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				block, _ := pem.Decode(decoder.EncodePEM(root.Cert))
				require.NotNil(t, block)
				assert.Equal(t, "CERTIFICATE", block.Type)
			},
		},
	}

	decoder := x509certs.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t, decoder)
		})
	}
}

func TestCertificate_DecodeMultiple_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{name: "Invalid PEM Type", input: []byte(invalidPEM), expected: x509certs.ErrInvalidBlockType},
		{name: "Invalid Certificate Data", input: []byte(invalidCERT), expected: x509certs.ErrParseCertificate},
		{name: "Garbage DER", input: []byte{0x01, 0x02, 0x03}, expected: x509certs.ErrParseCertificate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := x509certs.New().DecodeMultiple(tt.input)
			assert.Equal(t, tt.expected, err)
			assert.Nil(t, certs)
		})
	}
}

func TestCertificate_IsPEM(t *testing.T) {
	root := testpki.Root(t, "IsPEM Root")

	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{name: "Valid PEM", input: root.PEM(), expected: true},
		{name: "Invalid PEM", input: []byte("not a pem block"), expected: false},
		{name: "Empty Input", input: []byte(""), expected: false},
		{name: "DER format (binary)", input: root.Cert.Raw, expected: false},
	}

	decoder := x509certs.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decoder.IsPEM(tt.input))
		})
	}
}

func TestCertificate_DecodePrivateKey(t *testing.T) {
	issued := testpki.Root(t, "Key Root")
	decoder := x509certs.New()

	t.Run("PKCS8 PEM", func(t *testing.T) {
		key, err := decoder.DecodePrivateKey(issued.KeyPEM(t))
		require.NoError(t, err)
		assert.True(t, issued.Cert.PublicKey.(interface{ Equal(crypto.PublicKey) bool }).Equal(key.Public()))
	})

	t.Run("Certificate Block Rejected", func(t *testing.T) {
		_, err := decoder.DecodePrivateKey(issued.PEM())
		assert.Equal(t, x509certs.ErrInvalidBlockType, err)
	})

	t.Run("Garbage DER", func(t *testing.T) {
		_, err := decoder.DecodePrivateKey([]byte("nope"))
		assert.Equal(t, x509certs.ErrParsePrivateKey, err)
	})
}

func TestCertificate_DecodeBundle(t *testing.T) {
	root := testpki.Root(t, "Bundle Root")
	sub := testpki.Intermediate(t, "Bundle Sub", root)
	leaf := testpki.Leaf(t, "bundle.example", sub)

	decoder := x509certs.New()

	tests := []struct {
		name      string
		input     []byte
		wantCerts int
		wantErr   error
	}{
		{
			name:      "Key After Chain",
			input:     concat(leaf.PEM(), sub.PEM(), root.PEM(), leaf.KeyPEM(t)),
			wantCerts: 3,
		},
		{
			name:      "Key Before Chain",
			input:     concat(leaf.KeyPEM(t), leaf.PEM(), sub.PEM()),
			wantCerts: 2,
		},
		{
			name:    "Missing Key",
			input:   concat(leaf.PEM(), sub.PEM()),
			wantErr: x509certs.ErrNoPrivateKey,
		},
		{
			name:    "Missing Certificates",
			input:   leaf.KeyPEM(t),
			wantErr: x509certs.ErrInvalidPEMBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, key, err := decoder.DecodeBundle(tt.input)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			require.Len(t, certs, tt.wantCerts)
			assert.True(t, certs[0].Equal(leaf.Cert), "leaf must stay first")
			assert.NotNil(t, key)
		})
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
