// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust_test

import (
	"crypto/dsa" //nolint:staticcheck
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/testpki"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

var oidKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 15}

func mustView(t *testing.T, cert *x509.Certificate) *x509view.View {
	t.Helper()
	v, err := x509view.New(cert)
	require.NoError(t, err)
	return v
}

func TestClassify(t *testing.T) {
	root := testpki.Root(t, "Classify Root")

	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name     string
		cert     *x509.Certificate
		expected x509trust.SignatureAlgorithm
		err      error
	}{
		{
			name:     "ECDSA Leaf",
			cert:     testpki.Leaf(t, "ecdsa.example", root).Cert,
			expected: x509trust.SignatureECDSA,
		},
		{
			name: "RSA Leaf",
			cert: testpki.Issue(t, root, testpki.Options{
				CommonName: "rsa.example",
				Key:        testpki.RSAKey(t),
				KeyUsage:   x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
			}).Cert,
			expected: x509trust.SignatureRSA,
		},
		{
			name:     "DSA Leaf Without Key Usage",
			cert:     &x509.Certificate{PublicKeyAlgorithm: x509.DSA, PublicKey: &dsa.PublicKey{}},
			expected: x509trust.SignatureDSA,
		},
		{
			name:     "Missing Key Usage Is Unconstrained",
			cert:     testpki.Issue(t, root, testpki.Options{CommonName: "open.example"}).Cert,
			expected: x509trust.SignatureECDSA,
		},
		{
			name: "Key Usage Without Digital Signature",
			cert: testpki.Issue(t, root, testpki.Options{
				CommonName: "encipher.example",
				Key:        testpki.RSAKey(t),
				KeyUsage:   x509.KeyUsageKeyEncipherment,
			}).Cert,
			err: x509trust.ErrInvalidSignatureCertificate,
		},
		{
			name: "DSA With Cert Sign Only",
			cert: &x509.Certificate{
				PublicKeyAlgorithm: x509.DSA,
				PublicKey:          &dsa.PublicKey{},
				KeyUsage:           x509.KeyUsageCertSign,
				Extensions:         []pkix.Extension{{Id: oidKeyUsage}},
			},
			err: x509trust.ErrInvalidSignatureCertificate,
		},
		{
			name: "Ed25519 Is Unknown",
			cert: testpki.Issue(t, root, testpki.Options{
				CommonName: "ed25519.example",
				Key:        edKey,
				KeyUsage:   x509.KeyUsageDigitalSignature,
			}).Cert,
			err: x509trust.ErrUnknownCertificateType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, err := x509trust.Classify(mustView(t, tt.cert))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, x509trust.SignatureAnonymous, alg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, alg)
		})
	}

	t.Run("Nil Leaf", func(t *testing.T) {
		_, err := x509trust.Classify(nil)
		assert.ErrorIs(t, err, x509view.ErrNilCertificate)
	})
}
