// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package testpki builds small certificate hierarchies for tests.
package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var serial atomic.Int64

// RSA key generation dominates test time, so keys are shared per process.
var (
	rsaOnce sync.Once
	rsaKey  *rsa.PrivateKey
	rsaErr  error
)

// Issued is a certificate together with the key it certifies.
type Issued struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// PEM returns the certificate in PEM form.
func (i *Issued) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: i.Cert.Raw})
}

// KeyPEM returns the private key as a PKCS#8 PEM block.
func (i *Issued) KeyPEM(t testing.TB) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(i.Key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// Options controls a single issuance.
type Options struct {
	// CommonName is the subject common name.
	CommonName string
	// Key is the subject key; an ECDSA P-256 key is generated when nil.
	Key crypto.Signer
	// KeyUsage is written to the key usage extension; zero omits the extension.
	KeyUsage x509.KeyUsage
	// IsCA marks the certificate as a certificate authority.
	IsCA bool
	// NoKeyIdentifiers omits the subject key identifier extension.
	NoKeyIdentifiers bool
	// SubjectKeyID overrides the derived subject key identifier.
	SubjectKeyID []byte
}

// ECDSAKey returns a fresh P-256 key.
func ECDSAKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	return key
}

// RSAKey returns a 2048-bit RSA key shared by every caller in the process.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	rsaOnce.Do(func() {
		rsaKey, rsaErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if rsaErr != nil {
		t.Fatalf("generate rsa key: %v", rsaErr)
	}
	return rsaKey
}

// Root issues a self-signed CA certificate.
func Root(t testing.TB, cn string) *Issued {
	t.Helper()
	return Issue(t, nil, Options{
		CommonName: cn,
		IsCA:       true,
		KeyUsage:   x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	})
}

// Intermediate issues a CA certificate signed by parent.
func Intermediate(t testing.TB, cn string, parent *Issued) *Issued {
	t.Helper()
	return Issue(t, parent, Options{
		CommonName: cn,
		IsCA:       true,
		KeyUsage:   x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	})
}

// Leaf issues an end-entity certificate usable for TLS signatures.
func Leaf(t testing.TB, cn string, parent *Issued) *Issued {
	t.Helper()
	return Issue(t, parent, Options{
		CommonName: cn,
		KeyUsage:   x509.KeyUsageDigitalSignature,
	})
}

// Issue creates a certificate from opts, signed by parent or self-signed when
// parent is nil. Subject key identifiers are derived from the public key so
// that the issued authority key identifier always matches the parent.
func Issue(t testing.TB, parent *Issued, opts Options) *Issued {
	t.Helper()

	key := opts.Key
	if key == nil {
		key = ECDSAKey(t)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial.Add(1)),
		Subject:               pkix.Name{CommonName: opts.CommonName, Organization: []string{"testpki"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              opts.KeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  opts.IsCA,
	}

	switch {
	case opts.SubjectKeyID != nil:
		template.SubjectKeyId = opts.SubjectKeyID
	case !opts.NoKeyIdentifiers:
		template.SubjectKeyId = keyID(t, key.Public())
	}

	signerCert, signerKey := template, key
	if parent != nil {
		signerCert, signerKey = parent.Cert, parent.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, signerCert, key.Public(), signerKey)
	if err != nil {
		t.Fatalf("create certificate %q: %v", opts.CommonName, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate %q: %v", opts.CommonName, err)
	}

	return &Issued{Cert: cert, Key: key}
}

// keyID hashes the marshalled public key; uniqueness is all the tests need.
func keyID(t testing.TB, pub crypto.PublicKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	sum := sha1.Sum(der)
	return sum[:]
}

// Certs extracts the certificates of issued in order.
func Certs(issued ...*Issued) []*x509.Certificate {
	certs := make([]*x509.Certificate, 0, len(issued))
	for _, i := range issued {
		certs = append(certs, i.Cert)
	}
	return certs
}
