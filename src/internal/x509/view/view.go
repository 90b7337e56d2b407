// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509view

import (
	"crypto/dsa" //nolint:staticcheck // DSA leaves still have to be classified.
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrNilCertificate indicates that a view was requested for a nil certificate.
	ErrNilCertificate = errors.New("x509view: nil certificate")

	// ErrParseCertificate indicates that DER input could not be parsed.
	ErrParseCertificate = errors.New("x509view: failed to parse certificate")
)

var oidExtensionKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 15}

// Algorithm is the closed set of public key families a leaf may carry.
type Algorithm uint8

const (
	// AlgorithmUnknown covers every key the classifier cannot sign with.
	AlgorithmUnknown Algorithm = iota
	AlgorithmRSA
	AlgorithmDSA
	AlgorithmECDSA
)

// String returns the conventional name of the algorithm family.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmRSA:
		return "RSA"
	case AlgorithmDSA:
		return "DSA"
	case AlgorithmECDSA:
		return "ECDSA"
	default:
		return "Unknown"
	}
}

// View is an immutable projection of an [x509.Certificate] holding everything
// chain building and classification need. Every attribute is computed once
// in [New]; a View is safe to share between goroutines and between chains.
type View struct {
	cert *x509.Certificate

	subject IdentityKey
	issuer  IdentityKey
	ski     IdentityKey
	aki     IdentityKey // zero when the extension is absent

	algorithm   Algorithm
	keyUsage    x509.KeyUsage
	hasKeyUsage bool
	fingerprint [sha256.Size]byte
}

// New builds a View from a parsed certificate.
//
// Parameters:
//   - cert: Parsed certificate, must not be nil
//
// Returns:
//   - *View: The normalized view
//   - error: [ErrNilCertificate] when cert is nil
func New(cert *x509.Certificate) (*View, error) {
	if cert == nil {
		return nil, ErrNilCertificate
	}

	v := &View{
		cert:        cert,
		subject:     IdentityKey{scheme: SchemeSubject, value: string(cert.RawSubject)},
		issuer:      IdentityKey{scheme: SchemeSubject, value: string(cert.RawIssuer)},
		ski:         subjectKeyID(cert),
		algorithm:   classifyKey(cert),
		keyUsage:    cert.KeyUsage,
		hasKeyUsage: hasExtension(cert, oidExtensionKeyUsage),
		fingerprint: sha256.Sum256(cert.Raw),
	}
	if len(cert.AuthorityKeyId) > 0 {
		v.aki = IdentityKey{scheme: SchemeKeyIdentifier, value: string(cert.AuthorityKeyId)}
	}

	return v, nil
}

// Parse decodes DER bytes and builds a View.
func Parse(der []byte) (*View, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCertificate, err)
	}
	return New(cert)
}

// FromCertificates builds one View per certificate, preserving order.
func FromCertificates(certs []*x509.Certificate) ([]*View, error) {
	views := make([]*View, 0, len(certs))
	for i, cert := range certs {
		v, err := New(cert)
		if err != nil {
			return nil, fmt.Errorf("certificate %d: %w", i, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// Certificate returns the underlying certificate. Callers must not modify it.
func (v *View) Certificate() *x509.Certificate { return v.cert }

// Raw returns the DER encoding of the certificate.
func (v *View) Raw() []byte { return v.cert.Raw }

// RawSubjectPublicKeyInfo returns the DER encoded public key of the certificate.
func (v *View) RawSubjectPublicKeyInfo() []byte { return v.cert.RawSubjectPublicKeyInfo }

// Fingerprint returns the SHA-256 digest of the DER encoding.
func (v *View) Fingerprint() [sha256.Size]byte { return v.fingerprint }

// Algorithm returns the public key family.
func (v *View) Algorithm() Algorithm { return v.algorithm }

// KeyUsage returns the key usage bits and whether the extension is present.
// An absent extension leaves the key unconstrained.
func (v *View) KeyUsage() (x509.KeyUsage, bool) { return v.keyUsage, v.hasKeyUsage }

// CommonName returns the subject common name, used for display only.
func (v *View) CommonName() string { return v.cert.Subject.CommonName }

// Identity returns the node identity of the certificate under scheme.
func (v *View) Identity(scheme Scheme) IdentityKey {
	if scheme == SchemeKeyIdentifier {
		return v.ski
	}
	return v.subject
}

// Issuer returns the identity of the issuing node under scheme. The boolean
// is false when the certificate carries no issuer-identifying data for the
// scheme, which only happens for a missing authority key identifier.
func (v *View) Issuer(scheme Scheme) (IdentityKey, bool) {
	if scheme == SchemeKeyIdentifier {
		return v.aki, !v.aki.IsZero()
	}
	return v.issuer, true
}

// SelfSigned reports whether the certificate terminates a chain under scheme:
// either its issuer identity equals its own, or it names no issuer at all.
func (v *View) SelfSigned(scheme Scheme) bool {
	issuer, ok := v.Issuer(scheme)
	if !ok {
		return true
	}
	return issuer == v.Identity(scheme)
}

// String implements [fmt.Stringer].
func (v *View) String() string {
	return fmt.Sprintf("%s (%s, sha256:%s)", v.subject, v.algorithm, hex.EncodeToString(v.fingerprint[:8]))
}

// subjectKeyID returns the SKI extension, or the RFC 5280 section 4.2.1.2
// method (1) identifier when the extension is missing.
func subjectKeyID(cert *x509.Certificate) IdentityKey {
	if len(cert.SubjectKeyId) > 0 {
		return IdentityKey{scheme: SchemeKeyIdentifier, value: string(cert.SubjectKeyId)}
	}

	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(cert.RawSubjectPublicKeyInfo, &spki); err != nil || len(spki.PublicKey.Bytes) == 0 {
		// Unparseable keys still need a distinct node.
		sum := sha1.Sum(cert.Raw)
		return IdentityKey{scheme: SchemeKeyIdentifier, value: string(sum[:])}
	}

	sum := sha1.Sum(spki.PublicKey.Bytes)
	return IdentityKey{scheme: SchemeKeyIdentifier, value: string(sum[:])}
}

// classifyKey maps the certificate key to its family. The declared algorithm
// and the decoded key must agree.
func classifyKey(cert *x509.Certificate) Algorithm {
	switch cert.PublicKeyAlgorithm {
	case x509.RSA:
		if _, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			return AlgorithmRSA
		}
	case x509.DSA:
		if _, ok := cert.PublicKey.(*dsa.PublicKey); ok {
			return AlgorithmDSA
		}
	case x509.ECDSA:
		if _, ok := cert.PublicKey.(*ecdsa.PublicKey); ok {
			return AlgorithmECDSA
		}
	}
	return AlgorithmUnknown
}

func hasExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return true
		}
	}
	return false
}
