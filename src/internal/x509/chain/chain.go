// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"

	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

var (
	// ErrEmptyChain indicates that a chain was constructed without certificates.
	ErrEmptyChain = errors.New("x509chain: empty chain")

	// ErrBrokenLink indicates that a certificate is not issued by its successor.
	ErrBrokenLink = errors.New("x509chain: issuer does not match next certificate")

	// ErrNotSelfSigned indicates that the last certificate of a chain is not a root.
	ErrNotSelfSigned = errors.New("x509chain: last certificate is not self-signed")

	// ErrSignatureMismatch indicates that a certificate signature does not
	// verify under the public key of its issuer.
	ErrSignatureMismatch = errors.New("x509chain: signature verification failed")
)

// Chain is an ordered, immutable sequence of certificate views. Index 0 is
// the leaf and the last element is the root. Views are shared read-only with
// every other chain built from the same pool.
type Chain struct {
	views []*x509view.View
}

// New creates a Chain from views ordered leaf first. The link invariant is
// not checked; use [Chain.Validate] for that.
//
// Parameters:
//   - views: Certificate views, leaf first
//
// Returns:
//   - *Chain: New Chain instance
//   - error: [ErrEmptyChain] when views is empty, [x509view.ErrNilCertificate] for nil entries
func New(views []*x509view.View) (*Chain, error) {
	if len(views) == 0 {
		return nil, ErrEmptyChain
	}
	for i, v := range views {
		if v == nil {
			return nil, fmt.Errorf("certificate %d: %w", i, x509view.ErrNilCertificate)
		}
	}

	return &Chain{views: append([]*x509view.View(nil), views...)}, nil
}

// FromCertificates wraps an externally observed chain, such as one loaded
// from a key store, leaf first.
func FromCertificates(certs []*x509.Certificate) (*Chain, error) {
	if len(certs) == 0 {
		return nil, ErrEmptyChain
	}
	views, err := x509view.FromCertificates(certs)
	if err != nil {
		return nil, err
	}
	return &Chain{views: views}, nil
}

// Leaf returns the end-entity certificate.
func (ch *Chain) Leaf() *x509view.View { return ch.views[0] }

// Root returns the last certificate of the chain.
func (ch *Chain) Root() *x509view.View { return ch.views[len(ch.views)-1] }

// Len returns the number of certificates in the chain.
func (ch *Chain) Len() int { return len(ch.views) }

// Views returns a copy of the chain's views, leaf first.
func (ch *Chain) Views() []*x509view.View {
	return append([]*x509view.View(nil), ch.views...)
}

// Certificates returns the parsed certificates, leaf first. The slice is a
// fresh copy; the certificates themselves must not be modified.
func (ch *Chain) Certificates() []*x509.Certificate {
	certs := make([]*x509.Certificate, len(ch.views))
	for i, v := range ch.views {
		certs[i] = v.Certificate()
	}
	return certs
}

// DER returns the raw encoding of every certificate, leaf first, in the
// shape [crypto/tls.Certificate] expects.
func (ch *Chain) DER() [][]byte {
	out := make([][]byte, len(ch.views))
	for i, v := range ch.views {
		out[i] = v.Raw()
	}
	return out
}

// Intermediates returns the certificates between the leaf and the root.
//
// Returns:
//   - []*x509.Certificate: Slice of intermediate certificates, or nil if none
func (ch *Chain) Intermediates() []*x509.Certificate {
	if len(ch.views) <= 2 {
		return nil
	}
	return ch.Certificates()[1 : len(ch.views)-1]
}

// Validate checks the structural invariant of a chain under scheme: every
// certificate names its successor as issuer, and the last one is self-signed.
//
// Returns:
//   - error: [ErrBrokenLink] or [ErrNotSelfSigned] wrapped with the offending position
func (ch *Chain) Validate(scheme x509view.Scheme) error {
	if err := ch.ValidateLinks(scheme); err != nil {
		return err
	}

	if root := ch.Root(); !root.SelfSigned(scheme) {
		return fmt.Errorf("%w: %s", ErrNotSelfSigned, root)
	}
	return nil
}

// ValidateLinks checks only that every certificate names its successor as
// issuer. Peer-presented chains that omit their root pass it.
func (ch *Chain) ValidateLinks(scheme x509view.Scheme) error {
	for i := 0; i < len(ch.views)-1; i++ {
		issuer, ok := ch.views[i].Issuer(scheme)
		next := ch.views[i+1].Identity(scheme)
		if !ok || issuer != next {
			return fmt.Errorf("%w: certificate %d (%s) names issuer %s, next is %s",
				ErrBrokenLink, i, ch.views[i], issuer, next)
		}
	}
	return nil
}

// VerifySignatures checks each certificate's signature against the public
// key of the next one. The root is checked against itself when its subject
// and issuer names are equal. No validity period, name constraint or
// revocation check is performed.
//
// Returns:
//   - error: First failure wrapped with [ErrSignatureMismatch], or nil
func (ch *Chain) VerifySignatures() error {
	for i, err := range ch.signatureStatus() {
		if err != nil {
			return fmt.Errorf("%w: certificate %d (%s): %w", ErrSignatureMismatch, i, ch.views[i], err)
		}
	}
	return nil
}

// signatureStatus returns one entry per certificate: nil when its signature
// verifies under the issuer at the next position.
func (ch *Chain) signatureStatus() []error {
	status := make([]error, len(ch.views))
	for i := range ch.views {
		cert := ch.views[i].Certificate()
		if i < len(ch.views)-1 {
			status[i] = cert.CheckSignatureFrom(ch.views[i+1].Certificate())
			continue
		}
		if bytes.Equal(cert.RawSubject, cert.RawIssuer) {
			status[i] = cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature)
		}
	}
	return status
}

// String returns the chain as "leaf -> ... -> root".
func (ch *Chain) String() string {
	var b bytes.Buffer
	for i, v := range ch.views {
		if i > 0 {
			b.WriteString(" -> ")
		}
		b.WriteString(v.Identity(x509view.SchemeSubject).String())
	}
	return b.String()
}
