// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

// DefaultPeerCacheSize is the number of verdicts a [PeerVerifier] keeps by default.
const DefaultPeerCacheSize = 128

var (
	// ErrEmptyPeerChain indicates that the peer presented no certificates.
	ErrEmptyPeerChain = errors.New("x509trust: peer presented no certificates")

	// ErrUntrustedChain indicates a peer chain that does not reach a trusted root.
	ErrUntrustedChain = errors.New("x509trust: peer chain is not trusted")

	// ErrSignatureAlgorithmNotAccepted indicates a signature algorithm the strategy rejects.
	ErrSignatureAlgorithmNotAccepted = errors.New("x509trust: signature algorithm not accepted")

	// ErrHashAlgorithmNotAccepted indicates a certificate signed with a hash
	// the strategy rejects.
	ErrHashAlgorithmNotAccepted = errors.New("x509trust: hash algorithm not accepted")
)

// PeerOption configures a [PeerVerifier].
type PeerOption func(*peerConfig)

type peerConfig struct {
	cacheSize int
}

// WithCacheSize sets how many verdicts are remembered. Zero disables the cache.
func WithCacheSize(n int) PeerOption {
	return func(c *peerConfig) { c.cacheSize = max(n, 0) }
}

// PeerVerifier validates chains presented by a TLS peer against a
// strategy. Verdicts are cached by the SHA-256 of the presented chain. It
// is safe for concurrent use.
type PeerVerifier struct {
	strategy *Strategy
	scheme   x509view.Scheme
	cache    *lru.Cache[[sha256.Size]byte, error]
}

// NewPeerVerifier creates a verifier for strategy using scheme to match
// issuers to subjects.
func NewPeerVerifier(strategy *Strategy, scheme x509view.Scheme, opts ...PeerOption) (*PeerVerifier, error) {
	if strategy == nil {
		return nil, ErrNilStrategy
	}

	cfg := peerConfig{cacheSize: DefaultPeerCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &PeerVerifier{strategy: strategy, scheme: scheme}
	if cfg.cacheSize > 0 {
		cache, err := lru.New[[sha256.Size]byte, error](cfg.cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Strategy returns the strategy chains are verified against.
func (p *PeerVerifier) Strategy() *Strategy { return p.strategy }

// Verify checks a peer chain, leaf first. The chain may omit its root.
//
// The checks run in order: issuer links, signatures, the hash of every
// certificate signature below a self-signed root, the leaf's signature
// algorithm, and finally trust. A chain is trusted when one of its
// certificates is a trusted root or its last certificate was issued by one.
// Expiry and revocation are not checked.
//
// Returns:
//   - error: nil, [ErrEmptyPeerChain], [ErrUntrustedChain],
//     [ErrSignatureAlgorithmNotAccepted], [ErrHashAlgorithmNotAccepted] or a
//     wrapped chain or classifier error
func (p *PeerVerifier) Verify(certs []*x509.Certificate) error {
	if len(certs) == 0 {
		return ErrEmptyPeerChain
	}
	if p.cache == nil {
		return p.verify(certs)
	}

	key, err := chainDigest(certs)
	if err != nil {
		return err
	}
	if verdict, ok := p.cache.Get(key); ok {
		return verdict
	}
	verdict := p.verify(certs)
	p.cache.Add(key, verdict)
	return verdict
}

// VerifyRaw parses DER certificates as handed to
// [crypto/tls.Config.VerifyPeerCertificate] and verifies them.
func (p *PeerVerifier) VerifyRaw(rawCerts [][]byte) error {
	if len(rawCerts) == 0 {
		return ErrEmptyPeerChain
	}
	certs := make([]*x509.Certificate, len(rawCerts))
	for i, der := range rawCerts {
		v, err := x509view.Parse(der)
		if err != nil {
			return fmt.Errorf("peer certificate %d: %w", i, err)
		}
		certs[i] = v.Certificate()
	}
	return p.Verify(certs)
}

func (p *PeerVerifier) verify(certs []*x509.Certificate) error {
	ch, err := x509chain.FromCertificates(certs)
	if err != nil {
		return err
	}
	if err := ch.ValidateLinks(p.scheme); err != nil {
		return err
	}
	if err := ch.VerifySignatures(); err != nil {
		return err
	}

	for _, v := range ch.Views() {
		if v.SelfSigned(p.scheme) {
			continue
		}
		cert := v.Certificate()
		hash, ok := CertificateHash(cert.SignatureAlgorithm)
		if !ok || !p.strategy.AcceptsHash(hash) {
			return fmt.Errorf("%w: %s signed with %s", ErrHashAlgorithmNotAccepted, v, cert.SignatureAlgorithm)
		}
	}

	alg, err := Classify(ch.Leaf())
	if err != nil {
		return err
	}
	if !p.strategy.AcceptsSignature(alg) {
		return fmt.Errorf("%w: %s leaf %s", ErrSignatureAlgorithmNotAccepted, alg, ch.Leaf())
	}

	for _, v := range ch.Views() {
		if p.strategy.IsTrustedRoot(v) {
			return nil
		}
	}
	if last := ch.Root(); !last.SelfSigned(p.scheme) {
		if _, ok := p.strategy.TrustedIssuer(last, p.scheme); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUntrustedChain, ch)
}

// chainDigest hashes each DER certificate with its length so that
// different splits of the same bytes never collide.
func chainDigest(certs []*x509.Certificate) ([sha256.Size]byte, error) {
	h := sha256.New()
	var n [8]byte
	for i, cert := range certs {
		if cert == nil {
			return [sha256.Size]byte{}, fmt.Errorf("peer certificate %d: %w", i, x509view.ErrNilCertificate)
		}
		binary.BigEndian.PutUint64(n[:], uint64(len(cert.Raw)))
		h.Write(n[:])
		h.Write(cert.Raw)
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
