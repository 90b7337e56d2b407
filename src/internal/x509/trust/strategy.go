// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"cmp"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

// Strategy is an immutable trust policy: the signature, hash, encryption
// and key exchange algorithms a handshake may use, and the roots a peer
// chain must end in. Build it with [NewStrategy] or [DefaultStrategy]; it
// is safe to share between goroutines.
type Strategy struct {
	signatures  mapset.Set[SignatureAlgorithm]
	hashes      mapset.Set[HashAlgorithm]
	encryptions mapset.Set[EncryptionAlgorithm]
	exchanges   mapset.Set[KeyExchangeAlgorithm]

	roots       []*x509view.View
	fingerprint mapset.Set[[sha256.Size]byte]
}

// StrategyOption configures a [Strategy] under construction.
type StrategyOption func(*Strategy) error

// WithSignatureAlgorithms replaces the accepted signature algorithms.
func WithSignatureAlgorithms(algs ...SignatureAlgorithm) StrategyOption {
	return func(s *Strategy) error {
		s.signatures = mapset.NewThreadUnsafeSet(algs...)
		return nil
	}
}

// WithHashAlgorithms replaces the accepted hash algorithms.
func WithHashAlgorithms(algs ...HashAlgorithm) StrategyOption {
	return func(s *Strategy) error {
		s.hashes = mapset.NewThreadUnsafeSet(algs...)
		return nil
	}
}

// WithEncryptionAlgorithms replaces the accepted bulk ciphers.
func WithEncryptionAlgorithms(algs ...EncryptionAlgorithm) StrategyOption {
	return func(s *Strategy) error {
		s.encryptions = mapset.NewThreadUnsafeSet(algs...)
		return nil
	}
}

// WithKeyExchangeAlgorithms replaces the accepted key exchanges.
func WithKeyExchangeAlgorithms(algs ...KeyExchangeAlgorithm) StrategyOption {
	return func(s *Strategy) error {
		s.exchanges = mapset.NewThreadUnsafeSet(algs...)
		return nil
	}
}

// WithTrustedRoots adds trusted root certificates. Roots are matched by
// their SHA-256 fingerprint; adding the same root twice is harmless.
func WithTrustedRoots(roots ...*x509.Certificate) StrategyOption {
	return func(s *Strategy) error {
		for i, root := range roots {
			v, err := x509view.New(root)
			if err != nil {
				return fmt.Errorf("trusted root %d: %w", i, err)
			}
			if s.fingerprint.Add(v.Fingerprint()) {
				s.roots = append(s.roots, v)
			}
		}
		return nil
	}
}

// DefaultStrategy accepts RSA, DSA and ECDSA signatures over SHA-256,
// SHA-384 and SHA-512, AES-128 in GCM and CBC mode, the ECDHE, DHE and RSA
// key exchanges, and no trusted roots.
func DefaultStrategy() *Strategy {
	s, _ := NewStrategy()
	return s
}

// NewStrategy builds a Strategy from the defaults of [DefaultStrategy]
// modified by opts.
//
// Returns:
//   - *Strategy: Immutable policy
//   - error: Error from an option, such as a nil trusted root
func NewStrategy(opts ...StrategyOption) (*Strategy, error) {
	s := &Strategy{
		signatures:  mapset.NewThreadUnsafeSet(SignatureRSA, SignatureDSA, SignatureECDSA),
		hashes:      mapset.NewThreadUnsafeSet(HashSHA256, HashSHA384, HashSHA512),
		encryptions: mapset.NewThreadUnsafeSet(EncryptionAES128GCM, EncryptionAES128CBC),
		exchanges: mapset.NewThreadUnsafeSet(
			KeyExchangeECDHEECDSA, KeyExchangeECDHERSA, KeyExchangeDHEDSS, KeyExchangeDHERSA, KeyExchangeRSA,
		),
		fingerprint: mapset.NewThreadUnsafeSet[[sha256.Size]byte](),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SignatureAlgorithms returns the accepted signature algorithms in ascending order.
func (s *Strategy) SignatureAlgorithms() []SignatureAlgorithm { return sorted(s.signatures) }

// HashAlgorithms returns the accepted hash algorithms in ascending order.
func (s *Strategy) HashAlgorithms() []HashAlgorithm { return sorted(s.hashes) }

// EncryptionAlgorithms returns the accepted bulk ciphers in ascending order.
func (s *Strategy) EncryptionAlgorithms() []EncryptionAlgorithm { return sorted(s.encryptions) }

// KeyExchangeAlgorithms returns the accepted key exchanges in ascending order.
func (s *Strategy) KeyExchangeAlgorithms() []KeyExchangeAlgorithm { return sorted(s.exchanges) }

// TrustedRoots returns the trusted root certificates in the order added.
func (s *Strategy) TrustedRoots() []*x509.Certificate {
	out := make([]*x509.Certificate, len(s.roots))
	for i, v := range s.roots {
		out[i] = v.Certificate()
	}
	return out
}

// RootPool returns a fresh pool holding the trusted roots.
func (s *Strategy) RootPool() *x509.CertPool {
	pool := x509.NewCertPool()
	for _, v := range s.roots {
		pool.AddCert(v.Certificate())
	}
	return pool
}

// AcceptsSignature reports whether alg is accepted.
func (s *Strategy) AcceptsSignature(alg SignatureAlgorithm) bool { return s.signatures.Contains(alg) }

// AcceptsHash reports whether alg is accepted.
func (s *Strategy) AcceptsHash(alg HashAlgorithm) bool { return s.hashes.Contains(alg) }

// AcceptsEncryption reports whether alg is accepted.
func (s *Strategy) AcceptsEncryption(alg EncryptionAlgorithm) bool {
	return s.encryptions.Contains(alg)
}

// AcceptsKeyExchange reports whether alg is accepted.
func (s *Strategy) AcceptsKeyExchange(alg KeyExchangeAlgorithm) bool {
	return s.exchanges.Contains(alg)
}

// AcceptsSuite reports whether every part of suite is accepted. A
// certificate-authenticated key exchange also requires its signature
// algorithm to be accepted.
func (s *Strategy) AcceptsSuite(suite CipherSuite) bool {
	if !s.AcceptsKeyExchange(suite.KeyExchange) || !s.AcceptsEncryption(suite.Encryption) || !s.AcceptsHash(suite.Hash) {
		return false
	}
	if sig, ok := suite.KeyExchange.SignatureAlgorithm(); ok {
		return s.AcceptsSignature(sig)
	}
	return true
}

// IsTrustedRoot reports whether v is one of the trusted roots.
func (s *Strategy) IsTrustedRoot(v *x509view.View) bool {
	return v != nil && s.fingerprint.Contains(v.Fingerprint())
}

// TrustedIssuer returns the trusted root that issued v under scheme and
// whose key verifies v's signature.
func (s *Strategy) TrustedIssuer(v *x509view.View, scheme x509view.Scheme) (*x509view.View, bool) {
	issuer, ok := v.Issuer(scheme)
	if !ok {
		return nil, false
	}
	for _, root := range s.roots {
		if root.Identity(scheme) == issuer && v.Certificate().CheckSignatureFrom(root.Certificate()) == nil {
			return root, true
		}
	}
	return nil, false
}

// String summarizes the policy on one line.
func (s *Strategy) String() string {
	return fmt.Sprintf("signatures=[%s] hashes=[%s] encryption=[%s] key-exchange=[%s] roots=%d",
		joinCodes(s.SignatureAlgorithms()), joinCodes(s.HashAlgorithms()),
		joinCodes(s.EncryptionAlgorithms()), joinCodes(s.KeyExchangeAlgorithms()), len(s.roots))
}

func sorted[T cmp.Ordered](set mapset.Set[T]) []T {
	out := set.ToSlice()
	slices.Sort(out)
	return out
}

func joinCodes[T fmt.Stringer](codes []T) string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}
