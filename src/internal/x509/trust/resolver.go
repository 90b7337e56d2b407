// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"crypto"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/multierr"

	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

var (
	// ErrNoMatchingKeyPair indicates a policy-eligible chain whose leaf key
	// has no private key in the key ring.
	ErrNoMatchingKeyPair = errors.New("x509trust: no matching key pair")

	// ErrNoCredential indicates that no bound credential satisfies a request.
	ErrNoCredential = errors.New("x509trust: no credential for signature algorithm")

	// ErrUnknownCipherSuite indicates a cipher suite identifier missing from the suite table.
	ErrUnknownCipherSuite = errors.New("x509trust: unknown cipher suite")

	// ErrCipherSuiteNotAccepted indicates a cipher suite the strategy rejects.
	ErrCipherSuiteNotAccepted = errors.New("x509trust: cipher suite not accepted")

	// ErrNilStrategy indicates that a nil strategy was passed.
	ErrNilStrategy = errors.New("x509trust: nil trust strategy")

	// ErrNilChains indicates that Resolve was called without a chain set.
	ErrNilChains = errors.New("x509trust: nil chain set")
)

// BoundCredential is a usable signing credential: a key pair, the
// signature algorithm it signs with, its chain, and the strategy it was
// resolved under.
type BoundCredential struct {
	PublicKey  crypto.PublicKey
	PrivateKey crypto.PrivateKey
	Algorithm  SignatureAlgorithm
	Chain      *x509chain.Chain
	Strategy   *Strategy
}

// TLSCertificate converts the credential for use with crypto/tls. The
// whole chain is sent, leaf first.
func (c *BoundCredential) TLSCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: c.Chain.DER(),
		PrivateKey:  c.PrivateKey,
		Leaf:        c.Chain.Leaf().Certificate(),
	}
}

// String returns the algorithm and chain.
func (c *BoundCredential) String() string {
	return fmt.Sprintf("%s: %s", c.Algorithm, c.Chain)
}

// CredentialData is the JSON form of a bound credential. Algorithm names
// use the lower case spelling configuration files accept.
type CredentialData struct {
	Algorithm   string   `json:"algorithm"`
	Leaf        string   `json:"leaf"`
	Root        string   `json:"root"`
	ChainLength int      `json:"chainLength"`
	Fingerprint string   `json:"sha256Fingerprint"`
	Chain       []string `json:"chain"`
}

// Data describes the credential without its key material.
func (c *BoundCredential) Data() CredentialData {
	fp := c.Chain.Leaf().Fingerprint()
	d := CredentialData{
		Algorithm:   strings.ToLower(c.Algorithm.String()),
		Leaf:        c.Chain.Leaf().String(),
		Root:        c.Chain.Root().String(),
		ChainLength: c.Chain.Len(),
		Fingerprint: hex.EncodeToString(fp[:]),
	}
	for _, v := range c.Chain.Views() {
		d.Chain = append(d.Chain, v.String())
	}
	return d
}

// CredentialError reports why a chain produced no credential.
type CredentialError struct {
	Chain *x509chain.Chain
	Err   error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	return fmt.Sprintf("chain %s: %v", e.Chain, e.Err)
}

// Unwrap returns the underlying error.
func (e *CredentialError) Unwrap() error { return e.Err }

// Resolution is the outcome of resolving credentials under one strategy.
type Resolution struct {
	// Credentials are the bound credentials in chain order. It may be empty.
	Credentials []*BoundCredential
	// Failures are chains rejected by the classifier or missing a key pair.
	Failures []*CredentialError
	// ChainFailures are leaves for which no chain could be built.
	ChainFailures []*x509chain.ChainError
	// Duplicates are certificates dropped from the rebuilt graph because a
	// later one shares their identity key. They are advisory.
	Duplicates []x509chain.Duplicate
	// Filtered are chains whose signature algorithm the strategy does not
	// accept. They are not errors.
	Filtered []*x509chain.Chain
}

// Err combines every failure into a single error, or returns nil.
func (r *Resolution) Err() error {
	var err error
	for _, f := range r.ChainFailures {
		err = multierr.Append(err, f)
	}
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

// Select returns the first credential that signs with alg.
func (r *Resolution) Select(alg SignatureAlgorithm) (*BoundCredential, bool) {
	for _, c := range r.Credentials {
		if c.Algorithm == alg {
			return c, true
		}
	}
	return nil, false
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithLogger sets the logger for advisory warnings.
func WithLogger(l logger.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithScheme sets the identity key scheme used to rebuild key ring chains.
func WithScheme(scheme x509view.Scheme) ResolverOption {
	return func(r *Resolver) { r.scheme = scheme }
}

// WithObservedChains lets [Resolver.ResolveCredentials] fall back to the
// chain stored with a key when no complete chain can be rebuilt for it,
// provided every link of that chain holds. Without it such keys resolve to
// nothing and only the build failure is reported.
func WithObservedChains() ResolverOption {
	return func(r *Resolver) { r.observed = true }
}

// Resolver binds key ring entries to chains under a trust strategy. It
// holds no mutable state and is safe for concurrent use.
type Resolver struct {
	ring     *KeyRing
	scheme   x509view.Scheme
	log      logger.Logger
	builder  *x509chain.Builder
	observed bool
}

// NewResolver creates a resolver over ring. The default scheme is the
// subject distinguished name and the default logger is silent.
func NewResolver(ring *KeyRing, opts ...ResolverOption) *Resolver {
	if ring == nil {
		ring = NewKeyRingBuilder().Build()
	}
	r := &Resolver{ring: ring, scheme: x509view.SchemeSubject, log: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	r.builder = x509chain.NewBuilder(r.scheme, x509chain.WithLogger(r.log))
	return r
}

// KeyRing returns the key ring the resolver reads from.
func (r *Resolver) KeyRing() *KeyRing { return r.ring }

// Scheme returns the identity key scheme used to rebuild chains.
func (r *Resolver) Scheme() x509view.Scheme { return r.scheme }

// Resolve classifies the leaf of every chain, drops the chains whose
// signature algorithm strategy does not accept, and binds the rest to
// their key pairs. A bad chain never aborts the others.
//
// Parameters:
//   - chains: Candidate chains, leaf first
//   - strategy: Trust policy to resolve under
//
// Returns:
//   - *Resolution: Credentials, failures and filtered chains
//   - error: [ErrNilChains] or [ErrNilStrategy]; per-chain problems are in the Resolution
func (r *Resolver) Resolve(chains []*x509chain.Chain, strategy *Strategy) (*Resolution, error) {
	if chains == nil {
		return nil, ErrNilChains
	}
	if strategy == nil {
		return nil, ErrNilStrategy
	}

	res := &Resolution{}
	for _, ch := range chains {
		if ch == nil {
			return nil, fmt.Errorf("%w: nil chain", ErrNilChains)
		}

		alg, err := Classify(ch.Leaf())
		if err != nil {
			r.log.Warnf("skipping chain %s: %v", ch, err)
			res.Failures = append(res.Failures, &CredentialError{Chain: ch, Err: err})
			continue
		}

		if !strategy.AcceptsSignature(alg) {
			res.Filtered = append(res.Filtered, ch)
			continue
		}

		entry, ok := r.ring.Lookup(ch.Leaf())
		if !ok {
			r.log.Warnf("no key pair for %s leaf %s", alg, ch.Leaf())
			res.Failures = append(res.Failures, &CredentialError{
				Chain: ch,
				Err:   fmt.Errorf("%w: %s", ErrNoMatchingKeyPair, ch.Leaf()),
			})
			continue
		}

		res.Credentials = append(res.Credentials, &BoundCredential{
			PublicKey:  entry.PublicKey,
			PrivateKey: entry.PrivateKey,
			Algorithm:  alg,
			Chain:      ch,
			Strategy:   strategy,
		})
	}
	return res, nil
}

// ResolveCredentials rebuilds chains from every certificate held in the key
// ring and resolves them under strategy.
//
// A key whose leaf lost its graph node to a later certificate with the same
// identity key resolves with the chain stored alongside it, as long as that
// chain is valid. With [WithObservedChains], a leaf whose rebuilt chain is
// incomplete, typically because the key store omits the root, falls back to
// its stored chain when that chain's links hold; the build failure is still
// reported. A key whose stored chain is a single self-signed certificate
// resolves with that chain.
func (r *Resolver) ResolveCredentials(strategy *Strategy) (*Resolution, error) {
	if strategy == nil {
		return nil, ErrNilStrategy
	}

	built, err := r.builder.Build(r.pool())
	if err != nil {
		return nil, err
	}

	chains := append([]*x509chain.Chain{}, built.Chains...)
	covered := mapset.NewThreadUnsafeSet[[32]byte]()
	for _, ch := range built.Chains {
		covered.Add(ch.Leaf().Fingerprint())
	}
	for _, f := range built.Failures {
		covered.Add(f.Leaf.Fingerprint())
		if !r.observed || !errors.Is(f, x509chain.ErrIncompleteChain) {
			continue
		}
		if entry, ok := r.ring.Lookup(f.Leaf); ok && entry.Chain.ValidateLinks(r.scheme) == nil {
			r.log.Warnf("using observed chain for %s: %v", f.Leaf, f.Err)
			chains = append(chains, entry.Chain)
		}
	}

	for _, d := range built.Duplicates {
		entry, ok := r.ring.Lookup(d.Replaced)
		if !ok || entry.Chain.Leaf().Fingerprint() != d.Replaced.Fingerprint() || !covered.Add(d.Replaced.Fingerprint()) {
			continue
		}
		if err := r.checkStored(entry.Chain); err != nil {
			r.log.Warnf("dropping %s: %v: %v", d.Replaced, d, err)
			continue
		}
		r.log.Warnf("using stored chain for %s: %v", d.Replaced, d)
		chains = append(chains, entry.Chain)
	}

	// A self-signed end-entity key never becomes a leaf of the graph.
	for _, entry := range r.ring.Entries() {
		leaf := entry.Chain.Leaf()
		if entry.Chain.Len() == 1 && leaf.SelfSigned(r.scheme) && covered.Add(leaf.Fingerprint()) {
			chains = append(chains, entry.Chain)
		}
	}

	res, err := r.Resolve(chains, strategy)
	if err != nil {
		return nil, err
	}
	res.ChainFailures = built.Failures
	res.Duplicates = built.Duplicates
	return res, nil
}

// checkStored reports whether a stored key ring chain may stand in for a
// rebuilt one.
func (r *Resolver) checkStored(ch *x509chain.Chain) error {
	if r.observed {
		return ch.ValidateLinks(r.scheme)
	}
	return ch.Validate(r.scheme)
}

// SelectForAlgorithm returns the first credential that signs with alg
// under strategy.
//
// Returns:
//   - *BoundCredential: Matching credential
//   - error: [ErrSignatureAlgorithmNotAccepted], [ErrNoCredential] or a build error
func (r *Resolver) SelectForAlgorithm(strategy *Strategy, alg SignatureAlgorithm) (*BoundCredential, error) {
	if strategy == nil {
		return nil, ErrNilStrategy
	}
	if !strategy.AcceptsSignature(alg) {
		return nil, fmt.Errorf("%w: %s", ErrSignatureAlgorithmNotAccepted, alg)
	}

	res, err := r.ResolveCredentials(strategy)
	if err != nil {
		return nil, err
	}
	if c, ok := res.Select(alg); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCredential, alg)
}

// SelectForSuite maps a negotiated cipher suite to the signature algorithm
// its key exchange requires and returns a credential for it.
//
// Parameters:
//   - strategy: Trust policy the suite must satisfy
//   - suites: Cipher suite table, or nil for the built-in table
//   - id: IANA cipher suite identifier
//
// Returns:
//   - *BoundCredential: Matching credential
//   - error: [ErrUnknownCipherSuite], [ErrCipherSuiteNotAccepted] or [ErrNoCredential]
func (r *Resolver) SelectForSuite(strategy *Strategy, suites *SuiteTable, id uint16) (*BoundCredential, error) {
	if strategy == nil {
		return nil, ErrNilStrategy
	}

	if suites == nil {
		suites = NewSuiteTable()
	}

	suite, ok := suites.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownCipherSuite, id)
	}
	if !strategy.AcceptsSuite(suite) {
		return nil, fmt.Errorf("%w: %s", ErrCipherSuiteNotAccepted, suite)
	}

	alg, ok := suite.KeyExchange.SignatureAlgorithm()
	if !ok {
		return nil, fmt.Errorf("%w: %s does not authenticate with a certificate", ErrNoCredential, suite)
	}
	return r.SelectForAlgorithm(strategy, alg)
}

// pool returns the distinct certificates of every key ring chain in the
// order first seen.
func (r *Resolver) pool() []*x509view.View {
	seen := mapset.NewThreadUnsafeSet[[32]byte]()
	pool := []*x509view.View{}
	for _, ch := range r.ring.Chains() {
		for _, v := range ch.Views() {
			if seen.Add(v.Fingerprint()) {
				pool = append(pool, v)
			}
		}
	}
	return pool
}
