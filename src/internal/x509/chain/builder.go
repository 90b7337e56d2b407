// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/multierr"

	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

var (
	// ErrNilPool indicates that Build was called without a certificate pool.
	ErrNilPool = errors.New("x509chain: nil certificate pool")

	// ErrIncompleteChain indicates that a walk from a leaf reached a
	// certificate whose issuer is not in the pool.
	ErrIncompleteChain = errors.New("x509chain: incomplete certificate chain")

	// ErrCyclicChain indicates that a walk from a leaf revisited a
	// certificate without reaching a self-signed one.
	ErrCyclicChain = errors.New("x509chain: cyclic certificate chain")

	// ErrDuplicateIdentityKey indicates two distinct certificates sharing an
	// identity key. It is advisory and never fails a build.
	ErrDuplicateIdentityKey = errors.New("x509chain: duplicate identity key")
)

// ChainError reports why no chain could be built for one leaf. It never
// aborts the batch it belongs to.
type ChainError struct {
	// Leaf is the end-entity certificate the walk started from.
	Leaf *x509view.View
	// Missing is the issuer identity that could not be resolved, or the
	// repeated identity for a cycle.
	Missing x509view.IdentityKey
	// Partial holds the certificates walked before the failure, leaf first.
	Partial []*x509view.View
	// Err is [ErrIncompleteChain] or [ErrCyclicChain].
	Err error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	return fmt.Sprintf("%v: leaf %s: issuer %s after %d certificate(s)", e.Err, e.Leaf, e.Missing, len(e.Partial))
}

// Unwrap returns the underlying sentinel.
func (e *ChainError) Unwrap() error { return e.Err }

// Duplicate records two distinct certificates that share an identity key.
// The later one in pool order replaces the earlier one.
type Duplicate struct {
	Key      x509view.IdentityKey
	Replaced *x509view.View
	Kept     *x509view.View
}

// Error implements the error interface.
func (d Duplicate) Error() string {
	return fmt.Sprintf("%v: %s: %s replaced by %s", ErrDuplicateIdentityKey, d.Key, d.Replaced, d.Kept)
}

// Unwrap returns [ErrDuplicateIdentityKey].
func (d Duplicate) Unwrap() error { return ErrDuplicateIdentityKey }

// Result is the outcome of one Build call. Chains and Failures are ordered
// by the position of their leaf in the input pool.
type Result struct {
	Chains     []*Chain
	Failures   []*ChainError
	Duplicates []Duplicate
}

// Err combines every per-chain failure into a single error, or returns nil.
func (r *Result) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

// Graph is the indexed form of a certificate pool under one scheme: nodes
// by identity key, issuer edges between nodes present in the pool, and the
// leaf set.
type Graph struct {
	scheme     x509view.Scheme
	nodes      map[x509view.IdentityKey]*x509view.View
	order      []x509view.IdentityKey
	edges      map[x509view.IdentityKey]x509view.IdentityKey
	leaves     []x509view.IdentityKey
	duplicates []Duplicate
}

// Scheme returns the identity scheme the graph was indexed under.
func (g *Graph) Scheme() x509view.Scheme { return g.scheme }

// Len returns the number of distinct nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the certificate indexed under key.
func (g *Graph) Node(key x509view.IdentityKey) (*x509view.View, bool) {
	v, ok := g.nodes[key]
	return v, ok
}

// Edges returns a copy of the subject to issuer edges.
func (g *Graph) Edges() map[x509view.IdentityKey]x509view.IdentityKey {
	out := make(map[x509view.IdentityKey]x509view.IdentityKey, len(g.edges))
	for k, v := range g.edges {
		out[k] = v
	}
	return out
}

// Leaves returns the leaf identities in pool order.
func (g *Graph) Leaves() []x509view.IdentityKey {
	return append([]x509view.IdentityKey(nil), g.leaves...)
}

// Duplicates returns the identity collisions seen while indexing.
func (g *Graph) Duplicates() []Duplicate {
	return append([]Duplicate(nil), g.duplicates...)
}

// Option configures a [Builder].
type Option func(*Builder)

// WithLogger attaches a logger for advisory warnings.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder reconstructs chains from unordered certificate pools. A Builder
// holds no per-call state and is safe for concurrent use.
type Builder struct {
	scheme x509view.Scheme
	log    logger.Logger
}

// NewBuilder creates a Builder that identifies certificates under scheme.
func NewBuilder(scheme x509view.Scheme, opts ...Option) *Builder {
	b := &Builder{scheme: scheme, log: logger.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Scheme returns the identity scheme of the builder.
func (b *Builder) Scheme() x509view.Scheme { return b.scheme }

// BuildChains is shorthand for NewBuilder(scheme).Build(pool).
func BuildChains(pool []*x509view.View, scheme x509view.Scheme) (*Result, error) {
	return NewBuilder(scheme).Build(pool)
}

// Index builds the trust graph of pool.
//
// Certificates are indexed by identity key; on collision the later one wins
// and the collision is recorded. An edge is recorded for every certificate
// that is not self-signed and whose issuer is present. The leaf set is every
// certificate that is not self-signed minus every identity some edge points
// to, so a certificate whose issuer is absent is still a leaf and fails
// later with [ErrIncompleteChain] instead of disappearing.
//
// Parameters:
//   - pool: Certificate views in any order; nil is rejected, empty is not
//
// Returns:
//   - *Graph: Indexed graph
//   - error: [ErrNilPool] or [x509view.ErrNilCertificate] for nil entries
func (b *Builder) Index(pool []*x509view.View) (*Graph, error) {
	if pool == nil {
		return nil, ErrNilPool
	}

	g := &Graph{
		scheme: b.scheme,
		nodes:  make(map[x509view.IdentityKey]*x509view.View, len(pool)),
		edges:  make(map[x509view.IdentityKey]x509view.IdentityKey, len(pool)),
	}

	for i, v := range pool {
		if v == nil {
			return nil, fmt.Errorf("pool entry %d: %w", i, x509view.ErrNilCertificate)
		}

		key := v.Identity(b.scheme)
		if prev, ok := g.nodes[key]; ok && prev != v && prev.Fingerprint() != v.Fingerprint() {
			g.duplicates = append(g.duplicates, Duplicate{Key: key, Replaced: prev, Kept: v})
			b.log.Warnf("duplicate %s identity %s: %s replaces %s", b.scheme, key, v, prev)
		}
		g.nodes[key] = v
	}

	// Order follows the position of each winning view.
	seen := mapset.NewThreadUnsafeSetWithSize[x509view.IdentityKey](len(g.nodes))
	for _, v := range pool {
		key := v.Identity(b.scheme)
		if g.nodes[key] == v && seen.Add(key) {
			g.order = append(g.order, key)
		}
	}

	candidates := mapset.NewThreadUnsafeSet[x509view.IdentityKey]()
	issuers := mapset.NewThreadUnsafeSet[x509view.IdentityKey]()
	for _, key := range g.order {
		v := g.nodes[key]
		if v.SelfSigned(b.scheme) {
			continue
		}
		candidates.Add(key)

		issuer, _ := v.Issuer(b.scheme)
		if _, ok := g.nodes[issuer]; ok {
			g.edges[key] = issuer
			issuers.Add(issuer)
		}
	}

	leaves := candidates.Difference(issuers)
	for _, key := range g.order {
		if leaves.Contains(key) {
			g.leaves = append(g.leaves, key)
		}
	}

	return g, nil
}

// Build reconstructs one chain per leaf of pool.
//
// A walk that cannot reach a self-signed certificate produces a
// [ChainError] in the result; it never affects other leaves. Only a nil
// pool or nil entries fail the whole call.
//
// Parameters:
//   - pool: Certificate views in any order
//
// Returns:
//   - *Result: Chains, per-leaf failures and duplicate identities
//   - error: Pool-level malformation only
//
// Thread Safety: Safe for concurrent use.
func (b *Builder) Build(pool []*x509view.View) (*Result, error) {
	g, err := b.Index(pool)
	if err != nil {
		return nil, err
	}

	res := &Result{Duplicates: g.duplicates}
	for _, leaf := range g.leaves {
		chain, cerr := g.walk(leaf)
		if cerr != nil {
			b.log.Warnf("%v", cerr)
			res.Failures = append(res.Failures, cerr)
			continue
		}
		res.Chains = append(res.Chains, chain)
	}

	return res, nil
}

// walk follows issuer links from leaf up to a self-signed certificate.
func (g *Graph) walk(leaf x509view.IdentityKey) (*Chain, *ChainError) {
	visited := mapset.NewThreadUnsafeSet[x509view.IdentityKey]()
	var views []*x509view.View

	key := leaf
	for {
		v := g.nodes[key]
		if !visited.Add(key) {
			return nil, &ChainError{Leaf: views[0], Missing: key, Partial: views, Err: ErrCyclicChain}
		}
		views = append(views, v)

		if v.SelfSigned(g.scheme) {
			return &Chain{views: views}, nil
		}

		issuer, _ := v.Issuer(g.scheme)
		if _, ok := g.nodes[issuer]; !ok {
			return nil, &ChainError{Leaf: views[0], Missing: issuer, Partial: views, Err: ErrIncompleteChain}
		}
		key = issuer
	}
}

// String renders the graph edges for debugging, one per line.
func (g *Graph) String() string {
	var b strings.Builder
	for _, key := range g.order {
		if issuer, ok := g.edges[key]; ok {
			fmt.Fprintf(&b, "%s -> %s\n", key, issuer)
		}
	}
	return b.String()
}
