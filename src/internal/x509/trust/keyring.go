// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA key pairs are still accepted.
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"

	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

var (
	// ErrEmptyChain indicates that a key was added without a certificate chain.
	ErrEmptyChain = errors.New("x509trust: key added without certificate chain")

	// ErrNilKey indicates that a public or private key is missing.
	ErrNilKey = errors.New("x509trust: nil key")

	// ErrKeyMismatch indicates that the keys do not belong to the chain's leaf.
	ErrKeyMismatch = errors.New("x509trust: key does not match leaf certificate")
)

// KeyEntry is one key pair with the chain observed for it.
type KeyEntry struct {
	PublicKey  crypto.PublicKey
	PrivateKey crypto.PrivateKey
	Chain      *x509chain.Chain
}

// KeyRingBuilder collects key pairs during setup. It has a single owner and
// is not safe for concurrent use; call [KeyRingBuilder.Build] to obtain the
// read-only [KeyRing] handed to concurrent consumers.
type KeyRingBuilder struct {
	entries map[string]*KeyEntry
	order   []string
}

// NewKeyRingBuilder creates an empty builder.
func NewKeyRingBuilder() *KeyRingBuilder {
	return &KeyRingBuilder{entries: make(map[string]*KeyEntry)}
}

// AddKey registers a key pair with its certificate chain, leaf first.
//
// The public key must be the leaf's key, and the private key's public half
// must match it when it can be derived. Adding a second entry for the same
// leaf key replaces the first.
//
// Parameters:
//   - pub: Public key of the leaf certificate
//   - priv: Private key, typically a [crypto.Signer]
//   - chain: Certificate chain observed for the key, leaf first
//
// Returns:
//   - error: [ErrEmptyChain], [ErrNilKey] or [ErrKeyMismatch]
func (b *KeyRingBuilder) AddKey(pub crypto.PublicKey, priv crypto.PrivateKey, chain []*x509.Certificate) error {
	if len(chain) == 0 {
		return ErrEmptyChain
	}
	if pub == nil || priv == nil {
		return ErrNilKey
	}

	ch, err := x509chain.FromCertificates(chain)
	if err != nil {
		return err
	}

	leaf := ch.Leaf()
	if !publicKeysEqual(pub, leaf.Certificate().PublicKey) {
		return fmt.Errorf("%w: public key of %s", ErrKeyMismatch, leaf)
	}
	if derived, ok := publicHalf(priv); ok && !publicKeysEqual(pub, derived) {
		return fmt.Errorf("%w: private key of %s", ErrKeyMismatch, leaf)
	}

	key := string(leaf.RawSubjectPublicKeyInfo())
	if _, exists := b.entries[key]; !exists {
		b.order = append(b.order, key)
	}
	b.entries[key] = &KeyEntry{PublicKey: pub, PrivateKey: priv, Chain: ch}
	return nil
}

// Len returns the number of distinct keys added so far.
func (b *KeyRingBuilder) Len() int { return len(b.order) }

// Build returns an immutable snapshot of the entries added so far. The
// builder may keep being used; later additions do not affect the snapshot.
func (b *KeyRingBuilder) Build() *KeyRing {
	r := &KeyRing{
		entries: make(map[string]*KeyEntry, len(b.entries)),
		order:   make([]*KeyEntry, 0, len(b.order)),
	}
	for _, key := range b.order {
		e := b.entries[key]
		r.entries[key] = e
		r.order = append(r.order, e)
	}
	return r
}

// KeyRing maps leaf public keys to their private keys and chains. It is
// never modified after [KeyRingBuilder.Build] and is safe for concurrent
// reads without locking.
type KeyRing struct {
	entries map[string]*KeyEntry
	order   []*KeyEntry
}

// Lookup returns the entry whose public key is the leaf's key.
func (r *KeyRing) Lookup(leaf *x509view.View) (*KeyEntry, bool) {
	if r == nil || leaf == nil {
		return nil, false
	}
	e, ok := r.entries[string(leaf.RawSubjectPublicKeyInfo())]
	return e, ok
}

// Entries returns every entry in the order first added.
func (r *KeyRing) Entries() []*KeyEntry {
	return append([]*KeyEntry(nil), r.order...)
}

// Chains returns the chain of every entry in the order first added.
func (r *KeyRing) Chains() []*x509chain.Chain {
	out := make([]*x509chain.Chain, len(r.order))
	for i, e := range r.order {
		out[i] = e.Chain
	}
	return out
}

// Len returns the number of entries.
func (r *KeyRing) Len() int { return len(r.order) }

func publicHalf(priv crypto.PrivateKey) (crypto.PublicKey, bool) {
	switch k := priv.(type) {
	case crypto.Signer:
		return k.Public(), true
	case *dsa.PrivateKey:
		return &k.PublicKey, true
	}
	return nil, false
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	if eq, ok := a.(interface{ Equal(crypto.PublicKey) bool }); ok {
		return eq.Equal(b)
	}

	// dsa.PublicKey has no Equal method.
	da, ok := a.(*dsa.PublicKey)
	if !ok {
		return false
	}
	db, ok := b.(*dsa.PublicKey)
	if !ok {
		return false
	}
	return bigEqual(da.Y, db.Y) && bigEqual(da.P, db.P) && bigEqual(da.Q, db.Q) && bigEqual(da.G, db.G)
}

func bigEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
