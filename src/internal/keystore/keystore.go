// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package keystore

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/crypto/pkcs12"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/certs"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

var (
	// ErrKeyNotInChain indicates that no certificate carries the private key's public half.
	ErrKeyNotInChain = errors.New("keystore: no certificate matches the private key")

	// ErrReadPKCS12 indicates a PKCS#12 file that could not be decrypted or decoded.
	ErrReadPKCS12 = errors.New("keystore: failed to read PKCS#12 data")

	// ErrNoPaths indicates that LoadPool was called without files.
	ErrNoPaths = errors.New("keystore: no certificate files given")
)

// Entry is one key pair with the chain observed for it in a key store.
type Entry struct {
	PublicKey  crypto.PublicKey
	PrivateKey crypto.Signer
	// Chain starts with the certificate of PublicKey and follows issuer
	// names as far as the store allows.
	Chain []*x509.Certificate
	// Source is the file the entry was read from.
	Source string
}

// LoadPEMPair reads a certificate file (PEM, DER or PKCS#7) and a separate
// private key file (PKCS#1, PKCS#8 or SEC 1).
func LoadPEMPair(certPath, keyPath string) ([]Entry, error) {
	decoder := x509certs.New()

	certData, err := gc.ReadFile(certPath)
	if err != nil {
		return nil, err
	}
	certs, err := decoder.DecodeMultiple(certData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", certPath, err)
	}

	keyData, err := gc.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	key, err := decoder.DecodePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyPath, err)
	}

	entry, err := newEntry(certPath, key, certs)
	if err != nil {
		return nil, err
	}
	return []Entry{entry}, nil
}

// LoadBundle reads one PEM file holding certificates and a private key.
func LoadBundle(path string) ([]Entry, error) {
	data, err := gc.ReadFile(path)
	if err != nil {
		return nil, err
	}

	certs, key, err := x509certs.New().DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entry, err := newEntry(path, key, certs)
	if err != nil {
		return nil, err
	}
	return []Entry{entry}, nil
}

// LoadPKCS12 reads a password-protected PKCS#12 key store. Only the legacy
// 3DES and RC2 encryption schemes are supported.
func LoadPKCS12(path, password string) ([]Entry, error) {
	data, err := gc.ReadFile(path)
	if err != nil {
		return nil, err
	}

	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadPKCS12, path, err)
	}

	var buf bytes.Buffer
	for _, block := range blocks {
		// Bag attributes become PEM headers the bundle decoder does not need.
		if err := pem.Encode(&buf, &pem.Block{Type: block.Type, Bytes: block.Bytes}); err != nil {
			return nil, err
		}
	}

	certs, key, err := x509certs.New().DecodeBundle(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadPKCS12, path, err)
	}

	entry, err := newEntry(path, key, certs)
	if err != nil {
		return nil, err
	}
	return []Entry{entry}, nil
}

// Populate adds every entry to builder. An entry the builder rejects does
// not stop the others; all rejections are returned together.
func Populate(builder *x509trust.KeyRingBuilder, entries []Entry) error {
	var err error
	for _, e := range entries {
		if addErr := builder.AddKey(e.PublicKey, e.PrivateKey, e.Chain); addErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", e.Source, addErr))
		}
	}
	return err
}

// LoadPool reads every certificate in paths for chain building. Files may
// be PEM, DER or PKCS#7; order is preserved across and within files.
func LoadPool(paths ...string) ([]*x509view.View, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	decoder := x509certs.New()
	pool := []*x509view.View{}
	for _, path := range paths {
		data, err := gc.ReadFile(path)
		if err != nil {
			return nil, err
		}
		certs, err := decoder.DecodeMultiple(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		views, err := x509view.FromCertificates(certs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		pool = append(pool, views...)
	}
	return pool, nil
}

// newEntry puts the certificate of key first and orders the rest by issuer
// name. Certificates that are not ancestors of the leaf are dropped.
func newEntry(source string, key crypto.Signer, certs []*x509.Certificate) (Entry, error) {
	pub := key.Public()

	leaf := -1
	for i, cert := range certs {
		if eq, ok := pub.(interface{ Equal(crypto.PublicKey) bool }); ok && eq.Equal(cert.PublicKey) {
			leaf = i
			break
		}
	}
	if leaf < 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrKeyNotInChain, source)
	}

	chain := []*x509.Certificate{certs[leaf]}
	used := map[int]bool{leaf: true}
	for current := certs[leaf]; !bytes.Equal(current.RawIssuer, current.RawSubject); {
		next := -1
		for i, cert := range certs {
			if !used[i] && bytes.Equal(cert.RawSubject, current.RawIssuer) {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		used[next] = true
		current = certs[next]
		chain = append(chain, current)
	}

	return Entry{PublicKey: pub, PrivateKey: key, Chain: chain, Source: source}, nil
}
