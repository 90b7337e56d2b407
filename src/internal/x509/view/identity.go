// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509view

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScheme indicates that a scheme name could not be parsed.
var ErrUnknownScheme = errors.New("x509view: unknown identity scheme")

// Scheme selects how certificates are identified as nodes of the trust graph.
type Scheme uint8

const (
	// SchemeSubject identifies a certificate by its subject distinguished
	// name and its issuer by the issuer distinguished name.
	SchemeSubject Scheme = iota
	// SchemeKeyIdentifier identifies a certificate by its subject key
	// identifier and its issuer by the authority key identifier.
	SchemeKeyIdentifier
)

// String returns the configuration name of the scheme.
func (s Scheme) String() string {
	switch s {
	case SchemeSubject:
		return "subject"
	case SchemeKeyIdentifier:
		return "key-identifier"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// ParseScheme maps a configuration name to a Scheme. It accepts "subject"
// (alias "dn") and "key-identifier" (aliases "ski", "extension").
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "subject", "dn", "naive":
		return SchemeSubject, nil
	case "key-identifier", "keyid", "ski", "extension":
		return SchemeKeyIdentifier, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// IdentityKey is a comparable identifier of a trust graph node. Keys from
// different schemes never compare equal.
type IdentityKey struct {
	scheme Scheme
	value  string
}

// IsZero reports whether k is the zero key.
func (k IdentityKey) IsZero() bool { return k.value == "" }

// Scheme returns the scheme k was derived under.
func (k IdentityKey) Scheme() Scheme { return k.scheme }

// Bytes returns the raw key material: a DER encoded name or key identifier octets.
func (k IdentityKey) Bytes() []byte { return []byte(k.value) }

// String renders a distinguished name or a colon separated key identifier.
func (k IdentityKey) String() string {
	if k.IsZero() {
		return "<none>"
	}

	if k.scheme == SchemeSubject {
		var seq pkix.RDNSequence
		if rest, err := asn1.Unmarshal([]byte(k.value), &seq); err == nil && len(rest) == 0 {
			var name pkix.Name
			name.FillFromRDNSequence(&seq)
			return name.String()
		}
	}

	var b strings.Builder
	for i := 0; i < len(k.value); i++ {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02X", k.value[i])
	}
	return b.String()
}
