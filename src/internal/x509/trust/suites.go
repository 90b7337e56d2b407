// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// CipherSuite describes one TLS 1.0-1.2 cipher suite by its parts.
type CipherSuite struct {
	ID          uint16
	Name        string
	KeyExchange KeyExchangeAlgorithm
	Encryption  EncryptionAlgorithm
	// Hash is the MAC or PRF hash named by the suite.
	Hash HashAlgorithm
}

// String returns the IANA name and identifier.
func (s CipherSuite) String() string {
	return fmt.Sprintf("%s (0x%04X)", s.Name, s.ID)
}

// SuiteTable is an immutable lookup of cipher suites by identifier and
// name. Build it once with [NewSuiteTable] and pass it to the components
// that need it.
type SuiteTable struct {
	byID   map[uint16]CipherSuite
	byName map[string]CipherSuite
	ids    []uint16
}

// NewSuiteTable returns a table of the certificate-authenticated suites
// this package can bind credentials for. Additional suites may be given;
// they replace built-in entries with the same identifier.
func NewSuiteTable(extra ...CipherSuite) *SuiteTable {
	t := &SuiteTable{
		byID:   make(map[uint16]CipherSuite, len(builtinSuites)+len(extra)),
		byName: make(map[string]CipherSuite, len(builtinSuites)+len(extra)),
	}

	for _, s := range slices.Concat(builtinSuites, extra) {
		if old, ok := t.byID[s.ID]; ok {
			delete(t.byName, strings.ToUpper(old.Name))
		}
		t.byID[s.ID] = s
		t.byName[strings.ToUpper(s.Name)] = s
	}

	for id := range t.byID {
		t.ids = append(t.ids, id)
	}
	slices.Sort(t.ids)
	return t
}

// Lookup returns the suite with the given identifier.
func (t *SuiteTable) Lookup(id uint16) (CipherSuite, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// LookupName returns the suite with the given IANA name, ignoring case.
func (t *SuiteTable) LookupName(name string) (CipherSuite, bool) {
	s, ok := t.byName[strings.ToUpper(strings.TrimSpace(name))]
	return s, ok
}

// Parse accepts an IANA suite name, ignoring case, or a numeric
// identifier such as 0xC02B.
func (t *SuiteTable) Parse(s string) (CipherSuite, error) {
	if suite, ok := t.LookupName(s); ok {
		return suite, nil
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16); err == nil {
		if suite, ok := t.Lookup(uint16(id)); ok {
			return suite, nil
		}
	}
	return CipherSuite{}, fmt.Errorf("%w: %q", ErrUnknownCipherSuite, s)
}

// IDs returns every identifier in ascending order.
func (t *SuiteTable) IDs() []uint16 { return slices.Clone(t.ids) }

// Len returns the number of suites.
func (t *SuiteTable) Len() int { return len(t.ids) }

// Accepted returns the identifiers of every suite strategy accepts, in
// ascending order.
func (t *SuiteTable) Accepted(strategy *Strategy) []uint16 {
	var out []uint16
	for _, id := range t.ids {
		if strategy.AcceptsSuite(t.byID[id]) {
			out = append(out, id)
		}
	}
	return out
}

var builtinSuites = []CipherSuite{
	{0x000A, "TLS_RSA_WITH_3DES_EDE_CBC_SHA", KeyExchangeRSA, Encryption3DESEDECBC, HashSHA1},
	{0x0013, "TLS_DHE_DSS_WITH_3DES_EDE_CBC_SHA", KeyExchangeDHEDSS, Encryption3DESEDECBC, HashSHA1},
	{0x0016, "TLS_DHE_RSA_WITH_3DES_EDE_CBC_SHA", KeyExchangeDHERSA, Encryption3DESEDECBC, HashSHA1},
	{0x002F, "TLS_RSA_WITH_AES_128_CBC_SHA", KeyExchangeRSA, EncryptionAES128CBC, HashSHA1},
	{0x0032, "TLS_DHE_DSS_WITH_AES_128_CBC_SHA", KeyExchangeDHEDSS, EncryptionAES128CBC, HashSHA1},
	{0x0033, "TLS_DHE_RSA_WITH_AES_128_CBC_SHA", KeyExchangeDHERSA, EncryptionAES128CBC, HashSHA1},
	{0x0035, "TLS_RSA_WITH_AES_256_CBC_SHA", KeyExchangeRSA, EncryptionAES256CBC, HashSHA1},
	{0x0038, "TLS_DHE_DSS_WITH_AES_256_CBC_SHA", KeyExchangeDHEDSS, EncryptionAES256CBC, HashSHA1},
	{0x0039, "TLS_DHE_RSA_WITH_AES_256_CBC_SHA", KeyExchangeDHERSA, EncryptionAES256CBC, HashSHA1},
	{0x003C, "TLS_RSA_WITH_AES_128_CBC_SHA256", KeyExchangeRSA, EncryptionAES128CBC, HashSHA256},
	{0x003D, "TLS_RSA_WITH_AES_256_CBC_SHA256", KeyExchangeRSA, EncryptionAES256CBC, HashSHA256},
	{0x0040, "TLS_DHE_DSS_WITH_AES_128_CBC_SHA256", KeyExchangeDHEDSS, EncryptionAES128CBC, HashSHA256},
	{0x0067, "TLS_DHE_RSA_WITH_AES_128_CBC_SHA256", KeyExchangeDHERSA, EncryptionAES128CBC, HashSHA256},
	{0x006A, "TLS_DHE_DSS_WITH_AES_256_CBC_SHA256", KeyExchangeDHEDSS, EncryptionAES256CBC, HashSHA256},
	{0x006B, "TLS_DHE_RSA_WITH_AES_256_CBC_SHA256", KeyExchangeDHERSA, EncryptionAES256CBC, HashSHA256},
	{0x009C, "TLS_RSA_WITH_AES_128_GCM_SHA256", KeyExchangeRSA, EncryptionAES128GCM, HashSHA256},
	{0x009D, "TLS_RSA_WITH_AES_256_GCM_SHA384", KeyExchangeRSA, EncryptionAES256GCM, HashSHA384},
	{0x009E, "TLS_DHE_RSA_WITH_AES_128_GCM_SHA256", KeyExchangeDHERSA, EncryptionAES128GCM, HashSHA256},
	{0x009F, "TLS_DHE_RSA_WITH_AES_256_GCM_SHA384", KeyExchangeDHERSA, EncryptionAES256GCM, HashSHA384},
	{0x00A2, "TLS_DHE_DSS_WITH_AES_128_GCM_SHA256", KeyExchangeDHEDSS, EncryptionAES128GCM, HashSHA256},
	{0x00A3, "TLS_DHE_DSS_WITH_AES_256_GCM_SHA384", KeyExchangeDHEDSS, EncryptionAES256GCM, HashSHA384},
	{0xC009, "TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA", KeyExchangeECDHEECDSA, EncryptionAES128CBC, HashSHA1},
	{0xC00A, "TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA", KeyExchangeECDHEECDSA, EncryptionAES256CBC, HashSHA1},
	{0xC013, "TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA", KeyExchangeECDHERSA, EncryptionAES128CBC, HashSHA1},
	{0xC014, "TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA", KeyExchangeECDHERSA, EncryptionAES256CBC, HashSHA1},
	{0xC023, "TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA256", KeyExchangeECDHEECDSA, EncryptionAES128CBC, HashSHA256},
	{0xC024, "TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA384", KeyExchangeECDHEECDSA, EncryptionAES256CBC, HashSHA384},
	{0xC027, "TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA256", KeyExchangeECDHERSA, EncryptionAES128CBC, HashSHA256},
	{0xC028, "TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA384", KeyExchangeECDHERSA, EncryptionAES256CBC, HashSHA384},
	{0xC02B, "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", KeyExchangeECDHEECDSA, EncryptionAES128GCM, HashSHA256},
	{0xC02C, "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384", KeyExchangeECDHEECDSA, EncryptionAES256GCM, HashSHA384},
	{0xC02F, "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", KeyExchangeECDHERSA, EncryptionAES128GCM, HashSHA256},
	{0xC030, "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384", KeyExchangeECDHERSA, EncryptionAES256GCM, HashSHA384},
	{0xCCA8, "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256", KeyExchangeECDHERSA, EncryptionChaCha20Poly1305, HashSHA256},
	{0xCCA9, "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256", KeyExchangeECDHEECDSA, EncryptionChaCha20Poly1305, HashSHA256},
	{0xCCAA, "TLS_DHE_RSA_WITH_CHACHA20_POLY1305_SHA256", KeyExchangeDHERSA, EncryptionChaCha20Poly1305, HashSHA256},
}
