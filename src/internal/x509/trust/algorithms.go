// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAlgorithm indicates that an algorithm name could not be parsed.
var ErrUnknownAlgorithm = errors.New("x509trust: unknown algorithm")

// SignatureAlgorithm is a TLS signature algorithm registry code.
type SignatureAlgorithm uint8

// Signature algorithm codes.
const (
	SignatureAnonymous SignatureAlgorithm = 0
	SignatureRSA       SignatureAlgorithm = 1
	SignatureDSA       SignatureAlgorithm = 2
	SignatureECDSA     SignatureAlgorithm = 3
)

var signatureNames = map[SignatureAlgorithm]string{
	SignatureAnonymous: "anonymous",
	SignatureRSA:       "rsa",
	SignatureDSA:       "dsa",
	SignatureECDSA:     "ecdsa",
}

func (a SignatureAlgorithm) String() string { return codeName(signatureNames, a) }

// ParseSignatureAlgorithm maps a case-insensitive name to its code.
func ParseSignatureAlgorithm(name string) (SignatureAlgorithm, error) {
	return parseCode(signatureNames, "signature", name)
}

// HashAlgorithm is a TLS hash algorithm registry code.
type HashAlgorithm uint8

// Hash algorithm codes.
const (
	HashNone   HashAlgorithm = 0
	HashMD5    HashAlgorithm = 1
	HashSHA1   HashAlgorithm = 2
	HashSHA224 HashAlgorithm = 3
	HashSHA256 HashAlgorithm = 4
	HashSHA384 HashAlgorithm = 5
	HashSHA512 HashAlgorithm = 6
)

var hashNames = map[HashAlgorithm]string{
	HashNone:   "none",
	HashMD5:    "md5",
	HashSHA1:   "sha1",
	HashSHA224: "sha224",
	HashSHA256: "sha256",
	HashSHA384: "sha384",
	HashSHA512: "sha512",
}

func (a HashAlgorithm) String() string { return codeName(hashNames, a) }

// ParseHashAlgorithm maps a case-insensitive name to its code. Dashes are
// ignored, so "SHA-256" and "sha256" are equal.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	return parseCode(hashNames, "hash", strings.ReplaceAll(name, "-", ""))
}

// CertificateHash returns the hash used by a certificate signature
// algorithm. Algorithms with a built-in hash, such as Ed25519, report false.
func CertificateHash(alg x509.SignatureAlgorithm) (HashAlgorithm, bool) {
	switch alg {
	case x509.MD5WithRSA:
		return HashMD5, true
	case x509.SHA1WithRSA, x509.DSAWithSHA1, x509.ECDSAWithSHA1:
		return HashSHA1, true
	case x509.SHA256WithRSA, x509.SHA256WithRSAPSS, x509.DSAWithSHA256, x509.ECDSAWithSHA256:
		return HashSHA256, true
	case x509.SHA384WithRSA, x509.SHA384WithRSAPSS, x509.ECDSAWithSHA384:
		return HashSHA384, true
	case x509.SHA512WithRSA, x509.SHA512WithRSAPSS, x509.ECDSAWithSHA512:
		return HashSHA512, true
	}
	return HashNone, false
}

// EncryptionAlgorithm is a bulk cipher code.
type EncryptionAlgorithm uint8

// Encryption algorithm codes.
const (
	EncryptionNull             EncryptionAlgorithm = 0
	EncryptionRC4128           EncryptionAlgorithm = 2
	Encryption3DESEDECBC       EncryptionAlgorithm = 7
	EncryptionAES128CBC        EncryptionAlgorithm = 8
	EncryptionAES256CBC        EncryptionAlgorithm = 9
	EncryptionAES128GCM        EncryptionAlgorithm = 10
	EncryptionAES256GCM        EncryptionAlgorithm = 11
	EncryptionCamellia128CBC   EncryptionAlgorithm = 12
	EncryptionCamellia256CBC   EncryptionAlgorithm = 13
	EncryptionSEEDCBC          EncryptionAlgorithm = 14
	EncryptionChaCha20Poly1305 EncryptionAlgorithm = 21
)

var encryptionNames = map[EncryptionAlgorithm]string{
	EncryptionNull:             "null",
	EncryptionRC4128:           "rc4_128",
	Encryption3DESEDECBC:       "3des_ede_cbc",
	EncryptionAES128CBC:        "aes_128_cbc",
	EncryptionAES256CBC:        "aes_256_cbc",
	EncryptionAES128GCM:        "aes_128_gcm",
	EncryptionAES256GCM:        "aes_256_gcm",
	EncryptionCamellia128CBC:   "camellia_128_cbc",
	EncryptionCamellia256CBC:   "camellia_256_cbc",
	EncryptionSEEDCBC:          "seed_cbc",
	EncryptionChaCha20Poly1305: "chacha20_poly1305",
}

func (a EncryptionAlgorithm) String() string { return codeName(encryptionNames, a) }

// ParseEncryptionAlgorithm maps a case-insensitive name such as
// "AES_128_GCM" to its code.
func ParseEncryptionAlgorithm(name string) (EncryptionAlgorithm, error) {
	return parseCode(encryptionNames, "encryption", name)
}

// KeyExchangeAlgorithm is a TLS key exchange code.
type KeyExchangeAlgorithm uint8

// Key exchange codes.
const (
	KeyExchangeNull       KeyExchangeAlgorithm = 0
	KeyExchangeRSA        KeyExchangeAlgorithm = 1
	KeyExchangeDHEDSS     KeyExchangeAlgorithm = 3
	KeyExchangeDHERSA     KeyExchangeAlgorithm = 5
	KeyExchangeDHAnon     KeyExchangeAlgorithm = 11
	KeyExchangePSK        KeyExchangeAlgorithm = 13
	KeyExchangeECDHECDSA  KeyExchangeAlgorithm = 16
	KeyExchangeECDHEECDSA KeyExchangeAlgorithm = 17
	KeyExchangeECDHRSA    KeyExchangeAlgorithm = 18
	KeyExchangeECDHERSA   KeyExchangeAlgorithm = 19
)

var keyExchangeNames = map[KeyExchangeAlgorithm]string{
	KeyExchangeNull:       "null",
	KeyExchangeRSA:        "rsa",
	KeyExchangeDHEDSS:     "dhe_dss",
	KeyExchangeDHERSA:     "dhe_rsa",
	KeyExchangeDHAnon:     "dh_anon",
	KeyExchangePSK:        "psk",
	KeyExchangeECDHECDSA:  "ecdh_ecdsa",
	KeyExchangeECDHEECDSA: "ecdhe_ecdsa",
	KeyExchangeECDHRSA:    "ecdh_rsa",
	KeyExchangeECDHERSA:   "ecdhe_rsa",
}

func (a KeyExchangeAlgorithm) String() string { return codeName(keyExchangeNames, a) }

// ParseKeyExchangeAlgorithm maps a case-insensitive name such as
// "ECDHE_RSA" to its code.
func ParseKeyExchangeAlgorithm(name string) (KeyExchangeAlgorithm, error) {
	return parseCode(keyExchangeNames, "key exchange", name)
}

// SignatureAlgorithm returns the signature algorithm the server
// certificate must carry for this key exchange. Anonymous, PSK and static
// ECDH exchanges report false.
func (a KeyExchangeAlgorithm) SignatureAlgorithm() (SignatureAlgorithm, bool) {
	switch a {
	case KeyExchangeRSA, KeyExchangeDHERSA, KeyExchangeECDHERSA:
		return SignatureRSA, true
	case KeyExchangeDHEDSS:
		return SignatureDSA, true
	case KeyExchangeECDHEECDSA:
		return SignatureECDSA, true
	}
	return SignatureAnonymous, false
}

type code interface {
	~uint8
}

func codeName[T code](names map[T]string, c T) string {
	if name, ok := names[c]; ok {
		return strings.ToUpper(name)
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
}

func parseCode[T code](names map[T]string, kind, name string) (T, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for c, n := range names {
		if n == want {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownAlgorithm, kind, name)
}
