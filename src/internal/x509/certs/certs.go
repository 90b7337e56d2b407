// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
	"github.com/cloudflare/cfssl/helpers/derhelpers"
)

var (
	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected certificate type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePrivateKey indicates that a private key block could not be decoded.
	ErrParsePrivateKey = errors.New("x509certs: failed to parse private key")

	// ErrNoPrivateKey indicates that a bundle did not carry any private key block.
	ErrNoPrivateKey = errors.New("x509certs: no private key found")
)

// Certificate provides methods to decode and encode [X.509] certificates and
// the private keys that accompany them in key store bundles.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: "CERTIFICATE",
	}
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// DecodeMultiple decodes one or more certificates from data.
//
// PEM input must contain only certificate blocks; DER input may be a
// concatenation of certificates or a PKCS7 bundle.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}
			if block.Type != c.certBlockType {
				return nil, ErrInvalidBlockType
			}

			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, ErrParseCertificate
			}

			certs = append(certs, cert)
			data = rest
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err == nil {
		return certs, nil
	}

	p, err := pkcs7.ParsePKCS7(data)
	if err != nil || p.Content.SignedData.Certificates == nil {
		return nil, ErrParseCertificate
	}

	return p.Content.SignedData.Certificates, nil
}

// DecodePrivateKey decodes a PKCS#1, PKCS#8 or SEC 1 private key from PEM or DER data.
func (c *Certificate) DecodePrivateKey(data []byte) (crypto.Signer, error) {
	if block, _ := pem.Decode(data); block != nil {
		if !isPrivateKeyBlock(block.Type) {
			return nil, ErrInvalidBlockType
		}
		data = block.Bytes
	}

	key, err := derhelpers.ParsePrivateKeyDER(data)
	if err != nil {
		return nil, ErrParsePrivateKey
	}
	return key, nil
}

// DecodeBundle splits a PEM bundle holding certificates and exactly one
// private key. Certificates keep their order of appearance, so a bundle that
// lists the leaf first yields the key store's observed chain.
//
// Blocks of any other type are skipped.
func (c *Certificate) DecodeBundle(data []byte) ([]*x509.Certificate, crypto.Signer, error) {
	var (
		certs []*x509.Certificate
		key   crypto.Signer
	)

	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		data = rest

		switch {
		case block.Type == c.certBlockType:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, nil, ErrParseCertificate
			}
			certs = append(certs, cert)
		case isPrivateKeyBlock(block.Type):
			parsed, err := derhelpers.ParsePrivateKeyDER(block.Bytes)
			if err != nil {
				return nil, nil, ErrParsePrivateKey
			}
			key = parsed
		}
	}

	if len(certs) == 0 {
		return nil, nil, ErrInvalidPEMBlock
	}
	if key == nil {
		return nil, nil, ErrNoPrivateKey
	}

	return certs, key, nil
}

// isPrivateKeyBlock reports whether a PEM block type names an unencrypted private key.
func isPrivateKeyBlock(blockType string) bool {
	return strings.HasSuffix(blockType, "PRIVATE KEY") && !strings.HasPrefix(blockType, "ENCRYPTED")
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	block := pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeDER encodes a certificate to DER format.
func (c *Certificate) EncodeDER(cert *x509.Certificate) []byte { return cert.Raw }

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}

// EncodeMultipleDER encodes multiple certificates to DER format.
func (c *Certificate) EncodeMultipleDER(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodeDER(cert)...)
	}

	return data
}
