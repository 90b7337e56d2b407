// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509trust

import (
	"crypto/x509"
	"errors"
	"fmt"

	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

var (
	// ErrUnknownCertificateType indicates a leaf key that is not RSA, DSA or ECDSA.
	ErrUnknownCertificateType = errors.New("x509trust: unknown certificate type")

	// ErrInvalidSignatureCertificate indicates a leaf whose key usage
	// extension does not allow digital signatures.
	ErrInvalidSignatureCertificate = errors.New("x509trust: certificate key usage does not allow digital signatures")
)

// Classify resolves the signature algorithm a leaf certificate can sign
// with. A missing key usage extension leaves the key unconstrained.
//
// Parameters:
//   - leaf: End-entity certificate view
//
// Returns:
//   - SignatureAlgorithm: RSA, DSA or ECDSA code
//   - error: [ErrUnknownCertificateType] or [ErrInvalidSignatureCertificate]
func Classify(leaf *x509view.View) (SignatureAlgorithm, error) {
	if leaf == nil {
		return SignatureAnonymous, x509view.ErrNilCertificate
	}

	var alg SignatureAlgorithm
	switch leaf.Algorithm() {
	case x509view.AlgorithmRSA:
		alg = SignatureRSA
	case x509view.AlgorithmDSA:
		alg = SignatureDSA
	case x509view.AlgorithmECDSA:
		alg = SignatureECDSA
	default:
		return SignatureAnonymous, fmt.Errorf("%w: %s", ErrUnknownCertificateType, leaf)
	}

	if usage, present := leaf.KeyUsage(); present && usage&x509.KeyUsageDigitalSignature == 0 {
		return SignatureAnonymous, fmt.Errorf("%w: %s", ErrInvalidSignatureCertificate, leaf)
	}

	return alg, nil
}
