// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

var keyUsageNames = []struct {
	bit  x509.KeyUsage
	name string
}{
	{x509.KeyUsageDigitalSignature, "digital signature"},
	{x509.KeyUsageContentCommitment, "content commitment"},
	{x509.KeyUsageKeyEncipherment, "key encipherment"},
	{x509.KeyUsageDataEncipherment, "data encipherment"},
	{x509.KeyUsageKeyAgreement, "key agreement"},
	{x509.KeyUsageCertSign, "cert sign"},
	{x509.KeyUsageCRLSign, "crl sign"},
	{x509.KeyUsageEncipherOnly, "encipher only"},
	{x509.KeyUsageDecipherOnly, "decipher only"},
}

// RenderASCIITree renders the chain as an ASCII tree, leaf first.
//
// Each line carries a check mark when the certificate's signature verifies
// under the next certificate (the root under itself) and a cross otherwise.
//
// Parameters:
//   - scheme: Identity scheme used to label each node
//
// Returns:
//   - string: ASCII tree representation of the chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree(scheme x509view.Scheme) string {
	status := ch.signatureStatus()

	var result strings.Builder
	for i, v := range ch.views {
		connector := "├── "
		if i == len(ch.views)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if status[i] != nil {
			statusIcon = "✗"
		}

		fmt.Fprintf(&result, "%s[%s] %s (%s) %s=%s\n",
			connector, statusIcon, displayName(v), ch.role(i), scheme, v.Identity(scheme))
	}

	return result.String()
}

// RenderTable renders the chain as a markdown table with role, names,
// key family and size, key usage, and signature status per certificate.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable() string {
	status := ch.signatureStatus()
	title := cases.Title(language.English)

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Role", "Subject", "Issuer", "Key", "Key Usage", "Signature"})

	rows := make([][]string, 0, len(ch.views))
	for i, v := range ch.views {
		cert := v.Certificate()

		sig := "valid"
		if status[i] != nil {
			sig = "invalid"
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ch.role(i),
			displayName(v),
			cert.Issuer.CommonName,
			keyDescription(v),
			title.String(keyUsageText(v)),
			sig,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// CertificateData is the JSON form of one chain position.
type CertificateData struct {
	Index              int    `json:"index"`
	Role               string `json:"role"`
	Subject            string `json:"subject"`
	Issuer             string `json:"issuer"`
	SubjectKeyID       string `json:"subjectKeyId"`
	AuthorityKeyID     string `json:"authorityKeyId,omitempty"`
	SerialNumber       string `json:"serialNumber"`
	SignatureAlgorithm string `json:"signatureAlgorithm"`
	PublicKeyAlgorithm string `json:"publicKeyAlgorithm"`
	KeySize            int    `json:"keySize"`
	KeyUsage           string `json:"keyUsage"`
	Fingerprint        string `json:"sha256Fingerprint"`
	IsCA               bool   `json:"isCA"`
	SignatureValid     bool   `json:"signatureValid"`
}

// RelationshipData links a certificate to its issuer.
type RelationshipData struct {
	FromIndex int    `json:"fromIndex"`
	ToIndex   int    `json:"toIndex"`
	Type      string `json:"type"`
}

// ChainData is the JSON document produced by [Chain.RenderJSON].
type ChainData struct {
	Timestamp     string             `json:"timestamp"`
	ChainLength   int                `json:"chainLength"`
	Certificates  []CertificateData  `json:"certificates"`
	Relationships []RelationshipData `json:"relationships"`
}

// Data converts the chain to its JSON document form.
func (ch *Chain) Data() ChainData {
	status := ch.signatureStatus()

	data := ChainData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ChainLength:   len(ch.views),
		Certificates:  make([]CertificateData, len(ch.views)),
		Relationships: make([]RelationshipData, 0, len(ch.views)-1),
	}

	for i, v := range ch.views {
		cert := v.Certificate()
		fp := v.Fingerprint()

		serial := ""
		if cert.SerialNumber != nil {
			serial = cert.SerialNumber.String()
		}

		aki := ""
		if key, ok := v.Issuer(x509view.SchemeKeyIdentifier); ok {
			aki = key.String()
		}

		data.Certificates[i] = CertificateData{
			Index:              i,
			Role:               ch.role(i),
			Subject:            v.Identity(x509view.SchemeSubject).String(),
			Issuer:             cert.Issuer.String(),
			SubjectKeyID:       v.Identity(x509view.SchemeKeyIdentifier).String(),
			AuthorityKeyID:     aki,
			SerialNumber:       serial,
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: v.Algorithm().String(),
			KeySize:            keySize(v),
			KeyUsage:           keyUsageText(v),
			Fingerprint:        hex.EncodeToString(fp[:]),
			IsCA:               cert.IsCA,
			SignatureValid:     status[i] == nil,
		}
	}

	for i := 0; i < len(ch.views)-1; i++ {
		data.Relationships = append(data.Relationships, RelationshipData{
			FromIndex: i,
			ToIndex:   i + 1,
			Type:      "signed_by",
		})
	}

	return data
}

// RenderJSON returns the indented JSON form of [Chain.Data].
func (ch *Chain) RenderJSON() ([]byte, error) {
	return json.MarshalIndent(ch.Data(), "", "  ")
}

// role describes a chain position.
func (ch *Chain) role(index int) string {
	total := len(ch.views)
	switch {
	case total == 1:
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity Certificate"
	case index == total-1:
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

func displayName(v *x509view.View) string {
	if cn := v.CommonName(); cn != "" {
		return cn
	}
	return v.Identity(x509view.SchemeSubject).String()
}

func keySize(v *x509view.View) int {
	switch pub := v.Certificate().PublicKey.(type) {
	case *rsa.PublicKey:
		return pub.Size() * 8
	case *ecdsa.PublicKey:
		return pub.Curve.Params().BitSize
	}
	return 0
}

func keyDescription(v *x509view.View) string {
	if size := keySize(v); size > 0 {
		return fmt.Sprintf("%d-bit %s", size, v.Algorithm())
	}
	return v.Algorithm().String()
}

// keyUsageText lists the key usage bits, or "unconstrained" when the
// extension is absent.
func keyUsageText(v *x509view.View) string {
	usage, present := v.KeyUsage()
	if !present {
		return "unconstrained"
	}

	var names []string
	for _, ku := range keyUsageNames {
		if usage&ku.bit != 0 {
			names = append(names, ku.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
