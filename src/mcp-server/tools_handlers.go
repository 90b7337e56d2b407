// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/config"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

// ErrUnreadableInput indicates a certificate argument that is neither a
// readable file nor base64 data.
var ErrUnreadableInput = errors.New("mcpserver: not a valid file path or base64 data")

// toolHandler holds the state every tool shares. It is built once per
// server; the key ring and strategy do not change while serving.
type toolHandler struct {
	scheme   x509view.Scheme
	strategy *x509trust.Strategy
	resolver *x509trust.Resolver
	verifier *x509trust.PeerVerifier
	suites   *x509trust.SuiteTable
	log      logger.Logger
}

// chainsResult is the JSON form of a build_cert_chains call.
type chainsResult struct {
	Chains     []x509chain.ChainData `json:"chains"`
	Failures   []string              `json:"failures,omitempty"`
	Duplicates int                   `json:"duplicates"`
}

// suiteData is the JSON form of one cipher suite.
type suiteData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	KeyExchange string `json:"keyExchange"`
	Encryption  string `json:"encryption"`
	Hash        string `json:"hash"`
	Accepted    bool   `json:"accepted"`
}

func newToolHandler(cfg *config.Config, log logger.Logger) (*toolHandler, error) {
	if log == nil {
		log = logger.Discard()
	}
	scheme, err := cfg.IdentityScheme()
	if err != nil {
		return nil, err
	}
	strategy, err := cfg.TrustStrategy()
	if err != nil {
		return nil, err
	}
	ring, err := cfg.KeyRing()
	if err != nil {
		// The stores that loaded still serve.
		log.Warnf("key stores: %v", err)
	}
	resolver, err := cfg.CredentialResolver(ring, log)
	if err != nil {
		return nil, err
	}
	verifier, err := x509trust.NewPeerVerifier(strategy, scheme, x509trust.WithCacheSize(cfg.Peer.CacheSize))
	if err != nil {
		return nil, err
	}

	return &toolHandler{
		scheme:   scheme,
		strategy: strategy,
		resolver: resolver,
		verifier: verifier,
		suites:   x509trust.NewSuiteTable(),
		log:      log,
	}, nil
}

// handleBuildCertChains builds every chain found in the given inputs.
//
// Parameters:
//   - ctx: Checked between inputs
//   - request: Tool call with "certificates", optional "scheme" and "format"
//
// Returns:
//   - The rendered chains; leaves whose chain is incomplete are listed as failures
//   - A tool error result when an input cannot be read or no chain was built
func (h *toolHandler) handleBuildCertChains(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputs, err := request.RequireString("certificates")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificates parameter required: %v", err)), nil
	}

	scheme := h.scheme
	if name := request.GetString("scheme", ""); name != "" {
		if scheme, err = x509view.ParseScheme(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	pool := []*x509view.View{}
	for input := range strings.SplitSeq(inputs, ",") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		views, err := readCertificates(input)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err)), nil
		}
		pool = append(pool, views...)
	}
	if len(pool) == 0 {
		return mcp.NewToolResultError("no certificates given"), nil
	}

	res, err := x509chain.NewBuilder(scheme, x509chain.WithLogger(h.log)).Build(pool)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(res.Chains) == 0 {
		msg := "no leaf certificate found"
		if err := res.Err(); err != nil {
			msg = err.Error()
		}
		return mcp.NewToolResultError("failed to build certificate chain: " + msg), nil
	}

	var out strings.Builder
	switch request.GetString("format", "json") {
	case "tree":
		for i, ch := range res.Chains {
			fmt.Fprintf(&out, "Chain %d: %s\n%s\n", i+1, ch.Leaf(), ch.RenderASCIITree(scheme))
		}
	case "table":
		for _, ch := range res.Chains {
			out.WriteString(ch.RenderTable())
			out.WriteString("\n")
		}
	case "pem":
		codec := x509certs.New()
		for _, ch := range res.Chains {
			out.Write(codec.EncodeMultiplePEM(ch.Certificates()))
		}
	case "der":
		// One base64 line of concatenated DER per chain.
		codec := x509certs.New()
		for _, ch := range res.Chains {
			out.WriteString(base64.StdEncoding.EncodeToString(codec.EncodeMultipleDER(ch.Certificates())))
			out.WriteString("\n")
		}
	default:
		result := chainsResult{Duplicates: len(res.Duplicates)}
		for _, ch := range res.Chains {
			result.Chains = append(result.Chains, ch.Data())
		}
		for _, f := range res.Failures {
			result.Failures = append(result.Failures, f.Error())
		}
		return jsonResult(result)
	}

	for _, f := range res.Failures {
		fmt.Fprintf(&out, "Failure: %v\n", f)
	}
	return mcp.NewToolResultText(out.String()), nil
}

// handleResolveCredentials resolves the key ring under the server strategy.
// With "algorithm" or "suite" only the selected credential is returned.
func (h *toolHandler) handleResolveCredentials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var creds []*x509trust.BoundCredential

	switch suite, algorithm := request.GetString("suite", ""), request.GetString("algorithm", ""); {
	case suite != "":
		cs, err := h.suites.Parse(suite)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c, err := h.resolver.SelectForSuite(h.strategy, h.suites, cs.ID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		creds = append(creds, c)

	case algorithm != "":
		alg, err := x509trust.ParseSignatureAlgorithm(algorithm)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c, err := h.resolver.SelectForAlgorithm(h.strategy, alg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		creds = append(creds, c)

	default:
		res, err := h.resolver.ResolveCredentials(h.strategy)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		creds = res.Credentials
	}

	data := make([]x509trust.CredentialData, 0, len(creds))
	for _, c := range creds {
		data = append(data, c.Data())
	}
	return jsonResult(data)
}

// handleVerifyPeerChain verifies one peer chain. An untrusted chain is a
// tool error result carrying the reason, not a protocol error.
func (h *toolHandler) handleVerifyPeerChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("certificate")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate parameter required: %v", err)), nil
	}

	views, err := readCertificates(input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err)), nil
	}
	certs := make([]*x509.Certificate, len(views))
	for i, v := range views {
		certs[i] = v.Certificate()
	}

	if err := h.verifier.Verify(certs); err != nil {
		h.log.Warnf("peer chain rejected: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("chain not trusted: %v", err)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Chain trusted: %d certificate(s)\n", len(views))
	for i, v := range views {
		fmt.Fprintf(&out, "%d: %s\n", i+1, v)
	}
	return mcp.NewToolResultText(out.String()), nil
}

// handleListCipherSuites lists the suite table against the server strategy.
func (h *toolHandler) handleListCipherSuites(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	acceptedOnly := request.GetBool("accepted_only", false)

	var data []suiteData
	for _, id := range h.suites.IDs() {
		s, _ := h.suites.Lookup(id)
		accepted := h.strategy.AcceptsSuite(s)
		if acceptedOnly && !accepted {
			continue
		}
		data = append(data, suiteData{
			ID:          fmt.Sprintf("0x%04X", s.ID),
			Name:        s.Name,
			KeyExchange: s.KeyExchange.String(),
			Encryption:  s.Encryption.String(),
			Hash:        s.Hash.String(),
			Accepted:    accepted,
		})
	}
	return jsonResult(data)
}

// readCertificates reads a file path, or decodes base64 data when input is
// not a readable file. The data may hold PEM, DER or PKCS#7 certificates.
func readCertificates(input string) ([]*x509view.View, error) {
	data, err := gc.ReadFile(input)
	if err != nil {
		decoded, decodeErr := base64.StdEncoding.DecodeString(strings.TrimSpace(input))
		if decodeErr != nil {
			return nil, ErrUnreadableInput
		}
		data = decoded
	}

	certs, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return nil, err
	}
	return x509view.FromCertificates(certs)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
