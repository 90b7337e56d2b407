// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

var (
	// ErrNoSupportedCredential indicates that the peer supports none of the bound credentials.
	ErrNoSupportedCredential = errors.New("tlsconfig: peer supports no bound credential")

	// ErrNilResolver indicates that New was called without a resolver.
	ErrNilResolver = errors.New("tlsconfig: nil resolver")
)

// ClientAuthMode selects how client certificates are handled.
type ClientAuthMode int

const (
	// ClientAuthNone neither requests nor offers a client certificate.
	ClientAuthNone ClientAuthMode = iota
	// ClientAuthWants makes servers request a client certificate without
	// requiring one. A certificate that is sent must pass the strategy.
	ClientAuthWants
	// ClientAuthNeeds makes servers reject clients without a certificate.
	ClientAuthNeeds
)

// String implements [fmt.Stringer].
func (m ClientAuthMode) String() string {
	switch m {
	case ClientAuthNone:
		return "none"
	case ClientAuthWants:
		return "wants"
	case ClientAuthNeeds:
		return "needs"
	default:
		return fmt.Sprintf("ClientAuthMode(%d)", int(m))
	}
}

// tlsClientAuth maps the mode to its crypto/tls policy. Chain trust is
// always decided by the peer verifier.
func (m ClientAuthMode) tlsClientAuth() tls.ClientAuthType {
	switch m {
	case ClientAuthWants:
		return tls.RequestClientCert
	case ClientAuthNeeds:
		return tls.RequireAnyClientCert
	default:
		return tls.NoClientCert
	}
}

// Option configures a [Config].
type Option func(*Config)

// WithClientAuth sets the client certificate mode. Servers request or
// require a certificate according to mode; clients offer one under any
// mode other than [ClientAuthNone].
func WithClientAuth(mode ClientAuthMode) Option {
	return func(c *Config) { c.clientAuth = mode }
}

// WithServerName makes clients check the server leaf against name.
func WithServerName(name string) Option {
	return func(c *Config) { c.serverName = name }
}

// WithSuiteTable replaces the built-in cipher suite table.
func WithSuiteTable(t *x509trust.SuiteTable) Option {
	return func(c *Config) {
		if t != nil {
			c.suites = t
		}
	}
}

// WithLogger sets the logger for resolution warnings.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.log = l
		}
	}
}

// Config turns a resolver and a strategy into [tls.Config] values for
// servers and clients. Credentials are resolved once, in New.
type Config struct {
	strategy    *x509trust.Strategy
	verifier    *x509trust.PeerVerifier
	suites      *x509trust.SuiteTable
	credentials []*x509trust.BoundCredential
	certs       []tls.Certificate

	clientAuth ClientAuthMode
	serverName string
	log        logger.Logger
}

// New resolves the credentials of resolver under strategy. Chains that fail
// to resolve are logged and skipped; an empty credential set is valid for
// clients that do not authenticate.
//
// Parameters:
//   - resolver: Credential resolver over a built key ring
//   - strategy: Trust policy for both local credentials and peer chains
//   - opts: Functional options
//
// Returns:
//   - *Config: Ready-to-use bridge
//   - error: [ErrNilResolver], resolver or verifier construction failure
func New(resolver *x509trust.Resolver, strategy *x509trust.Strategy, opts ...Option) (*Config, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if strategy == nil {
		return nil, x509trust.ErrNilStrategy
	}

	c := &Config{strategy: strategy, suites: x509trust.NewSuiteTable(), log: logger.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	res, err := resolver.ResolveCredentials(strategy)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		c.log.Warnf("credential resolution: %v", err)
	}

	c.credentials = res.Credentials
	for _, cred := range res.Credentials {
		c.certs = append(c.certs, cred.TLSCertificate())
	}

	c.verifier, err = x509trust.NewPeerVerifier(strategy, resolver.Scheme())
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Credentials returns the bound credentials in resolution order.
func (c *Config) Credentials() []*x509trust.BoundCredential {
	return append([]*x509trust.BoundCredential(nil), c.credentials...)
}

// CipherSuites returns the suites the strategy accepts that crypto/tls
// implements.
func (c *Config) CipherSuites() []uint16 {
	implemented := mapset.NewThreadUnsafeSet[uint16]()
	for _, s := range tls.CipherSuites() {
		implemented.Add(s.ID)
	}
	for _, s := range tls.InsecureCipherSuites() {
		implemented.Add(s.ID)
	}

	var out []uint16
	for _, id := range c.suites.Accepted(c.strategy) {
		if implemented.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Server returns a server configuration. Handshakes are limited to TLS 1.2
// so that the strategy's cipher suites are the ones negotiated.
func (c *Config) Server() *tls.Config {
	cfg := c.base()
	cfg.GetCertificate = c.getCertificate
	cfg.ClientAuth = c.clientAuth.tlsClientAuth()
	return cfg
}

// Client returns a client configuration. The built-in verification is
// disabled and replaced by the strategy's peer verifier.
func (c *Config) Client() *tls.Config {
	cfg := c.base()
	// Trust is decided by VerifyPeerCertificate alone.
	cfg.InsecureSkipVerify = true
	cfg.ServerName = c.serverName
	if c.clientAuth != ClientAuthNone {
		cfg.GetClientCertificate = c.getClientCertificate
	}
	if c.serverName != "" {
		cfg.VerifyConnection = c.verifyServerName
	}
	return cfg
}

func (c *Config) base() *tls.Config {
	return &tls.Config{
		MinVersion:            tls.VersionTLS12,
		MaxVersion:            tls.VersionTLS12,
		CipherSuites:          c.CipherSuites(),
		VerifyPeerCertificate: c.verifyPeer,
	}
}

func (c *Config) getCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	for i := range c.certs {
		if hello.SupportsCertificate(&c.certs[i]) == nil {
			return &c.certs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSupportedCredential, hello.ServerName)
}

func (c *Config) getClientCertificate(info *tls.CertificateRequestInfo) (*tls.Certificate, error) {
	for i := range c.certs {
		if info.SupportsCertificate(&c.certs[i]) == nil {
			return &c.certs[i], nil
		}
	}
	// An empty certificate lets the server decide.
	c.log.Warnf("no client credential matches the server request")
	return &tls.Certificate{}, nil
}

func (c *Config) verifyPeer(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		// Only reachable on servers that do not require client certificates.
		return nil
	}
	return c.verifier.VerifyRaw(rawCerts)
}

func (c *Config) verifyServerName(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return x509trust.ErrEmptyPeerChain
	}
	return cs.PeerCertificates[0].VerifyHostname(c.serverName)
}
