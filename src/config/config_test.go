// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/config"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/testpki"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	scheme, err := cfg.IdentityScheme()
	require.NoError(t, err)
	assert.Equal(t, x509view.SchemeSubject, scheme)
	assert.Equal(t, x509trust.DefaultPeerCacheSize, cfg.Peer.CacheSize)
	assert.IsType(t, &logger.CLILogger{}, cfg.Logger())

	strategy, err := cfg.TrustStrategy()
	require.NoError(t, err)
	assert.Equal(t, x509trust.DefaultStrategy().String(), strategy.String())
}

func TestLoad_Files(t *testing.T) {
	dir := t.TempDir()
	root := testpki.Root(t, "Config Root")
	leaf := testpki.Leaf(t, "config.example", root)
	rootPath := write(t, dir, "root.pem", root.PEM())
	certPath := write(t, dir, "leaf.pem", append(leaf.PEM(), root.PEM()...))
	keyPath := write(t, dir, "leaf.key", leaf.KeyPEM(t))

	tests := []struct {
		name     string
		file     string
		content  string
		testFunc func(t *testing.T, cfg *config.Config, err error)
	}{
		{
			name: "YAML",
			file: "trust.yaml",
			content: `
scheme: key-identifier
strategy:
  signatureAlgorithms: [ecdsa]
  hashAlgorithms: [SHA-384]
  trustedRoots: [` + rootPath + `]
keyStores:
  - type: pem
    cert: ` + certPath + `
    key: ` + keyPath + `
resolver:
  observedChains: true
log:
  format: json
  silent: true
`,
			testFunc: func(t *testing.T, cfg *config.Config, err error) {
				require.NoError(t, err)
				scheme, err := cfg.IdentityScheme()
				require.NoError(t, err)
				assert.Equal(t, x509view.SchemeKeyIdentifier, scheme)
				assert.IsType(t, &logger.JSONLogger{}, cfg.Logger())
				assert.True(t, cfg.Resolver.ObservedChains)

				strategy, err := cfg.TrustStrategy()
				require.NoError(t, err)
				assert.Equal(t, []x509trust.SignatureAlgorithm{x509trust.SignatureECDSA}, strategy.SignatureAlgorithms())
				assert.Equal(t, []x509trust.HashAlgorithm{x509trust.HashSHA384}, strategy.HashAlgorithms())
				// Unset lists keep their defaults.
				assert.Len(t, strategy.KeyExchangeAlgorithms(), 5)
				require.Len(t, strategy.TrustedRoots(), 1)

				ring, err := cfg.KeyRing()
				require.NoError(t, err)
				assert.Equal(t, 1, ring.Len())
			},
		},
		{
			name:    "JSON",
			file:    "trust.json",
			content: `{"scheme":"subject","peer":{"cacheSize":0},"keyStores":[{"type":"bundle","path":"` + filepath.Join(dir, "missing.pem") + `"}]}`,
			testFunc: func(t *testing.T, cfg *config.Config, err error) {
				require.NoError(t, err)
				assert.Zero(t, cfg.Peer.CacheSize)

				// Store failures are reported, the ring is still usable.
				ring, err := cfg.KeyRing()
				assert.ErrorIs(t, err, os.ErrNotExist)
				assert.Zero(t, ring.Len())
			},
		},
		{
			name:    "Unknown Algorithm",
			file:    "bad.yml",
			content: "strategy:\n  signatureAlgorithms: [ed448]\n",
			testFunc: func(t *testing.T, _ *config.Config, err error) {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			},
		},
		{
			name:    "Unknown Scheme",
			file:    "scheme.yml",
			content: "scheme: fingerprint\n",
			testFunc: func(t *testing.T, _ *config.Config, err error) {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			},
		},
		{
			name:    "PEM Store Without Key",
			file:    "store.json",
			content: `{"keyStores":[{"type":"pem","cert":"` + certPath + `"}]}`,
			testFunc: func(t *testing.T, _ *config.Config, err error) {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			},
		},
		{
			name:    "Empty Algorithm List",
			file:    "empty.json",
			content: `{"strategy":{"hashAlgorithms":[]}}`,
			testFunc: func(t *testing.T, _ *config.Config, err error) {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			},
		},
		{
			name:    "Malformed JSON",
			file:    "broken.json",
			content: `{"scheme":`,
			testFunc: func(t *testing.T, _ *config.Config, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to parse JSON config file")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(write(t, dir, tt.file, []byte(tt.content)))
			tt.testFunc(t, cfg, err)
		})
	}
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "env.yaml", []byte(`
keyStores:
  - type: pkcs12
    path: `+filepath.Join("..", "internal", "keystore", "testdata", "keystore.p12")+`
`))

	t.Setenv(config.EnvConfigFile, path)
	t.Setenv(config.EnvKeyStorePassword, "changeit")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Len(t, cfg.KeyStores, 1)
	assert.Equal(t, "changeit", cfg.KeyStores[0].Password)

	ring, err := cfg.KeyRing()
	require.NoError(t, err)
	assert.Equal(t, 1, ring.Len())
}

func TestConfig_CredentialResolver(t *testing.T) {
	dir := t.TempDir()
	root := testpki.Root(t, "Resolver Root")
	sub := testpki.Intermediate(t, "Resolver Sub", root)
	leaf := testpki.Leaf(t, "resolver.example", sub)
	certPath := write(t, dir, "leaf.pem", append(leaf.PEM(), sub.PEM()...))
	keyPath := write(t, dir, "leaf.key", leaf.KeyPEM(t))

	tests := []struct {
		name     string
		observed bool
		scheme   string
		expected int
	}{
		{name: "Rebuilt Chains Only", scheme: "subject", expected: 0},
		{name: "Observed Chains", observed: true, scheme: "subject", expected: 1},
		{name: "Observed Chains Under Key Identifier Scheme", observed: true, scheme: "key-identifier", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Scheme = tt.scheme
			cfg.Resolver.ObservedChains = tt.observed
			cfg.KeyStores = []config.KeyStore{{Type: config.KeyStorePEM, Cert: certPath, Key: keyPath}}
			require.NoError(t, cfg.Validate())

			ring, err := cfg.KeyRing()
			require.NoError(t, err)
			r, err := cfg.CredentialResolver(ring, logger.Discard())
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, r.Scheme().String())

			res, err := r.ResolveCredentials(x509trust.DefaultStrategy())
			require.NoError(t, err)
			assert.Len(t, res.Credentials, tt.expected)
			assert.Len(t, res.ChainFailures, 1)
		})
	}

	t.Run("Unknown Scheme", func(t *testing.T) {
		cfg := config.Default()
		cfg.Scheme = "fingerprint"
		_, err := cfg.CredentialResolver(nil, nil)
		assert.Error(t, err)
	})
}
