// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/keystore"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

const (
	// EnvConfigFile names the configuration file when no path is given.
	EnvConfigFile = "X509_TRUST_CONFIG_FILE"
	// EnvKeyStorePassword is the PKCS#12 password for stores that set none.
	EnvKeyStorePassword = "X509_KEYSTORE_PASSWORD"
)

// Key store types.
const (
	KeyStorePEM    = "pem"
	KeyStoreBundle = "bundle"
	KeyStorePKCS12 = "pkcs12"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// configFormat represents supported configuration file formats.
type configFormat int

const (
	configFormatJSON configFormat = iota
	configFormatYAML
)

// Config is the trust resolver configuration.
//
// It is loaded from a JSON or YAML file named by the path argument or the
// X509_TRUST_CONFIG_FILE environment variable, with defaults applied for
// missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Scheme: identity key scheme, "subject" or "key-identifier"
	Scheme string `json:"scheme" yaml:"scheme" validate:"scheme"`

	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// KeyStores: credential sources for the key ring
	KeyStores []KeyStore `json:"keyStores" yaml:"keyStores" validate:"dive"`

	Resolver struct {
		// ObservedChains: resolve a key with the chain stored beside it when
		// no complete chain can be rebuilt, as long as its links hold
		ObservedChains bool `json:"observedChains" yaml:"observedChains"`
	} `json:"resolver" yaml:"resolver"`

	Peer struct {
		// CacheSize: number of peer chain verdicts to remember; 0 disables the cache
		CacheSize int `json:"cacheSize" yaml:"cacheSize" validate:"gte=0"`
	} `json:"peer" yaml:"peer"`

	Log struct {
		// Format: "text" for humans or "json" for one object per line
		Format string `json:"format" yaml:"format" validate:"oneof=text json"`
		// Silent: write nothing; applies to the json format
		Silent bool `json:"silent" yaml:"silent"`
	} `json:"log" yaml:"log"`
}

// Strategy lists accepted algorithm names and trusted root files.
type Strategy struct {
	SignatureAlgorithms   []string `json:"signatureAlgorithms" yaml:"signatureAlgorithms" validate:"min=1,dive,signature_algorithm"`
	HashAlgorithms        []string `json:"hashAlgorithms" yaml:"hashAlgorithms" validate:"min=1,dive,hash_algorithm"`
	EncryptionAlgorithms  []string `json:"encryptionAlgorithms" yaml:"encryptionAlgorithms" validate:"min=1,dive,encryption_algorithm"`
	KeyExchangeAlgorithms []string `json:"keyExchangeAlgorithms" yaml:"keyExchangeAlgorithms" validate:"min=1,dive,key_exchange_algorithm"`
	// TrustedRoots: certificate files (PEM, DER or PKCS#7)
	TrustedRoots []string `json:"trustedRoots" yaml:"trustedRoots" validate:"dive,required"`
}

// KeyStore is one credential source.
type KeyStore struct {
	Type string `json:"type" yaml:"type" validate:"required,oneof=pem bundle pkcs12"`
	// Cert and Key are used by the pem type.
	Cert string `json:"cert,omitempty" yaml:"cert,omitempty" validate:"required_if=Type pem"`
	Key  string `json:"key,omitempty" yaml:"key,omitempty" validate:"required_if=Type pem"`
	// Path is used by the bundle and pkcs12 types.
	Path string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_unless=Type pem"`
	// Password: PKCS#12 password (can also be set via X509_KEYSTORE_PASSWORD env var)
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Default returns the configuration used when no file is given. Its
// algorithms match [x509trust.DefaultStrategy].
func Default() *Config {
	c := &Config{Scheme: x509view.SchemeSubject.String()}
	c.Strategy = Strategy{
		SignatureAlgorithms:   []string{"rsa", "dsa", "ecdsa"},
		HashAlgorithms:        []string{"sha256", "sha384", "sha512"},
		EncryptionAlgorithms:  []string{"aes_128_gcm", "aes_128_cbc"},
		KeyExchangeAlgorithms: []string{"ecdhe_ecdsa", "ecdhe_rsa", "dhe_dss", "dhe_rsa", "rsa"},
	}
	c.Peer.CacheSize = x509trust.DefaultPeerCacheSize
	c.Log.Format = "text"
	return c
}

// Load reads the configuration.
//
// Configuration Priority:
//  1. Default values are set
//  2. X509_TRUST_CONFIG_FILE is checked if path is empty
//  3. Config file values override defaults
//  4. X509_KEYSTORE_PASSWORD fills PKCS#12 stores without a password
//
// Returns:
//   - *Config: Validated configuration
//   - error: Read, parse or validation failure; validation failures wrap [ErrInvalidConfig]
func Load(path string) (*Config, error) {
	c := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	if path != "" {
		data, err := gc.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshalConfig(data, c, detectConfigFormat(path)); err != nil {
			return nil, err
		}
	}

	if password := os.Getenv(EnvKeyStorePassword); password != "" {
		for i := range c.KeyStores {
			if c.KeyStores[i].Type == KeyStorePKCS12 && c.KeyStores[i].Password == "" {
				c.KeyStores[i].Password = password
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// IdentityScheme returns the parsed identity key scheme.
func (c *Config) IdentityScheme() (x509view.Scheme, error) {
	return x509view.ParseScheme(c.Scheme)
}

// CredentialResolver creates a resolver over ring with the configured
// scheme and resolver options.
func (c *Config) CredentialResolver(ring *x509trust.KeyRing, log logger.Logger) (*x509trust.Resolver, error) {
	scheme, err := c.IdentityScheme()
	if err != nil {
		return nil, err
	}

	opts := []x509trust.ResolverOption{x509trust.WithScheme(scheme), x509trust.WithLogger(log)}
	if c.Resolver.ObservedChains {
		opts = append(opts, x509trust.WithObservedChains())
	}
	return x509trust.NewResolver(ring, opts...), nil
}

// Logger returns the logger described by the log section.
func (c *Config) Logger() logger.Logger {
	if c.Log.Format == "json" {
		return logger.NewJSONLogger(os.Stderr, c.Log.Silent)
	}
	return logger.NewCLILogger()
}

// TrustStrategy builds the strategy and loads the trusted root files.
func (c *Config) TrustStrategy() (*x509trust.Strategy, error) {
	var errs error
	sigs := parseAll(c.Strategy.SignatureAlgorithms, x509trust.ParseSignatureAlgorithm, &errs)
	hashes := parseAll(c.Strategy.HashAlgorithms, x509trust.ParseHashAlgorithm, &errs)
	encs := parseAll(c.Strategy.EncryptionAlgorithms, x509trust.ParseEncryptionAlgorithm, &errs)
	kxs := parseAll(c.Strategy.KeyExchangeAlgorithms, x509trust.ParseKeyExchangeAlgorithm, &errs)
	if errs != nil {
		return nil, errs
	}

	opts := []x509trust.StrategyOption{
		x509trust.WithSignatureAlgorithms(sigs...),
		x509trust.WithHashAlgorithms(hashes...),
		x509trust.WithEncryptionAlgorithms(encs...),
		x509trust.WithKeyExchangeAlgorithms(kxs...),
	}

	if len(c.Strategy.TrustedRoots) > 0 {
		roots, err := keystore.LoadPool(c.Strategy.TrustedRoots...)
		if err != nil {
			return nil, fmt.Errorf("trusted roots: %w", err)
		}
		for _, v := range roots {
			opts = append(opts, x509trust.WithTrustedRoots(v.Certificate()))
		}
	}

	return x509trust.NewStrategy(opts...)
}

// KeyRing loads every key store into a new key ring. A store that fails
// does not stop the others; the ring holds what did load and the error
// lists every failure.
func (c *Config) KeyRing() (*x509trust.KeyRing, error) {
	kb := x509trust.NewKeyRingBuilder()
	var errs error
	for _, ks := range c.KeyStores {
		entries, err := ks.Load()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		errs = multierr.Append(errs, keystore.Populate(kb, entries))
	}
	return kb.Build(), errs
}

// Load reads the entries of one key store.
func (ks KeyStore) Load() ([]keystore.Entry, error) {
	switch ks.Type {
	case KeyStorePEM:
		return keystore.LoadPEMPair(ks.Cert, ks.Key)
	case KeyStoreBundle:
		return keystore.LoadBundle(ks.Path)
	case KeyStorePKCS12:
		return keystore.LoadPKCS12(ks.Path, ks.Password)
	default:
		return nil, fmt.Errorf("%w: key store type %q", ErrInvalidConfig, ks.Type)
	}
}

func parseAll[T any](names []string, parse func(string) (T, error), errs *error) []T {
	out := make([]T, 0, len(names))
	for _, name := range names {
		v, err := parse(name)
		if err != nil {
			*errs = multierr.Append(*errs, err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// newValidator registers algorithm and scheme names as validation tags.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("scheme", parses(x509view.ParseScheme))
	_ = validate.RegisterValidation("signature_algorithm", parses(x509trust.ParseSignatureAlgorithm))
	_ = validate.RegisterValidation("hash_algorithm", parses(x509trust.ParseHashAlgorithm))
	_ = validate.RegisterValidation("encryption_algorithm", parses(x509trust.ParseEncryptionAlgorithm))
	_ = validate.RegisterValidation("key_exchange_algorithm", parses(x509trust.ParseKeyExchangeAlgorithm))
	return validate
}

func parses[T any](parse func(string) (T, error)) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := parse(fl.Field().String())
		return err == nil
	}
}

// detectConfigFormat picks the format from the file extension, ignoring case.
func detectConfigFormat(path string) configFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

func unmarshalConfig(data []byte, c *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}
