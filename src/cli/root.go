// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/config"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

// Output formats.
const (
	FormatTree  = "tree"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatPEM   = "pem"
	FormatDER   = "der"
)

var (
	// ErrInputFileRequired indicates that a command was run without a certificate file.
	ErrInputFileRequired = errors.New("cli: at least one certificate file is required")

	// ErrUnknownFormat indicates an unsupported --format value.
	ErrUnknownFormat = errors.New("cli: unknown output format")
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	ctx        context.Context
	log        logger.Logger
	configPath string
	scheme     string
	format     string
}

// Execute runs the command tree with the process arguments.
//
// Parameters:
//   - ctx: Cancelled on SIGINT or SIGTERM; commands stop between files
//   - version: Printed by --version
//   - log: Destination for warnings and progress
//
// Returns:
//   - error: The failure of the selected subcommand
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewCommand(ctx, version, log).Execute()
}

// NewCommand builds the root command. Callers may override its arguments
// and output streams before executing it.
func NewCommand(ctx context.Context, version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.Discard()
	}
	o := &options{ctx: ctx, log: log}

	root := &cobra.Command{
		Use:   posix.GetExecutableName(),
		Short: "Build certificate chains and bind TLS credentials under a trust strategy",
		Long: `Builds certificate chains from unordered certificate pools, binds key ring
credentials to the signature algorithms a trust strategy accepts, and
verifies peer chains against the same strategy.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains([]string{FormatTree, FormatTable, FormatJSON, FormatPEM, FormatDER}, o.format) {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, o.format)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "configuration file, JSON or YAML (default: $"+config.EnvConfigFile+")")
	flags.StringVar(&o.scheme, "scheme", "", "identity key scheme: subject or key-identifier (default: from configuration)")
	flags.StringVarP(&o.format, "format", "f", FormatTree, "output format: tree, table, json, pem or der")

	root.AddCommand(
		newChainsCommand(o),
		newCredentialsCommand(o),
		newVerifyCommand(o),
	)
	return root
}

// load reads the configuration and applies the --scheme override.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.scheme != "" {
		cfg.Scheme = o.scheme
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if o.configPath != "" && cfg.Log.Format == "json" {
		o.log = cfg.Logger()
	}
	return cfg, nil
}

// requireFiles rejects invocations without positional file arguments.
func requireFiles(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return ErrInputFileRequired
	}
	return nil
}
