// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"crypto/x509"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/keystore"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
)

func newVerifyCommand(o *options) *cobra.Command {
	var roots []string

	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Verify a peer certificate chain against the trust strategy",
		Long: `Reads a chain as a peer would send it, leaf first, and checks its links,
signatures and algorithms against the strategy. The chain is trusted when
it contains a trusted root or ends at a certificate issued by one.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := requireFiles(cmd, args); err != nil {
				return err
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			cfg.Strategy.TrustedRoots = append(cfg.Strategy.TrustedRoots, roots...)

			scheme, err := cfg.IdentityScheme()
			if err != nil {
				return err
			}
			strategy, err := cfg.TrustStrategy()
			if err != nil {
				return err
			}

			views, err := keystore.LoadPool(args[0])
			if err != nil {
				return err
			}
			certs := make([]*x509.Certificate, len(views))
			for i, v := range views {
				certs[i] = v.Certificate()
			}

			verifier, err := x509trust.NewPeerVerifier(strategy, scheme, x509trust.WithCacheSize(0))
			if err != nil {
				return err
			}
			if err := verifier.Verify(certs); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if o.format == FormatJSON {
				return json.NewEncoder(out).Encode(map[string]any{
					"trusted":     true,
					"leaf":        views[0].String(),
					"chainLength": len(views),
				})
			}
			fmt.Fprintf(out, "trusted: %s (%d certificate(s))\n", views[0], len(views))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&roots, "roots", "r", nil, "additional trusted root file (repeatable)")
	return cmd
}
