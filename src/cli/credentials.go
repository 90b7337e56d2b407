// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	x509trust "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/trust"
)

func newCredentialsCommand(o *options) *cobra.Command {
	var (
		algorithm, suite string
		observed         bool
	)

	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Resolve the configured key stores into bound credentials",
		Long: `Loads every configured key store into a key ring, rebuilds the chains of
its certificates and binds each chain whose key pair is present to the
signature algorithm of its leaf. Chains the strategy does not accept are
skipped. With --algorithm or --suite only the credential that would be
selected for that algorithm or cipher suite is printed. With
--observed-chains a key whose chain cannot be completed from the key
stores resolves with the chain stored beside it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			strategy, err := cfg.TrustStrategy()
			if err != nil {
				return err
			}
			ring, err := cfg.KeyRing()
			if err != nil {
				// A partial ring is still resolved.
				o.log.Warnf("key stores: %v", err)
			}

			if observed {
				cfg.Resolver.ObservedChains = true
			}
			resolver, err := cfg.CredentialResolver(ring, o.log)
			if err != nil {
				return err
			}

			var creds []*x509trust.BoundCredential
			switch {
			case suite != "":
				suites := x509trust.NewSuiteTable()
				cs, err := suites.Parse(suite)
				if err != nil {
					return err
				}
				c, err := resolver.SelectForSuite(strategy, suites, cs.ID)
				if err != nil {
					return err
				}
				creds = append(creds, c)
			case algorithm != "":
				alg, err := x509trust.ParseSignatureAlgorithm(algorithm)
				if err != nil {
					return err
				}
				c, err := resolver.SelectForAlgorithm(strategy, alg)
				if err != nil {
					return err
				}
				creds = append(creds, c)
			default:
				res, err := resolver.ResolveCredentials(strategy)
				if err != nil {
					return err
				}
				for _, ch := range res.Filtered {
					o.log.Printf("skipped %s: signature algorithm not accepted", ch.Leaf())
				}
				creds = res.Credentials
			}

			return renderCredentials(cmd.OutOrStdout(), o.format, creds)
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "select the credential for a signature algorithm (rsa, dsa, ecdsa)")
	cmd.Flags().StringVarP(&suite, "suite", "s", "", "select the credential for a cipher suite, by IANA name or hex identifier")
	cmd.Flags().BoolVar(&observed, "observed-chains", false, "fall back to the stored chain when no complete chain can be rebuilt")
	cmd.MarkFlagsMutuallyExclusive("algorithm", "suite")
	return cmd
}

func renderCredentials(w io.Writer, format string, creds []*x509trust.BoundCredential) error {
	switch format {
	case FormatJSON:
		data := make([]x509trust.CredentialData, 0, len(creds))
		for _, c := range creds {
			data = append(data, c.Data())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)

	case FormatPEM, FormatDER:
		chains := make([]*x509chain.Chain, 0, len(creds))
		for _, c := range creds {
			chains = append(chains, c.Chain)
		}
		return writeEncoded(w, format, chains)

	default:
		table := tablewriter.NewTable(w,
			tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
		)
		table.Header([]string{"#", "Algorithm", "Leaf", "Root", "Length"})
		for i, c := range creds {
			if err := table.Append([]string{
				strconv.Itoa(i + 1),
				c.Algorithm.String(),
				c.Chain.Leaf().String(),
				c.Chain.Root().String(),
				strconv.Itoa(c.Chain.Len()),
			}); err != nil {
				return err
			}
		}
		return table.Render()
	}
}
