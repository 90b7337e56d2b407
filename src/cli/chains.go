// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/keystore"
	x509certs "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

func newChainsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chains FILE...",
		Short: "Build every certificate chain found in the given files",
		Long: `Reads every certificate from the given files (PEM, DER or PKCS#7) into one
pool and builds a chain for each leaf. Leaves whose chain cannot be completed
are reported as warnings; the command fails only when no chain was built.`,
		Args: requireFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			scheme, err := cfg.IdentityScheme()
			if err != nil {
				return err
			}

			pool, err := keystore.LoadPool(args...)
			if err != nil {
				return err
			}

			res, err := x509chain.NewBuilder(scheme, x509chain.WithLogger(o.log)).Build(pool)
			if err != nil {
				return err
			}
			for _, d := range res.Duplicates {
				o.log.Warnf("duplicate identity %s: %s replaced by %s", d.Key, d.Replaced, d.Kept)
			}

			if err := renderChains(cmd.OutOrStdout(), o, scheme, res.Chains); err != nil {
				return err
			}
			if len(res.Chains) == 0 {
				if err := res.Err(); err != nil {
					return err
				}
				return fmt.Errorf("%w: no leaf certificate in %d file(s)", x509chain.ErrIncompleteChain, len(args))
			}
			return nil
		},
	}
}

// renderChains writes chains in the selected format. JSON output is a
// single array so that it stays machine readable.
func renderChains(w io.Writer, o *options, scheme x509view.Scheme, chains []*x509chain.Chain) error {
	if o.format == FormatJSON {
		data := make([]x509chain.ChainData, 0, len(chains))
		for _, ch := range chains {
			data = append(data, ch.Data())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	if o.format == FormatPEM || o.format == FormatDER {
		return writeEncoded(w, o.format, chains)
	}

	for i, ch := range chains {
		if err := o.ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(w)
		}

		switch o.format {
		case FormatTable:
			fmt.Fprint(w, ch.RenderTable())
		default:
			fmt.Fprintf(w, "Chain %d: %s\n", i+1, ch.Leaf())
			fmt.Fprint(w, ch.RenderASCIITree(scheme))
		}
	}
	return nil
}

// writeEncoded writes the certificates of every chain, leaf first, as
// concatenated PEM blocks or raw DER.
func writeEncoded(w io.Writer, format string, chains []*x509chain.Chain) error {
	codec := x509certs.New()
	for _, ch := range chains {
		data := codec.EncodeMultiplePEM(ch.Certificates())
		if format == FormatDER {
			data = codec.EncodeMultipleDER(ch.Certificates())
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s chain %s: %w", format, ch.Leaf(), err)
		}
	}
	return nil
}
