// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/testpki"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/logger"
)

var schemes = []x509view.Scheme{x509view.SchemeSubject, x509view.SchemeKeyIdentifier}

func viewsOf(t *testing.T, issued ...*testpki.Issued) []*x509view.View {
	t.Helper()
	views, err := x509view.FromCertificates(testpki.Certs(issued...))
	require.NoError(t, err)
	return views
}

func fingerprints(views []*x509view.View) [][32]byte {
	out := make([][32]byte, len(views))
	for i, v := range views {
		out[i] = v.Fingerprint()
	}
	return out
}

// rawName encodes a distinguished name with a single common name.
func rawName(t *testing.T, cn string) []byte {
	t.Helper()
	raw, err := asn1.Marshal(pkix.Name{CommonName: cn}.ToRDNSequence())
	require.NoError(t, err)
	return raw
}

func TestBuild_SharedIntermediate(t *testing.T) {
	root := testpki.Root(t, "Shared Root")
	sub := testpki.Intermediate(t, "Shared Sub", root)
	leaf1 := testpki.Leaf(t, "one.example", sub)
	leaf2 := testpki.Leaf(t, "two.example", sub)

	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			// Unordered on purpose.
			pool := viewsOf(t, sub, leaf2, root, leaf1)

			res, err := x509chain.BuildChains(pool, scheme)
			require.NoError(t, err)
			require.NoError(t, res.Err())
			require.Len(t, res.Chains, 2)
			assert.Empty(t, res.Duplicates)

			// Leaf order follows the pool.
			assert.Equal(t, fingerprints(viewsOf(t, leaf2, sub, root)), fingerprints(res.Chains[0].Views()))
			assert.Equal(t, fingerprints(viewsOf(t, leaf1, sub, root)), fingerprints(res.Chains[1].Views()))

			// Shared nodes are the same read-only views.
			assert.Same(t, res.Chains[0].Root(), res.Chains[1].Root())

			for _, ch := range res.Chains {
				assert.NoError(t, ch.Validate(scheme))
				assert.NoError(t, ch.VerifySignatures())
			}
		})
	}
}

func TestBuild_MissingIntermediate(t *testing.T) {
	root := testpki.Root(t, "Gap Root")
	sub := testpki.Intermediate(t, "Gap Sub", root)
	leaf1 := testpki.Leaf(t, "gap.example", sub)

	otherRoot := testpki.Root(t, "Intact Root")
	otherSub := testpki.Intermediate(t, "Intact Sub", otherRoot)
	otherLeaf := testpki.Leaf(t, "intact.example", otherSub)

	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			subView := viewsOf(t, sub)[0]
			pool := viewsOf(t, root, leaf1, otherRoot, otherSub, otherLeaf)

			res, err := x509chain.NewBuilder(scheme).Build(pool)
			require.NoError(t, err)

			require.Len(t, res.Chains, 1, "independent chain still resolves")
			assert.Equal(t, otherLeaf.Cert.Raw, res.Chains[0].Leaf().Raw())

			require.Len(t, res.Failures, 1)
			failure := res.Failures[0]
			assert.ErrorIs(t, failure, x509chain.ErrIncompleteChain)
			assert.Equal(t, leaf1.Cert.Raw, failure.Leaf.Raw())
			assert.Equal(t, subView.Identity(scheme), failure.Missing)
			assert.Len(t, failure.Partial, 1)

			assert.ErrorIs(t, res.Err(), x509chain.ErrIncompleteChain)
			assert.Len(t, multierr.Errors(res.Err()), 1)
		})
	}
}

func TestBuild_MissingRoot(t *testing.T) {
	root := testpki.Root(t, "Absent Root")
	sub := testpki.Intermediate(t, "Orphan Sub", root)
	leaf := testpki.Leaf(t, "orphan.example", sub)

	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			res, err := x509chain.BuildChains(viewsOf(t, sub, leaf), scheme)
			require.NoError(t, err)
			assert.Empty(t, res.Chains)

			require.Len(t, res.Failures, 1, "only the leaf fails, the intermediate is not a leaf")
			assert.Equal(t, leaf.Cert.Raw, res.Failures[0].Leaf.Raw())
			assert.Len(t, res.Failures[0].Partial, 2)
		})
	}
}

func TestBuild_EdgeCases(t *testing.T) {
	rootA := testpki.Root(t, "Lonely Root A")
	rootB := testpki.Root(t, "Lonely Root B")

	tests := []struct {
		name     string
		testFunc func(t *testing.T, b *x509chain.Builder)
	}{
		{
			name: "Nil Pool Is Fatal",
			testFunc: func(t *testing.T, b *x509chain.Builder) {
				res, err := b.Build(nil)
				assert.Nil(t, res)
				assert.ErrorIs(t, err, x509chain.ErrNilPool)
			},
		},
		{
			name: "Nil Entry Is Fatal",
			testFunc: func(t *testing.T, b *x509chain.Builder) {
				pool := append(viewsOf(t, rootA), nil)
				_, err := b.Build(pool)
				assert.ErrorIs(t, err, x509view.ErrNilCertificate)
			},
		},
		{
			name: "Empty Pool",
			testFunc: func(t *testing.T, b *x509chain.Builder) {
				res, err := b.Build([]*x509view.View{})
				require.NoError(t, err)
				assert.Empty(t, res.Chains)
				assert.Empty(t, res.Failures)
				assert.NoError(t, res.Err())
			},
		},
		{
			name: "Only Self-Signed",
			testFunc: func(t *testing.T, b *x509chain.Builder) {
				res, err := b.Build(viewsOf(t, rootA, rootB))
				require.NoError(t, err)
				assert.Empty(t, res.Chains)
				assert.Empty(t, res.Failures)
			},
		},
		{
			name: "Same Certificate Twice Is Not A Duplicate",
			testFunc: func(t *testing.T, b *x509chain.Builder) {
				sub := testpki.Intermediate(t, "Twice Sub", rootA)
				leaf := testpki.Leaf(t, "twice.example", sub)
				pool := append(viewsOf(t, rootA, sub, leaf), viewsOf(t, leaf)...)

				res, err := b.Build(pool)
				require.NoError(t, err)
				assert.Empty(t, res.Duplicates)
				assert.Len(t, res.Chains, 1)
			},
		},
	}

	for _, scheme := range schemes {
		for _, tt := range tests {
			t.Run(scheme.String()+"/"+tt.name, func(t *testing.T) {
				tt.testFunc(t, x509chain.NewBuilder(scheme))
			})
		}
	}
}

func TestBuild_DuplicateIdentityLastWriteWins(t *testing.T) {
	first := testpki.Root(t, "Duplicate Root")
	second := testpki.Root(t, "Duplicate Root")
	leaf := testpki.Leaf(t, "dup.example", first)

	var logs bytes.Buffer
	b := x509chain.NewBuilder(x509view.SchemeSubject, x509chain.WithLogger(logger.NewJSONLogger(&logs, false)))

	pool := viewsOf(t, first, leaf, second)
	res, err := b.Build(pool)
	require.NoError(t, err)

	require.Len(t, res.Duplicates, 1)
	dup := res.Duplicates[0]
	assert.Same(t, pool[0], dup.Replaced)
	assert.Same(t, pool[2], dup.Kept)
	assert.Equal(t, pool[0].Identity(x509view.SchemeSubject), dup.Key)
	assert.ErrorIs(t, dup, x509chain.ErrDuplicateIdentityKey)
	assert.Contains(t, dup.Error(), "CN=Duplicate Root")
	// Advisory only.
	assert.NoError(t, res.Err())

	// The chain links by name to the surviving root, whose key did not sign the leaf.
	require.Len(t, res.Chains, 1)
	assert.Same(t, pool[2], res.Chains[0].Root())
	assert.NoError(t, res.Chains[0].Validate(x509view.SchemeSubject))
	assert.ErrorIs(t, res.Chains[0].VerifySignatures(), x509chain.ErrSignatureMismatch)

	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "duplicate subject identity")
}

func TestBuild_Cycle(t *testing.T) {
	mk := func(raw, subject, issuer string) *x509view.View {
		v, err := x509view.New(&x509.Certificate{
			Raw:        []byte(raw),
			RawSubject: rawName(t, subject),
			RawIssuer:  rawName(t, issuer),
		})
		require.NoError(t, err)
		return v
	}

	a := mk("a", "Loop A", "Loop B")
	b := mk("b", "Loop B", "Loop A")
	leaf := mk("leaf", "Loop Leaf", "Loop A")

	res, err := x509chain.BuildChains([]*x509view.View{a, b, leaf}, x509view.SchemeSubject)
	require.NoError(t, err)
	assert.Empty(t, res.Chains)

	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], x509chain.ErrCyclicChain)
	assert.Same(t, leaf, res.Failures[0].Leaf)
	assert.Equal(t, a.Identity(x509view.SchemeSubject), res.Failures[0].Missing)
	assert.Len(t, res.Failures[0].Partial, 3)
}

func TestBuild_RootWithoutAuthorityKeyIDUnderKeyIdentifier(t *testing.T) {
	// Cross-signed style: an intermediate whose AKI is absent is an implicit root.
	root := testpki.Root(t, "Implicit Root Parent")
	sub := testpki.Issue(t, root, testpki.Options{CommonName: "Implicit Root", IsCA: true, KeyUsage: x509.KeyUsageCertSign})
	leaf := testpki.Leaf(t, "implicit.example", sub)

	stripped := *sub.Cert
	stripped.AuthorityKeyId = nil
	subView, err := x509view.New(&stripped)
	require.NoError(t, err)

	pool := []*x509view.View{subView, viewsOf(t, leaf)[0]}
	res, err := x509chain.BuildChains(pool, x509view.SchemeKeyIdentifier)
	require.NoError(t, err)
	require.Len(t, res.Chains, 1)
	assert.Equal(t, 2, res.Chains[0].Len())
	assert.NoError(t, res.Chains[0].Validate(x509view.SchemeKeyIdentifier))
}

// forest builds n independent hierarchies of random depth and returns every
// certificate plus the number of leaves.
func forest(t *testing.T, rng *rand.Rand, n int) ([]*testpki.Issued, int) {
	t.Helper()

	var all []*testpki.Issued
	leaves := 0
	for i := range n {
		root := testpki.Root(t, "Forest Root "+string(rune('A'+i)))
		all = append(all, root)

		parent := root
		for d := range rng.IntN(3) {
			parent = testpki.Intermediate(t, "Forest Sub "+string(rune('A'+i))+string(rune('0'+d)), parent)
			all = append(all, parent)
		}

		fanout := 1 + rng.IntN(3)
		for l := range fanout {
			all = append(all, testpki.Leaf(t, "leaf"+string(rune('0'+l))+"."+string(rune('a'+i))+".example", parent))
		}
		leaves += fanout
	}

	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all, leaves
}

func TestBuild_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := range 3 {
		issued, wantLeaves := forest(t, rng, 2+round)

		for _, scheme := range schemes {
			t.Run(scheme.String(), func(t *testing.T) {
				pool := viewsOf(t, issued...)
				b := x509chain.NewBuilder(scheme)

				res, err := b.Build(pool)
				require.NoError(t, err)
				require.Empty(t, res.Failures)

				// One chain per certificate that never issues another.
				assert.Len(t, res.Chains, wantLeaves)

				for _, ch := range res.Chains {
					assert.NoError(t, ch.Validate(scheme))
					assert.NoError(t, ch.VerifySignatures())
					assert.True(t, ch.Root().SelfSigned(scheme))
				}

				// Indexing is idempotent.
				g1, err := b.Index(pool)
				require.NoError(t, err)
				g2, err := b.Index(pool)
				require.NoError(t, err)
				assert.Equal(t, g1.Leaves(), g2.Leaves())
				assert.Equal(t, g1.Edges(), g2.Edges())

				// Re-indexing a built chain yields the same leaf and links.
				for _, ch := range res.Chains {
					g, err := b.Index(ch.Views())
					require.NoError(t, err)
					assert.Equal(t, []x509view.IdentityKey{ch.Leaf().Identity(scheme)}, g.Leaves())

					views := ch.Views()
					edges := g.Edges()
					assert.Len(t, edges, len(views)-1)
					for i := 0; i < len(views)-1; i++ {
						assert.Equal(t, views[i+1].Identity(scheme), edges[views[i].Identity(scheme)])
					}

					again, err := b.Build(ch.Views())
					require.NoError(t, err)
					require.Len(t, again.Chains, 1)
					assert.Equal(t, fingerprints(views), fingerprints(again.Chains[0].Views()))
				}
			})
		}
	}
}

func TestChain_Accessors(t *testing.T) {
	root := testpki.Root(t, "Accessor Root")
	sub1 := testpki.Intermediate(t, "Accessor Sub 1", root)
	sub2 := testpki.Intermediate(t, "Accessor Sub 2", sub1)
	leaf := testpki.Leaf(t, "accessor.example", sub2)

	ch, err := x509chain.FromCertificates(testpki.Certs(leaf, sub2, sub1, root))
	require.NoError(t, err)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Leaf And Root",
			testFunc: func(t *testing.T) {
				assert.Equal(t, leaf.Cert.Raw, ch.Leaf().Raw())
				assert.Equal(t, root.Cert.Raw, ch.Root().Raw())
				assert.Equal(t, 4, ch.Len())
			},
		},
		{
			name: "Intermediates",
			testFunc: func(t *testing.T) {
				inter := ch.Intermediates()
				require.Len(t, inter, 2)
				assert.True(t, inter[0].Equal(sub2.Cert))
				assert.True(t, inter[1].Equal(sub1.Cert))
			},
		},
		{
			name: "DER Order",
			testFunc: func(t *testing.T) {
				der := ch.DER()
				require.Len(t, der, 4)
				assert.Equal(t, leaf.Cert.Raw, der[0])
				assert.Equal(t, root.Cert.Raw, der[3])
			},
		},
		{
			name: "Views Are Copies",
			testFunc: func(t *testing.T) {
				views := ch.Views()
				views[0] = nil
				assert.NotNil(t, ch.Leaf())
			},
		},
		{
			name: "String",
			testFunc: func(t *testing.T) {
				assert.True(t, strings.HasPrefix(ch.String(), "CN=accessor.example"))
				assert.Equal(t, 3, strings.Count(ch.String(), " -> "))
			},
		},
		{
			name: "No Intermediates In Short Chain",
			testFunc: func(t *testing.T) {
				short, err := x509chain.FromCertificates(testpki.Certs(sub1, root))
				require.NoError(t, err)
				assert.Nil(t, short.Intermediates())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestChain_Constructors(t *testing.T) {
	_, err := x509chain.FromCertificates(nil)
	assert.ErrorIs(t, err, x509chain.ErrEmptyChain)

	_, err = x509chain.New(nil)
	assert.ErrorIs(t, err, x509chain.ErrEmptyChain)

	_, err = x509chain.New([]*x509view.View{nil})
	assert.ErrorIs(t, err, x509view.ErrNilCertificate)

	_, err = x509chain.FromCertificates([]*x509.Certificate{nil})
	assert.ErrorIs(t, err, x509view.ErrNilCertificate)
}

func TestChain_Validate(t *testing.T) {
	root := testpki.Root(t, "Validate Root")
	sub := testpki.Intermediate(t, "Validate Sub", root)
	leaf := testpki.Leaf(t, "validate.example", sub)
	stranger := testpki.Root(t, "Validate Stranger")

	tests := []struct {
		name    string
		issued  []*testpki.Issued
		wantErr error
	}{
		{name: "Complete", issued: []*testpki.Issued{leaf, sub, root}},
		{name: "Root Only", issued: []*testpki.Issued{root}},
		{name: "Skipped Link", issued: []*testpki.Issued{leaf, root}, wantErr: x509chain.ErrBrokenLink},
		{name: "Wrong Order", issued: []*testpki.Issued{sub, leaf, root}, wantErr: x509chain.ErrBrokenLink},
		{name: "Unterminated", issued: []*testpki.Issued{leaf, sub}, wantErr: x509chain.ErrNotSelfSigned},
		{name: "Foreign Root", issued: []*testpki.Issued{sub, stranger}, wantErr: x509chain.ErrBrokenLink},
	}

	for _, scheme := range schemes {
		for _, tt := range tests {
			t.Run(scheme.String()+"/"+tt.name, func(t *testing.T) {
				ch, err := x509chain.New(viewsOf(t, tt.issued...))
				require.NoError(t, err)

				err = ch.Validate(scheme)
				if tt.wantErr == nil {
					assert.NoError(t, err)
					return
				}
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	}
}

func TestChain_ValidateLinksWithoutRoot(t *testing.T) {
	root := testpki.Root(t, "Links Root")
	sub := testpki.Intermediate(t, "Links Sub", root)
	leaf := testpki.Leaf(t, "links.example", sub)

	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			ch, err := x509chain.New(viewsOf(t, leaf, sub))
			require.NoError(t, err)
			assert.NoError(t, ch.ValidateLinks(scheme))
			assert.ErrorIs(t, ch.Validate(scheme), x509chain.ErrNotSelfSigned)

			// The unrooted intermediate's own signature is not checked.
			assert.NoError(t, ch.VerifySignatures())
		})
	}
}

func TestChain_VerifySignatures(t *testing.T) {
	root := testpki.Root(t, "Signature Root")
	sub := testpki.Intermediate(t, "Signature Sub", root)
	leaf := testpki.Leaf(t, "signature.example", sub)
	impostor := testpki.Intermediate(t, "Signature Sub", root)

	good, err := x509chain.FromCertificates(testpki.Certs(leaf, sub, root))
	require.NoError(t, err)
	assert.NoError(t, good.VerifySignatures())

	// Same name, different key: structurally linked, cryptographically not.
	bad, err := x509chain.FromCertificates(testpki.Certs(leaf, impostor, root))
	require.NoError(t, err)
	assert.NoError(t, bad.Validate(x509view.SchemeSubject))
	assert.ErrorIs(t, bad.VerifySignatures(), x509chain.ErrSignatureMismatch)
}

func TestChain_Render(t *testing.T) {
	root := testpki.Root(t, "Render Root")
	sub := testpki.Intermediate(t, "Render Sub", root)
	leaf := testpki.Issue(t, sub, testpki.Options{
		CommonName: "render.example",
		Key:        testpki.RSAKey(t),
		KeyUsage:   x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	})

	ch, err := x509chain.FromCertificates(testpki.Certs(leaf, sub, root))
	require.NoError(t, err)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "ASCII Tree",
			testFunc: func(t *testing.T) {
				tree := ch.RenderASCIITree(x509view.SchemeSubject)
				lines := strings.Split(strings.TrimSpace(tree), "\n")
				require.Len(t, lines, 3)
				assert.True(t, strings.HasPrefix(lines[0], "├── [✓] render.example (End-Entity Certificate)"))
				assert.Contains(t, lines[1], "Intermediate CA Certificate")
				assert.True(t, strings.HasPrefix(lines[2], "└── [✓] Render Root (Root CA Certificate)"))
				assert.Contains(t, lines[2], "subject=CN=Render Root")
			},
		},
		{
			name: "Markdown Table",
			testFunc: func(t *testing.T) {
				table := ch.RenderTable()
				assert.Contains(t, table, "render.example")
				assert.Contains(t, table, "2048-bit RSA")
				assert.Contains(t, table, "256-bit ECDSA")
				assert.Contains(t, table, "Digital Signature, Key Encipherment")
				assert.Contains(t, table, "Cert Sign, Crl Sign")
				assert.NotContains(t, table, "invalid")
			},
		},
		{
			name: "JSON",
			testFunc: func(t *testing.T) {
				raw, err := ch.RenderJSON()
				require.NoError(t, err)

				var data x509chain.ChainData
				require.NoError(t, json.Unmarshal(raw, &data))
				assert.Equal(t, 3, data.ChainLength)
				require.Len(t, data.Certificates, 3)
				require.Len(t, data.Relationships, 2)
				assert.Equal(t, "RSA", data.Certificates[0].PublicKeyAlgorithm)
				assert.Equal(t, 2048, data.Certificates[0].KeySize)
				assert.Equal(t, "Root CA Certificate", data.Certificates[2].Role)
				assert.Empty(t, data.Certificates[2].AuthorityKeyID)
				assert.NotEmpty(t, data.Certificates[0].AuthorityKeyID)
				assert.True(t, data.Certificates[1].SignatureValid)
				assert.Equal(t, "signed_by", data.Relationships[0].Type)
			},
		},
		{
			name: "Self-Signed Only",
			testFunc: func(t *testing.T) {
				single, err := x509chain.FromCertificates(testpki.Certs(root))
				require.NoError(t, err)
				assert.Contains(t, single.RenderASCIITree(x509view.SchemeKeyIdentifier), "Self-Signed Certificate")

				raw, err := single.RenderJSON()
				require.NoError(t, err)
				assert.Contains(t, string(raw), `"relationships": []`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
