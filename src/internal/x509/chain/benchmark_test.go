// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"fmt"
	"testing"

	x509chain "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/testpki"
	x509view "github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/x509/view"
)

// benchmarkPool builds one root, one intermediate per branch and leaves
// leaves per intermediate, in issuance order.
func benchmarkPool(b *testing.B, branches, leaves int) []*x509view.View {
	b.Helper()

	root := testpki.Root(b, "Bench Root")
	issued := []*testpki.Issued{root}
	for i := range branches {
		sub := testpki.Intermediate(b, fmt.Sprintf("Bench Sub %d", i), root)
		issued = append(issued, sub)
		for l := range leaves {
			issued = append(issued, testpki.Leaf(b, fmt.Sprintf("leaf-%d-%d.example", i, l), sub))
		}
	}

	views, err := x509view.FromCertificates(testpki.Certs(issued...))
	if err != nil {
		b.Fatal(err)
	}
	return views
}

func BenchmarkBuild(b *testing.B) {
	for _, size := range []struct{ branches, leaves int }{{1, 1}, {4, 8}, {16, 16}} {
		pool := benchmarkPool(b, size.branches, size.leaves)

		for _, scheme := range schemes {
			b.Run(fmt.Sprintf("%s/%d", scheme, len(pool)), func(b *testing.B) {
				builder := x509chain.NewBuilder(scheme)

				b.ReportAllocs()

				for b.Loop() {
					if _, err := builder.Build(pool); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkBuildConcurrent(b *testing.B) {
	pool := benchmarkPool(b, 8, 8)
	builder := x509chain.NewBuilder(x509view.SchemeKeyIdentifier)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := builder.Build(pool); err != nil {
				b.Error(err)
			}
		}
	})
}

func BenchmarkVerifySignatures(b *testing.B) {
	pool := benchmarkPool(b, 1, 1)
	res, err := x509chain.BuildChains(pool, x509view.SchemeSubject)
	if err != nil || len(res.Chains) != 1 {
		b.Fatalf("build: %v", err)
	}
	ch := res.Chains[0]

	b.ReportAllocs()

	for b.Loop() {
		if err := ch.VerifySignatures(); err != nil {
			b.Fatal(err)
		}
	}
}
