package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/storage"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
	"github.com/yndnr/tokvault-go/internal/storage/memory"
	"github.com/yndnr/tokvault-go/pkg/token"
)

// VaultSizes are the entry counts benchmarks are run against.
var VaultSizes = []int{1000, 10000, 100000}

// SmallVaultSizes for quick benchmarks.
var SmallVaultSizes = []int{1000, 10000}

func word(i int) string {
	return fmt.Sprintf("word-%07d", i)
}

// prefilledVault builds a vault of count entries without touching storage.
func prefilledVault(b *testing.B, count int) *domain.Vault {
	b.Helper()
	v := domain.NewVault()
	for i := 0; i < count; i++ {
		tok, err := token.Mint()
		if err != nil {
			b.Fatalf("Mint failed: %v", err)
		}
		v.WordToToken[word(i)] = tok
		v.TokenToWord[tok] = word(i)
	}
	return v
}

// newTokenizer loads v into a tokenizer over an in-memory blob backend.
func newTokenizer(b *testing.B, v *domain.Vault) *service.Tokenizer {
	b.Helper()
	ctx := context.Background()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := storage.NewBlobBackend("memory", memory.New(), codec.New(), storage.WithLogger(log))
	if err := backend.Upsert(ctx, v, domain.Entry{}); err != nil {
		b.Fatalf("seed backend: %v", err)
	}
	vs, err := service.LoadVaultStore(ctx, backend, nil)
	if err != nil {
		b.Fatalf("LoadVaultStore failed: %v", err)
	}
	return service.NewTokenizer(service.NewGuard(vs), service.PolicyDrop)
}

// sentence joins n known words starting at offset.
func sentence(offset, n, count int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = word((offset + i) % count)
	}
	return strings.Join(words, " ")
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithVaultSizes runs a benchmark function with various vault sizes.
func runWithVaultSizes(b *testing.B, sizes []int, benchFn func(b *testing.B, count int)) {
	for _, count := range sizes {
		b.Run(fmt.Sprintf("entries_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
