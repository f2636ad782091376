package passlib_test

import (
	"context"
	"testing"

	"github.com/hasbyte1/go-passlib/passlib"
)

// ──────────────────────────────────────────────────────────────────────────────
// Version 1 benchmarks
// ──────────────────────────────────────────────────────────────────────────────
//
// The default work factor is the uncalibrated floor; a calibrated host will
// usually be several times slower per operation.

func BenchmarkPBKDF2_Floor_Create(b *testing.B) {
	a, _ := passlib.NewPBKDF2Algorithm(passlib.PBKDF2Options{Iterations: passlib.DefaultPBKDF2Iterations})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Create("bench-password")
	}
}

func BenchmarkPBKDF2_Floor_Verify(b *testing.B) {
	a, _ := passlib.NewPBKDF2Algorithm(passlib.PBKDF2Options{Iterations: passlib.DefaultPBKDF2Iterations})
	tok, _ := a.Create("bench-password")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Verify(tok, "bench-password")
	}
}

// BenchmarkPBKDF2_Verify_Corrupt measures rejection of a token whose
// structural check fails. No key is derived.
func BenchmarkPBKDF2_Verify_Corrupt(b *testing.B) {
	a, _ := passlib.NewPBKDF2Algorithm(passlib.PBKDF2Options{Iterations: passlib.DefaultPBKDF2Iterations})
	tok, _ := a.Create("bench-password")
	tok[40] ^= 0xff
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Verify(tok, "bench-password")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Version 2 benchmarks
// ──────────────────────────────────────────────────────────────────────────────

func BenchmarkArgon2_Default_Create(b *testing.B) {
	a, _ := passlib.NewArgon2Algorithm(passlib.DefaultArgon2Options())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Create("bench-password")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Registry overhead
// ──────────────────────────────────────────────────────────────────────────────

func BenchmarkRegistry_Verify_Parallel(b *testing.B) {
	reg := newTestRegistry(b)
	ctx := context.Background()
	tok, err := reg.Create(ctx, "bench-password")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = reg.Verify(ctx, tok, "bench-password")
		}
	})
}

func BenchmarkNeedsUpgradeString(b *testing.B) {
	reg := newTestRegistry(b)
	tok, _ := reg.Create(context.Background(), "bench-password")
	s := tok.String()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = passlib.NeedsUpgradeString(s)
	}
}
