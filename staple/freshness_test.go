package staple

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/ocsp"

	"github.com/letsencrypt/ocsp-fetcher/test"
)

func TestFreshNoFile(t *testing.T) {
	fc := clock.NewFake()
	chain := test.ThrowAwayCertChain(t, fc, "")
	e := NewEvaluator(fc)
	test.Assert(t, !e.Fresh(filepath.Join(t.TempDir(), "missing.der"), chain.Leaf, chain.Issuer), "missing staple must not be fresh")
}

func TestFreshGarbageFile(t *testing.T) {
	fc := clock.NewFake()
	chain := test.ThrowAwayCertChain(t, fc, "")
	path := filepath.Join(t.TempDir(), "example.com.der")
	err := os.WriteFile(path, []byte("junk"), 0644)
	test.AssertNotError(t, err, "writing garbage staple")

	e := NewEvaluator(fc)
	test.Assert(t, !e.Fresh(path, chain.Leaf, chain.Issuer), "unparseable staple must not be fresh")
}

func TestFreshWrongIssuer(t *testing.T) {
	fc := clock.NewFake()
	fc.Set(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	chain := test.ThrowAwayCertChain(t, fc, "")
	other := test.ThrowAwayCertChain(t, fc, "")

	der := chain.OCSPResponse(t, ocsp.Good, fc.Now(), fc.Now().Add(10*time.Hour))
	path := filepath.Join(t.TempDir(), "example.com.der")
	err := os.WriteFile(path, der, 0644)
	test.AssertNotError(t, err, "writing staple")

	e := NewEvaluator(fc)
	// The staple fails signature verification against the other chain, so it
	// reads as not fresh and gets refetched.
	test.Assert(t, !e.Fresh(path, other.Leaf, other.Issuer), "staple for wrong chain must not be fresh")
}

func TestFreshHalfLife(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fc := clock.NewFake()
	fc.Set(start)
	chain := test.ThrowAwayCertChain(t, fc, "")

	// thisUpdate=T, nextUpdate=T+10h: the midpoint is T+5h.
	der := chain.OCSPResponse(t, ocsp.Good, start, start.Add(10*time.Hour))
	path := filepath.Join(t.TempDir(), "example.com.der")
	err := os.WriteFile(path, der, 0644)
	test.AssertNotError(t, err, "writing staple")

	e := NewEvaluator(fc)

	fc.Set(start.Add(1 * time.Hour))
	test.Assert(t, e.Fresh(path, chain.Leaf, chain.Issuer), "staple within first half of window must be fresh")

	fc.Set(start.Add(4*time.Hour + 59*time.Minute))
	test.Assert(t, e.Fresh(path, chain.Leaf, chain.Issuer), "staple just before the midpoint must be fresh")

	fc.Set(start.Add(6 * time.Hour))
	test.Assert(t, !e.Fresh(path, chain.Leaf, chain.Issuer), "staple past the midpoint must not be fresh")
}

func TestFreshRevokedStaple(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fc := clock.NewFake()
	fc.Set(start)
	chain := test.ThrowAwayCertChain(t, fc, "")

	der := chain.OCSPResponse(t, ocsp.Revoked, start, start.Add(10*time.Hour))
	path := filepath.Join(t.TempDir(), "example.com.der")
	err := os.WriteFile(path, der, 0644)
	test.AssertNotError(t, err, "writing staple")

	e := NewEvaluator(fc)
	fc.Set(start.Add(1 * time.Hour))
	test.Assert(t, !e.Fresh(path, chain.Leaf, chain.Issuer), "revoked staple must not be fresh")
}
