package lineage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmhodges/clock"

	"github.com/letsencrypt/ocsp-fetcher/test"
)

func TestNewRejectsControlCharacters(t *testing.T) {
	for _, name := range []string{"bad\tname", "bad\nname", "bad\x00name", "", "   ", "a/b"} {
		_, err := New(name, "/tmp/x", "")
		test.AssertErrorIs(t, err, ErrUnsupportedName)
	}

	_, err := New("example.com", "/tmp/x", "")
	test.AssertNotError(t, err, "plain name should be accepted")
	_, err = New("example.com-0001", "/tmp/x", "")
	test.AssertNotError(t, err, "certbot duplicate-suffix name should be accepted")
}

func TestStapleFilename(t *testing.T) {
	l, err := New("example.com", "/etc/letsencrypt/live/example.com", "")
	test.AssertNotError(t, err, "unexpected name rejection")
	test.AssertEquals(t, l.StapleFilename(), "example.com.der")
}

func TestCertificates(t *testing.T) {
	root := t.TempDir()
	chain := test.ThrowAwayCertChain(t, clock.New(), "http://ocsp.example.test")
	dir := chain.WriteLineage(t, root, "example.com")

	l, err := New("example.com", dir, "")
	test.AssertNotError(t, err, "unexpected name rejection")
	leaf, issuer, err := l.Certificates()
	test.AssertNotError(t, err, "loading certificates")
	test.AssertEquals(t, leaf.SerialNumber.String(), chain.Leaf.SerialNumber.String())
	test.AssertEquals(t, issuer.Subject.CommonName, "throwaway CA")
}

func TestCertificatesMissingChain(t *testing.T) {
	root := t.TempDir()
	chain := test.ThrowAwayCertChain(t, clock.New(), "")
	dir := chain.WriteLineage(t, root, "example.com")
	err := os.Remove(filepath.Join(dir, "chain.pem"))
	test.AssertNotError(t, err, "removing chain.pem")

	l, err := New("example.com", dir, "")
	test.AssertNotError(t, err, "unexpected name rejection")
	_, _, err = l.Certificates()
	test.AssertError(t, err, "expected error for missing chain")
	test.AssertContains(t, err.Error(), "issuer chain")
}

func TestCertificatesGarbagePEM(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "example.com")
	err := os.MkdirAll(dir, 0755)
	test.AssertNotError(t, err, "creating lineage dir")
	err = os.WriteFile(filepath.Join(dir, "cert.pem"), []byte("not a pem"), 0644)
	test.AssertNotError(t, err, "writing garbage cert")

	l, err := New("example.com", dir, "")
	test.AssertNotError(t, err, "unexpected name rejection")
	_, _, err = l.Certificates()
	test.AssertError(t, err, "expected error for garbage PEM")
}
