package test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/ocsp"
)

// CertChain is a throwaway issuer plus a leaf it signed, for use in tests
// that need a working cert/chain/OCSP trio without fixtures on disk.
type CertChain struct {
	Issuer    *x509.Certificate
	IssuerKey *ecdsa.PrivateKey
	Leaf      *x509.Certificate
	LeafKey   *ecdsa.PrivateKey
}

// ThrowAwayCertChain creates a self-signed CA and a leaf signed by it. The
// leaf is valid from an hour before clk.Now() until 90 days after, and
// carries ocspURL as its OCSP responder if non-empty. The certificates
// returned are the bare minimum needed for these tests, not robust examples
// of end entity certificates.
func ThrowAwayCertChain(t *testing.T, clk clock.Clock, ocspURL string) *CertChain {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	AssertNotError(t, err, "generating CA key")
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "throwaway CA"},
		NotBefore:             clk.Now().Add(-24 * time.Hour),
		NotAfter:              clk.Now().Add(365 * 24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, caKey.Public(), caKey)
	AssertNotError(t, err, "creating CA certificate")
	caCert, err := x509.ParseCertificate(caDER)
	AssertNotError(t, err, "parsing CA certificate")

	var serialBytes [16]byte
	_, _ = rand.Read(serialBytes[:])
	serial := big.NewInt(0).SetBytes(serialBytes[:])

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	AssertNotError(t, err, "generating leaf key")
	leafTemplate := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "leaf.example.com"},
		DNSNames:     []string{"leaf.example.com"},
		NotBefore:    clk.Now().Add(-1 * time.Hour),
		NotAfter:     clk.Now().Add(90 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	if ocspURL != "" {
		leafTemplate.OCSPServer = []string{ocspURL}
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, caCert, leafKey.Public(), caKey)
	AssertNotError(t, err, "creating leaf certificate")
	leafCert, err := x509.ParseCertificate(leafDER)
	AssertNotError(t, err, "parsing leaf certificate")

	return &CertChain{
		Issuer:    caCert,
		IssuerKey: caKey,
		Leaf:      leafCert,
		LeafKey:   leafKey,
	}
}

// ExpiredLeaf replaces the chain's leaf with one whose NotAfter is already in
// the past as of clk.Now().
func (c *CertChain) ExpiredLeaf(t *testing.T, clk clock.Clock) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	AssertNotError(t, err, "generating leaf key")
	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "expired.example.com"},
		DNSNames:     []string{"expired.example.com"},
		NotBefore:    clk.Now().Add(-48 * time.Hour),
		NotAfter:     clk.Now().Add(-1 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, c.Issuer, key.Public(), c.IssuerKey)
	AssertNotError(t, err, "creating expired leaf")
	c.Leaf, err = x509.ParseCertificate(der)
	AssertNotError(t, err, "parsing expired leaf")
	c.LeafKey = key
}

// WriteLineage lays the chain out on disk the way certbot does, as
// root/name/cert.pem and root/name/chain.pem, and returns the lineage
// directory.
func (c *CertChain) WriteLineage(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	err := os.MkdirAll(dir, 0755)
	AssertNotError(t, err, "creating lineage directory")
	writePEM(t, filepath.Join(dir, "cert.pem"), c.Leaf.Raw)
	writePEM(t, filepath.Join(dir, "chain.pem"), c.Issuer.Raw)
	return dir
}

func writePEM(t *testing.T, path string, der []byte) {
	t.Helper()
	block := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	err := os.WriteFile(path, pem.EncodeToMemory(block), 0644)
	AssertNotError(t, err, "writing PEM file")
}

// OCSPResponse signs an OCSP response for the chain's leaf with the issuer
// key. Status is one of the ocsp package status constants; the validity
// window runs from thisUpdate to nextUpdate.
func (c *CertChain) OCSPResponse(t *testing.T, status int, thisUpdate, nextUpdate time.Time) []byte {
	t.Helper()
	template := ocsp.Response{
		Status:       status,
		SerialNumber: c.Leaf.SerialNumber,
		ThisUpdate:   thisUpdate,
		NextUpdate:   nextUpdate,
	}
	if status == ocsp.Revoked {
		template.RevokedAt = thisUpdate
		template.RevocationReason = ocsp.Unspecified
	}
	der, err := ocsp.CreateResponse(c.Issuer, c.Issuer, template, c.IssuerKey)
	AssertNotError(t, err, "signing OCSP response")
	return der
}
