// Package lineage models certbot certificate lineages and enumerates the
// ones a run should process.
package lineage

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrUnsupportedName is returned for lineage names we refuse to process.
// Certbot's naming contract is loose enough that a name containing control
// characters is treated as fatal for the whole run rather than skipped.
var ErrUnsupportedName = fmt.Errorf("unsupported characters in lineage name")

// A Lineage is one certificate identity across its renewal history: a leaf
// and issuer chain at a stable directory, plus an optional per-lineage OCSP
// responder override. Lineages are discovered at the start of a run and are
// immutable for its duration; certbot owns their lifecycle.
type Lineage struct {
	Name         string
	Dir          string
	ResponderURL string
}

// New builds a Lineage rooted at dir after validating the name.
func New(name, dir, responderURL string) (Lineage, error) {
	err := checkName(name)
	if err != nil {
		return Lineage{}, err
	}
	return Lineage{Name: name, Dir: dir, ResponderURL: responderURL}, nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) || r == os.PathSeparator {
			return fmt.Errorf("%w: %q", ErrUnsupportedName, name)
		}
	}
	return nil
}

// CertPath is the location of the lineage's leaf certificate.
func (l Lineage) CertPath() string {
	return filepath.Join(l.Dir, "cert.pem")
}

// ChainPath is the location of the lineage's issuer chain.
func (l Lineage) ChainPath() string {
	return filepath.Join(l.Dir, "chain.pem")
}

// StapleFilename is the stable name the published staple uses in the output
// directory.
func (l Lineage) StapleFilename() string {
	return l.Name + ".der"
}

// Certificates loads and parses the lineage's leaf and issuer. The issuer is
// the first certificate of the chain file; any further chain entries are not
// needed to verify an OCSP response.
func (l Lineage) Certificates() (leaf, issuer *x509.Certificate, err error) {
	leaf, err = parsePEMCert(l.CertPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading leaf certificate: %w", err)
	}
	issuer, err = parsePEMCert(l.ChainPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading issuer chain: %w", err)
	}
	return leaf, issuer, nil
}

func parsePEMCert(path string) (*x509.Certificate, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(contents)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate PEM block in %s", path)
	}
	return x509.ParseCertificate(block.Bytes)
}
