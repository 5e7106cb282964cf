// Package staple decides whether cached OCSP responses are still usable and
// publishes verified ones atomically.
package staple

import (
	"crypto/x509"
	"os"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/ocsp"
)

// Evaluator decides whether an existing staple file is valid and fresh
// enough to skip a responder round trip.
type Evaluator struct {
	clk clock.Clock
}

func NewEvaluator(clk clock.Clock) Evaluator {
	return Evaluator{clk: clk}
}

// Fresh reports whether the staple at path verifies against leaf and issuer,
// has a "good" status, and has more than half of its validity window left.
// Refreshing at the half-life rather than near nextUpdate builds in slack
// against missed cron runs and slow responders, at the cost of roughly
// double the request rate. Any read, parse, or verification failure counts
// as not fresh: we fail open toward refreshing.
func (e Evaluator) Fresh(path string, leaf, issuer *x509.Certificate) bool {
	der, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	resp, err := ocsp.ParseResponseForCert(der, leaf, issuer)
	if err != nil {
		return false
	}
	if resp.Status != ocsp.Good {
		return false
	}
	if resp.ThisUpdate.IsZero() || resp.NextUpdate.IsZero() {
		return false
	}
	lifetime := resp.NextUpdate.Sub(resp.ThisUpdate)
	return e.clk.Now().Before(resp.ThisUpdate.Add(lifetime / 2))
}
