// Package responder fetches and verifies OCSP responses for a certificate
// against its issuer.
package responder

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/ocsp"
)

// ErrLeafExpired is returned when the leaf certificate has already expired;
// no request is made in that case.
var ErrLeafExpired = errors.New("leaf certificate expired")

// ErrNoResponderURL is returned when neither an override nor the leaf's AIA
// extension supplies a responder endpoint.
var ErrNoResponderURL = errors.New("no OCSP responder URL for certificate")

// StatusError is returned when the responder answers with a verifiable
// response whose certificate status is not "good". Such a response is never
// installed.
type StatusError struct {
	Status int
}

// Token returns the normalized one-word form of the status for reports.
func (e StatusError) Token() string {
	switch e.Status {
	case ocsp.Revoked:
		return "revoked"
	case ocsp.Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("status %d", e.Status)
	}
}

func (e StatusError) Error() string {
	return fmt.Sprintf("certificate status is %s, not good", e.Token())
}

// Client requests OCSP responses over HTTP and verifies them in the same
// step. All calls are synchronous and bounded by the HTTP client timeout.
type Client struct {
	httpClient *http.Client
	clk        clock.Clock
}

func New(clk clock.Clock, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		clk:        clk,
	}
}

// Fetch requests a fresh response for leaf from its responder, verifies it
// against issuer, and returns the raw DER alongside the parsed response. The
// request carries no nonce, so responders may serve it from cache.
// urlOverride, when non-empty, takes precedence over the URL embedded in the
// leaf.
func (c *Client) Fetch(leaf, issuer *x509.Certificate, urlOverride string) ([]byte, *ocsp.Response, error) {
	if c.clk.Now().After(leaf.NotAfter) {
		return nil, nil, fmt.Errorf("%w %s ago (not after %s)",
			ErrLeafExpired, c.clk.Now().Sub(leaf.NotAfter).Round(time.Second), leaf.NotAfter)
	}

	ocspServer := urlOverride
	if ocspServer == "" {
		if len(leaf.OCSPServer) == 0 {
			return nil, nil, ErrNoResponderURL
		}
		ocspServer = leaf.OCSPServer[0]
	}

	req, err := ocsp.CreateRequest(leaf, issuer, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OCSP request: %w", err)
	}

	httpResp, err := c.httpClient.Post(ocspServer, "application/ocsp-request", bytes.NewReader(req))
	if err != nil {
		return nil, nil, fmt.Errorf("fetching OCSP response: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetching OCSP response: http status code %d", httpResp.StatusCode)
	}
	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading OCSP response: %w", err)
	}
	if len(respBytes) == 0 {
		return nil, nil, errors.New("empty OCSP response body")
	}

	resp, err := ocsp.ParseResponseForCert(respBytes, leaf, issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing OCSP response: %w", err)
	}
	if resp.Status != ocsp.Good {
		return nil, nil, StatusError{Status: resp.Status}
	}
	return respBytes, resp, nil
}
