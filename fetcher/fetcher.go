// Package fetcher drives the staple lifecycle for a set of certbot lineages:
// decide whether the cached response is still usable, fetch and verify a
// fresh one when not, install it atomically, and reload the webserver once
// if anything changed.
package fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/letsencrypt/ocsp-fetcher/lineage"
	blog "github.com/letsencrypt/ocsp-fetcher/log"
	"github.com/letsencrypt/ocsp-fetcher/responder"
	"github.com/letsencrypt/ocsp-fetcher/staple"
)

// DefaultRootDir is where certbot keeps live lineages.
const DefaultRootDir = "/etc/letsencrypt/live"

const defaultHTTPTimeout = 10 * time.Second

// Config assembles one run's inputs. RenewedLineage switches the run into
// hook mode, which is mutually exclusive with the standalone-only fields;
// New rejects invalid combinations up front so per-field checks don't leak
// into the processing loop.
type Config struct {
	// RootDir is the lineage root for standalone runs. Empty means
	// DefaultRootDir.
	RootDir string
	// OutputDir receives the published staple files. Empty means the current
	// directory.
	OutputDir string
	// Specs restricts a standalone run to explicitly named lineages,
	// optionally with per-lineage responder URL overrides.
	Specs []lineage.Spec
	// ResponderOverrides maps lineage names to responder URLs to use instead
	// of the URL embedded in their certificates. Entries from Specs take
	// precedence for the lineages they name.
	ResponderOverrides map[string]string
	// RenewedLineage is the lineage directory certbot passed to a deploy
	// hook. Non-empty selects hook mode.
	RenewedLineage string
	// ForceUpdate skips the freshness check in standalone mode.
	ForceUpdate bool
	// DisableReload turns off the webserver reload trigger.
	DisableReload bool
	// ReloadCommand is the command run to reload the webserver when at least
	// one staple was updated.
	ReloadCommand []string
	// HTTPTimeout bounds each OCSP request. Zero means a 10 second default.
	HTTPTimeout time.Duration
	// Verbose expands failure reasons in the report from normalized tokens
	// to full diagnostic text.
	Verbose bool
}

// Fetcher processes lineages sequentially, one run at a time.
type Fetcher struct {
	rootDir       string
	outputDir     string
	specs         []lineage.Spec
	overrides     map[string]string
	renewed       string
	force         bool
	disableReload bool
	reloadCommand []string
	verbose       bool

	log       blog.Logger
	clk       clock.Clock
	client    *responder.Client
	evaluator staple.Evaluator
	metrics   *fetcherMetrics
}

// New validates cfg and builds a Fetcher. Hook mode combined with any
// standalone-only option is a configuration error: the caller already
// pinned a single just-renewed lineage, so explicit names, a custom root,
// and forced updates are meaningless.
func New(cfg Config, logger blog.Logger, clk clock.Clock, stats prometheus.Registerer) (*Fetcher, error) {
	if cfg.RenewedLineage != "" {
		if len(cfg.Specs) > 0 {
			return nil, errors.New("-cert-name has no effect on a deploy-hook run")
		}
		if cfg.RootDir != "" {
			return nil, errors.New("-certbot-dir has no effect on a deploy-hook run")
		}
		if cfg.ForceUpdate {
			return nil, errors.New("-force-update has no effect on a deploy-hook run")
		}
	}

	for name, override := range cfg.ResponderOverrides {
		parsed, err := url.Parse(override)
		if err != nil || !parsed.IsAbs() {
			return nil, fmt.Errorf("responder override for %q is not an absolute URL: %q", name, override)
		}
	}

	rootDir := cfg.RootDir
	if rootDir == "" {
		rootDir = DefaultRootDir
	}
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	// A negative timeout would disable the HTTP client timeout outright,
	// making every OCSP request unbounded.
	if cfg.HTTPTimeout < 0 {
		return nil, fmt.Errorf("HTTP timeout must not be negative (got %s)", cfg.HTTPTimeout)
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	return &Fetcher{
		rootDir:       rootDir,
		outputDir:     outputDir,
		specs:         cfg.Specs,
		overrides:     cfg.ResponderOverrides,
		renewed:       cfg.RenewedLineage,
		force:         cfg.ForceUpdate,
		disableReload: cfg.DisableReload,
		reloadCommand: cfg.ReloadCommand,
		verbose:       cfg.Verbose,
		log:           logger,
		clk:           clk,
		client:        responder.New(clk, timeout),
		evaluator:     staple.NewEvaluator(clk),
		metrics:       newMetrics(stats),
	}, nil
}

// Run processes every lineage once and returns the aggregated report. A
// non-nil error is fatal: nothing was processed and there is no report.
// Per-lineage failures land in the report instead and never stop the
// remaining lineages.
func (f *Fetcher) Run() (*Report, error) {
	var lineages []lineage.Lineage
	var err error
	if f.renewed != "" {
		var l lineage.Lineage
		l, err = lineage.Hook(f.renewed)
		lineages = []lineage.Lineage{l}
	} else {
		lineages, err = lineage.Standalone(f.rootDir, f.specs)
	}
	if err != nil {
		return nil, err
	}

	scratch, err := staple.NewScratch(f.outputDir)
	if err != nil {
		return nil, err
	}
	defer scratch.Cleanup()

	report := newReport()
	for _, l := range lineages {
		res := f.process(l, scratch)
		report.add(l.Name, res)
		f.metrics.results.WithLabelValues(string(res.Status)).Inc()
		f.log.Debugf("lineage %s: %s %s", l.Name, res.Status, res.Reason)
	}
	f.log.Infof("processed %d lineages: %d updated, %d not updated, %d failed",
		len(lineages), report.count(StatusUpdated), report.count(StatusNotUpdated), report.count(StatusFailed))

	if report.UpdatedCount() > 0 && !f.disableReload {
		err = f.reload()
		if err != nil {
			report.reloadFailed = true
			f.metrics.reloadFailures.Inc()
			f.log.Errf("webserver reload failed: %s", err)
		} else {
			f.metrics.reloads.Inc()
			f.log.Info("webserver reloaded")
		}
	}

	return report, nil
}

// process takes one lineage through the full state machine and returns its
// terminal result.
func (f *Fetcher) process(l lineage.Lineage, scratch *staple.Scratch) Result {
	leaf, issuer, err := l.Certificates()
	if err != nil {
		return Result{Status: StatusFailed, Reason: f.reason(err, "failed to load certificates")}
	}

	// A deploy hook fires right after a renewal, so the cached staple is for
	// the previous certificate and freshness is beside the point.
	if f.renewed == "" && !f.force {
		stapleFile := filepath.Join(f.outputDir, l.StapleFilename())
		if f.evaluator.Fresh(stapleFile, leaf, issuer) {
			return Result{Status: StatusNotUpdated, Reason: "valid staple file on disk"}
		}
	}

	override := l.ResponderURL
	if override == "" {
		override = f.overrides[l.Name]
	}
	der, resp, err := f.client.Fetch(leaf, issuer, override)
	if err != nil {
		return Result{Status: StatusFailed, Reason: f.fetchFailureReason(err)}
	}

	staged, err := scratch.Stage(l.StapleFilename(), der)
	if err != nil {
		return Result{Status: StatusFailed, Reason: f.reason(err, "failed to stage staple")}
	}
	err = scratch.Install(staged, l.StapleFilename())
	if err != nil {
		return Result{Status: StatusFailed, Reason: f.reason(err, "failed to install staple")}
	}

	res := Result{Status: StatusUpdated}
	if f.verbose {
		res.Reason = fmt.Sprintf("response valid until %s", resp.NextUpdate.Format(time.RFC3339))
	}
	return res
}

// fetchFailureReason maps a responder client error to report text: a single
// normalized token at normal verbosity, the full diagnostic chain when
// verbose.
func (f *Fetcher) fetchFailureReason(err error) string {
	if f.verbose {
		return err.Error()
	}
	if errors.Is(err, responder.ErrLeafExpired) {
		return "leaf certificate expired"
	}
	var statusErr responder.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Token()
	}
	return "failed to fetch and verify OCSP response"
}

func (f *Fetcher) reason(err error, terse string) string {
	if f.verbose {
		return err.Error()
	}
	return terse
}
