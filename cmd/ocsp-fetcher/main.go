// ocsp-fetcher keeps a directory of stapled OCSP responses current for a set
// of certbot lineages. Run it from cron (or with a watch interval) to check
// every lineage, or as a certbot deploy hook to refresh just the renewed one.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/letsencrypt/ocsp-fetcher/cmd"
	"github.com/letsencrypt/ocsp-fetcher/config"
	"github.com/letsencrypt/ocsp-fetcher/fetcher"
	"github.com/letsencrypt/ocsp-fetcher/lineage"
	blog "github.com/letsencrypt/ocsp-fetcher/log"
)

// Config is the optional JSON config file. It carries the settings that are
// awkward as flags; paths and mode switches stay on the command line.
type Config struct {
	// ResponderOverrides maps lineage names to OCSP responder URLs to use
	// instead of the URL in their certificates.
	ResponderOverrides map[string]string `validate:"dive,url"`
	// ReloadCommand replaces the default webserver reload command.
	ReloadCommand []string `validate:"omitempty,min=1,dive,required"`
	// HTTPTimeout bounds each OCSP request.
	HTTPTimeout config.Duration `validate:"-"`
	// WatchInterval, when set, keeps the process running and re-checks all
	// lineages on this interval instead of exiting after one pass.
	WatchInterval config.Duration `validate:"-"`
	// DebugAddr serves /metrics while watching.
	DebugAddr string `validate:"omitempty,hostname_port"`
}

// check covers what the struct tags cannot: durations must not be negative.
// A negative HTTP timeout would disable the request timeout entirely.
func (c Config) check() error {
	if c.HTTPTimeout.Duration < 0 {
		return fmt.Errorf("httpTimeout must not be negative (got %q)", c.HTTPTimeout)
	}
	if c.WatchInterval.Duration < 0 {
		return fmt.Errorf("watchInterval must not be negative (got %q)", c.WatchInterval)
	}
	return nil
}

var defaultReloadCommand = []string{"systemctl", "reload", "nginx"}

func main() {
	certbotDir := flag.String("certbot-dir", "", "Root directory of certbot lineages (default "+fetcher.DefaultRootDir+")")
	certNames := flag.String("cert-name", "", "Comma-separated name[:responder-url] lineages to check instead of all of them (standalone only)")
	outputDir := flag.String("output-dir", "", "Directory the staple files are published to (default current directory)")
	forceUpdate := flag.Bool("force-update", false, "Fetch new staples even for lineages whose cached staple is still fresh (standalone only)")
	noReload := flag.Bool("no-reload", false, "Never reload the webserver, even when staples were updated")
	quiet := flag.Bool("quiet", false, "Suppress the result table and informational logging")
	verbose := flag.Bool("verbose", false, "Log debug output and expand failure reasons to full diagnostics")
	configFile := flag.String("config", "", "Path to a JSON config file with responder overrides, reload command, and watch settings")
	flag.Parse()

	if *quiet && *verbose {
		cmd.Fail("-quiet and -verbose are mutually exclusive")
	}
	stdoutLevel := 6
	if *quiet {
		stdoutLevel = 4
	} else if *verbose {
		stdoutLevel = 7
	}
	logger := cmd.NewLogger(cmd.SyslogConfig{StdoutLevel: stdoutLevel, SyslogLevel: 6})

	var c Config
	if *configFile != "" {
		err := cmd.ReadConfigFile(*configFile, &c)
		cmd.FailOnError(err, "Reading config file")
		cmd.FailOnError(c.check(), "Invalid config file")
	}

	var specs []lineage.Spec
	if *certNames != "" {
		for _, arg := range strings.Split(*certNames, ",") {
			specs = append(specs, lineage.ParseSpec(strings.TrimSpace(arg)))
		}
	}

	reloadCommand := c.ReloadCommand
	if len(reloadCommand) == 0 {
		reloadCommand = defaultReloadCommand
	}

	stats := prometheus.NewRegistry()
	f, err := fetcher.New(fetcher.Config{
		RootDir:            *certbotDir,
		OutputDir:          *outputDir,
		Specs:              specs,
		ResponderOverrides: c.ResponderOverrides,
		RenewedLineage:     os.Getenv("RENEWED_LINEAGE"),
		ForceUpdate:        *forceUpdate,
		DisableReload:      *noReload,
		ReloadCommand:      reloadCommand,
		HTTPTimeout:        c.HTTPTimeout.Duration,
		Verbose:            *verbose,
	}, logger, clock.New(), stats)
	cmd.FailOnError(err, "Invalid configuration")

	if c.WatchInterval.Duration > 0 {
		if os.Getenv("RENEWED_LINEAGE") != "" {
			cmd.Fail("a watch interval cannot be combined with a deploy-hook invocation")
		}
		if c.DebugAddr != "" {
			go debugServer(c.DebugAddr, stats, logger)
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err = f.Watch(ctx, c.WatchInterval.Duration)
		cmd.FailOnError(err, "Watching lineages")
		return
	}

	report, err := f.Run()
	cmd.FailOnError(err, "Fetching staples")

	if !*quiet {
		fmt.Print(report.RenderTable())
	}
	if report.Failed() {
		os.Exit(1)
	}
}

func debugServer(addr string, stats *prometheus.Registry, logger blog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(stats, promhttp.HandlerOpts{}))
	logger.Infof("debug server listening on %s", addr)
	err := http.ListenAndServe(addr, mux)
	logger.Errf("debug server exited: %s", err)
}
