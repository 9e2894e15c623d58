package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dyverify/arachne/internal/arachne"
	"github.com/dyverify/arachne/internal/report"
	"github.com/dyverify/arachne/internal/spdlast"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/verifier"
	"github.com/dyverify/arachne/internal/vlog"
)

// newServeCommand exposes the verifier as a long-running process: an
// optional prometheus /metrics endpoint and a poll loop that re-verifies
// a protocol file on a fixed interval, retrying a transient read/parse
// failure with backoff before giving up for that cycle (spec §11 DOMAIN
// STACK: cenkalti/backoff/v4 wired into the headless polling front-end;
// prometheus/client_golang wired into the metrics endpoint).
func newServeCommand() *cobra.Command {
	var cfg configFlags
	var addr string
	var pollInterval time.Duration
	var maxRetries uint64

	cmd := &cobra.Command{
		Use:   "serve <file.spdl>",
		Short: "Run the verifier as a long-lived process, polling a protocol file and exposing metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := cfg.resolve()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), args[0], sw, addr, pollInterval, maxRetries)
		},
	}

	cfg.register(cmd)
	cmd.Flags().StringVar(&addr, "listen", ":9399", "address the /metrics endpoint listens on")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 30*time.Second, "how often to re-verify the protocol file")
	cmd.Flags().Uint64Var(&maxRetries, "max-retries", 5, "retries for a single poll cycle before it is counted as failed")
	return cmd
}

func runServe(ctx context.Context, path string, sw switches.Switches, addr string, pollInterval time.Duration, maxRetries uint64) error {
	metrics := verifier.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return err
	}
	pollCycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arachne_serve_poll_cycles_total",
		Help: "Number of poll cycles attempted by the serve loop.",
	})
	pollFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arachne_serve_poll_failures_total",
		Help: "Number of poll cycles that exhausted their retry budget.",
	})
	if err := reg.Register(pollCycles); err != nil {
		return err
	}
	if err := reg.Register(pollFailures); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := vlog.NewStderr(vlog.LevelInfo)

	go func() {
		log.Infof("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnf("metrics server stopped: %v", err)
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	runCycle := func() error {
		pollCycles.Inc()
		b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
		return backoff.Retry(func() error {
			return pollOnce(path, sw, log, metrics)
		}, b)
	}

	if err := runCycle(); err != nil {
		pollFailures.Inc()
		log.Warnf("initial verification cycle failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.C:
			if err := runCycle(); err != nil {
				pollFailures.Inc()
				log.Warnf("verification cycle failed: %v", err)
			}
		}
	}
}

// pollOnce runs one verification cycle: parse the file fresh (it may have
// changed since the last cycle) and run every claim sequentially, feeding
// states-visited/attacks-found into the shared metrics set.
func pollOnce(path string, sw switches.Switches, log *vlog.Logger, metrics *verifier.Metrics) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	builder, err := spdlast.Parse(string(src))
	if err != nil {
		return err
	}

	collector := report.NewCollector()
	for _, c := range builder.Claims.All() {
		ctx := verifier.New(sw, log, builder.Symbols, builder.Protocols, builder.Initial.Clone(), builder.Claims)
		ctx.Metrics = metrics
		result := arachne.New(ctx, c, collector).Run()
		log.Infof("claim %s: %s", c.Label, result.Verdict)
	}
	return nil
}
