package main

import (
	"errors"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dyverify/arachne/internal/arachne"
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/report"
	"github.com/dyverify/arachne/internal/spdlast"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/verifier"
	"github.com/dyverify/arachne/internal/vlog"
)

// errFalsified signals that at least one claim was falsified — a
// non-zero exit, but not a tool failure (spec §6 "Exit semantics").
var errFalsified = errors.New("one or more claims falsified")

func newVerifyCommand() *cobra.Command {
	var cfg configFlags
	var jsonOut bool
	var verbose bool
	var parallel int

	cmd := &cobra.Command{
		Use:   "verify <file.spdl>",
		Short: "Verify every claim declared in a protocol description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := cfg.resolve()
			if err != nil {
				return err
			}
			return runVerify(args[0], sw, jsonOut, verbose, parallel)
		},
	}

	cfg.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "render the report as JSON instead of text")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level logging to stderr")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "maximum number of claims verified concurrently")
	return cmd
}

func runVerify(path string, sw switches.Switches, jsonOut, verbose bool, parallel int) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	builder, err := spdlast.Parse(string(src))
	if err != nil {
		return err
	}

	level := vlog.LevelWarn
	if verbose {
		level = vlog.LevelDebug
	}
	log := vlog.NewStderr(level)

	claims := builder.Claims.All()
	if sw.FilterProtocol != "" || sw.FilterLabel != "" {
		claims = filterClaims(claims, sw.FilterProtocol, sw.FilterLabel)
	}

	collector := report.NewCollector()
	var mu sync.Mutex

	g := new(errgroup.Group)
	if parallel < 1 {
		parallel = 1
	}
	g.SetLimit(parallel)

	results := make([]claim.Result, len(claims))
	for i, c := range claims {
		i, c := i, c
		g.Go(func() error {
			// Each claim runs against its own freshly seeded Context — the
			// core is single-threaded per claim (spec §5); concurrency
			// lives entirely at this outer-loop layer.
			ctx := verifier.New(sw, log, builder.Symbols, builder.Protocols, builder.Initial.Clone(), builder.Claims)
			local := &lockedReporter{c: collector, mu: &mu}
			results[i] = arachne.New(ctx, c, local).Run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var backend interface {
		WriteAll(*report.Collector) error
	}
	if jsonOut {
		backend = report.NewJSONBackend(os.Stdout)
	} else {
		backend = report.NewTextBackend(os.Stdout)
	}
	if err := backend.WriteAll(collector); err != nil {
		return err
	}

	for _, r := range results {
		if r.Verdict == claim.Falsified {
			return errFalsified
		}
	}
	return nil
}

func filterClaims(all []*claim.Claim, protocol, label string) []*claim.Claim {
	var out []*claim.Claim
	for _, c := range all {
		if protocol != "" && c.Protocol.Name != protocol {
			continue
		}
		if label != "" && c.Label != label {
			continue
		}
		out = append(out, c)
	}
	return out
}

// lockedReporter serializes concurrent claims' callbacks into one shared
// Collector, since report.Collector itself assumes a single writer.
type lockedReporter struct {
	c  *report.Collector
	mu *sync.Mutex
}

func (r *lockedReporter) OnAttack(c *claim.Claim, tr *claim.Trace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.OnAttack(c, tr)
}

func (r *lockedReporter) OnProof(c *claim.Claim, depth, stepCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.OnProof(c, depth, stepCount)
}

func (r *lockedReporter) OnTimeout(c *claim.Claim) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.OnTimeout(c)
}
