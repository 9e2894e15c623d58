package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dyverify/arachne/internal/switches"
)

// configFlags mirrors switches.Switches as plain cobra/pflag bindings —
// the same flag-then-struct shape as the teacher's CLIHarness persistent
// flags layered over a typed Ctx (spec §10 AMBIENT STACK, Configuration).
type configFlags struct {
	matchMode int
	maxRuns   int
	maxProofDepth int
	maxTraceLength int
	maxAttacks int
	maxIntruderActions int
	timeLimitSeconds int
	prune     int
	heuristic int
	partnerDef int
	lkrMode   int
	skr       bool
	skrInfer  bool
	ssr       bool
	ssrInfer  int
	ssrFilter bool
	rnr       bool
	filterProtocol string
	filterLabel    string
	configFile     string
}

func (f *configFlags) register(cmd *cobra.Command) {
	def := switches.Default()
	flags := cmd.Flags()
	flags.IntVar(&f.matchMode, "match", int(def.Match), "unification type-flaw mode: 0=strict, 1=basic, 2=any")
	flags.IntVar(&f.maxRuns, "max-runs", def.MaxRuns, "maximum number of runs the search may instantiate")
	flags.IntVar(&f.maxProofDepth, "max-proof-depth", def.MaxProofDepth, "maximum recursion depth of the search")
	flags.IntVar(&f.maxTraceLength, "max-trace-length", def.MaxTraceLength, "maximum total step count across all runs")
	flags.IntVar(&f.maxAttacks, "max-attacks", def.MaxAttacks, "stop a claim's search after this many attacks (0 = unbounded)")
	flags.IntVar(&f.maxIntruderActions, "max-intruder-actions", def.MaxIntruderActions, "maximum intruder-construction refinements per branch")
	flags.IntVar(&f.timeLimitSeconds, "time-limit", def.TimeLimitSeconds, "wall-clock seconds before a claim times out (0 = no limit)")
	flags.IntVar(&f.prune, "prune", int(def.Prune), "pruning level (resource bounds always apply): 0 or 1=bounds only, 2=bounds+theorems, 3=all")
	flags.IntVar(&f.heuristic, "heuristic", int(def.Heuristic), "heuristic bitmask overriding the default goal-selection score")
	flags.IntVar(&f.partnerDef, "partner-def", int(def.PartnerDef), "partner definition: 0=overlap,1=matching-histories,2=sid,3=mlist,4=crypto,5=ck2001")
	flags.IntVar(&f.lkrMode, "lkr-mode", int(def.LKRMode), "long-term-key reveal timing variant")
	flags.BoolVar(&f.skr, "skr", def.SKR, "enable session-key reveal")
	flags.BoolVar(&f.skrInfer, "skr-infer", def.SKRInfer, "infer SKR claims from role events")
	flags.BoolVar(&f.ssr, "ssr", def.SSR, "enable state-specific-randomness reveal")
	flags.IntVar(&f.ssrInfer, "ssr-infer", def.SSRInfer, "0=off, 1=only if no manual event, 2=always")
	flags.BoolVar(&f.ssrFilter, "ssr-filter", def.SSRFilter, "apply the SSR whole-encryption filter")
	flags.BoolVar(&f.rnr, "rnr", def.RNR, "enable random-number reveal")
	flags.StringVar(&f.filterProtocol, "filter-protocol", def.FilterProtocol, "only verify claims of this protocol")
	flags.StringVar(&f.filterLabel, "filter-label", def.FilterLabel, "only verify the claim with this label")
	flags.StringVar(&f.configFile, "config", "", "YAML config file overlaying these flags (ARACHNE_CONFIG)")
}

// resolve builds the effective Switches: flag defaults, overlaid by
// environment variables, overlaid last by a YAML config file — the
// teacher's flag-then-struct pattern extended with the env layer
// SPEC_FULL.md §10 calls for.
func (f *configFlags) resolve() (switches.Switches, error) {
	sw := switches.Default()
	sw.Match = intToMode(f.matchMode)
	sw.MaxRuns = f.maxRuns
	sw.MaxProofDepth = f.maxProofDepth
	sw.MaxTraceLength = f.maxTraceLength
	sw.MaxAttacks = f.maxAttacks
	sw.MaxIntruderActions = f.maxIntruderActions
	sw.TimeLimitSeconds = f.timeLimitSeconds
	sw.Prune = intToPrune(f.prune)
	sw.Heuristic = intToMask(f.heuristic)
	sw.PartnerDef = intToPartnerDef(f.partnerDef)
	sw.LKRMode = intToLKRMode(f.lkrMode)
	sw.SKR = f.skr
	sw.SKRInfer = f.skrInfer
	sw.SSR = f.ssr
	sw.SSRInfer = f.ssrInfer
	sw.SSRFilter = f.ssrFilter
	sw.RNR = f.rnr
	sw.FilterProtocol = f.filterProtocol
	sw.FilterLabel = f.filterLabel

	applyEnv(&sw)

	path := f.configFile
	if env := os.Getenv("ARACHNE_CONFIG"); path == "" && env != "" {
		path = env
	}
	if path != "" {
		var err error
		sw, err = switches.LoadYAML(sw, path)
		if err != nil {
			return sw, fmt.Errorf("loading config %s: %w", path, err)
		}
	}
	return sw, nil
}

// applyEnv overlays the ARACHNE_* environment variables SPEC_FULL.md §10
// names, between flag defaults and the YAML config file.
func applyEnv(sw *switches.Switches) {
	if v, ok := envInt("ARACHNE_MAX_RUNS"); ok {
		sw.MaxRuns = v
	}
	if v, ok := envInt("ARACHNE_MAX_PROOF_DEPTH"); ok {
		sw.MaxProofDepth = v
	}
	if v, ok := envInt("ARACHNE_MAX_ATTACKS"); ok {
		sw.MaxAttacks = v
	}
	if v, ok := envInt("ARACHNE_TIME_LIMIT_SECONDS"); ok {
		sw.TimeLimitSeconds = v
	}
}

func envInt(name string) (int, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
