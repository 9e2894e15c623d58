// Package switches holds the typed verifier configuration (spec §6's
// switch table), loadable from flags, environment variables, or a YAML
// file, the way the teacher's cobra/pflag commands bind configuration.
package switches

import (
	"os"

	"github.com/dyverify/arachne/internal/compromise"
	"github.com/dyverify/arachne/internal/heuristic"
	"github.com/dyverify/arachne/internal/unify"
	"gopkg.in/yaml.v3"
)

// Prune selects which pruning passes the driver runs before each goal
// selection (spec §4.M). The resource bounds (verifier.Context.PruneBounds)
// are checked at every level, PruneNone included, so PruneNone and
// PruneBounds select the same passes.
type Prune uint8

const (
	PruneNone Prune = iota
	PruneBounds
	PruneBoundsAndTheorems
	PruneAll // bounds + theorems + claim-specific pruning
)

// Switches is the full set of caller-tunable verifier parameters.
type Switches struct {
	Match unify.Mode `yaml:"match"`

	MaxRuns           int `yaml:"max_runs"`
	MaxProofDepth     int `yaml:"max_proof_depth"`
	MaxTraceLength    int `yaml:"max_trace_length"`
	MaxAttacks        int `yaml:"max_attacks"`
	MaxIntruderActions int `yaml:"max_intruder_actions"`

	TimeLimitSeconds int `yaml:"time_limit_seconds"`

	Prune     Prune          `yaml:"prune"`
	Heuristic heuristic.Mask `yaml:"heuristic"`
	RandomGoalSelection bool `yaml:"random_goal_selection"`

	SKR       bool `yaml:"skr"`
	SKRInfer  bool `yaml:"skr_infer"`
	SSR       bool `yaml:"ssr"`
	SSRInfer  int  `yaml:"ssr_infer"` // 0 = off, 1 = only if no manual event, 2 = always
	SSRFilter bool `yaml:"ssr_filter"`
	RNR       bool `yaml:"rnr"`

	LKRMode               compromise.LKRMode `yaml:"lkr_mode"`
	DelayCompromiseAtomic bool               `yaml:"delay_compromise_atomic"`

	PartnerDef compromise.PartnerDef `yaml:"partner_def"`

	FilterProtocol string `yaml:"filter_protocol"`
	FilterLabel    string `yaml:"filter_label"`

	ReportCompromise bool `yaml:"report_compromise"`
}

// Default returns the switches the driver uses absent any configuration,
// matching spec §6's documented defaults.
func Default() Switches {
	return Switches{
		Match:              unify.BasicTypeFlaw,
		MaxRuns:            10,
		MaxProofDepth:      1 << 20,
		MaxTraceLength:     1 << 20,
		MaxAttacks:         1,
		MaxIntruderActions: 1 << 20,
		TimeLimitSeconds:   0, // 0 = no limit
		Prune:              PruneAll,
		Heuristic:          heuristic.Default,
		PartnerDef:         compromise.PartnerMatchingHistories,
		LKRMode:            compromise.LKROthers,
	}
}

// LoadYAML overlays fields present in the YAML document at path onto a
// copy of s (spec §10 ambient-stack: config via gopkg.in/yaml.v3, the
// way the teacher's CLI layer loads devcmd.yaml).
func LoadYAML(s Switches, path string) (Switches, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, err
	}
	return s, nil
}
