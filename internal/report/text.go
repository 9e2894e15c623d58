package report

import (
	"fmt"
	"io"
)

// TextBackend renders reports as human-readable lines, the way a terminal
// front-end would show progress while a batch of claims is evaluated.
type TextBackend struct {
	w io.Writer
}

// NewTextBackend returns a backend writing to w.
func NewTextBackend(w io.Writer) *TextBackend { return &TextBackend{w: w} }

func (b *TextBackend) WriteAttack(a AttackReport) error {
	if _, err := fmt.Fprintf(b.w, "FALSIFIED %s (%s, protocol %s) — attack %s\n", a.Label, a.Kind, a.Protocol, a.ID); err != nil {
		return err
	}
	for _, r := range a.Runs {
		kind := "run"
		if r.IsIntruder {
			kind = "intruder run"
		}
		if _, err := fmt.Fprintf(b.w, "  #%d %s of %s/%s %v\n", r.Index, kind, r.Protocol, r.Role, r.Rho); err != nil {
			return err
		}
	}
	for _, e := range a.Edges {
		if _, err := fmt.Fprintf(b.w, "  edge %d -> %d\n", e.From, e.To); err != nil {
			return err
		}
	}
	return nil
}

func (b *TextBackend) WriteProof(p ProofReport) error {
	_, err := fmt.Fprintf(b.w, "VERIFIED %s (depth %d, %d steps)\n", p.Label, p.Depth, p.StepCount)
	return err
}

func (b *TextBackend) WriteTimeout(t TimeoutReport) error {
	_, err := fmt.Fprintf(b.w, "TIMED OUT %s\n", t.Label)
	return err
}

// WriteAll renders everything a Collector accumulated, in the order
// claims would naturally be reported: attacks, then proofs, then timeouts.
func (b *TextBackend) WriteAll(c *Collector) error {
	for _, a := range c.Attacks {
		if err := b.WriteAttack(a); err != nil {
			return err
		}
	}
	for _, p := range c.Proofs {
		if err := b.WriteProof(p); err != nil {
			return err
		}
	}
	for _, t := range c.Timeouts {
		if err := b.WriteTimeout(t); err != nil {
			return err
		}
	}
	return nil
}
