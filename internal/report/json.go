package report

import (
	"encoding/json"
	"io"
)

// jsonDocument is the whole-run machine-readable report shape, the
// format a CI pipeline or a DOT/XML post-processor would consume (spec
// §4.O: "no wire format mandated by the core" — this is one collaborator's
// choice of wire format, not a core requirement).
type jsonDocument struct {
	Attacks  []AttackReport  `json:"attacks"`
	Proofs   []ProofReport   `json:"proofs"`
	Timeouts []TimeoutReport `json:"timeouts"`
}

// JSONBackend renders a Collector's accumulated reports as a single JSON
// document.
type JSONBackend struct {
	w      io.Writer
	indent bool
}

// NewJSONBackend returns a backend writing pretty-printed JSON to w.
func NewJSONBackend(w io.Writer) *JSONBackend { return &JSONBackend{w: w, indent: true} }

// WriteAll serializes every report c accumulated as one JSON document.
func (b *JSONBackend) WriteAll(c *Collector) error {
	doc := jsonDocument{Attacks: c.Attacks, Proofs: c.Proofs, Timeouts: c.Timeouts}
	enc := json.NewEncoder(b.w)
	if b.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
