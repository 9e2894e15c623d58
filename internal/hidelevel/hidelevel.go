// Package hidelevel pre-computes, per basic term, a conservative upper
// bound on how it can be synthesized: from initial knowledge, from some
// protocol send, both, or neither (component L).
package hidelevel

import (
	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

// Level is the conservative hide-level bound for a basic term's symbol.
type Level int

const (
	Impossible Level = iota
	ByKnowledgeOnly
	ByProtocolOnly
	Both
)

func compute(inKnowledge, producedByProtocol bool) Level {
	switch {
	case inKnowledge && producedByProtocol:
		return Both
	case inKnowledge:
		return ByKnowledgeOnly
	case producedByProtocol:
		return ByProtocolOnly
	default:
		return Impossible
	}
}

// Table maps a symbol to its pre-computed hide level.
type Table struct {
	levels map[*symtab.Symbol]Level
}

// Lookup returns the symbol's level, defaulting to Both (no information,
// never prune) for symbols the table was never built with.
func (t *Table) Lookup(sym *symtab.Symbol) Level {
	if lvl, ok := t.levels[sym]; ok {
		return lvl
	}
	return Both
}

// LevelOf is a convenience wrapper for a leaf term.
func (t *Table) LevelOf(leaf *term.Term) Level {
	leaf = term.Devar(leaf)
	if !term.IsLeaf(leaf) {
		return Both
	}
	return t.Lookup(leaf.Sym)
}

func occursSymbol(t *term.Term, sym *symtab.Symbol) bool {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		return t.Sym == sym
	case term.Tuple, term.Encryption:
		return occursSymbol(t.Left, sym) || occursSymbol(t.Right, sym)
	}
	return false
}

func collectSymbols(t *term.Term, into map[*symtab.Symbol]bool) {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		into[t.Sym] = true
	case term.Tuple, term.Encryption:
		collectSymbols(t.Left, into)
		collectSymbols(t.Right, into)
	}
}

func protocolProduces(protocols []*model.Protocol, sym *symtab.Symbol) bool {
	for _, p := range protocols {
		for _, r := range p.Roles {
			for _, ev := range r.Events {
				if ev.Kind == model.Send && occursSymbol(ev.Msg, sym) {
					return true
				}
			}
		}
	}
	return false
}

func knowsSymbol(k *know.Set, sym *symtab.Symbol) bool {
	for _, b := range k.Basic() {
		if b.Sym == sym {
			return true
		}
	}
	return false
}

// Build computes the hide-level table for every symbol occurring anywhere
// in any protocol's message templates, against the adversary's initial
// knowledge.
func Build(protocols []*model.Protocol, initial *know.Set) *Table {
	seen := make(map[*symtab.Symbol]bool)
	for _, p := range protocols {
		for _, r := range p.Roles {
			for _, ev := range r.Events {
				collectSymbols(ev.Msg, seen)
			}
		}
	}

	t := &Table{levels: make(map[*symtab.Symbol]Level, len(seen))}
	for sym := range seen {
		inK := knowsSymbol(initial, sym)
		prod := protocolProduces(protocols, sym)
		t.levels[sym] = compute(inK, prod)
	}
	return t
}
