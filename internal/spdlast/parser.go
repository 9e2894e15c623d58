package spdlast

import (
	"strings"

	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/verrors"
)

// claimKinds maps the surface-syntax claim kind names (case-insensitive,
// matching original_source/src/claim.c's claim_type names) to
// model.ClaimKind.
var claimKinds = map[string]model.ClaimKind{
	"secret":    model.Secret,
	"skr":       model.SKR,
	"alive":     model.Alive,
	"weakagree": model.WeakAgree,
	"niagree":   model.NiAgree,
	"nisynch":   model.NiSynch,
	"reachable": model.Reachable,
	"commit":    model.Commit,
	"running":   model.Running,
	"sid":       model.SID,
	"notequal":  model.NotEqual,
	"empty":     model.Empty,
}

// Parser builds a Builder's state by recursive descent over the
// reference SPDL-like surface syntax (spec §6/§12). It is a thin,
// intentionally minimal stand-in for a production parser collaborator.
type Parser struct {
	b    *Builder
	lex  *lexer
	cur  token

	consts map[string]*term.Term

	// roleVars/localVars are the name resolution scopes while parsing the
	// body of the role currently open; roleVars holds every role's own
	// agent variable within the enclosing protocol (so role I can refer to
	// role R's agent), localVars holds this role's `var` declarations.
	roleVars  map[string]*term.Term
	localVars map[string]*term.Term
}

// Parse builds a complete Builder from src, or returns the first BadSpec
// error encountered. Parsing stops at the first error — the core never
// attempts a proof over a partially built model (spec §7).
func Parse(src string) (*Builder, error) {
	p := &Parser{
		b:      NewBuilder(),
		lex:    newLexer(src),
		consts: make(map[string]*term.Term),
	}
	p.advance()
	if err := p.parseFile(); err != nil {
		return nil, err
	}
	return p.b, nil
}

func (p *Parser) advance() { p.cur = p.lex.next() }

func (p *Parser) at(kind tokenKind) bool { return p.cur.kind == kind }

func (p *Parser) atKeyword(word string) bool {
	return p.cur.kind == tokIdent && p.cur.text == word
}

func (p *Parser) expect(kind tokenKind, what string) error {
	if p.cur.kind != kind {
		return verrors.BadSpecf(p.cur.line, "expected %s, found %q", what, p.cur.text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur.kind != tokIdent {
		return "", verrors.BadSpecf(p.cur.line, "expected identifier, found %q", p.cur.text)
	}
	name := p.cur.text
	p.advance()
	return name, nil
}

// identList parses a comma-separated identifier list.
func (p *Parser) identList() ([]string, error) {
	var names []string
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	names = append(names, name)
	for p.at(tokComma) {
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (p *Parser) parseFile() error {
	for !p.at(tokEOF) {
		if err := p.parseDecl(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseDecl() error {
	switch {
	case p.atKeyword("usertype"):
		return p.parseSimpleIdentDecl(func(names []string) {
			p.b.UserTypes = append(p.b.UserTypes, names...)
		})
	case p.atKeyword("secret"):
		return p.parseSimpleIdentDecl(func(names []string) {
			p.b.SecretNames = append(p.b.SecretNames, names...)
		})
	case p.atKeyword("hashfunction"):
		return p.parseSimpleIdentDecl(func(names []string) {
			for _, n := range names {
				p.b.DeclareFunction(n)
			}
		})
	case p.atKeyword("untrusted") || p.atKeyword("compromised"):
		return p.parseUntrusted()
	case p.atKeyword("const"):
		return p.parseConst()
	case p.atKeyword("inversekeys"):
		return p.parseInversePair(false)
	case p.atKeyword("inversekeyfunctions"):
		return p.parseInversePair(true)
	case p.atKeyword("protocol"):
		return p.parseProtocol()
	default:
		return verrors.BadSpecf(p.cur.line, "unexpected top-level token %q", p.cur.text)
	}
}

func (p *Parser) parseSimpleIdentDecl(apply func(names []string)) error {
	p.advance() // keyword
	names, err := p.identList()
	if err != nil {
		return err
	}
	if err := p.expect(tokSemicolon, "';'"); err != nil {
		return err
	}
	apply(names)
	return nil
}

func (p *Parser) parseConst() error {
	p.advance() // "const"
	names, err := p.identList()
	if err != nil {
		return err
	}
	if err := p.expect(tokColon, "':'"); err != nil {
		return err
	}
	sort, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokSemicolon, "';'"); err != nil {
		return err
	}
	for _, n := range names {
		p.consts[n] = p.b.DeclareConst(n, symtab.Sort(sort))
	}
	return nil
}

// parseUntrusted parses `untrusted`/`compromised` followed by a
// comma-separated list of terms, each added to the intruder's starting
// knowledge directly. A bare agent name marks that agent's identity
// known (it already would be); a function application such as sk(Eve)
// hands the intruder Eve's long-term private key outright, modelling a
// fully corrupt agent without requiring the core to special-case which
// side of an inversekeyfunctions pair counts as "private" (spec §6
// `compromised`).
func (p *Parser) parseUntrusted() error {
	p.advance() // "untrusted" | "compromised"
	t, err := p.parseTerm()
	if err != nil {
		return err
	}
	p.b.AddInitialKnowledge(t)
	for p.at(tokComma) {
		p.advance()
		t, err := p.parseTerm()
		if err != nil {
			return err
		}
		p.b.AddInitialKnowledge(t)
	}
	return p.expect(tokSemicolon, "';'")
}

func (p *Parser) parseInversePair(isFunction bool) error {
	p.advance() // keyword
	if err := p.expect(tokLParen, "'('"); err != nil {
		return err
	}
	a, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokComma, "','"); err != nil {
		return err
	}
	bName, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return err
	}
	if err := p.expect(tokSemicolon, "';'"); err != nil {
		return err
	}
	var ta, tb *term.Term
	if isFunction {
		ta, tb = p.b.DeclareFunction(a), p.b.DeclareFunction(bName)
	} else {
		var ok bool
		ta, ok = p.consts[a]
		if !ok {
			ta = p.b.DeclareConst(a, "SessionKey")
			p.consts[a] = ta
		}
		tb, ok = p.consts[bName]
		if !ok {
			tb = p.b.DeclareConst(bName, "SessionKey")
			p.consts[bName] = tb
		}
	}
	p.b.DeclareInverse(ta, tb)
	return nil
}

func (p *Parser) parseProtocol() error {
	p.advance() // "protocol"
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokLBrace, "'{'"); err != nil {
		return err
	}

	pb := p.b.BeginProtocol(name)
	p.roleVars = make(map[string]*term.Term)
	p.preScanRoleNames(pb)

	for p.atKeyword("role") {
		if err := p.parseRole(pb); err != nil {
			return err
		}
	}
	if err := p.expect(tokRBrace, "'}'"); err != nil {
		return err
	}
	pb.End()
	return nil
}

// preScanRoleNames walks the protocol body's token stream once, without
// consuming it for real parsing, registering every top-level `role NAME`
// declaration's agent variable up front. This lets an earlier role's
// events reference a later role's agent (e.g. role I sending to R before
// "role R {" has been parsed) the way every real SPDL protocol does.
// The lexer is a plain value type, so snapshotting and restoring it
// (together with the current lookahead token) rewinds parsing exactly to
// where it stood before the scan.
func (p *Parser) preScanRoleNames(pb *ProtocolBuilder) {
	savedLex := *p.lex
	savedCur := p.cur

	depth := 1 // "protocol NAME {" has already been consumed by the caller
	for depth > 0 && !p.at(tokEOF) {
		switch {
		case p.at(tokLBrace):
			depth++
			p.advance()
		case p.at(tokRBrace):
			depth--
			p.advance()
		case depth == 1 && p.atKeyword("role"):
			p.advance()
			if p.at(tokIdent) {
				name := p.cur.text
				p.roleVars[name] = pb.DeclareRole(name)
			}
			p.advance()
		default:
			p.advance()
		}
	}

	*p.lex = savedLex
	p.cur = savedCur
}

func (p *Parser) parseRole(pb *ProtocolBuilder) error {
	p.advance() // "role"
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokLBrace, "'{'"); err != nil {
		return err
	}

	rb := pb.BeginRole(name)
	p.roleVars[name] = pb.protocol.RoleVars[name]
	p.localVars = make(map[string]*term.Term)

	for !p.at(tokRBrace) && !p.at(tokEOF) {
		if err := p.parseStmt(rb); err != nil {
			return err
		}
	}
	if err := p.expect(tokRBrace, "'}'"); err != nil {
		return err
	}
	rb.End()
	return nil
}

func (p *Parser) parseStmt(rb *RoleBuilder) error {
	if p.atKeyword("var") {
		return p.parseVarDecl(rb)
	}

	line := p.cur.line
	label, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokLParen, "'('"); err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(label, "send"):
		from, to, msg, err := p.parseTriple()
		if err != nil {
			return err
		}
		if err := p.closeStmt(); err != nil {
			return err
		}
		rb.Send(label, from, to, msg)
		return nil
	case strings.HasPrefix(label, "recv"):
		from, to, msg, err := p.parseTriple()
		if err != nil {
			return err
		}
		if err := p.closeStmt(); err != nil {
			return err
		}
		rb.Recv(label, from, to, msg)
		return nil
	case strings.HasPrefix(label, "claim"):
		kind, param, precedence, err := p.parseClaimArgs()
		if err != nil {
			return err
		}
		if err := p.closeStmt(); err != nil {
			return err
		}
		return rb.Claim(line, label, kind, param, precedence, nil)
	default:
		return verrors.BadSpecf(line, "statement %q must start with send/recv/claim", label)
	}
}

func (p *Parser) closeStmt() error {
	if err := p.expect(tokRParen, "')'"); err != nil {
		return err
	}
	return p.expect(tokSemicolon, "';'")
}

func (p *Parser) parseTriple() (from, to, msg *term.Term, err error) {
	if from, err = p.parseTerm(); err != nil {
		return
	}
	if err = p.expect(tokComma, "','"); err != nil {
		return
	}
	if to, err = p.parseTerm(); err != nil {
		return
	}
	if err = p.expect(tokComma, "','"); err != nil {
		return
	}
	if msg, err = p.parseTerm(); err != nil {
		return
	}
	return
}

func (p *Parser) parseClaimArgs() (model.ClaimKind, *term.Term, []string, error) {
	// actor
	if _, err := p.parseTerm(); err != nil {
		return 0, nil, nil, err
	}
	if err := p.expect(tokComma, "','"); err != nil {
		return 0, nil, nil, err
	}
	kindName, err := p.expectIdent()
	if err != nil {
		return 0, nil, nil, err
	}
	kind, ok := claimKinds[strings.ToLower(kindName)]
	if !ok {
		return 0, nil, nil, verrors.BadSpecf(p.cur.line, "unknown claim kind %q", kindName)
	}

	var param *term.Term
	var precedence []string
	if p.at(tokComma) {
		p.advance()
		if p.at(tokLBracket) {
			if precedence, err = p.parsePrecedenceList(); err != nil {
				return 0, nil, nil, err
			}
		} else {
			if param, err = p.parseTerm(); err != nil {
				return 0, nil, nil, err
			}
			if p.at(tokComma) {
				p.advance()
				if precedence, err = p.parsePrecedenceList(); err != nil {
					return 0, nil, nil, err
				}
			}
		}
	}
	return kind, param, precedence, nil
}

func (p *Parser) parsePrecedenceList() ([]string, error) {
	if err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	var labels []string
	if !p.at(tokRBracket) {
		names, err := p.identList()
		if err != nil {
			return nil, err
		}
		labels = names
	}
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return labels, nil
}

func (p *Parser) parseVarDecl(rb *RoleBuilder) error {
	p.advance() // "var"
	names, err := p.identList()
	if err != nil {
		return err
	}
	if err := p.expect(tokColon, "':'"); err != nil {
		return err
	}
	sort, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(tokSemicolon, "';'"); err != nil {
		return err
	}
	for _, n := range names {
		p.localVars[n] = rb.Var(n, symtab.Sort(sort))
	}
	return nil
}

// parseTerm parses {msg}key encryption, where msg may be a comma-separated
// list folded into a tuple, or falls through to an atom.
func (p *Parser) parseTerm() (*term.Term, error) {
	if p.at(tokLBrace) {
		line := p.cur.line
		p.advance()
		msg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms := []*term.Term{msg}
		for p.at(tokComma) {
			p.advance()
			next, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, next)
		}
		msg = p.b.Tuple(terms...)
		if err := p.expect(tokRBrace, "'}'"); err != nil {
			return nil, err
		}
		key, err := p.parseAtom(line)
		if err != nil {
			return nil, err
		}
		return p.b.Encrypt(msg, key), nil
	}
	return p.parseAtom(p.cur.line)
}

// parseAtom parses a parenthesised tuple, a function application
// ident(term), or a bare identifier reference.
func (p *Parser) parseAtom(line int) (*term.Term, error) {
	if p.at(tokLParen) {
		p.advance()
		first, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms := []*term.Term{first}
		for p.at(tokComma) {
			p.advance()
			next, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, next)
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		if len(terms) == 1 {
			return terms[0], nil
		}
		return p.b.Tuple(terms...), nil
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if p.at(tokLParen) {
		p.advance()
		arg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		fn := p.b.DeclareFunction(name)
		return p.b.Apply(fn, arg), nil
	}
	return p.resolveIdent(line, name)
}

func (p *Parser) resolveIdent(line int, name string) (*term.Term, error) {
	if t, ok := p.localVars[name]; ok {
		return t, nil
	}
	if t, ok := p.roleVars[name]; ok {
		return t, nil
	}
	if t, ok := p.consts[name]; ok {
		return t, nil
	}
	return nil, verrors.BadSpecf(line, "undeclared identifier %q", name)
}
