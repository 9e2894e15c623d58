package spdlast

import (
	"strings"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokSemicolon
)

type token struct {
	kind tokenKind
	text string
	line int
}

// lexer is a minimal hand-rolled scanner for the reference SPDL-like
// surface syntax — one token of lookahead is all the recursive descent
// parser needs.
type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipSpaceAndComments() {
	for {
		b, ok := l.peekByte()
		if !ok {
			return
		}
		switch {
		case b == '\n':
			l.line++
			l.pos++
		case b == ' ' || b == '\t' || b == '\r':
			l.pos++
		case b == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.pos++
			}
		default:
			return
		}
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// next returns the next token, advancing the lexer.
func (l *lexer) next() token {
	l.skipSpaceAndComments()
	line := l.line
	b, ok := l.peekByte()
	if !ok {
		return token{kind: tokEOF, line: line}
	}

	single := map[byte]tokenKind{
		'(': tokLParen, ')': tokRParen,
		'{': tokLBrace, '}': tokRBrace,
		'[': tokLBracket, ']': tokRBracket,
		',': tokComma, ':': tokColon, ';': tokSemicolon,
	}
	if kind, ok := single[b]; ok {
		l.pos++
		return token{kind: kind, text: string(b), line: line}
	}

	if isIdentStart(b) {
		start := l.pos
		for {
			b, ok := l.peekByte()
			if !ok || !isIdentCont(b) {
				break
			}
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line}
	}

	// Unrecognised byte: skip it so a stray character doesn't loop forever;
	// the parser will fail on the resulting malformed token stream with a
	// line-numbered BadSpec error.
	l.pos++
	return token{kind: tokIdent, text: string(b), line: line}
}

// identListFrom renders a comma-joined identifier list for error messages.
func identListFrom(idents []string) string {
	return strings.Join(idents, ", ")
}
