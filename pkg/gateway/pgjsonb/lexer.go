// Package pgjsonb is the one concrete, Postgres/JSONB-backed reference
// implementation of pkg/gateway.Gateway: every "collection" is a partition
// of a single `documents` table (collection, key, doc jsonb), and the
// AQL-style wire text produced by pkg/queryir.Emit is parsed back into a
// small statement tree and evaluated in-process against rows fetched from
// Postgres — the Gateway itself never needs catalog awareness, mirroring
// the fact that pkg/queryir's grammar is entirely self-describing (edge
// `_to`/`_from` values embed their own target collection name).
package pgjsonb

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokBind     // @name
	tokColBind  // @@name
	tokPunct    // one of ( ) { } [ ] , : .
	tokOperator // == != < <= > >= =~ !~
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) at(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
}

// tokenize reads the whole source into a flat token slice; the grammar
// this interpreter accepts is small and fixed (it is the exact output
// shape of pkg/queryir.Emit), so a single-pass lexer followed by a
// recursive descent parser is simpler than streaming.
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var out []token
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			out = append(out, token{kind: tokEOF})
			return out, nil
		}
		c := l.peekRune()
		switch {
		case c == '"':
			tok, err := l.readString()
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
		case c == '@':
			if l.at(1) == '@' {
				l.pos += 2
				name := l.readIdentRunes()
				out = append(out, token{kind: tokColBind, text: name})
			} else {
				l.pos++
				name := l.readIdentRunes()
				out = append(out, token{kind: tokBind, text: name})
			}
		case unicode.IsDigit(c) || (c == '-' && unicode.IsDigit(l.at(1))):
			out = append(out, l.readNumber())
		case unicode.IsLetter(c) || c == '_':
			name := l.readIdentRunes()
			out = append(out, token{kind: tokIdent, text: name})
		case strings.ContainsRune("(){}[],:", c):
			l.pos++
			out = append(out, token{kind: tokPunct, text: string(c)})
		case c == '=' && l.at(1) == '=':
			l.pos += 2
			out = append(out, token{kind: tokOperator, text: "=="})
		case c == '!' && l.at(1) == '=':
			l.pos += 2
			out = append(out, token{kind: tokOperator, text: "!="})
		case c == '<' && l.at(1) == '=':
			l.pos += 2
			out = append(out, token{kind: tokOperator, text: "<="})
		case c == '>' && l.at(1) == '=':
			l.pos += 2
			out = append(out, token{kind: tokOperator, text: ">="})
		case c == '=' && l.at(1) == '~':
			l.pos += 2
			out = append(out, token{kind: tokOperator, text: "=~"})
		case c == '!' && l.at(1) == '~':
			l.pos += 2
			out = append(out, token{kind: tokOperator, text: "!~"})
		case c == '<':
			l.pos++
			out = append(out, token{kind: tokOperator, text: "<"})
		case c == '>':
			l.pos++
			out = append(out, token{kind: tokOperator, text: ">"})
		case c == '.':
			l.pos++
			out = append(out, token{kind: tokPunct, text: "."})
		default:
			return nil, fmt.Errorf("pgjsonb: unexpected character %q at offset %d", c, l.pos)
		}
	}
}

func (l *lexer) readIdentRunes() string {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			l.pos++
			continue
		}
		break
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readNumber() token {
	start := l.pos
	if l.peekRune() == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && (unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	return token{kind: tokNumber, text: string(l.src[start:l.pos])}
}

func (l *lexer) readString() (token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			b.WriteRune(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			return token{kind: tokString, text: b.String()}, nil
		}
		b.WriteRune(c)
		l.pos++
	}
	return token{}, fmt.Errorf("pgjsonb: unterminated string literal")
}
