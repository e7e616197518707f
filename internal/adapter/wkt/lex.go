package wkt

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/woozymasta/foxfire/internal/geo"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokEquals
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokWord:
		return "keyword"
	case tokNumber:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokSemicolon:
		return "';'"
	case tokEquals:
		return "'='"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// ParseError is returned for input that cannot be read. It unwraps to
// geo.ErrMalformedInput or geo.ErrUnsupportedGeometryType.
type ParseError struct {
	problem string
	pos     int
	str     string
	class   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wkt: %s at pos %d\n%s\n%s^", e.problem, e.pos, e.str, strings.Repeat(" ", e.pos))
}

func (e *ParseError) Unwrap() error { return e.class }

// Pos is the byte offset of the offending token.
func (e *ParseError) Pos() int { return e.pos }

type lexer struct {
	line string
	pos  int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.line) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.line[l.pos]
	switch c {
	case '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case ';':
		l.pos++
		return token{kind: tokSemicolon, text: ";", pos: start}, nil
	case '=':
		l.pos++
		return token{kind: tokEquals, text: "=", pos: start}, nil
	}
	if isLetter(c) {
		for l.pos < len(l.line) && isLetter(l.line[l.pos]) {
			l.pos++
		}
		return token{kind: tokWord, text: strings.ToUpper(l.line[start:l.pos]), pos: start}, nil
	}
	if isNumStart(c) {
		l.pos++
		for l.pos < len(l.line) && isNumPart(l.line[l.pos], l.line[l.pos-1]) {
			l.pos++
		}
		return token{kind: tokNumber, text: l.line[start:l.pos], pos: start}, nil
	}
	return token{}, &ParseError{
		problem: fmt.Sprintf("unexpected character %q", c),
		pos:     start,
		str:     l.line,
		class:   geo.ErrMalformedInput,
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNumStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isNumPart(c, prev byte) bool {
	switch {
	case c >= '0' && c <= '9', c == '.':
		return true
	case c == 'e' || c == 'E':
		return true
	case c == '-' || c == '+':
		return prev == 'e' || prev == 'E'
	}
	return false
}
