package sexpr

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// MaxParseDepth bounds list nesting accepted by Parse.
const MaxParseDepth = 10000

var ErrSyntax = errors.New("syntax error")

type parser struct {
	input string
	pos   int
	depth int
}

// Parse reads one value in the canonical text form produced by Render.
// Whitespace and ';' line comments are ignored between tokens.
func Parse(input string) (Value, error) {
	p := &parser{input: input}
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("%w: empty input", ErrSyntax)
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected input after expression")
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(input string) Value {
	v, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return v
}

func (p *parser) parseValue() (Value, error) {
	if p.pos >= len(p.input) {
		return nil, p.errorf("unexpected end of input")
	}
	switch p.input[p.pos] {
	case '(':
		return p.parseList()
	case ')':
		return nil, p.errorf("unexpected ')'")
	case '"':
		return p.parseText()
	default:
		return p.parseAtom()
	}
}

func (p *parser) parseList() (Value, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxParseDepth {
		return nil, p.errorf("nesting deeper than %d", MaxParseDepth)
	}

	p.pos++ // '('
	var items []Value
	var tail Value = Nil
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated list")
		}
		if p.input[p.pos] == ')' {
			p.pos++
			break
		}
		if p.atDot() {
			if len(items) == 0 {
				return nil, p.errorf("dot before first element")
			}
			p.pos++
			p.skipSpace()
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			tail = v
			p.skipSpace()
			if p.pos >= len(p.input) || p.input[p.pos] != ')' {
				return nil, p.errorf("expected ')' after dotted tail")
			}
			p.pos++
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}

	out := tail
	for i := len(items) - 1; i >= 0; i-- {
		out = Cons(items[i], out)
	}
	return out, nil
}

// atDot reports whether the next token is a lone '.'.
func (p *parser) atDot() bool {
	if p.input[p.pos] != '.' {
		return false
	}
	next := p.pos + 1
	return next >= len(p.input) || isDelimiter(p.input[next])
}

func (p *parser) parseText() (Value, error) {
	start := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.input[start:p.pos])
			if err != nil {
				return nil, fmt.Errorf("%w at position %d: %v", ErrSyntax, start, err)
			}
			if !utf8.ValidString(s) {
				return nil, fmt.Errorf("%w at position %d: %w", ErrSyntax, start, ErrInvalidText)
			}
			return Text(s), nil
		}
		p.pos++
	}
	return nil, fmt.Errorf("%w at position %d: unterminated string", ErrSyntax, start)
}

func (p *parser) parseAtom() (Value, error) {
	start := p.pos
	for p.pos < len(p.input) && !isDelimiter(p.input[p.pos]) {
		p.pos++
	}
	tok := p.input[start:p.pos]
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w at position %d: invalid atom %q", ErrSyntax, start, tok)
	}
	return Integer(n), nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch c := p.input[p.pos]; {
		case c == ';':
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
		case isSpace(c):
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at position %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '"' || c == ';'
}
