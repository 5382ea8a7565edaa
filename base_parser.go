package cssmatch

import "fmt"

const eof = -1

// BaseParser keeps the cursor over the input runes and provides the
// basic expectations other parsing expressions are built upon
type BaseParser struct {
	cursor int
	input  []rune
	source string
}

func newBaseParser(source string) BaseParser {
	return BaseParser{input: []rune(source), source: source}
}

// Location returns the index of the rune under the cursor
func (p *BaseParser) Location() int {
	return p.cursor
}

// Peek returns the character under the input cursor, or eof if the
// entire input has been consumed
func (p *BaseParser) Peek() rune {
	return p.PeekN(0)
}

// PeekN returns the character `n` positions after the cursor without
// moving it
func (p *BaseParser) PeekN(n int) rune {
	if p.cursor+n >= len(p.input) {
		return eof
	}
	return p.input[p.cursor+n]
}

// Backtrack resets the cursor to the location `l`
func (p *BaseParser) Backtrack(l int) {
	p.cursor = l
}

// Any matches any rune under the input cursor, and will fail on EOF
func (p *BaseParser) Any() (rune, error) {
	c := p.Peek()
	if c == eof {
		return 0, p.NewError("Unexpected end of input")
	}
	p.cursor++
	return c, nil
}

func (p *BaseParser) ExpectRune(v rune) (rune, error) {
	c := p.Peek()
	if c == v {
		return p.Any()
	}
	if c == eof {
		return 0, p.NewError(fmt.Sprintf("Expected `%c` but got end of input", v))
	}
	return 0, p.NewError(fmt.Sprintf("Expected `%c` but got `%c`", v, c))
}

func (p *BaseParser) ExpectRuneFn(v rune) ParserFn[rune] {
	return func(p Parser) (rune, error) { return p.ExpectRune(v) }
}

// ExpectLiteral matches all the runes of `literal` or backtracks to
// where it started
func (p *BaseParser) ExpectLiteral(literal string) (string, error) {
	start := p.Location()
	for _, v := range literal {
		if _, err := p.ExpectRune(v); err != nil {
			p.Backtrack(start)
			return "", p.NewError(fmt.Sprintf("Expected `%s`", literal))
		}
	}
	return literal, nil
}

// NewError creates a type of error that is handled and discarded when
// the parser backtracks the input position
func (p *BaseParser) NewError(msg string) error {
	return backtrackingError{Message: msg, Offset: p.cursor}
}

// Throw returns an error that can't be caught by the backtrack system
// and will error right away
func (p *BaseParser) Throw(msg string) error {
	return &GrammarSyntaxError{
		Message: msg,
		Source:  p.source,
		Offset:  min(p.cursor, len(p.input)),
	}
}

func (p *BaseParser) skipSpaces() {
	for isSpace(p.Peek()) {
		p.cursor++
	}
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
