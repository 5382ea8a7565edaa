package cssmatch

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// GrammarParser reads the value definition syntax used by the CSS
// specifications, e.g.: `<length> | auto | [ <percentage> && left ]`
type GrammarParser struct {
	BaseParser
}

func NewGrammarParser(grammar string) *GrammarParser {
	return &GrammarParser{newBaseParser(grammar)}
}

// ParseGrammar is a shortcut for creating a parser and parsing
// `grammar` with it
func ParseGrammar(grammar string) (Node, error) {
	return NewGrammarParser(grammar).Parse()
}

// Parse kicks off parsing the input string and generates the AST of
// the definition
func (p *GrammarParser) Parse() (Node, error) {
	return p.ParseDefinition()
}

// GR: Definition <- Spacing Terms Spacing EndOfInput
func (p *GrammarParser) ParseDefinition() (Node, error) {
	p.skipSpaces()
	group, err := p.parseGroupContents(false)
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.Peek() != eof {
		return nil, p.Throw("Unexpected input")
	}

	// reduce redundant groups with a single group term
	if len(group.Terms) == 1 {
		if inner, ok := group.Terms[0].(*GroupNode); ok {
			return inner, nil
		}
	}
	return group, nil
}

// combinatorPrecedence lists combinators from the loosest to the
// tightest binding one
var combinatorPrecedence = []Combinator{
	CombinatorOne,
	CombinatorAny,
	CombinatorAll,
	CombinatorJuxtapose,
}

// GR: Terms <- Term (Spacing Combinator? Spacing Term)*
func (p *GrammarParser) parseGroupContents(explicit bool) (*GroupNode, error) {
	var (
		terms []Node
		combs []Combinator
	)

	head, err := p.ParseTerm()
	if err != nil {
		return nil, err
	}
	terms = append(terms, head)

	for {
		p.skipSpaces()
		if c := p.Peek(); c == eof || c == ']' {
			break
		}

		comb, err := p.ParseCombinator()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()

		term, err := p.ParseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
		combs = append(combs, comb)
	}

	grouped, comb := regroupTerms(terms, combs, 0)
	return NewGroupNode(grouped, comb, explicit), nil
}

// GR: Combinator <- '&&' / '||' / '|' / ε
func (p *GrammarParser) ParseCombinator() (Combinator, error) {
	literal := func(s string, c Combinator) ParserFn[Combinator] {
		return func(Parser) (Combinator, error) {
			if _, err := p.ExpectLiteral(s); err != nil {
				return 0, err
			}
			return c, nil
		}
	}
	return Choice(p, []ParserFn[Combinator]{
		literal("&&", CombinatorAll),
		literal("||", CombinatorAny),
		func(p Parser) (Combinator, error) {
			_, err := p.ExpectRuneFn('|')(p)
			return CombinatorOne, err
		},
		func(Parser) (Combinator, error) {
			// a lone `&` is not a juxtaposition
			if p.Peek() == '&' {
				return 0, p.Throw("Expected `&&`")
			}
			return CombinatorJuxtapose, nil
		},
	})
}

// regroupTerms nests the flat list of `terms` into groups according to
// the precedence of the combinators found between them.  `combs[i]`
// joins `terms[i]` and `terms[i+1]`.
func regroupTerms(terms []Node, combs []Combinator, level int) ([]Node, Combinator) {
	for ; level < len(combinatorPrecedence); level++ {
		var (
			comb      = combinatorPrecedence[level]
			parts     [][]Node
			partCombs [][]Combinator
			start     = 0
		)
		for i, c := range combs {
			if c != comb {
				continue
			}
			parts = append(parts, terms[start:i+1])
			partCombs = append(partCombs, combs[start:i])
			start = i + 1
		}
		if len(parts) == 0 {
			continue
		}
		parts = append(parts, terms[start:])
		partCombs = append(partCombs, combs[start:])

		out := make([]Node, len(parts))
		for i := range parts {
			if len(parts[i]) == 1 {
				out[i] = parts[i][0]
				continue
			}
			sub, subComb := regroupTerms(parts[i], partCombs[i], level+1)
			out[i] = NewGroupNode(sub, subComb, false)
		}
		return out, comb
	}
	return terms, CombinatorJuxtapose
}

// GR: Term <- Primary Multiplier*
func (p *GrammarParser) ParseTerm() (Node, error) {
	term, err := p.ParsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		start := p.Location()
		wrapped, err := p.ParseMultiplier(term)
		if err != nil {
			if isthrown(err) {
				return nil, err
			}
			p.Backtrack(start)
			return term, nil
		}
		term = wrapped
	}
}

// GR: Primary <- Group / Reference / String / AtKeyword / Comma / KeywordOrFunction / Token
func (p *GrammarParser) ParsePrimary() (Node, error) {
	switch c := p.Peek(); {
	case c == eof:
		return nil, p.Throw("Unexpected end of input")
	case c == '[':
		return p.ParseGroup()
	case c == '<':
		return p.ParseReference()
	case c == '\'' || c == '"':
		return p.ParseString()
	case c == '@':
		p.cursor++
		name := p.readName()
		if name == "" {
			return nil, p.Throw("Expected a name after `@`")
		}
		return NewAtKeywordNode(name), nil
	case c == ',':
		p.cursor++
		return NewCommaNode(), nil
	case isNameStart(c):
		return p.ParseKeywordOrFunction()
	case c == ']' || c == '|' || c == '&':
		return nil, p.Throw("Expected a term")
	default:
		p.cursor++
		return NewTokenNode(string(c)), nil
	}
}

// GR: Group <- '[' Spacing Terms Spacing ']' '!'?
func (p *GrammarParser) ParseGroup() (Node, error) {
	if _, err := p.ExpectRune('['); err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.Peek() == ']' {
		return nil, p.Throw("Empty group")
	}
	group, err := p.parseGroupContents(true)
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if _, err := p.ExpectRune(']'); err != nil {
		return nil, p.Throw("Expected `]`")
	}
	if p.Peek() == '!' {
		p.cursor++
		group.DisallowEmpty = true
	}
	return group, nil
}

// GR: Reference <- '<' Spacing ("'" Name "'" / Name '()'? Spacing Range?) Spacing '>'
func (p *GrammarParser) ParseReference() (Node, error) {
	if _, err := p.ExpectRune('<'); err != nil {
		return nil, err
	}
	p.skipSpaces()

	var node Node
	if p.Peek() == '\'' {
		p.cursor++
		name := p.readName()
		if name == "" {
			return nil, p.Throw("Expected a property name")
		}
		if _, err := p.ExpectRune('\''); err != nil {
			return nil, p.Throw("Expected `'`")
		}
		node = NewPropertyNode(name)
	} else {
		name := p.readName()
		if name == "" {
			return nil, p.Throw("Expected a type name")
		}
		if _, err := p.ExpectLiteral("()"); err == nil {
			name += "()"
		}
		p.skipSpaces()
		var opts *RangeOptions
		if p.Peek() == '[' {
			r, err := p.ParseRange()
			if err != nil {
				return nil, err
			}
			opts = r
		}
		node = NewTypeNode(name, opts)
	}

	p.skipSpaces()
	if _, err := p.ExpectRune('>'); err != nil {
		return nil, p.Throw("Expected `>`")
	}
	return node, nil
}

// GR: Range <- '[' Spacing Bound Spacing ',' Spacing Bound Spacing ']'
func (p *GrammarParser) ParseRange() (*RangeOptions, error) {
	if _, err := p.ExpectRune('['); err != nil {
		return nil, err
	}
	p.skipSpaces()
	lo, err := p.parseRangeBound(math.Inf(-1))
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if _, err := p.ExpectRune(','); err != nil {
		return nil, p.Throw("Expected `,` in range")
	}
	p.skipSpaces()
	hi, err := p.parseRangeBound(math.Inf(1))
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if _, err := p.ExpectRune(']'); err != nil {
		return nil, p.Throw("Expected `]` closing the range")
	}
	if lo > hi {
		return nil, p.Throw("Range lower bound is greater than its upper bound")
	}
	return &RangeOptions{Min: lo, Max: hi}, nil
}

// GR: Bound <- [+-]? ('∞' / 'Infinity' / Number) / ε
func (p *GrammarParser) parseRangeBound(empty float64) (float64, error) {
	start := p.Location()
	switch p.Peek() {
	case ',', ']':
		return empty, nil
	}
	signRune, err := Optional(p, func(p Parser) (rune, error) {
		return Choice(p, []ParserFn[rune]{p.ExpectRuneFn('-'), p.ExpectRuneFn('+')})
	})
	if err != nil {
		return 0, err
	}
	sign := 1.0
	if signRune == '-' {
		sign = -1
	}
	if p.Peek() == '∞' {
		p.cursor++
		return math.Inf(int(sign)), nil
	}
	if _, err := p.ExpectLiteral("Infinity"); err == nil {
		return math.Inf(int(sign)), nil
	}

	var s strings.Builder
	for c := p.Peek(); (c >= '0' && c <= '9') || c == '.'; c = p.Peek() {
		s.WriteRune(c)
		p.cursor++
	}
	if s.Len() == 0 {
		p.Backtrack(start)
		return 0, p.Throw("Expected a number in range")
	}
	v, err := strconv.ParseFloat(s.String(), 64)
	if err != nil {
		p.Backtrack(start)
		return 0, p.Throw("Bad number in range")
	}
	return sign * v, nil
}

// GR: String <- "'" (!"'" ("\'" / .))* "'"
func (p *GrammarParser) ParseString() (Node, error) {
	quote, err := p.Any()
	if err != nil {
		return nil, err
	}
	var s strings.Builder
	s.WriteRune(quote)
	for {
		c := p.Peek()
		switch c {
		case eof:
			return nil, p.Throw("Unterminated string")
		case '\\':
			s.WriteRune(c)
			p.cursor++
			if next := p.Peek(); next != eof {
				s.WriteRune(next)
				p.cursor++
			}
			continue
		}
		p.cursor++
		s.WriteRune(c)
		if c == quote {
			return NewStringNode(s.String()), nil
		}
	}
}

// GR: KeywordOrFunction <- Name '('?
func (p *GrammarParser) ParseKeywordOrFunction() (Node, error) {
	name := p.readName()
	if name == "" {
		return nil, p.NewError("Expected a name")
	}
	if p.Peek() == '(' {
		p.cursor++
		return NewFunctionNode(name), nil
	}
	return NewKeywordNode(name), nil
}

// GR: Multiplier <- '?' / '*' / '+' / '#' Repeat? / Repeat
func (p *GrammarParser) ParseMultiplier(term Node) (Node, error) {
	switch p.Peek() {
	case '?':
		p.cursor++
		return NewMultiplierNode(term, 0, 1, false), nil
	case '*':
		p.cursor++
		return NewMultiplierNode(term, 0, Unbounded, false), nil
	case '+':
		p.cursor++
		return NewMultiplierNode(term, 1, Unbounded, false), nil
	case '#':
		p.cursor++
		if p.Peek() == '{' {
			lo, hi, err := p.ParseRepeat()
			if err != nil {
				return nil, err
			}
			return NewMultiplierNode(term, lo, hi, true), nil
		}
		return NewMultiplierNode(term, 1, Unbounded, true), nil
	case '{':
		lo, hi, err := p.ParseRepeat()
		if err != nil {
			return nil, err
		}
		return NewMultiplierNode(term, lo, hi, false), nil
	default:
		return nil, p.NewError("Expected a multiplier")
	}
}

// GR: Repeat <- '{' Int (',' Int?)? '}'
func (p *GrammarParser) ParseRepeat() (int, int, error) {
	if _, err := p.ExpectRune('{'); err != nil {
		return 0, 0, err
	}
	lo, err := p.readInt()
	if err != nil {
		return 0, 0, err
	}
	hi := lo
	if p.Peek() == ',' {
		p.cursor++
		if p.Peek() == '}' {
			hi = Unbounded
		} else if hi, err = p.readInt(); err != nil {
			return 0, 0, err
		}
	}
	if _, err := p.ExpectRune('}'); err != nil {
		return 0, 0, p.Throw("Expected `}`")
	}
	if hi != Unbounded && hi < lo {
		return 0, 0, p.Throw("Multiplier maximum is less than its minimum")
	}
	if hi == 0 {
		return 0, 0, p.Throw("Multiplier maximum must be greater than zero")
	}
	return lo, hi, nil
}

func (p *GrammarParser) readInt() (int, error) {
	digits, err := OneOrMore(p, func(p Parser) (rune, error) {
		c := p.Peek()
		if c < '0' || c > '9' {
			return 0, p.NewError("Expected a digit")
		}
		return p.Any()
	})
	if err != nil {
		return 0, p.Throw("Expected a number")
	}
	v, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, p.Throw("Bad number")
	}
	return v, nil
}

func (p *GrammarParser) readName() string {
	start := p.cursor
	for isNameChar(p.Peek()) {
		p.cursor++
	}
	return string(p.input[start:p.cursor])
}

func isNameStart(c rune) bool {
	return c == '-' || c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isNameChar(c rune) bool {
	return c != eof && (isNameStart(c) || c > unicode.MaxASCII)
}
