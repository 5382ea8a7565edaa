package cssmatch

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Lexer matches CSS values against the grammars of a dictionary
type Lexer struct {
	dict    *Dictionary
	config  *Config
	matcher *Matcher
	logger  *zap.Logger

	// cssWide is the grammar of the keywords every property
	// accepts
	cssWide *MatchGraph

	// grammars caches the graphs compiled by Match
	grammars sync.Map
}

// NewLexer creates a lexer that resolves references with `dict`
func NewLexer(cfg *Config, dict *Dictionary, logger *zap.Logger) (*Lexer, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if dict == nil {
		dict = NewDictionary(cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cssWide, err := CompileString(cfg.GetString("lexer.css_wide_keywords"), cfg)
	if err != nil {
		return nil, fmt.Errorf("lexer.css_wide_keywords: %w", err)
	}
	return &Lexer{
		dict:    dict,
		config:  cfg,
		matcher: NewMatcher(cfg, logger),
		logger:  logger,
		cssWide: cssWide,
	}, nil
}

// Dictionary returns the dictionary the lexer resolves names with
func (l *Lexer) Dictionary() *Dictionary { return l.dict }

// Matcher returns the matcher used by the lexer
func (l *Lexer) Matcher() *Matcher { return l.matcher }

// MatchProperty matches `value` against the grammar of the property
// `name`.  Vendor prefixed names fall back to the unprefixed property.
// When the value doesn't match, both the result and a *MatchError are
// returned.
func (l *Lexer) MatchProperty(name, value string) (*TreeResult, error) {
	tokens, err := Tokenize(value)
	if err != nil {
		return nil, err
	}
	return l.MatchPropertyTokens(name, tokens)
}

// MatchPropertyTokens is like MatchProperty for a value already
// broken into tokens
func (l *Lexer) MatchPropertyTokens(name string, tokens []Token) (*TreeResult, error) {
	graph, err := l.propertyGraph(name)
	if err != nil {
		return nil, err
	}
	return l.matchTokens(tokens, graph, true)
}

// MatchPropertyList is like MatchProperty but returns the trace as a
// flat list
func (l *Lexer) MatchPropertyList(name, value string) (*ListResult, error) {
	tokens, err := Tokenize(value)
	if err != nil {
		return nil, err
	}
	graph, err := l.propertyGraph(name)
	if err != nil {
		return nil, err
	}
	return l.matchTokensList(tokens, graph, true)
}

// MatchType matches `value` against the grammar of the type `name`
func (l *Lexer) MatchType(name, value string) (*TreeResult, error) {
	tokens, err := Tokenize(value)
	if err != nil {
		return nil, err
	}
	graph, err := l.typeGraph(name)
	if err != nil {
		return nil, err
	}
	return l.matchTokens(tokens, graph, false)
}

// MatchTypeList is like MatchType but returns the trace as a flat list
func (l *Lexer) MatchTypeList(name, value string) (*ListResult, error) {
	tokens, err := Tokenize(value)
	if err != nil {
		return nil, err
	}
	graph, err := l.typeGraph(name)
	if err != nil {
		return nil, err
	}
	return l.matchTokensList(tokens, graph, false)
}

// Match matches `value` against the definition syntax `grammar`
func (l *Lexer) Match(grammar, value string) (*TreeResult, error) {
	graph, err := l.compile(grammar)
	if err != nil {
		return nil, err
	}
	tokens, err := Tokenize(value)
	if err != nil {
		return nil, err
	}
	return l.matchTokens(tokens, graph, false)
}

// MatchList is like Match but returns the trace as a flat list
func (l *Lexer) MatchList(grammar, value string) (*ListResult, error) {
	graph, err := l.compile(grammar)
	if err != nil {
		return nil, err
	}
	tokens, err := Tokenize(value)
	if err != nil {
		return nil, err
	}
	return l.matchTokensList(tokens, graph, false)
}

func (l *Lexer) propertyGraph(name string) (*MatchGraph, error) {
	if strings.HasPrefix(name, "--") {
		return nil, ErrCustomProperty
	}
	name = strings.ToLower(name)
	graph, err := l.dict.LookupProperty(name)
	if err != nil {
		return nil, err
	}
	if graph == nil {
		if _, basename := vendorPrefix(name); basename != name {
			if graph, err = l.dict.LookupProperty(basename); err != nil {
				return nil, err
			}
		}
	}
	if graph == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return graph, nil
}

func (l *Lexer) typeGraph(name string) (*MatchGraph, error) {
	graph, err := l.dict.LookupType(name)
	if err != nil {
		return nil, err
	}
	if graph == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return graph, nil
}

// matchTokens tries the css-wide keywords first when `cssWide` is set
// and falls back to `graph`
func (l *Lexer) matchTokens(tokens []Token, graph *MatchGraph, cssWide bool) (*TreeResult, error) {
	if usesVar(tokens) {
		return nil, ErrVarFunction
	}
	if cssWide {
		result, err := l.matcher.MatchTree(tokens, l.cssWide, l.dict)
		if err != nil {
			return nil, err
		}
		if result.Matched() {
			return result, nil
		}
	}
	result, err := l.matcher.MatchTree(tokens, graph, l.dict)
	if err != nil {
		return nil, err
	}
	if !result.Matched() {
		return result, newMatchError(&result.MatchResult, graph, tokens)
	}
	return result, nil
}

func (l *Lexer) matchTokensList(tokens []Token, graph *MatchGraph, cssWide bool) (*ListResult, error) {
	if usesVar(tokens) {
		return nil, ErrVarFunction
	}
	if cssWide {
		result, err := l.matcher.MatchList(tokens, l.cssWide, l.dict)
		if err != nil {
			return nil, err
		}
		if result.Matched() {
			return result, nil
		}
	}
	result, err := l.matcher.MatchList(tokens, graph, l.dict)
	if err != nil {
		return nil, err
	}
	if !result.Matched() {
		return result, newMatchError(&result.MatchResult, graph, tokens)
	}
	return result, nil
}

func (l *Lexer) compile(grammar string) (*MatchGraph, error) {
	if graph, ok := l.grammars.Load(grammar); ok {
		return graph.(*MatchGraph), nil
	}
	graph, err := CompileString(grammar, l.config)
	if err != nil {
		return nil, err
	}
	actual, _ := l.grammars.LoadOrStore(grammar, graph)
	return actual.(*MatchGraph), nil
}

func newMatchError(r *MatchResult, graph *MatchGraph, tokens []Token) *MatchError {
	return &MatchError{
		Message: r.Reason.String(),
		Syntax:  graph.Source,
		Value:   TokensString(tokens),
		Offset:  r.MismatchOffset(),
	}
}

func usesVar(tokens []Token) bool {
	for _, t := range tokens {
		if t.Type == TokenType_Function && strings.EqualFold(t.Value, "var(") {
			return true
		}
	}
	return false
}

// vendorPrefix splits names like `-webkit-box-shadow` into the prefix
// `-webkit-` and the base name `box-shadow`
func vendorPrefix(name string) (string, string) {
	if len(name) < 3 || name[0] != '-' || name[1] == '-' {
		return "", name
	}
	if i := strings.IndexByte(name[1:], '-'); i > 0 {
		return name[:i+2], name[i+2:]
	}
	return "", name
}
