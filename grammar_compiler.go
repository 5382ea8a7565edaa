package cssmatch

import (
	"fmt"
	"strings"
)

// maxMatchOnceTerms is the width of the bitmask the matcher uses for
// tracking which terms of a `&&` or `||` group were already matched
const maxMatchOnceTerms = 64

// Compile transforms the grammar AST `node` into a match graph.  The
// AST isn't modified, so it can be compiled again with a different
// configuration.
func Compile(node Node, cfg *Config) (*MatchGraph, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := newCompiler(cfg)
	root, err := c.compile(node)
	if err != nil {
		return nil, err
	}
	return &MatchGraph{Source: node.Text(), Syntax: node, Root: root}, nil
}

// CompileString parses `grammar` and compiles its AST
func CompileString(grammar string, cfg *Config) (*MatchGraph, error) {
	node, err := ParseGrammar(grammar)
	if err != nil {
		return nil, err
	}
	graph, err := Compile(node, cfg)
	if err != nil {
		return nil, err
	}
	graph.Source = grammar
	return graph, nil
}

type compiler struct {
	config *Config

	// enumFolding caches the `compiler.enum_folding` setting
	enumFolding bool

	// output holds the state built by the last visited node
	output State
}

func newCompiler(cfg *Config) *compiler {
	return &compiler{
		config:      cfg,
		enumFolding: cfg.GetBool("compiler.enum_folding"),
	}
}

func (c *compiler) compile(node Node) (State, error) {
	if err := node.Accept(c); err != nil {
		return nil, err
	}
	out := c.output
	c.output = nil
	return out, nil
}

func (c *compiler) compileAll(nodes []Node) ([]State, error) {
	states := make([]State, len(nodes))
	for i, node := range nodes {
		s, err := c.compile(node)
		if err != nil {
			return nil, err
		}
		states[i] = s
	}
	return states, nil
}

func (c *compiler) VisitGroupNode(n *GroupNode) error {
	terms, err := c.compileAll(n.Terms)
	if err != nil {
		return err
	}
	var result State
	switch n.Combinator {
	case CombinatorJuxtapose:
		result = MatchState
		for i := len(terms) - 1; i >= 0; i-- {
			result = newIf(terms[i], result, MismatchState)
		}
	case CombinatorOne:
		result = c.compileAlternatives(terms, n.Terms)
	case CombinatorAll, CombinatorAny:
		switch {
		case len(terms) == 1:
			result = terms[0]
		case len(terms) > maxMatchOnceTerms:
			return fmt.Errorf(
				"group `%s` has %d terms, the `%s` combinator supports up to %d",
				n.Text(), len(terms), n.Combinator, maxMatchOnceTerms,
			)
		default:
			result = &MatchOnceState{Terms: terms, All: n.Combinator == CombinatorAll, Syntax: n}
		}
	default:
		panic(fmt.Sprintf("unknown combinator: %s", n.Combinator))
	}

	if n.DisallowEmpty {
		result = newIf(result, DisallowEmptyState, MismatchState)
	}
	c.output = result
	return nil
}

// compileAlternatives chains the `terms` of a `|` group so the first
// one that matches wins.  Runs of keywords and functions are folded
// into a single Enum state when enabled.
func (c *compiler) compileAlternatives(terms []State, nodes []Node) State {
	var (
		result State = MismatchState
		enum   map[string]State
	)
	for i := len(terms) - 1; i >= 0; i-- {
		term := terms[i]
		if c.enumFolding && isEnumCompatible(nodes[i]) {
			if enum == nil && i > 0 && isEnumCompatible(nodes[i-1]) {
				enum = map[string]State{}
				result = newIf(&EnumState{Map: enum}, MatchState, result)
			}
			if enum != nil {
				key := enumKey(term)
				if _, ok := enum[key]; !ok {
					enum[key] = term
					continue
				}
			}
		}
		enum = nil
		result = newIf(term, MatchState, result)
	}
	return result
}

func isEnumCompatible(n Node) bool {
	switch node := n.(type) {
	case *KeywordNode, *FunctionNode:
		return true
	case *TypeNode:
		return isFunctionType(node.Name)
	}
	return false
}

func isFunctionType(name string) bool {
	return strings.HasSuffix(name, "()")
}

func enumKey(s State) string {
	switch state := s.(type) {
	case *KeywordState:
		return state.Name
	case *FunctionState:
		return state.Name
	case *TypeState:
		return strings.ToLower(strings.TrimSuffix(state.Name, ")"))
	}
	panic(fmt.Sprintf("state can't be part of an enum: %s", s))
}

func (c *compiler) VisitMultiplierNode(n *MultiplierNode) error {
	matchTerm, err := c.compile(n.Term)
	if err != nil {
		return err
	}

	comma := func(then State) State {
		if n.Comma && then != MatchState {
			return newIf(&CommaState{Syntax: n}, then, MismatchState)
		}
		return then
	}

	result := MatchState
	if n.Max == Unbounded {
		// an iteration that doesn't consume any input would
		// loop forever
		matchTerm = newIf(matchTerm, DisallowEmptyState, MismatchState)

		loop := &IfState{Match: matchTerm, Else: MismatchState}
		next := &IfState{Match: MatchState, Then: MatchState, Else: loop}
		if n.Comma {
			next.Else = newIf(&CommaState{Syntax: n}, loop, MismatchState)
		}
		loop.Then = next
		result = loop
	} else {
		for i := max(n.Min, 1); i <= n.Max; i++ {
			result = comma(result)
			result = newIf(matchTerm, newIf(MatchState, MatchState, result), MismatchState)
		}
	}

	if n.Min == 0 {
		result = newIf(MatchState, MatchState, result)
	} else {
		for i := 0; i < n.Min-1; i++ {
			result = comma(result)
			result = newIf(matchTerm, result, MismatchState)
		}
	}
	c.output = result
	return nil
}

func (c *compiler) VisitKeywordNode(n *KeywordNode) error {
	c.output = &KeywordState{Name: strings.ToLower(n.Name), Syntax: n}
	return nil
}

func (c *compiler) VisitAtKeywordNode(n *AtKeywordNode) error {
	c.output = &AtKeywordState{Name: "@" + strings.ToLower(n.Name), Syntax: n}
	return nil
}

func (c *compiler) VisitFunctionNode(n *FunctionNode) error {
	c.output = &FunctionState{Name: strings.ToLower(n.Name) + "(", Syntax: n}
	return nil
}

func (c *compiler) VisitTypeNode(n *TypeNode) error {
	c.output = &TypeState{Name: n.Name, Opts: n.Opts, Syntax: n}
	return nil
}

func (c *compiler) VisitPropertyNode(n *PropertyNode) error {
	c.output = &PropertyState{Name: n.Name, Syntax: n}
	return nil
}

func (c *compiler) VisitTokenNode(n *TokenNode) error {
	c.output = &TokenState{Value: n.Value, Syntax: n}
	return nil
}

func (c *compiler) VisitStringNode(n *StringNode) error {
	// a single character between the quotes is matched as a token
	if chars := []rune(n.Value); len(chars) == 3 {
		c.output = &TokenState{Value: string(chars[1]), Syntax: n}
		return nil
	}
	c.output = &StringState{Value: n.Unquoted(), Syntax: n}
	return nil
}

func (c *compiler) VisitCommaNode(n *CommaNode) error {
	c.output = &CommaState{Syntax: n}
	return nil
}

// newIf builds a conditional state skipping the ones that would not
// change the outcome of the match
func newIf(match, then, els State) State {
	if then == MatchState && els == MismatchState {
		return match
	}
	if match == MatchState && then == MatchState && els == MatchState {
		return match
	}
	if cond, ok := match.(*IfState); ok && cond.Else == MismatchState && then == MatchState {
		then = cond.Then
		match = cond.Match
	}
	return &IfState{Match: match, Then: then, Else: els}
}
