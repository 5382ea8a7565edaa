package cssmatch

import (
	"fmt"
	"sort"
	"strings"
)

// State is a node of the match graph.  The matcher dispatches on the
// concrete type of each state, so the set of implementations is
// closed: adding a new one requires teaching the matcher about it.
type State interface {
	String() string
}

// MatchGraph is the compiled form of a grammar.  It's immutable and
// can be shared by any number of concurrent matches.
type MatchGraph struct {
	// Source is the grammar text the graph was compiled from
	Source string

	// Syntax is the root of the grammar AST
	Syntax Node

	// Root is where the matcher starts walking the graph
	Root State
}

func (g *MatchGraph) String() string {
	return fmt.Sprintf("MatchGraph(%s)", g.Source)
}

// sentinelState is used for the process-wide singletons
type sentinelState struct{ name string }

func (s *sentinelState) String() string { return s.name }

var (
	// MatchState means the path walked so far succeeded
	MatchState State = &sentinelState{"Match"}

	// MismatchState means the path walked so far failed
	MismatchState State = &sentinelState{"Mismatch"}

	// DisallowEmptyState fails if no tokens were consumed since
	// the then-continuation it's part of was pushed
	DisallowEmptyState State = &sentinelState{"DisallowEmpty"}
)

// IfState tries `Match` and continues with `Then` if it succeeds or
// with `Else` if it doesn't
type IfState struct {
	Match State
	Then  State
	Else  State
}

func (s *IfState) String() string {
	return fmt.Sprintf("If(%s, %s, %s)", stateName(s.Match), stateName(s.Then), stateName(s.Else))
}

// EnumState dispatches on the lower cased value of the current token
type EnumState struct {
	Map map[string]State
}

// Keys returns the dispatch keys in lexicographic order
func (s *EnumState) Keys() []string {
	keys := make([]string, 0, len(s.Map))
	for k := range s.Map {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *EnumState) String() string {
	return fmt.Sprintf("Enum(%s)", strings.Join(s.Keys(), ", "))
}

// MatchOnceState requires each one of the `Terms` to match at most
// once in any order.  When `All` is true, every term must match
// (`&&`), otherwise at least one of them (`||`).
type MatchOnceState struct {
	Terms  []State
	All    bool
	Syntax *GroupNode
}

func (s *MatchOnceState) String() string {
	comb := CombinatorAny
	if s.All {
		comb = CombinatorAll
	}
	names := make([]string, len(s.Terms))
	for i, term := range s.Terms {
		names[i] = stateName(term)
	}
	return fmt.Sprintf("MatchOnce[%s](%s)", comb, strings.Join(names, ", "))
}

// Leaf states.  Each one of them keeps a reference to the grammar node
// it was compiled from, which ends up in the trace of the match.

type KeywordState struct {
	Name   string
	Syntax Node
}

func (s *KeywordState) String() string { return "Keyword(" + s.Name + ")" }

type AtKeywordState struct {
	Name   string
	Syntax Node
}

func (s *AtKeywordState) String() string { return "AtKeyword(" + s.Name + ")" }

// FunctionState.Name includes the opening parenthesis, just like the
// value of function tokens
type FunctionState struct {
	Name   string
	Syntax Node
}

func (s *FunctionState) String() string { return "Function(" + s.Name + ")" }

type TypeState struct {
	Name   string
	Opts   *RangeOptions
	Syntax Node
}

func (s *TypeState) String() string { return "Type(" + s.Name + ")" }

type PropertyState struct {
	Name   string
	Syntax Node
}

func (s *PropertyState) String() string { return "Property(" + s.Name + ")" }

type TokenState struct {
	Value  string
	Syntax Node
}

func (s *TokenState) String() string { return "Token(" + s.Value + ")" }

// StringState.Value is the unquoted value that must be spelled by the
// concatenation of one or more tokens
type StringState struct {
	Value  string
	Syntax Node
}

func (s *StringState) String() string { return "String(" + s.Value + ")" }

type CommaState struct {
	Syntax Node
}

func (s *CommaState) String() string { return "Comma" }

// GenericFunc recognizes a value starting at `token`.  `next(n)`
// returns the n-th significant token after it, or nil past the end of
// the input.  It returns how many tokens make up the value, or zero if
// there isn't a match.
type GenericFunc func(token *Token, next func(int) *Token, opts *RangeOptions) int

// GenericState consumes the tokens recognized by a Go function rather
// than by a compiled grammar
type GenericState struct {
	Name   string
	Fn     GenericFunc
	Syntax Node
}

func (s *GenericState) String() string { return "Generic(" + s.Name + ")" }

func stateName(s State) string {
	if s == nil {
		return "<nil>"
	}
	switch s.(type) {
	case *IfState:
		return "If"
	case *EnumState:
		return "Enum"
	case *MatchOnceState:
		return "MatchOnce"
	}
	return s.String()
}
