package cssmatch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Syntaxes resolves the type and property references found while
// matching.  Lookups happen lazily, so a grammar can refer to itself.
// A nil graph with a nil error means the name isn't known.
type Syntaxes interface {
	LookupType(name string) (*MatchGraph, error)
	LookupProperty(name string) (*MatchGraph, error)
}

// Reason tells why the matcher stopped
type Reason int

const (
	ReasonMismatch Reason = iota
	ReasonMatch
	ReasonIterationLimit
)

func (r Reason) String() string {
	switch r {
	case ReasonMatch:
		return "Match"
	case ReasonMismatch:
		return "Mismatch"
	case ReasonIterationLimit:
		return "IterationLimitExceeded"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// MatchResult is the outcome shared by list and tree matches
type MatchResult struct {
	// Tokens is the input given to the matcher
	Tokens []Token

	Reason Reason

	// Iterations is how many steps the matcher took
	Iterations int

	// LongestMatch is the amount of significant tokens consumed
	// by the path that went the furthest, even if it failed
	LongestMatch int

	// significant maps indexes of significant tokens to their
	// indexes in Tokens
	significant []int

	trace *matchEntry
}

// Matched is a shortcut for checking the reason
func (r *MatchResult) Matched() bool {
	return r.Reason == ReasonMatch
}

// MismatchOffset returns the position, within the text of all the
// tokens, where the longest match stopped
func (r *MatchResult) MismatchOffset() int {
	end := len(r.Tokens)
	if r.LongestMatch < len(r.significant) {
		end = r.significant[r.LongestMatch]
	}
	offset := 0
	for _, t := range r.Tokens[:end] {
		offset += len([]rune(t.Value))
	}
	return offset
}

// Matcher walks match graphs against lists of tokens.  It holds no
// state of a match, so a single Matcher can be used by concurrent
// goroutines.
type Matcher struct {
	limit       int
	lowPriority bool
	significant SignificanceFunc
	counter     *IterationCounter
	logger      *zap.Logger
}

// NewMatcher reads the `matcher.*` settings from `cfg`.  A nil logger
// discards all the log entries.
func NewMatcher(cfg *Config, logger *zap.Logger) *Matcher {
	if cfg == nil {
		cfg = NewConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		limit:       cfg.GetInt("matcher.iteration_limit"),
		lowPriority: cfg.GetBool("matcher.low_priority_types"),
		significant: IsSignificant,
		logger:      logger,
	}
}

// WithCounter returns a copy of the matcher that records statistics of
// each match into `c`.  The receiver is left untouched.
func (m *Matcher) WithCounter(c *IterationCounter) *Matcher {
	n := *m
	n.counter = c
	return &n
}

// WithSignificance returns a copy of the matcher that uses `fn` to
// decide which tokens are skipped.  The receiver is left untouched.
func (m *Matcher) WithSignificance(fn SignificanceFunc) *Matcher {
	n := *m
	n.significant = fn
	return &n
}

// MatchList matches `tokens` against `graph` and returns the trace as
// a flat list
func (m *Matcher) MatchList(tokens []Token, graph *MatchGraph, syntaxes Syntaxes) (*ListResult, error) {
	r, err := m.match(tokens, graph, syntaxes)
	if err != nil {
		return nil, err
	}
	return &ListResult{MatchResult: *r, Match: traceList(r.trace)}, nil
}

// MatchTree matches `tokens` against `graph` and returns the trace as
// a tree of type and property scopes
func (m *Matcher) MatchTree(tokens []Token, graph *MatchGraph, syntaxes Syntaxes) (*TreeResult, error) {
	r, err := m.match(tokens, graph, syntaxes)
	if err != nil {
		return nil, err
	}
	return &TreeResult{MatchResult: *r, Match: traceTree(r.trace, graph.Syntax)}, nil
}

func (m *Matcher) match(tokens []Token, graph *MatchGraph, syntaxes Syntaxes) (*MatchResult, error) {
	ms := newMatchState(m, tokens, syntaxes)
	err := ms.run(graph)
	if err != nil {
		return nil, err
	}
	result := &MatchResult{
		Tokens:       tokens,
		Reason:       ms.reason,
		Iterations:   ms.iterations,
		LongestMatch: ms.longestMatch,
		significant:  ms.significant,
		trace:        ms.matchStack,
	}
	if ms.reason == ReasonIterationLimit {
		m.logger.Warn(
			"match iteration limit reached",
			zap.String("syntax", graph.Source),
			zap.Int("limit", m.limit),
			zap.Int("longest_match", ms.longestMatch),
		)
	}
	if m.counter != nil {
		m.counter.record(result)
	}
	return result, nil
}

// matchState is the execution state of a single match
type matchState struct {
	m        *Matcher
	syntaxes Syntaxes

	// tokens are the significant tokens of the input
	tokens      []*Token
	significant []int
	tokenIndex  int
	token       *Token

	state       State
	thenStack   *thenFrame
	elseStack   *elseFrame
	syntaxStack *syntaxFrame
	matchStack  *matchEntry

	// stash is a rollback point for low priority types, taken
	// the first time one of them shows up after a token was
	// consumed.  It's only restored once.
	stash         *elseFrame
	stashDisabled bool

	longestMatch int
	iterations   int
	reason       Reason
	done         bool
}

func newMatchState(m *Matcher, tokens []Token, syntaxes Syntaxes) *matchState {
	ms := &matchState{
		m:          m,
		syntaxes:   syntaxes,
		matchStack: &matchEntry{kind: entryKind_Stub},
	}
	for i := range tokens {
		if m.significant(&tokens[i]) {
			ms.tokens = append(ms.tokens, &tokens[i])
			ms.significant = append(ms.significant, i)
		}
	}
	ms.setTokenIndex(0)
	return ms
}

func (ms *matchState) run(graph *MatchGraph) error {
	ms.state = graph.Root

	for !ms.done && ms.iterations < ms.m.limit {
		ms.iterations++
		if err := ms.step(); err != nil {
			return err
		}
	}

	switch {
	case !ms.done:
		ms.reason = ReasonIterationLimit
		ms.matchStack = nil
	case ms.reason == ReasonMatch:
		for ms.syntaxStack != nil {
			ms.closeSyntax()
		}
	default:
		ms.matchStack = nil
	}
	return nil
}

func (ms *matchState) step() error {
	switch state := ms.state.(type) {
	case *sentinelState:
		switch state {
		case MatchState:
			ms.onMatch()
		case MismatchState:
			ms.onMismatch()
		default:
			panic(fmt.Sprintf("unexpected sentinel state: %s", state))
		}

	case *IfState:
		// the else frame must be pushed first as it snapshots
		// the then stack before it changes
		if state.Else != MismatchState {
			ms.pushElse(state.Else)
		}
		if state.Then != MatchState {
			ms.pushThen(state.Then)
		}
		ms.state = state.Match

	case *MatchOnceState:
		ms.state = &bufferState{syntax: state}

	case *bufferState:
		ms.onBuffer(state)

	case *addMatchOnceState:
		ms.state = &bufferState{syntax: state.syntax, mask: state.mask}

	case *EnumState:
		ms.state = MismatchState
		if ms.token != nil {
			name := stripHack(strings.ToLower(ms.token.Value))
			if next, ok := state.Map[name]; ok {
				ms.state = next
			}
		}

	case *GenericState:
		var opts *RangeOptions
		if ms.syntaxStack != nil {
			opts = ms.syntaxStack.opts
		}
		ms.state = MismatchState
		if n := state.Fn(ms.token, ms.nextToken, opts); n > 0 {
			for i := 0; i < n && ms.token != nil; i++ {
				ms.addTokenToMatch(state.Syntax)
			}
			ms.state = MatchState
		}

	case *TypeState:
		return ms.onReference(ReferenceType, state.Name, state, state.Opts)

	case *PropertyState:
		return ms.onReference(ReferenceProperty, state.Name, state, nil)

	case *KeywordState:
		if ms.token != nil && strings.EqualFold(stripHack(ms.token.Value), state.Name) {
			ms.addTokenToMatch(state.Syntax)
			ms.state = MatchState
		} else {
			ms.state = MismatchState
		}

	case *AtKeywordState:
		ms.matchFold(state.Name, state.Syntax)

	case *FunctionState:
		ms.matchFold(state.Name, state.Syntax)

	case *TokenState:
		if ms.token != nil && ms.token.Value == state.Value {
			ms.addTokenToMatch(state.Syntax)
			ms.state = MatchState
		} else {
			ms.state = MismatchState
		}

	case *CommaState:
		ms.onComma(state)

	case *StringState:
		ms.onString(state)

	default:
		panic(fmt.Sprintf("unknown state of the match graph: %T", state))
	}
	return nil
}

func (ms *matchState) onMatch() {
	if ms.thenStack == nil {
		// tokens left unmatched turn it into a mismatch, except
		// for a single trailing IE hack
		if ms.token != nil {
			last := ms.tokenIndex == len(ms.tokens)-1
			if !last || (ms.token.Value != `\0` && ms.token.Value != `\9`) {
				ms.state = MismatchState
				return
			}
		}
		ms.reason = ReasonMatch
		ms.done = true
		return
	}

	then := ms.thenStack
	ms.state = then.next
	if ms.state == DisallowEmptyState {
		if then.matchStack.token == ms.matchStack.token {
			ms.state = MismatchState
			return
		}
		ms.state = MatchState
	}
	for then.syntaxStack != ms.syntaxStack {
		ms.closeSyntax()
	}
	ms.thenStack = then.prev
}

func (ms *matchState) onMismatch() {
	if ms.stash != nil && !ms.stashDisabled {
		if ms.elseStack == nil || ms.tokenIndex > ms.elseStack.tokenIndex {
			ms.elseStack = ms.stash
			ms.stash = nil
			ms.stashDisabled = true
		}
	} else if ms.elseStack == nil {
		ms.reason = ReasonMismatch
		ms.done = true
		return
	}

	e := ms.elseStack
	ms.state = e.next
	ms.thenStack = e.thenStack
	ms.syntaxStack = e.syntaxStack
	ms.matchStack = e.matchStack
	ms.setTokenIndex(e.tokenIndex)
	ms.elseStack = e.prev
}

func (ms *matchState) onBuffer(state *bufferState) {
	terms := state.syntax.Terms
	if state.index == len(terms) {
		if state.mask == 0 || state.syntax.All {
			ms.state = MismatchState
		} else {
			ms.state = MatchState
		}
		return
	}
	if state.mask == fullMask(len(terms)) {
		ms.state = MatchState
		return
	}
	for i := state.index; i < len(terms); i++ {
		flag := uint64(1) << i
		if state.mask&flag != 0 {
			continue
		}
		ms.pushElse(&bufferState{syntax: state.syntax, index: i + 1, mask: state.mask})
		ms.pushThen(&addMatchOnceState{syntax: state.syntax, mask: state.mask | flag})
		ms.state = terms[i]
		return
	}
	ms.state = &bufferState{syntax: state.syntax, index: len(terms), mask: state.mask}
}

func (ms *matchState) onReference(kind ReferenceKind, name string, state State, opts *RangeOptions) error {
	graph, err := ms.lookup(kind, name)
	if err != nil {
		return err
	}
	if graph == nil {
		return &ReferenceError{Kind: kind, Name: name}
	}

	if kind == ReferenceType && ms.m.lowPriority && !ms.stashDisabled && ms.token != nil {
		lowPriority := (name == "custom-ident" && ms.token.Type == TokenType_Ident) ||
			(name == "length" && ms.token.Value == "0")
		if lowPriority {
			if ms.stash == nil {
				ms.stash = ms.snapshot(state)
			}
			ms.state = MismatchState
			return nil
		}
	}

	ms.openSyntax(syntaxOf(state), opts)
	ms.state = graph.Root
	return nil
}

func (ms *matchState) lookup(kind ReferenceKind, name string) (*MatchGraph, error) {
	if ms.syntaxes == nil {
		return nil, nil
	}
	if kind == ReferenceType {
		return ms.syntaxes.LookupType(name)
	}
	return ms.syntaxes.LookupProperty(name)
}

func (ms *matchState) onComma(state *CommaState) {
	if ms.token != nil && ms.token.Type == TokenType_Comma {
		if isCommaContextStart(ms.matchStack.token) {
			ms.state = MismatchState
			return
		}
		ms.addTokenToMatch(state.Syntax)
		if isCommaContextEnd(ms.token) {
			ms.state = MismatchState
		} else {
			ms.state = MatchState
		}
		return
	}
	if isCommaContextStart(ms.matchStack.token) || isCommaContextEnd(ms.token) {
		ms.state = MatchState
	} else {
		ms.state = MismatchState
	}
}

func (ms *matchState) onString(state *StringState) {
	var (
		s    strings.Builder
		last = ms.tokenIndex
	)
	for ; last < len(ms.tokens) && s.Len() < len(state.Value); last++ {
		s.WriteString(ms.tokens[last].Value)
	}
	if !strings.EqualFold(s.String(), state.Value) {
		ms.state = MismatchState
		return
	}
	for ms.tokenIndex < last {
		ms.addTokenToMatch(state.Syntax)
	}
	ms.state = MatchState
}

func (ms *matchState) matchFold(name string, syntax Node) {
	if ms.token != nil && strings.EqualFold(ms.token.Value, name) {
		ms.addTokenToMatch(syntax)
		ms.state = MatchState
		return
	}
	ms.state = MismatchState
}

func (ms *matchState) pushThen(next State) {
	ms.thenStack = &thenFrame{
		next:        next,
		matchStack:  ms.matchStack,
		syntaxStack: ms.syntaxStack,
		prev:        ms.thenStack,
	}
}

func (ms *matchState) pushElse(next State) {
	ms.elseStack = ms.snapshot(next)
}

func (ms *matchState) snapshot(next State) *elseFrame {
	return &elseFrame{
		next:        next,
		matchStack:  ms.matchStack,
		syntaxStack: ms.syntaxStack,
		thenStack:   ms.thenStack,
		tokenIndex:  ms.tokenIndex,
		prev:        ms.elseStack,
	}
}

func (ms *matchState) openSyntax(syntax Node, opts *RangeOptions) {
	if opts == nil && ms.syntaxStack != nil {
		opts = ms.syntaxStack.opts
	}
	ms.syntaxStack = &syntaxFrame{syntax: syntax, opts: opts, prev: ms.syntaxStack}
	ms.matchStack = &matchEntry{
		kind:   entryKind_OpenSyntax,
		syntax: syntax,
		token:  ms.matchStack.token,
		prev:   ms.matchStack,
	}
}

func (ms *matchState) closeSyntax() {
	if ms.matchStack.kind == entryKind_OpenSyntax {
		// nothing was matched within the scope
		ms.matchStack = ms.matchStack.prev
	} else {
		ms.matchStack = &matchEntry{
			kind:   entryKind_CloseSyntax,
			syntax: ms.syntaxStack.syntax,
			token:  ms.matchStack.token,
			prev:   ms.matchStack,
		}
	}
	ms.syntaxStack = ms.syntaxStack.prev
}

func (ms *matchState) addTokenToMatch(syntax Node) {
	ms.matchStack = &matchEntry{
		kind:   entryKind_Token,
		syntax: syntax,
		token:  ms.token,
		prev:   ms.matchStack,
	}
	ms.setTokenIndex(ms.tokenIndex + 1)
	ms.stash = nil
	ms.stashDisabled = false
	if ms.tokenIndex > ms.longestMatch {
		ms.longestMatch = ms.tokenIndex
	}
}

func (ms *matchState) setTokenIndex(i int) {
	ms.tokenIndex = i
	ms.token = ms.tokenAt(i)
}

func (ms *matchState) tokenAt(i int) *Token {
	if i >= 0 && i < len(ms.tokens) {
		return ms.tokens[i]
	}
	return nil
}

// nextToken is the lookahead given to generic types
func (ms *matchState) nextToken(offset int) *Token {
	return ms.tokenAt(ms.tokenIndex + offset)
}

func syntaxOf(s State) Node {
	switch state := s.(type) {
	case *TypeState:
		return state.Syntax
	case *PropertyState:
		return state.Syntax
	}
	return nil
}

// stripHack removes the `\0` and `\9` suffixes that target old
// versions of Internet Explorer
func stripHack(value string) string {
	for i := 0; i < len(value)-1; i++ {
		if value[i] == '\\' && (value[i+1] == '0' || value[i+1] == '9') {
			return value[:i]
		}
	}
	return value
}

func isCommaContextStart(t *Token) bool {
	if t == nil {
		return true
	}
	switch t.Type {
	case TokenType_Comma, TokenType_Function, TokenType_LeftParenthesis,
		TokenType_LeftBracket, TokenType_LeftBrace:
		return true
	case TokenType_Delim:
		return t.Value != "?"
	}
	return false
}

func isCommaContextEnd(t *Token) bool {
	if t == nil {
		return true
	}
	switch t.Type {
	case TokenType_RightParenthesis, TokenType_RightBracket, TokenType_RightBrace:
		return true
	case TokenType_Delim:
		return t.Value == "/"
	}
	return false
}
