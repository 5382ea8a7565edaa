package cssmatch

// The matcher keeps all of its state in persistent singly linked
// lists.  Pushing allocates a new head that shares the tail with the
// previous version of the list, so snapshots taken for backtracking
// are just pointers and restoring one never copies anything.

type entryKind int

const (
	entryKind_Stub entryKind = iota
	entryKind_Token
	entryKind_OpenSyntax
	entryKind_CloseSyntax
)

func (k entryKind) String() string {
	return map[entryKind]string{
		entryKind_Stub:        "Stub",
		entryKind_Token:       "Token",
		entryKind_OpenSyntax:  "OpenSyntax",
		entryKind_CloseSyntax: "CloseSyntax",
	}[k]
}

// matchEntry is one record of the trace.  Entries of kind OpenSyntax
// and CloseSyntax carry the token of the entry before them, which is
// what allows DisallowEmpty to compare tokens regardless of how many
// scopes were opened or closed in between.
type matchEntry struct {
	kind   entryKind
	syntax Node
	token  *Token
	prev   *matchEntry
}

// syntaxFrame is a type or property reference that's currently open
type syntaxFrame struct {
	syntax Node
	opts   *RangeOptions
	prev   *syntaxFrame
}

// thenFrame is where the matcher continues after the current state
// succeeds
type thenFrame struct {
	next        State
	matchStack  *matchEntry
	syntaxStack *syntaxFrame
	prev        *thenFrame
}

// elseFrame is a full snapshot of the matcher taken at a choice point
// so it can be restored when the current path fails
type elseFrame struct {
	next        State
	matchStack  *matchEntry
	syntaxStack *syntaxFrame
	thenStack   *thenFrame
	tokenIndex  int
	prev        *elseFrame
}

// bufferState walks the terms of a MatchOnceState.  `index` is the
// next term to try and `mask` has one bit set for each term matched
// so far.
type bufferState struct {
	syntax *MatchOnceState
	index  int
	mask   uint64
}

func (s *bufferState) String() string { return "MatchOnceBuffer" }

// addMatchOnceState records that a term of a MatchOnceState matched
type addMatchOnceState struct {
	syntax *MatchOnceState
	mask   uint64
}

func (s *addMatchOnceState) String() string { return "AddMatchOnce" }

func fullMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}
