package cssmatch

import (
	"fmt"
	"strings"

	"github.com/clarete/cssmatch/ascii"
)

// TraceKind tells what an item of a list trace represents
type TraceKind int

const (
	TraceKind_Token TraceKind = iota
	TraceKind_OpenSyntax
	TraceKind_CloseSyntax
)

func (k TraceKind) String() string {
	switch k {
	case TraceKind_Token:
		return "Token"
	case TraceKind_OpenSyntax:
		return "OpenSyntax"
	case TraceKind_CloseSyntax:
		return "CloseSyntax"
	default:
		return fmt.Sprintf("TraceKind(%d)", int(k))
	}
}

// MatchItem is an entry of a list trace.  Token and Node are only set
// for items of kind TraceKind_Token.
type MatchItem struct {
	Kind   TraceKind
	Syntax Node
	Token  string
	Node   any
}

func (i MatchItem) String() string {
	switch i.Kind {
	case TraceKind_Token:
		return fmt.Sprintf("%q", i.Token)
	default:
		return fmt.Sprintf("%s(%s)", i.Kind, syntaxText(i.Syntax))
	}
}

// ListResult is the outcome of Matcher.MatchList.  Match is nil
// unless the tokens matched.
type ListResult struct {
	MatchResult
	Match []MatchItem
}

// MatchedTokens returns the values of the token items of the trace
func (r *ListResult) MatchedTokens() []string {
	var values []string
	for _, item := range r.Match {
		if item.Kind == TraceKind_Token {
			values = append(values, item.Token)
		}
	}
	return values
}

// MatchNode is a node of a tree trace.  Scope nodes have a Syntax and
// children in Match.  Token nodes are leaves with the token value.
type MatchNode struct {
	Syntax Node
	Token  string
	Node   any
	Match  []*MatchNode

	isToken bool
}

// IsToken returns true for leaves holding a token
func (n *MatchNode) IsToken() bool { return n.isToken }

// Tokens returns the values of all the token leaves under the node in
// the order they were matched
func (n *MatchNode) Tokens() []string {
	var values []string
	var walk func(*MatchNode)
	walk = func(node *MatchNode) {
		if node.isToken {
			values = append(values, node.Token)
			return
		}
		for _, child := range node.Match {
			walk(child)
		}
	}
	walk(n)
	return values
}

// TreeResult is the outcome of Matcher.MatchTree.  Match is nil
// unless the tokens matched.
type TreeResult struct {
	MatchResult
	Match *MatchNode
}

// chronological walks the trace from its head, which is the last
// entry recorded, and returns the entries in the order they were
// recorded without the initial stub
func chronological(trace *matchEntry) []*matchEntry {
	var entries []*matchEntry
	for e := trace; e != nil; e = e.prev {
		if e.kind != entryKind_Stub {
			entries = append(entries, e)
		}
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

func traceList(trace *matchEntry) []MatchItem {
	if trace == nil {
		return nil
	}
	entries := chronological(trace)
	items := make([]MatchItem, 0, len(entries))
	for _, e := range entries {
		switch e.kind {
		case entryKind_OpenSyntax:
			items = append(items, MatchItem{Kind: TraceKind_OpenSyntax, Syntax: e.syntax})
		case entryKind_CloseSyntax:
			items = append(items, MatchItem{Kind: TraceKind_CloseSyntax, Syntax: e.syntax})
		default:
			items = append(items, MatchItem{
				Kind:   TraceKind_Token,
				Syntax: e.syntax,
				Token:  e.token.Value,
				Node:   e.token.Node,
			})
		}
	}
	return items
}

func traceTree(trace *matchEntry, root Node) *MatchNode {
	if trace == nil {
		return nil
	}
	host := &MatchNode{Syntax: root, Match: []*MatchNode{}}
	hosts := []*MatchNode{host}
	for _, e := range chronological(trace) {
		switch e.kind {
		case entryKind_OpenSyntax:
			child := &MatchNode{Syntax: e.syntax, Match: []*MatchNode{}}
			host.Match = append(host.Match, child)
			host = child
			hosts = append(hosts, host)
		case entryKind_CloseSyntax:
			hosts = hosts[:len(hosts)-1]
			host = hosts[len(hosts)-1]
		default:
			host.Match = append(host.Match, &MatchNode{
				Syntax:  e.syntax,
				Token:   e.token.Value,
				Node:    e.token.Node,
				isToken: true,
			})
		}
	}
	return hosts[0]
}

type TraceFormatToken int

const (
	TraceFormatToken_None TraceFormatToken = iota
	TraceFormatToken_Syntax
	TraceFormatToken_Token
)

func traceThemeFormat(theme ascii.Theme) FormatFunc[TraceFormatToken] {
	colors := map[TraceFormatToken]string{
		TraceFormatToken_Syntax: theme.Reference,
		TraceFormatToken_Token:  theme.Token,
	}
	return func(input string, token TraceFormatToken) string {
		return ascii.Color(colors[token], "%s", input)
	}
}

// PrettyString renders the tree with the syntax of each scope and the
// value of each token
func (n *MatchNode) PrettyString() string {
	return ppMatchNode(n, plainFormat[TraceFormatToken])
}

// HighlightPrettyString is like PrettyString but uses the colors of
// `theme`
func (n *MatchNode) HighlightPrettyString(theme ascii.Theme) string {
	return ppMatchNode(n, traceThemeFormat(theme))
}

func ppMatchNode(n *MatchNode, format FormatFunc[TraceFormatToken]) string {
	tp := newTreePrinter(format)
	var pp func(*MatchNode)
	pp = func(node *MatchNode) {
		if node.isToken {
			tp.writef(fmt.Sprintf("%q", node.Token), TraceFormatToken_Token)
			if node.Syntax != nil {
				tp.write(" ")
				tp.writef(node.Syntax.Text(), TraceFormatToken_None)
			}
			return
		}
		tp.writef(syntaxText(node.Syntax), TraceFormatToken_Syntax)
		tp.children(len(node.Match), func(i int) { pp(node.Match[i]) })
	}
	pp(n)
	return tp.String()
}

// FormatList renders a list trace one item per line, indenting the
// items within each scope
func FormatList(items []MatchItem) string {
	var (
		s     strings.Builder
		depth int
	)
	for _, item := range items {
		if item.Kind == TraceKind_CloseSyntax {
			depth--
		}
		s.WriteString(strings.Repeat("  ", max(depth, 0)))
		s.WriteString(item.String())
		s.WriteString("\n")
		if item.Kind == TraceKind_OpenSyntax {
			depth++
		}
	}
	return s.String()
}

func syntaxText(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Text()
}
