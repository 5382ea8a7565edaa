package cssmatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is the interface implemented by every node of the grammar AST
// produced by the definition syntax parser.  Nodes are never mutated
// after they're built, so a single AST can be compiled many times.
type Node interface {
	// Accept dispatches the node to the right method of the
	// visitor `v`
	Accept(v NodeVisitor) error

	// Text is the definition syntax representation of the node,
	// useful for showing a grammar back to humans
	Text() string

	// String returns a debugging representation of the node
	String() string
}

// Combinator joins the terms of a group
type Combinator int

const (
	// CombinatorJuxtapose requires all terms in the given order
	CombinatorJuxtapose Combinator = iota

	// CombinatorAll (&&) requires all terms in any order
	CombinatorAll

	// CombinatorAny (||) requires one or more terms in any order
	CombinatorAny

	// CombinatorOne (|) requires exactly one of the terms
	CombinatorOne
)

func (c Combinator) String() string {
	switch c {
	case CombinatorJuxtapose:
		return " "
	case CombinatorAll:
		return "&&"
	case CombinatorAny:
		return "||"
	case CombinatorOne:
		return "|"
	default:
		return fmt.Sprintf("Combinator(%d)", int(c))
	}
}

// Unbounded is the value of `MultiplierNode.Max` when there's no
// upper limit for the amount of repetitions
const Unbounded = -1

// Node Type: Group

type GroupNode struct {
	Terms         []Node
	Combinator    Combinator
	DisallowEmpty bool

	// Explicit is true when the group was written within
	// brackets.  The implicit group is the one wrapping the whole
	// definition.
	Explicit bool
}

func NewGroupNode(terms []Node, combinator Combinator, explicit bool) *GroupNode {
	return &GroupNode{Terms: terms, Combinator: combinator, Explicit: explicit}
}

func (n *GroupNode) Accept(v NodeVisitor) error { return v.VisitGroupNode(n) }

func (n *GroupNode) Text() string {
	var (
		s   strings.Builder
		sep = " " + n.Combinator.String() + " "
	)
	if n.Combinator == CombinatorJuxtapose {
		sep = " "
	}
	if n.Explicit {
		s.WriteString("[ ")
	}
	for i, term := range n.Terms {
		if i > 0 {
			s.WriteString(sep)
		}
		s.WriteString(term.Text())
	}
	if n.Explicit {
		s.WriteString(" ]")
		if n.DisallowEmpty {
			s.WriteString("!")
		}
	}
	return s.String()
}

func (n *GroupNode) String() string {
	return nodesString(fmt.Sprintf("Group[%s]", n.Combinator), n.Terms)
}

// Node Type: Multiplier

type MultiplierNode struct {
	Term  Node
	Min   int
	Max   int
	Comma bool
}

func NewMultiplierNode(term Node, min, max int, comma bool) *MultiplierNode {
	return &MultiplierNode{Term: term, Min: min, Max: max, Comma: comma}
}

func (n *MultiplierNode) Accept(v NodeVisitor) error { return v.VisitMultiplierNode(n) }

func (n *MultiplierNode) Text() string {
	return n.Term.Text() + n.multiplierText()
}

func (n *MultiplierNode) multiplierText() string {
	switch {
	case n.Comma && n.Min == 1 && n.Max == Unbounded:
		return "#"
	case !n.Comma && n.Min == 0 && n.Max == Unbounded:
		return "*"
	case !n.Comma && n.Min == 1 && n.Max == Unbounded:
		return "+"
	case !n.Comma && n.Min == 0 && n.Max == 1:
		return "?"
	}
	prefix := ""
	if n.Comma {
		prefix = "#"
	}
	switch {
	case n.Min == n.Max:
		return fmt.Sprintf("%s{%d}", prefix, n.Min)
	case n.Max == Unbounded:
		return fmt.Sprintf("%s{%d,}", prefix, n.Min)
	default:
		return fmt.Sprintf("%s{%d,%d}", prefix, n.Min, n.Max)
	}
}

func (n *MultiplierNode) String() string {
	return fmt.Sprintf("Multiplier[%s](%s)", n.multiplierText(), n.Term)
}

// Node Type: Keyword

type KeywordNode struct{ Name string }

func NewKeywordNode(name string) *KeywordNode { return &KeywordNode{Name: name} }

func (n *KeywordNode) Accept(v NodeVisitor) error { return v.VisitKeywordNode(n) }
func (n *KeywordNode) Text() string               { return n.Name }
func (n *KeywordNode) String() string             { return fmt.Sprintf("Keyword(%s)", n.Name) }

// Node Type: AtKeyword

type AtKeywordNode struct{ Name string }

func NewAtKeywordNode(name string) *AtKeywordNode { return &AtKeywordNode{Name: name} }

func (n *AtKeywordNode) Accept(v NodeVisitor) error { return v.VisitAtKeywordNode(n) }
func (n *AtKeywordNode) Text() string               { return "@" + n.Name }
func (n *AtKeywordNode) String() string             { return fmt.Sprintf("AtKeyword(%s)", n.Name) }

// Node Type: Function
//
// Name doesn't include the opening parenthesis.  The closing one is a
// separate token term in the grammar.

type FunctionNode struct{ Name string }

func NewFunctionNode(name string) *FunctionNode { return &FunctionNode{Name: name} }

func (n *FunctionNode) Accept(v NodeVisitor) error { return v.VisitFunctionNode(n) }
func (n *FunctionNode) Text() string               { return n.Name + "(" }
func (n *FunctionNode) String() string             { return fmt.Sprintf("Function(%s)", n.Name) }

// Node Type: Type

type TypeNode struct {
	Name string

	// Opts is only set when the reference carries a numeric
	// range, e.g.: `<number [0,1]>`
	Opts *RangeOptions
}

func NewTypeNode(name string, opts *RangeOptions) *TypeNode {
	return &TypeNode{Name: name, Opts: opts}
}

func (n *TypeNode) Accept(v NodeVisitor) error { return v.VisitTypeNode(n) }

func (n *TypeNode) Text() string {
	if n.Opts != nil {
		return fmt.Sprintf("<%s %s>", n.Name, n.Opts)
	}
	return "<" + n.Name + ">"
}

func (n *TypeNode) String() string { return fmt.Sprintf("Type(%s)", n.Name) }

// Node Type: Property

type PropertyNode struct{ Name string }

func NewPropertyNode(name string) *PropertyNode { return &PropertyNode{Name: name} }

func (n *PropertyNode) Accept(v NodeVisitor) error { return v.VisitPropertyNode(n) }
func (n *PropertyNode) Text() string               { return "<'" + n.Name + "'>" }
func (n *PropertyNode) String() string             { return fmt.Sprintf("Property(%s)", n.Name) }

// Node Type: Token

type TokenNode struct{ Value string }

func NewTokenNode(value string) *TokenNode { return &TokenNode{Value: value} }

func (n *TokenNode) Accept(v NodeVisitor) error { return v.VisitTokenNode(n) }
func (n *TokenNode) Text() string               { return n.Value }
func (n *TokenNode) String() string             { return fmt.Sprintf("Token(%s)", n.Value) }

// Node Type: String
//
// Value keeps the quotes the string was written with

type StringNode struct{ Value string }

func NewStringNode(value string) *StringNode { return &StringNode{Value: value} }

func (n *StringNode) Accept(v NodeVisitor) error { return v.VisitStringNode(n) }
func (n *StringNode) Text() string               { return n.Value }
func (n *StringNode) String() string             { return fmt.Sprintf("String(%s)", n.Value) }

// Unquoted returns the contents of the string without the delimiters
func (n *StringNode) Unquoted() string {
	if len(n.Value) < 2 {
		return n.Value
	}
	return strings.ReplaceAll(n.Value[1:len(n.Value)-1], `\'`, `'`)
}

// Node Type: Comma

type CommaNode struct{}

func NewCommaNode() *CommaNode { return &CommaNode{} }

func (n *CommaNode) Accept(v NodeVisitor) error { return v.VisitCommaNode(n) }
func (n *CommaNode) Text() string               { return "," }
func (n *CommaNode) String() string             { return "Comma" }

// RangeOptions restrict the numeric value accepted by a generic type
type RangeOptions struct {
	Min float64
	Max float64
}

// Contains returns true if `v` is within the closed interval
func (r *RangeOptions) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r *RangeOptions) String() string {
	return fmt.Sprintf("[%s,%s]", formatRangeBound(r.Min), formatRangeBound(r.Max))
}

func formatRangeBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Helpers

func nodesString(name string, items []Node) string {
	var (
		s  strings.Builder
		ln = len(items) - 1
	)

	s.WriteString(name)
	s.WriteString("(")

	for i, child := range items {
		s.WriteString(child.String())

		if i < ln {
			s.WriteString(", ")
		}
	}

	s.WriteString(")")
	return s.String()
}
