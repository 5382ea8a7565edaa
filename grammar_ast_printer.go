package cssmatch

import (
	"fmt"

	"github.com/clarete/cssmatch/ascii"
)

type AstFormatToken int

const (
	AstFormatToken_None AstFormatToken = iota
	AstFormatToken_Combinator
	AstFormatToken_Multiplier
	AstFormatToken_Reference
	AstFormatToken_Literal
)

func astThemeFormat(theme ascii.Theme) FormatFunc[AstFormatToken] {
	colors := map[AstFormatToken]string{
		AstFormatToken_Combinator: theme.Combinator,
		AstFormatToken_Multiplier: theme.Multiplier,
		AstFormatToken_Reference:  theme.Reference,
		AstFormatToken_Literal:    theme.Keyword,
	}
	return func(input string, token AstFormatToken) string {
		return ascii.Color(colors[token], "%s", input)
	}
}

// PrettyString renders the grammar AST `n` as a tree without colors
func PrettyString(n Node) string {
	return ppNode(n, plainFormat[AstFormatToken])
}

// HighlightPrettyString renders the grammar AST `n` as a tree using
// the colors of `theme`
func HighlightPrettyString(n Node, theme ascii.Theme) string {
	return ppNode(n, astThemeFormat(theme))
}

func ppNode(n Node, format FormatFunc[AstFormatToken]) string {
	gp := &grammarPrinter{newTreePrinter(format)}
	n.Accept(gp)
	return gp.String()
}

type grammarPrinter struct {
	*treePrinter[AstFormatToken]
}

func (gp *grammarPrinter) VisitGroupNode(n *GroupNode) error {
	name := "Group"
	if n.DisallowEmpty {
		name = "Group!"
	}
	gp.writef(name, AstFormatToken_None)
	gp.writef(fmt.Sprintf("[%s]", n.Combinator), AstFormatToken_Combinator)
	gp.children(len(n.Terms), func(i int) { n.Terms[i].Accept(gp) })
	return nil
}

func (gp *grammarPrinter) VisitMultiplierNode(n *MultiplierNode) error {
	gp.writef("Multiplier", AstFormatToken_None)
	gp.writef(fmt.Sprintf("[%s]", n.multiplierText()), AstFormatToken_Multiplier)
	gp.children(1, func(int) { n.Term.Accept(gp) })
	return nil
}

func (gp *grammarPrinter) VisitKeywordNode(n *KeywordNode) error {
	gp.leaf("Keyword", n.Name, AstFormatToken_Literal)
	return nil
}

func (gp *grammarPrinter) VisitAtKeywordNode(n *AtKeywordNode) error {
	gp.leaf("AtKeyword", n.Name, AstFormatToken_Literal)
	return nil
}

func (gp *grammarPrinter) VisitFunctionNode(n *FunctionNode) error {
	gp.leaf("Function", n.Name, AstFormatToken_Literal)
	return nil
}

func (gp *grammarPrinter) VisitTypeNode(n *TypeNode) error {
	name := n.Name
	if n.Opts != nil {
		name += " " + n.Opts.String()
	}
	gp.leaf("Type", name, AstFormatToken_Reference)
	return nil
}

func (gp *grammarPrinter) VisitPropertyNode(n *PropertyNode) error {
	gp.leaf("Property", n.Name, AstFormatToken_Reference)
	return nil
}

func (gp *grammarPrinter) VisitTokenNode(n *TokenNode) error {
	gp.leaf("Token", escapeLiteral(n.Value), AstFormatToken_Literal)
	return nil
}

func (gp *grammarPrinter) VisitStringNode(n *StringNode) error {
	gp.leaf("String", escapeLiteral(n.Value), AstFormatToken_Literal)
	return nil
}

func (gp *grammarPrinter) VisitCommaNode(n *CommaNode) error {
	gp.writef("Comma", AstFormatToken_None)
	return nil
}

func (gp *grammarPrinter) leaf(name, operand string, token AstFormatToken) {
	gp.writef(name, AstFormatToken_None)
	gp.write("[")
	gp.writef(operand, token)
	gp.write("]")
}
