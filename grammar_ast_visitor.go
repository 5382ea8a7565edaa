package cssmatch

import "fmt"

type NodeVisitor interface {
	VisitGroupNode(*GroupNode) error
	VisitMultiplierNode(*MultiplierNode) error
	VisitKeywordNode(*KeywordNode) error
	VisitAtKeywordNode(*AtKeywordNode) error
	VisitFunctionNode(*FunctionNode) error
	VisitTypeNode(*TypeNode) error
	VisitPropertyNode(*PropertyNode) error
	VisitTokenNode(*TokenNode) error
	VisitStringNode(*StringNode) error
	VisitCommaNode(*CommaNode) error
}

func WalkGroupNode(v NodeVisitor, n *GroupNode) error {
	for _, term := range n.Terms {
		if err := term.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

// Inspect traverses a grammar AST in depth-first order.  It calls the
// function f for each node in the tree.  If f returns true, Inspect
// continues to traverse the node's children; if it returns false,
// Inspect skips the children of the current node.
//
//	Inspect(node, func(n Node) bool {
//	    if ref, ok := n.(*TypeNode); ok {
//	        fmt.Println("Found type reference:", ref.Name)
//	    }
//	    return true
//	})
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	switch n := node.(type) {
	case *GroupNode:
		for _, term := range n.Terms {
			Inspect(term, f)
		}

	case *MultiplierNode:
		Inspect(n.Term, f)

	case *KeywordNode, *AtKeywordNode, *FunctionNode, *TypeNode,
		*PropertyNode, *TokenNode, *StringNode, *CommaNode:
		// Leaf nodes, so no children to traverse

	default:
		panic(fmt.Sprintf("Inspect is outdated, missing node %T", n))
	}
}
