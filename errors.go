package cssmatch

import (
	"errors"
	"fmt"
	"strings"
)

// GrammarSyntaxError is the error thrown when the definition syntax
// parser can't finish successfully
type GrammarSyntaxError struct {
	Message string
	Source  string
	Offset  int
}

// Error returns the message followed by the source text of the grammar
// and a caret pointing at the offset where the parser gave up
func (e *GrammarSyntaxError) Error() string {
	return fmt.Sprintf("%s\n  %s\n--%s^", e.Message, e.Source, strings.Repeat("-", e.Offset))
}

// backtrackingError is an internal error type that is captured by the
// Choice operator
type backtrackingError struct {
	Message string
	Offset  int
}

func (e backtrackingError) Error() string {
	return fmt.Sprintf("%s @ %d", e.Message, e.Offset)
}

func isthrown(err error) bool {
	var gse *GrammarSyntaxError
	return errors.As(err, &gse)
}

// ReferenceKind tells which dictionary a reference was looked up in
type ReferenceKind string

const (
	ReferenceType     ReferenceKind = "type"
	ReferenceProperty ReferenceKind = "property"
)

// ReferenceError is returned by the matcher when a grammar refers to
// a type or to a property that isn't available in the dictionary
// passed along with the tokens.  It isn't a mismatch: the grammar or
// the dictionary are broken.
type ReferenceError struct {
	Kind ReferenceKind
	Name string
}

func (e *ReferenceError) Error() string {
	return "Bad syntax reference: " + e.Reference()
}

// Reference renders the name the way it is written in a grammar
func (e *ReferenceError) Reference() string {
	if e.Kind == ReferenceProperty {
		return "<'" + e.Name + "'>"
	}
	return "<" + e.Name + ">"
}

// MatchError describes a value that doesn't conform to a grammar.
// Offset is the position within Value where the longest partial match
// stopped.
type MatchError struct {
	Message string
	Syntax  string
	Value   string
	Offset  int
}

func (e *MatchError) Error() string {
	value := e.Value
	if value == "" {
		value = "<empty string>"
	}
	return fmt.Sprintf(
		"%s\n  syntax: %s\n   value: %s\n  --------%s^",
		e.Message, e.Syntax, value, strings.Repeat("-", e.Offset),
	)
}

// ErrUnknownProperty is returned by the lexer when a property name
// isn't in the dictionary
var ErrUnknownProperty = errors.New("unknown property")

// ErrUnknownType is returned by the lexer when a type name isn't in
// the dictionary
var ErrUnknownType = errors.New("unknown type")

// ErrCustomProperty is returned by the lexer when asked to match the
// value of a custom property, which accepts anything
var ErrCustomProperty = errors.New("matching isn't applicable to custom properties")

// ErrVarFunction is returned by the lexer for values that use var(),
// which can only be matched after substitution
var ErrVarFunction = errors.New("matching a value with var() is not supported")
