package cssmatch

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testStylesheet = `
a { width: 10px; color: red; --gap: 1px 2px; }
.b, .c { width: 10px 20px !important; }
@media screen {
  .d { width: auto !important; }
}
`

func TestValidateStylesheet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dict := NewDictionary(nil)
	require.NoError(t, dict.AddProperty("width", "<length> | <percentage> | auto"))
	lexer, err := NewLexer(nil, dict, zap.New(core))
	require.NoError(t, err)

	report, err := ValidateStylesheet(lexer, testStylesheet)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Declarations)
	assert.Equal(t, 1, report.Errors())
	assert.False(t, report.Valid())
	require.Len(t, report.Issues, 3)

	unknown := report.Issues[0]
	assert.Equal(t, SeverityWarning, unknown.Severity)
	assert.Equal(t, "color", unknown.Property)
	assert.True(t, errors.Is(unknown.Err, ErrUnknownProperty))

	custom := report.Issues[1]
	assert.Equal(t, SeverityWarning, custom.Severity)
	assert.Equal(t, "--gap", custom.Property)
	assert.ErrorIs(t, custom.Err, ErrCustomProperty)

	mismatch := report.Issues[2]
	assert.Equal(t, SeverityError, mismatch.Severity)
	assert.Equal(t, ".b, .c", mismatch.Selector)
	assert.Equal(t, "width", mismatch.Property)
	assert.Equal(t, "10px 20px", mismatch.Value)
	assert.Contains(t, mismatch.String(), "error: .b, .c { width: 10px 20px }")

	assert.Equal(t, 3, logs.FilterMessage("declaration rejected").Len())
	summary := logs.FilterMessage("stylesheet validated").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(1), summary[0].ContextMap()["errors"])
}

func TestValidateStylesheetReader(t *testing.T) {
	lexer, err := NewLexer(nil, nil, nil)
	require.NoError(t, err)

	report, err := ValidateStylesheetReader(lexer, strings.NewReader("p { margin: 0 }"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Declarations)
	assert.True(t, report.Valid())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "p", report.Issues[0].Selector)
}

func TestDeclarationTokens(t *testing.T) {
	lexer := newTestLexer(t)
	decl := &Declaration{Selector: ".a", Property: "margin"}
	values := []css.Token{
		{TokenType: css.WhitespaceToken, Data: []byte(" ")},
		{TokenType: css.DimensionToken, Data: []byte("1px")},
		{TokenType: css.WhitespaceToken, Data: []byte(" ")},
		{TokenType: css.IdentToken, Data: []byte("auto")},
		{TokenType: css.WhitespaceToken, Data: []byte(" ")},
		{TokenType: css.DelimToken, Data: []byte("!")},
		{TokenType: css.IdentToken, Data: []byte("important")},
	}

	tokens := declarationTokens(decl, values)
	assert.Equal(t, "1px auto", TokensString(tokens))
	for _, token := range tokens {
		assert.Same(t, decl, token.Node)
	}

	result, err := lexer.MatchPropertyTokens(decl.Property, tokens)
	require.NoError(t, err)
	leaves := collectLeaves(result.Match)
	require.Len(t, leaves, 2)
	for _, leaf := range leaves {
		assert.Same(t, decl, leaf.Node)
	}
}

func collectLeaves(n *MatchNode) []*MatchNode {
	if n.IsToken() {
		return []*MatchNode{n}
	}
	var leaves []*MatchNode
	for _, child := range n.Match {
		leaves = append(leaves, collectLeaves(child)...)
	}
	return leaves
}

func TestTrimImportant(t *testing.T) {
	for _, test := range []struct {
		Input    string
		Expected string
	}{
		{"1px !important", "1px"},
		{" 1px ! IMPORTANT ", "1px"},
		{"important", "important"},
		{"a b", "a b"},
		{"", ""},
	} {
		t.Run(test.Input, func(t *testing.T) {
			tokens, err := Tokenize(test.Input)
			require.NoError(t, err)
			assert.Equal(t, test.Expected, TokensString(trimImportant(tokens)))
		})
	}
}
