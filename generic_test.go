package cssmatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lookahead serves the tokens of `src` the way the matcher does,
// skipping whitespace and comments
func lookahead(t *testing.T, src string) (*Token, func(int) *Token) {
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	var significant []*Token
	for i := range tokens {
		if IsSignificant(&tokens[i]) {
			significant = append(significant, &tokens[i])
		}
	}
	next := func(offset int) *Token {
		if offset >= 0 && offset < len(significant) {
			return significant[offset]
		}
		return nil
	}
	return next(0), next
}

func TestGenericTypes(t *testing.T) {
	generics := GenericTypes()

	for _, test := range []struct {
		Type     string
		Value    string
		Consumed int
	}{
		{"ident", "solid", 1},
		{"ident", "10px", 0},
		{"custom-ident", "my-anim", 1},
		{"custom-ident", "INITIAL", 0},
		{"custom-ident", "default", 0},
		{"dashed-ident", "--brand", 1},
		{"dashed-ident", "brand", 0},
		{"string", `"a"`, 1},
		{"url", "url(a.png)", 1},
		{"url", `url("a.png")`, 1},
		{"hex-color", "#AbC", 1},
		{"hex-color", "#abcd", 1},
		{"hex-color", "#abcde", 0},
		{"hex-color", "#ggg", 0},
		{"number", "-1.5e3", 1},
		{"number", "1px", 0},
		{"integer", "42", 1},
		{"integer", "4.2", 0},
		{"percentage", "12.5%", 1},
		{"zero", "0", 1},
		{"zero", "0.0", 1},
		{"zero", "1", 0},
		{"length", "0", 1},
		{"length", "12PX", 1},
		{"length", "1deg", 0},
		{"length", "1", 0},
		{"angle", "0", 1},
		{"angle", ".5turn", 1},
		{"time", "0", 0},
		{"time", "200ms", 1},
		{"frequency", "1kHz", 1},
		{"resolution", "2x", 1},
		{"flex", "1fr", 1},
		{"dimension", "3whatever", 1},
		{"length", "calc(1px + (2px * 3))", 9},
		{"length", "calc(1px", 0},
		{"number", "foo(1)", 0},
		{"urange", "U+0-7F", 1},
		{"any-value", "a (b [c]) d", 8},
		{"any-value", "a ) b", 1},
		{"declaration-value", "a b ! c", 2},
		{"declaration-value", "a (b ; c) ; d", 6},
	} {
		t.Run(test.Type+" <- "+test.Value, func(t *testing.T) {
			fn, ok := generics[test.Type]
			require.True(t, ok)
			token, next := lookahead(t, test.Value)
			assert.Equal(t, test.Consumed, fn(token, next, nil))
		})
	}
}

func TestGenericTypesWithRange(t *testing.T) {
	generics := GenericTypes()
	unit := &RangeOptions{Min: 0, Max: 1}
	positive := &RangeOptions{Min: 0, Max: math.Inf(1)}

	for _, test := range []struct {
		Type     string
		Value    string
		Opts     *RangeOptions
		Consumed int
	}{
		{"number", "0.5", unit, 1},
		{"number", "1.5", unit, 0},
		{"integer", "-1", positive, 0},
		{"percentage", "100%", positive, 1},
		{"length", "-2px", positive, 0},
		{"length", "2px", positive, 1},
	} {
		t.Run(test.Type+" <- "+test.Value, func(t *testing.T) {
			token, next := lookahead(t, test.Value)
			assert.Equal(t, test.Consumed, generics[test.Type](token, next, test.Opts))
		})
	}
}

func TestGenericURLFunction(t *testing.T) {
	// url( with a quoted string made of separate tokens, as produced
	// by tokenizers that don't fold it into a single url token
	for _, test := range []struct {
		Name     string
		Tokens   []Token
		Consumed int
	}{
		{
			Name: "function with a string",
			Tokens: []Token{
				{Type: TokenType_Function, Value: "url("},
				{Type: TokenType_String, Value: `"a.png"`},
				{Type: TokenType_RightParenthesis, Value: ")"},
			},
			Consumed: 3,
		},
		{
			Name: "extra token before the parenthesis",
			Tokens: []Token{
				{Type: TokenType_Function, Value: "URL("},
				{Type: TokenType_String, Value: `"a.png"`},
				{Type: TokenType_Ident, Value: "x"},
				{Type: TokenType_RightParenthesis, Value: ")"},
			},
			Consumed: 0,
		},
		{
			Name: "unclosed",
			Tokens: []Token{
				{Type: TokenType_Function, Value: "url("},
				{Type: TokenType_String, Value: `"a.png"`},
			},
			Consumed: 0,
		},
		{
			Name: "other function",
			Tokens: []Token{
				{Type: TokenType_Function, Value: "src("},
				{Type: TokenType_String, Value: `"a.png"`},
				{Type: TokenType_RightParenthesis, Value: ")"},
			},
			Consumed: 0,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			next := func(offset int) *Token {
				if offset < len(test.Tokens) {
					return &test.Tokens[offset]
				}
				return nil
			}
			assert.Equal(t, test.Consumed, url(&test.Tokens[0], next, nil))
		})
	}

	t.Run("matched through a grammar", func(t *testing.T) {
		graph := compileForTest(t, "<url> | none", nil)
		tokens := []Token{
			{Type: TokenType_Function, Value: "url("},
			{Type: TokenType_String, Value: `"a.png"`},
			{Type: TokenType_RightParenthesis, Value: ")"},
		}
		result, err := NewMatcher(nil, nil).MatchList(tokens, graph, NewDictionary(nil))
		require.NoError(t, err)
		assert.Equal(t, ReasonMatch, result.Reason)
		assert.Equal(t, []string{"url(", `"a.png"`, ")"}, result.MatchedTokens())
	})
}

func TestGenericTypesAtTheEnd(t *testing.T) {
	for name, fn := range GenericTypes() {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0, fn(nil, func(int) *Token { return nil }, nil))
		})
	}
}

func TestNumericPrefix(t *testing.T) {
	for _, test := range []struct {
		Input    string
		Expected int
	}{
		{"12px", 2},
		{"-1.5em", 4},
		{"+.5x", 3},
		{"1e3dpi", 3},
		{"1em", 1},
		{"1.px", 1},
		{"px", 0},
		{"-", 0},
	} {
		t.Run(test.Input, func(t *testing.T) {
			assert.Equal(t, test.Expected, numericPrefix(test.Input))
		})
	}
}
