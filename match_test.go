package cssmatch

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func matchList(t *testing.T, cfg *Config, syntaxes Syntaxes, grammar, value string) *ListResult {
	graph := compileForTest(t, grammar, cfg)
	tokens, err := Tokenize(value)
	require.NoError(t, err)
	result, err := NewMatcher(cfg, zap.NewNop()).MatchList(tokens, graph, syntaxes)
	require.NoError(t, err)
	return result
}

func significantValues(t *testing.T, value string) []string {
	tokens, err := Tokenize(value)
	require.NoError(t, err)
	var values []string
	for i := range tokens {
		if IsSignificant(&tokens[i]) {
			values = append(values, tokens[i].Value)
		}
	}
	return values
}

type matchCase struct {
	Value   string
	Matches bool
}

func runMatchCases(t *testing.T, grammar string, cases []matchCase) {
	for _, test := range cases {
		t.Run(grammar+" <- "+test.Value, func(t *testing.T) {
			result := matchList(t, nil, NewDictionary(nil), grammar, test.Value)
			if test.Matches {
				require.Equal(t, ReasonMatch, result.Reason)
				assert.Equal(t, significantValues(t, test.Value), result.MatchedTokens())
			} else {
				require.Equal(t, ReasonMismatch, result.Reason)
				assert.Nil(t, result.Match)
			}
		})
	}
}

func TestMatchCombinators(t *testing.T) {
	runMatchCases(t, "a b", []matchCase{
		{"a b", true},
		{"b a", false},
		{"a", false},
		{"a b b", false},
	})
	runMatchCases(t, "a | b", []matchCase{
		{"a", true},
		{"b", true},
		{"a b", false},
		{"", false},
	})
	runMatchCases(t, "a && b", []matchCase{
		{"a b", true},
		{"b a", true},
		{"a", false},
		{"b", false},
		{"", false},
		{"a b a", false},
	})
	runMatchCases(t, "a || b", []matchCase{
		{"a", true},
		{"b", true},
		{"a b", true},
		{"b a", true},
		{"", false},
		{"a b a", false},
	})
	runMatchCases(t, "a && [ b || c ] && d", []matchCase{
		{"d c a", true},
		{"b c a d", true},
		{"b a c d", false},
		{"a d", false},
	})
}

func TestMatchMultipliers(t *testing.T) {
	repeat := func(n int) string {
		return strings.TrimSpace(strings.Repeat("a ", n))
	}

	for n := 0; n <= 5; n++ {
		runMatchCases(t, "a{2,4}", []matchCase{{repeat(n), n >= 2 && n <= 4}})
		runMatchCases(t, "a*", []matchCase{{repeat(n), true}})
		runMatchCases(t, "a+", []matchCase{{repeat(n), n >= 1}})
		runMatchCases(t, "a?", []matchCase{{repeat(n), n <= 1}})
		runMatchCases(t, "a{3}", []matchCase{{repeat(n), n == 3}})
		runMatchCases(t, "a{2,}", []matchCase{{repeat(n), n >= 2}})
	}

	runMatchCases(t, "[ a? ]*", []matchCase{
		{"", true},
		{"a a", true},
	})
	runMatchCases(t, "[ a? ]!", []matchCase{
		{"a", true},
		{"", false},
	})
	runMatchCases(t, "a b* c", []matchCase{
		{"a c", true},
		{"a b b c", true},
		{"a b b", false},
	})
}

func TestMatchComma(t *testing.T) {
	runMatchCases(t, "a#{2,3}", []matchCase{
		{"a, a", true},
		{"a,a,a", true},
		{"a, a, a", true},
		{"a a", false},
		{"a,", false},
		{",a", false},
		{"a, a, a, a", false},
	})
	runMatchCases(t, "a#", []matchCase{
		{"a", true},
		{"a, a, a", true},
		{"a,, a", false},
	})
	runMatchCases(t, "f( a , b )", []matchCase{
		{"f(a, b)", true},
		{"f(a b)", false},
	})
	runMatchCases(t, "a [ , b ]?", []matchCase{
		{"a, b", true},
		{"a b", false},
		{"a", true},
	})
	runMatchCases(t, "a / , b", []matchCase{
		// commas are optional next to a slash
		{"a / b", true},
	})
}

func TestMatchStringsAndTokens(t *testing.T) {
	runMatchCases(t, "a '/' b", []matchCase{
		{"a / b", true},
		{"a b", false},
	})
	runMatchCases(t, "'-->'", []matchCase{
		{"-->", true},
	})
	runMatchCases(t, "@media | @page", []matchCase{
		{"@MEDIA", true},
		{"@import", false},
	})
	runMatchCases(t, "rgb( a )", []matchCase{
		{"RGB(a)", true},
		{"rgb (a)", false},
	})
}

func TestMatchEnumEquivalence(t *testing.T) {
	folded := NewConfig()
	chained := NewConfig()
	chained.SetBool("compiler.enum_folding", false)

	for _, value := range []string{"auto", "NONE", "Inherit", "other", "auto none", "", "none\\9"} {
		t.Run(value, func(t *testing.T) {
			r1 := matchList(t, folded, nil, "auto | none | inherit", value)
			r2 := matchList(t, chained, nil, "auto | none | inherit", value)
			assert.Equal(t, r1.Reason, r2.Reason)
			assert.Equal(t, r1.MatchedTokens(), r2.MatchedTokens())
		})
	}

	r := matchList(t, folded, nil, "auto | none | inherit", "NONE")
	assert.Equal(t, ReasonMatch, r.Reason)
}

func TestMatchIEHacks(t *testing.T) {
	graph := compileForTest(t, "red | blue", nil)
	matcher := NewMatcher(nil, zap.NewNop())

	t.Run("hack suffix on a keyword", func(t *testing.T) {
		tokens := []Token{{Type: TokenType_Ident, Value: `red\9`}}
		result, err := matcher.MatchList(tokens, graph, nil)
		require.NoError(t, err)
		assert.Equal(t, ReasonMatch, result.Reason)
	})

	t.Run("single trailing hack token", func(t *testing.T) {
		tokens := []Token{
			{Type: TokenType_Ident, Value: "red"},
			{Type: TokenType_Whitespace, Value: " "},
			{Type: TokenType_Ident, Value: `\9`},
		}
		result, err := matcher.MatchList(tokens, graph, nil)
		require.NoError(t, err)
		assert.Equal(t, ReasonMatch, result.Reason)
		assert.Equal(t, []string{"red"}, result.MatchedTokens())
	})

	t.Run("hack token that is not the last", func(t *testing.T) {
		tokens := []Token{
			{Type: TokenType_Ident, Value: "red"},
			{Type: TokenType_Ident, Value: `\9`},
			{Type: TokenType_Ident, Value: "blue"},
		}
		result, err := matcher.MatchList(tokens, graph, nil)
		require.NoError(t, err)
		assert.Equal(t, ReasonMismatch, result.Reason)
	})
}

func TestMatchIterationLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	graph := compileForTest(t, "[ a | a a ]*", nil)
	tokens, err := Tokenize(strings.Repeat("a ", 30) + "c")
	require.NoError(t, err)

	counter := &IterationCounter{}
	result, err := NewMatcher(nil, zap.New(core)).WithCounter(counter).MatchList(tokens, graph, nil)
	require.NoError(t, err)

	assert.Equal(t, ReasonIterationLimit, result.Reason)
	assert.Equal(t, "IterationLimitExceeded", result.Reason.String())
	assert.Equal(t, 10000, result.Iterations)
	assert.Nil(t, result.Match)
	assert.Equal(t, 1, logs.FilterMessage("match iteration limit reached").Len())
	assert.Equal(t, int64(1), counter.Limited())

	t.Run("configured limit", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetInt("matcher.iteration_limit", 50)
		result := matchList(t, cfg, nil, "a+", strings.Repeat("a ", 100))
		assert.Equal(t, ReasonIterationLimit, result.Reason)
		assert.Equal(t, 50, result.Iterations)
	})
}

func TestMatchReferenceErrors(t *testing.T) {
	matcher := NewMatcher(nil, zap.NewNop())
	tokens, err := Tokenize("x")
	require.NoError(t, err)

	for _, test := range []struct {
		Grammar  string
		Syntaxes Syntaxes
		Message  string
	}{
		{"<undefinedType>", NewDictionary(nil), "Bad syntax reference: <undefinedType>"},
		{"<undefinedType>", nil, "Bad syntax reference: <undefinedType>"},
		{"y | <'foo'>", NewDictionary(nil), "Bad syntax reference: <'foo'>"},
	} {
		t.Run(test.Grammar, func(t *testing.T) {
			graph := compileForTest(t, test.Grammar, nil)
			_, err := matcher.MatchList(tokens, graph, test.Syntaxes)
			require.Error(t, err)
			assert.Equal(t, test.Message, err.Error())

			var refErr *ReferenceError
			require.ErrorAs(t, err, &refErr)
		})
	}

	t.Run("kind of the reference", func(t *testing.T) {
		graph := compileForTest(t, "<'foo'>", nil)
		_, err := matcher.MatchTree(tokens, graph, NewDictionary(nil))
		var refErr *ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, ReferenceProperty, refErr.Kind)
		assert.Equal(t, "foo", refErr.Name)
	})
}

func TestMatchLowPriorityTypes(t *testing.T) {
	dict := NewDictionary(nil)

	t.Run("keywords win over custom-ident", func(t *testing.T) {
		graph := compileForTest(t, "<custom-ident> | auto", nil)
		tokens, err := Tokenize("auto")
		require.NoError(t, err)
		result, err := NewMatcher(nil, zap.NewNop()).MatchTree(tokens, graph, dict)
		require.NoError(t, err)
		require.Equal(t, ReasonMatch, result.Reason)

		leaf := result.Match.Match[0]
		require.True(t, leaf.IsToken())
		assert.IsType(t, &KeywordNode{}, leaf.Syntax)
	})

	t.Run("custom-ident is still tried last", func(t *testing.T) {
		graph := compileForTest(t, "<custom-ident> | auto", nil)
		tokens, err := Tokenize("foo")
		require.NoError(t, err)
		result, err := NewMatcher(nil, zap.NewNop()).MatchTree(tokens, graph, dict)
		require.NoError(t, err)
		require.Equal(t, ReasonMatch, result.Reason)

		scope := result.Match.Match[0]
		require.False(t, scope.IsToken())
		assert.Equal(t, "<custom-ident>", scope.Syntax.Text())
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("matcher.low_priority_types", false)
		graph := compileForTest(t, "<custom-ident> | auto", cfg)
		tokens, err := Tokenize("auto")
		require.NoError(t, err)
		result, err := NewMatcher(cfg, zap.NewNop()).MatchTree(tokens, graph, dict)
		require.NoError(t, err)
		require.Equal(t, ReasonMatch, result.Reason)

		scope := result.Match.Match[0]
		require.False(t, scope.IsToken())
		assert.Equal(t, "<custom-ident>", scope.Syntax.Text())
	})

	t.Run("unitless zero", func(t *testing.T) {
		result := matchList(t, nil, dict, "<length> | <number>", "0")
		require.Equal(t, ReasonMatch, result.Reason)
		require.Len(t, result.Match, 3)
		assert.Equal(t, "<number>", result.Match[0].Syntax.Text())
	})
}

func TestMatchGenerics(t *testing.T) {
	dict := NewDictionary(nil)
	for _, test := range []struct {
		Grammar string
		Value   string
		Matches bool
	}{
		{"rgb( <number>#{3} )", "rgb(1, 2, 3)", true},
		{"rgb( <number>#{3} )", "rgb(1, 2)", false},
		{"<number [0,1]>", "0.5", true},
		{"<number [0,1]>", "2", false},
		{"<length>{1,4}", "1px 2em 0 3vh", true},
		{"<length>", "10deg", false},
		{"<length> | auto", "calc(1px + 2%)", true},
		{"<percentage>", "50%", true},
		{"<hex-color>", "#fff", true},
		{"<hex-color>", "#ffff1", false},
		{"<url>", "url(foo.png)", true},
		{"<url>", `url("foo.png")`, true},
		{"<dashed-ident>", "--main", true},
		{"<custom-ident>", "inherit", false},
		{"<integer>", "1.5", false},
		{"<string>+", `"a" 'b'`, true},
	} {
		t.Run(test.Grammar+" <- "+test.Value, func(t *testing.T) {
			result := matchList(t, nil, dict, test.Grammar, test.Value)
			if test.Matches {
				require.Equal(t, ReasonMatch, result.Reason)
				assert.Equal(t, significantValues(t, test.Value), result.MatchedTokens())
			} else {
				assert.Equal(t, ReasonMismatch, result.Reason)
			}
		})
	}
}

func TestMatchRangeOptionsAreInherited(t *testing.T) {
	dict := NewDictionary(nil)
	require.NoError(t, dict.AddType("alpha", "<number>"))

	result := matchList(t, nil, dict, "<alpha [0,1]>", "0.5")
	assert.Equal(t, ReasonMatch, result.Reason)

	result = matchList(t, nil, dict, "<alpha [0,1]>", "5")
	assert.Equal(t, ReasonMismatch, result.Reason)
}

func TestMatchRecursiveTypes(t *testing.T) {
	dict := NewDictionary(nil)
	require.NoError(t, dict.AddType("nested", "x | ( <nested> )"))

	runCases := func(value string, matches bool) {
		result := matchList(t, nil, dict, "<nested>", value)
		assert.Equal(t, matches, result.Matched(), value)
	}
	runCases("x", true)
	runCases("((x))", true)
	runCases("((x)", false)
}

func TestMatchLongestMatch(t *testing.T) {
	result := matchList(t, nil, nil, "a b c", "a b d")
	assert.Equal(t, ReasonMismatch, result.Reason)
	assert.Equal(t, 2, result.LongestMatch)
	assert.Equal(t, 4, result.MismatchOffset())
}

func TestMatchSignificance(t *testing.T) {
	graph := compileForTest(t, "a b", nil)
	tokens, err := Tokenize("a /* note */ b")
	require.NoError(t, err)

	result, err := NewMatcher(nil, nil).MatchList(tokens, graph, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonMatch, result.Reason)

	// comments become visible to the grammar
	onlyWhitespace := func(t *Token) bool { return t.Type != TokenType_Whitespace }
	result, err = NewMatcher(nil, nil).WithSignificance(onlyWhitespace).MatchList(tokens, graph, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonMismatch, result.Reason)
}

func TestMatchConcurrently(t *testing.T) {
	dict := NewDictionary(nil)
	require.NoError(t, dict.AddProperty("margin", "[ <length> | auto ]{1,4}"))
	graph := compileForTest(t, "<'margin'>#", nil)
	matcher := NewMatcher(nil, zap.NewNop()).WithCounter(&IterationCounter{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens, err := Tokenize("1px auto, 0 2px 3px 4px")
			assert.NoError(t, err)
			result, err := matcher.MatchTree(tokens, graph, dict)
			assert.NoError(t, err)
			assert.Equal(t, ReasonMatch, result.Reason)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(16), matcher.counter.Matches())
}
