package cssmatch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileForTest(t *testing.T, grammar string, cfg *Config) *MatchGraph {
	graph, err := CompileString(grammar, cfg)
	require.NoError(t, err)
	return graph
}

func TestCompile(t *testing.T) {
	t.Run("keywords are lower cased", func(t *testing.T) {
		graph := compileForTest(t, "AUTO", nil)
		kw, ok := graph.Root.(*KeywordState)
		require.True(t, ok)
		assert.Equal(t, "auto", kw.Name)

		// the AST is left untouched
		assert.Equal(t, "AUTO", graph.Syntax.Text())
	})

	t.Run("leaves", func(t *testing.T) {
		for _, test := range []struct {
			Grammar  string
			Expected string
		}{
			{"@Media", "AtKeyword(@media)"},
			{"RGB(", "Function(rgb()"},
			{"<length>", "Type(length)"},
			{"<'margin'>", "Property(margin)"},
			{"'/'", "Token(/)"},
			{"'and'", "String(and)"},
			{",", "Comma"},
		} {
			graph := compileForTest(t, test.Grammar, nil)
			assert.Equal(t, test.Expected, graph.Root.String())
		}
	})

	t.Run("juxtaposition", func(t *testing.T) {
		graph := compileForTest(t, "a b", nil)
		cond, ok := graph.Root.(*IfState)
		require.True(t, ok)
		assert.Equal(t, "Keyword(a)", cond.Match.String())
		assert.Equal(t, "Keyword(b)", cond.Then.String())
		assert.Same(t, MismatchState, cond.Else)
	})

	t.Run("enum folding", func(t *testing.T) {
		graph := compileForTest(t, "a | B | c", nil)
		enum, ok := graph.Root.(*EnumState)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}, enum.Keys())
	})

	t.Run("enum folding with functions", func(t *testing.T) {
		graph := compileForTest(t, "<rgb()> | hsl( | none", nil)
		enum, ok := graph.Root.(*EnumState)
		require.True(t, ok)
		assert.Equal(t, []string{"hsl(", "none", "rgb("}, enum.Keys())
		assert.Equal(t, "Type(rgb())", enum.Map["rgb("].String())
	})

	t.Run("enum folding disabled", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("compiler.enum_folding", false)
		graph := compileForTest(t, "a | b | c", cfg)

		cond, ok := graph.Root.(*IfState)
		require.True(t, ok)
		assert.Equal(t, "Keyword(a)", cond.Match.String())
		assert.Same(t, MatchState, cond.Then)

		next, ok := cond.Else.(*IfState)
		require.True(t, ok)
		assert.Equal(t, "Keyword(b)", next.Match.String())
		assert.Equal(t, "Keyword(c)", next.Else.String())
	})

	t.Run("enum folding with duplicated keys", func(t *testing.T) {
		graph := compileForTest(t, "a | a", nil)
		cond, ok := graph.Root.(*IfState)
		require.True(t, ok)
		assert.Equal(t, "Keyword(a)", cond.Match.String())
		assert.IsType(t, &EnumState{}, cond.Else)
	})

	t.Run("enum needs a run of two", func(t *testing.T) {
		graph := compileForTest(t, "<length> | auto", nil)
		cond, ok := graph.Root.(*IfState)
		require.True(t, ok)
		assert.Equal(t, "Type(length)", cond.Match.String())
		assert.Equal(t, "Keyword(auto)", cond.Else.String())
	})

	t.Run("match once", func(t *testing.T) {
		for _, test := range []struct {
			Grammar string
			All     bool
		}{
			{"a && b && c", true},
			{"a || b", false},
		} {
			graph := compileForTest(t, test.Grammar, nil)
			once, ok := graph.Root.(*MatchOnceState)
			require.True(t, ok)
			assert.Equal(t, test.All, once.All)
			assert.Len(t, once.Terms, len(strings.Split(test.Grammar, " "))/2+1)
		}
	})

	t.Run("match once with too many terms", func(t *testing.T) {
		terms := make([]string, maxMatchOnceTerms+1)
		for i := range terms {
			terms[i] = fmt.Sprintf("k%d", i)
		}
		_, err := CompileString(strings.Join(terms, " && "), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "supports up to 64")
	})

	t.Run("disallow empty", func(t *testing.T) {
		graph := compileForTest(t, "[ a ]!", nil)
		cond, ok := graph.Root.(*IfState)
		require.True(t, ok)
		assert.Equal(t, "Keyword(a)", cond.Match.String())
		assert.Same(t, DisallowEmptyState, cond.Then)
	})

	t.Run("unbounded multiplier loops", func(t *testing.T) {
		graph := compileForTest(t, "a*", nil)

		// zero occurrences are tried first
		optional, ok := graph.Root.(*IfState)
		require.True(t, ok)
		assert.Same(t, MatchState, optional.Match)
		assert.Same(t, MatchState, optional.Then)

		loop, ok := optional.Else.(*IfState)
		require.True(t, ok)
		next, ok := loop.Then.(*IfState)
		require.True(t, ok)
		assert.Same(t, loop, next.Else)

		term, ok := loop.Match.(*IfState)
		require.True(t, ok)
		assert.Same(t, DisallowEmptyState, term.Then)
	})

	t.Run("comma separated loop", func(t *testing.T) {
		graph := compileForTest(t, "a#", nil)
		loop, ok := graph.Root.(*IfState)
		require.True(t, ok)
		next := loop.Then.(*IfState)
		comma, ok := next.Else.(*IfState)
		require.True(t, ok)
		assert.IsType(t, &CommaState{}, comma.Match)
		assert.Same(t, loop, comma.Then)
	})

	t.Run("compiling twice gives the same shape", func(t *testing.T) {
		node, err := ParseGrammar("[ A | b ]{1,3} && <x>")
		require.NoError(t, err)
		g1, err := Compile(node, nil)
		require.NoError(t, err)
		g2, err := Compile(node, nil)
		require.NoError(t, err)
		assert.Equal(t, g1.Root.String(), g2.Root.String())
		assert.Equal(t, "[ A | b ]{1,3} && <x>", node.Text())
	})
}
