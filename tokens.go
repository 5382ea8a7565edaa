package cssmatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// TokenType enumerates the kinds of tokens of CSS Syntax Level 3
type TokenType int

const (
	TokenType_Unknown TokenType = iota
	TokenType_Ident
	TokenType_Function
	TokenType_AtKeyword
	TokenType_Hash
	TokenType_String
	TokenType_BadString
	TokenType_URL
	TokenType_BadURL
	TokenType_Delim
	TokenType_Number
	TokenType_Percentage
	TokenType_Dimension
	TokenType_UnicodeRange
	TokenType_IncludeMatch
	TokenType_DashMatch
	TokenType_PrefixMatch
	TokenType_SuffixMatch
	TokenType_SubstringMatch
	TokenType_Column
	TokenType_Whitespace
	TokenType_CDO
	TokenType_CDC
	TokenType_Colon
	TokenType_Semicolon
	TokenType_Comma
	TokenType_LeftBracket
	TokenType_RightBracket
	TokenType_LeftParenthesis
	TokenType_RightParenthesis
	TokenType_LeftBrace
	TokenType_RightBrace
	TokenType_Comment
)

var tokenTypeNames = map[TokenType]string{
	TokenType_Unknown:          "unknown",
	TokenType_Ident:            "ident",
	TokenType_Function:         "function",
	TokenType_AtKeyword:        "at-keyword",
	TokenType_Hash:             "hash",
	TokenType_String:           "string",
	TokenType_BadString:        "bad-string",
	TokenType_URL:              "url",
	TokenType_BadURL:           "bad-url",
	TokenType_Delim:            "delim",
	TokenType_Number:           "number",
	TokenType_Percentage:       "percentage",
	TokenType_Dimension:        "dimension",
	TokenType_UnicodeRange:     "unicode-range",
	TokenType_IncludeMatch:     "include-match",
	TokenType_DashMatch:        "dash-match",
	TokenType_PrefixMatch:      "prefix-match",
	TokenType_SuffixMatch:      "suffix-match",
	TokenType_SubstringMatch:   "substring-match",
	TokenType_Column:           "column",
	TokenType_Whitespace:       "whitespace",
	TokenType_CDO:              "cdo",
	TokenType_CDC:              "cdc",
	TokenType_Colon:            "colon",
	TokenType_Semicolon:        "semicolon",
	TokenType_Comma:            "comma",
	TokenType_LeftBracket:      "[",
	TokenType_RightBracket:     "]",
	TokenType_LeftParenthesis:  "(",
	TokenType_RightParenthesis: ")",
	TokenType_LeftBrace:        "{",
	TokenType_RightBrace:       "}",
	TokenType_Comment:          "comment",
}

func (tt TokenType) String() string {
	if name, ok := tokenTypeNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

var fromCSSTokenType = map[css.TokenType]TokenType{
	css.IdentToken:               TokenType_Ident,
	css.CustomPropertyNameToken:  TokenType_Ident,
	css.FunctionToken:            TokenType_Function,
	css.AtKeywordToken:           TokenType_AtKeyword,
	css.HashToken:                TokenType_Hash,
	css.StringToken:              TokenType_String,
	css.BadStringToken:           TokenType_BadString,
	css.URLToken:                 TokenType_URL,
	css.BadURLToken:              TokenType_BadURL,
	css.DelimToken:               TokenType_Delim,
	css.NumberToken:              TokenType_Number,
	css.PercentageToken:          TokenType_Percentage,
	css.DimensionToken:           TokenType_Dimension,
	css.UnicodeRangeToken:        TokenType_UnicodeRange,
	css.IncludeMatchToken:        TokenType_IncludeMatch,
	css.DashMatchToken:           TokenType_DashMatch,
	css.PrefixMatchToken:         TokenType_PrefixMatch,
	css.SuffixMatchToken:         TokenType_SuffixMatch,
	css.SubstringMatchToken:      TokenType_SubstringMatch,
	css.ColumnToken:              TokenType_Column,
	css.WhitespaceToken:          TokenType_Whitespace,
	css.CDOToken:                 TokenType_CDO,
	css.CDCToken:                 TokenType_CDC,
	css.ColonToken:               TokenType_Colon,
	css.SemicolonToken:           TokenType_Semicolon,
	css.CommaToken:               TokenType_Comma,
	css.LeftBracketToken:         TokenType_LeftBracket,
	css.RightBracketToken:        TokenType_RightBracket,
	css.LeftParenthesisToken:     TokenType_LeftParenthesis,
	css.RightParenthesisToken:    TokenType_RightParenthesis,
	css.LeftBraceToken:           TokenType_LeftBrace,
	css.RightBraceToken:          TokenType_RightBrace,
	css.CommentToken:             TokenType_Comment,
	css.CustomPropertyValueToken: TokenType_Unknown,
}

// Token is a single lexical unit of a CSS value.  Node optionally
// points back at whatever structure the token was read from.
type Token struct {
	Type  TokenType
	Value string
	Node  any
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Tokenize breaks `src` down into CSS tokens.  Function tokens keep
// their opening parenthesis and at-keywords keep the `@`.
func Tokenize(src string) ([]Token, error) {
	return tokenizeInput(parse.NewInputString(src))
}

// TokenizeReader is like Tokenize but reads the source from `r`
func TokenizeReader(r io.Reader) ([]Token, error) {
	return tokenizeInput(parse.NewInput(r))
}

func tokenizeInput(input *parse.Input) ([]Token, error) {
	var (
		tokens []Token
		l      = css.NewLexer(input)
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return tokens, nil
		}
		tokens = append(tokens, Token{Type: fromCSSTokenType[tt], Value: string(data)})
	}
}

// TokensFromCSS converts tokens produced by the tdewolff parser
func TokensFromCSS(values []css.Token) []Token {
	tokens := make([]Token, 0, len(values))
	for _, v := range values {
		tokens = append(tokens, Token{Type: fromCSSTokenType[v.TokenType], Value: string(v.Data)})
	}
	return tokens
}

// SignificanceFunc tells whether the matcher should see a token or
// skip it
type SignificanceFunc func(t *Token) bool

// IsSignificant is the default SignificanceFunc, it skips whitespace
// and comments
func IsSignificant(t *Token) bool {
	return t.Type != TokenType_Whitespace && t.Type != TokenType_Comment
}

// TokensString joins the values of all the tokens back into text
func TokensString(tokens []Token) string {
	var s strings.Builder
	for _, t := range tokens {
		s.WriteString(t.Value)
	}
	return s.String()
}
