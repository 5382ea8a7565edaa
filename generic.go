package cssmatch

import (
	"strconv"
	"strings"
)

// Units accepted by each one of the dimension types
var (
	lengthUnits = unitSet(
		"cm", "mm", "q", "in", "pt", "pc", "px",
		"em", "rem", "ex", "rex", "cap", "rcap", "ch", "rch", "ic", "ric", "lh", "rlh",
		"vw", "svw", "lvw", "dvw", "vh", "svh", "lvh", "dvh",
		"vi", "svi", "lvi", "dvi", "vb", "svb", "lvb", "dvb",
		"vmin", "svmin", "lvmin", "dvmin", "vmax", "svmax", "lvmax", "dvmax",
		"cqw", "cqh", "cqi", "cqb", "cqmin", "cqmax",
	)
	angleUnits      = unitSet("deg", "grad", "rad", "turn")
	timeUnits       = unitSet("s", "ms")
	frequencyUnits  = unitSet("hz", "khz")
	resolutionUnits = unitSet("dpi", "dpcm", "dppx", "x")
	flexUnits       = unitSet("fr")
)

// mathFunctions can stand for any numeric value.  They aren't
// evaluated, only the balance of their parenthesis is checked.
var mathFunctions = unitSet(
	"calc(", "-moz-calc(", "-webkit-calc(",
	"min(", "max(", "clamp(",
)

// cssWideKeywords can't be used as a <custom-ident>
var cssWideKeywords = unitSet("inherit", "initial", "unset", "revert", "revert-layer", "default")

func unitSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, item := range items {
		m[item] = struct{}{}
	}
	return m
}

// GenericTypes returns the recognizers of the types that can't be
// described with the definition syntax, keyed by type name
func GenericTypes() map[string]GenericFunc {
	return map[string]GenericFunc{
		"ident":                genericTokenType(TokenType_Ident),
		"custom-ident":         customIdent,
		"dashed-ident":         dashedIdent,
		"custom-property-name": dashedIdent,
		"string":               genericTokenType(TokenType_String),
		"url":                  url,
		"hex-color":            hexColor,
		"number":               withMath(number),
		"integer":              withMath(integer),
		"percentage":           withMath(percentage),
		"zero":                 zero,
		"dimension":            withMath(dimension(nil)),
		"length":               withMath(zeroOr(dimension(lengthUnits))),
		"angle":                withMath(zeroOr(dimension(angleUnits))),
		"time":                 withMath(dimension(timeUnits)),
		"frequency":            withMath(dimension(frequencyUnits)),
		"resolution":           withMath(dimension(resolutionUnits)),
		"flex":                 withMath(dimension(flexUnits)),
		"declaration-value":    declarationValue,
		"any-value":            anyValue,
		"urange":               genericTokenType(TokenType_UnicodeRange),
	}
}

func genericTokenType(tt TokenType) GenericFunc {
	return func(token *Token, _ func(int) *Token, _ *RangeOptions) int {
		if token != nil && token.Type == tt {
			return 1
		}
		return 0
	}
}

func customIdent(token *Token, _ func(int) *Token, _ *RangeOptions) int {
	if token == nil || token.Type != TokenType_Ident {
		return 0
	}
	if _, reserved := cssWideKeywords[strings.ToLower(token.Value)]; reserved {
		return 0
	}
	return 1
}

func dashedIdent(token *Token, _ func(int) *Token, _ *RangeOptions) int {
	if token == nil || token.Type != TokenType_Ident {
		return 0
	}
	if !strings.HasPrefix(token.Value, "--") || len(token.Value) < 3 {
		return 0
	}
	return 1
}

func url(token *Token, next func(int) *Token, _ *RangeOptions) int {
	if token == nil {
		return 0
	}
	if token.Type == TokenType_URL {
		return 1
	}
	if token.Type == TokenType_Function && strings.EqualFold(token.Value, "url(") {
		str, end := next(1), next(2)
		if str != nil && str.Type == TokenType_String && end != nil && end.Type == TokenType_RightParenthesis {
			return 3
		}
	}
	return 0
}

func hexColor(token *Token, _ func(int) *Token, _ *RangeOptions) int {
	if token == nil || token.Type != TokenType_Hash {
		return 0
	}
	digits := strings.TrimPrefix(token.Value, "#")
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return 0
	}
	for _, c := range digits {
		if !isHexDigit(c) {
			return 0
		}
	}
	return 1
}

func number(token *Token, _ func(int) *Token, opts *RangeOptions) int {
	if token == nil || token.Type != TokenType_Number {
		return 0
	}
	return inRange(token.Value, opts)
}

func integer(token *Token, _ func(int) *Token, opts *RangeOptions) int {
	if token == nil || token.Type != TokenType_Number {
		return 0
	}
	if strings.ContainsAny(token.Value, ".eE") {
		return 0
	}
	return inRange(token.Value, opts)
}

func percentage(token *Token, _ func(int) *Token, opts *RangeOptions) int {
	if token == nil || token.Type != TokenType_Percentage {
		return 0
	}
	return inRange(strings.TrimSuffix(token.Value, "%"), opts)
}

func zero(token *Token, _ func(int) *Token, _ *RangeOptions) int {
	if token == nil || token.Type != TokenType_Number {
		return 0
	}
	if v, err := strconv.ParseFloat(token.Value, 64); err != nil || v != 0 {
		return 0
	}
	return 1
}

// dimension recognizes dimension tokens whose unit is in `units`.  A
// nil set accepts any unit.
func dimension(units map[string]struct{}) GenericFunc {
	return func(token *Token, _ func(int) *Token, opts *RangeOptions) int {
		if token == nil || token.Type != TokenType_Dimension {
			return 0
		}
		n := numericPrefix(token.Value)
		if n == 0 || n == len(token.Value) {
			return 0
		}
		if units != nil {
			if _, ok := units[strings.ToLower(token.Value[n:])]; !ok {
				return 0
			}
		}
		return inRange(token.Value[:n], opts)
	}
}

func zeroOr(fn GenericFunc) GenericFunc {
	return func(token *Token, next func(int) *Token, opts *RangeOptions) int {
		if n := zero(token, next, opts); n > 0 {
			return n
		}
		return fn(token, next, opts)
	}
}

// withMath also accepts math functions in place of the value
// recognized by `fn`
func withMath(fn GenericFunc) GenericFunc {
	return func(token *Token, next func(int) *Token, opts *RangeOptions) int {
		if token != nil && token.Type == TokenType_Function {
			if _, ok := mathFunctions[strings.ToLower(token.Value)]; ok {
				return consumeFunction(next)
			}
			return 0
		}
		return fn(token, next, opts)
	}
}

// consumeFunction counts the tokens of a function including the
// closing parenthesis.  It returns zero if the function isn't closed.
func consumeFunction(next func(int) *Token) int {
	depth := 1
	for i := 1; ; i++ {
		t := next(i)
		if t == nil {
			return 0
		}
		switch t.Type {
		case TokenType_Function, TokenType_LeftParenthesis:
			depth++
		case TokenType_RightParenthesis:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
}

func declarationValue(token *Token, next func(int) *Token, _ *RangeOptions) int {
	return consumeBalanced(token, next, true)
}

func anyValue(token *Token, next func(int) *Token, _ *RangeOptions) int {
	return consumeBalanced(token, next, false)
}

// consumeBalanced counts tokens until a closing bracket that wasn't
// opened within the value.  Declaration values also stop at bad
// tokens and at top level semicolons and bangs.
func consumeBalanced(token *Token, next func(int) *Token, declaration bool) int {
	var (
		closers []TokenType
		count   int
	)
	for t := token; t != nil; t = next(count) {
		switch t.Type {
		case TokenType_BadString, TokenType_BadURL:
			if declaration {
				return count
			}
		case TokenType_Semicolon:
			if declaration && len(closers) == 0 {
				return count
			}
		case TokenType_Delim:
			if declaration && len(closers) == 0 && t.Value == "!" {
				return count
			}
		case TokenType_Function, TokenType_LeftParenthesis:
			closers = append(closers, TokenType_RightParenthesis)
		case TokenType_LeftBracket:
			closers = append(closers, TokenType_RightBracket)
		case TokenType_LeftBrace:
			closers = append(closers, TokenType_RightBrace)
		case TokenType_RightParenthesis, TokenType_RightBracket, TokenType_RightBrace:
			if len(closers) == 0 || closers[len(closers)-1] != t.Type {
				return count
			}
			closers = closers[:len(closers)-1]
		}
		count++
	}
	return count
}

// numericPrefix returns the length of the number at the beginning of
// `s` using the grammar of CSS numbers
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i+1 < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

// inRange returns 1 if the number `s` is within `opts`
func inRange(s string, opts *RangeOptions) int {
	if opts == nil {
		return 1
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !opts.Contains(v) {
		return 0
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
