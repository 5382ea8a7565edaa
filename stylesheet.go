package cssmatch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Declaration is attached as the Node of every value token handed to
// the lexer, so each token of a match trace points back at the
// declaration it was read from
type Declaration struct {
	Selector string
	Property string
}

// DeclarationIssue describes a declaration the lexer didn't accept
type DeclarationIssue struct {
	Severity Severity
	Selector string
	Property string
	Value    string
	Err      error
}

func (i DeclarationIssue) String() string {
	return fmt.Sprintf("%s: %s { %s: %s }: %s", i.Severity, i.Selector, i.Property, i.Value, i.Err)
}

// StylesheetReport is the outcome of validating a stylesheet
type StylesheetReport struct {
	Declarations int
	Issues       []DeclarationIssue
}

// Errors counts the issues with the error severity
func (r *StylesheetReport) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Valid is true when no declaration failed to match
func (r *StylesheetReport) Valid() bool {
	return r.Errors() == 0
}

// ValidateStylesheet parses the CSS in `src` and matches the value of
// every declaration against the grammar of its property.  Unknown and
// custom properties are reported as warnings.
func ValidateStylesheet(l *Lexer, src string) (*StylesheetReport, error) {
	return validateStylesheet(l, parse.NewInputString(src))
}

// ValidateStylesheetReader is like ValidateStylesheet but reads the
// stylesheet from `r`
func ValidateStylesheetReader(l *Lexer, r io.Reader) (*StylesheetReport, error) {
	return validateStylesheet(l, parse.NewInput(r))
}

func validateStylesheet(l *Lexer, input *parse.Input) (*StylesheetReport, error) {
	var (
		report    = &StylesheetReport{}
		selectors []string
		group     []string
		p         = css.NewParser(input, false)
	)

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && err != io.EOF {
				return report, err
			}
			l.logger.Info(
				"stylesheet validated",
				zap.Int("declarations", report.Declarations),
				zap.Int("issues", len(report.Issues)),
				zap.Int("errors", report.Errors()),
			)
			return report, nil

		case css.QualifiedRuleGrammar:
			// all but the last selector of a list
			group = append(group, strings.TrimSpace(TokensString(TokensFromCSS(p.Values()))))

		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			selector := strings.TrimSpace(string(data) + TokensString(TokensFromCSS(p.Values())))
			if len(group) > 0 {
				selector = strings.Join(append(group, selector), ", ")
				group = nil
			}
			selectors = append(selectors, selector)

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if len(selectors) > 0 {
				selectors = selectors[:len(selectors)-1]
			}

		case css.CustomPropertyGrammar:
			report.Declarations++
			report.add(l.logger, DeclarationIssue{
				Severity: SeverityWarning,
				Selector: currentSelector(selectors),
				Property: string(data),
				Value:    strings.TrimSpace(TokensString(TokensFromCSS(p.Values()))),
				Err:      ErrCustomProperty,
			})

		case css.DeclarationGrammar:
			report.Declarations++
			property := string(data)
			decl := &Declaration{Selector: currentSelector(selectors), Property: property}
			tokens := declarationTokens(decl, p.Values())
			_, err := l.MatchPropertyTokens(property, tokens)
			if err == nil {
				continue
			}
			severity := SeverityError
			if errors.Is(err, ErrUnknownProperty) || errors.Is(err, ErrVarFunction) {
				severity = SeverityWarning
			}
			report.add(l.logger, DeclarationIssue{
				Severity: severity,
				Selector: decl.Selector,
				Property: property,
				Value:    TokensString(tokens),
				Err:      err,
			})
		}
	}
}

// declarationTokens converts the value of `decl` and drops its
// `!important` annotation
func declarationTokens(decl *Declaration, values []css.Token) []Token {
	tokens := TokensFromCSS(values)
	for i := range tokens {
		tokens[i].Node = decl
	}
	return trimImportant(tokens)
}

func (r *StylesheetReport) add(logger *zap.Logger, issue DeclarationIssue) {
	logger.Debug(
		"declaration rejected",
		zap.Stringer("severity", issue.Severity),
		zap.String("selector", issue.Selector),
		zap.String("property", issue.Property),
		zap.String("value", issue.Value),
		zap.Error(issue.Err),
	)
	r.Issues = append(r.Issues, issue)
}

func currentSelector(selectors []string) string {
	return strings.Join(selectors, " ")
}

// trimImportant removes the `!important` annotation and the
// whitespace around the value
func trimImportant(tokens []Token) []Token {
	end := len(tokens)
	for end > 0 && !IsSignificant(&tokens[end-1]) {
		end--
	}
	if end > 0 && tokens[end-1].Type == TokenType_Ident && strings.EqualFold(tokens[end-1].Value, "important") {
		i := end - 1
		for i > 0 && !IsSignificant(&tokens[i-1]) {
			i--
		}
		if i > 0 && tokens[i-1].Type == TokenType_Delim && tokens[i-1].Value == "!" {
			end = i - 1
		}
	}
	start := 0
	for start < end && !IsSignificant(&tokens[start]) {
		start++
	}
	for end > start && !IsSignificant(&tokens[end-1]) {
		end--
	}
	return tokens[start:end]
}
