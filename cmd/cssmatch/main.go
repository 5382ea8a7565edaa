package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clarete/cssmatch"
	"github.com/clarete/cssmatch/ascii"
)

type args struct {
	syntax   *string
	typeName *string
	property *string
	value    *string

	dictPath       *string
	stylesheetPath *string

	showAST  *bool
	showList *bool
	showTree *bool

	iterationLimit *int
	noEnumFolding  *bool
	noColors       *bool
	verbose        *bool
}

func readArgs() *args {
	a := &args{
		syntax:   flag.String("syntax", "", "Value definition syntax to match against"),
		typeName: flag.String("type", "", "Name of the dictionary type to match against"),
		property: flag.String("property", "", "Name of the dictionary property to match against"),
		value:    flag.String("value", "", "CSS value to match. Values are read from the standard input when empty"),

		dictPath:       flag.String("dict", "", "Path to a YAML dictionary file (.gz and .zst are decompressed)"),
		stylesheetPath: flag.String("stylesheet", "", "Path to a stylesheet to validate against the dictionary"),

		// Debugging Options

		showAST:  flag.Bool("ast", false, "Output the AST of the syntax"),
		showList: flag.Bool("list", false, "Output the match as a flat list"),
		showTree: flag.Bool("tree", true, "Output the match as a tree"),

		iterationLimit: flag.Int("iteration-limit", 10000, "Steps the matcher takes before giving up"),
		noEnumFolding:  flag.Bool("no-enum-folding", false, "Tells the compiler not to collapse alternated keywords"),
		noColors:       flag.Bool("no-colors", false, "Don't color the output"),
		verbose:        flag.Bool("verbose", false, "Log everything the library does"),
	}

	flag.Parse()

	return a
}

func main() {
	a := readArgs()

	logger, err := newLogger(*a.verbose)
	if err != nil {
		fatal("Can't create logger: %s", err.Error())
	}
	defer logger.Sync()

	theme := ascii.DefaultTheme
	if *a.noColors {
		theme = ascii.NoColors
	}

	cfg := cssmatch.NewConfig()
	cfg.SetInt("matcher.iteration_limit", *a.iterationLimit)
	cfg.SetBool("compiler.enum_folding", !*a.noEnumFolding)
	if *a.verbose {
		cfg.Fprint(os.Stderr)
	}

	dict := cssmatch.NewDictionary(cfg)
	if *a.dictPath != "" {
		if err := dict.LoadFile(*a.dictPath); err != nil {
			fatal("Can't load dictionary: %s", err.Error())
		}
		for _, refErr := range dict.CheckReferences() {
			fmt.Fprintln(os.Stderr, ascii.Color(theme.Warning, "warning:")+" "+refErr.Error())
		}
	}

	lexer, err := cssmatch.NewLexer(cfg, dict, logger)
	if err != nil {
		fatal("Can't create lexer: %s", err.Error())
	}

	if *a.stylesheetPath != "" {
		os.Exit(validateStylesheet(lexer, *a.stylesheetPath, theme))
	}

	if *a.showAST {
		node, err := syntaxAST(a, dict)
		if err != nil {
			fatal("%s", err.Error())
		}
		fmt.Println(cssmatch.HighlightPrettyString(node, theme))
		return
	}

	match := func(value string) bool {
		return matchValue(lexer, a, value, theme)
	}

	if *a.value != "" {
		if !match(*a.value) {
			os.Exit(1)
		}
		return
	}

	// read one value per line until the input ends
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if text == "" && err != nil {
			fmt.Println("")
			break
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		match(text)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

func syntaxAST(a *args, dict *cssmatch.Dictionary) (cssmatch.Node, error) {
	switch {
	case *a.syntax != "":
		return cssmatch.ParseGrammar(*a.syntax)
	case *a.typeName != "":
		if node, ok := dict.TypeSyntax(*a.typeName); ok {
			return node, nil
		}
		return nil, fmt.Errorf("%w: %s", cssmatch.ErrUnknownType, *a.typeName)
	case *a.property != "":
		if node, ok := dict.PropertySyntax(*a.property); ok {
			return node, nil
		}
		return nil, fmt.Errorf("%w: %s", cssmatch.ErrUnknownProperty, *a.property)
	}
	return nil, errors.New("Expected one of `-syntax`, `-type` or `-property`")
}

func matchValue(lexer *cssmatch.Lexer, a *args, value string, theme ascii.Theme) bool {
	var (
		result *cssmatch.TreeResult
		err    error
	)
	if *a.showList {
		return matchValueList(lexer, a, value, theme)
	}
	switch {
	case *a.syntax != "":
		result, err = lexer.Match(*a.syntax, value)
	case *a.typeName != "":
		result, err = lexer.MatchType(*a.typeName, value)
	case *a.property != "":
		result, err = lexer.MatchProperty(*a.property, value)
	default:
		fatal("Expected one of `-syntax`, `-type` or `-property`")
	}

	if err != nil {
		printError(err, theme)
		return false
	}
	fmt.Println(ascii.Color(theme.Match, "Match") + ascii.Color(theme.Muted, " (%d iterations)", result.Iterations))
	if *a.showTree {
		fmt.Println(result.Match.HighlightPrettyString(theme))
	}
	return true
}

func matchValueList(lexer *cssmatch.Lexer, a *args, value string, theme ascii.Theme) bool {
	var (
		list *cssmatch.ListResult
		err  error
	)
	switch {
	case *a.syntax != "":
		list, err = lexer.MatchList(*a.syntax, value)
	case *a.typeName != "":
		list, err = lexer.MatchTypeList(*a.typeName, value)
	case *a.property != "":
		list, err = lexer.MatchPropertyList(*a.property, value)
	default:
		fatal("Expected one of `-syntax`, `-type` or `-property`")
	}

	if err != nil {
		printError(err, theme)
		return false
	}
	fmt.Print(cssmatch.FormatList(list.Match))
	return true
}

func validateStylesheet(lexer *cssmatch.Lexer, path string, theme ascii.Theme) int {
	f, err := os.Open(path)
	if err != nil {
		fatal("Can't open stylesheet: %s", err.Error())
	}
	defer f.Close()

	report, err := cssmatch.ValidateStylesheetReader(lexer, f)
	if err != nil {
		fatal("Can't parse stylesheet: %s", err.Error())
	}
	for _, issue := range report.Issues {
		color := theme.Warning
		if issue.Severity == cssmatch.SeverityError {
			color = theme.Mismatch
		}
		fmt.Printf("%s %s { %s: %s }\n", ascii.Color(color, "%s:", issue.Severity), issue.Selector, issue.Property, issue.Value)
		fmt.Println(ascii.Color(theme.Muted, "  %s", strings.ReplaceAll(issue.Err.Error(), "\n", "\n  ")))
	}
	fmt.Printf("\n%d declaration(s), %d issue(s)\n", report.Declarations, len(report.Issues))
	if report.Valid() {
		return 0
	}
	return 1
}

func printError(err error, theme ascii.Theme) {
	var matchErr *cssmatch.MatchError
	if errors.As(err, &matchErr) {
		fmt.Println(ascii.Color(theme.Mismatch, "%s", matchErr.Error()))
		return
	}
	fmt.Printf("%s %s\n", ascii.Color(theme.Mismatch, "ERROR:"), err.Error())
}

// fatal prints an error message and exits with code 1.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%serror:%s ", ascii.Red, ascii.Reset)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, "\n")
	os.Exit(1)
}
