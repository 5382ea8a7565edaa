package cssmatch

import (
	"strings"
)

// FormatFunc decorates a piece of `input` according to what kind of
// `token` it represents.  Printers use it for coloring output.
type FormatFunc[T any] func(input string, token T) string

type treePrinter[T any] struct {
	padStr []string
	output *strings.Builder
	format FormatFunc[T]
}

func newTreePrinter[T any](format FormatFunc[T]) *treePrinter[T] {
	return &treePrinter[T]{
		output: &strings.Builder{},
		format: format,
	}
}

// plainFormat is the FormatFunc used when output shouldn't carry any
// escape sequences
func plainFormat[T any](input string, _ T) string {
	return input
}

func (tp *treePrinter[T]) indent(s string) {
	tp.padStr = append(tp.padStr, s)
}

func (tp *treePrinter[T]) unindent() {
	tp.padStr = tp.padStr[:len(tp.padStr)-1]
}

func (tp *treePrinter[T]) padding() {
	for _, item := range tp.padStr {
		tp.write(item)
	}
}

func (tp *treePrinter[T]) write(s string) {
	tp.output.WriteString(s)
}

func (tp *treePrinter[T]) writef(s string, token T) {
	tp.output.WriteString(tp.format(s, token))
}

func (tp *treePrinter[T]) pwrite(s string) {
	tp.padding()
	tp.write(s)
}

// children draws the branches of a node with `n` children, calling
// `fn` to print each one of them in between
func (tp *treePrinter[T]) children(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		tp.write("\n")
		if i == n-1 {
			tp.pwrite("└── ")
			tp.indent("    ")
		} else {
			tp.pwrite("├── ")
			tp.indent("│   ")
		}
		fn(i)
		tp.unindent()
	}
}

func (tp *treePrinter[T]) String() string {
	return tp.output.String()
}

var literalSanitizer = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	string('\n'), `\n`,
	string('\r'), `\r`,
	string('\t'), `\t`,
)

func escapeLiteral(s string) string {
	return literalSanitizer.Replace(s)
}
