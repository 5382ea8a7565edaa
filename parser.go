package cssmatch

// Parser is what the parsing expressions below need from a concrete
// parser
type Parser interface {
	// Peek returns the rune within the input that is under the
	// parser cursor.  It does not change the cursor.
	Peek() rune

	// Any returns the current rune and advances the cursor.
	Any() (rune, error)

	// Backtrack resets the parser's cursor to `location`
	Backtrack(location int)

	// Location returns the cursor position within the input
	Location() int

	// NewError creates an error the backtracking expressions
	// recover from
	NewError(msg string) error

	// ExpectRune returns `r` if it's the same rune that's under
	// the cursor, or errors otherwise.
	ExpectRune(r rune) (rune, error)

	// ExpectRuneFn returns a function wrapping an `ExpectRune` call.
	ExpectRuneFn(r rune) ParserFn[rune]
}

// ParserFn is the signature of a parser function.  It can't be a
// method because of Go's generics limitations, but a closure will fit
// in just right.
type ParserFn[T any] func(p Parser) (T, error)

// ZeroOrMore will call `fn` until it errors out, collecting and
// returning all the successful outputs.  It backtracks the input
// consumed by the last failed attempt.
func ZeroOrMore[T any](p Parser, fn ParserFn[T]) ([]T, error) {
	var output []T
	for {
		pos := p.Location()
		item, err := fn(p)
		if err != nil {
			p.Backtrack(pos)
			if isthrown(err) {
				return nil, err
			}
			break
		}
		output = append(output, item)
	}
	return output, nil
}

// OneOrMore will match `fn` once and then pass fn to ZeroOrMore
func OneOrMore[T any](p Parser, fn ParserFn[T]) ([]T, error) {
	head, err := fn(p)
	if err != nil {
		return nil, err
	}
	tail, err := ZeroOrMore(p, fn)
	if err != nil {
		return nil, err
	}
	return append([]T{head}, tail...), nil
}

// Choice walks through fns and return the first to succeed.  It will
// backtrack the parser cursor before each attempt, and it will fail
// if no alternatives match.
func Choice[T any](p Parser, fns []ParserFn[T]) (T, error) {
	var (
		zero    T
		lastErr error
		pos     = p.Location()
	)
	for _, fn := range fns {
		item, err := fn(p)
		if err == nil {
			return item, nil
		}
		p.Backtrack(pos)
		if isthrown(err) {
			return zero, err
		}
		lastErr = err
	}
	if lastErr != nil {
		return zero, lastErr
	}
	return zero, p.NewError("Choice Error")
}

// Optional is a syntax sugar for an ordered choice in which the
// second option returns the zero value
func Optional[T any](p Parser, fn ParserFn[T]) (T, error) {
	return Choice(p, []ParserFn[T]{
		fn,
		func(p Parser) (T, error) {
			var zero T
			return zero, nil
		},
	})
}
