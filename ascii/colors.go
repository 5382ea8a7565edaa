// Package ascii provides terminal ANSI color codes and semantic names
// for them so they can be grouped in themes.
package ascii

import "fmt"

const (
	Reset  = "\033[0m"
	Red    = "\033[1;31m"
	Yellow = "\033[1;33m"
	Green  = "\033[1;32m"
	Blue   = "\033[1;34m"
	Cyan   = "\033[1;36m"
	Gray   = "\033[90m" // Bright black, actually

	Bold = "\033[1m"

	// 256-color palette
	Orange  = "\033[38;5;208m"
	Gray245 = "\033[1;38;5;245m"
	Purple  = "\033[1;38;5;99m"
	Pink    = "\033[1;38;5;127m"
)

// Theme defines semantic color mappings
type Theme struct {
	// Match outcomes
	Match    string
	Mismatch string
	Warning  string

	// UI elements
	Muted  string
	Accent string

	// Grammar and match tree printers
	Combinator string
	Reference  string
	Keyword    string
	Token      string
	Multiplier string
}

// DefaultTheme works on both dark and light terminals
var DefaultTheme = Theme{
	Match:    Green,
	Mismatch: Red,
	Warning:  Yellow,

	Muted:  Gray,
	Accent: Cyan,

	Combinator: Purple,
	Reference:  Pink,
	Keyword:    Gray245,
	Token:      Green,
	Multiplier: Orange,
}

// NoColors is a theme that doesn't emit escape sequences
var NoColors = Theme{}

// Color wraps the formatted string within `color` and a reset
// sequence.  An empty color leaves the string untouched.
func Color(color, format string, args ...any) string {
	if color == "" {
		return fmt.Sprintf(format, args...)
	}
	return fmt.Sprintf(color+format+Reset, args...)
}
