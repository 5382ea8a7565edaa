package cssmatch

import (
	"fmt"
	"io"
	"sort"
)

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values expected by the compiler, the matcher and the lexer.
func NewConfig() *Config {
	m := make(Config)
	// collapse runs of alternated keywords into a single map lookup
	m.SetBool("compiler.enum_folding", true)
	// amount of steps the matcher takes before giving up
	m.SetInt("matcher.iteration_limit", 10000)
	// <custom-ident> on identifiers and <length> on a bare zero are
	// only tried once every other alternative failed
	m.SetBool("matcher.low_priority_types", true)
	// grammar tried before any property grammar
	m.SetString("lexer.css_wide_keywords", "inherit | initial | unset | revert | revert-layer")
	// register the built-in generic types in new dictionaries
	m.SetBool("lexer.generic_types", true)
	return &m
}

// Fprint writes all the settings sorted by their path to `w`
func (c *Config) Fprint(w io.Writer) {
	fmt.Fprintln(w, "Configuration")

	keys := make([]string, 0, len(*c))
	width := 0
	for k := range *c {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%-*s : %s\n", width, k, (*c)[k])
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%s (string)", v.asString)
	case cfgValType_Undefined:
		return "(undefined)"
	default:
		panic(fmt.Sprintf("unknown cfgVal type: %v", v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{typ: cfgValType_Bool, asBool: v}
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{typ: cfgValType_Int, asInt: v}
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{typ: cfgValType_String, asString: v}
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("Bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("Int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("String setting `%s` does not exist", path))
}
