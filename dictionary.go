package cssmatch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Dictionary holds the named type and property grammars that match
// graphs refer to.  Grammars are parsed when added and compiled the
// first time they're looked up.  It's safe for concurrent use.
type Dictionary struct {
	mu         sync.RWMutex
	config     *Config
	types      map[string]*dictEntry
	properties map[string]*dictEntry
}

type dictEntry struct {
	syntax Node
	source string
	once   sync.Once
	graph  *MatchGraph
	err    error
}

func (e *dictEntry) compile(cfg *Config) (*MatchGraph, error) {
	e.once.Do(func() {
		if e.graph != nil {
			return
		}
		e.graph, e.err = Compile(e.syntax, cfg)
		if e.graph != nil {
			e.graph.Source = e.source
		}
	})
	return e.graph, e.err
}

// NewDictionary creates an empty dictionary, or one with the generic
// types if the `lexer.generic_types` setting is enabled
func NewDictionary(cfg *Config) *Dictionary {
	if cfg == nil {
		cfg = NewConfig()
	}
	d := &Dictionary{
		config:     cfg,
		types:      map[string]*dictEntry{},
		properties: map[string]*dictEntry{},
	}
	if cfg.GetBool("lexer.generic_types") {
		for name, fn := range GenericTypes() {
			d.AddGeneric(name, fn)
		}
	}
	return d
}

// AddType parses `grammar` and registers it under `name`, replacing
// any previous type with the same name
func (d *Dictionary) AddType(name, grammar string) error {
	entry, err := newDictEntry(grammar)
	if err != nil {
		return fmt.Errorf("type <%s>: %w", name, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.types[name] = entry
	return nil
}

// AddProperty parses `grammar` and registers it under `name`
func (d *Dictionary) AddProperty(name, grammar string) error {
	entry, err := newDictEntry(grammar)
	if err != nil {
		return fmt.Errorf("property <'%s'>: %w", name, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.properties[name] = entry
	return nil
}

// AddGeneric registers a type recognized by `fn` instead of a grammar
func (d *Dictionary) AddGeneric(name string, fn GenericFunc) {
	syntax := NewTypeNode(name, nil)
	entry := &dictEntry{
		syntax: syntax,
		source: syntax.Text(),
		graph: &MatchGraph{
			Source: syntax.Text(),
			Syntax: syntax,
			Root:   &GenericState{Name: name, Fn: fn, Syntax: syntax},
		},
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.types[name] = entry
}

func newDictEntry(grammar string) (*dictEntry, error) {
	syntax, err := ParseGrammar(grammar)
	if err != nil {
		return nil, err
	}
	return &dictEntry{syntax: syntax, source: grammar}, nil
}

// LookupType returns the compiled grammar of the type `name`, or nil
// if there's no such type
func (d *Dictionary) LookupType(name string) (*MatchGraph, error) {
	return d.lookup(d.types, name)
}

// LookupProperty returns the compiled grammar of the property `name`,
// or nil if there's no such property
func (d *Dictionary) LookupProperty(name string) (*MatchGraph, error) {
	return d.lookup(d.properties, name)
}

func (d *Dictionary) lookup(m map[string]*dictEntry, name string) (*MatchGraph, error) {
	d.mu.RLock()
	entry, ok := m[name]
	d.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return entry.compile(d.config)
}

// TypeSyntax returns the grammar AST of the type `name`
func (d *Dictionary) TypeSyntax(name string) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.types[name]
	if !ok {
		return nil, false
	}
	return entry.syntax, true
}

// PropertySyntax returns the grammar AST of the property `name`
func (d *Dictionary) PropertySyntax(name string) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.properties[name]
	if !ok {
		return nil, false
	}
	return entry.syntax, true
}

// Types returns the names of all types sorted
func (d *Dictionary) Types() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.types)
}

// Properties returns the names of all properties sorted
func (d *Dictionary) Properties() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.properties)
}

// CheckReferences walks every grammar of the dictionary looking for
// references to types and properties that it doesn't contain
func (d *Dictionary) CheckReferences() []*ReferenceError {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		errs []*ReferenceError
		seen = map[ReferenceError]struct{}{}
	)
	report := func(kind ReferenceKind, name string) {
		key := ReferenceError{Kind: kind, Name: name}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		errs = append(errs, &ReferenceError{Kind: kind, Name: name})
	}
	check := func(entries map[string]*dictEntry) {
		for _, name := range sortedKeys(entries) {
			Inspect(entries[name].syntax, func(n Node) bool {
				switch node := n.(type) {
				case *TypeNode:
					if _, ok := d.types[node.Name]; !ok {
						report(ReferenceType, node.Name)
					}
				case *PropertyNode:
					if _, ok := d.properties[node.Name]; !ok {
						report(ReferenceProperty, node.Name)
					}
				}
				return true
			})
		}
	}
	check(d.types)
	check(d.properties)
	return errs
}

func sortedKeys(m map[string]*dictEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dictionaryFile is the YAML document read by Load
type dictionaryFile struct {
	Types      map[string]string `yaml:"types"`
	Properties map[string]string `yaml:"properties"`
}

// Load reads a YAML document with the `types` and `properties` maps
// from grammar names to definition syntax and adds all of them to the
// dictionary
func (d *Dictionary) Load(r io.Reader) error {
	var doc dictionaryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return fmt.Errorf("can't decode dictionary: %w", err)
	}
	for name, grammar := range doc.Types {
		if err := d.AddType(name, grammar); err != nil {
			return err
		}
	}
	for name, grammar := range doc.Properties {
		if err := d.AddProperty(name, grammar); err != nil {
			return err
		}
	}
	return nil
}

// LoadDictionary creates a dictionary and loads the YAML document
// read from `r` into it
func LoadDictionary(r io.Reader, cfg *Config) (*Dictionary, error) {
	d := NewDictionary(cfg)
	if err := d.Load(r); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadFile loads a dictionary file.  Files ending with `.gz` or
// `.zst` are decompressed while read.
func (d *Dictionary) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	switch filepath.Ext(path) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	if err := d.Load(r); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
