// Package sgf has functions for loading grammars and lexicons using the SGF
// (SentGen Format) bundle file format. SGF files are TOML, or YAML if the file
// name ends in ".yaml" or ".yml", and carry a header that gives the format and
// the type of the file:
//
//	format = "SGEN"
//	type = "DATA"
//
// DATA files define grammars, agreement settings, and lexicon categories.
// MANIFEST files list other files, relative to themselves, that are loaded and
// combined into one bundle.
package sgf

import (
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/repair"
	"gopkg.in/yaml.v3"
)

const (
	FormatName = "SGEN"

	TypeData     = "DATA"
	TypeManifest = "MANIFEST"

	MaxManifestRecursionDepth = 32

	// BuiltinName is the name of the root file of the built-in bundle.
	BuiltinName = "sentgen.toml"
)

var (
	// ErrManifestEmpty is the error returned when a manifest file is read
	// successfully but specifies no additional files to load.
	ErrManifestEmpty = errors.New("does not list any valid files to include")

	// ErrManifestStackOverflow is the error returned when manifests are nested
	// more than MaxManifestRecursionDepth deep.
	ErrManifestStackOverflow = errors.New("too many manifests deep")

	// ErrManifestCircularRef is the error returned when a chain of manifests
	// refers back to a manifest already being loaded.
	ErrManifestCircularRef = errors.New("manifest inclusion chain refers back to itself")
)

//go:embed builtin/*.toml
var builtinFiles embed.FS

// Bounds are the derivation bounds declared for a grammar. A nil field was
// not declared.
type Bounds struct {
	MaxExpansions   *int
	MaxDepth        *int
	MaxRepairPasses *int
}

// Apply returns cfg with every declared bound set in it.
func (b Bounds) Apply(cfg derive.Config) derive.Config {
	if b.MaxExpansions != nil {
		cfg.MaxExpansions = *b.MaxExpansions
	}
	if b.MaxDepth != nil {
		cfg.MaxDepth = *b.MaxDepth
	}
	if b.MaxRepairPasses != nil {
		cfg.MaxRepairPasses = *b.MaxRepairPasses
	}
	return cfg
}

// Filter is the accepted sentence length range for export. Zero means no
// limit on that side.
type Filter struct {
	MinWords int
	MaxWords int
}

// DefaultFilter is the filter used by grammars that do not declare one. It
// accepts sentences of 11 to 20 words.
func DefaultFilter() Filter {
	return Filter{MinWords: 11, MaxWords: 20}
}

// Accepts returns whether a sentence of n words passes the filter.
func (f Filter) Accepts(n int) bool {
	if f.MinWords > 0 && n < f.MinWords {
		return false
	}
	if f.MaxWords > 0 && n > f.MaxWords {
		return false
	}
	return true
}

// GrammarDef is one grammar of a bundle along with everything needed to
// derive from it.
type GrammarDef struct {
	Grammar     *grammar.Grammar
	Description string

	// Repair is the built-in table for the grammar's class, with the bundle's
	// agreement settings and the grammar's own repair entries applied.
	Repair *repair.Table

	Bounds Bounds
	Filter Filter
}

// Bundle is the combined content of one or more SGF files.
type Bundle struct {
	Grammars  map[string]GrammarDef
	Lexicon   grammar.Lexicon
	Agreement repair.Agreement

	// Warnings are non-fatal problems found while loading, such as
	// non-terminals that forced repair has no entry for.
	Warnings []string

	order []string
}

// Names returns the names of all grammars in the order they were defined.
func (b Bundle) Names() []string {
	names := make([]string, len(b.order))
	copy(names, b.order)
	return names
}

// Grammar returns the grammar with the given name. Case is ignored.
func (b Bundle) Grammar(name string) (GrammarDef, bool) {
	if def, ok := b.Grammars[name]; ok {
		return def, true
	}
	for _, n := range b.order {
		if strings.EqualFold(n, name) {
			return b.Grammars[n], true
		}
	}
	return GrammarDef{}, false
}

// Manifest contains data loaded from an SGF manifest file.
type Manifest struct {
	Files []string
}

// FileInfo contains the header that all SGF files must contain.
type FileInfo struct {
	Format string `toml:"format" yaml:"format"`
	Type   string `toml:"type" yaml:"type"`
}

// Load loads a bundle from the SGF file at the given path. If it is a
// manifest, all files it includes are loaded and combined with it. Included
// files must be within the directory of the file at path.
func Load(p string) (Bundle, error) {
	p = filepath.Clean(p)
	return LoadFS(os.DirFS(filepath.Dir(p)), filepath.Base(p))
}

// LoadFS loads a bundle from the SGF file with the given name in fsys.
func LoadFS(fsys fs.FS, name string) (Bundle, error) {
	unmarshaled, err := recursiveUnmarshalResource(fsys, path.Clean(name), nil)
	if err != nil {
		return Bundle{}, err
	}

	return parseBundle(unmarshaled)
}

// LoadBuiltin loads the bundle that is compiled into sentgen. It holds the
// regular, context-free, indexed, and context-sensitive grammars over a
// lexicon about mathematicians.
func LoadBuiltin() (Bundle, error) {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		return Bundle{}, err
	}
	return LoadFS(sub, BuiltinName)
}

// ScanFileInfo reads the SGF header from data. If name ends in ".yaml" or
// ".yml" the data is read as YAML; otherwise, as with every TOML file, only
// the top-level table up to the first table header is parsed.
func ScanFileInfo(name string, data []byte) (FileInfo, error) {
	var info FileInfo

	if isYAML(name) {
		err := yaml.Unmarshal(data, &info)
		return info, err
	}

	var topLevelEnd int = -1
	var onNewLine bool = true
	for b := range data {
		if onNewLine {
			if data[b] == '[' {
				topLevelEnd = b
				break
			}
		}

		if data[b] == '\n' {
			onNewLine = true
		} else if !unicode.IsSpace(rune(data[b])) {
			onNewLine = false
		}
	}

	scanData := data
	if topLevelEnd != -1 {
		scanData = data[:topLevelEnd]
	}

	_, err := toml.NewDecoder(bytes.NewReader(scanData)).Decode(&info)
	return info, err
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
