package sgf

import (
	"fmt"
)

type topLevelManifest struct {
	Format string   `toml:"format" yaml:"format"`
	Type   string   `toml:"type" yaml:"type"`
	Files  []string `toml:"files" yaml:"files"`
}

// topLevelBundle is the top-level structure containing all keys in a complete
// SGF 'DATA' type file.
type topLevelBundle struct {
	Format    string              `toml:"format" yaml:"format"`
	Type      string              `toml:"type" yaml:"type"`
	Grammars  []grammarDef        `toml:"grammar" yaml:"grammar"`
	Agreement *agreementDef       `toml:"agreement" yaml:"agreement"`
	Lexicon   map[string][]string `toml:"lexicon" yaml:"lexicon"`
}

// merge adds the content of o to tlb. Grammars are kept in order. Defining
// the agreement settings twice or the same lexicon category twice is an
// error; duplicate grammar names are caught when the bundle is parsed.
func (tlb *topLevelBundle) merge(o topLevelBundle) error {
	tlb.Grammars = append(tlb.Grammars, o.Grammars...)

	if o.Agreement != nil {
		if tlb.Agreement != nil {
			return fmt.Errorf("duplicate agreement; agreement has already been defined")
		}
		tlb.Agreement = o.Agreement
	}

	if len(o.Lexicon) > 0 && tlb.Lexicon == nil {
		tlb.Lexicon = map[string][]string{}
	}
	for cat, words := range o.Lexicon {
		if _, ok := tlb.Lexicon[cat]; ok {
			return fmt.Errorf("duplicate lexicon category %q", cat)
		}
		tlb.Lexicon[cat] = words
	}

	return nil
}

type grammarDef struct {
	Name        string      `toml:"name" yaml:"name"`
	Class       string      `toml:"class" yaml:"class"`
	Start       string      `toml:"start" yaml:"start"`
	Description string      `toml:"description" yaml:"description"`
	Rules       []string    `toml:"rules" yaml:"rules"`
	Bounds      *boundsDef  `toml:"bounds" yaml:"bounds"`
	Filter      *filterDef  `toml:"filter" yaml:"filter"`
	Repair      []repairDef `toml:"repair" yaml:"repair"`
}

type boundsDef struct {
	MaxExpansions   *int `toml:"max_expansions" yaml:"max_expansions"`
	MaxDepth        *int `toml:"max_depth" yaml:"max_depth"`
	MaxRepairPasses *int `toml:"max_repair_passes" yaml:"max_repair_passes"`
}

type filterDef struct {
	MinWords int `toml:"min_words" yaml:"min_words"`
	MaxWords int `toml:"max_words" yaml:"max_words"`
}

// repairDef is a repair entry. Key is one symbol or two separated by a space.
// Each alt is a space-separated sequence, or "ε" for the empty one.
type repairDef struct {
	Key     string    `toml:"key" yaml:"key"`
	Alts    []string  `toml:"alts" yaml:"alts"`
	Weights []float64 `toml:"weights" yaml:"weights"`
	Agree   bool      `toml:"agree" yaml:"agree"`
}

type agreementDef struct {
	SingularSuffix string   `toml:"singular_suffix" yaml:"singular_suffix"`
	PluralSuffix   string   `toml:"plural_suffix" yaml:"plural_suffix"`
	Subjects       []string `toml:"subjects" yaml:"subjects"`
	Determiners    []string `toml:"determiners" yaml:"determiners"`
}
