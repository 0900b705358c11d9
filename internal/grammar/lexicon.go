package grammar

import (
	"fmt"
	"sort"
)

// Lexicon maps each lexicon category to the literal words it can resolve to.
type Lexicon map[Symbol][]string

// Has returns whether sym is a lexicon category.
func (lex Lexicon) Has(sym Symbol) bool {
	_, ok := lex[sym]
	return ok
}

// Categories returns all categories in sorted order.
func (lex Lexicon) Categories() []Symbol {
	cats := make([]Symbol, 0, len(lex))
	for k := range lex {
		cats = append(cats, k)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Words returns the number of words across all categories.
func (lex Lexicon) Words() int {
	total := 0
	for _, w := range lex {
		total += len(w)
	}
	return total
}

// Validate returns an error if any category has no words.
func (lex Lexicon) Validate() error {
	for _, cat := range lex.Categories() {
		if len(lex[cat]) < 1 {
			return fmt.Errorf("lexicon category %q has no words", cat)
		}
	}
	return nil
}
