// Package repair performs forced terminal repair: when a derivation hits one
// of its bounds, every remaining non-terminal is collapsed into a short,
// weighted, agreement-consistent sequence that bottoms out at lexicon
// categories.
//
// Each grammar class supplies its own Table. Tables are validated to be
// acyclic, so repair always terminates; a hard pass cap backs this up at run
// time.
package repair

import (
	"fmt"
	"strings"

	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/sgerr"
)

// Number is the grammatical number carried by a symbol.
type Number int

const (
	NoNumber Number = iota
	Singular
	Plural
)

func (n Number) String() string {
	switch n {
	case NoNumber:
		return "none"
	case Singular:
		return "singular"
	case Plural:
		return "plural"
	default:
		return fmt.Sprintf("Number(%d)", int(n))
	}
}

// Alt is one weighted replacement for a repaired key.
type Alt struct {
	Seq    grammar.Alternative
	Weight float64
}

// Entry gives the replacements for one key. If Agree is set, alternatives
// are restricted to those whose number matches the number of the nearest
// preceding subject symbol, if there is one.
type Entry struct {
	Key   grammar.Key
	Alts  []Alt
	Agree bool
}

// Copy returns a deep copy of the entry.
func (e Entry) Copy() Entry {
	e2 := Entry{Key: e.Key, Agree: e.Agree, Alts: make([]Alt, len(e.Alts))}
	for i := range e.Alts {
		e2.Alts[i] = Alt{Seq: e.Alts[i].Seq.Copy(), Weight: e.Alts[i].Weight}
	}
	return e2
}

// Agreement says which symbols carry number and which count as determiners.
type Agreement struct {
	SingularSuffix string
	PluralSuffix   string

	// Subjects are the symbols that set the number context for entries with
	// Agree set.
	Subjects map[grammar.Symbol]bool

	// Determiners are never doubled up by repair.
	Determiners map[grammar.Symbol]bool
}

// NumberOf gives the number that sym is marked with by its suffix.
func (a Agreement) NumberOf(sym grammar.Symbol) Number {
	s := string(sym)
	if a.SingularSuffix != "" && strings.HasSuffix(s, a.SingularSuffix) {
		return Singular
	}
	if a.PluralSuffix != "" && strings.HasSuffix(s, a.PluralSuffix) {
		return Plural
	}
	return NoNumber
}

// NumberOfSeq gives the number of the first number-marked symbol in seq.
func (a Agreement) NumberOfSeq(seq []grammar.Symbol) Number {
	for _, sym := range seq {
		if n := a.NumberOf(sym); n != NoNumber {
			return n
		}
	}
	return NoNumber
}

// ContextNumber gives the number of the subject symbol closest to the end of
// left, or NoNumber if left has no subject.
func (a Agreement) ContextNumber(left []grammar.Symbol) Number {
	for i := len(left) - 1; i >= 0; i-- {
		if a.Subjects[left[i]] {
			return a.NumberOf(left[i])
		}
	}
	return NoNumber
}

func (a Agreement) copy() Agreement {
	a2 := Agreement{
		SingularSuffix: a.SingularSuffix,
		PluralSuffix:   a.PluralSuffix,
		Subjects:       make(map[grammar.Symbol]bool, len(a.Subjects)),
		Determiners:    make(map[grammar.Symbol]bool, len(a.Determiners)),
	}
	for k, v := range a.Subjects {
		a2.Subjects[k] = v
	}
	for k, v := range a.Determiners {
		a2.Determiners[k] = v
	}
	return a2
}

// Table holds the repair entries for one grammar class.
type Table struct {
	Name      string
	Agreement Agreement

	entriesByKey map[grammar.Key]int
	entries      []Entry
	hasPairs     bool
}

// NewTable creates an empty table.
func NewTable(name string, agr Agreement) *Table {
	return &Table{Name: name, Agreement: agr}
}

// Add adds an entry to the table, replacing any entry already present for the
// same key.
func (t *Table) Add(e Entry) {
	if t.entriesByKey == nil {
		t.entriesByKey = map[grammar.Key]int{}
	}
	e = e.Copy()
	if idx, ok := t.entriesByKey[e.Key]; ok {
		t.entries[idx] = e
		return
	}
	t.entries = append(t.entries, e)
	t.entriesByKey[e.Key] = len(t.entries) - 1
	if e.Key.IsPair() {
		t.hasPairs = true
	}
}

// Entry returns the entry for k.
func (t *Table) Entry(k grammar.Key) (Entry, bool) {
	if idx, ok := t.entriesByKey[k]; ok {
		return t.entries[idx], true
	}
	return Entry{}, false
}

// Has returns whether the table has an entry for k.
func (t *Table) Has(k grammar.Key) bool {
	_, ok := t.entriesByKey[k]
	return ok
}

// Entries returns copies of all entries in the order they were added.
func (t *Table) Entries() []Entry {
	all := make([]Entry, len(t.entries))
	for i := range t.entries {
		all[i] = t.entries[i].Copy()
	}
	return all
}

// Len is the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Copy returns a deep copy of the table.
func (t *Table) Copy() *Table {
	t2 := NewTable(t.Name, t.Agreement.copy())
	for _, e := range t.entries {
		t2.Add(e)
	}
	return t2
}

// Merge returns a copy of t with every entry of o added to it. Entries in o
// replace entries in t for the same key.
func (t *Table) Merge(o *Table) *Table {
	merged := t.Copy()
	if o == nil {
		return merged
	}
	for _, e := range o.entries {
		merged.Add(e)
	}
	return merged
}

// keyAt gives the entry that applies at index i of seq, considering no index
// at or after hi. Pair entries are preferred.
func (t *Table) keyAt(seq []grammar.Symbol, i, hi int) (Entry, bool) {
	if t.hasPairs && i+1 < hi {
		if e, ok := t.Entry(grammar.Pair(seq[i], seq[i+1])); ok {
			return e, true
		}
	}
	return t.Entry(grammar.Single(seq[i]))
}

// Validate checks that every entry has at least one alternative, that all
// weights are positive, and that no entry can reach itself through the
// alternatives of the table. All problems are reported in one error with
// sgerr.ErrConfiguration as its cause.
func (t *Table) Validate() error {
	errStr := ""

	for _, e := range t.entries {
		if len(e.Alts) < 1 {
			errStr += fmt.Sprintf("ERR: repair entry %q has no alternatives\n", e.Key)
		}
		for i, a := range e.Alts {
			if !(a.Weight > 0) {
				errStr += fmt.Sprintf("ERR: repair entry %q alternative %d has non-positive weight %v\n", e.Key, i+1, a.Weight)
			}
		}
	}

	if cycle := t.findCycle(); cycle != nil {
		names := make([]string, len(cycle))
		for i := range cycle {
			names[i] = cycle[i].String()
		}
		errStr += fmt.Sprintf("ERR: repair cycle detected: %s\n", strings.Join(names, " -> "))
	}

	if len(errStr) > 0 {
		errStr = strings.TrimSuffix(errStr, "\n")
		return sgerr.Configf("repair table %q is invalid:\n%s", t.Name, errStr)
	}
	return nil
}

// successors gives the keys of the entries that a repair of e can introduce.
func (t *Table) successors(e Entry) []grammar.Key {
	var next []grammar.Key
	for _, a := range e.Alts {
		for i := range a.Seq {
			if i+1 < len(a.Seq) {
				pk := grammar.Pair(a.Seq[i], a.Seq[i+1])
				if t.Has(pk) {
					next = append(next, pk)
				}
			}
			sk := grammar.Single(a.Seq[i])
			if t.Has(sk) {
				next = append(next, sk)
			}
		}
	}
	return next
}

func (t *Table) findCycle() []grammar.Key {
	done := map[grammar.Key]bool{}
	visiting := map[grammar.Key]bool{}
	var stack []grammar.Key

	var visit func(k grammar.Key) []grammar.Key
	visit = func(k grammar.Key) []grammar.Key {
		if visiting[k] {
			start := 0
			for i := range stack {
				if stack[i] == k {
					start = i
					break
				}
			}
			return append(append([]grammar.Key(nil), stack[start:]...), k)
		}
		if done[k] {
			return nil
		}

		visiting[k] = true
		stack = append(stack, k)

		e, _ := t.Entry(k)
		for _, next := range t.successors(e) {
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}

		stack = stack[:len(stack)-1]
		visiting[k] = false
		done[k] = true
		return nil
	}

	for _, e := range t.entries {
		if cycle := visit(e.Key); cycle != nil {
			return cycle
		}
	}
	return nil
}

// Uncovered returns the single-symbol keys of g that have no entry in the
// table. Repairing a span that still holds one of them fails with a
// configuration error. The start symbol is left out unless a rule refers to
// it.
func (t *Table) Uncovered(g *grammar.Grammar) []grammar.Key {
	referenced := map[grammar.Symbol]bool{}
	for _, r := range g.Rules() {
		for _, a := range r.Alternatives {
			for _, sym := range a {
				referenced[sym] = true
			}
		}
	}

	var missing []grammar.Key
	for _, k := range g.Keys() {
		if k.IsPair() || t.Has(k) {
			continue
		}
		if k.First() == g.StartSymbol() && !referenced[k.First()] {
			continue
		}
		missing = append(missing, k)
	}
	return missing
}
