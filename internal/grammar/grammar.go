// Package grammar holds the production tables and lexicon that sentences are
// derived from.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/sentgen/internal/sgerr"
)

// DefaultStart is the start symbol used when a Grammar does not set one.
const DefaultStart Symbol = "S"

// Class is the formal class of a grammar. It selects the derivation strategy
// and the built-in forced repair table.
type Class int

const (
	Regular Class = iota
	ContextFree
	Indexed
	ContextSensitive
)

func (c Class) String() string {
	switch c {
	case Regular:
		return "regular"
	case ContextFree:
		return "context-free"
	case Indexed:
		return "indexed"
	case ContextSensitive:
		return "context-sensitive"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Short returns the abbreviation for the class.
func (c Class) Short() string {
	switch c {
	case Regular:
		return "RG"
	case ContextFree:
		return "CFG"
	case Indexed:
		return "IXG"
	case ContextSensitive:
		return "CSG"
	default:
		return "?"
	}
}

// ParseClass parses the name of a grammar class. Case is ignored and the
// usual abbreviations are accepted.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regular", "rg", "fsm", "finite-state":
		return Regular, nil
	case "context-free", "cf", "cfg":
		return ContextFree, nil
	case "indexed", "ix", "ixg", "mcs", "mildly-context-sensitive":
		return Indexed, nil
	case "context-sensitive", "cs", "csg":
		return ContextSensitive, nil
	default:
		return Regular, fmt.Errorf("unknown grammar class %q; must be one of 'regular', 'context-free', 'indexed', or 'context-sensitive'", s)
	}
}

// Rule is a Key along with the alternatives it may be replaced with.
type Rule struct {
	Key          Key
	Alternatives []Alternative
}

// Copy returns a deep-copied duplicate of the rule.
func (r Rule) Copy() Rule {
	r2 := Rule{Key: r.Key, Alternatives: make([]Alternative, len(r.Alternatives))}
	for i := range r.Alternatives {
		r2.Alternatives[i] = r.Alternatives[i].Copy()
	}
	return r2
}

func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.Key.String())
	sb.WriteString(" ->")
	for i := range r.Alternatives {
		if i > 0 {
			sb.WriteString(" |")
		}
		sb.WriteRune(' ')
		sb.WriteString(r.Alternatives[i].String())
	}
	return sb.String()
}

// Grammar is a table of production rules. Rules are kept in the order they
// were first added.
type Grammar struct {
	// Name identifies the grammar within a bundle.
	Name string

	Class Class

	// Start is the start symbol. If not set, assumed to be S.
	Start Symbol

	rulesByKey map[Key]int

	// main rules store; not just a map because definition order is used for
	// listing and for deterministic validation output.
	rules []Rule

	hasPairs bool
}

// New creates an empty grammar of the given class.
func New(name string, class Class) *Grammar {
	return &Grammar{Name: name, Class: class}
}

// StartSymbol gives the start symbol of the grammar.
func (g *Grammar) StartSymbol() Symbol {
	if g.Start == "" {
		return DefaultStart
	}
	return g.Start
}

// AddRule adds alternatives for a key. If the key already has a rule, the
// alternatives are appended to it. Calling AddRule with no alternatives
// declares the key without any, which Validate reports as an error.
func (g *Grammar) AddRule(k Key, alts ...Alternative) {
	if k.First() == "" {
		panic("empty symbol not allowed as key of production rule")
	}

	if g.rulesByKey == nil {
		g.rulesByKey = map[Key]int{}
	}

	curIdx, ok := g.rulesByKey[k]
	if !ok {
		g.rules = append(g.rules, Rule{Key: k})
		curIdx = len(g.rules) - 1
		g.rulesByKey[k] = curIdx
		if k.IsPair() {
			g.hasPairs = true
		}
	}

	curRule := g.rules[curIdx]
	for _, a := range alts {
		curRule.Alternatives = append(curRule.Alternatives, a.Copy())
	}
	g.rules[curIdx] = curRule
}

// Rule returns the rule for the given key. If there is no rule for it, a
// Rule with no alternatives and a zero Key is returned.
func (g *Grammar) Rule(k Key) Rule {
	if curIdx, ok := g.rulesByKey[k]; ok {
		return g.rules[curIdx]
	}
	return Rule{}
}

// HasRule returns whether the grammar defines a rule for k.
func (g *Grammar) HasRule(k Key) bool {
	_, ok := g.rulesByKey[k]
	return ok
}

// IsNonTerminal returns whether sym is a single-symbol key of the grammar.
func (g *Grammar) IsNonTerminal(sym Symbol) bool {
	return g.HasRule(Single(sym))
}

// HasPairKeys returns whether any rule in the grammar has a pair key.
func (g *Grammar) HasPairKeys() bool {
	return g.hasPairs
}

// KeyAt returns the key that should be expanded at index i of seq, looking no
// further than hi. A pair key is preferred over a single key when both match.
// If no rule applies at i, ok is false.
func (g *Grammar) KeyAt(seq []Symbol, i, hi int) (k Key, ok bool) {
	if g.hasPairs && i+1 < hi {
		pk := Pair(seq[i], seq[i+1])
		if g.HasRule(pk) {
			return pk, true
		}
	}
	sk := Single(seq[i])
	if g.HasRule(sk) {
		return sk, true
	}
	return Key{}, false
}

// Rules returns copies of all rules in definition order.
func (g *Grammar) Rules() []Rule {
	rules := make([]Rule, len(g.rules))
	for i := range g.rules {
		rules[i] = g.rules[i].Copy()
	}
	return rules
}

// Keys returns all rule keys in definition order.
func (g *Grammar) Keys() []Key {
	keys := make([]Key, len(g.rules))
	for i := range g.rules {
		keys[i] = g.rules[i].Key
	}
	return keys
}

// Len is the number of rules in the grammar.
func (g *Grammar) Len() int {
	return len(g.rules)
}

func (g *Grammar) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s, start=%s)", g.Name, g.Class, g.StartSymbol()))
	for _, r := range g.rules {
		sb.WriteString("\n  ")
		sb.WriteString(r.String())
	}
	return sb.String()
}

// RecursiveSymbols returns every single-symbol key that can derive a sequence
// containing itself, in sorted order.
func (g *Grammar) RecursiveSymbols() []Symbol {
	edges := map[Symbol][]Symbol{}
	for _, r := range g.rules {
		if r.Key.IsPair() {
			continue
		}
		for _, alt := range r.Alternatives {
			for _, sym := range alt {
				if g.IsNonTerminal(sym) {
					edges[r.Key.First()] = append(edges[r.Key.First()], sym)
				}
			}
		}
	}

	var recursive []Symbol
	for _, r := range g.rules {
		if r.Key.IsPair() {
			continue
		}
		start := r.Key.First()
		seen := map[Symbol]bool{}
		stack := append([]Symbol{}, edges[start]...)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur == start {
				recursive = append(recursive, start)
				break
			}
			if seen[cur] {
				continue
			}
			seen[cur] = true
			stack = append(stack, edges[cur]...)
		}
	}

	sort.Slice(recursive, func(i, j int) bool { return recursive[i] < recursive[j] })
	return recursive
}

// Validate checks the grammar against the lexicon it will be resolved with.
// All problems found are reported together in one error that has
// sgerr.ErrConfiguration as its cause.
func (g *Grammar) Validate(lex Lexicon) error {
	if len(g.rules) < 1 {
		return sgerr.Configf("grammar %q has no rules", g.Name)
	}

	errStr := ""

	if !g.IsNonTerminal(g.StartSymbol()) {
		errStr += fmt.Sprintf("ERR: no rule defined for start symbol %q\n", g.StartSymbol())
	}

	for _, r := range g.rules {
		if len(r.Alternatives) < 1 {
			errStr += fmt.Sprintf("ERR: non-terminal %q has zero alternatives\n", r.Key)
		}
		if r.Key.IsPair() && g.Class != ContextSensitive {
			errStr += fmt.Sprintf("ERR: pair key %q only allowed in a context-sensitive grammar\n", r.Key)
		}
		for _, sym := range r.Key.Symbols() {
			if lex.Has(sym) {
				errStr += fmt.Sprintf("ERR: symbol %q is both a rule key and a lexicon category\n", sym)
			}
		}
	}

	if g.Class == Regular {
		for _, sym := range g.RecursiveSymbols() {
			errStr += fmt.Sprintf("ERR: regular grammar has recursive non-terminal %q\n", sym)
		}
	}

	if err := lex.Validate(); err != nil {
		errStr += "ERR: " + err.Error() + "\n"
	}

	if len(errStr) > 0 {
		errStr = strings.TrimSuffix(errStr, "\n")
		return sgerr.Configf("grammar %q is invalid:\n%s", g.Name, errStr)
	}

	return nil
}
