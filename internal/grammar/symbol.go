package grammar

import (
	"strings"
)

// Symbol is the atomic unit of a derivation. Whether it is a non-terminal, a
// lexicon category, or a literal word depends only on which table, if any, has
// it as a key.
type Symbol string

// EpsilonText is how an epsilon alternative is written in rule text and shown
// in output.
const EpsilonText = "ε"

// Key is the left-hand side of a production rule. It is normally a single
// Symbol; in context-sensitive grammars it can also be an ordered pair of
// Symbols that must be expanded jointly. Key is comparable and may be used as
// a map key.
type Key struct {
	first  Symbol
	second Symbol
}

// Single returns a Key for one symbol.
func Single(s Symbol) Key {
	return Key{first: s}
}

// Pair returns a joint Key for two adjacent symbols.
func Pair(first, second Symbol) Key {
	return Key{first: first, second: second}
}

// IsPair returns whether k is a joint key of two symbols.
func (k Key) IsPair() bool {
	return k.second != ""
}

// First returns the first (or only) symbol of the key.
func (k Key) First() Symbol {
	return k.first
}

// Second returns the second symbol of a pair key, or the empty symbol if k is
// not a pair.
func (k Key) Second() Symbol {
	return k.second
}

// Width is the number of sequence elements that the key covers.
func (k Key) Width() int {
	if k.IsPair() {
		return 2
	}
	return 1
}

// Symbols returns the symbols that make up the key, in order.
func (k Key) Symbols() []Symbol {
	if k.IsPair() {
		return []Symbol{k.first, k.second}
	}
	return []Symbol{k.first}
}

// Matches returns whether the key is found at the start of seq.
func (k Key) Matches(seq []Symbol) bool {
	if len(seq) < k.Width() {
		return false
	}
	if seq[0] != k.first {
		return false
	}
	return !k.IsPair() || seq[1] == k.second
}

func (k Key) String() string {
	if k.IsPair() {
		return string(k.first) + " " + string(k.second)
	}
	return string(k.first)
}

// Alternative is one right-hand side of a production rule. An empty
// Alternative is an epsilon production, which deletes its key with no
// replacement.
type Alternative []Symbol

// Epsilon is the empty alternative.
var Epsilon = Alternative{}

// IsEpsilon returns whether the alternative is the epsilon production.
func (a Alternative) IsEpsilon() bool {
	return len(a) == 0
}

// Copy returns a duplicate of the alternative that shares no storage with it.
func (a Alternative) Copy() Alternative {
	a2 := make(Alternative, len(a))
	copy(a2, a)
	return a2
}

// Equal returns whether a and o have the same symbols in the same order.
func (a Alternative) Equal(o Alternative) bool {
	if len(a) != len(o) {
		return false
	}
	for i := range a {
		if a[i] != o[i] {
			return false
		}
	}
	return true
}

// Has returns whether sym appears anywhere in the alternative.
func (a Alternative) Has(sym Symbol) bool {
	for i := range a {
		if a[i] == sym {
			return true
		}
	}
	return false
}

func (a Alternative) String() string {
	if a.IsEpsilon() {
		return EpsilonText
	}
	return Join(a)
}

// Join gives the symbols of seq separated by single spaces.
func Join(seq []Symbol) string {
	var sb strings.Builder
	for i := range seq {
		sb.WriteString(string(seq[i]))
		if i+1 < len(seq) {
			sb.WriteRune(' ')
		}
	}
	return sb.String()
}

// Symbols converts a list of strings to a list of Symbols.
func Symbols(strs ...string) []Symbol {
	syms := make([]Symbol, len(strs))
	for i := range strs {
		syms[i] = Symbol(strs[i])
	}
	return syms
}
