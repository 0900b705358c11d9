package derive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/sentgen/internal/grammar"
)

// Counts is an expansion counter set: how many times each key has been
// expanded through the normal path within one top-level constituent.
type Counts map[grammar.Key]int

// Max returns the key with the highest count and that count. Ties go to the
// key that sorts first.
func (c Counts) Max() (grammar.Key, int) {
	var maxKey grammar.Key
	maxCount := 0
	for _, k := range c.Keys() {
		if c[k] > maxCount {
			maxKey = k
			maxCount = c[k]
		}
	}
	return maxKey, maxCount
}

// Keys returns every key in the set, sorted by name.
func (c Counts) Keys() []grammar.Key {
	keys := make([]grammar.Key, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (c Counts) Copy() Counts {
	c2 := make(Counts, len(c))
	for k, v := range c {
		c2[k] = v
	}
	return c2
}

func (c Counts) String() string {
	var sb strings.Builder
	sb.WriteRune('{')
	for i, k := range c.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %d", k, c[k]))
	}
	sb.WriteRune('}')
	return sb.String()
}

// Stats describes how a sentence was derived.
type Stats struct {
	// Constituents is the number of top-level constituents that were each
	// given their own counter set.
	Constituents int

	// Expansions is the number of normal-path expansions, not counting the
	// start expansion or joint expansions.
	Expansions int

	// JointExpansions is the number of pair keys expanded in the joint phase
	// of a context-sensitive derivation.
	JointExpansions int

	// MaxCount is the highest count reached by any key in any constituent.
	MaxCount int

	// MaxDepth is the deepest recursion depth at which a symbol was
	// expanded.
	MaxDepth int

	ExpansionBoundHits int
	DepthBoundHits     int

	// Repairs is the number of times forced terminal repair was invoked and
	// Rewrites is the number of repair entries it applied in total.
	Repairs  int
	Rewrites int

	// Counts holds the final counter set of each constituent, in order.
	Counts []Counts
}

// Sentence is the result of one derivation.
type Sentence struct {
	// Words are the literal words of the sentence.
	Words []string

	// Categories is the sequence that was lexically resolved to get Words.
	Categories []grammar.Symbol

	Stats Stats
}

// Empty returns whether the derivation produced no words.
func (s Sentence) Empty() bool {
	return len(s.Words) == 0
}

// Len is the number of words in the sentence.
func (s Sentence) Len() int {
	return len(s.Words)
}

// String gives the words joined by spaces, with no other formatting.
func (s Sentence) String() string {
	return strings.Join(s.Words, " ")
}

// DerivationError is returned when a single derivation must be abandoned. It
// carries the context needed to diagnose the problem and unwraps to the
// underlying error, which in turn has one of sgerr.ErrConfiguration or
// sgerr.ErrRepairNonTermination as a cause.
type DerivationError struct {
	// Symbol is the symbol being handled when the derivation failed.
	Symbol grammar.Symbol

	// Counts is the counter set of the constituent being derived.
	Counts Counts

	// Partial is the whole derivation sequence at the time of failure.
	Partial []grammar.Symbol

	Err error
}

func (e *DerivationError) Error() string {
	msg := "derivation failed"
	if e.Symbol != "" {
		msg += fmt.Sprintf(" at %q", e.Symbol)
	}
	msg += ": " + e.Err.Error()
	if len(e.Partial) > 0 {
		msg += fmt.Sprintf("\npartial: %s", grammar.Join(e.Partial))
	}
	if len(e.Counts) > 0 {
		msg += fmt.Sprintf("\ncounts: %s", e.Counts)
	}
	return msg
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}
