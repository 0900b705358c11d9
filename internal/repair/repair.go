package repair

import (
	"fmt"
	"log"

	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/sgerr"
)

// DefaultMaxPasses is the pass cap used when a Repairer does not set one.
const DefaultMaxPasses = 64

// Source is the source of randomness for weighted choices.
type Source interface {
	Float64() float64
}

// Error is returned when a repair cannot be completed. Its cause is either
// sgerr.ErrConfiguration, when a pending symbol has no entry, or
// sgerr.ErrRepairNonTermination, when the pass cap was reached.
type Error struct {
	// Symbol is the symbol that could not be repaired. It is empty for
	// non-termination errors.
	Symbol grammar.Symbol

	// Snapshot is the repaired span as it was when repair gave up.
	Snapshot []grammar.Symbol

	Passes int

	cause error
}

func (e *Error) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("no forced repair rule for %q in %q", e.Symbol, grammar.Join(e.Snapshot))
	}
	return fmt.Sprintf("still unresolved after %d passes: %q", e.Passes, grammar.Join(e.Snapshot))
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Result is the outcome of a successful repair.
type Result struct {
	// Seq is the full sequence after repair. It may share storage with the
	// sequence that was given.
	Seq []grammar.Symbol

	// Hi is the new end of the repaired span.
	Hi int

	// Rewrites is the number of entries applied.
	Rewrites int

	// Passes is the number of passes made over the span.
	Passes int
}

// Repairer applies a Table to spans of a derivation sequence. Grammar is used
// to recognize pending non-terminals that the table does not cover; it may be
// nil, in which case only symbols with a table entry are pending.
type Repairer struct {
	Table     *Table
	Grammar   *grammar.Grammar
	Rand      Source
	MaxPasses int
	Trace     *log.Logger
}

// Pending returns whether sym still needs to be rewritten before lexical
// resolution.
func (r *Repairer) Pending(sym grammar.Symbol) bool {
	if r.Grammar != nil && r.Grammar.IsNonTerminal(sym) {
		return true
	}
	return r.Table.Has(grammar.Single(sym))
}

// Repair rewrites seq[lo:hi] in place until it contains no pending symbols.
// The symbols before lo are used as left context for agreement and are never
// changed; neither are the symbols at or after hi.
//
// Each pass applies one entry to every pending position in the span, left to
// right, and skips over what it inserted; symbols introduced by a pass are
// handled by the next one.
func (r *Repairer) Repair(seq []grammar.Symbol, lo, hi int) (Result, error) {
	maxPasses := r.MaxPasses
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}

	res := Result{Seq: seq, Hi: hi}

	for {
		if !r.anyPending(res.Seq, lo, res.Hi) {
			return res, nil
		}
		if res.Passes >= maxPasses {
			return res, &Error{
				Snapshot: copySpan(res.Seq, lo, res.Hi),
				Passes:   res.Passes,
				cause:    sgerr.ErrRepairNonTermination,
			}
		}
		res.Passes++

		i := lo
		for i < res.Hi {
			e, ok := r.Table.keyAt(res.Seq, i, res.Hi)
			if !ok {
				if r.Pending(res.Seq[i]) {
					return res, &Error{
						Symbol:   res.Seq[i],
						Snapshot: copySpan(res.Seq, lo, res.Hi),
						Passes:   res.Passes,
						cause:    sgerr.ErrConfiguration,
					}
				}
				i++
				continue
			}

			repl := r.choose(e, res.Seq[:i]).Seq
			if i > 0 && len(repl) > 0 && r.Table.Agreement.Determiners[res.Seq[i-1]] && r.Table.Agreement.Determiners[repl[0]] {
				repl = repl[1:]
			}

			if r.Trace != nil {
				r.Trace.Printf("DEBUG repair %s -> %s", e.Key, grammar.Alternative(repl))
			}

			width := e.Key.Width()
			res.Seq = splice(res.Seq, i, i+width, repl)
			res.Hi += len(repl) - width
			res.Rewrites++
			i += len(repl)
		}
	}
}

func (r *Repairer) anyPending(seq []grammar.Symbol, lo, hi int) bool {
	for i := lo; i < hi; i++ {
		if r.Pending(seq[i]) {
			return true
		}
		if i+1 < hi && r.Table.Has(grammar.Pair(seq[i], seq[i+1])) {
			return true
		}
	}
	return false
}

// choose makes a weighted choice among the alternatives of e. For agreeing
// entries only alternatives that match the context number are considered, if
// any do. If the symbol right before the span is a determiner, only
// alternatives that match its number are considered, if any do, since a
// leading determiner of the replacement will be dropped in favor of it.
func (r *Repairer) choose(e Entry, left []grammar.Symbol) Alt {
	agr := r.Table.Agreement
	alts := e.Alts
	if e.Agree {
		alts = matchingNumber(agr, alts, agr.ContextNumber(left))
	}
	if len(left) > 0 && agr.Determiners[left[len(left)-1]] {
		alts = matchingNumber(agr, alts, agr.NumberOf(left[len(left)-1]))
	}

	return Choose(r.Rand, alts)
}

// matchingNumber gives the alternatives whose number is n or that carry no
// number. If none do, or n is NoNumber, alts is returned as-is.
func matchingNumber(agr Agreement, alts []Alt, n Number) []Alt {
	if n == NoNumber {
		return alts
	}
	var matching []Alt
	for _, a := range alts {
		if an := agr.NumberOfSeq(a.Seq); an == n || an == NoNumber {
			matching = append(matching, a)
		}
	}
	if len(matching) > 0 {
		return matching
	}
	return alts
}

// Choose makes a weighted random choice from alts, which must not be empty.
func Choose(src Source, alts []Alt) Alt {
	total := 0.0
	for _, a := range alts {
		total += a.Weight
	}

	x := src.Float64() * total
	for _, a := range alts {
		x -= a.Weight
		if x < 0 {
			return a
		}
	}
	return alts[len(alts)-1]
}

// splice replaces seq[start:end] with repl and returns the result.
func splice(seq []grammar.Symbol, start, end int, repl []grammar.Symbol) []grammar.Symbol {
	tail := append([]grammar.Symbol(nil), seq[end:]...)
	seq = append(seq[:start], repl...)
	return append(seq, tail...)
}

func copySpan(seq []grammar.Symbol, lo, hi int) []grammar.Symbol {
	return append([]grammar.Symbol(nil), seq[lo:hi]...)
}
