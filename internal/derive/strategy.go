package derive

import (
	"errors"

	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/repair"
	"github.com/dekarrin/sentgen/internal/sgerr"
)

// strategy derives the category sequence of one sentence into d.seq.
type strategy func(d *derivation, start grammar.Symbol) error

// derivation is the state of one sentence's derivation. The sequence holds
// the whole sentence so that repair can see left context; counter sets are
// passed down explicitly and never stored here.
type derivation struct {
	g     *grammar.Grammar
	cfg   Config
	src   Source
	rep   *repair.Repairer
	seq   []grammar.Symbol
	stats Stats
}

type bound int

const (
	boundExpansions bound = iota
	boundDepth
)

func (b bound) String() string {
	if b == boundDepth {
		return "max recursion depth"
	}
	return "max expansion count"
}

func (d *derivation) trace(format string, a ...interface{}) {
	if d.cfg.Trace != nil {
		d.cfg.Trace.Printf("DEBUG "+format, a...)
	}
}

// choose picks an alternative of the rule for k uniformly at random.
func (d *derivation) choose(k grammar.Key, counts Counts) (grammar.Alternative, error) {
	alts := d.g.Rule(k).Alternatives
	if len(alts) < 1 {
		return nil, d.fail(k.First(), counts, sgerr.Configf("non-terminal %q has zero alternatives", k))
	}
	return alts[d.src.Intn(len(alts))], nil
}

// splice replaces seq[start:end] with alt.
func (d *derivation) splice(start, end int, alt grammar.Alternative) {
	tail := copySeq(d.seq[end:])
	d.seq = append(append(d.seq[:start], alt...), tail...)
}

func (d *derivation) fail(sym grammar.Symbol, counts Counts, err error) error {
	var dErr *DerivationError
	if errors.As(err, &dErr) {
		return err
	}
	var c Counts
	if counts != nil {
		c = counts.Copy()
	}
	return &DerivationError{
		Symbol:  sym,
		Counts:  c,
		Partial: copySeq(d.seq),
		Err:     err,
	}
}

// repair runs forced terminal repair over seq[lo:hi] and returns the new end
// of the span.
func (d *derivation) repair(lo, hi int, at grammar.Key, why bound, counts Counts) (int, error) {
	d.trace("%s reached at %s; forcing terminals over %q", why, at, grammar.Join(d.seq[lo:hi]))

	res, err := d.rep.Repair(d.seq, lo, hi)
	d.seq = res.Seq
	d.stats.Repairs++
	d.stats.Rewrites += res.Rewrites
	if err != nil {
		sym := at.First()
		var rErr *repair.Error
		if errors.As(err, &rErr) && rErr.Symbol != "" {
			sym = rErr.Symbol
		}
		return 0, d.fail(sym, counts, err)
	}
	return res.Hi, nil
}

// start replaces the sequence with one alternative of the start symbol's
// rule. The start expansion does not count against any bound. If start is
// not a non-terminal, the sequence is just start.
func (d *derivation) start(start grammar.Symbol) error {
	k := grammar.Single(start)
	if !d.g.HasRule(k) {
		d.seq = []grammar.Symbol{start}
		return nil
	}
	alt, err := d.choose(k, nil)
	if err != nil {
		return err
	}
	d.seq = alt.Copy()
	d.trace("start %s -> %s", start, alt)
	return nil
}

// deriveRegular rewrites every non-terminal of the frontier in each round,
// keeping the order of the frontier, until none are left. The grammar is
// known to be non-recursive, so this always finishes.
func deriveRegular(d *derivation, start grammar.Symbol) error {
	d.seq = []grammar.Symbol{start}

	for round := 1; ; round++ {
		changed := false
		next := make([]grammar.Symbol, 0, len(d.seq))
		for _, sym := range d.seq {
			k := grammar.Single(sym)
			if !d.g.HasRule(k) {
				next = append(next, sym)
				continue
			}
			alt, err := d.choose(k, nil)
			if err != nil {
				return err
			}
			d.trace("round %d: %s -> %s", round, sym, alt)
			next = append(next, alt...)
			d.stats.Expansions++
			changed = true
		}
		d.seq = next
		if !changed {
			return nil
		}
		if round > d.stats.MaxDepth {
			d.stats.MaxDepth = round
		}
	}
}

// deriveBounded expands the start symbol once, then derives every element it
// produced as its own top-level constituent with a fresh counter set.
func deriveBounded(d *derivation, start grammar.Symbol) error {
	if err := d.start(start); err != nil {
		return err
	}
	return d.constituents()
}

// deriveJoint is deriveBounded with a joint phase in between: after the start
// expansion, adjacent symbols that form a pair key are expanded together
// until no pair keys remain at the top level.
func deriveJoint(d *derivation, start grammar.Symbol) error {
	if err := d.start(start); err != nil {
		return err
	}
	if err := d.joint(); err != nil {
		return err
	}
	return d.constituents()
}

func (d *derivation) constituents() error {
	i := 0
	for i < len(d.seq) {
		counts := Counts{}
		end, err := d.resolve(i, i+1, 0, counts)
		if err != nil {
			return err
		}
		d.stats.Constituents++
		d.stats.Counts = append(d.stats.Counts, counts)
		if _, n := counts.Max(); n > d.stats.MaxCount {
			d.stats.MaxCount = n
		}
		i = end
	}
	return nil
}

// joint expands top-level pair keys. Joint expansions have their own counter
// set, bounded the same as any other; a pair that reaches the bound is
// repaired as a unit.
func (d *derivation) joint() error {
	counts := Counts{}
	i := 0
	for i+1 < len(d.seq) {
		k := grammar.Pair(d.seq[i], d.seq[i+1])
		if !d.g.HasRule(k) {
			i++
			continue
		}

		if counts[k] >= d.cfg.MaxExpansions {
			d.stats.ExpansionBoundHits++
			end, err := d.repair(i, i+2, k, boundExpansions, counts)
			if err != nil {
				return err
			}
			i = end
			continue
		}

		alt, err := d.choose(k, counts)
		if err != nil {
			return err
		}
		counts[k]++
		d.stats.JointExpansions++
		d.trace("joint %s -> %s (count %d)", k, alt, counts[k])
		d.splice(i, i+2, alt)

		// the replacement may form a new pair with the symbol before it.
		if i > 0 {
			i--
		}
	}
	return nil
}

// resolve drives seq[lo:hi] to terminals depth-first and returns the new end
// of the span. Every expansion's replacement is resolved completely, one
// level deeper, before the scan moves past it. If a key has reached its bound
// or the depth bound is reached, the whole span is repaired instead and the
// rest of it is not expanded.
func (d *derivation) resolve(lo, hi, depth int, counts Counts) (int, error) {
	i := lo
	for i < hi {
		k, ok := d.g.KeyAt(d.seq, i, hi)
		if !ok {
			i++
			continue
		}

		if counts[k] >= d.cfg.MaxExpansions {
			d.stats.ExpansionBoundHits++
			return d.repair(lo, hi, k, boundExpansions, counts)
		}
		if depth >= d.cfg.MaxDepth {
			d.stats.DepthBoundHits++
			return d.repair(lo, hi, k, boundDepth, counts)
		}

		alt, err := d.choose(k, counts)
		if err != nil {
			return 0, err
		}
		counts[k]++
		d.stats.Expansions++
		if depth > d.stats.MaxDepth {
			d.stats.MaxDepth = depth
		}
		d.trace("expand %s -> %s (count %d, depth %d)", k, alt, counts[k], depth)

		d.splice(i, i+k.Width(), alt)
		hi += len(alt) - k.Width()
		if alt.IsEpsilon() {
			continue
		}

		altEnd := i + len(alt)
		end, err := d.resolve(i, altEnd, depth+1, counts)
		if err != nil {
			return 0, err
		}
		hi += end - altEnd
		i = end
	}
	return hi, nil
}
