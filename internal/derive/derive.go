// Package derive turns a grammar and lexicon into sentences. It implements
// one strategy per grammar class:
//
//   - regular grammars are rewritten in synchronous rounds over the whole
//     frontier;
//   - context-free and indexed grammars are expanded depth-first, bounded by
//     a per-constituent expansion counter set and a recursion depth;
//   - context-sensitive grammars first expand pair keys jointly, then
//     continue depth-first.
//
// Whenever a bound is hit, the affected span is handed to forced terminal
// repair (package repair), so a derivation never aborts just because a
// recursive grammar ran long.
package derive

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/repair"
	"github.com/dekarrin/sentgen/internal/sgerr"
)

const (
	DefaultMaxExpansions = 10
	DefaultMaxDepth      = 4

	// MaxDepthLimit is the largest recursion depth bound accepted.
	MaxDepthLimit = 4096
)

// Source is a source of random draws. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// NewSource returns a Source seeded with seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewSeed draws a non-negative seed for a new Source from src.
func NewSeed(src Source) int64 {
	return int64(src.Intn(math.MaxInt))
}

// LockedSource is a Source that is safe for use by multiple goroutines.
type LockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource wraps src for concurrent use.
func NewLockedSource(src Source) *LockedSource {
	return &LockedSource{src: src}
}

func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Intn(n)
}

func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Float64()
}

// Config holds the knobs of a derivation.
type Config struct {
	// MaxExpansions is the bound M on normal-path expansions of any one key
	// within a top-level constituent. Must be at least 1.
	MaxExpansions int

	// MaxDepth is the bound D on recursion depth. Must be at least 0.
	MaxDepth int

	// MaxRepairPasses caps the passes of forced terminal repair. If 0,
	// repair.DefaultMaxPasses is used.
	MaxRepairPasses int

	// Source supplies all random draws. If nil, a time-seeded source is used.
	Source Source

	// Trace, if set, receives a line for every expansion, bound hit, and
	// repair. It has no effect on the output.
	Trace *log.Logger

	// Repair is the forced terminal repair table. If nil, the built-in table
	// for the grammar's class is used.
	Repair *repair.Table
}

// DefaultConfig returns a Config with the default bounds.
func DefaultConfig() Config {
	return Config{
		MaxExpansions: DefaultMaxExpansions,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Validate returns an error if the bounds are out of range.
func (cfg Config) Validate() error {
	if cfg.MaxExpansions < 1 {
		return sgerr.Configf("max expansions per symbol must be at least 1; got %d", cfg.MaxExpansions)
	}
	if cfg.MaxDepth < 0 {
		return sgerr.Configf("max recursion depth must be at least 0; got %d", cfg.MaxDepth)
	}
	if cfg.MaxDepth > MaxDepthLimit {
		return sgerr.Configf("max recursion depth must be at most %d; got %d", MaxDepthLimit, cfg.MaxDepth)
	}
	if cfg.MaxRepairPasses < 0 {
		return sgerr.Configf("max repair passes must not be negative; got %d", cfg.MaxRepairPasses)
	}
	return nil
}

// Generator derives sentences from one grammar and lexicon. Configuration is
// validated once when the Generator is created. A Generator holds no state
// between derivations, but its Source is used without locking, so it must
// not be shared between goroutines unless its Source is safe for that.
type Generator struct {
	g       *grammar.Grammar
	lex     grammar.Lexicon
	cfg     Config
	repairs *repair.Table
	derive  strategy
}

// NewGenerator validates the grammar, lexicon, repair table, and bounds and
// returns a Generator for them. The strategy is chosen by the grammar's
// class.
func NewGenerator(g *grammar.Grammar, lex grammar.Lexicon, cfg Config) (*Generator, error) {
	if g == nil {
		return nil, sgerr.Configf("no grammar given")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(lex); err != nil {
		return nil, err
	}

	if cfg.Source == nil {
		cfg.Source = NewSource(time.Now().UnixNano())
	}
	if cfg.MaxRepairPasses == 0 {
		cfg.MaxRepairPasses = repair.DefaultMaxPasses
	}

	table := cfg.Repair
	if table == nil {
		table = repair.ForClass(g.Class)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	gen := &Generator{
		g:       g,
		lex:     lex,
		cfg:     cfg,
		repairs: table,
	}

	switch g.Class {
	case grammar.Regular:
		gen.derive = deriveRegular
	case grammar.ContextFree, grammar.Indexed:
		gen.derive = deriveBounded
	case grammar.ContextSensitive:
		gen.derive = deriveJoint
	default:
		return nil, sgerr.Configf("unsupported grammar class %s", g.Class)
	}

	return gen, nil
}

// Grammar returns the grammar that the Generator derives from.
func (gen *Generator) Grammar() *grammar.Grammar {
	return gen.g
}

// Config returns the validated configuration of the Generator, with defaults
// filled in.
func (gen *Generator) Config() Config {
	return gen.cfg
}

// WithSource returns a copy of the Generator that draws from src instead.
func (gen *Generator) WithSource(src Source) *Generator {
	gen2 := *gen
	gen2.cfg.Source = src
	return &gen2
}

// Generate derives one sentence from the grammar's start symbol.
func (gen *Generator) Generate() (Sentence, error) {
	return gen.GenerateFrom(gen.g.StartSymbol())
}

// GenerateFrom derives one sentence from the given start symbol. A derivation
// that produces no words is not an error; check Sentence.Empty.
func (gen *Generator) GenerateFrom(start grammar.Symbol) (Sentence, error) {
	d := &derivation{
		g:   gen.g,
		cfg: gen.cfg,
		src: gen.cfg.Source,
		rep: &repair.Repairer{
			Table:     gen.repairs,
			Grammar:   gen.g,
			Rand:      gen.cfg.Source,
			MaxPasses: gen.cfg.MaxRepairPasses,
			Trace:     gen.cfg.Trace,
		},
	}

	if err := gen.derive(d, start); err != nil {
		return Sentence{}, err
	}

	for _, sym := range d.seq {
		if d.rep.Pending(sym) {
			return Sentence{}, &DerivationError{
				Symbol:  sym,
				Partial: copySeq(d.seq),
				Err:     sgerr.New("unresolved symbol left after derivation", sgerr.ErrRepairNonTermination),
			}
		}
	}

	words, err := Resolve(d.seq, gen.lex, gen.cfg.Source)
	if err != nil {
		return Sentence{}, &DerivationError{Partial: copySeq(d.seq), Err: err}
	}

	if gen.cfg.Trace != nil {
		gen.cfg.Trace.Printf("DEBUG derived %q", words)
	}

	return Sentence{
		Words:      words,
		Categories: d.seq,
		Stats:      d.stats,
	}, nil
}

// Generate derives one sentence from start using g and lex. It is a shortcut
// for NewGenerator followed by GenerateFrom.
func Generate(g *grammar.Grammar, lex grammar.Lexicon, start grammar.Symbol, cfg Config) (Sentence, error) {
	gen, err := NewGenerator(g, lex, cfg)
	if err != nil {
		return Sentence{}, err
	}
	return gen.GenerateFrom(start)
}

// Resolve replaces each lexicon category in seq with a word drawn uniformly
// from its list. Literals are passed through unchanged.
func Resolve(seq []grammar.Symbol, lex grammar.Lexicon, src Source) ([]string, error) {
	words := make([]string, 0, len(seq))
	for _, sym := range seq {
		list, ok := lex[sym]
		if !ok {
			words = append(words, string(sym))
			continue
		}
		if len(list) < 1 {
			return nil, sgerr.Configf("lexicon category %q has no words", sym)
		}
		words = append(words, list[src.Intn(len(list))])
	}
	return words, nil
}

func copySeq(seq []grammar.Symbol) []grammar.Symbol {
	return append([]grammar.Symbol(nil), seq...)
}
