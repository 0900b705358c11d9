// Package sentgen contains an engine for generating sentences from bundles of
// stochastic grammars, either on demand, in bulk to an export destination, or
// from an interactive shell attached to an input stream and an output stream.
package sentgen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dekarrin/sentgen/internal/command"
	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/dekarrin/sentgen/internal/sgf"
)

// MaxAttemptsPerSentence is how many derivations may be tried for each
// sentence requested before a batch gives up.
const MaxAttemptsPerSentence = 1000

const consoleOutputWidth = 80

// Bounds are the two derivation bounds that can be set for a session or a
// request, replacing those of the grammar.
type Bounds struct {
	MaxExpansions int
	MaxDepth      int
}

// Options are the settings for creating an Engine.
type Options struct {
	// BundlePath is the path to the SGF file to load grammars from. If empty,
	// the built-in bundle is used.
	BundlePath string

	// Grammar is the name of the grammar that is current when the Engine
	// starts. If empty, the first grammar in the bundle is used.
	Grammar string

	// Seed seeds the random source. If nil, the current time is used.
	Seed *int64

	// Bounds, if set, replaces the bounds of every grammar.
	Bounds *Bounds

	// Trace enables derivation tracing from the start.
	Trace bool

	// TraceOutput is where trace lines are written. If nil, they go to the
	// output stream.
	TraceOutput io.Writer

	// Input is the stream commands are read from by RunUntilQuit. If nil,
	// stdin is used.
	Input io.Reader

	// Output is the stream all output is written to. If nil, stdout is used.
	Output io.Writer

	// ForceDirect disables readline even when attached to a terminal.
	ForceDirect bool
}

// Engine generates sentences from the grammars of one bundle.
//
// Batch and Generator may be called from multiple goroutines. All other
// methods use the Engine's own random source and session settings and must
// not be.
type Engine struct {
	bundle  sgf.Bundle
	current string

	seed   int64
	src    derive.Source
	bounds *Bounds

	traceOn  bool
	traceOut io.Writer

	last        *derive.Sentence
	lastGrammar string

	inStream    io.Reader
	in          command.Reader
	out         *bufio.Writer
	forceDirect bool
	useReadline bool
	running     bool
}

// New creates a new Engine with the given options. The bundle is loaded and
// every grammar in it checked before New returns.
func New(opts Options) (*Engine, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var bundle sgf.Bundle
	var err error
	if opts.BundlePath == "" {
		bundle, err = sgf.LoadBuiltin()
	} else {
		bundle, err = sgf.Load(opts.BundlePath)
	}
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}

	eng := &Engine{
		bundle:      bundle,
		inStream:    opts.Input,
		out:         bufio.NewWriter(opts.Output),
		forceDirect: opts.ForceDirect,
		useReadline: !opts.ForceDirect && opts.Input == os.Stdin && opts.Output == os.Stdout,
		traceOn:     opts.Trace,
		traceOut:    opts.TraceOutput,
	}
	if eng.traceOut == nil {
		eng.traceOut = eng.out
	}

	if opts.Bounds != nil {
		b := *opts.Bounds
		if err := checkBounds(b); err != nil {
			return nil, err
		}
		eng.bounds = &b
	}

	names := bundle.Names()
	eng.current = names[0]
	if opts.Grammar != "" {
		def, ok := bundle.Grammar(opts.Grammar)
		if !ok {
			return nil, unknownGrammar(opts.Grammar)
		}
		eng.current = def.Grammar.Name
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	eng.Reseed(seed)

	// check every grammar against the lexicon and its repair table now
	// rather than on first use
	for _, name := range names {
		if _, _, err := eng.Generator(name, eng.src, nil); err != nil {
			return nil, fmt.Errorf("grammar %q: %w", name, err)
		}
	}

	return eng, nil
}

// Close closes all resources associated with the Engine, including any
// readline-related resources created for interactive mode.
func (eng *Engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}

	if eng.in != nil {
		if err := eng.in.Close(); err != nil {
			return fmt.Errorf("close command reader: %w", err)
		}
		eng.in = nil
	}

	return nil
}

// Bundle returns the bundle the Engine was loaded with.
func (eng *Engine) Bundle() sgf.Bundle {
	return eng.bundle
}

// Warnings returns the non-fatal problems found when loading the bundle.
func (eng *Engine) Warnings() []string {
	return eng.bundle.Warnings
}

// Current returns the name of the current grammar.
func (eng *Engine) Current() string {
	return eng.current
}

// Seed returns the seed the Engine's random source was last seeded with.
func (eng *Engine) Seed() int64 {
	return eng.seed
}

// Reseed replaces the Engine's random source with one seeded with seed.
func (eng *Engine) Reseed(seed int64) {
	eng.seed = seed
	eng.src = derive.NewSource(seed)
}

// Generator returns a generator for the named grammar that draws from src.
// If bounds is not nil it replaces the bounds of the grammar.
func (eng *Engine) Generator(name string, src derive.Source, bounds *Bounds) (*derive.Generator, sgf.GrammarDef, error) {
	return eng.generator(name, src, bounds, nil)
}

func (eng *Engine) generator(name string, src derive.Source, bounds *Bounds, trace *log.Logger) (*derive.Generator, sgf.GrammarDef, error) {
	if name == "" {
		name = eng.current
	}
	def, ok := eng.bundle.Grammar(name)
	if !ok {
		return nil, def, unknownGrammar(name)
	}

	gen, err := derive.NewGenerator(def.Grammar, eng.bundle.Lexicon, configFor(def, src, bounds, trace))
	if err != nil {
		return nil, def, err
	}
	return gen, def, nil
}

// configFor builds the derivation config for def. Bounds not declared by the
// grammar are left at their defaults.
func configFor(def sgf.GrammarDef, src derive.Source, bounds *Bounds, trace *log.Logger) derive.Config {
	cfg := def.Bounds.Apply(derive.DefaultConfig())
	if bounds != nil {
		cfg.MaxExpansions = bounds.MaxExpansions
		cfg.MaxDepth = bounds.MaxDepth
	}

	cfg.Source = src
	cfg.Repair = def.Repair
	cfg.Trace = trace
	return cfg
}

func (eng *Engine) traceLogger() *log.Logger {
	if !eng.traceOn {
		return nil
	}
	return log.New(eng.traceOut, "", 0)
}

// Generate derives one sentence from the named grammar, or from the current
// grammar if name is empty, using the Engine's random source and session
// bounds. The result may be empty; use Format to get its text.
func (eng *Engine) Generate(ctx context.Context, name string) (derive.Sentence, error) {
	if err := ctx.Err(); err != nil {
		return derive.Sentence{}, err
	}

	gen, def, err := eng.generator(name, eng.src, eng.bounds, eng.traceLogger())
	if err != nil {
		return derive.Sentence{}, err
	}

	s, err := gen.Generate()
	if err != nil {
		return derive.Sentence{}, err
	}

	eng.last = &s
	eng.lastGrammar = def.Grammar.Name
	return s, nil
}

// Export writes n sentences from the named grammar to sink. Only sentences
// whose length passes the grammar's filter are written; others are derived
// again, up to MaxAttemptsPerSentence tries per sentence. The number of
// sentences written is returned. The sink is not closed.
//
// The batch is derived from a new source whose seed is drawn from the
// Engine's source. Every record carries that batch seed; exporting again
// from a source with the same seed, grammar, and bounds gives the same
// sentences.
func (eng *Engine) Export(ctx context.Context, name string, n int, sink export.Sink) (int, error) {
	batchSeed := derive.NewSeed(eng.src)
	gen, def, err := eng.generator(name, derive.NewSource(batchSeed), eng.bounds, eng.traceLogger())
	if err != nil {
		return 0, err
	}

	written := 0
	err = produce(ctx, gen, n, def.Filter, func(s derive.Sentence) error {
		_, err := sink.Write(ctx, export.Record{
			Grammar: def.Grammar.Name,
			Text:    Format(s.Words),
			Words:   s.Len(),
			Seed:    batchSeed,
			Repairs: s.Stats.Repairs,
		})
		if err != nil {
			return fmt.Errorf("write sentence: %w", err)
		}
		written++
		return nil
	})

	return written, err
}

// Batch generates n non-empty sentences from the named grammar using a new
// source seeded with seed. The same arguments always give the same
// sentences. No length filter is applied. If bounds is not nil it replaces
// the bounds of the grammar.
func (eng *Engine) Batch(ctx context.Context, name string, n int, seed int64, bounds *Bounds) ([]derive.Sentence, error) {
	if bounds != nil {
		if err := checkBounds(*bounds); err != nil {
			return nil, err
		}
	}

	gen, _, err := eng.Generator(name, derive.NewSource(seed), bounds)
	if err != nil {
		return nil, err
	}

	sentences := make([]derive.Sentence, 0, n)
	err = produce(ctx, gen, n, sgf.Filter{}, func(s derive.Sentence) error {
		sentences = append(sentences, s)
		return nil
	})
	return sentences, err
}

// produce derives sentences until n have been passed to emit. Empty sentences
// and those rejected by filter are not counted.
func produce(ctx context.Context, gen *derive.Generator, n int, filter sgf.Filter, emit func(derive.Sentence) error) error {
	if n < 1 {
		return sgerr.New(fmt.Sprintf("number of sentences must be at least 1; got %d", n), sgerr.ErrBadArgument)
	}

	limit := n * MaxAttemptsPerSentence
	produced, empty, filtered := 0, 0, 0

	for attempt := 0; produced < n; attempt++ {
		if attempt >= limit {
			msg := fmt.Sprintf("gave up after %d attempts with %d of %d sentences produced (%d empty, %d outside %s)", attempt, produced, n, empty, filtered, describeFilter(filter))
			if empty > 0 {
				return sgerr.New(msg, sgerr.ErrTooManyAttempts, sgerr.ErrEmptyDerivation)
			}
			return sgerr.New(msg, sgerr.ErrTooManyAttempts)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s, err := gen.Generate()
		if err != nil {
			return err
		}

		if s.Empty() {
			empty++
			continue
		}
		if !filter.Accepts(s.Len()) {
			filtered++
			continue
		}

		if err := emit(s); err != nil {
			return err
		}
		produced++
	}

	return nil
}

func describeFilter(f sgf.Filter) string {
	switch {
	case f.MinWords > 0 && f.MaxWords > 0:
		return fmt.Sprintf("%d to %d words", f.MinWords, f.MaxWords)
	case f.MinWords > 0:
		return fmt.Sprintf("at least %d words", f.MinWords)
	case f.MaxWords > 0:
		return fmt.Sprintf("at most %d words", f.MaxWords)
	default:
		return "any length"
	}
}

// Format gives the text of a sentence: the words separated by spaces, with
// the first letter capitalized and a period at the end. No words gives the
// empty string.
func Format(words []string) string {
	if len(words) < 1 {
		return ""
	}

	text := strings.Join(words, " ")
	first, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(first)) + text[size:] + "."
}

func checkBounds(b Bounds) error {
	cfg := derive.Config{MaxExpansions: b.MaxExpansions, MaxDepth: b.MaxDepth}
	return cfg.Validate()
}

func unknownGrammar(name string) error {
	return sgerr.WrapUserf(sgerr.ErrNotFound, "There is no grammar named %q", name)
}
