package sentgen

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/dekarrin/sentgen/internal/grammar"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// exampleBounds are the bounds that Example runs non-regular grammars with.
var exampleBounds = Bounds{MaxExpansions: 10, MaxDepth: 4}

// Example writes one sentence from every grammar in the bundle to w, each
// under a heading naming its class. If trace is set, the derivation of each
// is traced to w as well. The Engine's random source is used.
func (eng *Engine) Example(ctx context.Context, w io.Writer, trace bool) error {
	title := cases.Title(language.English)

	var logger *log.Logger
	if trace {
		logger = log.New(w, "", 0)
	}

	for _, name := range eng.bundle.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}

		def, _ := eng.bundle.Grammar(name)
		class := def.Grammar.Class

		// regular grammars are run with their own bounds
		bounds := &exampleBounds
		if class == grammar.Regular {
			bounds = nil
		}

		heading := fmt.Sprintf("=== %s Grammar (%s) Sentence ===\n", title.String(class.String()), class.Short())
		if _, err := io.WriteString(w, heading); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}

		gen, _, err := eng.generator(name, eng.src, bounds, logger)
		if err != nil {
			return err
		}
		s, err := gen.Generate()
		if err != nil {
			return fmt.Errorf("grammar %q: %w", name, err)
		}

		text := Format(s.Words)
		if s.Empty() {
			text = "(empty derivation)"
		}
		if _, err := io.WriteString(w, text+"\n\n"); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
	}

	return nil
}
