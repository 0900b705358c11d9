package derive

import (
	"bytes"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/repair"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstSource always picks the first alternative, word, and weighted choice.
type firstSource struct{}

func (firstSource) Intn(n int) int   { return 0 }
func (firstSource) Float64() float64 { return 0 }

var testLexicon = grammar.Lexicon{
	"Det_sg":        {"the", "a"},
	"Det_pl":        {"the"},
	"N_sg":          {"dog", "theorem", "star"},
	"N_pl":          {"dogs", "theorems", "stars"},
	"ProperNoun_sg": {"Euler", "Noether"},
	"Adj":           {"quick", "elegant"},
	"V_sg":          {"runs", "proves", "sees"},
	"V_pl":          {"run", "prove", "see"},
	"Adv":           {"quickly", "softly"},
	"P":             {"with", "of"},
	"Conj":          {"and", "or"},
	"RelPronoun":    {"who", "that"},
}

var contextFreeRules = []string{
	"S -> NP VP",
	"NP -> NP_sg | NP_pl",
	"NP_sg -> Det_sg N_sg NP_conj_sg | Det_sg Adj N_sg | ProperNoun_sg | ProperNoun_sg NP_conj_sg",
	"NP_pl -> Det_pl N_pl NP_conj_pl | Det_pl Adj N_pl",
	"NP_conj_sg -> Conj NP_sg | ε",
	"NP_conj_pl -> Conj NP_pl | ε",
	"VP -> VP_sg | VP_pl",
	"VP_sg -> V_sg NP VP_conj_sg | V_sg VP_conj_sg | Adv V_sg NP VP_conj_sg | Adv V_sg VP_conj_sg",
	"VP_pl -> V_pl NP VP_conj_pl | Adv V_pl VP_conj_pl | V_pl NP | V_pl | Adv V_pl NP",
	"VP_conj_sg -> Conj VP_sg PP | ε",
	"VP_conj_pl -> Conj VP_pl PP | ε",
	"PP -> P NP | P NP PP_conj",
	"PP_conj -> Conj PP | ε",
}

var indexedRules = []string{
	"S -> NP_sg VP_sg | NP_pl VP_pl",
	"NP -> NP_sg | NP_sg NP_conj_sg | NP_sg PP | NP_pl PP | NP_pl | NP_pl NP_conj_pl",
	"NP_sg -> Det_sg N_sg | Det_sg Adj N_sg | NP_sg PP | ProperNoun_sg RC_sg | ProperNoun_sg | Det_sg N_sg RC_sg | Det_sg Adj N_sg RC_sg",
	"NP_pl -> Det_pl N_pl | Det_pl Adj N_pl | NP_pl PP | Det_pl Adj N_pl RC_pl | Det_pl N_pl RC_pl",
	"NP_conj_sg -> Conj NP_sg | Conj NP_sg NP_conj_sg | ε",
	"NP_conj_pl -> Conj NP_pl | Conj NP_pl NP_conj_pl | ε",
	"RC_sg -> RelPronoun VP_sg",
	"RC_pl -> RelPronoun VP_pl",
	"VP -> VP_sg | VP_pl",
	"VP_sg -> V_sg NP VP_conj_sg | V_sg VP_conj_sg | Adv V_sg VP_conj_sg | V_sg NP | V_sg | VP_sg PP | Adv VP_sg",
	"VP_pl -> V_pl NP VP_conj_pl | V_pl VP_conj_pl | V_pl NP | V_pl | Adv V_pl NP | VP_pl PP | VP_pl",
	"VP_conj_sg -> Conj VP_sg | ε",
	"VP_conj_pl -> Conj VP_pl | ε",
	"PP -> P NP | P NP PP_conj",
	"PP_conj -> Conj PP | ε",
}

func isCategoryOrKey(g *grammar.Grammar, lex grammar.Lexicon, word string) bool {
	sym := grammar.Symbol(word)
	return lex.Has(sym) || g.IsNonTerminal(sym)
}

func Test_Generate_RegularScenario(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParseRules("rg", grammar.Regular,
		"S -> NP VP",
		"NP -> Det N",
		"VP -> V",
	)
	lex := grammar.Lexicon{"Det": {"the"}, "N": {"dog"}, "V": {"runs"}}

	actual, err := Generate(g, lex, "S", Config{MaxExpansions: 1, MaxDepth: 0, Source: firstSource{}})

	assert.NoError(err)
	assert.Equal([]string{"the", "dog", "runs"}, actual.Words)
}

func Test_Generate_RegularKeepsWordOrder(t *testing.T) {
	assert := assert.New(t)

	// NP takes two rounds to finish and VP takes one; words must still come
	// out in frontier order.
	g := grammar.MustParseRules("rg", grammar.Regular,
		"S -> NP VP",
		"NP -> Det NOM",
		"NOM -> Adj N",
		"VP -> V",
	)
	lex := grammar.Lexicon{"Det": {"the"}, "Adj": {"quick"}, "N": {"dog"}, "V": {"runs"}}

	actual, err := Generate(g, lex, "S", Config{MaxExpansions: 1, Source: NewSource(3)})

	assert.NoError(err)
	assert.Equal([]string{"the", "quick", "dog", "runs"}, actual.Words)
}

func Test_NewGenerator_RejectsBadConfig(t *testing.T) {
	g := grammar.MustParseRules("cf", grammar.ContextFree, contextFreeRules...)

	testCases := []struct {
		name string
		g    *grammar.Grammar
		cfg  Config
	}{
		{name: "zero max expansions", g: g, cfg: Config{MaxExpansions: 0, MaxDepth: 3}},
		{name: "negative max depth", g: g, cfg: Config{MaxExpansions: 1, MaxDepth: -1}},
		{name: "huge max depth", g: g, cfg: Config{MaxExpansions: 1, MaxDepth: MaxDepthLimit + 1}},
		{name: "cyclic repair table", g: g, cfg: Config{MaxExpansions: 1, MaxDepth: 1, Repair: cyclicTable()}},
		{name: "recursive regular grammar", g: grammar.MustParseRules("rg", grammar.Regular, "S -> a S | a"), cfg: DefaultConfig()},
		{name: "nil grammar", g: nil, cfg: DefaultConfig()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerator(tc.g, testLexicon, tc.cfg)
			assert.ErrorIs(t, err, sgerr.ErrConfiguration)
		})
	}
}

func cyclicTable() *repair.Table {
	tbl := repair.ContextFree()
	tbl.Add(repair.Entry{Key: grammar.Single("NP"), Alts: []repair.Alt{{Seq: grammar.Alternative{"NP_sg"}, Weight: 1}}})
	tbl.Add(repair.Entry{Key: grammar.Single("NP_sg"), Alts: []repair.Alt{{Seq: grammar.Alternative{"NP"}, Weight: 1}}})
	return tbl
}

func Test_Generate_Termination(t *testing.T) {
	// random grammars over five mutually recursive non-terminals, each with a
	// repair entry straight to a lexicon category.
	lex := grammar.Lexicon{"T0": {"x"}, "T1": {"y"}}
	pool := grammar.Symbols("N0", "N1", "N2", "N3", "N4", "T0", "T1")
	fuzz := rand.New(rand.NewSource(99))

	for n := 0; n < 50; n++ {
		var rules []string
		table := repair.NewTable("fuzz", repair.DefaultAgreement())
		for i := 0; i < 5; i++ {
			var alts []string
			for a := 0; a < 1+fuzz.Intn(3); a++ {
				var syms []string
				for s := 0; s < fuzz.Intn(5); s++ {
					syms = append(syms, string(pool[fuzz.Intn(len(pool))]))
				}
				// always some self reference.
				if a == 0 {
					syms = append(syms, fmt.Sprintf("N%d", i), fmt.Sprintf("N%d", i))
				}
				alts = append(alts, strings.Join(syms, " "))
			}
			rules = append(rules, fmt.Sprintf("N%d -> %s", i, strings.Join(alts, " | ")))
			table.Add(repair.Entry{Key: grammar.Single(grammar.Symbol(fmt.Sprintf("N%d", i))), Alts: []repair.Alt{{Seq: grammar.Alternative{"T0"}, Weight: 1}}})
		}
		rules = append(rules, "S -> N0 N1 N2 N3 N4")

		g := grammar.MustParseRules(fmt.Sprintf("fuzz%d", n), grammar.ContextFree, rules...)
		cfg := Config{
			MaxExpansions: 1 + fuzz.Intn(4),
			MaxDepth:      fuzz.Intn(8),
			Source:        NewSource(int64(n)),
			Repair:        table,
		}

		done := make(chan error, 1)
		go func() {
			s, err := Generate(g, lex, "S", cfg)
			if err == nil {
				for _, w := range s.Words {
					if w != "x" && w != "y" {
						err = fmt.Errorf("non-terminal word %q in output", w)
					}
				}
			}
			done <- err
		}()

		select {
		case err := <-done:
			require.NoError(t, err, "grammar %d:\n%s", n, g)
		case <-time.After(10 * time.Second):
			t.Fatalf("grammar %d did not terminate:\n%s", n, g)
		}
	}
}

func Test_Generate_TerminalPurityAndBounds(t *testing.T) {
	testCases := []struct {
		name  string
		class grammar.Class
		rules []string
		m     int
		d     int
	}{
		{name: "context-free tight", class: grammar.ContextFree, rules: contextFreeRules, m: 1, d: 2},
		{name: "context-free loose", class: grammar.ContextFree, rules: contextFreeRules, m: 20, d: 10},
		{name: "indexed tight", class: grammar.Indexed, rules: indexedRules, m: 2, d: 3},
		{name: "indexed loose", class: grammar.Indexed, rules: indexedRules, m: 20, d: 10},
		{name: "indexed zero depth", class: grammar.Indexed, rules: indexedRules, m: 5, d: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := grammar.MustParseRules(tc.name, tc.class, tc.rules...)
			gen, err := NewGenerator(g, testLexicon, Config{MaxExpansions: tc.m, MaxDepth: tc.d, Source: NewSource(1)})
			require.NoError(t, err)

			for n := 0; n < 300; n++ {
				s, err := gen.Generate()
				require.NoError(t, err)

				for _, w := range s.Words {
					assert.False(t, isCategoryOrKey(g, testLexicon, w), "category %q left in output %q", w, s)
				}
				for _, sym := range s.Categories {
					assert.False(t, g.IsNonTerminal(sym), "non-terminal %q left in categories", sym)
				}

				assert.LessOrEqual(t, s.Stats.MaxCount, tc.m)
				for _, counts := range s.Stats.Counts {
					for k, c := range counts {
						assert.LessOrEqual(t, c, tc.m, "key %s expanded %d times", k, c)
					}
				}
				if tc.d == 0 {
					assert.Equal(t, 0, s.Stats.Expansions)
				}
			}
		})
	}
}

func Test_Generate_Epsilon(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParseRules("eps", grammar.ContextFree,
		"S -> a X b X",
		"X -> ε",
	)

	for n := 0; n < 20; n++ {
		actual, err := Generate(g, grammar.Lexicon{}, "S", Config{MaxExpansions: 5, MaxDepth: 5, Source: NewSource(int64(n))})
		assert.NoError(err)
		assert.Equal([]string{"a", "b"}, actual.Words)
		assert.Equal(grammar.Symbols("a", "b"), actual.Categories)
	}
}

func Test_Generate_EmptyDerivation(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParseRules("eps", grammar.ContextFree,
		"S -> X X",
		"X -> ε",
	)

	actual, err := Generate(g, grammar.Lexicon{}, "S", Config{MaxExpansions: 1, MaxDepth: 1, Source: firstSource{}})

	assert.NoError(err)
	assert.True(actual.Empty())
}

func Test_Generate_Deterministic(t *testing.T) {
	regularRules := []string{
		"S -> NP VP",
		"NP -> Det_sg N_sg | ProperNoun_sg | Det_pl Adj N_pl",
		"VP -> V_sg | Adv V_pl | V_sg P NP2",
		"NP2 -> Det_pl N_pl | ProperNoun_sg",
	}

	testCases := []struct {
		name    string
		class   grammar.Class
		rules   []string
		repairs *repair.Table
	}{
		{name: "regular", class: grammar.Regular, rules: regularRules},
		{name: "context-free", class: grammar.ContextFree, rules: contextFreeRules},
		{name: "indexed", class: grammar.Indexed, rules: indexedRules},
		{name: "context-sensitive", class: grammar.ContextSensitive, rules: crossSerialRules, repairs: crossSerialTable()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := grammar.MustParseRules(tc.name, tc.class, tc.rules...)

			run := func() []string {
				gen, err := NewGenerator(g, testLexicon, Config{MaxExpansions: 10, MaxDepth: 4, Source: NewSource(1234), Repair: tc.repairs})
				require.NoError(t, err)

				var out []string
				for n := 0; n < 25; n++ {
					s, err := gen.Generate()
					require.NoError(t, err)
					out = append(out, s.String())
				}
				return out
			}

			first := run()
			second := run()
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("outputs differ (-first +second):\n%s", diff)
			}
		})
	}
}

func Test_Generate_ForcedRepairSingleExpansion(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParseRules("branch", grammar.ContextFree, "S -> A", "A -> A A")
	table := repair.NewTable("branch", repair.DefaultAgreement())
	table.Add(repair.Entry{Key: grammar.Single("A"), Alts: []repair.Alt{{Seq: grammar.Alternative{"T"}, Weight: 1}}})
	lex := grammar.Lexicon{"T": {"t"}}

	actual, err := Generate(g, lex, "S", Config{MaxExpansions: 1, MaxDepth: 10, Source: NewSource(5), Repair: table})

	if !assert.NoError(err) {
		return
	}
	assert.Equal([]string{"t", "t"}, actual.Words)
	assert.Equal(1, actual.Stats.Constituents)
	assert.Equal(1, actual.Stats.Expansions)
	if assert.Len(actual.Stats.Counts, 1) {
		assert.Equal(1, actual.Stats.Counts[0][grammar.Single("A")])
	}
	assert.Equal(1, actual.Stats.ExpansionBoundHits)
	assert.Equal(0, actual.Stats.DepthBoundHits)
	assert.Equal(1, actual.Stats.Repairs)
}

func Test_Generate_ForcedRepair(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParseRules("branch", grammar.ContextFree, "A -> A A")
	g.Start = "A"
	table := repair.NewTable("branch", repair.DefaultAgreement())
	table.Add(repair.Entry{Key: grammar.Single("A"), Alts: []repair.Alt{{Seq: grammar.Alternative{"T"}, Weight: 1}}})
	lex := grammar.Lexicon{"T": {"t"}}

	actual, err := Generate(g, lex, "A", Config{MaxExpansions: 1, MaxDepth: 10, Source: NewSource(5), Repair: table})

	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(actual.Words)
	for _, w := range actual.Words {
		assert.Equal("t", w)
	}
	if assert.Len(actual.Stats.Counts, 2) {
		for _, counts := range actual.Stats.Counts {
			assert.Equal(1, counts[grammar.Single("A")])
		}
	}
	assert.Equal(2, actual.Stats.ExpansionBoundHits)
	assert.Greater(actual.Stats.Repairs, 0)
}

func Test_Generate_MissingRepairEntry(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParseRules("loop", grammar.ContextFree, "S -> Q", "Q -> q Q")

	_, err := Generate(g, grammar.Lexicon{}, "S", Config{MaxExpansions: 3, MaxDepth: 10, Source: firstSource{}})

	assert.ErrorIs(err, sgerr.ErrConfiguration)
	var dErr *DerivationError
	if assert.ErrorAs(err, &dErr) {
		assert.Equal(grammar.Symbol("Q"), dErr.Symbol)
		assert.NotEmpty(dErr.Partial)
		assert.Equal(3, dErr.Counts[grammar.Single("Q")])
	}
}

func Test_Generate_Trace(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	g := grammar.MustParseRules("cf", grammar.ContextFree, contextFreeRules...)

	_, err := Generate(g, testLexicon, "S", Config{MaxExpansions: 1, MaxDepth: 1, Source: NewSource(8), Trace: log.New(&buf, "", 0)})

	assert.NoError(err)
	assert.Contains(buf.String(), "DEBUG start S -> NP VP")
	assert.Contains(buf.String(), "DEBUG derived")
}

var crossSerialRules = []string{
	"S -> NPseq VPph",
	"NPseq VPph -> NP_sg NPseq VP_sg VPseq",
	"NPseq -> NP_sg | NP_pl",
	"VPseq -> VP_sg | VP_pl",
	"VPph -> ε",
	"NP_sg -> Det_sg N_sg | ProperNoun_sg",
	"NP_pl -> Det_pl N_pl",
	"VP_sg -> V_sg | Adv V_sg",
	"VP_pl -> V_pl",
}

func crossSerialTable() *repair.Table {
	tbl := repair.NewTable("cs-test", repair.DefaultAgreement())
	add := func(k grammar.Key, alts ...[]string) {
		e := repair.Entry{Key: k}
		for _, a := range alts {
			e.Alts = append(e.Alts, repair.Alt{Seq: grammar.Alternative(grammar.Symbols(a...)), Weight: 1})
		}
		tbl.Add(e)
	}
	add(grammar.Pair("NPseq", "VPph"), []string{"NP_sg", "VP_sg"}, []string{"NP_pl", "VP_pl"})
	add(grammar.Single("NPseq"), []string{"Det_sg", "N_sg"}, []string{"Det_pl", "N_pl"})
	add(grammar.Single("VPseq"), []string{"V_sg"}, []string{"V_pl"})
	add(grammar.Single("VPph"), []string{})
	add(grammar.Single("NP_sg"), []string{"Det_sg", "N_sg"}, []string{"ProperNoun_sg"})
	add(grammar.Single("NP_pl"), []string{"Det_pl", "N_pl"})
	add(grammar.Single("VP_sg"), []string{"V_sg"})
	add(grammar.Single("VP_pl"), []string{"V_pl"})
	return tbl
}

func Test_Generate_ContextSensitivePairing(t *testing.T) {
	g := grammar.MustParseRules("cs", grammar.ContextSensitive, crossSerialRules...)

	for _, d := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("depth %d", d), func(t *testing.T) {
			gen, err := NewGenerator(g, testLexicon, Config{MaxExpansions: 1, MaxDepth: d, Source: NewSource(int64(d)), Repair: crossSerialTable()})
			require.NoError(t, err)

			for n := 0; n < 200; n++ {
				s, err := gen.Generate()
				require.NoError(t, err)
				assert.Equal(t, 1, s.Stats.JointExpansions)

				// the first verb comes from the VP_sg committed by the joint
				// expansion and so must be singular.
				var firstVerb grammar.Symbol
				for _, sym := range s.Categories {
					if sym == "V_sg" || sym == "V_pl" {
						firstVerb = sym
						break
					}
				}
				assert.Equal(t, grammar.Symbol("V_sg"), firstVerb, "categories: %v", s.Categories)
			}
		})
	}
}

func Test_Generate_JointBound(t *testing.T) {
	// each joint expansion re-creates the pair, nesting noun and verb
	// phrases until the bound forces the pair to be repaired.
	g := grammar.MustParseRules("nested", grammar.ContextSensitive,
		"S -> NPseq VPph",
		"NPseq VPph -> NP_sg NPseq VPph VP_sg | NP_pl NPseq VPph VP_pl",
		"NPseq -> NP_sg",
		"VPph -> ε",
		"NP_sg -> Det_sg N_sg",
		"NP_pl -> Det_pl N_pl",
		"VP_sg -> V_sg",
		"VP_pl -> V_pl",
	)

	for _, m := range []int{1, 3, 6} {
		t.Run(fmt.Sprintf("M=%d", m), func(t *testing.T) {
			gen, err := NewGenerator(g, testLexicon, Config{MaxExpansions: m, MaxDepth: 5, Source: NewSource(int64(m)), Repair: crossSerialTable()})
			require.NoError(t, err)

			for n := 0; n < 100; n++ {
				s, err := gen.Generate()
				require.NoError(t, err)
				assert.Equal(t, m, s.Stats.JointExpansions)

				var nouns, verbs []grammar.Symbol
				for _, sym := range s.Categories {
					switch sym {
					case "N_sg", "N_pl":
						nouns = append(nouns, sym)
					case "V_sg", "V_pl":
						verbs = append(verbs, sym)
					}
				}
				require.Equal(t, len(nouns), len(verbs), "categories: %v", s.Categories)

				// the i-th noun pairs with the i-th verb from the end, except
				// the innermost which came from repair and always agrees too.
				for i := 0; i < m; i++ {
					nounNum := strings.TrimPrefix(string(nouns[i]), "N")
					verbNum := strings.TrimPrefix(string(verbs[len(verbs)-1-i]), "V")
					assert.Equal(t, nounNum, verbNum, "categories: %v", s.Categories)
				}
			}
		})
	}
}

func Test_Resolve(t *testing.T) {
	assert := assert.New(t)

	lex := grammar.Lexicon{"N": {"dog"}, "Empty": {}}

	words, err := Resolve(grammar.Symbols("the", "N", "runs"), lex, firstSource{})
	assert.NoError(err)
	assert.Equal([]string{"the", "dog", "runs"}, words)

	_, err = Resolve(grammar.Symbols("Empty"), lex, firstSource{})
	assert.ErrorIs(err, sgerr.ErrConfiguration)
}
