package sgf

import (
	"fmt"
	"strings"

	"github.com/dekarrin/sentgen/internal/grammar"
	"github.com/dekarrin/sentgen/internal/repair"
	"golang.org/x/text/unicode/norm"
)

func parseManifest(sgf topLevelManifest) Manifest {
	return Manifest{
		Files: sgf.Files,
	}
}

func parseBundle(sgf topLevelBundle) (Bundle, error) {
	b := Bundle{
		Grammars:  map[string]GrammarDef{},
		Lexicon:   parseLexicon(sgf.Lexicon),
		Agreement: parseAgreement(sgf.Agreement),
	}

	if len(sgf.Grammars) < 1 {
		return b, fmt.Errorf("bundle does not define any grammars")
	}

	if err := b.Lexicon.Validate(); err != nil {
		return b, fmt.Errorf("lexicon: %w", err)
	}

	for i, gd := range sgf.Grammars {
		if strings.TrimSpace(gd.Name) == "" {
			return b, fmt.Errorf("grammar[%d]: 'name' must be set", i)
		}
		if _, ok := b.Grammar(gd.Name); ok {
			return b, fmt.Errorf("grammar[%q]: duplicate grammar name", gd.Name)
		}

		def, err := parseGrammarDef(gd, b.Lexicon, b.Agreement)
		if err != nil {
			return b, fmt.Errorf("grammar[%q]: %w", gd.Name, err)
		}

		if def.Grammar.Class != grammar.Regular {
			for _, k := range def.Repair.Uncovered(def.Grammar) {
				b.Warnings = append(b.Warnings, fmt.Sprintf("grammar %q: no repair entry for %q", gd.Name, k))
			}
		}

		b.Grammars[gd.Name] = def
		b.order = append(b.order, gd.Name)
	}

	return b, nil
}

func parseGrammarDef(gd grammarDef, lex grammar.Lexicon, agr repair.Agreement) (GrammarDef, error) {
	var def GrammarDef

	class, err := grammar.ParseClass(gd.Class)
	if err != nil {
		return def, fmt.Errorf("class: %w", err)
	}

	g, err := grammar.ParseRules(gd.Name, class, gd.Rules...)
	if err != nil {
		return def, err
	}
	if gd.Start != "" {
		g.Start = grammar.Symbol(gd.Start)
	}
	if err := g.Validate(lex); err != nil {
		return def, err
	}

	overrides := repair.NewTable(gd.Name, agr)
	for i, rd := range gd.Repair {
		e, err := parseRepairDef(rd)
		if err != nil {
			return def, fmt.Errorf("repair[%d]: %w", i, err)
		}
		overrides.Add(e)
	}
	table := repair.ForClass(class).Merge(overrides)
	table.Name = gd.Name
	table.Agreement = agr
	if err := table.Validate(); err != nil {
		return def, err
	}

	def.Grammar = g
	def.Description = gd.Description
	def.Repair = table
	def.Filter = DefaultFilter()

	if gd.Bounds != nil {
		def.Bounds = Bounds{
			MaxExpansions:   gd.Bounds.MaxExpansions,
			MaxDepth:        gd.Bounds.MaxDepth,
			MaxRepairPasses: gd.Bounds.MaxRepairPasses,
		}
	}
	if gd.Filter != nil {
		if gd.Filter.MinWords < 0 || gd.Filter.MaxWords < 0 {
			return def, fmt.Errorf("filter: word counts cannot be negative")
		}
		if gd.Filter.MaxWords > 0 && gd.Filter.MinWords > gd.Filter.MaxWords {
			return def, fmt.Errorf("filter: min_words %d is greater than max_words %d", gd.Filter.MinWords, gd.Filter.MaxWords)
		}
		def.Filter = Filter{MinWords: gd.Filter.MinWords, MaxWords: gd.Filter.MaxWords}
	}

	return def, nil
}

func parseRepairDef(rd repairDef) (repair.Entry, error) {
	var e repair.Entry

	keySyms := strings.Fields(rd.Key)
	switch len(keySyms) {
	case 1:
		e.Key = grammar.Single(grammar.Symbol(keySyms[0]))
	case 2:
		e.Key = grammar.Pair(grammar.Symbol(keySyms[0]), grammar.Symbol(keySyms[1]))
	default:
		return e, fmt.Errorf("key must be one or two symbols: %q", rd.Key)
	}

	if len(rd.Weights) > 0 && len(rd.Weights) != len(rd.Alts) {
		return e, fmt.Errorf("%q: has %d alts but %d weights", rd.Key, len(rd.Alts), len(rd.Weights))
	}

	for i, altStr := range rd.Alts {
		fields := strings.Fields(altStr)
		seq := grammar.Alternative{}
		for _, f := range fields {
			if f == grammar.EpsilonText {
				if len(fields) != 1 {
					return e, fmt.Errorf("%q: epsilon only allowed as sole symbol of an alternative", rd.Key)
				}
				continue
			}
			seq = append(seq, grammar.Symbol(f))
		}

		weight := 1.0
		if len(rd.Weights) > 0 {
			weight = rd.Weights[i]
		}
		e.Alts = append(e.Alts, repair.Alt{Seq: seq, Weight: weight})
	}
	e.Agree = rd.Agree

	return e, nil
}

// parseAgreement applies the fields set in def over the default agreement.
func parseAgreement(def *agreementDef) repair.Agreement {
	agr := repair.DefaultAgreement()
	if def == nil {
		return agr
	}

	if def.SingularSuffix != "" {
		agr.SingularSuffix = def.SingularSuffix
	}
	if def.PluralSuffix != "" {
		agr.PluralSuffix = def.PluralSuffix
	}
	if len(def.Subjects) > 0 {
		agr.Subjects = map[grammar.Symbol]bool{}
		for _, s := range def.Subjects {
			agr.Subjects[grammar.Symbol(s)] = true
		}
	}
	if len(def.Determiners) > 0 {
		agr.Determiners = map[grammar.Symbol]bool{}
		for _, s := range def.Determiners {
			agr.Determiners[grammar.Symbol(s)] = true
		}
	}
	return agr
}

// parseLexicon converts the lexicon and puts every word in Unicode NFC form
// so that precomposed and decomposed spellings come out the same.
func parseLexicon(lex map[string][]string) grammar.Lexicon {
	parsed := grammar.Lexicon{}
	for cat, words := range lex {
		normed := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.TrimSpace(norm.NFC.String(w))
			if w == "" {
				continue
			}
			normed = append(normed, w)
		}
		parsed[grammar.Symbol(cat)] = normed
	}
	return parsed
}
