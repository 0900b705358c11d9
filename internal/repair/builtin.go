package repair

import (
	"github.com/dekarrin/sentgen/internal/grammar"
)

// DefaultAgreement gives the agreement settings used by the built-in tables:
// "_sg" and "_pl" suffixes mark number, nouns and noun phrases are subjects,
// and Det_sg and Det_pl are determiners.
func DefaultAgreement() Agreement {
	return Agreement{
		SingularSuffix: "_sg",
		PluralSuffix:   "_pl",
		Subjects: map[grammar.Symbol]bool{
			"N_sg":          true,
			"N_pl":          true,
			"ProperNoun_sg": true,
			"NP_sg":         true,
			"NP_pl":         true,
		},
		Determiners: map[grammar.Symbol]bool{
			"Det_sg": true,
			"Det_pl": true,
		},
	}
}

// ForClass returns a new copy of the built-in table for the given class.
func ForClass(c grammar.Class) *Table {
	switch c {
	case grammar.ContextFree:
		return ContextFree()
	case grammar.Indexed:
		return Indexed()
	case grammar.ContextSensitive:
		return ContextSensitive()
	default:
		return NewTable(grammar.Regular.String(), DefaultAgreement())
	}
}

func alt(weight float64, syms ...string) Alt {
	return Alt{Seq: grammar.Alternative(grammar.Symbols(syms...)), Weight: weight}
}

func single(sym string, alts ...Alt) Entry {
	return Entry{Key: grammar.Single(grammar.Symbol(sym)), Alts: alts}
}

func agreeing(sym string, alts ...Alt) Entry {
	e := single(sym, alts...)
	e.Agree = true
	return e
}

var (
	singularNP = []Alt{
		alt(0.335, "Det_sg", "Adj", "N_sg"),
		alt(0.335, "Det_sg", "N_sg"),
		alt(0.33, "ProperNoun_sg"),
	}
	pluralNP = []Alt{
		alt(0.5, "Det_pl", "Adj", "N_pl"),
		alt(0.5, "Det_pl", "N_pl"),
	}
)

// ContextFree returns the repair table for context-free grammars.
func ContextFree() *Table {
	t := NewTable(grammar.ContextFree.String(), DefaultAgreement())

	t.Add(single("NP",
		alt(0.375, "Det_sg", "N_sg"),
		alt(0.375, "Det_pl", "N_pl"),
		alt(0.25, "ProperNoun_sg"),
	))
	t.Add(agreeing("VP",
		alt(0.5, "V_sg"),
		alt(0.5, "V_pl"),
	))

	t.Add(single("NP_sg", singularNP...))
	t.Add(single("NP_conj_sg",
		alt(0.67, "Conj", "Det_sg", "N_sg"),
		alt(0.33, "Conj", "ProperNoun_sg"),
	))
	t.Add(single("VP_sg", alt(1, "V_sg")))
	t.Add(single("VP_conj_sg", alt(1, "Conj", "V_sg")))
	t.Add(single("PP", alt(1, "P", "Det_sg", "N_sg")))
	t.Add(single("PP_conj", alt(1, "Conj", "P", "Det_sg", "N_sg")))

	t.Add(single("NP_pl", pluralNP...))
	t.Add(single("NP_conj_pl",
		alt(0.5, "Conj", "Det_pl", "Adj", "N_pl"),
		alt(0.5, "Conj", "Det_pl", "N_pl"),
	))
	t.Add(single("VP_pl", alt(1, "V_pl")))
	t.Add(single("VP_conj_pl", alt(1, "Conj", "V_pl")))

	return t
}

// Indexed returns the repair table for indexed grammars. It extends the
// context-free table with relative clauses.
func Indexed() *Table {
	t := ContextFree()
	t.Name = grammar.Indexed.String()

	t.Add(single("RC_sg", alt(1, "RelPronoun", "V_sg")))
	t.Add(single("RC_pl", alt(1, "RelPronoun", "V_pl")))

	return t
}

// ContextSensitive returns the repair table for context-sensitive grammars,
// including the joint entry for the noun-phrase sequence and verb-phrase
// placeholder pair.
func ContextSensitive() *Table {
	t := NewTable(grammar.ContextSensitive.String(), DefaultAgreement())

	t.Add(Entry{
		Key: grammar.Pair("NP_sequence", "VP_placeholder"),
		Alts: []Alt{
			alt(0.25, "NP_sg", "NP_sg", "VP_sg"),
			alt(0.25, "NP_sg", "NP_pl", "VP_sg"),
			alt(0.25, "NP_pl", "NP_sg", "VP_pl"),
			alt(0.25, "NP_pl", "NP_pl", "VP_pl"),
		},
	})
	t.Add(single("NP_sequence",
		alt(0.17, "Det_sg", "Adj", "N_sg"),
		alt(0.42, "Det_sg", "N_sg"),
		alt(0.16, "ProperNoun_sg"),
		alt(0.25, "Det_pl", "N_pl"),
	))
	t.Add(single("VP_placeholder", alt(1)))

	t.Add(single("NP", singularNP...))
	t.Add(single("NP_sg", singularNP...))
	t.Add(single("NP_pl", pluralNP...))

	t.Add(single("VP_sequence", alt(1, "V_sg")))
	t.Add(single("VP_sg", alt(1, "V_sg")))
	t.Add(single("VP_pl",
		alt(0.5, "Adv", "V_pl"),
		alt(0.5, "V_pl"),
	))

	t.Add(single("PP",
		alt(0.5, "P", "Det_pl", "N_pl"),
		alt(0.5, "P", "Det_sg", "N_sg"),
	))
	t.Add(single("PP_conj",
		alt(0.5, "Conj", "P", "Det_pl", "N_pl"),
		alt(0.5, "Conj", "P", "Det_sg", "N_sg"),
	))

	t.Add(single("RC_sg", alt(1, "RelPronoun", "V_sg")))
	t.Add(single("RC_pl", alt(1, "RelPronoun", "V_pl")))

	return t
}
