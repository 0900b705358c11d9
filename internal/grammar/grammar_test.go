package grammar

import (
	"errors"
	"testing"

	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/stretchr/testify/assert"
)

func Test_ParseRule(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Rule
		expectErr bool
	}{
		{
			name:  "single key, one alternative",
			input: "S -> NP VP",
			expect: Rule{
				Key:          Single("S"),
				Alternatives: []Alternative{{"NP", "VP"}},
			},
		},
		{
			name:  "single key, several alternatives with epsilon",
			input: "NP_conj_sg -> Conj NP_sg | ε",
			expect: Rule{
				Key:          Single("NP_conj_sg"),
				Alternatives: []Alternative{{"Conj", "NP_sg"}, {}},
			},
		},
		{
			name:  "empty alternative is epsilon",
			input: "VP_sequence -> VP_sg |",
			expect: Rule{
				Key:          Single("VP_sequence"),
				Alternatives: []Alternative{{"VP_sg"}, {}},
			},
		},
		{
			name:  "pair key",
			input: "NP_sequence VP_placeholder -> NP_sg NP_sequence VP_sg VP_sequence",
			expect: Rule{
				Key:          Pair("NP_sequence", "VP_placeholder"),
				Alternatives: []Alternative{{"NP_sg", "NP_sequence", "VP_sg", "VP_sequence"}},
			},
		},
		{
			name:      "no arrow",
			input:     "S NP VP",
			expectErr: true,
		},
		{
			name:      "three symbol key",
			input:     "A B C -> x",
			expectErr: true,
		},
		{
			name:      "empty key",
			input:     " -> x",
			expectErr: true,
		},
		{
			name:      "epsilon mixed with symbols",
			input:     "A -> x ε",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseRule(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}

			assert.Equal(tc.expect.Key, actual.Key)
			assert.Len(actual.Alternatives, len(tc.expect.Alternatives))
			for i := range tc.expect.Alternatives {
				assert.True(tc.expect.Alternatives[i].Equal(actual.Alternatives[i]), "alternative %d: expected %v, got %v", i, tc.expect.Alternatives[i], actual.Alternatives[i])
			}
		})
	}
}

func Test_Grammar_KeyAt(t *testing.T) {
	g := MustParseRules("cs", ContextSensitive,
		"S -> A B",
		"A B -> x y",
		"A -> x",
		"B -> y",
	)

	testCases := []struct {
		name     string
		seq      []Symbol
		i        int
		hi       int
		expect   Key
		expectOK bool
	}{
		{name: "pair preferred", seq: Symbols("A", "B"), i: 0, hi: 2, expect: Pair("A", "B"), expectOK: true},
		{name: "pair cut off by hi", seq: Symbols("A", "B"), i: 0, hi: 1, expect: Single("A"), expectOK: true},
		{name: "single when second does not match", seq: Symbols("A", "A"), i: 0, hi: 2, expect: Single("A"), expectOK: true},
		{name: "literal", seq: Symbols("x", "B"), i: 0, hi: 2, expectOK: false},
		{name: "last element", seq: Symbols("x", "B"), i: 1, hi: 2, expect: Single("B"), expectOK: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, ok := g.KeyAt(tc.seq, tc.i, tc.hi)
			assert.Equal(tc.expectOK, ok)
			if tc.expectOK {
				assert.Equal(tc.expect, actual)
			}
		})
	}
}

func Test_Grammar_RecursiveSymbols(t *testing.T) {
	testCases := []struct {
		name   string
		rules  []string
		expect []Symbol
	}{
		{
			name:  "no recursion",
			rules: []string{"S -> NP VP", "NP -> Det N", "VP -> V"},
		},
		{
			name:   "direct recursion",
			rules:  []string{"S -> A", "A -> A A | x"},
			expect: []Symbol{"A"},
		},
		{
			name:   "indirect recursion",
			rules:  []string{"S -> NP", "NP -> Det N RC | Det N", "RC -> who VP", "VP -> V NP"},
			expect: []Symbol{"NP", "RC", "VP"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g := MustParseRules("test", ContextFree, tc.rules...)
			actual := g.RecursiveSymbols()

			assert.ElementsMatch(tc.expect, actual)
		})
	}
}

func Test_Grammar_Validate(t *testing.T) {
	lex := Lexicon{"Det": {"the"}, "N": {"dog"}, "V": {"runs"}}

	testCases := []struct {
		name      string
		class     Class
		rules     []string
		emptyKeys []Key
		lex       Lexicon
		expectErr bool
	}{
		{
			name:  "valid context-free",
			class: ContextFree,
			rules: []string{"S -> NP VP", "NP -> Det N", "VP -> V | V NP"},
		},
		{
			name:      "no start rule",
			class:     ContextFree,
			rules:     []string{"NP -> Det N"},
			expectErr: true,
		},
		{
			name:      "zero alternatives",
			class:     ContextFree,
			rules:     []string{"S -> NP"},
			emptyKeys: []Key{Single("NP")},
			expectErr: true,
		},
		{
			name:      "pair key outside context-sensitive",
			class:     Indexed,
			rules:     []string{"S -> A B", "A B -> x y"},
			expectErr: true,
		},
		{
			name:  "pair key in context-sensitive",
			class: ContextSensitive,
			rules: []string{"S -> A B", "A B -> x y"},
		},
		{
			name:      "recursive regular grammar",
			class:     Regular,
			rules:     []string{"S -> NP", "NP -> Det N NP | Det N"},
			expectErr: true,
		},
		{
			name:      "key is also a lexicon category",
			class:     ContextFree,
			rules:     []string{"S -> N", "N -> dog"},
			expectErr: true,
		},
		{
			name:      "empty lexicon category",
			class:     ContextFree,
			rules:     []string{"S -> N"},
			lex:       Lexicon{"N": {}},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g := MustParseRules("test", tc.class, tc.rules...)
			for _, k := range tc.emptyKeys {
				g.AddRule(k)
			}
			useLex := lex
			if tc.lex != nil {
				useLex = tc.lex
			}

			actual := g.Validate(useLex)

			if tc.expectErr {
				assert.Error(actual)
				assert.True(errors.Is(actual, sgerr.ErrConfiguration))
			} else {
				assert.NoError(actual)
			}
		})
	}
}

func Test_Alternative_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ε", Epsilon.String())
	assert.Equal("Det N", Alternative{"Det", "N"}.String())
	assert.Equal("A B -> x | ε", Rule{Key: Pair("A", "B"), Alternatives: []Alternative{{"x"}, {}}}.String())
}
