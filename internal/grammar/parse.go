package grammar

import (
	"fmt"
	"strings"
)

// ParseRule parses a rule of the form "A -> x y | z | ε". The left side may
// be one symbol or two, the latter giving a pair key. An alternative that is
// empty or is "ε" is an epsilon production.
func ParseRule(r string) (Rule, error) {
	sides := strings.Split(r, "->")
	if len(sides) != 2 {
		return Rule{}, fmt.Errorf("not a rule of form 'KEY -> SYMBOL SYMBOL | SYMBOL ...': %q", r)
	}

	lhs := strings.Fields(sides[0])
	var parsed Rule
	switch len(lhs) {
	case 0:
		return Rule{}, fmt.Errorf("empty key not allowed for production rule: %q", r)
	case 1:
		parsed.Key = Single(Symbol(lhs[0]))
	case 2:
		parsed.Key = Pair(Symbol(lhs[0]), Symbol(lhs[1]))
	default:
		return Rule{}, fmt.Errorf("key may have at most two symbols: %q", r)
	}

	for _, altStr := range strings.Split(sides[1], "|") {
		fields := strings.Fields(altStr)
		alt := Alternative{}
		for _, f := range fields {
			if f == EpsilonText {
				if len(fields) != 1 {
					return Rule{}, fmt.Errorf("epsilon only allowed as sole symbol of an alternative: %q", r)
				}
				continue
			}
			alt = append(alt, Symbol(f))
		}
		parsed.Alternatives = append(parsed.Alternatives, alt)
	}

	return parsed, nil
}

// ParseRules parses each rule string in order and adds it to a new grammar of
// the given name and class.
func ParseRules(name string, class Class, rules ...string) (*Grammar, error) {
	g := New(name, class)
	for i, line := range rules {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := ParseRule(line)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		g.AddRule(r.Key, r.Alternatives...)
	}
	return g, nil
}

// MustParseRules is the same as ParseRules but panics on error.
func MustParseRules(name string, class Class, rules ...string) *Grammar {
	g, err := ParseRules(name, class, rules...)
	if err != nil {
		panic(err.Error())
	}
	return g
}
