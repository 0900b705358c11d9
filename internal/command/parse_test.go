package command

import (
	"testing"

	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/stretchr/testify/assert"
)

func Test_Parse(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Command
		expectErr bool
	}{
		{name: "blank", input: "   ", expect: Command{}},
		{name: "gen alone", input: "gen", expect: Command{Verb: "GEN"}},
		{name: "gen alias", input: "G", expect: Command{Verb: "GEN"}},
		{name: "gen count", input: "GEN 5", expect: Command{Verb: "GEN", Numbers: []int64{5}}},
		{name: "gen grammar keeps case", input: "gen MyCS", expect: Command{Verb: "GEN", Target: "MyCS"}},
		{name: "gen grammar and count", input: "g cs 3", expect: Command{Verb: "GEN", Target: "cs", Numbers: []int64{3}}},
		{name: "gen bad count", input: "gen cs three", expectErr: true},
		{name: "gen zero count", input: "gen 0", expectErr: true},
		{name: "gen too many args", input: "gen cs 1 2", expectErr: true},
		{name: "use", input: "use ix", expect: Command{Verb: "USE", Target: "ix"}},
		{name: "use without grammar", input: "use", expectErr: true},
		{name: "seed", input: "seed -12", expect: Command{Verb: "SEED", Numbers: []int64{-12}}},
		{name: "seed not number", input: "seed abc", expectErr: true},
		{name: "bounds show", input: "bounds", expect: Command{Verb: "BOUNDS"}},
		{name: "bounds set", input: "BOUNDS 20 10", expect: Command{Verb: "BOUNDS", Numbers: []int64{20, 10}}},
		{name: "bounds zero depth allowed", input: "bounds 1 0", expect: Command{Verb: "BOUNDS", Numbers: []int64{1, 0}}},
		{name: "bounds zero expansions", input: "bounds 0 4", expectErr: true},
		{name: "bounds one arg", input: "bounds 3", expectErr: true},
		{name: "trace toggle", input: "trace", expect: Command{Verb: "TRACE"}},
		{name: "trace on", input: "trace on", expect: Command{Verb: "TRACE", Target: "ON"}},
		{name: "trace bad", input: "trace maybe", expectErr: true},
		{name: "list alias", input: "ls", expect: Command{Verb: "LIST"}},
		{name: "list with arg", input: "list cs", expectErr: true},
		{name: "stats", input: "stats", expect: Command{Verb: "STATS"}},
		{name: "help", input: "?", expect: Command{Verb: "HELP"}},
		{name: "help for alias", input: "help g", expect: Command{Verb: "HELP", Target: "GEN"}},
		{name: "quit alias exit", input: "exit", expect: Command{Verb: "QUIT"}},
		{name: "quit alias bye", input: "BYE", expect: Command{Verb: "QUIT"}},
		{name: "unknown", input: "dance", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := Parse(tc.input)
			if tc.expectErr {
				assert.Error(err)
				// must be something we can show the user
				assert.NotContains(sgerr.Message(err), "UserError")
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_ExpandAliases(t *testing.T) {
	testCases := []struct {
		name   string
		tokens []string
		limit  int
		expect []string
	}{
		{name: "no limit", tokens: []string{"G", "CS"}, limit: 0, expect: []string{"G", "CS"}},
		{name: "alias expanded", tokens: []string{"G", "CS"}, limit: 1, expect: []string{"GEN", "CS"}},
		{name: "not an alias", tokens: []string{"GEN", "G"}, limit: 1, expect: []string{"GEN", "G"}},
		{name: "empty", tokens: []string{}, limit: 2, expect: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, ExpandAliases(tc.tokens, tc.limit))
		})
	}
}

func Test_HelpFor(t *testing.T) {
	assert := assert.New(t)

	text, ok := HelpFor("GEN", 80)
	assert.True(ok)
	assert.Contains(text, "GEN/G")

	_, ok = HelpFor("DANCE", 80)
	assert.False(ok)

	assert.Contains(Help(80), "QUIT/EXIT/BYE")
}
