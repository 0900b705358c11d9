package sentgen

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Engine_RunUntilQuit(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectContain []string
		expectCurrent string
	}{
		{
			name:  "quit right away",
			input: "QUIT\n",
			expectContain: []string{
				"Welcome to the sentence generator",
				"(direct input mode)",
				"Loaded grammars: tiny, tinycf",
				"Goodbye",
			},
			expectCurrent: "tiny",
		},
		{
			name:          "end of input quits",
			input:         "LS\n",
			expectContain: []string{"*tiny", "tinycf", "RG", "CFG", "Goodbye"},
			expectCurrent: "tiny",
		},
		{
			name:  "use and generate",
			input: "USE TinyCF\nG 2\nBYE\n",
			expectContain: []string{
				"Now using grammar tinycf (context-free)",
				"The dog runs.\nThe dog runs.\n",
			},
			expectCurrent: "tinycf",
		},
		{
			name:          "generate from named grammar keeps current",
			input:         "GEN tinycf\nQUIT\n",
			expectContain: []string{"The dog runs.\n"},
			expectCurrent: "tiny",
		},
		{
			name:  "stats after generating",
			input: "STATS\nGEN\nSTATS\nQUIT\n",
			expectContain: []string{
				"Nothing has been generated yet",
				"Categories",
				"Det_sg N_sg V_sg",
				"Repairs",
			},
			expectCurrent: "tiny",
		},
		{
			name:  "seed, bounds, and trace",
			input: "SEED 5\nBOUNDS\nBOUNDS 3 1\nTRACE\nTRACE OFF\nQUIT\n",
			expectContain: []string{
				"Random source reseeded with 5",
				"Max expansions per symbol: 10\nMax recursion depth: 4\n(bounds of grammar tiny)",
				"Max expansions per symbol: 3\nMax recursion depth: 1\n",
				"Tracing is on",
				"Tracing is off",
			},
			expectCurrent: "tiny",
		},
		{
			name:  "help",
			input: "HELP\n? gen\nHELP FOO\nQUIT\n",
			expectContain: []string{
				"Here are the commands you can use:",
				"GEN/G [GRAMMAR] [N]: generate N sentences",
				`There is no command called "FOO"`,
			},
			expectCurrent: "tiny",
		},
		{
			name:  "bad input is reported and skipped",
			input: "FOO\nUSE nope\nGEN nope\nQUIT\n",
			expectContain: []string{
				"I don't know what you mean by \"FOO\"\nTry HELP for valid commands",
				`There is no grammar named "nope"`,
				"Goodbye",
			},
			expectCurrent: "tiny",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			out := &bytes.Buffer{}
			eng := newTinyEngine(t, tc.input, out)

			err := eng.RunUntilQuit(context.Background())
			if !assert.NoError(err) {
				return
			}

			actual := out.String()
			for _, s := range tc.expectContain {
				assert.Contains(actual, s)
			}
			assert.Equal(tc.expectCurrent, eng.Current())
		})
	}
}

func Test_Engine_RunUntilQuit_Trace(t *testing.T) {
	assert := assert.New(t)
	out := &bytes.Buffer{}
	eng := newTinyEngine(t, "TRACE ON\nGEN tinycf\nQUIT\n", out)

	err := eng.RunUntilQuit(context.Background())
	if !assert.NoError(err) {
		return
	}

	assert.Contains(out.String(), "DEBUG ")
	assert.Contains(out.String(), "The dog runs.")
}

func Test_Engine_Example(t *testing.T) {
	assert := assert.New(t)
	seed := int64(3)
	eng, err := New(Options{Seed: &seed, Output: &bytes.Buffer{}})
	if !assert.NoError(err) {
		return
	}

	out := &bytes.Buffer{}
	err = eng.Example(context.Background(), out, false)
	if !assert.NoError(err) {
		return
	}

	assert.Contains(out.String(), "=== Regular Grammar (RG) Sentence ===")
	assert.Contains(out.String(), "=== Context-Free Grammar (CFG) Sentence ===")
	assert.Contains(out.String(), "=== Indexed Grammar (IXG) Sentence ===")
	assert.Contains(out.String(), "=== Context-Sensitive Grammar (CSG) Sentence ===")
	assert.NotContains(out.String(), "DEBUG ")
}
