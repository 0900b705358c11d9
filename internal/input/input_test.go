package input

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DirectCommandReader_ReadCommand(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		allowBlank bool
		expect     []string
	}{
		{
			name:   "skips blank lines",
			input:  "gen cs\n\n   \nquit\n",
			expect: []string{"gen cs", "quit"},
		},
		{
			name:   "last line without newline",
			input:  "stats\nlist",
			expect: []string{"stats", "list"},
		},
		{
			name:       "blanks allowed",
			input:      "gen\n\nquit\n",
			allowBlank: true,
			expect:     []string{"gen", "", "quit"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			r := NewDirectReader(strings.NewReader(tc.input))
			r.AllowBlank(tc.allowBlank)
			defer r.Close()

			var actual []string
			for {
				line, err := r.ReadCommand()
				if err == io.EOF {
					break
				}
				if !assert.NoError(err) {
					return
				}
				actual = append(actual, line)
			}

			assert.Equal(tc.expect, actual)
		})
	}
}
