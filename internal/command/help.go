package command

import (
	"github.com/dekarrin/rosed"
)

var commandHelp = [][2]string{
	{"GEN/G [GRAMMAR] [N]", "generate N sentences (1 if not given) from GRAMMAR, or from the current grammar if GRAMMAR is not given"},
	{"USE GRAMMAR", "make GRAMMAR the current grammar"},
	{"LIST/LS", "show all loaded grammars with their class, start symbol, and bounds"},
	{"SEED N", "reseed the random source with N so that output can be reproduced"},
	{"BOUNDS [M D]", "set the max expansions per symbol to M and the max recursion depth to D for this session, or show the bounds if typed by itself"},
	{"TRACE [ON/OFF]", "turn derivation tracing on or off, or toggle it if typed by itself"},
	{"STATS", "show the statistics of the last derivation"},
	{"HELP [COMMAND]", "show this help, or the help for a single command"},
	{"QUIT/EXIT/BYE", "leave the generator"},
}

var helpOptions = rosed.Options{
	PreserveParagraphs:       true,
	ParagraphSeparator:       "\n",
	NoTrailingLineSeparators: true,
}

// Help returns the help text for all commands, laid out to fit in the given
// width.
func Help(width int) string {
	return rosed.Edit("").WithOptions(helpOptions).
		Insert(rosed.End, "Here are the commands you can use:\n").
		InsertDefinitionsTable(rosed.End, commandHelp, width).
		String()
}

// HelpFor returns the help text for the single command with the given
// canonical verb. If there is no such command, ok will be false.
func HelpFor(verb string, width int) (text string, ok bool) {
	for _, def := range commandHelp {
		if usageVerb(def[0]) == verb {
			return rosed.Edit(def[0] + ": " + def[1]).Wrap(width).String(), true
		}
	}
	return "", false
}

// usageVerb gives the canonical verb of a usage string such as
// "GEN/G [GRAMMAR] [N]".
func usageVerb(usage string) string {
	end := len(usage)
	for i, ch := range usage {
		if ch == '/' || ch == ' ' {
			end = i
			break
		}
	}
	return usage[:end]
}
