// Package command defines the commands of the interactive generator shell and
// handles parsing of commands from input sources.
package command

// Command is a valid command received from an input source.
type Command struct {

	// Verb is the canonical name of the command being invoked, such as "GEN",
	// "USE", or "QUIT". Aliases such as "G" for "GEN" are resolved to their
	// canonical verb.
	Verb string

	// Target is the word argument of the command, if it has one. For GEN and
	// USE it is the grammar name with its case kept as typed, for HELP it is
	// the verb help is wanted for, and for TRACE it is "ON" or "OFF".
	Target string

	// Numbers holds the numeric arguments in order: the count for GEN, the
	// seed for SEED, and the expansion and depth bounds for BOUNDS.
	Numbers []int64
}
