package command

import (
	"strconv"
	"strings"

	"github.com/dekarrin/sentgen/internal/sgerr"
)

var (
	// VerbAliases maps shorthand verbs (which must be the first words in a
	// command) to their canonical forms. They are all uppercase.
	VerbAliases map[string]string = map[string]string{
		"G":        "GEN",
		"GENERATE": "GEN",
		"LS":       "LIST",
		"GRAMMARS": "LIST",
		"SELECT":   "USE",
		"BYE":      "QUIT",
		"EXIT":     "QUIT",
		"?":        "HELP",
		"/?":       "HELP",
		"/H":       "HELP",
		"-H":       "HELP",
		"H":        "HELP",
	}
)

// Parse parses a command from the given text. If it cannot, a non-nil error
// is returned whose message is suitable for showing to the user via
// sgerr.Message.
//
// If an empty string or a string composed only of whitespace is passed in, nil
// error is returned and a zero value for Command will be returned.
func Parse(toParse string) (Command, error) {
	var parsedCmd Command

	// verbs and keywords are matched upper case, but grammar names keep the
	// case they were typed with.
	casedTokens := strings.Fields(toParse)
	originalTokens := strings.Fields(strings.ToUpper(toParse))

	tokens := ExpandAliases(originalTokens, 1)

	if len(tokens) < 1 {
		return parsedCmd, nil
	}

	parsedCmd.Verb = tokens[0]
	args := casedTokens[1:]

	switch parsedCmd.Verb {
	case "GEN":
		// GEN, GEN N, GEN GRAMMAR, or GEN GRAMMAR N
		switch len(args) {
		case 0:
		case 1:
			if n, err := strconv.ParseInt(args[0], 10, 64); err == nil {
				parsedCmd.Numbers = []int64{n}
			} else {
				parsedCmd.Target = args[0]
			}
		case 2:
			parsedCmd.Target = args[0]
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return parsedCmd, sgerr.Userf("%q is not a number of sentences", args[1])
			}
			parsedCmd.Numbers = []int64{n}
		default:
			return parsedCmd, sgerr.Userf("%s takes at most a grammar and a count", originalTokens[0])
		}
		if len(parsedCmd.Numbers) > 0 && parsedCmd.Numbers[0] < 1 {
			return parsedCmd, sgerr.Userf("The number of sentences must be at least 1")
		}
	case "USE":
		if len(args) != 1 {
			return parsedCmd, sgerr.Userf("I don't know which grammar you want to use")
		}
		parsedCmd.Target = args[0]
	case "SEED":
		if len(args) != 1 {
			return parsedCmd, sgerr.Userf("Type %s followed by a whole number", originalTokens[0])
		}
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return parsedCmd, sgerr.Userf("%q is not a valid seed; it must be a whole number", args[0])
		}
		parsedCmd.Numbers = []int64{n}
	case "BOUNDS":
		// BOUNDS by itself shows the current bounds
		if len(args) == 0 {
			break
		}
		if len(args) != 2 {
			return parsedCmd, sgerr.Userf("Type %s followed by the max expansions and the max depth", originalTokens[0])
		}
		for _, a := range args {
			n, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return parsedCmd, sgerr.Userf("%q is not a whole number", a)
			}
			parsedCmd.Numbers = append(parsedCmd.Numbers, n)
		}
		if parsedCmd.Numbers[0] < 1 {
			return parsedCmd, sgerr.Userf("The max expansions must be at least 1")
		}
		if parsedCmd.Numbers[1] < 0 {
			return parsedCmd, sgerr.Userf("The max depth cannot be negative")
		}
	case "TRACE":
		if len(args) == 0 {
			break
		}
		target := strings.ToUpper(args[0])
		if len(args) > 1 || (target != "ON" && target != "OFF") {
			return parsedCmd, sgerr.Userf("Type %s ON or %s OFF", originalTokens[0], originalTokens[0])
		}
		parsedCmd.Target = target
	case "HELP":
		if len(tokens) > 1 {
			parsedCmd.Target = ExpandAliases(tokens[1:2], 1)[0]
		}
	case "LIST", "STATS", "QUIT":
		if len(args) > 0 {
			errMsg := "You can't %s *something*; type %s by itself"
			return parsedCmd, sgerr.Userf(errMsg, originalTokens[0], originalTokens[0])
		}
	default:
		return parsedCmd, sgerr.Userf("I don't know what you mean by %q", casedTokens[0])
	}

	return parsedCmd, nil
}

// ExpandAliases takes a slice of tokens of user input and runs alias expansion
// on it. It expects all strings in the given slice to be upper case; failure to
// ensure this may cause the expansion to not work properly. The returned slice
// contains the same tokens but with aliases expanded.
//
// The unexpanded tokens slice is not modified during this operation.
//
// Aliases up to aliasLimit words long are supported. If it is less than 0, it
// is assumed to be 0. Passing 0 means the given tokens will be returned
// unchanged.
//
// Aliases will not be multi-expanded; that is, expansion is not applied to the
// results of an expansion; if the caller needs it, they will need to call
// ExpandAliases again on its output.
func ExpandAliases(tokens []string, aliasLimit int) []string {
	expandedTokens := append([]string{}, tokens...)
	if aliasLimit < 1 {
		return expandedTokens
	}

	if aliasLimit > len(tokens) {
		aliasLimit = len(tokens)
	}

	for curLimit := 1; curLimit <= aliasLimit; curLimit++ {
		checkStr := strings.Join(tokens[:curLimit], " ")
		expansion, ok := VerbAliases[checkStr]
		if ok {
			replacementTokens := strings.Fields(expansion)

			// operating from start of tokens, so everything in checkStr is
			// replaced with the expansion
			expandedTokens = append(replacementTokens, tokens[curLimit:]...)

			return expandedTokens
		}
	}

	return expandedTokens
}
