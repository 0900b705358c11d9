package sentgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/sentgen/internal/command"
	"github.com/dekarrin/sentgen/internal/input"
	"github.com/dekarrin/sentgen/internal/sgerr"
)

// RunUntilQuit begins reading commands from the input stream and carrying
// them out until the QUIT command is received or input ends.
func (eng *Engine) RunUntilQuit(ctx context.Context) error {
	if eng.in == nil {
		if eng.useReadline {
			icr, err := input.NewInteractiveReader(eng.bundle.Names())
			if err != nil {
				return fmt.Errorf("initializing interactive-mode input reader: %w", err)
			}
			eng.in = icr
		} else {
			eng.in = input.NewDirectReader(eng.inStream)
		}
	}

	introMsg := "Welcome to the sentence generator\n"
	if eng.forceDirect {
		introMsg += "(direct input mode)\n"
	}
	introMsg += "=================================\n"
	introMsg += "\n"
	introMsg += fmt.Sprintf("Loaded grammars: %s\n", strings.Join(eng.bundle.Names(), ", "))
	introMsg += fmt.Sprintf("Current grammar is %s; type HELP for commands\n", eng.current)

	if err := eng.write(introMsg); err != nil {
		return err
	}

	eng.running = true
	defer func() {
		eng.running = false
	}()

	for eng.running {
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, err := command.Get(eng.in, eng.out)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("get user command: %w", err)
		}

		if cmd.Verb == "QUIT" {
			eng.running = false
			break
		}

		output, err := eng.execute(ctx, cmd)
		if err != nil {
			if !isUserFacing(err) {
				return err
			}
			output = rosed.Edit(sgerr.Message(err)).Wrap(consoleOutputWidth).String() + "\n"
		}
		if err := eng.write(output); err != nil {
			return err
		}
	}

	return eng.write("Goodbye\n")
}

// isUserFacing returns whether err should be shown in the shell rather than
// end it.
func isUserFacing(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (eng *Engine) write(s string) error {
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := eng.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}

// execute carries out a single command and returns the text to show for it.
func (eng *Engine) execute(ctx context.Context, cmd command.Command) (string, error) {
	switch cmd.Verb {
	case "GEN":
		return eng.execGen(ctx, cmd)
	case "USE":
		def, ok := eng.bundle.Grammar(cmd.Target)
		if !ok {
			return "", unknownGrammar(cmd.Target)
		}
		eng.current = def.Grammar.Name
		return fmt.Sprintf("Now using grammar %s (%s)\n", def.Grammar.Name, def.Grammar.Class), nil
	case "LIST":
		return eng.listGrammars(), nil
	case "SEED":
		eng.Reseed(cmd.Numbers[0])
		return fmt.Sprintf("Random source reseeded with %d\n", eng.seed), nil
	case "BOUNDS":
		return eng.execBounds(cmd)
	case "TRACE":
		switch cmd.Target {
		case "ON":
			eng.traceOn = true
		case "OFF":
			eng.traceOn = false
		default:
			eng.traceOn = !eng.traceOn
		}
		if eng.traceOn {
			return "Tracing is on\n", nil
		}
		return "Tracing is off\n", nil
	case "STATS":
		return eng.lastStats(), nil
	case "HELP":
		if cmd.Target == "" {
			return command.Help(consoleOutputWidth) + "\n", nil
		}
		text, ok := command.HelpFor(cmd.Target, consoleOutputWidth)
		if !ok {
			return "", sgerr.Userf("There is no command called %q", cmd.Target)
		}
		return text + "\n", nil
	default:
		return "", sgerr.Userf("I don't know how to %s", cmd.Verb)
	}
}

func (eng *Engine) execGen(ctx context.Context, cmd command.Command) (string, error) {
	n := 1
	if len(cmd.Numbers) > 0 {
		n = int(cmd.Numbers[0])
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		s, err := eng.Generate(ctx, cmd.Target)
		if err != nil {
			// anything already generated is still shown
			if sb.Len() > 0 {
				if werr := eng.write(sb.String()); werr != nil {
					return "", werr
				}
			}
			return "", err
		}

		if s.Empty() {
			sb.WriteString("(empty derivation)\n")
		} else {
			sb.WriteString(Format(s.Words) + "\n")
		}

		// trace lines go straight to output, so sentences must keep up
		if eng.traceOn {
			if err := eng.write(sb.String()); err != nil {
				return "", err
			}
			sb.Reset()
		}
	}
	return sb.String(), nil
}

func (eng *Engine) execBounds(cmd command.Command) (string, error) {
	if len(cmd.Numbers) == 2 {
		b := Bounds{MaxExpansions: int(cmd.Numbers[0]), MaxDepth: int(cmd.Numbers[1])}
		if err := checkBounds(b); err != nil {
			return "", err
		}
		eng.bounds = &b
	}

	def, _ := eng.bundle.Grammar(eng.current)
	cfg := configFor(def, nil, eng.bounds, nil)
	msg := fmt.Sprintf("Max expansions per symbol: %d\nMax recursion depth: %d\n", cfg.MaxExpansions, cfg.MaxDepth)
	if eng.bounds == nil {
		msg += fmt.Sprintf("(bounds of grammar %s)\n", def.Grammar.Name)
	}
	return msg, nil
}

func (eng *Engine) listGrammars() string {
	data := [][]string{{"Name", "Class", "Start", "Bounds", "Description"}}
	for _, name := range eng.bundle.Names() {
		def, _ := eng.bundle.Grammar(name)
		cfg := configFor(def, nil, eng.bounds, nil)

		displayName := def.Grammar.Name
		if def.Grammar.Name == eng.current {
			displayName = "*" + displayName
		}

		data = append(data, []string{
			displayName,
			def.Grammar.Class.Short(),
			string(def.Grammar.StartSymbol()),
			fmt.Sprintf("%d/%d", cfg.MaxExpansions, cfg.MaxDepth),
			def.Description,
		})
	}

	opts := rosed.Options{TableHeaders: true}
	return rosed.Edit("").InsertTableOpts(0, data, consoleOutputWidth, opts).String() + "\n"
}

func (eng *Engine) lastStats() string {
	if eng.last == nil {
		return "Nothing has been generated yet\n"
	}

	st := eng.last.Stats
	text := "(empty)"
	if !eng.last.Empty() {
		text = Format(eng.last.Words)
	}
	cats := make([]string, len(eng.last.Categories))
	for i := range eng.last.Categories {
		cats[i] = string(eng.last.Categories[i])
	}

	defs := [][2]string{
		{"Grammar", eng.lastGrammar},
		{"Sentence", text},
		{"Categories", strings.Join(cats, " ")},
		{"Words", strconv.Itoa(eng.last.Len())},
		{"Constituents", strconv.Itoa(st.Constituents)},
		{"Expansions", strconv.Itoa(st.Expansions)},
		{"Joint expansions", strconv.Itoa(st.JointExpansions)},
		{"Highest count", strconv.Itoa(st.MaxCount)},
		{"Deepest level", strconv.Itoa(st.MaxDepth)},
		{"Expansion bound hits", strconv.Itoa(st.ExpansionBoundHits)},
		{"Depth bound hits", strconv.Itoa(st.DepthBoundHits)},
		{"Repairs", strconv.Itoa(st.Repairs)},
		{"Repair rewrites", strconv.Itoa(st.Rewrites)},
	}

	return rosed.Edit("").
		WithOptions(rosed.Options{ParagraphSeparator: "\n", NoTrailingLineSeparators: true}).
		InsertDefinitionsTable(rosed.End, defs, consoleOutputWidth).
		String() + "\n"
}
