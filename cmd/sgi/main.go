/*
Sgi generates sentences from stochastic grammars.

By default it starts an interactive session: a bundle of grammars is loaded and
commands are read from stdin until the "QUIT" command is input or input ends.
It can instead print an example sentence from every grammar, or export a batch
of sentences to a file, database, or S3 object.

Usage:

	sgi [flags]
	sgi [flags] --example
	sgi [flags] -n COUNT -e DEST
	sgi [flags] export --all DIR

The flags are:

	-v, --version
		Give the current version of sgi and then exit.

	-b, --bundle FILE
		Use the grammars in the given SGF bundle or manifest file. If not
		given, the built-in bundle with a regular, a context-free, an indexed,
		and a context-sensitive grammar is used.

	-g, --grammar NAME
		Start with the given grammar selected. Defaults to the first grammar in
		the bundle.

	-s, --seed SEED
		Seed the random source with the given number so that output can be
		reproduced. Defaults to the current time.

	--bounds MAX_EXPANSIONS,MAX_DEPTH
		Replace the derivation bounds of every grammar with the given ones.

	-n, --count COUNT
		Give the number of sentences to export. Defaults to 250. If given
		without --export, the sentences are printed to stdout.

	-e, --export DEST
		Export sentences instead of starting a session. DEST is one of
		"inmem", "file:PATH", "-" (stdout), "sqlite:DIR", "postgres:DSN", or
		"s3:BUCKET/KEY".

	--all DIR
		With the export command, export COUNT sentences from every grammar to
		the file GRAMMAR_sentences.txt in DIR.

	--example
		Print one sentence from every grammar and then exit.

	--trace
		Trace every derivation. Trace lines go to stderr except in an
		interactive session.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading command input even if launched in a
		tty with stdin and stdout.

Once a session has started, the user input will be parsed for commands. For an
explanation of the commands, type "HELP" once in a session. To exit, type
"QUIT".
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/export/textfile"
	"github.com/dekarrin/sentgen/internal/version"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitGenerateError indicates an unsuccessful program execution due to a
	// problem while generating or exporting sentences.
	ExitGenerateError

	// ExitInitError indicates an unsuccessful program execution due to an issue
	// initializing the engine.
	ExitInitError
)

const defaultCount = 250

var (
	returnCode int = ExitSuccess

	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of sgi and then exit.")
	flagBundle  = pflag.StringP("bundle", "b", "", "Load grammars from the given SGF bundle file instead of the built-in ones.")
	flagGrammar = pflag.StringP("grammar", "g", "", "Select the grammar with the given name.")
	flagSeed    = pflag.Int64P("seed", "s", 0, "Seed the random source with the given number.")
	flagBounds  = pflag.IntSlice("bounds", nil, "Replace the bounds of every grammar with MAX_EXPANSIONS,MAX_DEPTH.")
	flagCount   = pflag.IntP("count", "n", defaultCount, "Give the number of sentences to export.")
	flagExport  = pflag.StringP("export", "e", "", "Export sentences to the given destination.")
	flagAll     = pflag.String("all", "", "With the export command, export every grammar to a file in the given directory.")
	flagExample = pflag.Bool("example", false, "Print one sentence from every grammar and then exit.")
	flagTrace   = pflag.Bool("trace", false, "Trace every derivation.")
	flagDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	args := pflag.Args()
	exportAll := false
	if len(args) > 0 {
		if len(args) > 1 || args[0] != "export" {
			fmt.Fprintf(os.Stderr, "ERROR: unknown command %q\nDo -h for help.\n", args[0])
			returnCode = ExitInitError
			return
		}
		if *flagAll == "" {
			fmt.Fprintf(os.Stderr, "ERROR: export command needs --all DIR\nDo -h for help.\n")
			returnCode = ExitInitError
			return
		}
		exportAll = true
	}

	interactive := !exportAll && !*flagExample && *flagExport == "" && !pflag.Lookup("count").Changed

	opts := sentgen.Options{
		BundlePath:  *flagBundle,
		Grammar:     *flagGrammar,
		Trace:       *flagTrace,
		ForceDirect: *flagDirect,
	}
	if !interactive {
		opts.TraceOutput = os.Stderr
	}
	if pflag.Lookup("seed").Changed {
		opts.Seed = flagSeed
	}
	if pflag.Lookup("bounds").Changed {
		if len(*flagBounds) != 2 {
			fmt.Fprintf(os.Stderr, "ERROR: --bounds must be given as MAX_EXPANSIONS,MAX_DEPTH\n")
			returnCode = ExitInitError
			return
		}
		opts.Bounds = &sentgen.Bounds{MaxExpansions: (*flagBounds)[0], MaxDepth: (*flagBounds)[1]}
	}

	eng, initErr := sentgen.New(opts)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", initErr.Error())
		returnCode = ExitInitError
		return
	}
	defer eng.Close()

	for _, w := range eng.Warnings() {
		log.Printf("WARN  %s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case *flagExample:
		err = eng.Example(ctx, os.Stdout, *flagTrace)
	case exportAll:
		err = exportEveryGrammar(ctx, eng, *flagAll, *flagCount)
	case interactive:
		err = eng.RunUntilQuit(ctx)
	default:
		dest := *flagExport
		if dest == "" {
			dest = textfile.Stdout
		}
		err = exportTo(ctx, eng, eng.Current(), dest, *flagCount)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitGenerateError
		return
	}
}

func exportTo(ctx context.Context, eng *sentgen.Engine, grammar string, destStr string, n int) error {
	dest, err := sentgen.ParseDestination(destStr)
	if err != nil {
		return err
	}

	sink, err := dest.Open(ctx)
	if err != nil {
		return err
	}

	written, err := eng.Export(ctx, grammar, n, sink)
	if closeErr := sink.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", dest, closeErr)
	}
	if err != nil {
		return err
	}

	if dest.Type != sentgen.DestFile || dest.Path != textfile.Stdout {
		log.Printf("INFO  Exported %d %s sentences to %s", written, grammar, dest)
	}
	if dest.Type == sentgen.DestInMemory {
		printStored(os.Stdout, sink)
	}
	return nil
}

// printStored writes back what an in-memory destination holds, as it is lost
// on exit.
func printStored(w io.Writer, sink export.Sink) {
	store, ok := sink.(export.Store)
	if !ok {
		return
	}
	all, err := store.GetAll(context.Background())
	if err != nil {
		log.Printf("ERROR could not read back sentences: %v", err)
		return
	}
	for _, r := range all {
		fmt.Fprintf(w, "%s\t%s\n", r.ID, r.Text)
	}
}

func exportEveryGrammar(ctx context.Context, eng *sentgen.Engine, dir string, n int) error {
	for _, name := range eng.Bundle().Names() {
		p := filepath.Join(dir, name+"_sentences.txt")
		if err := exportTo(ctx, eng, name, "file:"+p, n); err != nil {
			return fmt.Errorf("grammar %q: %w", name, err)
		}
	}
	return nil
}
