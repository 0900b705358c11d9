/*
Sgserver starts a sentgen server and begins listening for new connections.

Usage:

	sgserver [flags]
	sgserver [flags] -l [[ADDRESS]:PORT]

Once started, the sentgen server will listen for HTTP requests and respond to
them using REST protocol. By default, it will listen on localhost:8080. This can
be changed with the --listen/-l flag (or config via environment var). The flag
argument must be either a full address with port, such as "192.168.0.2:6001", or
just the IP address preceeded by a colon, such as ":6001".

If a replay token secret is not given, one will be automatically generated. As
a consequence, in this mode of operation all replay tokens are rendered invalid
as soon as the server shuts down. This is suitable for testing, but must be
given via either CLI flags or environment variable if tokens are to be kept.

The flags are:

	-v, --version
		Give the current version of the sentgen server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment variable
		SENTGEN_LISTEN, and if that is not given, will default to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing replay tokens. If there are less
		than 32 bytes in the secret, it will be repeated until it is. The
		maximum size is 64 bytes. If not given, will default to the value of
		environment variable SENTGEN_SECRET. If no secret is specified or an
		empty secret is given, a random secret will be automatically generated.

	--dest DEST
		Store generated sentences in the given destination. DEST must be one of
		"inmem", "sqlite:DIR", or "postgres:DSN". If not given, will default to
		the value of environment variable SENTGEN_DEST. If neither is given, an
		in-memory store is used.

	-b, --bundle FILE
		Generate from the grammars in the given SGF bundle file instead of the
		built-in ones.

	--rate-limit RATE,BURST
		Allow RATE requests per second to the API with bursts of up to BURST.
		A RATE of 0 disables rate limiting. If not given, will default to the
		value of environment variable SENTGEN_RATE_LIMIT, and if that is not
		given, to 10,20.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/internal/version"
	"github.com/dekarrin/sentgen/server"
	"github.com/spf13/pflag"
)

const (
	EnvListen    = "SENTGEN_LISTEN"
	EnvSecret    = "SENTGEN_SECRET"
	EnvDest      = "SENTGEN_DEST"
	EnvRateLimit = "SENTGEN_RATE_LIMIT"
)

var (
	flagVersion   = pflag.BoolP("version", "v", false, "Give the current version of the sentgen server and then exit.")
	flagListen    = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret    = pflag.StringP("secret", "s", "", "Use the given secret for replay token generation.")
	flagDest      = pflag.String("dest", "", "Store generated sentences in the given destination.")
	flagBundle    = pflag.StringP("bundle", "b", "", "Generate from the grammars in the given SGF bundle file.")
	flagRateLimit = pflag.String("rate-limit", "", "Limit API requests to RATE per second with bursts of BURST.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (sentgen v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	args := pflag.Args()

	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	// get address info
	port := 0
	addr := ""
	listenAddr := fromEnvOrFlag(EnvListen, "listen", *flagListen)
	if listenAddr != "" {
		bindParts := strings.SplitN(listenAddr, ":", 2)
		if len(bindParts) != 2 {
			fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
			os.Exit(1)
		}

		var err error

		addr = bindParts[0]
		port, err = strconv.Atoi(bindParts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
			os.Exit(1)
		}
	}

	// assemble a server config
	var cfg server.Config

	if destStr := fromEnvOrFlag(EnvDest, "dest", *flagDest); destStr != "" {
		dest, err := sentgen.ParseDestination(destStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Not a valid destination: %s\nDo -h for help.\n", err)
			os.Exit(1)
		}
		cfg.Dest = dest
	}

	cfg.RateLimit = fromEnvOrFlag(EnvRateLimit, "rate-limit", *flagRateLimit)

	// get token secret
	tokSecStr := fromEnvOrFlag(EnvSecret, "secret", *flagSecret)
	if tokSecStr != "" {
		cfg.TokenSecret = []byte(tokSecStr)

		for len(cfg.TokenSecret) < server.MinSecretSize {
			doubled := make([]byte, len(cfg.TokenSecret)*2)
			copy(doubled, cfg.TokenSecret)
			copy(doubled[len(cfg.TokenSecret):], cfg.TokenSecret)
			cfg.TokenSecret = doubled
		}

		if len(cfg.TokenSecret) > server.MaxSecretSize {
			// keys would be chopped at 64, so rather than the user thinking
			// they have more security by giving a longer key, refuse to start.
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(cfg.TokenSecret), server.MaxSecretSize)
			os.Exit(1)
		}
	} else {
		// use all 64 possible bytes if doing a generated secret
		cfg.TokenSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(cfg.TokenSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}

		log.Printf("WARN  Using generated token secret; all replay tokens issued will become invalid at shutdown")
	}

	eng, err := sentgen.New(sentgen.Options{BundlePath: *flagBundle})
	if err != nil {
		log.Fatalf("FATAL could not load grammars: %s", err.Error())
	}
	for _, w := range eng.Warnings() {
		log.Printf("WARN  %s", w)
	}

	// configuration complete, initialize the server
	sgs, err := server.New(cfg, eng)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	defer sgs.Close()
	log.Printf("DEBUG Server initialized")

	// okay, now actually launch it
	log.Printf("INFO  Starting sentgen server %s...", version.ServerCurrent)
	sgs.ServeForever(addr, port)
}

// fromEnvOrFlag gives the value of the named flag if it was set on the command
// line, or else the value of the environment variable.
func fromEnvOrFlag(envVar, flagName, flagVal string) string {
	if pflag.Lookup(flagName).Changed {
		return flagVal
	}
	return os.Getenv(envVar)
}
