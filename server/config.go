package server

import (
	"fmt"
	"time"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/server/middle"
)

const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

// DefaultRateLimit is the rate limit used if none is configured: 10 requests
// per second with bursts of up to 20.
const DefaultRateLimit = "10,20"

// Config is a configuration for a server. It contains all parameters that can
// be used to configure the operation of a Server.
type Config struct {

	// TokenSecret is the secret used for signing replay tokens. If not
	// provided, a default key is used.
	TokenSecret []byte

	// Dest is where generated sentences are stored. It must be a readable
	// destination. If not provided, it will be set to an in-memory store.
	Dest sentgen.Destination

	// RateLimit is the rate limit of the API in "RATE,BURST" form, where RATE
	// is in requests per second. A RATE of 0 disables the limit. If not set
	// it defaults to DefaultRateLimit.
	RateLimit string

	// MaxCount is the most sentences a single request may ask for. If not set
	// it defaults to 100.
	MaxCount int

	// UnauthDelayMillis is the amount of additional time to wait
	// (in milliseconds) before sending a response that indicates either that
	// the client gave a bad replay token or that the server failed. This is
	// something of an "anti-flood" measure for naive clients attempting
	// non-parallel connections. If not set it will default to 1 second
	// (1000ms). Set this to any negative number to disable the delay.
	UnauthDelayMillis int
}

// UnauthDelay returns the configured time for the UnauthDelay as a
// time.Duration. If cfg.UnauthDelayMillis is set to a number less than 0, this
// will return a zero-valued time.Duration.
func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		var dur time.Duration
		return dur
	}
	return time.Millisecond * time.Duration(cfg.UnauthDelayMillis)
}

// FillDefaults returns a new Config identitical to cfg but with unset values
// set to their defaults.
func (cfg Config) FillDefaults() Config {
	newCFG := cfg

	if newCFG.TokenSecret == nil {
		newCFG.TokenSecret = []byte("DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!")
	}
	if newCFG.Dest.Type == "" || newCFG.Dest.Type == sentgen.DestNone {
		newCFG.Dest = sentgen.Destination{Type: sentgen.DestInMemory}
	}
	if newCFG.RateLimit == "" {
		newCFG.RateLimit = DefaultRateLimit
	}
	if newCFG.MaxCount == 0 {
		newCFG.MaxCount = 100
	}
	if newCFG.UnauthDelayMillis == 0 {
		newCFG.UnauthDelayMillis = 1000
	}

	return newCFG
}

// Validate returns an error if the Config has invalid field values set. Empty
// and unset values are considered invalid; if defaults are intended to be used,
// call Validate on the return value of FillDefaults.
func (cfg Config) Validate() error {
	if len(cfg.TokenSecret) < MinSecretSize {
		return fmt.Errorf("token secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.TokenSecret))
	}
	if len(cfg.TokenSecret) > MaxSecretSize {
		return fmt.Errorf("token secret: must be no more than %d bytes, but is %d", MaxSecretSize, len(cfg.TokenSecret))
	}
	if err := cfg.Dest.Validate(); err != nil {
		return fmt.Errorf("dest: %w", err)
	}
	if !cfg.Dest.Readable() {
		return fmt.Errorf("dest: %s destination cannot be read back; use inmem, sqlite, or postgres", cfg.Dest.Type)
	}
	if _, err := middle.ParseRateLimit(cfg.RateLimit); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if cfg.MaxCount < 1 {
		return fmt.Errorf("max count: must be at least 1, but is %d", cfg.MaxCount)
	}

	// all possible values for UnauthDelayMillis are valid, so no need to check it

	return nil
}
