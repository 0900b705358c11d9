// Package sgs has services for interacting with the sentgen server backend
// decoupled from the API that accesses it.
package sgs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/dekarrin/sentgen/internal/sgf"
	"github.com/dekarrin/sentgen/server/token"
	"github.com/google/uuid"
)

// DefaultMaxCount is the most sentences one request may ask for if the
// Service does not set its own limit.
const DefaultMaxCount = 100

// Service is a service for generating sentences on the sentgen server backend
// and keeping what it generates. It performs the actions requested and makes
// calls to the export store to preserve them.
//
// The zero-value of Service is not ready to be used; assign a valid Engine,
// Store, and Secret before attempting to use it.
type Service struct {

	// Engine generates the sentences.
	Engine *sentgen.Engine

	// Store is where generated sentences are kept.
	Store export.Store

	// Secret signs replay tokens.
	Secret []byte

	// Metrics, if set, records generation counts.
	Metrics *Metrics

	// MaxCount is the most sentences one request may ask for. If 0,
	// DefaultMaxCount is used.
	MaxCount int

	// Seeds supplies the seed of every request that does not give one. It is
	// shared by all requests. If nil, seeds are taken from the clock.
	Seeds *derive.LockedSource
}

// Request is a request for a batch of sentences.
type Request struct {
	Grammar string
	Count   int

	// Seed seeds the batch. If nil, one is chosen.
	Seed *int64

	// Bounds replaces the bounds of the grammar if not nil.
	Bounds *sentgen.Bounds
}

// Batch is a batch of generated sentences along with the token that replays
// it.
type Batch struct {
	Grammar string
	Seed    int64
	Records []export.Record
	Token   string
}

// Grammars returns the definitions of all grammars the service can generate
// from, in bundle order.
func (svc Service) Grammars() []sgf.GrammarDef {
	bundle := svc.Engine.Bundle()
	names := bundle.Names()

	defs := make([]sgf.GrammarDef, len(names))
	for i := range names {
		defs[i], _ = bundle.Grammar(names[i])
	}
	return defs
}

// CreateSentences generates a batch of sentences, writes each to the store,
// and returns them along with a token that can be used to replay the batch.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the grammar does not exist,
// it will match sgerr.ErrNotFound. If the count or bounds are out of range, it
// will match sgerr.ErrBadArgument. If the store could not be written to, it
// will match sgerr.ErrStore.
func (svc Service) CreateSentences(ctx context.Context, r Request) (Batch, error) {
	if err := svc.checkCount(r.Count); err != nil {
		return Batch{}, err
	}

	var seed int64
	if r.Seed != nil {
		seed = *r.Seed
	} else if svc.Seeds != nil {
		seed = derive.NewSeed(svc.Seeds)
	} else {
		seed = time.Now().UnixNano()
	}

	name, sentences, err := svc.generate(ctx, r.Grammar, r.Count, seed, r.Bounds)
	if err != nil {
		return Batch{}, err
	}

	b := Batch{Grammar: name, Seed: seed, Records: make([]export.Record, 0, len(sentences))}
	for _, s := range sentences {
		rec, err := svc.Store.Write(ctx, export.Record{
			Grammar: name,
			Text:    sentgen.Format(s.Words),
			Words:   s.Len(),
			Seed:    seed,
			Repairs: s.Stats.Repairs,
		})
		if err != nil {
			if errors.Is(err, sgerr.ErrStore) {
				return Batch{}, err
			}
			return Batch{}, sgerr.WrapStore("could not store sentence", err)
		}
		b.Records = append(b.Records, rec)
	}

	claims := token.Replay{Grammar: name, Seed: seed, Count: r.Count}
	if r.Bounds != nil {
		claims.MaxExpansions = r.Bounds.MaxExpansions
		claims.MaxDepth = r.Bounds.MaxDepth
	}
	b.Token, err = token.Generate(svc.Secret, claims)
	if err != nil {
		return Batch{}, fmt.Errorf("could not generate replay token: %w", err)
	}

	return b, nil
}

// Replay derives again the batch of sentences that the given replay token was
// issued for. Nothing is written to the store. The claims of the token are
// returned along with the sentences.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the token is not valid, it
// will match sgerr.ErrBadToken. If the grammar it names no longer exists, it
// will match sgerr.ErrNotFound.
func (svc Service) Replay(ctx context.Context, tok string) (token.Replay, []string, error) {
	claims, err := token.Validate(tok, svc.Secret)
	if err != nil {
		return token.Replay{}, nil, sgerr.New(err.Error(), sgerr.ErrBadToken)
	}
	if err := svc.checkCount(claims.Count); err != nil {
		return token.Replay{}, nil, err
	}

	var bounds *sentgen.Bounds
	if claims.HasBounds() {
		bounds = &sentgen.Bounds{MaxExpansions: claims.MaxExpansions, MaxDepth: claims.MaxDepth}
	}

	_, sentences, err := svc.generate(ctx, claims.Grammar, claims.Count, claims.Seed, bounds)
	if err != nil {
		return token.Replay{}, nil, err
	}

	texts := make([]string, len(sentences))
	for i := range sentences {
		texts[i] = sentgen.Format(sentences[i].Words)
	}
	return claims, texts, nil
}

// GetSentence returns the stored sentence with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no sentence with that ID
// exists, it will match sgerr.ErrNotFound. If the ID is not valid, it will
// match sgerr.ErrBadArgument.
func (svc Service) GetSentence(ctx context.Context, id string) (export.Record, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return export.Record{}, sgerr.New("ID is not valid", sgerr.ErrBadArgument)
	}

	rec, err := svc.Store.GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, sgerr.ErrNotFound) {
			return export.Record{}, sgerr.ErrNotFound
		}
		return export.Record{}, sgerr.WrapStore("could not get sentence", err)
	}
	return rec, nil
}

// GetSentences returns all stored sentences, or only those from the named
// grammar if grammar is not empty.
func (svc Service) GetSentences(ctx context.Context, grammar string) ([]export.Record, error) {
	var all []export.Record
	var err error
	if grammar == "" {
		all, err = svc.Store.GetAll(ctx)
	} else {
		all, err = svc.Store.GetAllByGrammar(ctx, grammar)
	}
	if err != nil {
		return nil, sgerr.WrapStore("could not get sentences", err)
	}
	return all, nil
}

func (svc Service) checkCount(n int) error {
	max := svc.MaxCount
	if max == 0 {
		max = DefaultMaxCount
	}
	if n < 1 || n > max {
		return sgerr.New(fmt.Sprintf("count must be between 1 and %d; got %d", max, n), sgerr.ErrBadArgument)
	}
	return nil
}

// generate runs the batch and records it in the metrics. The canonical name of
// the grammar is returned.
func (svc Service) generate(ctx context.Context, grammar string, n int, seed int64, bounds *sentgen.Bounds) (string, []derive.Sentence, error) {
	def, ok := svc.Engine.Bundle().Grammar(grammar)
	if !ok {
		return "", nil, sgerr.New(fmt.Sprintf("no grammar named %q", grammar), sgerr.ErrNotFound)
	}
	name := def.Grammar.Name

	if bounds != nil {
		cfg := derive.Config{MaxExpansions: bounds.MaxExpansions, MaxDepth: bounds.MaxDepth}
		if err := cfg.Validate(); err != nil {
			return "", nil, sgerr.New(err.Error(), sgerr.ErrBadArgument)
		}
	}

	sentences, err := svc.Engine.Batch(ctx, name, n, seed, bounds)
	if err != nil {
		svc.Metrics.observeError(name, err)
		return "", nil, err
	}

	for _, s := range sentences {
		svc.Metrics.observeSentence(name, s)
	}
	return name, sentences, nil
}
