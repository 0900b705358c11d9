package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/dekarrin/sentgen/server/result"
	"github.com/dekarrin/sentgen/server/sgs"
	"github.com/google/uuid"
)

func sentenceModel(r export.Record) SentenceModel {
	return SentenceModel{
		URI:     PathPrefix + "/sentences/" + r.ID.String(),
		ID:      r.ID.String(),
		Grammar: r.Grammar,
		Text:    r.Text,
		Words:   r.Words,
		Seed:    r.Seed,
		Repairs: r.Repairs,
		Created: r.Created.Format(time.RFC3339),
	}
}

// generationErrorResult gives the result for an error from generating
// sentences.
func generationErrorResult(err error) result.Result {
	switch {
	case errors.Is(err, sgerr.ErrNotFound):
		return result.NotFound(err.Error())
	case errors.Is(err, sgerr.ErrBadArgument):
		return result.BadRequest(err.Error(), err.Error())
	case errors.Is(err, sgerr.ErrTooManyAttempts):
		return result.UnprocessableEntity("Could not generate enough sentences with those settings", err.Error())
	default:
		return result.InternalServerError(err.Error())
	}
}

// HTTPCreateSentences returns a HandlerFunc that generates a batch of
// sentences, stores them, and returns them along with a replay token.
func (api API) HTTPCreateSentences() http.HandlerFunc {
	return api.Endpoint(api.epCreateSentences)
}

func (api API) epCreateSentences(req *http.Request) result.Result {
	var body SentencesRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	if body.Grammar == "" {
		return result.BadRequest("grammar: property is empty or missing from request", "empty grammar")
	}
	if body.Count == 0 {
		body.Count = 1
	}

	sgReq := sgs.Request{Grammar: body.Grammar, Count: body.Count, Seed: body.Seed}
	if body.MaxExpansions != nil || body.MaxDepth != nil {
		b := sentgen.Bounds{MaxExpansions: derive.DefaultMaxExpansions, MaxDepth: derive.DefaultMaxDepth}
		if def, ok := api.Backend.Engine.Bundle().Grammar(body.Grammar); ok {
			cfg := def.Bounds.Apply(derive.DefaultConfig())
			b = sentgen.Bounds{MaxExpansions: cfg.MaxExpansions, MaxDepth: cfg.MaxDepth}
		}
		if body.MaxExpansions != nil {
			b.MaxExpansions = *body.MaxExpansions
		}
		if body.MaxDepth != nil {
			b.MaxDepth = *body.MaxDepth
		}
		sgReq.Bounds = &b
	}

	batch, err := api.Backend.CreateSentences(req.Context(), sgReq)
	if err != nil {
		return generationErrorResult(err)
	}

	resp := SentencesResponse{
		Grammar:     batch.Grammar,
		Seed:        batch.Seed,
		Sentences:   make([]SentenceModel, len(batch.Records)),
		ReplayToken: batch.Token,
	}
	for i := range batch.Records {
		resp.Sentences[i] = sentenceModel(batch.Records[i])
	}

	return result.Created(resp, "client created %d %s sentences with seed %d", len(resp.Sentences), resp.Grammar, resp.Seed)
}

// HTTPGetSentence returns a HandlerFunc that gets one stored sentence.
//
// The handler has requirements for the request it receives. The route must
// have an "id" URL parameter.
func (api API) HTTPGetSentence() http.HandlerFunc {
	return api.Endpoint(api.epGetSentence)
}

func (api API) epGetSentence(req *http.Request) result.Result {
	id, err := getURLParam(req, "id", uuid.Parse)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	rec, err := api.Backend.GetSentence(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, sgerr.ErrNotFound) {
			return result.NotFound("no sentence %s", id)
		}
		return result.InternalServerError("could not get sentence: " + err.Error())
	}

	return result.OK(sentenceModel(rec), "client got sentence %s", id)
}

// HTTPGetSentences returns a HandlerFunc that gets all stored sentences, or
// only those of the grammar given in the "grammar" query parameter.
func (api API) HTTPGetSentences() http.HandlerFunc {
	return api.Endpoint(api.epGetSentences)
}

func (api API) epGetSentences(req *http.Request) result.Result {
	grammar := req.URL.Query().Get("grammar")

	all, err := api.Backend.GetSentences(req.Context(), grammar)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]SentenceModel, len(all))
	for i := range all {
		resp[i] = sentenceModel(all[i])
	}

	if grammar == "" {
		return result.OK(resp, "client got all %d sentences", len(resp))
	}
	return result.OK(resp, "client got %d %s sentences", len(resp), grammar)
}
