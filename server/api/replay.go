package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/dekarrin/sentgen/server/result"
	"github.com/dekarrin/sentgen/server/token"
)

// HTTPReplay returns a HandlerFunc that derives again the batch a replay token
// was issued for. The token is taken from the request body, or from the
// Authorization header as a Bearer token if the body has none.
func (api API) HTTPReplay() http.HandlerFunc {
	return api.Endpoint(api.epReplay)
}

func (api API) epReplay(req *http.Request) result.Result {
	var body ReplayRequest
	if req.ContentLength != 0 {
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}
	}

	tok := body.Token
	if tok == "" {
		var err error
		tok, err = token.Get(req)
		if err != nil {
			return result.BadRequest("token: property is empty or missing from request", err.Error())
		}
	}

	claims, sentences, err := api.Backend.Replay(req.Context(), tok)
	if err != nil {
		if errors.Is(err, sgerr.ErrBadToken) {
			return result.Unauthorized("", err.Error())
		}
		return generationErrorResult(err)
	}

	resp := ReplayResponse{
		Grammar:   claims.Grammar,
		Seed:      claims.Seed,
		Count:     claims.Count,
		Sentences: sentences,
	}
	if claims.HasBounds() {
		resp.Bounds = &BoundsModel{MaxExpansions: claims.MaxExpansions, MaxDepth: claims.MaxDepth}
	}

	return result.OK(resp, "client replayed %d %s sentences with seed %d", len(sentences), claims.Grammar, claims.Seed)
}
