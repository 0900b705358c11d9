package api

import (
	"net/http"

	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/version"
	"github.com/dekarrin/sentgen/server/result"
)

// HTTPGetInfo returns a HandlerFunc that retrieves information on the API and
// server.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return api.Endpoint(api.epGetInfo)
}

func (api API) epGetInfo(req *http.Request) result.Result {
	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.SentGen = version.Current
	resp.Grammars = api.Backend.Engine.Bundle().Names()

	return result.OK(resp, "client got API info")
}

// HTTPGetGrammars returns a HandlerFunc that retrieves the definitions of all
// grammars sentences can be generated from.
func (api API) HTTPGetGrammars() http.HandlerFunc {
	return api.Endpoint(api.epGetGrammars)
}

func (api API) epGetGrammars(req *http.Request) result.Result {
	defs := api.Backend.Grammars()

	resp := make([]GrammarModel, len(defs))
	for i, def := range defs {
		cfg := def.Bounds.Apply(derive.DefaultConfig())

		resp[i] = GrammarModel{
			Name:        def.Grammar.Name,
			Class:       def.Grammar.Class.String(),
			Start:       string(def.Grammar.StartSymbol()),
			Description: def.Description,
			Rules:       def.Grammar.Len(),
			Bounds:      BoundsModel{MaxExpansions: cfg.MaxExpansions, MaxDepth: cfg.MaxDepth},
			Filter:      FilterModel{MinWords: def.Filter.MinWords, MaxWords: def.Filter.MaxWords},
		}
	}

	return result.OK(resp, "client got %d grammars", len(resp))
}
