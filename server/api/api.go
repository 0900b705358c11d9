// Package api provides HTTP API endpoints for the sentgen server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/dekarrin/sentgen/server/result"
	"github.com/dekarrin/sentgen/server/sgs"
	"github.com/go-chi/chi/v5"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// API holds parameters for endpoints needed to run and a service layer that
// will perform most of the actual logic. To use API, create one and then
// assign the result of its HTTP* methods as handlers to a router or some other
// kind of server mux.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into the backend of a sentgen server via Go code, see
// [sgs.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend sgs.Service

	// UnauthDelay is the amount of time that a request will pause before
	// responding with an HTTP-401 or HTTP-500 to deprioritize such requests
	// from processing and I/O.
	UnauthDelay time.Duration
}

// v must be a pointer to a type. Will return error such that
// errors.Is(err, sgerr.ErrBodyUnmarshal) returns true if it is problem decoding
// the JSON itself.
func parseJSON(req *http.Request, v interface{}) error {
	contentType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))

	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	err = json.Unmarshal(bodyData, v)
	if err != nil {
		return sgerr.New("malformed JSON in request", err, sgerr.ErrBodyUnmarshal)
	}

	return nil
}

// EndpointFunc is the logic of one endpoint. It returns the result to write
// rather than writing it.
type EndpointFunc func(req *http.Request) result.Result

// Endpoint returns a handler that runs ep, logs the result, and writes it. A
// panic in ep becomes an HTTP-500.
func (api API) Endpoint(ep EndpointFunc) http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, ep)
}

func httpEndpoint(unauthDelay time.Duration, ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		// if this hasn't been properly created, output error directly and do not
		// try to read properties
		if r.Status == 0 {
			logHttpResponse("ERROR", req, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		// pre-call PrepareMarshaledResponse bc if it fails in call to
		// WriteResponse, it will panic.
		if err := r.PrepareMarshaledResponse(); err != nil {
			newResp := result.Err(http.StatusInternalServerError, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
			logHttpResponse("ERROR", req, newResp.Status, newResp.InternalMsg)
			newResp.WriteResponse(w)
			return
		}

		if r.IsErr {
			logHttpResponse("ERROR", req, r.Status, r.InternalMsg)
		} else {
			logHttpResponse("INFO", req, r.Status, r.InternalMsg)
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusInternalServerError {
			time.Sleep(unauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		logHttpResponse("ERROR", req, r.Status, r.InternalMsg)
		r.WriteResponse(w)
	}
}

func logHttpResponse(level string, req *http.Request, respStatus int, msg string) {
	if len(level) > 5 {
		level = level[0:5]
	}

	for len(level) < 5 {
		level += " "
	}

	// we don't really care about the ephemeral port from the client end
	remoteAddrParts := strings.SplitN(req.RemoteAddr, ":", 2)
	remoteIP := remoteAddrParts[0]

	log.Printf("%s %s %s %s: HTTP-%d %s", level, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}

// HTTPNotFound returns a HandlerFunc for requests that match no route.
func (api API) HTTPNotFound() http.HandlerFunc {
	return api.Endpoint(func(req *http.Request) result.Result {
		return result.NotFound("no route for %s", req.URL.Path)
	})
}

// HTTPMethodNotAllowed returns a HandlerFunc for requests that match a route
// but not any of its methods.
func (api API) HTTPMethodNotAllowed() http.HandlerFunc {
	return api.Endpoint(func(req *http.Request) result.Result {
		return result.MethodNotAllowed(req)
	})
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		// either it does not exist or it is nil; treat both as the same and
		// return an error
		return val, sgerr.New("parameter does not exist", sgerr.ErrBadArgument)
	}

	val, err = parse(valStr)
	if err != nil {
		return val, sgerr.New(fmt.Sprintf("%s is not valid", key), sgerr.ErrBadArgument)
	}
	return val, nil
}
