// Package middle contains middleware for use with the sentgen server.
package middle

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dekarrin/sentgen/server/result"
	"golang.org/x/time/rate"
)

// Middleware is a function that takes a handler and returns a new handler which
// wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// RateLimitHandler is middleware that passes a request on only if a token can
// be taken from its bucket. Otherwise it responds with an HTTP-429.
type RateLimitHandler struct {
	limiter *rate.Limiter
	next    http.Handler
}

func (rh *RateLimitHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !rh.limiter.Allow() {
		result.TooManyRequests("%s %s rejected by rate limit", req.Method, req.URL.Path).WriteResponse(w)
		return
	}
	rh.next.ServeHTTP(w, req)
}

// RateLimit returns Middleware that shares a single token bucket between all
// requests it handles.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return &RateLimitHandler{
			limiter: limiter,
			next:    next,
		}
	}
}

// ParseRateLimit parses a rate limit of the form "RATE,BURST" into a limiter
// that allows RATE requests per second with bursts of up to BURST requests.
// If BURST is left out it is the same as RATE. A RATE of 0 or less gives a
// limiter that allows every request.
func ParseRateLimit(s string) (*rate.Limiter, error) {
	rateStr, burstStr, hasBurst := strings.Cut(strings.TrimSpace(s), ",")

	r, err := strconv.ParseFloat(strings.TrimSpace(rateStr), 64)
	if err != nil {
		return nil, fmt.Errorf("rate %q is not a number", rateStr)
	}
	if r <= 0 {
		return rate.NewLimiter(rate.Inf, 0), nil
	}

	burst := int(r)
	if hasBurst {
		burst, err = strconv.Atoi(strings.TrimSpace(burstStr))
		if err != nil {
			return nil, fmt.Errorf("burst %q is not a whole number", burstStr)
		}
	}
	if burst < 1 {
		return nil, fmt.Errorf("burst must be at least 1")
	}

	return rate.NewLimiter(rate.Limit(r), burst), nil
}
