// Package token issues and checks replay tokens. A replay token is a signed
// JWT that records everything needed to derive the same batch of sentences
// again: the grammar, the seed, the count, and any bounds that were set.
package token

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is the issuer of every replay token.
	Issuer = "sgs"

	// Lifetime is how long a replay token is valid after it is issued.
	Lifetime = 7 * 24 * time.Hour
)

// Replay holds the claims of a replay token.
type Replay struct {
	Grammar       string `json:"grammar"`
	Seed          int64  `json:"seed"`
	Count         int    `json:"count"`
	MaxExpansions int    `json:"max_expansions,omitempty"`
	MaxDepth      int    `json:"max_depth,omitempty"`

	jwt.RegisteredClaims
}

// HasBounds returns whether the claims set derivation bounds.
func (r Replay) HasBounds() bool {
	return r.MaxExpansions > 0
}

// Generate creates a signed replay token for the given claims. The issuer,
// issue time, and expiry are set by Generate.
func Generate(secret []byte, claims Replay) (string, error) {
	now := time.Now()
	claims.Issuer = Issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(Lifetime))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokStr, err := tok.SignedString(secret)
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// Validate checks the signature, issuer, and expiry of tok and returns its
// claims.
func Validate(tok string, secret []byte) (Replay, error) {
	var claims Replay

	_, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(Issuer), jwt.WithLeeway(time.Minute))
	if err != nil {
		return Replay{}, err
	}

	if claims.Grammar == "" {
		return Replay{}, fmt.Errorf("token does not name a grammar")
	}
	if claims.Count < 1 {
		return Replay{}, fmt.Errorf("token count is not positive")
	}

	return claims, nil
}

// Get gets the token from the Authorization header of req, which must be in
// Bearer format.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	token := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return token, nil
}
