package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/server/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	eng, err := sentgen.New(sentgen.Options{Output: &bytes.Buffer{}})
	require.NoError(t, err)

	if cfg.UnauthDelayMillis == 0 {
		cfg.UnauthDelayMillis = -1
	}
	if cfg.RateLimit == "" {
		cfg.RateLimit = "0"
	}

	s, err := New(cfg, eng)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, hdrs ...[2]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, h := range hdrs {
		req.Header.Set(h[0], h[1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func Test_Server_Info(t *testing.T) {
	assert := assert.New(t)
	h := newTestServer(t, Config{})

	w := do(t, h, "GET", "/api/v1/info", "")
	assert.Equal(http.StatusOK, w.Code)

	var resp api.InfoModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal([]string{"rg", "cf", "ix", "cs"}, resp.Grammars)
	assert.NotEmpty(resp.Version.Server)
}

func Test_Server_Grammars(t *testing.T) {
	assert := assert.New(t)
	h := newTestServer(t, Config{})

	w := do(t, h, "GET", "/api/v1/grammars", "")
	assert.Equal(http.StatusOK, w.Code)

	var resp []api.GrammarModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 4)
	assert.Equal("context-free", resp[1].Class)
	assert.Equal("S", resp[1].Start)
	assert.Equal(20, resp[1].Bounds.MaxExpansions)
	assert.Equal(10, resp[1].Bounds.MaxDepth)
	assert.Equal(11, resp[1].Filter.MinWords)
	assert.Equal(20, resp[1].Filter.MaxWords)
}

func Test_Server_SentencesAndReplay(t *testing.T) {
	assert := assert.New(t)
	h := newTestServer(t, Config{})

	w := do(t, h, "POST", "/api/v1/sentences", `{"grammar": "ix", "count": 3, "seed": 5, "max_depth": 3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created api.SentencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal("ix", created.Grammar)
	assert.Equal(int64(5), created.Seed)
	require.Len(t, created.Sentences, 3)
	assert.NotEmpty(created.ReplayToken)

	// get one back
	w = do(t, h, "GET", created.Sentences[0].URI, "")
	assert.Equal(http.StatusOK, w.Code)
	var one api.SentenceModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(created.Sentences[0].Text, one.Text)

	// list by grammar
	w = do(t, h, "GET", "/api/v1/sentences?grammar=IX", "")
	assert.Equal(http.StatusOK, w.Code)
	var list []api.SentenceModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(list, 3)

	w = do(t, h, "GET", "/api/v1/sentences?grammar=cf", "")
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("[]", strings.TrimSpace(w.Body.String()))

	expectTexts := make([]string, len(created.Sentences))
	for i := range created.Sentences {
		expectTexts[i] = created.Sentences[i].Text
	}

	// replay from body
	w = do(t, h, "POST", "/api/v1/replay", `{"token": "`+created.ReplayToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var replayed api.ReplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replayed))
	assert.Equal(expectTexts, replayed.Sentences)
	if assert.NotNil(replayed.Bounds) {
		assert.Equal(20, replayed.Bounds.MaxExpansions)
		assert.Equal(3, replayed.Bounds.MaxDepth)
	}

	// replay from header
	w = do(t, h, "POST", "/api/v1/replay", "", [2]string{"Authorization", "Bearer " + created.ReplayToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replayed = api.ReplayResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replayed))
	assert.Equal(expectTexts, replayed.Sentences)
}

func Test_Server_Errors(t *testing.T) {
	testCases := []struct {
		name         string
		method       string
		path         string
		body         string
		expectStatus int
	}{
		{name: "unknown grammar", method: "POST", path: "/api/v1/sentences", body: `{"grammar": "nope"}`, expectStatus: http.StatusNotFound},
		{name: "missing grammar", method: "POST", path: "/api/v1/sentences", body: `{"count": 1}`, expectStatus: http.StatusBadRequest},
		{name: "too many", method: "POST", path: "/api/v1/sentences", body: `{"grammar": "cf", "count": 1000}`, expectStatus: http.StatusBadRequest},
		{name: "negative depth", method: "POST", path: "/api/v1/sentences", body: `{"grammar": "cf", "max_depth": -1}`, expectStatus: http.StatusBadRequest},
		{name: "malformed json", method: "POST", path: "/api/v1/sentences", body: `{"grammar": `, expectStatus: http.StatusBadRequest},
		{name: "bad id", method: "GET", path: "/api/v1/sentences/123", expectStatus: http.StatusBadRequest},
		{name: "missing sentence", method: "GET", path: "/api/v1/sentences/7d3e1c4a-51cb-4a5e-9a3b-0c1f6a1e2d3f", expectStatus: http.StatusNotFound},
		{name: "bad replay token", method: "POST", path: "/api/v1/replay", body: `{"token": "abc"}`, expectStatus: http.StatusUnauthorized},
		{name: "no replay token", method: "POST", path: "/api/v1/replay", expectStatus: http.StatusBadRequest},
		{name: "no route", method: "GET", path: "/api/v1/users", expectStatus: http.StatusNotFound},
		{name: "wrong method", method: "GET", path: "/api/v1/replay", expectStatus: http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, Config{})
			w := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.expectStatus, w.Code, w.Body.String())
		})
	}
}

func Test_Server_RateLimit(t *testing.T) {
	assert := assert.New(t)
	h := newTestServer(t, Config{RateLimit: "0.001,2"})

	assert.Equal(http.StatusOK, do(t, h, "GET", "/api/v1/info", "").Code)
	assert.Equal(http.StatusOK, do(t, h, "GET", "/api/v1/info", "").Code)
	assert.Equal(http.StatusTooManyRequests, do(t, h, "GET", "/api/v1/info", "").Code)

	// metrics are not limited
	assert.Equal(http.StatusOK, do(t, h, "GET", "/metrics", "").Code)
}

func Test_Server_Metrics(t *testing.T) {
	assert := assert.New(t)
	h := newTestServer(t, Config{})

	w := do(t, h, "POST", "/api/v1/sentences", `{"grammar": "cs", "count": 2, "seed": 1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, "GET", "/metrics", "")
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), `sentgen_sentences_generated_total{grammar="cs"} 2`)
	assert.Contains(w.Body.String(), "sentgen_sentence_words_count 2")
}

func Test_Config_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "short secret", cfg: Config{TokenSecret: []byte("short")}, expectErr: true},
		{name: "long secret", cfg: Config{TokenSecret: bytes.Repeat([]byte("x"), 65)}, expectErr: true},
		{name: "file dest is not readable", cfg: Config{Dest: sentgen.Destination{Type: sentgen.DestFile, Path: "x.txt"}}, expectErr: true},
		{name: "bad rate limit", cfg: Config{RateLimit: "lots"}, expectErr: true},
		{name: "negative max count", cfg: Config{MaxCount: -1}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.FillDefaults().Validate()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
