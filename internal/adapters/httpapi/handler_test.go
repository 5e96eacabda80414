package httpapi

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/memory"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

const sampleRecordsJSON = `[
	{"id":"1","name":"John Smith","email":"john@example.com"},
	{"id":"2","name":"Jon Smith","email":"jon@example.com"},
	{"id":"3","name":"John Smith","email":"johnsmith@example.com"},
	{"id":"4","name":"Jane Doe","email":"jane@example.com"}
]`

func newTestHandler(t *testing.T, rl RateLimitConfig) *Handler {
	t.Helper()
	return NewHandler(Options{
		Matcher:   service.NewMatcher(service.Options{Store: memory.NewStore()}),
		RateLimit: rl,
	})
}

func doRequest(h *Handler, ip, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000}, nil)
	h.ServeFastHTTP(ctx)
	return ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v), string(ctx.Response.Body()))
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{})
	ctx := doRequest(h, "10.0.0.1", "GET", "/health", "")

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var body map[string]interface{}
	decodeBody(t, ctx, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestHandler_Routing(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{})

	tests := []struct {
		name   string
		method string
		uri    string
		body   string
		want   int
	}{
		{name: "unknown path", method: "GET", uri: "/nope", want: fasthttp.StatusNotFound},
		{name: "wrong method on similarity", method: "GET", uri: "/similarity", want: fasthttp.StatusMethodNotAllowed},
		{name: "wrong method on health", method: "POST", uri: "/health", want: fasthttp.StatusMethodNotAllowed},
		{name: "wrong method on templates", method: "PUT", uri: "/templates", want: fasthttp.StatusMethodNotAllowed},
		{name: "bad json", method: "POST", uri: "/duplicates", body: "{", want: fasthttp.StatusBadRequest},
		{name: "delete without name", method: "DELETE", uri: "/templates", want: fasthttp.StatusBadRequest},
		{name: "unknown template", method: "GET", uri: "/templates?name=x", want: fasthttp.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := doRequest(h, "10.0.0.1", tc.method, tc.uri, tc.body)
			assert.Equal(t, tc.want, ctx.Response.StatusCode(), string(ctx.Response.Body()))

			var body ErrorResponse
			decodeBody(t, ctx, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandler_Similarity(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{})
	ctx := doRequest(h, "10.0.0.1", "POST", "/similarity", `{"a":"John","b":"Johnny"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var body SimilarityResponse
	decodeBody(t, ctx, &body)
	assert.Equal(t, 0.8, body.Score)
}

func TestHandler_Score(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{})

	ctx := doRequest(h, "10.0.0.1", "POST", "/score", `{
		"record_a": {"name":"John Smith","email":"john@example.com"},
		"record_b": {"name":"John Smith","email":"johnsmith@example.com"}
	}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var bd domain.Breakdown
	decodeBody(t, ctx, &bd)
	assert.InDelta(t, 0.8875, bd.Total, 1e-12)
	require.Len(t, bd.Fields, 2)
	assert.Equal(t, "name", bd.Fields[0].Field)

	ctx = doRequest(h, "10.0.0.1", "POST", "/score", `{"record_a":{},"record_b":{},"weights":{"name":0.9}}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandler_Duplicates(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{})

	t.Run("default threshold", func(t *testing.T) {
		ctx := doRequest(h, "10.0.0.1", "POST", "/duplicates", `{"records":`+sampleRecordsJSON+`}`)
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		var out service.Outcome
		decodeBody(t, ctx, &out)
		assert.Equal(t, 95.0, out.Threshold)
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, 6, out.PairsExamined)
		assert.Empty(t, out.Pairs)
	})

	t.Run("low threshold is clamped and flagged", func(t *testing.T) {
		ctx := doRequest(h, "10.0.0.1", "POST", "/duplicates",
			`{"threshold":10,"include_pairs":true,"records":`+sampleRecordsJSON+`}`)
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		var out service.Outcome
		decodeBody(t, ctx, &out)
		assert.Equal(t, 80.0, out.Threshold)
		assert.True(t, out.Clamped)
		assert.Equal(t, 3, out.Count)
		assert.Len(t, out.Pairs, 3)
		assert.NotEmpty(t, out.Advisory)
	})

	t.Run("empty record set", func(t *testing.T) {
		ctx := doRequest(h, "10.0.0.1", "POST", "/duplicates", `{"records":[]}`)
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		var out service.Outcome
		decodeBody(t, ctx, &out)
		assert.Zero(t, out.Count)
		assert.Zero(t, out.PairsExamined)
	})
}

func TestHandler_Templates(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{})

	ctx := doRequest(h, "10.0.0.1", "GET", "/templates", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, "[]", string(ctx.Response.Body()))

	ctx = doRequest(h, "10.0.0.1", "POST", "/templates", `{"name":"  crm  ","threshold":90}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var saved domain.Template
	decodeBody(t, ctx, &saved)
	assert.Equal(t, "crm", saved.Name)
	assert.NotEmpty(t, saved.ID)

	ctx = doRequest(h, "10.0.0.1", "POST", "/templates", `{"name":"  "}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = doRequest(h, "10.0.0.1", "GET", "/templates?name=crm", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var got domain.Template
	decodeBody(t, ctx, &got)
	assert.Equal(t, saved.ID, got.ID)

	ctx = doRequest(h, "10.0.0.1", "POST", "/duplicates", `{"template":"crm","records":`+sampleRecordsJSON+`}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var out service.Outcome
	decodeBody(t, ctx, &out)
	assert.Equal(t, "crm", out.Template)
	assert.Equal(t, 90.0, out.Threshold)

	ctx = doRequest(h, "10.0.0.1", "DELETE", "/templates?name=crm", "")
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())

	ctx = doRequest(h, "10.0.0.1", "DELETE", "/templates?name=crm", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestHandler_RateLimit(t *testing.T) {
	h := newTestHandler(t, RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})

	assert.Equal(t, fasthttp.StatusOK, doRequest(h, "10.0.0.1", "GET", "/health", "").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusOK, doRequest(h, "10.0.0.1", "GET", "/health", "").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusTooManyRequests, doRequest(h, "10.0.0.1", "GET", "/health", "").Response.StatusCode())

	// other clients have their own bucket
	assert.Equal(t, fasthttp.StatusOK, doRequest(h, "10.0.0.2", "GET", "/health", "").Response.StatusCode())
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Sweep())

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 1, rl.Sweep())
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{})
	assert.Nil(t, rl)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.Zero(t, rl.Sweep())
}
