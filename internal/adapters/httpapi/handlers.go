package httpapi

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

// SimilarityRequest asks for the similarity of two strings.
type SimilarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// SimilarityResponse carries a single similarity score.
type SimilarityResponse struct {
	Score float64 `json:"score"`
}

// ScoreRequest asks for the aggregate score of two records.
type ScoreRequest struct {
	RecordA  domain.Record      `json:"record_a"`
	RecordB  domain.Record      `json:"record_b"`
	Weights  map[string]float64 `json:"weights,omitempty"`
	Template string             `json:"template,omitempty"`
}

// DuplicatesRequest asks for the duplicate pairs among records.
type DuplicatesRequest struct {
	Threshold    *float64           `json:"threshold,omitempty"`
	Records      []domain.Record    `json:"records"`
	Weights      map[string]float64 `json:"weights,omitempty"`
	Template     string             `json:"template,omitempty"`
	IncludePairs bool               `json:"include_pairs,omitempty"`
}

// handleHealth responds to health check requests
func (h *Handler) handleHealth(ctx *fasthttp.RequestCtx) {
	rng := h.matcher.Range()
	h.writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status":    "ok",
		"time":      h.now().Format(time.RFC3339),
		"threshold": rng,
	})
}

func (h *Handler) handleSimilarity(ctx *fasthttp.RequestCtx) {
	var req SimilarityRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, SimilarityResponse{Score: h.matcher.Similarity(req.A, req.B)})
}

func (h *Handler) handleScore(ctx *fasthttp.RequestCtx) {
	var req ScoreRequest
	if !h.decode(ctx, &req) {
		return
	}

	c, cancel := h.requestContext(ctx)
	defer cancel()

	bd, err := h.matcher.Breakdown(c, req.RecordA, req.RecordB, req.Weights, req.Template)
	if err != nil {
		h.writeDomainError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, bd)
}

func (h *Handler) handleDuplicates(ctx *fasthttp.RequestCtx) {
	var req DuplicatesRequest
	if !h.decode(ctx, &req) {
		return
	}

	c, cancel := h.requestContext(ctx)
	defer cancel()

	out, err := h.matcher.Duplicates(c, service.Request{
		Threshold:    req.Threshold,
		Records:      req.Records,
		Weights:      req.Weights,
		Template:     req.Template,
		IncludePairs: req.IncludePairs,
	})
	if err != nil {
		h.writeDomainError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, out)
}

func (h *Handler) handleTemplatesGet(ctx *fasthttp.RequestCtx) {
	store := h.matcher.Store()
	if store == nil {
		h.writeError(ctx, fasthttp.StatusNotFound, "Templates are disabled")
		return
	}

	c, cancel := h.requestContext(ctx)
	defer cancel()

	if name := string(ctx.QueryArgs().Peek("name")); name != "" {
		t, err := store.Get(c, name)
		if err != nil {
			h.writeDomainError(ctx, err)
			return
		}
		h.writeJSON(ctx, fasthttp.StatusOK, t)
		return
	}

	list, err := store.List(c)
	if err != nil {
		h.writeDomainError(ctx, err)
		return
	}
	if list == nil {
		list = []domain.Template{}
	}
	h.writeJSON(ctx, fasthttp.StatusOK, list)
}

func (h *Handler) handleTemplatesPost(ctx *fasthttp.RequestCtx) {
	store := h.matcher.Store()
	if store == nil {
		h.writeError(ctx, fasthttp.StatusNotFound, "Templates are disabled")
		return
	}

	var t domain.Template
	if !h.decode(ctx, &t) {
		return
	}

	c, cancel := h.requestContext(ctx)
	defer cancel()

	saved, err := store.Put(c, t)
	if err != nil {
		h.writeDomainError(ctx, err)
		return
	}
	h.logger.Info("Template saved", "name", saved.Name, "id", saved.ID)
	h.writeJSON(ctx, fasthttp.StatusOK, saved)
}

func (h *Handler) handleTemplatesDelete(ctx *fasthttp.RequestCtx) {
	store := h.matcher.Store()
	if store == nil {
		h.writeError(ctx, fasthttp.StatusNotFound, "Templates are disabled")
		return
	}

	name := string(ctx.QueryArgs().Peek("name"))
	if name == "" {
		h.writeError(ctx, fasthttp.StatusBadRequest, "Query parameter name is required")
		return
	}

	c, cancel := h.requestContext(ctx)
	defer cancel()

	if err := store.Delete(c, name); err != nil {
		h.writeDomainError(ctx, err)
		return
	}
	h.logger.Info("Template deleted", "name", name)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}
