package httpapi

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes data as the JSON body with the given status.
func (h *Handler) writeJSON(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Error marshaling JSON response", "error", err)
		h.writeError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	ctx.SetStatusCode(status)
	ctx.SetBody(response)
}

// writeError writes a JSON error response with the given status.
func (h *Handler) writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		h.logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}

	ctx.SetStatusCode(status)
	ctx.SetBody(response)
}

// decode parses the request body into v, answering 400 on failure.
func (h *Handler) decode(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		h.writeError(ctx, fasthttp.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}
