package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/tokvault-go/internal/core/domain"
)

// handleTokenize handles POST /tokenize.
func (h *Handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	out, err := h.tokenizer.Tokenize(r.Context(), input)
	if err != nil {
		h.writeVaultFailure(w, r, "tokenize", err)
		return
	}

	h.writeBody(w, http.StatusOK, TokenizeResponse{Tokenized: out})
}

// handleDetokenize handles POST /detokenize.
func (h *Handler) handleDetokenize(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	out, err := h.tokenizer.Detokenize(r.Context(), input)
	if err != nil {
		h.writeVaultFailure(w, r, "detokenize", err)
		return
	}

	h.writeBody(w, http.StatusOK, DetokenizeResponse{Detokenized: out})
}

// decodeInput reads a VaultRequest. On failure it has already written a
// 400 (or 413) and returns false.
func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req VaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, domain.ErrBadRequest.Code, "request body too large", nil)
			return "", false
		}
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body", nil)
		return "", false
	}
	if req.Input == nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "input is required", nil)
		return "", false
	}
	return *req.Input, true
}
