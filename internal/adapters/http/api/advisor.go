package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/zerodeadline/internal/adapters/llm"
)

// AdvisorHandler serves LLM-backed advice and chat.
type AdvisorHandler struct {
	deps AdvisorDependencies
}

// NewAdvisorHandler creates a new advisor handler.
func NewAdvisorHandler(deps AdvisorDependencies) *AdvisorHandler {
	return &AdvisorHandler{deps: deps}
}

type adviceRequest struct {
	Context string `json:"context"`
}

// HandleAdvice handles POST /api/advice. A failure after retries is 502;
// a missing API key is 503.
func (h *AdvisorHandler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		fail(w, err)
		return
	}
	advice, err := h.deps.Advise(r.Context(), req.Context)
	if err != nil {
		fail(w, upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

type chatRequest struct {
	History  llm.Conversation `json:"history"`
	Question string           `json:"question"`
}

type chatResponse struct {
	History llm.Conversation `json:"history"`
	Error   string           `json:"error,omitempty"`
}

// HandleChat handles POST /api/chat. The transcript is owned by the client
// and sent back with every question. A failed answer still returns 200 with
// an apology turn and the error text.
func (h *AdvisorHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(w, err)
		return
	}
	conv, err := h.deps.Chat(r.Context(), req.History, req.Question)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, chatResponse{History: conv})
	case errors.Is(err, llm.ErrEmptyQuestion):
		fail(w, err)
	case len(conv) == 0:
		fail(w, err)
	default:
		writeJSON(w, http.StatusOK, chatResponse{History: conv, Error: err.Error()})
	}
}

// upstream marks external failures as 502 unless they already have a
// more specific status.
func upstream(err error) error {
	if status, _ := classify(err); status != http.StatusInternalServerError {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
