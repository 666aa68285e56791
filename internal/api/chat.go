package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Responder is the conversational dependency of the chat endpoint.
type Responder interface {
	Respond(ctx context.Context, message string) (string, error)
}

type chatHandler struct {
	assistant Responder
	logger    *slog.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// send handles POST /api/v1/chat: one user message in, one assistant reply
// out. No session state lives server-side.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", h.logger)
		return
	}

	reply, err := h.assistant.Respond(r.Context(), req.Message)
	if err != nil {
		writeCoreError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply}, h.logger)
}
