package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mcpexec-agent-bridge",
	})
}

func (b *Bridge) handleModels(model string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": model, "object": "model", "created": nowUnix(), "owned_by": "mcpexec"},
			},
		})
	}
}

func (b *Bridge) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := validateChatRequest(req); err != nil {
		status := http.StatusBadRequest
		if ve, ok := err.(*validationError); ok {
			status = ve.status
		}
		jsonError(w, status, err.Error())
		return
	}

	sse, err := newSSEWriter(w, "chatcmpl-"+shortID(), req.Model, nowUnix())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	b.run(r.Context(), req, sse)
}

func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{
		"error": map[string]string{"message": message},
	})
}

func shortID() string {
	return uuid.NewString()
}
