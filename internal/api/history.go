package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/navigatorhq/navigator/internal/conversation"
	"github.com/navigatorhq/navigator/internal/log"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// historyHandler serves the two message access paths: by conversation
// and by user.
type historyHandler struct {
	store  MessageStore
	logger log.Logger
}

// messagesResponse wraps a message list.
type messagesResponse struct {
	Messages []conversation.Message `json:"messages"`
	Count    int                    `json:"count"`
}

// byConversation handles GET /api/v1/conversations/{id}/messages.
// Messages come back in chronological order.
func (h *historyHandler) byConversation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation id must be a UUID", h.logger)
		return
	}

	limit := listLimit(r)
	messages, err := h.store.ListByConversation(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("listing conversation messages failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list messages", h.logger)
		return
	}

	if messages == nil {
		messages = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: messages, Count: len(messages)}, h.logger)
}

// byUser handles GET /api/v1/users/{id}/messages.
// Messages come back most recent first, across all conversations.
func (h *historyHandler) byUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user", "user id is required", h.logger)
		return
	}

	limit := listLimit(r)
	messages, err := h.store.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("listing user messages failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list messages", h.logger)
		return
	}

	if messages == nil {
		messages = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: messages, Count: len(messages)}, h.logger)
}

// listLimit reads the ?limit query parameter, clamped to [1, maxListLimit].
func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
