package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/navigatorhq/navigator/internal/chat"
	"github.com/navigatorhq/navigator/internal/conversation"
	"github.com/navigatorhq/navigator/internal/log"
	"github.com/navigatorhq/navigator/internal/rag"
)

const (
	// maxMessageLength caps the chat message in characters, not bytes.
	maxMessageLength = 5000

	// historyLimit caps how many prior messages are replayed to the model.
	historyLimit = 20
)

// Retriever fetches supporting context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) rag.Context
}

// Responder produces the assistant reply.
type Responder interface {
	Respond(ctx context.Context, userText string, retrieved rag.Context, role chat.Role, history []chat.Turn) string
}

// MessageStore persists and lists chat messages.
type MessageStore interface {
	AppendExchange(ctx context.Context, ex conversation.Exchange) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]conversation.Message, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Message, error)
}

// chatRequest is the POST /api/v1/chat body.
type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// chatResponse is the POST /api/v1/chat response.
type chatResponse struct {
	ConversationID string      `json:"conversation_id"`
	Message        string      `json:"message"`
	Sources        rag.Context `json:"sources"`
	RAGEnabled     bool        `json:"rag_enabled"`
	Timestamp      time.Time   `json:"timestamp"`
}

// identity is the caller identity resolved from upstream-gateway headers.
// Authentication itself happens upstream; this service trusts the headers.
type identity struct {
	UserID string
	Email  string
	Role   chat.Role
}

// identityFromHeaders reads X-User-Id, X-User-Email and X-User-Groups
// (comma-separated). Returns false when no user ID is present.
func identityFromHeaders(r *http.Request) (identity, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return identity{}, false
	}

	var groups []string
	if raw := r.Header.Get("X-User-Groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
	}

	return identity{
		UserID: userID,
		Email:  strings.TrimSpace(r.Header.Get("X-User-Email")),
		Role:   chat.ParseRole(groups),
	}, true
}

// chatHandler handles the chat endpoint and message listing.
type chatHandler struct {
	retriever Retriever
	responder Responder
	store     MessageStore
	logger    log.Logger
}

// send handles POST /api/v1/chat.
//
// Best-effort contract: once the request is well-formed the response is
// always 200. Retrieval failures degrade to an answer without context,
// generation failures degrade to the fallback reply, and persistence
// failures are logged but never surfaced.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", h.logger)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}
	if utf8.RuneCountInString(req.Message) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "message_too_long", "message exceeds 5000 characters", h.logger)
		return
	}

	ident, ok := identityFromHeaders(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", "X-User-Id header is required", h.logger)
		return
	}

	conversationID, isNew, err := resolveConversationID(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation_id must be a UUID", h.logger)
		return
	}

	ctx := r.Context()

	var history []chat.Turn
	if !isNew {
		prior, err := h.store.ListByConversation(ctx, conversationID, historyLimit)
		if err != nil {
			// Degrade to an empty history rather than failing the turn.
			h.logger.Warn("loading conversation history failed",
				"conversation_id", conversationID,
				"error", err)
		}
		for _, m := range prior {
			history = append(history, chat.Turn{Role: m.Role, Text: m.Content})
		}
	}

	retrieved := h.retriever.Retrieve(ctx, req.Message)
	ragEnabled := len(retrieved) > 0

	reply := h.responder.Respond(ctx, req.Message, retrieved, ident.Role, history)

	sources, err := json.Marshal(retrieved)
	if err != nil {
		h.logger.Error("marshaling sources failed", "error", err)
		sources = []byte(`[]`)
	}

	if err := h.store.AppendExchange(ctx, conversation.Exchange{
		ConversationID: conversationID,
		UserID:         ident.UserID,
		UserEmail:      ident.Email,
		UserText:       req.Message,
		AssistantText:  reply,
		Sources:        sources,
		RAGEnabled:     ragEnabled,
	}); err != nil {
		// The user still gets their answer; the gap in history is logged.
		h.logger.Error("persisting exchange failed",
			"conversation_id", conversationID,
			"user_id", ident.UserID,
			"error", err)
	}

	if retrieved == nil {
		retrieved = rag.Context{}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: conversationID.String(),
		Message:        reply,
		Sources:        retrieved,
		RAGEnabled:     ragEnabled,
		Timestamp:      time.Now().UTC(),
	}, h.logger)
}

// resolveConversationID parses the client-supplied conversation ID or
// mints a fresh one when absent.
func resolveConversationID(raw string) (id uuid.UUID, isNew bool, err error) {
	if raw == "" {
		return uuid.New(), true, nil
	}
	id, err = uuid.Parse(raw)
	return id, false, err
}
