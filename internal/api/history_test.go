package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/navigatorhq/navigator/internal/conversation"
	"github.com/navigatorhq/navigator/internal/log"
)

// historyServer mounts the history handler on a mux so path values resolve.
func historyServer(store MessageStore) *http.ServeMux {
	h := &historyHandler{store: store, logger: log.NewNop()}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/conversations/{id}/messages", h.byConversation)
	mux.HandleFunc("GET /api/v1/users/{id}/messages", h.byUser)
	return mux
}

func TestHistoryByConversation(t *testing.T) {
	convID := uuid.New()
	store := &fakeStore{messages: []conversation.Message{
		{ID: uuid.New(), ConversationID: convID, UserID: "user-1", Role: "user", Content: "q"},
		{ID: uuid.New(), ConversationID: convID, UserID: "user-1", Role: "assistant", Content: "a"},
		{ID: uuid.New(), ConversationID: uuid.New(), UserID: "user-2", Role: "user", Content: "other"},
	}}
	mux := historyServer(store)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+convID.String()+"/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp messagesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 || len(resp.Messages) != 2 {
		t.Errorf("count = %d, messages = %d, want 2", resp.Count, len(resp.Messages))
	}
}

func TestHistoryByConversationBadID(t *testing.T) {
	mux := historyServer(&fakeStore{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/not-a-uuid/messages", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHistoryByUser(t *testing.T) {
	store := &fakeStore{messages: []conversation.Message{
		{ID: uuid.New(), ConversationID: uuid.New(), UserID: "user-1", Role: "user", Content: "q"},
		{ID: uuid.New(), ConversationID: uuid.New(), UserID: "user-2", Role: "user", Content: "other"},
	}}
	mux := historyServer(store)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp messagesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestHistoryEmptyIsArrayNotNull(t *testing.T) {
	mux := historyServer(&fakeStore{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/nobody/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if string(raw["messages"]) != "[]" {
		t.Errorf("messages = %s, want []", raw["messages"])
	}
}

func TestHistoryStoreFailure(t *testing.T) {
	mux := historyServer(&fakeStore{listErr: errors.New("database gone")})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/messages", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestListLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", defaultListLimit},
		{"?limit=10", 10},
		{"?limit=0", defaultListLimit},
		{"?limit=-5", defaultListLimit},
		{"?limit=junk", defaultListLimit},
		{"?limit=10000", maxListLimit},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
		if got := listLimit(r); got != tt.want {
			t.Errorf("listLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
