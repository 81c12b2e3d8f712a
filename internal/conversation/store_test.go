package conversation_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/navigatorhq/navigator/internal/conversation"
	"github.com/navigatorhq/navigator/internal/testutil"
)

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := conversation.NewStore(db.Pool)

	convA := uuid.New()
	convB := uuid.New()
	sources := json.RawMessage(`[{"source":"course/doc.txt","chunk_id":0,"score":0.91}]`)

	exchanges := []conversation.Exchange{
		{ConversationID: convA, UserID: "user-1", UserEmail: "one@example.com",
			UserText: "How do I renew?", AssistantText: "Every two years.",
			Sources: sources, RAGEnabled: true},
		{ConversationID: convA, UserID: "user-1", UserEmail: "one@example.com",
			UserText: "Where is the form?", AssistantText: "On the portal."},
		{ConversationID: convB, UserID: "user-2",
			UserText: "Hello", AssistantText: "Hi!"},
	}
	for i, ex := range exchanges {
		if err := store.AppendExchange(ctx, ex); err != nil {
			t.Fatalf("AppendExchange %d: %v", i, err)
		}
	}

	t.Run("list by conversation in chronological order", func(t *testing.T) {
		messages, err := store.ListByConversation(ctx, convA, 50)
		if err != nil {
			t.Fatalf("ListByConversation: %v", err)
		}
		if len(messages) != 4 {
			t.Fatalf("conversation A = %d messages, want 4 (two exchanges)", len(messages))
		}

		wantRoles := []string{"user", "assistant", "user", "assistant"}
		for i, m := range messages {
			if m.Role != wantRoles[i] {
				t.Errorf("message %d role = %q, want %q", i, m.Role, wantRoles[i])
			}
			if m.ConversationID != convA {
				t.Errorf("message %d conversation = %v", i, m.ConversationID)
			}
		}
		if messages[0].Content != "How do I renew?" {
			t.Errorf("first message = %q, want oldest first", messages[0].Content)
		}

		// Citations and the retrieval flag land on the assistant row.
		if !messages[1].RAGEnabled {
			t.Error("assistant message lost rag_enabled flag")
		}
		var cites []map[string]any
		if err := json.Unmarshal(messages[1].Sources, &cites); err != nil || len(cites) != 1 {
			t.Errorf("assistant sources = %s, err %v", messages[1].Sources, err)
		}
	})

	t.Run("list by user across conversations", func(t *testing.T) {
		messages, err := store.ListByUser(ctx, "user-1", 50)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(messages) != 4 {
			t.Fatalf("user-1 = %d messages, want 4", len(messages))
		}
		for _, m := range messages {
			if m.UserID != "user-1" {
				t.Errorf("foreign message in user listing: %v", m.UserID)
			}
		}
		// Most recent first.
		for i := 1; i < len(messages); i++ {
			if messages[i].CreatedAt.After(messages[i-1].CreatedAt) {
				t.Error("user listing not in reverse-chronological order")
			}
		}
	})

	t.Run("limit caps results", func(t *testing.T) {
		messages, err := store.ListByConversation(ctx, convA, 2)
		if err != nil {
			t.Fatalf("ListByConversation: %v", err)
		}
		if len(messages) != 2 {
			t.Errorf("limited listing = %d messages, want 2", len(messages))
		}
	})

	t.Run("unknown conversation is empty not error", func(t *testing.T) {
		messages, err := store.ListByConversation(ctx, uuid.New(), 50)
		if err != nil {
			t.Fatalf("ListByConversation: %v", err)
		}
		if len(messages) != 0 {
			t.Errorf("unknown conversation = %d messages, want 0", len(messages))
		}
	})
}
