package chat

import (
	"strings"
	"testing"

	"github.com/navigatorhq/navigator/internal/rag"
)

func TestSystemPromptRoleFragments(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleInstructor, "Instructor"},
		{RoleStaff, "Internal Staff"},
		{RoleAdmin, "Administrator"},
		{RoleGeneral, "general user"},
		{Role("unknown"), "general user"},
	}
	for _, tt := range tests {
		got := SystemPrompt(tt.role, false)
		if !strings.Contains(got, tt.want) {
			t.Errorf("SystemPrompt(%v) missing %q", tt.role, tt.want)
		}
		if !strings.Contains(got, "Learning Navigator") {
			t.Errorf("SystemPrompt(%v) missing base prompt", tt.role)
		}
	}
}

func TestSystemPromptCitationGuidanceOnlyWithContext(t *testing.T) {
	without := SystemPrompt(RoleGeneral, false)
	if strings.Contains(without, "provided documents") {
		t.Error("citation guidance present without context")
	}

	with := SystemPrompt(RoleGeneral, true)
	if !strings.Contains(with, "provided documents") {
		t.Error("citation guidance missing despite context")
	}
}

func TestUserTurnWithoutContext(t *testing.T) {
	if got := UserTurn("How do I renew?", nil); got != "How do I renew?" {
		t.Errorf("UserTurn without context = %q, want message unchanged", got)
	}
}

func TestUserTurnEnumeratesDocuments(t *testing.T) {
	retrieved := rag.Context{
		{Text: "Renewal happens every two years.", Source: "a.txt", Ordinal: 0},
		{Text: "Forms are on the portal.", Source: "b.txt", Ordinal: 3},
	}

	got := UserTurn("How do I renew?", retrieved)

	if !strings.Contains(got, "Document 1:\nRenewal happens every two years.") {
		t.Error("first document not enumerated")
	}
	if !strings.Contains(got, "Document 2:\nForms are on the portal.") {
		t.Error("second document not enumerated")
	}
	if !strings.Contains(got, "User Question: How do I renew?") {
		t.Error("user question not embedded")
	}
	if !strings.Contains(got, "don't contain relevant information") {
		t.Error("insufficiency instruction missing")
	}
}

func TestFallbackIsDeterministicAndRoleFlavored(t *testing.T) {
	tests := []struct {
		role       Role
		salutation string
	}{
		{RoleInstructor, "Hello Instructor!"},
		{RoleStaff, "Hello Staff Member!"},
		{RoleAdmin, "Hello Admin!"},
		{RoleGeneral, "Hello there!"},
		{Role("unknown"), "Hello there!"},
	}
	for _, tt := range tests {
		first := Fallback(tt.role)
		if !strings.HasPrefix(first, tt.salutation) {
			t.Errorf("Fallback(%v) = %q, want prefix %q", tt.role, first, tt.salutation)
		}
		if second := Fallback(tt.role); second != first {
			t.Errorf("Fallback(%v) not deterministic", tt.role)
		}
		if !strings.Contains(first, "technical difficulties") {
			t.Errorf("Fallback(%v) missing outage explanation", tt.role)
		}
	}
}
