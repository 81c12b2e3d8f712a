package chat

import (
	"fmt"
	"strings"

	"github.com/navigatorhq/navigator/internal/rag"
)

// basePrompt is the assistant's standing instruction, independent of role
// and retrieval state.
const basePrompt = `You are Learning Navigator, an AI assistant for a professional training program.

Your purpose is to help users by providing accurate information about courses, resources, and operational guidance.

Guidelines:
- Be helpful, professional, and empathetic
- Provide clear and concise answers
- If you don't know something, say so honestly
- For sensitive topics, recommend contacting support
- Always maintain confidentiality and privacy`

// citationGuidance is appended only when retrieved context exists, so the
// model is never told to cite documents it was not given.
const citationGuidance = `
- When answering, prioritize information from the provided documents
- Cite which document(s) you're referencing (e.g., "According to Document 1...")
- If documents conflict, acknowledge the discrepancy
- If documents are insufficient, say so and provide general guidance`

// rolePrompts maps each role to its focus-area fragment.
var rolePrompts = map[Role]string{
	RoleInstructor: `

Your current user is an Instructor. Focus on:
- Course scheduling and logistics
- Invoicing and payment questions
- Teaching resources and materials
- Certification and recertification information
- Technical support for the learning platform`,
	RoleStaff: `

Your current user is Internal Staff. Focus on:
- Operational processes and procedures
- System troubleshooting and support
- Administrative guidance
- Organizational policies
- Interdepartmental coordination`,
	RoleAdmin: `

Your current user is an Administrator. Focus on:
- System analytics and reporting
- User management and permissions
- Strategic planning support
- Platform configuration
- High-level operational oversight`,
	RoleGeneral: `

Your current user is a general user. Provide:
- General program information
- Course availability
- Basic support
- Guidance on getting started`,
}

// fallbackSalutations flavor the deterministic fallback per role.
var fallbackSalutations = map[Role]string{
	RoleInstructor: "Hello Instructor! ",
	RoleStaff:      "Hello Staff Member! ",
	RoleAdmin:      "Hello Admin! ",
	RoleGeneral:    "Hello there! ",
}

// SystemPrompt builds the system instruction for a role, adding citation
// discipline only when retrieved context will be injected.
func SystemPrompt(role Role, hasContext bool) string {
	prompt := basePrompt
	if hasContext {
		prompt += citationGuidance
	}

	fragment, ok := rolePrompts[role]
	if !ok {
		fragment = rolePrompts[RoleGeneral]
	}
	return prompt + fragment
}

// UserTurn builds the user message. When context is present it is injected
// as enumerated documents with an instruction to cite them and to say so
// explicitly if they are insufficient.
func UserTurn(userText string, retrieved rag.Context) string {
	if len(retrieved) == 0 {
		return userText
	}

	var docs strings.Builder
	for i, citation := range retrieved {
		if i > 0 {
			docs.WriteString("\n\n")
		}
		fmt.Fprintf(&docs, "Document %d:\n%s", i+1, citation.Text)
	}

	return fmt.Sprintf(`Based on the following documents from our knowledge base, please answer the user's question.

Documents:
%s

User Question: %s

Please provide a helpful answer based on the documents above. If the documents don't contain relevant information, let the user know and provide general guidance if possible. Always cite which document(s) you're referring to.`,
		docs.String(), userText)
}

// Fallback is the deterministic, role-flavored reply used when generation
// fails. The user must always receive a response.
func Fallback(role Role) string {
	salutation, ok := fallbackSalutations[role]
	if !ok {
		salutation = fallbackSalutations[RoleGeneral]
	}
	return salutation +
		"I received your message but I'm experiencing technical difficulties connecting to my AI service. " +
		"Please try again in a moment. If the issue persists, contact support."
}
