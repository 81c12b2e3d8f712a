package chat

import (
	"context"
	"time"

	"github.com/navigatorhq/navigator/internal/log"
	"github.com/navigatorhq/navigator/internal/rag"
)

const generateTimeout = 30 * time.Second

// Orchestrator turns a user message plus retrieved context into a reply.
// Generation failures never surface to the caller; the user always gets
// a deterministic role-flavored fallback instead.
type Orchestrator struct {
	generator Generator
	logger    log.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger defaults to a
// no-op logger.
func NewOrchestrator(generator Generator, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{generator: generator, logger: logger}
}

// Respond produces the assistant reply for userText given the retrieved
// context and the caller's role. History carries prior turns of the same
// conversation, oldest first.
func (o *Orchestrator) Respond(ctx context.Context, userText string, retrieved rag.Context, role Role, history []Turn) string {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	req := Request{
		System:   SystemPrompt(role, len(retrieved) > 0),
		History:  history,
		UserText: UserTurn(userText, retrieved),
	}

	reply, err := o.generator.Generate(ctx, req)
	if err != nil {
		o.logger.Warn("generation failed, using fallback",
			"role", string(role),
			"error", err)
		return Fallback(role)
	}

	return reply
}
