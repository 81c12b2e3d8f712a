package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// ErrGenerationUnavailable indicates the generation backend failed or
// returned nothing usable. The orchestrator converts it into the fallback
// reply; it never reaches the end user.
var ErrGenerationUnavailable = errors.New("generation backend unavailable")

// Turn is one prior exchange message passed as conversation history.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// Request is a single generation invocation.
type Request struct {
	System   string
	History  []Turn
	UserText string
}

// Generator invokes a language-generation capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Default sampling parameters, applied when GeneratorConfig leaves them
// zero. Fixed per process so replies are comparably sampled across turns.
const (
	DefaultTemperature     float32 = 0.7
	DefaultTopP            float32 = 0.9
	DefaultMaxOutputTokens int32   = 2048
)

// GeneratorConfig configures a GenkitGenerator. ModelName must be
// provider-qualified (e.g. "googleai/gemini-2.5-flash").
type GeneratorConfig struct {
	ModelName       string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
}

// GenkitGenerator implements Generator on a Genkit model.
type GenkitGenerator struct {
	genkit *genkit.Genkit
	cfg    GeneratorConfig
}

// NewGenkitGenerator creates a GenkitGenerator. Zero sampling fields in
// cfg fall back to the package defaults.
func NewGenkitGenerator(g *genkit.Genkit, cfg GeneratorConfig) *GenkitGenerator {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = DefaultTopP
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return &GenkitGenerator{genkit: g, cfg: cfg}
}

// Generate runs one model invocation with the fixed sampling parameters.
func (g *GenkitGenerator) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]*ai.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		if turn.Role == "assistant" {
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Text)))
		} else {
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Text)))
		}
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(req.UserText)))

	resp, err := genkit.Generate(ctx, g.genkit,
		ai.WithModelName(g.cfg.ModelName),
		ai.WithSystem(req.System),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(g.cfg.Temperature),
			TopP:            genai.Ptr(g.cfg.TopP),
			MaxOutputTokens: g.cfg.MaxOutputTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: model returned empty response", ErrGenerationUnavailable)
	}

	return text, nil
}
