package tagging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// maxPromptBytes caps how much content is sent for a suggestion.
const maxPromptBytes = 16 << 10

const systemPrompt = `You label short notes and links for a personal file organizer.
Reply with a JSON array of lowercase single-word or hyphenated tags, most relevant first.`

// generator is the part of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model for tags.
type Gemini struct {
	models  generator
	model   string
	maxTags int
}

// NewGemini creates a Gemini-backed suggester.
func NewGemini(ctx context.Context, apiKey, model string, maxTags int) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("tagging: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("tagging: create genai client: %w", err)
	}
	return newGemini(client.Models, model, maxTags), nil
}

func newGemini(models generator, model string, maxTags int) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	return &Gemini{models: models, model: model, maxTags: maxTags}
}

func (g *Gemini) SuggestTags(ctx context.Context, content string) ([]string, error) {
	if len(content) > maxPromptBytes {
		content = strings.ToValidUTF8(content[:maxPromptBytes], "")
	}
	prompt := fmt.Sprintf("Suggest up to %d tags for this content:\n\n%s", g.maxTags, content)

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.2),
			ResponseMIMEType:  "application/json",
			ResponseSchema: &genai.Schema{
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("tagging: gemini generate: %w", err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(resp.Text()), &tags); err != nil {
		return nil, fmt.Errorf("tagging: decode gemini reply: %w", err)
	}
	return normalize(tags, g.maxTags), nil
}
