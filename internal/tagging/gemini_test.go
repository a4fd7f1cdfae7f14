package tagging

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	reply  string
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(f.reply, genai.RoleModel),
		}},
	}, nil
}

func TestGeminiSuggest(t *testing.T) {
	fake := &fakeModels{reply: `["Finance", "#taxes", "finance", "2024", "extra"]`}
	g := newGemini(fake, "", 3)

	got, err := g.SuggestTags(context.Background(), "my tax return")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"finance", "taxes", "2024"}
	if !slices.Equal(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
	if fake.model != defaultGeminiModel {
		t.Errorf("model = %q", fake.model)
	}
	if !strings.Contains(fake.prompt, "my tax return") {
		t.Errorf("prompt = %q", fake.prompt)
	}
	if fake.config == nil || fake.config.ResponseMIMEType != "application/json" {
		t.Error("expected a JSON response config")
	}
}

func TestGeminiErrors(t *testing.T) {
	g := newGemini(&fakeModels{err: errors.New("quota")}, "m", 3)
	if _, err := g.SuggestTags(context.Background(), "x"); err == nil {
		t.Error("expected generate error")
	}

	g = newGemini(&fakeModels{reply: "not json"}, "m", 3)
	if _, err := g.SuggestTags(context.Background(), "x"); err == nil {
		t.Error("expected decode error")
	}
}

func TestGeminiTruncatesPrompt(t *testing.T) {
	fake := &fakeModels{reply: `[]`}
	g := newGemini(fake, "m", 3)
	if _, err := g.SuggestTags(context.Background(), strings.Repeat("a", maxPromptBytes*2)); err != nil {
		t.Fatal(err)
	}
	if len(fake.prompt) > maxPromptBytes+200 {
		t.Errorf("prompt length = %d", len(fake.prompt))
	}
}
