package tagging

import (
	"context"
	"slices"
	"testing"
)

func TestLocalFrontmatterAndHashtags(t *testing.T) {
	content := "---\ntags: [Finance, taxes]\n---\nNotes for the #2024 return and #receipts\n"
	got, err := NewLocal(5).SuggestTags(context.Background(), content)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"finance", "taxes", "receipts", "notes", "return"}
	if !slices.Equal(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestLocalInvalidFrontmatterIsBody(t *testing.T) {
	content := "---\n: [broken\n---\nplain words words"
	got, err := NewLocal(2).SuggestTags(context.Background(), content)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0] != "words" {
		t.Errorf("tags = %v, want words first", got)
	}
}

func TestLocalLink(t *testing.T) {
	got, err := NewLocal(3).SuggestTags(context.Background(), "https://www.example.co.uk/recipes/bread")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0] != "example" {
		t.Errorf("tags = %v, want example first", got)
	}
}

func TestLocalFrequentWords(t *testing.T) {
	got, err := NewLocal(2).SuggestTags(context.Background(), "garden tomato garden basil tomato garden with that 12345")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"garden", "tomato"}
	if !slices.Equal(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestLocalCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(3).SuggestTags(ctx, "anything"); err == nil {
		t.Error("expected context error")
	}
}

func TestLinkHost(t *testing.T) {
	tests := map[string]string{
		"https://go.dev/doc":           "go",
		"http://localhost:8080/":       "localhost",
		"ftp://example.com/file":       "",
		"not a url":                    "",
		"https://news.ycombinator.com": "ycombinator",
	}
	for in, want := range tests {
		if got := linkHost(in); got != want {
			t.Errorf("linkHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Local); !ok {
		t.Errorf("default provider = %T, want *Local", s)
	}
	if _, err := New(context.Background(), Options{Provider: ProviderGemini}); err == nil {
		t.Error("gemini without api key should fail")
	}
	if _, err := New(context.Background(), Options{Provider: "openai"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
