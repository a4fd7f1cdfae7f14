// Package tagging suggests tags for file content.
package tagging

import (
	"context"
	"fmt"
	"strings"
)

// Providers accepted by New.
const (
	ProviderLocal  = "local"
	ProviderGemini = "gemini"
)

// DefaultMaxTags bounds a suggestion list when no limit is configured.
const DefaultMaxTags = 5

// Suggester proposes tags for a piece of content. Callers treat errors as opaque.
type Suggester interface {
	SuggestTags(ctx context.Context, content string) ([]string, error)
}

// Options selects and configures a Suggester.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	MaxTags  int
}

// New builds the suggester named by opts.Provider. An empty provider means local.
func New(ctx context.Context, opts Options) (Suggester, error) {
	if opts.MaxTags <= 0 {
		opts.MaxTags = DefaultMaxTags
	}
	switch opts.Provider {
	case "", ProviderLocal:
		return NewLocal(opts.MaxTags), nil
	case ProviderGemini:
		return NewGemini(ctx, opts.APIKey, opts.Model, opts.MaxTags)
	default:
		return nil, fmt.Errorf("tagging: unknown provider %q", opts.Provider)
	}
}

// normalize lowercases, trims '#' and punctuation, and drops duplicates and
// empty entries, keeping at most limit tags.
func normalize(tags []string, limit int) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.Trim(strings.TrimSpace(t), "#.,;:!?\"'"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
