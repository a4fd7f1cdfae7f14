package tagging

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strings"
	"unicode"
)

const minWordLen = 4

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "been": {}, "before": {},
	"being": {}, "could": {}, "does": {}, "each": {}, "from": {}, "have": {},
	"here": {}, "http": {}, "https": {}, "into": {}, "just": {}, "like": {},
	"make": {}, "more": {}, "most": {}, "much": {}, "must": {}, "only": {},
	"other": {}, "over": {}, "same": {}, "should": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "very": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "will": {},
	"with": {}, "would": {}, "your": {}, "www": {},
}

// Local suggests tags without network access: explicit frontmatter and
// #hashtags first, then the host of a link, then the most frequent words.
type Local struct {
	maxTags int
}

// NewLocal returns a Local suggester that returns at most maxTags tags.
func NewLocal(maxTags int) *Local {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	return &Local{maxTags: maxTags}
}

func (l *Local) SuggestTags(ctx context.Context, content string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fm, body := splitFrontmatter(content)
	candidates := explicitTags(fm, body)
	if host := linkHost(body); host != "" {
		candidates = append(candidates, host)
	}
	candidates = append(candidates, frequentWords(body)...)
	return normalize(candidates, l.maxTags), nil
}

// linkHost returns the second-level name of a URL body ("go.dev" -> "go",
// "www.example.co.uk" -> "example").
func linkHost(body string) string {
	u, err := url.Parse(strings.TrimSpace(body))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	labels := strings.Split(strings.TrimPrefix(u.Hostname(), "www."), ".")
	if len(labels) == 1 {
		return labels[0]
	}
	name := labels[len(labels)-2]
	if len(labels) > 2 && len(name) <= 3 {
		name = labels[len(labels)-3]
	}
	return name
}

// frequentWords ranks words by count, ties broken by first appearance.
func frequentWords(body string) []string {
	words := strings.FieldsFunc(strings.ToLower(body), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	type entry struct {
		word  string
		count int
		first int
	}
	idx := make(map[string]int)
	var entries []entry
	for i, w := range words {
		if len([]rune(w)) < minWordLen || isNumber(w) {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if j, ok := idx[w]; ok {
			entries[j].count++
			continue
		}
		idx[w] = len(entries)
		entries = append(entries, entry{word: w, count: 1, first: i})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.word
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
