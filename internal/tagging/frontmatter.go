package tagging

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var hashtagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// splitFrontmatter separates a leading YAML block (between --- lines) from
// the rest of the text. Text without a valid block is returned unchanged.
func splitFrontmatter(text string) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft([]byte(text), "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, text
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, text
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, text
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

// explicitTags collects the frontmatter "tags" list (or comma separated
// string) followed by inline #hashtags.
func explicitTags(fm map[string]any, body string) []string {
	var out []string
	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = append(out, strings.Split(v, ",")...)
	}
	for _, m := range hashtagRe.FindAllStringSubmatch(body, -1) {
		out = append(out, m[1])
	}
	return out
}
