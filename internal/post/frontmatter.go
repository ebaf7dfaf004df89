package post

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fmDelimiter = "---"

// Date layouts accepted in front-matter. The first is the canonical
// Jekyll form (date plus UTC offset); the rest are fallbacks seen in
// hand-edited sources.
var dateLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	// ErrNoFrontMatter is returned when a source does not start with a
	// front-matter delimiter. Front-matter must precede the body.
	ErrNoFrontMatter = errors.New("post source has no front-matter block")
	// ErrUnterminatedFrontMatter is returned when the opening delimiter is
	// never closed.
	ErrUnterminatedFrontMatter = errors.New("front-matter block is not terminated")
)

// rawFrontMatter is the YAML-facing shape. Date and categories need custom
// handling (Jekyll date format; categories as either a list or a
// space-separated scalar), so they are decoded loosely and normalized after.
type rawFrontMatter struct {
	Layout     string    `yaml:"layout"`
	Title      string    `yaml:"title"`
	Date       string    `yaml:"date"`
	Author     string    `yaml:"author"`
	Categories yaml.Node `yaml:"categories"`
	Comments   bool      `yaml:"comments"`
}

// ParseSource splits a post source into its front-matter and markdown body.
// The front-matter must open on the first line with "---" and close with a
// matching "---" line; everything after the closing delimiter is the body,
// preserved verbatim.
func ParseSource(src string) (FrontMatter, string, error) {
	var fm FrontMatter
	normalized := strings.ReplaceAll(src, "\r\n", "\n")
	if !strings.HasPrefix(normalized, fmDelimiter+"\n") && strings.TrimSpace(normalized) != fmDelimiter {
		return fm, "", ErrNoFrontMatter
	}
	rest := strings.TrimPrefix(normalized, fmDelimiter+"\n")

	var block, body string
	switch {
	case strings.HasPrefix(rest, fmDelimiter+"\n"):
		// empty front-matter block
		body = rest[len(fmDelimiter)+1:]
	case strings.TrimRight(rest, "\n") == fmDelimiter:
		// empty block, empty body
	default:
		idx := strings.Index(rest, "\n"+fmDelimiter+"\n")
		if idx >= 0 {
			block = rest[:idx]
			body = rest[idx+len(fmDelimiter)+2:]
		} else if strings.HasSuffix(strings.TrimRight(rest, "\n"), "\n"+fmDelimiter) {
			block = strings.TrimSuffix(strings.TrimRight(rest, "\n"), "\n"+fmDelimiter)
		} else {
			return fm, "", ErrUnterminatedFrontMatter
		}
	}

	var raw rawFrontMatter
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return fm, "", fmt.Errorf("parse front-matter: %w", err)
	}

	fm.Layout = raw.Layout
	fm.Title = raw.Title
	fm.Author = raw.Author
	fm.Comments = raw.Comments

	if raw.Date != "" {
		d, err := parseDate(raw.Date)
		if err != nil {
			return fm, "", fmt.Errorf("parse front-matter date %q: %w", raw.Date, err)
		}
		fm.Date = d
	}
	cats, err := parseCategories(&raw.Categories)
	if err != nil {
		return fm, "", fmt.Errorf("parse front-matter categories: %w", err)
	}
	fm.Categories = cats
	return fm, body, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseCategories accepts both YAML forms Jekyll tolerates:
//
//	categories: [r, deep-learning]
//	categories: r deep-learning
func parseCategories(n *yaml.Node) ([]string, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	switch n.Kind {
	case yaml.SequenceNode:
		var out []string
		if err := n.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return strings.Fields(s), nil
	default:
		return nil, fmt.Errorf("unsupported categories node kind %d", n.Kind)
	}
}

// Source serializes the post back into its canonical front-matter + body
// form. Parsing the result yields an equivalent post.
func (p *Post) Source() string {
	var b strings.Builder
	b.WriteString(fmDelimiter + "\n")
	fm := p.FrontMatter
	writeField := func(k, v string) {
		if v != "" {
			b.WriteString(k + ": " + v + "\n")
		}
	}
	writeField("layout", fm.Layout)
	writeField("title", quoteIfNeeded(fm.Title))
	if !fm.Date.IsZero() {
		writeField("date", fm.Date.Format(dateLayouts[0]))
	}
	writeField("author", quoteIfNeeded(fm.Author))
	if len(fm.Categories) > 0 {
		writeField("categories", "["+strings.Join(fm.Categories, ", ")+"]")
	}
	if fm.Comments {
		writeField("comments", "true")
	}
	b.WriteString(fmDelimiter + "\n")
	b.WriteString(p.Body)
	return b.String()
}

// quoteIfNeeded wraps scalars that YAML would otherwise misread.
func quoteIfNeeded(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// SortByDateDesc orders posts newest-first, the listing order of the site.
func SortByDateDesc(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].FrontMatter.Date.After(posts[j].FrontMatter.Date)
	})
}
