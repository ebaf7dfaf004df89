package post

import (
	"fmt"
	"strings"
)

// Violation is a single structural problem found in a post source.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string { return v.Field + ": " + v.Message }

// Lint runs the editorial checks a post must pass before it is accepted:
// required front-matter fields, balanced fenced code blocks, and a heading
// hierarchy without skipped levels. It returns every violation found, not
// just the first.
func Lint(fm FrontMatter, body string) []Violation {
	var vs []Violation

	if fm.Layout == "" {
		vs = append(vs, Violation{Field: "layout", Message: "required front-matter field is missing"})
	}
	if fm.Title == "" {
		vs = append(vs, Violation{Field: "title", Message: "required front-matter field is missing"})
	}
	if fm.Date.IsZero() {
		vs = append(vs, Violation{Field: "date", Message: "required front-matter field is missing"})
	}
	if fm.Author == "" {
		vs = append(vs, Violation{Field: "author", Message: "required front-matter field is missing"})
	}
	if len(fm.Categories) == 0 {
		vs = append(vs, Violation{Field: "categories", Message: "required front-matter field is missing"})
	}

	if line, ok := unbalancedFence(body); !ok {
		vs = append(vs, Violation{Field: "body", Message: fmt.Sprintf("fenced code block opened at line %d is never closed", line)})
	}

	vs = append(vs, headingSkips(body)...)
	return vs
}

// unbalancedFence scans the raw source line by line. The parser cannot
// report this: an unterminated fence simply swallows the rest of the
// document, which is precisely the authoring mistake we want to name.
func unbalancedFence(body string) (openLine int, ok bool) {
	var open bool
	var marker string
	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") && !strings.HasPrefix(trimmed, "~~~") {
			continue
		}
		m := trimmed[:3]
		if !open {
			open = true
			marker = m
			openLine = i + 1
			continue
		}
		// a closing fence must use the opening marker and carry no info string
		if m == marker && strings.Trim(trimmed, string(m[0])) == "" {
			open = false
		}
	}
	return openLine, !open
}

// headingSkips reports headings that jump more than one level deeper than
// the previous heading (for example h2 directly to h4).
func headingSkips(body string) []Violation {
	var vs []Violation
	prev := 0
	for _, h := range Headings(body) {
		if prev > 0 && h.Level > prev+1 {
			vs = append(vs, Violation{
				Field:   "body",
				Message: fmt.Sprintf("heading %q skips from level %d to %d", h.Text, prev, h.Level),
			})
		}
		prev = h.Level
	}
	return vs
}
