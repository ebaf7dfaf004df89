package post

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// md is the shared converter. goldmark converters are stateless after
// construction, so a single instance serves all renders and keeps output
// deterministic: identical source always yields identical HTML.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithUnsafe()),
)

// RenderBody converts the post body markdown to an HTML fragment.
func RenderBody(body string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderPage assembles the full HTML page for a post. The page <title> is
// the front-matter title and the body fragment keeps the source's section
// order.
func RenderPage(p *Post) (string, error) {
	fragment, err := RenderBody(p.Body)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + escape(p.FrontMatter.Title) + "</title>\n")
	b.WriteString("</head>\n<body>\n<article>\n")
	b.WriteString("<h1>" + escape(p.FrontMatter.Title) + "</h1>\n")
	if !p.FrontMatter.Date.IsZero() || p.FrontMatter.Author != "" {
		b.WriteString("<p class=\"meta\">")
		if !p.FrontMatter.Date.IsZero() {
			b.WriteString(p.FrontMatter.Date.Format("Jan 2, 2006"))
		}
		if p.FrontMatter.Author != "" {
			if !p.FrontMatter.Date.IsZero() {
				b.WriteString(" &middot; ")
			}
			b.WriteString(escape(p.FrontMatter.Author))
		}
		b.WriteString("</p>\n")
	}
	b.WriteString(fragment)
	b.WriteString("</article>\n</body>\n</html>\n")
	return b.String(), nil
}

func escape(s string) string { return html.EscapeString(s) }

// Heading is a heading occurrence in body order.
type Heading struct {
	Level int
	Text  string
}

// Headings walks the markdown AST and returns all headings in reading order.
func Headings(body string) []Heading {
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			out = append(out, Heading{Level: h.Level, Text: string(nodeText(h, src))})
		}
		return ast.WalkContinue, nil
	})
	return out
}

// Link is a link or image destination found in the body.
type Link struct {
	Destination string
	Image       bool
}

// Links returns every link and image destination in the body, in reading
// order, duplicates included.
func Links(body string) []Link {
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))
	var out []Link
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			out = append(out, Link{Destination: string(v.Destination)})
		case *ast.Image:
			out = append(out, Link{Destination: string(v.Destination), Image: true})
		case *ast.AutoLink:
			out = append(out, Link{Destination: string(v.URL(src))})
		}
		return ast.WalkContinue, nil
	})
	return out
}

func nodeText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.Write(nodeText(c, src))
	}
	return buf.Bytes()
}
