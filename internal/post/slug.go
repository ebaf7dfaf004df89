package post

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify lowercases the title and collapses every non-alphanumeric run into
// a single hyphen, Jekyll style.
func Slugify(title string) string {
	var b strings.Builder
	prevHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevHyphen = false
			continue
		}
		if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// PermalinkPath returns the public path for a post: /:year/:month/:day/:slug.
// Posts without a date fall back to a flat /:slug path.
func (p *Post) PermalinkPath() string {
	d := p.FrontMatter.Date
	if d.IsZero() {
		return "/" + p.Slug
	}
	return fmt.Sprintf("/%04d/%02d/%02d/%s", d.Year(), int(d.Month()), d.Day(), p.Slug)
}
