package post

import "time"

// FrontMatter is the metadata block preceding a post body. Keys match the
// Jekyll-style front-matter used in post sources.
type FrontMatter struct {
	Layout     string    `json:"layout" bson:"layout"`
	Title      string    `json:"title" bson:"title"`
	Date       time.Time `json:"date" bson:"date"`
	Author     string    `json:"author" bson:"author"`
	Categories []string  `json:"categories" bson:"categories"`
	Comments   bool      `json:"comments" bson:"comments"`
}

// Post is the persistent model for a blog post. Body holds the raw markdown
// exactly as authored; block order inside it is reading order and the service
// never reorders it.
type Post struct {
	ID          string      `json:"id" bson:"_id,omitempty"`
	Slug        string      `json:"slug" bson:"slug"`
	FrontMatter FrontMatter `json:"frontMatter" bson:"frontMatter"`
	Body        string      `json:"body,omitempty" bson:"body,omitempty"`
	Draft       bool        `json:"draft" bson:"draft"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Published reports whether the post may be served on its public permalink.
func (p *Post) Published() bool { return !p.Draft }
