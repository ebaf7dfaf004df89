// Package feed builds the RSS 2.0 feed for published posts.
package feed

import (
	"encoding/xml"
	"time"

	"github.com/inkpress/inkpress/internal/post"
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []item `xml:"item"`
}

type item struct {
	Title    string `xml:"title"`
	Link     string `xml:"link"`
	GUID     string `xml:"guid"`
	PubDate  string `xml:"pubDate"`
	Author   string `xml:"author,omitempty"`
	Category []string `xml:"category,omitempty"`
}

// Build renders the feed XML for the given posts. baseURL is the public site
// root without a trailing slash. Posts are expected in date-descending order;
// the feed preserves the order it is given.
func Build(title, baseURL, description string, posts []*post.Post) ([]byte, error) {
	ch := channel{Title: title, Link: baseURL, Description: description}
	for _, p := range posts {
		link := baseURL + p.PermalinkPath()
		ch.Items = append(ch.Items, item{
			Title:    p.FrontMatter.Title,
			Link:     link,
			GUID:     link,
			PubDate:  p.FrontMatter.Date.Format(time.RFC1123Z),
			Author:   p.FrontMatter.Author,
			Category: p.FrontMatter.Categories,
		})
	}
	out, err := xml.MarshalIndent(rss{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
