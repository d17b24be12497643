// Package seo builds the meta tags emitted in page heads.
package seo

// Tag is a single <meta> element. Exactly one of Name or Property is set.
type Tag struct {
	Name     string
	Property string
	Content  string
}

// Page describes what a page wants to advertise.
type Page struct {
	Title       string
	Description string
	Keywords    string
	Image       string
	Author      string
	Type        string
	URL         string
}

// Tags returns the meta tags for p. Empty optional values are skipped.
func Tags(p Page) []Tag {
	ogType := p.Type
	if ogType == "" {
		ogType = "website"
	}
	tags := []Tag{
		{Name: "description", Content: p.Description},
		{Name: "keywords", Content: p.Keywords},
		{Name: "twitter:title", Content: p.Title},
		{Name: "twitter:description", Content: p.Description},
		{Name: "og:type", Content: ogType},
		{Name: "og:title", Content: p.Title},
		{Name: "og:description", Content: p.Description},
	}
	if p.URL != "" {
		tags = append(tags, Tag{Property: "og:url", Content: p.URL})
	}
	if p.Author != "" {
		tags = append(tags,
			Tag{Name: "author", Content: p.Author},
			Tag{Name: "og:author", Content: p.Author},
			Tag{Property: "article:author", Content: p.Author},
		)
	}
	if p.Image != "" {
		tags = append(tags,
			Tag{Name: "twitter:image", Content: p.Image},
			Tag{Name: "twitter:card", Content: "summary_large_image"},
			Tag{Name: "og:image", Content: p.Image},
		)
	}

	out := tags[:0]
	for _, t := range tags {
		if t.Content != "" {
			out = append(out, t)
		}
	}
	return out
}
