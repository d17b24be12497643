package seo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagsArticleWithAuthor(t *testing.T) {
	tags := Tags(Page{Title: "Sleep study | TheSurve", Description: "desc", Author: "Ana", Type: "article"})

	byKey := map[string]string{}
	for _, tag := range tags {
		byKey[tag.Name+tag.Property] = tag.Content
	}
	assert.Equal(t, "article", byKey["og:type"])
	assert.Equal(t, "Ana", byKey["article:author"])
	assert.NotContains(t, byKey, "keywords")
	assert.NotContains(t, byKey, "og:image")
}

func TestTagsDefaultsToWebsite(t *testing.T) {
	tags := Tags(Page{Title: "Home"})
	var found bool
	for _, tag := range tags {
		if tag.Name == "og:type" {
			found = true
			assert.Equal(t, "website", tag.Content)
		}
	}
	assert.True(t, found)
}
