package handler

import (
	"html/template"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/pkg/seo"
)

const (
	siteName        = "TheSurve"
	homeTitle       = "TheSurve | Every Student Deserves Quality Research Data"
	homeDescription = "TheSurve connects student researchers with willing participants. Share your survey, collect quality data, and help fellow students succeed in their research journey."
	siteKeywords    = "student research, survey, academic research, research participants"
)

// layout carries what the shared head and foot templates read.
type layout struct {
	Title     string
	Meta      []seo.Tag
	Canonical string
	Flash     string
	Script    string
}

type homeView struct {
	layout
	Search   string
	FeedURL  string
	Cards    []dto.PostingCard
	HasMore  bool
	MoreURL  string
	Error    string
	RetryURL string
}

type shareLink struct {
	Platform string
	Label    string
	URL      string
}

type postingView struct {
	layout
	Posting       models.Posting
	Description   template.HTML
	EstimatedTime string
	Share         []shareLink
	Related       []dto.PostingCard
	ReportURL     string
}

type postFormView struct {
	layout
	Form           dto.CreatePostingRequest
	Errors         map[string]string
	Notice         string
	EstimatedTimes []dto.EstimatedTimeOption
}

type reportFormView struct {
	layout
	Posting models.Posting
	Form    dto.CreateReportRequest
	Errors  map[string]string
	Notice  string
}

type notFoundView struct {
	layout
	Heading string
	Message string
}

type errorView struct {
	layout
	Message   string
	Path      string
	RequestID string
}

// shareLinks builds the social share URLs for an absolute page URL.
func shareLinks(pageURL, title string) []shareLink {
	u := url.QueryEscape(pageURL)
	return []shareLink{
		{Platform: "facebook", Label: "Facebook", URL: "https://www.facebook.com/sharer/sharer.php?u=" + u},
		{Platform: "twitter", Label: "Twitter", URL: "https://twitter.com/intent/tweet?url=" + u + "&text=" + url.QueryEscape(title)},
		{Platform: "linkedin", Label: "LinkedIn", URL: "https://www.linkedin.com/sharing/share-offsite/?url=" + u},
	}
}

// homeURL links to the home page showing pages accumulated pages for search.
func homeURL(search string, pages int) string {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if pages > 1 {
		q.Set("pages", strconv.Itoa(pages))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

func queryInt(c *gin.Context, key string, fallback, min, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
