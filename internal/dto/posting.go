package dto

import (
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/pkg/markdown"
)

// DefaultEstimatedTime is preselected on the posting form.
const DefaultEstimatedTime = "0:05:00"

// EstimatedTimeOption is one entry of the completion time select.
type EstimatedTimeOption struct {
	Value string
	Label string
}

// EstimatedTimeOptions lists the completion times a submitter can pick.
var EstimatedTimeOptions = []EstimatedTimeOption{
	{Value: "0:05:00", Label: "5 minutes"},
	{Value: "0:10:00", Label: "10 minutes"},
	{Value: "0:15:00", Label: "15 minutes"},
	{Value: "0:20:00", Label: "20 minutes"},
	{Value: "0:30:00", Label: "30 minutes"},
	{Value: "1:00:00", Label: "1 hour"},
}

// CreatePostingRequest is the POST /post form and JSON body.
type CreatePostingRequest struct {
	SurveyTitle    string `form:"survey_title" json:"survey_title" validate:"required"`
	Course         string `form:"course" json:"course" validate:"required"`
	School         string `form:"school" json:"school" validate:"required"`
	Description    string `form:"description" json:"description" validate:"min=30"`
	SurveyLink     string `form:"survey_link" json:"survey_link" validate:"required,url"`
	EstimatedTime  string `form:"estimated_time" json:"estimated_time" validate:"required,oneof=0:05:00 0:10:00 0:15:00 0:20:00 0:30:00 1:00:00"`
	Submitter      string `form:"submitter" json:"submitter" validate:"required"`
	SubmitterEmail string `form:"submitter_email" json:"submitter_email" validate:"required,email"`
}

// Normalize trims every field and applies the estimated time default.
func (r *CreatePostingRequest) Normalize() {
	r.SurveyTitle = strings.TrimSpace(r.SurveyTitle)
	r.Course = strings.TrimSpace(r.Course)
	r.School = strings.TrimSpace(r.School)
	r.Description = strings.TrimSpace(r.Description)
	r.SurveyLink = strings.TrimSpace(r.SurveyLink)
	r.EstimatedTime = strings.TrimSpace(r.EstimatedTime)
	r.Submitter = strings.TrimSpace(r.Submitter)
	r.SubmitterEmail = strings.TrimSpace(r.SubmitterEmail)
	if r.EstimatedTime == "" {
		r.EstimatedTime = DefaultEstimatedTime
	}
}

// Input converts the request to the data API body.
func (r CreatePostingRequest) Input() models.PostingInput {
	return models.PostingInput{
		SurveyTitle:    r.SurveyTitle,
		Course:         r.Course,
		School:         r.School,
		Description:    r.Description,
		SurveyLink:     r.SurveyLink,
		EstimatedTime:  r.EstimatedTime,
		Submitter:      r.Submitter,
		SubmitterEmail: r.SubmitterEmail,
	}
}

// PostingCard is the listing projection shared by server-rendered pages and
// live feed frames.
type PostingCard struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Course        string `json:"course"`
	School        string `json:"school,omitempty"`
	Excerpt       string `json:"excerpt,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}

const excerptLength = 180

// NewPostingCard projects p for listing.
func NewPostingCard(p models.Posting) PostingCard {
	card := PostingCard{
		ID:     p.ID,
		URL:    "/postings/" + p.ID,
		Title:  p.DisplayTitle(),
		Course: p.DisplayCourse(),
		School: p.School,
	}
	if !p.EstimatedTime.IsZero() {
		card.EstimatedTime = p.EstimatedTime.Short()
	}
	card.Excerpt = excerpt(markdown.PlainText(p.Description), excerptLength)
	return card
}

// NewPostingCards projects a slice in order.
func NewPostingCards(items []models.Posting) []PostingCard {
	cards := make([]PostingCard, 0, len(items))
	for _, p := range items {
		cards = append(cards, NewPostingCard(p))
	}
	return cards
}

func excerpt(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:max]), func(r rune) bool { return r == ' ' || r == '.' || r == ',' })
	return cut + "…"
}
