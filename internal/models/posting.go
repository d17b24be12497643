package models

import "time"

// Posting is the read model of a shared survey listing.
type Posting struct {
	ID             string        `json:"id"`
	Course         string        `json:"course"`
	School         string        `json:"school,omitempty"`
	SurveyTitle    string        `json:"survey_title,omitempty"`
	Description    string        `json:"description,omitempty"`
	SurveyLink     string        `json:"survey_link,omitempty"`
	EstimatedTime  EstimatedTime `json:"estimated_time"`
	Submitter      string        `json:"submitter,omitempty"`
	SubmitterEmail string        `json:"submitter_email,omitempty"`
	DateCreated    *time.Time    `json:"date_created,omitempty"`
	DateUpdated    *time.Time    `json:"date_updated,omitempty"`
}

// DisplayTitle falls back to a placeholder for untitled postings.
func (p Posting) DisplayTitle() string {
	if p.SurveyTitle == "" {
		return "Untitled Survey"
	}
	return p.SurveyTitle
}

// DisplayCourse falls back to a placeholder when the course is blank.
func (p Posting) DisplayCourse() string {
	if p.Course == "" {
		return "Uncategorized"
	}
	return p.Course
}

// PostingInput is the body sent to the data API when publishing a survey.
type PostingInput struct {
	SurveyTitle    string `json:"survey_title"`
	Course         string `json:"course"`
	School         string `json:"school"`
	Description    string `json:"description"`
	SurveyLink     string `json:"survey_link"`
	EstimatedTime  string `json:"estimated_time"`
	Submitter      string `json:"submitter"`
	SubmitterEmail string `json:"submitter_email"`
}

// PostingField names the columns autocomplete can group on.
type PostingField string

const (
	PostingFieldSchool PostingField = "school"
	PostingFieldCourse PostingField = "course"
)

// Valid reports whether the field supports suggestions.
func (f PostingField) Valid() bool {
	return f == PostingFieldSchool || f == PostingFieldCourse
}
