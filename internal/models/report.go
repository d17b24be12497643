package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ReportStatusPending is the workflow tag new reports start with.
const ReportStatusPending = "pending"

// Report is a complaint filed against a posting.
type Report struct {
	ID                int        `json:"id,omitempty"`
	Status            string     `json:"status,omitempty"`
	ReporterName      string     `json:"reporter_name,omitempty"`
	ReporterEmail     string     `json:"reporter_email,omitempty"`
	ReportDescription string     `json:"report_description,omitempty"`
	ReportedPosting   PostingRef `json:"reported_posting"`
	DateCreated       *time.Time `json:"date_created,omitempty"`
	DateUpdated       *time.Time `json:"date_updated,omitempty"`
}

// PostingRef is either a bare posting id or the embedded posting, depending
// on the fields requested from the API.
type PostingRef struct {
	ID      string
	Posting *Posting
}

// MarshalJSON always writes the id form.
func (r PostingRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts a string id, an embedded object or null.
func (r *PostingRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = PostingRef{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var p Posting
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = PostingRef{ID: p.ID, Posting: &p}
		return nil
	default:
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = PostingRef{ID: id}
		return nil
	}
}

// ReportInput is the body sent to the data API when filing a report.
type ReportInput struct {
	Status            string `json:"status"`
	ReporterName      string `json:"reporter_name"`
	ReporterEmail     string `json:"reporter_email"`
	ReportDescription string `json:"report_description"`
	ReportedPosting   string `json:"reported_posting"`
}
