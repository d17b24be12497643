package dto

import (
	"strings"

	"github.com/noah-isme/thesurve-web/internal/models"
)

// CreateReportRequest is the report form body. ReportedPosting comes from the
// URL, not the form.
type CreateReportRequest struct {
	ReporterName      string `form:"reporter_name" json:"reporter_name" validate:"required"`
	ReporterEmail     string `form:"reporter_email" json:"reporter_email" validate:"required,email"`
	ReportDescription string `form:"report_description" json:"report_description" validate:"min=10"`
	ReportedPosting   string `form:"-" json:"reported_posting" validate:"required,uuid"`
}

// Normalize trims user input.
func (r *CreateReportRequest) Normalize() {
	r.ReporterName = strings.TrimSpace(r.ReporterName)
	r.ReporterEmail = strings.TrimSpace(r.ReporterEmail)
	r.ReportDescription = strings.TrimSpace(r.ReportDescription)
	r.ReportedPosting = strings.TrimSpace(r.ReportedPosting)
}

// Input converts the request to the data API body with a pending status.
func (r CreateReportRequest) Input() models.ReportInput {
	return models.ReportInput{
		Status:            models.ReportStatusPending,
		ReporterName:      r.ReporterName,
		ReporterEmail:     r.ReporterEmail,
		ReportDescription: r.ReportDescription,
		ReportedPosting:   r.ReportedPosting,
	}
}
