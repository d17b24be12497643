package repository

import (
	"context"

	"github.com/noah-isme/thesurve-web/internal/models"
)

// ReportRepository files reports through the data API.
type ReportRepository struct {
	client     ItemsClient
	collection string
}

// NewReportRepository instantiates the repository.
func NewReportRepository(client ItemsClient, collection string) *ReportRepository {
	return &ReportRepository{client: client, collection: collection}
}

// Create files a report. The API decides whether the referenced posting exists.
func (r *ReportRepository) Create(ctx context.Context, input models.ReportInput) (*models.Report, error) {
	var created models.Report
	if err := r.client.CreateItem(ctx, r.collection, input, &created); err != nil {
		return nil, writeError(err, "could not submit report")
	}
	return &created, nil
}
