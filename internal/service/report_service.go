package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
)

type reportRepository interface {
	Create(ctx context.Context, input models.ReportInput) (*models.Report, error)
}

var reportMessages = fieldMessages{
	"reporter_name":      "Name is required",
	"reporter_email":     "Invalid email address",
	"report_description": "Please provide more details about the issue",
	"reported_posting":   "Unknown survey",
}

// ReportService files reports against postings.
type ReportService struct {
	repo      reportRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportRepository, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, validator: validate, logger: logger}
}

// Submit validates req and files it with status pending.
func (s *ReportService) Submit(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error) {
	req.Normalize()
	if err := validate(s.validator, req, reportMessages); err != nil {
		return nil, err
	}

	report, err := s.repo.Create(ctx, req.Input())
	if err != nil {
		s.logger.Warn("submit report failed", zap.String("posting_id", req.ReportedPosting), zap.Error(err))
		return nil, err
	}
	s.logger.Info("report submitted", zap.String("posting_id", req.ReportedPosting))
	return report, nil
}
