package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

type postingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Posting, error)
	Related(ctx context.Context, p models.Posting, limit int) ([]models.Posting, error)
	Create(ctx context.Context, input models.PostingInput) (*models.Posting, error)
}

// postingDetailTTL bounds how long a posting hidden by moderation can still
// be served from cache.
const postingDetailTTL = 30 * time.Second

var postingMessages = fieldMessages{
	"survey_title":    "Title is required",
	"course":          "Course is required",
	"school":          "School is required",
	"description":     "Please provide a detailed description (minimum 30 characters)",
	"survey_link":     "Must be a valid URL",
	"submitter_email": "Must be a valid email",
	"estimated_time":  "Please select estimated completion time",
	"submitter":       "Name is required",
}

// PostingService serves posting detail and publication.
type PostingService struct {
	repo         postingRepository
	cache        *CacheService
	validator    *validator.Validate
	relatedLimit int
	logger       *zap.Logger
}

// NewPostingService constructs a PostingService.
func NewPostingService(repo postingRepository, cache *CacheService, validate *validator.Validate, relatedLimit int, logger *zap.Logger) *PostingService {
	if validate == nil {
		validate = NewValidator()
	}
	if relatedLimit <= 0 {
		relatedLimit = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingService{repo: repo, cache: cache, validator: validate, relatedLimit: relatedLimit, logger: logger}
}

// Get returns a posting. Malformed ids, hidden and missing postings all
// produce the same not-found error.
func (s *PostingService) Get(ctx context.Context, id string) (*models.Posting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
	}
	posting, err := cachedFor(ctx, s.cache, "posting:"+id, postingDetailTTL, func() (*models.Posting, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, err
	}
	return posting, nil
}

// Related lists postings similar to p. Failures are logged and yield an empty
// list so the detail page still renders.
func (s *PostingService) Related(ctx context.Context, p models.Posting) []models.Posting {
	related, err := cached(ctx, s.cache, "related:"+p.ID, func() ([]models.Posting, error) {
		items, err := s.repo.Related(ctx, p, s.relatedLimit)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.Posting{}
		}
		return items, nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("related postings unavailable", zap.String("posting_id", p.ID), zap.Error(err))
		}
		return []models.Posting{}
	}
	return related
}

// Create validates and publishes a posting. Validation errors carry per-field
// messages; rejections by the API are returned as ErrSubmission.
func (s *PostingService) Create(ctx context.Context, req dto.CreatePostingRequest) (*models.Posting, error) {
	req.Normalize()
	if err := validate(s.validator, req, postingMessages); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, req.Input())
	if err != nil {
		s.logger.Warn("publish posting failed", zap.String("course", req.Course), zap.Error(err))
		return nil, err
	}
	s.cache.Invalidate(ctx, "related:*", "suggest:*")
	s.logger.Info("posting published", zap.String("posting_id", created.ID), zap.String("course", created.Course))
	return created, nil
}
