package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/models"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

type suggestionSource interface {
	DistinctValues(ctx context.Context, field models.PostingField, text string, limit int) ([]string, error)
}

// SuggestionService answers autocomplete lookups for school and course.
type SuggestionService struct {
	repo   suggestionSource
	cache  *CacheService
	policy QueryPolicy
	limit  int
	logger *zap.Logger
}

// NewSuggestionService constructs the service.
func NewSuggestionService(repo suggestionSource, cache *CacheService, policy QueryPolicy, limit int, logger *zap.Logger) *SuggestionService {
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{repo: repo, cache: cache, policy: policy, limit: limit, logger: logger}
}

// Policy returns the input gate used for suggestions.
func (s *SuggestionService) Policy() QueryPolicy {
	return s.policy
}

// Suggest returns existing values of field that contain text. Text the gate
// rejects yields an empty list without a backend call; an empty result means
// the user may submit a new value.
func (s *SuggestionService) Suggest(ctx context.Context, field models.PostingField, text string) ([]string, error) {
	if !field.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported suggestion field")
	}
	text = s.policy.Normalize(text)
	if text == "" || !s.policy.Submittable(text) {
		return []string{}, nil
	}

	key := "suggest:" + string(field) + ":" + strings.ToLower(text)
	return cached(ctx, s.cache, key, func() ([]string, error) {
		values, err := s.repo.DistinctValues(ctx, field, text, s.limit)
		if err != nil {
			return nil, err
		}
		if len(values) > s.limit {
			values = values[:s.limit]
		}
		return values, nil
	})
}
