package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/models"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

// MaxPageSize caps the limit a client may request.
const MaxPageSize = 50

type postingLister interface {
	List(ctx context.Context, req models.PageRequest) (models.Page, error)
}

// ListingFetcher produces forward-only page chains of postings for a filter.
// It holds no chain state: a page carries the request that produced it, so
// Next is a pure function of its argument and may be retried unchanged.
type ListingFetcher struct {
	repo     postingLister
	pageSize int
	policy   QueryPolicy
	logger   *zap.Logger
}

// NewListingFetcher constructs a fetcher.
func NewListingFetcher(repo postingLister, pageSize int, policy QueryPolicy, logger *zap.Logger) *ListingFetcher {
	if pageSize <= 0 {
		pageSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingFetcher{repo: repo, pageSize: pageSize, policy: policy, logger: logger}
}

// PageSize returns the limit used by Start.
func (f *ListingFetcher) PageSize() int {
	return f.pageSize
}

// Policy returns the filter gate.
func (f *ListingFetcher) Policy() QueryPolicy {
	return f.policy
}

// Start fetches the first page for filter. A filter that is still being typed
// yields an empty terminal page without a backend call.
func (f *ListingFetcher) Start(ctx context.Context, filter string) (models.Page, error) {
	return f.Fetch(ctx, models.PageRequest{Filter: filter, Limit: f.pageSize})
}

// Next fetches the page after prev. ok is false when prev is terminal. On
// error prev is untouched and the same call may be repeated.
func (f *ListingFetcher) Next(ctx context.Context, prev models.Page) (page models.Page, ok bool, err error) {
	req, ok := prev.NextRequest()
	if !ok {
		return models.Page{}, false, nil
	}
	page, err = f.Fetch(ctx, req)
	if err != nil {
		return models.Page{}, true, err
	}
	return page, true, nil
}

// Fetch runs a single page request after normalising it.
func (f *ListingFetcher) Fetch(ctx context.Context, req models.PageRequest) (models.Page, error) {
	req.Filter = f.policy.Normalize(req.Filter)
	if req.Limit <= 0 {
		req.Limit = f.pageSize
	}
	if req.Limit > MaxPageSize {
		req.Limit = MaxPageSize
	}
	if req.Offset < 0 {
		return models.Page{}, appErrors.Clone(appErrors.ErrValidation, "offset must not be negative")
	}
	if !f.policy.Submittable(req.Filter) {
		return models.Page{Request: req, Items: []models.Posting{}}, nil
	}

	page, err := f.repo.List(ctx, req)
	if err != nil {
		f.logger.Warn("listing fetch failed",
			zap.String("filter", req.Filter),
			zap.Int("offset", req.Offset),
			zap.Error(err),
		)
		return models.Page{}, err
	}
	return page, nil
}

// Collect fetches up to maxPages pages of one chain. Pages fetched before a
// failure are returned alongside the error.
func (f *ListingFetcher) Collect(ctx context.Context, filter string, maxPages int) ([]models.Page, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	first, err := f.Start(ctx, filter)
	if err != nil {
		return nil, err
	}
	pages := []models.Page{first}
	for len(pages) < maxPages {
		next, ok, err := f.Next(ctx, pages[len(pages)-1])
		if !ok {
			break
		}
		if err != nil {
			return pages, err
		}
		pages = append(pages, next)
	}
	return pages, nil
}

// Accumulate flattens pages in the order given, keeping API order within each.
func Accumulate(pages []models.Page) []models.Posting {
	n := 0
	for _, p := range pages {
		n += len(p.Items)
	}
	items := make([]models.Posting, 0, n)
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	return items
}
