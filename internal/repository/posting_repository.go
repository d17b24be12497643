package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/pkg/directus"
)

var (
	postingDetailFields  = []string{"*"}
	postingSummaryFields = []string{"id", "course", "school", "survey_title", "description"}
	postingListSort      = []string{"-date_created"}
)

// ItemsClient is the subset of the data API client the repositories use.
type ItemsClient interface {
	ListItems(ctx context.Context, collection string, q directus.Query, dest any) (directus.ListMeta, error)
	GetItem(ctx context.Context, collection, id string, fields []string, dest any) error
	CreateItem(ctx context.Context, collection string, body any, dest any) error
}

// PostingRepository reads and creates postings through the data API.
type PostingRepository struct {
	client     ItemsClient
	collection string
}

// NewPostingRepository instantiates the repository.
func NewPostingRepository(client ItemsClient, collection string) *PostingRepository {
	return &PostingRepository{client: client, collection: collection}
}

// List fetches one page of postings newest first. When a filter is active the
// filtered count is preferred because total_count ignores search.
func (r *PostingRepository) List(ctx context.Context, req models.PageRequest) (models.Page, error) {
	q := directus.Query{
		Search: req.Filter,
		Sort:   postingListSort,
		Limit:  req.Limit,
		Offset: req.Offset,
		Meta:   []string{directus.MetaTotalCount, directus.MetaFilterCount},
	}

	var items []models.Posting
	meta, err := r.client.ListItems(ctx, r.collection, q, &items)
	if err != nil {
		return models.Page{}, readError(err, "failed to list postings")
	}
	if items == nil {
		items = []models.Posting{}
	}

	total := meta.TotalCount
	if req.Filter != "" && meta.FilterCount != nil {
		total = meta.FilterCount
	}
	return models.Page{Request: req, Items: items, TotalCount: total}, nil
}

// FindByID loads a single posting. Hidden and missing postings both yield
// ErrNotFound.
func (r *PostingRepository) FindByID(ctx context.Context, id string) (*models.Posting, error) {
	var posting models.Posting
	if err := r.client.GetItem(ctx, r.collection, id, postingDetailFields, &posting); err != nil {
		return nil, readError(err, "failed to load posting")
	}
	return &posting, nil
}

// Related returns postings sharing the course, or the school when one is set,
// excluding p itself.
func (r *PostingRepository) Related(ctx context.Context, p models.Posting, limit int) ([]models.Posting, error) {
	match := directus.Eq("course", p.Course)
	if p.School != "" {
		match = directus.Or(directus.Eq("course", p.Course), directus.Eq("school", p.School))
	}
	q := directus.Query{
		Filter: directus.And(match, directus.Neq("id", p.ID)),
		Fields: postingSummaryFields,
		Limit:  limit,
	}

	var items []models.Posting
	if _, err := r.client.ListItems(ctx, r.collection, q, &items); err != nil {
		return nil, readError(err, "failed to load related postings")
	}
	return items, nil
}

// DistinctValues returns up to limit distinct values of field containing text.
func (r *PostingRepository) DistinctValues(ctx context.Context, field models.PostingField, text string, limit int) ([]string, error) {
	name := string(field)
	q := directus.Query{
		Filter:  directus.IContains(name, text),
		Fields:  []string{name},
		GroupBy: []string{name},
		Limit:   limit,
	}

	var rows []map[string]any
	if _, err := r.client.ListItems(ctx, r.collection, q, &rows); err != nil {
		return nil, readError(err, "failed to load suggestions")
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		v, ok := row[name].(string)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// Create publishes a new posting.
func (r *PostingRepository) Create(ctx context.Context, input models.PostingInput) (*models.Posting, error) {
	var created models.Posting
	if err := r.client.CreateItem(ctx, r.collection, input, &created); err != nil {
		return nil, writeError(err, "could not publish survey")
	}
	return &created, nil
}
