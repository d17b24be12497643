package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/pkg/directus"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

func newDirectus(t *testing.T, handler http.HandlerFunc) *directus.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := directus.New(directus.Config{BaseURL: srv.URL, MaxRetries: 0})
	require.NoError(t, err)
	return client
}

func TestPostingRepositoryListUsesFilterCountWhenSearching(t *testing.T) {
	var seen []*http.Request
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		_, _ = w.Write([]byte(`{"data":[{"id":"p1","course":"PSY 101"}],"meta":{"total_count":40,"filter_count":1}}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	page, err := repo.List(context.Background(), models.PageRequest{Filter: "sleep", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 1, *page.TotalCount)
	assert.True(t, page.Terminal())

	q := seen[0].URL.Query()
	assert.Equal(t, "/items/thesurve_postings", seen[0].URL.Path)
	assert.Equal(t, "sleep", q.Get("search"))
	assert.Equal(t, "-date_created", q.Get("sort"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "", q.Get("offset"))
}

func TestPostingRepositoryListUnfilteredUsesTotalCount(t *testing.T) {
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"meta":{"total_count":25,"filter_count":25}}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	page, err := repo.List(context.Background(), models.PageRequest{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 25, *page.TotalCount)
	next, ok := page.NextRequest()
	require.True(t, ok)
	assert.Equal(t, 20, next.Offset)
}

func TestPostingRepositoryListTransportFailureIsUpstream(t *testing.T) {
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	_, err := repo.List(context.Background(), models.PageRequest{Limit: 10})
	require.Error(t, err)
	assert.True(t, appErrors.IsRetryable(err))
}

func TestPostingRepositoryListToleratesMalformedEstimate(t *testing.T) {
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"p1","course":"A","estimated_time":"0:05:00"},{"id":"p2","course":"B","estimated_time":"about 5 min"}],"meta":{"total_count":2}}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	page, err := repo.List(context.Background(), models.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 5, page.Items[0].EstimatedTime.Minutes())
	assert.Equal(t, "p2", page.Items[1].ID)
	assert.True(t, page.Items[1].EstimatedTime.IsZero())
}

func TestPostingRepositoryFindByIDNotFoundVariants(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"null data": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"data":null}`)) },
		"forbidden": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
		"missing":   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			repo := NewPostingRepository(newDirectus(t, handler), "thesurve_postings")
			_, err := repo.FindByID(context.Background(), "8c1f2b7e-0000-4000-8000-000000000001")
			assert.True(t, appErrors.IsNotFound(err))
		})
	}
}

func TestPostingRepositoryRelatedFilter(t *testing.T) {
	var filter map[string]any
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("filter")), &filter))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "id,course,school,survey_title,description", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"data":[{"id":"p2","course":"PSY 101"}]}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	items, err := repo.Related(context.Background(), models.Posting{ID: "p1", Course: "PSY 101", School: "UCLA"}, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)

	and, ok := filter["_and"].([]any)
	require.True(t, ok)
	require.Len(t, and, 2)
	assert.Contains(t, and[0], "_or")
	assert.Equal(t, map[string]any{"id": map[string]any{"_neq": "p1"}}, and[1])
}

func TestPostingRepositoryRelatedWithoutSchool(t *testing.T) {
	var raw string
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.Query().Get("filter")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	_, err := repo.Related(context.Background(), models.Posting{ID: "p1", Course: "PSY 101"}, 3)
	require.NoError(t, err)
	assert.NotContains(t, raw, "_or")
	assert.Contains(t, raw, `"course":{"_eq":"PSY 101"}`)
}

func TestPostingRepositoryDistinctValues(t *testing.T) {
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, []string{"school"}, q["groupBy[]"])
		assert.Equal(t, "school", q.Get("fields"))
		assert.Equal(t, `{"school":{"_icontains":"uni"}}`, q.Get("filter"))
		_, _ = w.Write([]byte(`{"data":[{"school":"Unimelb"},{"school":null},{"school":"University of Lagos"}]}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	values, err := repo.DistinctValues(context.Background(), models.PostingFieldSchool, "uni", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unimelb", "University of Lagos"}, values)
}

func TestPostingRepositoryCreateRejection(t *testing.T) {
	client := newDirectus(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Value for field \"survey_link\" is invalid"}]}`))
	})
	repo := NewPostingRepository(client, "thesurve_postings")

	_, err := repo.Create(context.Background(), models.PostingInput{Course: "PSY 101"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSubmission.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "survey_link")
}
