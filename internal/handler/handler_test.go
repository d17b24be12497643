package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/internal/service"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
	"github.com/noah-isme/thesurve-web/web"
)

const postingID = "3f1c9a52-6a0e-4a44-9d8a-2b7f5c1e0d11"

func init() {
	gin.SetMode(gin.TestMode)
}

func intPtr(n int) *int { return &n }

type stubListings struct {
	mu        sync.Mutex
	pages     []models.Page
	err       error
	collected []string
	fetched   []models.PageRequest
	fetchPage models.Page
}

func (s *stubListings) Collect(_ context.Context, filter string, maxPages int) ([]models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collected = append(s.collected, filter)
	pages := s.pages
	if len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	return pages, s.err
}

func (s *stubListings) Fetch(_ context.Context, req models.PageRequest) (models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, req)
	if s.err != nil {
		return models.Page{}, s.err
	}
	page := s.fetchPage
	page.Request = req
	return page, nil
}

func (s *stubListings) PageSize() int { return 10 }

func (s *stubListings) Policy() service.QueryPolicy {
	return service.QueryPolicy{MinLength: 3, AllowEmpty: true}
}

type stubPostings struct {
	posting   *models.Posting
	getErr    error
	related   []models.Posting
	createErr error
	created   []dto.CreatePostingRequest
}

func (s *stubPostings) Get(_ context.Context, id string) (*models.Posting, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.posting == nil || s.posting.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
	}
	cp := *s.posting
	return &cp, nil
}

func (s *stubPostings) Related(_ context.Context, _ models.Posting) []models.Posting {
	return s.related
}

func (s *stubPostings) Create(_ context.Context, req dto.CreatePostingRequest) (*models.Posting, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, req)
	return &models.Posting{ID: postingID}, nil
}

type stubReports struct {
	err       error
	submitted []dto.CreateReportRequest
}

func (s *stubReports) Submit(_ context.Context, req dto.CreateReportRequest) (*models.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.submitted = append(s.submitted, req)
	return &models.Report{ID: 1, Status: models.ReportStatusPending}, nil
}

type stubSuggestions struct {
	field models.PostingField
	text  string
}

func (s *stubSuggestions) Suggest(_ context.Context, field models.PostingField, text string) ([]string, error) {
	if !field.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported suggestion field")
	}
	s.field, s.text = field, text
	return []string{"Psychology 101"}, nil
}

type recordingTracker struct {
	views []models.PageView
}

func (r *recordingTracker) TrackPageView(view models.PageView) {
	r.views = append(r.views, view)
}

type fixture struct {
	listings *stubListings
	postings *stubPostings
	reports  *stubReports
	tracker  *recordingTracker
	router   *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		listings: &stubListings{},
		postings: &stubPostings{posting: &models.Posting{
			ID:            postingID,
			Course:        "Psychology",
			School:        "State University",
			SurveyTitle:   "Sleep and Study Habits",
			Description:   "How does **sleep** affect your grades? Tell us in ten minutes.",
			SurveyLink:    "https://forms.example.com/sleep",
			EstimatedTime: models.ClockEstimate(0, 10, 0),
			Submitter:     "Dana",
		}},
		reports: &stubReports{},
		tracker: &recordingTracker{},
	}

	tmpl, err := web.Templates(nil)
	require.NoError(t, err)

	pages := NewPagesHandler(f.listings, f.postings, f.reports, f.tracker, "https://thesurve.example.com", nil)
	api := NewAPIHandler(f.listings, f.postings, &stubSuggestions{}, nil)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", pages.Home)
	r.GET("/post", pages.NewPosting)
	r.POST("/post", pages.CreatePosting)
	r.GET("/postings/:id", pages.Posting)
	r.GET("/postings/:id/report", pages.ReportForm)
	r.POST("/postings/:id/report", pages.SubmitReport)
	r.GET("/api/postings", api.ListPostings)
	r.GET("/api/postings/:id", api.GetPosting)
	r.GET("/api/suggestions/:field", api.Suggestions)
	r.NoRoute(pages.NotFound)
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func samplePage(offset, total int, titles ...string) models.Page {
	items := make([]models.Posting, 0, len(titles))
	for i, title := range titles {
		items = append(items, models.Posting{ID: string(rune('a' + offset + i)), Course: "Biology", SurveyTitle: title})
	}
	return models.Page{
		Request:    models.PageRequest{Limit: 10, Offset: offset},
		Items:      items,
		TotalCount: intPtr(total),
	}
}
