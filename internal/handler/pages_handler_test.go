package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesurve-web/internal/models"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

func TestHomeRendersCardsAndMoreLink(t *testing.T) {
	f := newFixture(t)
	f.listings.pages = []models.Page{samplePage(0, 25, "Coffee Survey", "Commute Survey")}

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Coffee Survey")
	assert.Contains(t, body, "Commute Survey")
	assert.Contains(t, body, `href="/?pages=2"`)
	assert.Contains(t, body, "Every Student Deserves Quality Research Data")
	assert.Equal(t, []string{""}, f.listings.collected)
	require.Len(t, f.tracker.views, 1)
	assert.Equal(t, "/", f.tracker.views[0].Path)
}

func TestHomeShortSearchFallsBackToUnfiltered(t *testing.T) {
	f := newFixture(t)
	f.listings.pages = []models.Page{samplePage(0, 1, "Coffee Survey")}

	w := f.do(httptest.NewRequest(http.MethodGet, "/?search=ps", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{""}, f.listings.collected)
	assert.Contains(t, w.Body.String(), `value="ps"`)
}

func TestHomeSearchIsSubmitted(t *testing.T) {
	f := newFixture(t)
	f.listings.pages = []models.Page{samplePage(0, 0)}

	w := f.do(httptest.NewRequest(http.MethodGet, "/?search=psych", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"psych"}, f.listings.collected)
	assert.Contains(t, w.Body.String(), "No results found")
	assert.Equal(t, "psych", f.tracker.views[0].SearchTerm)
}

func TestHomeShowsRetryOnFailure(t *testing.T) {
	f := newFixture(t)
	f.listings.err = appErrors.ErrUpstream

	w := f.do(httptest.NewRequest(http.MethodGet, "/?search=psych&pages=3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, msgFeedUnavailable)
	assert.Contains(t, body, `href="/?pages=3&amp;search=psych"`)
}

func TestPostingDetail(t *testing.T) {
	f := newFixture(t)
	f.postings.related = []models.Posting{{ID: "b", Course: "Psychology", SurveyTitle: "Dream Journals"}}

	w := f.do(httptest.NewRequest(http.MethodGet, "/postings/"+postingID, nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Sleep and Study Habits | TheSurve</title>")
	assert.Contains(t, body, "<strong>sleep</strong>")
	assert.Contains(t, body, "10 minutes")
	assert.Contains(t, body, "Dream Journals")
	assert.Contains(t, body, "https://www.facebook.com/sharer/sharer.php?u=")
	assert.Contains(t, body, `content="article"`)
	assert.Contains(t, body, "/postings/"+postingID+"/report")
	assert.Equal(t, postingID, f.tracker.views[0].PostingID)
}

func TestPostingNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/postings/not-a-uuid", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Survey not found")
}

func TestPostingUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.postings.getErr = appErrors.Wrap(errors.New("dial tcp"), appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "load posting")

	w := f.do(httptest.NewRequest(http.MethodGet, "/postings/"+postingID, nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), msgUpstreamNotice)
}

func validPostingForm() url.Values {
	return url.Values{
		"survey_title":    {"Sleep and Study Habits"},
		"course":          {"Psychology"},
		"school":          {"State University"},
		"description":     {"A short survey about how sleep affects study habits."},
		"survey_link":     {"https://forms.example.com/sleep"},
		"estimated_time":  {"0:10:00"},
		"submitter":       {"Dana"},
		"submitter_email": {"dana@example.com"},
	}
}

func TestCreatePostingRedirectsWithFlash(t *testing.T) {
	f := newFixture(t)

	w := f.do(postForm("/post", validPostingForm()))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), flashCookie)
	require.Len(t, f.postings.created, 1)
	assert.Equal(t, "Psychology", f.postings.created[0].Course)
}

func TestCreatePostingValidationRerendersForm(t *testing.T) {
	f := newFixture(t)
	f.postings.createErr = appErrors.WithFields(appErrors.ErrValidation, map[string]string{
		"description": "Please provide a detailed description (minimum 30 characters)",
	})
	form := validPostingForm()
	form.Set("description", "too short")

	w := f.do(postForm("/post", form))

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "minimum 30 characters")
	assert.Contains(t, body, "too short")
	assert.Contains(t, body, `value="Sleep and Study Habits"`)
}

func TestCreatePostingRejectedByAPI(t *testing.T) {
	f := newFixture(t)
	f.postings.createErr = appErrors.Clone(appErrors.ErrSubmission, "submission was rejected: invalid link")

	w := f.do(postForm("/post", validPostingForm()))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "invalid link")
}

func TestSubmitReportUsesPostingFromURL(t *testing.T) {
	f := newFixture(t)

	w := f.do(postForm("/postings/"+postingID+"/report", url.Values{
		"reporter_name":      {"Sam"},
		"reporter_email":     {"sam@example.com"},
		"report_description": {"The link is broken."},
		"reported_posting":   {"someone-else"},
	}))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/postings/"+postingID, w.Header().Get("Location"))
	require.Len(t, f.reports.submitted, 1)
	assert.Equal(t, postingID, f.reports.submitted[0].ReportedPosting)
}

func TestReportFormForMissingPosting(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/postings/6b0e4f4e-0000-4000-8000-000000000000/report", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotFoundJSONForAPI(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)

	w = f.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestFlashShownOnce(t *testing.T) {
	f := newFixture(t)
	f.listings.pages = []models.Page{samplePage(0, 0)}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: url.QueryEscape(msgPostingPublished)})
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Survey Published!")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}
