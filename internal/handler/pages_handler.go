package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/internal/service"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
	"github.com/noah-isme/thesurve-web/pkg/markdown"
	"github.com/noah-isme/thesurve-web/pkg/middleware/requestid"
	"github.com/noah-isme/thesurve-web/pkg/response"
	"github.com/noah-isme/thesurve-web/pkg/seo"
)

// maxHomePages bounds how many pages a no-script home request accumulates.
const maxHomePages = 10

const (
	msgFeedUnavailable   = "We couldn't load surveys right now. Please try again."
	msgSurveyNotFound    = "The survey you're looking for doesn't exist or has been removed."
	msgPageNotFound      = "The page you're looking for doesn't exist."
	msgUpstreamNotice    = "We couldn't reach the survey service. Please try again in a moment."
	msgPostingPublished  = "Survey Published! Your survey is now live."
	msgReportSubmitted   = "Report Submitted. Thank you, our team will review this survey."
	msgTooManyRequests   = "You're submitting too quickly. Please wait a moment and try again."
	detailKeywordsSuffix = "student research, survey, academic research"
)

type listingService interface {
	Collect(ctx context.Context, filter string, maxPages int) ([]models.Page, error)
	Fetch(ctx context.Context, req models.PageRequest) (models.Page, error)
	PageSize() int
	Policy() service.QueryPolicy
}

type postingService interface {
	Get(ctx context.Context, id string) (*models.Posting, error)
	Related(ctx context.Context, p models.Posting) []models.Posting
	Create(ctx context.Context, req dto.CreatePostingRequest) (*models.Posting, error)
}

type reportService interface {
	Submit(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error)
}

type pageViewTracker interface {
	TrackPageView(view models.PageView)
}

// PagesHandler renders the server-side HTML pages.
type PagesHandler struct {
	listings listingService
	postings postingService
	reports  reportService
	tracker  pageViewTracker
	baseURL  string
	logger   *zap.Logger
}

// NewPagesHandler constructs a PagesHandler. tracker may be nil.
func NewPagesHandler(listings listingService, postings postingService, reports reportService, tracker pageViewTracker, baseURL string, logger *zap.Logger) *PagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PagesHandler{
		listings: listings,
		postings: postings,
		reports:  reports,
		tracker:  tracker,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// Home renders the listing. ?search filters it and ?pages accumulates that
// many pages so the page works without scripts.
func (h *PagesHandler) Home(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	pages := queryInt(c, "pages", 1, 1, maxHomePages)

	filter := search
	if !h.listings.Policy().Submittable(search) {
		filter = ""
	}

	view := homeView{
		layout:   h.pageLayout(c, homeTitle, seo.Page{Title: homeTitle, Description: homeDescription, Keywords: siteKeywords}, "/"),
		Search:   search,
		FeedURL:  "/ws/feed",
		RetryURL: homeURL(search, pages),
	}
	view.Script = "feed.js"

	chain, err := h.listings.Collect(c.Request.Context(), filter, pages)
	view.Cards = dto.NewPostingCards(service.Accumulate(chain))
	if err != nil {
		h.logger.Warn("home listing failed", zap.String("filter", filter), zap.Int("pages", len(chain)), zap.Error(err))
		view.Error = msgFeedUnavailable
	} else if len(chain) > 0 {
		last := chain[len(chain)-1]
		if !last.Terminal() {
			view.HasMore = true
			view.MoreURL = homeURL(search, len(chain)+1)
		}
	}

	h.track(c, view.Title, func(pv *models.PageView) { pv.SearchTerm = filter })
	c.HTML(http.StatusOK, "home.html", view)
}

// Posting renders one survey with its related postings.
func (h *PagesHandler) Posting(c *gin.Context) {
	posting, ok := h.loadPosting(c)
	if !ok {
		return
	}

	title := posting.DisplayTitle() + " | " + siteName
	description := markdown.PlainText(posting.Description)
	pagePath := "/postings/" + posting.ID
	view := postingView{
		layout: h.pageLayout(c, title, seo.Page{
			Title:       title,
			Description: description,
			Keywords:    detailKeywords(*posting),
			Author:      posting.Submitter,
			Type:        "article",
			URL:         h.absolute(pagePath),
		}, pagePath),
		Posting:     *posting,
		Description: markdown.Render(posting.Description),
		Share:       shareLinks(h.absolute(pagePath), posting.DisplayTitle()),
		Related:     dto.NewPostingCards(h.postings.Related(c.Request.Context(), *posting)),
		ReportURL:   pagePath + "/report",
	}
	if !posting.EstimatedTime.IsZero() {
		view.EstimatedTime = posting.EstimatedTime.Long()
	}

	h.track(c, view.Title, func(pv *models.PageView) {
		pv.PostingID = posting.ID
		pv.Course = posting.Course
		pv.School = posting.School
	})
	c.HTML(http.StatusOK, "posting.html", view)
}

// NewPosting renders the empty submission form.
func (h *PagesHandler) NewPosting(c *gin.Context) {
	form := dto.CreatePostingRequest{EstimatedTime: dto.DefaultEstimatedTime}
	h.track(c, "Post a Survey | "+siteName, nil)
	h.renderPostForm(c, http.StatusOK, form, nil, "")
}

// CreatePosting publishes the submitted form. Invalid input re-renders the
// form with per-field messages; success redirects home with a notice.
func (h *PagesHandler) CreatePosting(c *gin.Context) {
	var form dto.CreatePostingRequest
	if err := c.ShouldBind(&form); err != nil {
		h.renderPostForm(c, http.StatusBadRequest, form, nil, "The form could not be read. Please try again.")
		return
	}

	created, err := h.postings.Create(c.Request.Context(), form)
	if err != nil {
		form.Normalize()
		status, fields, notice := formFailure(err)
		h.renderPostForm(c, status, form, fields, notice)
		return
	}

	h.logger.Info("posting form accepted", zap.String("posting_id", created.ID), zap.String("request_id", requestid.Value(c)))
	setFlash(c, msgPostingPublished)
	c.Redirect(http.StatusSeeOther, "/")
}

// ReportForm renders the report form for a posting.
func (h *PagesHandler) ReportForm(c *gin.Context) {
	posting, ok := h.loadPosting(c)
	if !ok {
		return
	}
	h.track(c, "Report Survey | "+siteName, func(pv *models.PageView) { pv.PostingID = posting.ID })
	h.renderReportForm(c, http.StatusOK, *posting, dto.CreateReportRequest{}, nil, "")
}

// SubmitReport files a report against the posting in the URL.
func (h *PagesHandler) SubmitReport(c *gin.Context) {
	posting, ok := h.loadPosting(c)
	if !ok {
		return
	}

	var form dto.CreateReportRequest
	if err := c.ShouldBind(&form); err != nil {
		h.renderReportForm(c, http.StatusBadRequest, *posting, form, nil, "The form could not be read. Please try again.")
		return
	}
	form.ReportedPosting = posting.ID

	if _, err := h.reports.Submit(c.Request.Context(), form); err != nil {
		form.Normalize()
		status, fields, notice := formFailure(err)
		h.renderReportForm(c, status, *posting, form, fields, notice)
		return
	}

	setFlash(c, msgReportSubmitted)
	c.Redirect(http.StatusSeeOther, "/postings/"+posting.ID)
}

// NotFound handles unmatched routes: JSON under /api, the 404 page elsewhere.
func (h *PagesHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
		return
	}
	h.renderNotFound(c, "Page not found", msgPageNotFound)
}

// RateLimited answers throttled form posts.
func (h *PagesHandler) RateLimited(c *gin.Context) {
	view := errorView{
		layout:    h.pageLayout(c, "Slow down | "+siteName, seo.Page{}, ""),
		Message:   msgTooManyRequests,
		Path:      c.Request.URL.RequestURI(),
		RequestID: requestid.Value(c),
	}
	c.Header("Retry-After", "5")
	c.HTML(http.StatusTooManyRequests, "error.html", view)
	c.Abort()
}

// loadPosting resolves :id, rendering the not-found or error page itself when
// that fails.
func (h *PagesHandler) loadPosting(c *gin.Context) (*models.Posting, bool) {
	posting, err := h.postings.Get(c.Request.Context(), c.Param("id"))
	if err == nil {
		return posting, true
	}
	if appErrors.IsNotFound(err) {
		h.renderNotFound(c, "Survey not found", msgSurveyNotFound)
		return nil, false
	}
	if errors.Is(err, context.Canceled) {
		c.Abort()
		return nil, false
	}
	h.logger.Error("load posting failed", zap.String("posting_id", c.Param("id")), zap.Error(err))
	_ = c.Error(err)
	view := errorView{
		layout:    h.pageLayout(c, "Something went wrong | "+siteName, seo.Page{}, ""),
		Message:   msgUpstreamNotice,
		Path:      c.Request.URL.RequestURI(),
		RequestID: requestid.Value(c),
	}
	c.HTML(appErrors.FromError(err).Status, "error.html", view)
	return nil, false
}

func (h *PagesHandler) renderNotFound(c *gin.Context, heading, message string) {
	view := notFoundView{
		layout:  h.pageLayout(c, heading+" | "+siteName, seo.Page{}, ""),
		Heading: heading,
		Message: message,
	}
	c.HTML(http.StatusNotFound, "not_found.html", view)
}

func (h *PagesHandler) renderPostForm(c *gin.Context, status int, form dto.CreatePostingRequest, fields map[string]string, notice string) {
	if form.EstimatedTime == "" {
		form.EstimatedTime = dto.DefaultEstimatedTime
	}
	title := "Post a Survey | " + siteName
	view := postFormView{
		layout: h.pageLayout(c, title, seo.Page{
			Title:       title,
			Description: "Share your academic research survey with student participants.",
			Keywords:    siteKeywords,
		}, "/post"),
		Form:           form,
		Errors:         fields,
		Notice:         notice,
		EstimatedTimes: dto.EstimatedTimeOptions,
	}
	view.Script = "post.js"
	c.HTML(status, "post.html", view)
}

func (h *PagesHandler) renderReportForm(c *gin.Context, status int, posting models.Posting, form dto.CreateReportRequest, fields map[string]string, notice string) {
	view := reportFormView{
		layout:  h.pageLayout(c, "Report Survey | "+siteName, seo.Page{}, ""),
		Posting: posting,
		Form:    form,
		Errors:  fields,
		Notice:  notice,
	}
	c.HTML(status, "report.html", view)
}

// formFailure maps a submission error to status, field messages and a notice.
func formFailure(err error) (int, map[string]string, string) {
	appErr := appErrors.FromError(err)
	switch {
	case errors.Is(err, appErrors.ErrValidation):
		return appErr.Status, appErr.Fields, "Please correct the highlighted fields."
	case errors.Is(err, appErrors.ErrSubmission):
		return appErr.Status, nil, appErr.Message
	case errors.Is(err, appErrors.ErrRateLimited):
		return appErr.Status, nil, msgTooManyRequests
	case errors.Is(err, appErrors.ErrUpstream):
		return appErr.Status, nil, msgUpstreamNotice
	default:
		return http.StatusInternalServerError, nil, msgUpstreamNotice
	}
}

func (h *PagesHandler) pageLayout(c *gin.Context, title string, page seo.Page, canonicalPath string) layout {
	l := layout{Title: title, Flash: popFlash(c)}
	if page.Title != "" {
		l.Meta = seo.Tags(page)
	}
	if canonicalPath != "" {
		l.Canonical = h.absolute(canonicalPath)
	}
	return l
}

func (h *PagesHandler) absolute(path string) string {
	return h.baseURL + path
}

func (h *PagesHandler) track(c *gin.Context, title string, fill func(*models.PageView)) {
	if h.tracker == nil {
		return
	}
	pv := models.PageView{
		Path:       c.Request.URL.Path,
		Location:   h.absolute(c.Request.URL.RequestURI()),
		Title:      title,
		RequestID:  requestid.Value(c),
		OccurredAt: time.Now().UTC(),
	}
	if fill != nil {
		fill(&pv)
	}
	h.tracker.TrackPageView(pv)
}

func detailKeywords(p models.Posting) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Course, p.School} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, detailKeywordsSuffix)
	return strings.Join(parts, ", ")
}
