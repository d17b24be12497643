package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/internal/service"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
	"github.com/noah-isme/thesurve-web/pkg/response"
)

type suggestionService interface {
	Suggest(ctx context.Context, field models.PostingField, text string) ([]string, error)
}

// APIHandler exposes the JSON listing API.
type APIHandler struct {
	listings    listingService
	postings    postingService
	suggestions suggestionService
	metrics     *service.MetricsService
}

// NewAPIHandler constructs an APIHandler.
func NewAPIHandler(listings listingService, postings postingService, suggestions suggestionService, metrics *service.MetricsService) *APIHandler {
	return &APIHandler{listings: listings, postings: postings, suggestions: suggestions, metrics: metrics}
}

// ListPostings godoc
// @Summary List postings
// @Description Returns one page of postings, newest first. Follow pagination.next_offset until has_more is false.
// @Tags Postings
// @Produce json
// @Param search query string false "Filter text, ignored when shorter than three characters"
// @Param offset query int false "Zero-based offset"
// @Param limit query int false "Page size, at most 50"
// @Success 200 {object} response.Envelope{data=[]dto.PostingCard,pagination=models.Pagination}
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /postings [get]
func (h *APIHandler) ListPostings(c *gin.Context) {
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := intParam(c, "limit", h.listings.PageSize())
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.listings.Fetch(c.Request.Context(), models.PageRequest{
		Filter: c.Query("search"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordFeedPage("http")
	response.JSON(c, http.StatusOK, dto.NewPostingCards(page.Items), models.PaginationFor(page))
}

// GetPosting godoc
// @Summary Get posting
// @Tags Postings
// @Produce json
// @Param id path string true "Posting ID"
// @Success 200 {object} response.Envelope{data=models.Posting}
// @Failure 404 {object} response.Envelope
// @Router /postings/{id} [get]
func (h *APIHandler) GetPosting(c *gin.Context) {
	posting, err := h.postings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	public := *posting
	public.SubmitterEmail = ""
	response.OK(c, public)
}

// Suggestions godoc
// @Summary Autocomplete values
// @Description Existing school or course values containing q. Short input returns an empty list.
// @Tags Postings
// @Produce json
// @Param field path string true "school or course"
// @Param q query string false "Typed text"
// @Success 200 {object} response.Envelope{data=[]string}
// @Failure 400 {object} response.Envelope
// @Router /suggestions/{field} [get]
func (h *APIHandler) Suggestions(c *gin.Context) {
	values, err := h.suggestions.Suggest(c.Request.Context(), models.PostingField(c.Param("field")), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, values)
}

func intParam(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
	}
	return n, nil
}
