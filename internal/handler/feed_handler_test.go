package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/internal/service"
)

// fixedLister serves n postings, filtering by title substring.
type fixedLister struct {
	items []models.Posting
}

func (l fixedLister) List(_ context.Context, req models.PageRequest) (models.Page, error) {
	var matched []models.Posting
	for _, p := range l.items {
		if req.Filter == "" || strings.Contains(strings.ToLower(p.SurveyTitle), strings.ToLower(req.Filter)) {
			matched = append(matched, p)
		}
	}
	total := len(matched)
	end := req.Offset + req.Limit
	if end > total {
		end = total
	}
	page := models.Page{Request: req, Items: []models.Posting{}, TotalCount: &total}
	if req.Offset < total {
		page.Items = matched[req.Offset:end]
	}
	return page, nil
}

func dialFeed(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := dialFeedFrom(t, nil, "", query)
	require.NoError(t, err)
	return conn
}

// dialFeedFrom dials a feed served with the given origin allow list. An
// origin of "self" is replaced with the test server's own URL.
func dialFeedFrom(t *testing.T, allowedOrigins []string, origin, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	lister := fixedLister{items: []models.Posting{
		{ID: "1", Course: "Biology", SurveyTitle: "Coffee Habits"},
		{ID: "2", Course: "Biology", SurveyTitle: "Commute Times"},
		{ID: "3", Course: "Economics", SurveyTitle: "Coffee Prices"},
	}}
	policy := service.QueryPolicy{MinLength: 3, Debounce: 20 * time.Millisecond, AllowEmpty: true}
	fetcher := service.NewListingFetcher(lister, 2, policy, nil)
	feeds := service.NewFeedService(fetcher, &stubSuggestions{}, policy, nil, nil)

	r := gin.New()
	r.GET("/ws/feed", NewFeedHandler(feeds, nil, allowedOrigins, nil).Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	header := http.Header{}
	if origin == "self" {
		origin = srv.URL
	}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readFrame(t *testing.T, conn *websocket.Conn) dto.FeedFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame dto.FeedFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestFeedSocketPagesThroughChain(t *testing.T) {
	conn := dialFeed(t, "")

	assert.Equal(t, dto.FrameReset, readFrame(t, conn).Type)
	first := readFrame(t, conn)
	require.Equal(t, dto.FramePage, first.Type)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)

	require.NoError(t, conn.WriteJSON(dto.ClientFrame{Type: dto.FrameMore}))
	second := readFrame(t, conn)
	require.Equal(t, dto.FramePage, second.Type)
	assert.Equal(t, 2, second.Offset)
	assert.Len(t, second.Items, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, dto.FrameDone, readFrame(t, conn).Type)
}

func TestFeedSocketDebouncedSearch(t *testing.T) {
	conn := dialFeed(t, "")
	readFrame(t, conn)
	readFrame(t, conn)

	for _, text := range []string{"c", "co", "cof"} {
		require.NoError(t, conn.WriteJSON(dto.ClientFrame{Type: dto.FrameInput, Text: text}))
	}

	reset := readFrame(t, conn)
	require.Equal(t, dto.FrameReset, reset.Type)
	assert.Equal(t, "cof", reset.Filter)
	page := readFrame(t, conn)
	require.Equal(t, dto.FramePage, page.Type)
	assert.Equal(t, "cof", page.Filter)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Coffee Habits", page.Items[0].Title)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 2, *page.TotalCount)
}

func TestFeedSocketInitialSearch(t *testing.T) {
	conn := dialFeed(t, "?search=commute")

	reset := readFrame(t, conn)
	assert.Equal(t, "commute", reset.Filter)
	page := readFrame(t, conn)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Commute Times", page.Items[0].Title)
}

func TestFeedSocketOriginPolicy(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		ok      bool
	}{
		{"no list same host", nil, "self", true},
		{"wildcard same host", []string{"*"}, "self", true},
		{"wildcard foreign", []string{"*"}, "https://elsewhere.example.org", true},
		{"trailing slash entry", []string{"https://thesurve.example.com/"}, "https://thesurve.example.com", true},
		{"list keeps same host", []string{"https://thesurve.example.com"}, "self", true},
		{"no origin header", []string{"https://thesurve.example.com"}, "", true},
		{"foreign rejected", []string{"https://thesurve.example.com"}, "https://evil.example.com", false},
		{"no list foreign rejected", nil, "https://evil.example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, resp, err := dialFeedFrom(t, tc.allowed, tc.origin, "")
			if !tc.ok {
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, dto.FrameReset, readFrame(t, conn).Type)
		})
	}
}
