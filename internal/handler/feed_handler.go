package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/service"
	"github.com/noah-isme/thesurve-web/pkg/middleware/requestid"
)

const (
	feedWriteWait    = 10 * time.Second
	feedPongWait     = 60 * time.Second
	feedPingInterval = (feedPongWait * 9) / 10
	feedReadLimit    = 4096
)

type feedOpener interface {
	Open(ctx context.Context, filter string) *service.FeedSession
}

// FeedHandler upgrades /ws/feed to a live listing session.
type FeedHandler struct {
	feeds    feedOpener
	metrics  *service.MetricsService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewFeedHandler constructs a FeedHandler. Same-host origins are always
// accepted; allowedOrigins adds cross-origin hosts and "*" accepts any.
func NewFeedHandler(feeds feedOpener, metrics *service.MetricsService, allowedOrigins []string, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &FeedHandler{feeds: feeds, metrics: metrics, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(allowedOrigins)
	}
	return h
}

// originChecker matches origins the same way the CORS middleware does.
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := allowed[strings.TrimRight(origin, "/")]
		return ok
	}
}

// Serve runs one session for the lifetime of the connection. ?search seeds
// the initial filter.
func (h *FeedHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("feed upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("request_id", requestid.Value(c)))
	ctx := requestid.WithValue(context.Background(), requestid.Value(c))
	sess := h.feeds.Open(ctx, c.Query("search"))
	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()
	defer sess.Close()

	writerDone := make(chan struct{})
	go h.writeLoop(conn, sess, writerDone, logger)

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		var frame dto.ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("feed read ended", zap.Error(err))
			}
			break
		}
		sess.Handle(frame)
	}

	sess.Close()
	<-writerDone
}

func (h *FeedHandler) writeLoop(conn *websocket.Conn, sess *service.FeedSession, done chan<- struct{}, logger *zap.Logger) {
	defer close(done)
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-sess.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				logger.Debug("feed write failed", zap.Error(err))
				sess.Close()
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.Close()
				_ = conn.Close()
				return
			}
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(feedWriteWait))
			return
		}
	}
}
