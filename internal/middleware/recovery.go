package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
	"github.com/noah-isme/thesurve-web/pkg/middleware/requestid"
	"github.com/noah-isme/thesurve-web/pkg/response"
)

// Recovery is the last-resort boundary for panics. API routes get the JSON
// error envelope; pages get the error template offering reload and home.
func Recovery(logger *zap.Logger, errorTemplate string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Value(c)),
			zap.Stack("stack"),
		)
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.Error(c, appErrors.ErrInternal)
			return
		}
		c.HTML(http.StatusInternalServerError, errorTemplate, gin.H{
			"Title":     "Something went wrong",
			"Message":   "An unexpected error occurred. You can reload the page or head back home.",
			"RequestID": requestid.Value(c),
			"Path":      c.Request.URL.RequestURI(),
		})
		c.Abort()
	})
}
