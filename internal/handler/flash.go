package handler

import "github.com/gin-gonic/gin"

const flashCookie = "thesurve_flash"

// setFlash stores a one-shot message shown on the next page.
func setFlash(c *gin.Context, message string) {
	c.SetCookie(flashCookie, message, 60, "/", "", c.Request.TLS != nil, true)
}

// popFlash returns and clears the pending message.
func popFlash(c *gin.Context) string {
	message, err := c.Cookie(flashCookie)
	if err != nil || message == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	return message
}
