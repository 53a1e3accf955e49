package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"error": message})
}

func MethodNotAllowed(c *gin.Context) {
	c.String(http.StatusMethodNotAllowed, "Method not allowed")
}

// HTML writes a rendered page. Pages carry the session token, so they are
// never cached.
func HTML(c *gin.Context, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
