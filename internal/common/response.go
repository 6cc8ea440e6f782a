package common

import "github.com/gin-gonic/gin"

// Fail writes the error envelope: a human-readable detail, the numeric
// status code, and the request path.
func Fail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{
		"detail": detail,
		"code":   status,
		"path":   c.Request.URL.Path,
	})
}
