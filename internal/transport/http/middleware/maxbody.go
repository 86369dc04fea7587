package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "jobportal-crm/internal/transport/http/response"
)

// MaxBodyBytes limits the request body. Spreadsheet uploads ride on this.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.Error(resp.CodeTooLarge, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
