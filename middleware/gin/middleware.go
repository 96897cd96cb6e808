package ginmw

import (
	"github.com/gin-gonic/gin"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/middleware"
)

// ValidateJSON checks the request body with the validator registered under
// (eng, key), stores the decoded value in the request context on success, or
// aborts with the rejection payload of middleware.Validator.Check.
func ValidateJSON(reg *schemareg.Registry, eng schemareg.Engine, key string, opts middleware.Options) gin.HandlerFunc {
	v := middleware.New(reg, eng, key, opts)
	return func(c *gin.Context) {
		req, status, payload := v.Check(c.Request)
		if payload != nil {
			c.AbortWithStatusJSON(status, payload)
			return
		}
		c.Request = req
		c.Next()
	}
}

// GetValue fetches the decoded body from gin.Context.
func GetValue(c *gin.Context) (any, bool) {
	return middleware.ValueFromContext(c.Request.Context())
}
