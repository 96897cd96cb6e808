package echomw

import (
	"github.com/labstack/echo/v4"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/middleware"
)

// ValidateJSON checks the request body with the validator registered under
// (eng, key), stores the decoded value in the request context on success, or
// responds with the rejection payload of middleware.Validator.Check.
func ValidateJSON(reg *schemareg.Registry, eng schemareg.Engine, key string, opts middleware.Options) echo.MiddlewareFunc {
	v := middleware.New(reg, eng, key, opts)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req, status, payload := v.Check(c.Request())
			if payload != nil {
				return c.JSON(status, payload)
			}
			c.SetRequest(req)
			return next(c)
		}
	}
}

// GetValue fetches the decoded body from echo.Context.
func GetValue(c echo.Context) (any, bool) {
	return middleware.ValueFromContext(c.Request().Context())
}
