package security

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenAuth gates admin endpoints behind a bearer token checked against
// a bcrypt hash from configuration. With no hash configured, admin access is
// disabled outright.
func AdminTokenAuth(tokenHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenHash == "" {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Admin access is not configured",
				})
			}

			token := c.Request().Header.Get("X-Admin-Token")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Missing admin token",
				})
			}

			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Invalid admin token",
				})
			}

			return next(c)
		}
	}
}
