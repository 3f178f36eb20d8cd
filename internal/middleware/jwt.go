package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // context carries the request deadline into the identity lookup
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the caller's user id and email into the request context.
// Handlers access them via c.Get("user_id") and c.Get("email"). Any failure
// mode (missing header, malformed/expired token, deleted user) produces the
// same 401 response.
func JWTAuth(validate func(ctx context.Context, raw string) (userID uint64, email string, ok bool)) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header starts with
            // "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            uid, email, ok := validate(c.Request().Context(), raw)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            // Store the caller identity in the context for handlers and
            // downstream middleware (cache keys are scoped per user).
            c.Set("user_id", uid)
            c.Set("email", email)
            return next(c)
        }
    }
}
