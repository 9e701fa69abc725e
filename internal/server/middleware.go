package server

import (
	"context"
	"net/http"

	"chatdock/internal/errors"
	"chatdock/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/rs/xid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ContextKeyRequestID is the key for request ID in context
const ContextKeyRequestID contextKey = "request_id"

// contextEnricher copies the request id into the request context so that
// code below the handlers can log it
func contextEnricher() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, _ := c.Get("request_id").(string)
			if reqID == "" {
				reqID = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if reqID == "" {
				reqID = xid.New().String()
			}

			ctx := context.WithValue(c.Request().Context(), ContextKeyRequestID, reqID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ErrorHandler renders every error as {error:{code,message,details,output}}
// with the status derived from the error code
func ErrorHandler(err error, c echo.Context) {
	code, body := errors.ToResponse(err)

	if code >= http.StatusInternalServerError {
		logger.GetLogger(c).WithError(err).Error("Request error")
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := c.JSON(code, body); err != nil {
		logger.WithError(err).Error("Failed to write error response")
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
