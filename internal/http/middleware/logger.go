package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"chunkvault/internal/logging"
)

// Logger is a middleware that logs each HTTP request in JSON format to stdout.
// Required fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter is Logger writing to w with "ts" rendered in loc.
//
// An error returned by the chain is passed to the app's ErrorHandler here, so
// the logged status is the one the client receives. The middleware then
// returns nil.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	log := logging.New(w, loc)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Collect fields after handler executed to capture final status
				status := c.Response().StatusCode()
		fields := map[string]any{
			"request_id": RequestIDFrom(c),
			"method":     c.Method(),
			// Use only the path segment (no query string); tokens travel in the query
			"path":    c.Path(),
			"status":  status,
			"latency": float64(time.Since(start).Microseconds()) / 1000,
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("http_request", chainErr, fields)
		case status >= fiber.StatusBadRequest:
			log.Warn("http_request", fields)
		default:
			log.Info("http_request", fields)
		}
		return nil
	}
}
