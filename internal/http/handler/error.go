package handler

import (
	"errors"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"chunkvault/internal/apperr"
	"chunkvault/internal/http/middleware"
	"chunkvault/internal/logging"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "FILE_REQUIRED", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// statusOf maps an error kind to its HTTP status and response code.
// Token failures are distinguished in logs and metrics only.
func statusOf(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindInvalidRequest:
		return fiber.StatusBadRequest, "BAD_REQUEST"
	case apperr.KindSessionNotFound:
		return fiber.StatusNotFound, "SESSION_NOT_FOUND"
	case apperr.KindMetadataMissing:
		return fiber.StatusBadRequest, "METADATA_MISSING"
	case apperr.KindNoChunks:
		return fiber.StatusNotFound, "NO_CHUNKS"
	case apperr.KindRangeNotSatisfiable:
		return fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE"
	case apperr.KindTokenExpired, apperr.KindSignatureInvalid, apperr.KindFilenameMismatch,
		apperr.KindScopeDenied, apperr.KindAccessDenied:
		return fiber.StatusForbidden, "FORBIDDEN"
	case apperr.KindConflict:
		return fiber.StatusConflict, "CONFLICT"
	case apperr.KindFileNotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeAppError translates a service error into the standardized response.
// Server errors are logged with a stack trace and answered generically.
func writeAppError(c *fiber.Ctx, log *logging.Logger, err error) error {
	kind := apperr.KindOf(err)
	status, code := statusOf(kind)

	if status >= fiber.StatusInternalServerError {
		log.Error("request_failed", err, map[string]any{
			"request_id": middleware.RequestIDFrom(c),
			"path":       c.Path(),
			"stack":      string(debug.Stack()),
		})
		return writeError(c, status, code, "internal server error")
	}

	message := apperr.Message(err)
	if kind.Token() {
		log.Info("token_rejected", map[string]any{
			"request_id": middleware.RequestIDFrom(c),
			"path":       c.Path(),
			"reason":     kind.String(),
		})
		message = "invalid or expired token"
	}
	return writeError(c, status, code, message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// It covers routing errors, middleware errors such as the referer guard, and
// recovered panics.
func ErrorHandler(log *logging.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logging.Nop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return writeAppError(c, log, err)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			if fe.Code < fiber.StatusInternalServerError {
				return writeError(c, fe.Code, "BAD_REQUEST", fe.Message)
			}
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
	}
}
