package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status        int      `json:"status"`
	Code          string   `json:"code"`    // Error code: bad_request, not_found, out_of_region, etc.
	Message       string   `json:"message"` // Human-readable message
	MissingFields []string `json:"missing_fields,omitempty"`
	RequestID     string   `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return writeError(c, APIError{Status: status, Code: code, Message: message})
}

func writeError(c *fiber.Ctx, e APIError) error {
	e.RequestID, _ = c.Locals("requestid").(string)
	return c.Status(e.Status).JSON(e)
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errDomain maps a service error onto its HTTP representation.
func errDomain(c *fiber.Ctx, err error) error {
	var mf *domain.MissingFieldsError
	switch {
	case errors.As(err, &mf):
		return writeError(c, APIError{
			Status:        422,
			Code:          "missing_fields",
			Message:       "missing fields in form data",
			MissingFields: mf.Fields,
		})
	case errors.Is(err, domain.ErrMissingImage):
		return newError(c, 422, "missing_image", "no image was provided")
	case errors.Is(err, domain.ErrUnreadableImage):
		return newError(c, 422, "unreadable_image", "image could not be read")
	case errors.Is(err, domain.ErrGeolocationUnavailable):
		return newError(c, 400, "geolocation_unavailable", "geolocation could not be determined")
	case errors.Is(err, domain.ErrOutOfRegion):
		return newError(c, 400, "out_of_region", "geolocation is outside the service region")
	case errors.Is(err, domain.ErrNotFound):
		return newError(c, 404, "not_found", "report not found")
	case errors.Is(err, domain.ErrAlreadyUpvoted):
		return newError(c, 409, "already_upvoted", "user has already upvoted this report")
	case errors.Is(err, domain.ErrUpdateFailed):
		return newError(c, 500, "update_failed", "failed to update upvote count")
	case errors.Is(err, domain.ErrStorageUnavailable):
		LoggerFromCtx(c.UserContext()).Error("storage unavailable", "path", c.Path(), "error", err)
		return newError(c, 503, "storage_unavailable", "storage is temporarily unavailable")
	default:
		slog.Error("unhandled error", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
}
