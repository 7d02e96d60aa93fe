package http

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/usecases"
)

// CreateReportResponse is returned by POST /v1/reports.
type CreateReportResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateReportHandler ingests a multipart report submission.
func CreateReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := usecases.CreateReportInput{
			Description: c.FormValue("description"),
			Category:    c.FormValue("category"),
			UserID:      userID(c),
		}
		if form := c.FormValue("userID"); form != "" && form != strconv.FormatInt(in.UserID, 10) {
			LoggerFromCtx(c.UserContext()).Debug("ignoring userID form field in favour of token",
				"form_user_id", form, "user_id", in.UserID)
		}

		if fh, err := c.FormFile("image"); err == nil {
			upload, err := readUpload(fh)
			if err != nil {
				return errBadRequest(c, "could not read uploaded image")
			}
			in.Image = upload
		}

		report, err := deps.Reports.Create(c.UserContext(), in)
		if err != nil {
			return errDomain(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(CreateReportResponse{
			ID:  report.ID,
			URL: reportURL(deps.PublicBaseURL, report.ID),
		})
	}
}

func readUpload(fh *multipart.FileHeader) (*domain.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &domain.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func reportURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/v1/reports/" + id
}

// ListReportsHandler returns every report.
func ListReportsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reports, err := deps.Reports.List(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		c.Set("Cache-Control", "private, max-age=0")
		return sendList(c, reports)
	}
}

// ListUserReportsHandler returns the reports submitted by one user.
func ListUserReportsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := strconv.ParseInt(c.Params("userID"), 10, 64)
		if err != nil {
			return errBadRequest(c, "userID must be an integer")
		}
		reports, err := deps.Reports.ListByUser(c.UserContext(), uid)
		if err != nil {
			return errDomain(c, err)
		}
		c.Set("Cache-Control", "private, max-age=0")
		return sendList(c, reports)
	}
}

// GetReportHandler returns a single report.
func GetReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := deps.Reports.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(report)
	}
}

// ResolveReportHandler marks a report resolved.
func ResolveReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Reports.Resolve(c.UserContext(), c.Params("id")); err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"message": "report marked as resolved"})
	}
}

// UpvoteReportHandler records the caller's upvote.
func UpvoteReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Reports.Upvote(c.UserContext(), c.Params("id"), userID(c)); err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"message": "report upvoted successfully"})
	}
}

// DeleteReportHandler removes a report and its image.
func DeleteReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Reports.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
