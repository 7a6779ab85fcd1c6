package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"chunkvault/internal/logging"
	"chunkvault/internal/service"
)

// ContentInfo godoc
// @Summary  Describe an assembled file
// @Tags     content
// @Produce  json
// @Param    filename path  string true "assembled file name"
// @Param    token    query string true "capability token"
// @Success  200 {object} model.FileInfo
// @Failure  403 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /content/{filename} [get]
func ContentInfo(svc service.ContentService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := svc.Info(c.UserContext(), c.Params("filename"), c.Query("token"))
		if err != nil {
			return writeAppError(c, log, err)
		}
		return c.JSON(info)
	}
}

// StreamFile godoc
// @Summary  Stream an assembled file, honoring a single byte range
// @Tags     content
// @Produce  octet-stream
// @Param    filename path   string true  "assembled file name"
// @Param    token    query  string true  "capability token"
// @Param    Range    header string false "bytes=<start>-<end>"
// @Success  200
// @Success  206
// @Failure  403 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  416 {object} errorPayload
// @Router   /stream/{filename} [get]
func StreamFile(svc service.ContentService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		resp, err := svc.Stream(ctx, c.Params("filename"), c.Query("token"), c.Get(fiber.HeaderRange))
		if err != nil {
			return writeAppError(c, log, err)
		}

		c.Status(resp.Status)
		for k, v := range resp.Header {
			c.Set(k, v)
		}
		// fasthttp closes the stream once written or when the client goes away,
		// which releases the underlying file.
		c.Context().SetBodyStream(resp.Body.Reader(ctx), int(resp.Length))
		return nil
	}
}

// ListFiles godoc
// @Summary  List assembled files
// @Tags     files
// @Produce  json
// @Param    limit  query int false "page size" default(10)
// @Param    offset query int false "offset"    default(0)
// @Success  200 {object} service.FileListResult
// @Failure  400 {object} errorPayload
// @Router   /files [get]
func ListFiles(svc service.ContentService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeAppError(c, log, err)
		}
		return c.JSON(res)
	}
}

// DeleteFile godoc
// @Summary  Delete an assembled file
// @Tags     files
// @Param    filename path  string true "assembled file name"
// @Param    token    query string true "manage token returned by merge"
// @Success  204
// @Failure  403 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /files/{filename} [delete]
func DeleteFile(svc service.ContentService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("filename"), c.Query("token")); err != nil {
			return writeAppError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
