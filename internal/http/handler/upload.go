package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"chunkvault/internal/logging"
	"chunkvault/internal/service"
)

// UploadChunk godoc
// @Summary  Upload one chunk of a file
// @Tags     upload
// @Accept   multipart/form-data
// @Produce  json
// @Param    file          formData file   true "chunk payload"
// @Param    chunk_index   formData int    true "chunk ordinal"
// @Param    unique_folder formData string true "upload session key"
// @Param    filename      formData string true "original filename"
// @Success  200 {object} chunkResponse
// @Failure  400 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /upload_chunk/ [post]
func UploadChunk(svc service.UploadService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		index, err := strconv.Atoi(c.FormValue("chunk_index"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CHUNK_INDEX", "chunk_index must be an integer")
		}
		session := c.FormValue("unique_folder")
		if session == "" {
			return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "unique_folder is required")
		}
		filename := c.FormValue("filename")
		if filename == "" {
			return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		if err := svc.StoreChunk(c.UserContext(), session, index, filename, f, fh.Size); err != nil {
			return writeAppError(c, log, err)
		}
		return c.JSON(chunkResponse{Status: "chunk received", Index: index})
	}
}

// MergeChunks godoc
// @Summary  Assemble an upload session into one file
// @Tags     upload
// @Produce  json
// @Param    unique_folder query string true "upload session key"
// @Success  200 {object} mergeResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /merge_chunks/ [post]
func MergeChunks(svc service.UploadService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := c.Query("unique_folder")
		if session == "" {
			session = c.FormValue("unique_folder")
		}
		if session == "" {
			return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "unique_folder is required")
		}

		res, err := svc.Merge(c.UserContext(), session)
		if err != nil {
			return writeAppError(c, log, err)
		}
		return c.JSON(mergeResponse{
			Status:      "merge complete",
			Filename:    res.Filename,
			URL:         res.URL,
			ManageToken: res.ManageToken,
		})
	}
}

type chunkResponse struct {
	Status string `json:"status"`
	Index  int    `json:"index"`
}

type mergeResponse struct {
	Status      string `json:"status"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ManageToken string `json:"manage_token"`
}
