package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/shortspipe/internal/service"
	"github.com/maheshrc27/shortspipe/internal/transfer"
)

type UploadHandler struct {
	s service.UploadService
}

func NewUploadHandler(s service.UploadService) *UploadHandler {
	return &UploadHandler{s: s}
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	if !strings.Contains(c.Get(fiber.HeaderContentType), "multipart/form-data") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content type. Must be multipart/form-data",
		})
	}

	video, err := c.FormFile("video")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No video file provided",
		})
	}

	var hashtags []string
	if raw := c.FormValue("hashtags"); raw != "" {
		hashtags = strings.Split(raw, ",")
	}

	req := &transfer.UploadRequest{
		AccountName: c.FormValue("accountname"),
		Description: c.FormValue("description"),
		Hashtags:    hashtags,
		SoundName:   c.FormValue("sound_name"),
		SoundVolume: c.FormValue("sound_aud_vol", "mix"),
	}

	result, err := h.s.Upload(c.Context(), req, video)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"message":  "Video uploaded successfully",
		"video_id": result.VideoID,
		"url":      result.URL,
	})
}
