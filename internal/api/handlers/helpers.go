package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/shortspipe/internal/apperr"
)

// errorResponse is the single place pipeline failures become HTTP responses.
func errorResponse(c *fiber.Ctx, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case apperr.KindAccountNotFound, apperr.KindSoundNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case apperr.KindReauthRequired:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "OAuth refresh token is invalid or revoked",
			"message": "You need to re-authenticate the YouTube account.",
		})
	case apperr.KindConfigMissing, apperr.KindConfigCorrupt:
		slog.Error("account configuration failure", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error loading account configuration",
		})
	case apperr.KindInvalidMedia, apperr.KindInputNotFound, apperr.KindProcessingFailed,
		apperr.KindRefreshFailed, apperr.KindRemoteUploadFailed:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	default:
		// Uncategorized failures are logged in full but never leaked.
		slog.Error("unexpected error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
