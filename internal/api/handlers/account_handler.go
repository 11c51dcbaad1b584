package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/shortspipe/internal/repository"
	"github.com/maheshrc27/shortspipe/internal/service"
	"github.com/maheshrc27/shortspipe/internal/transfer"
)

type AccountHandler struct {
	ar   repository.AccountRepository
	auth service.AuthService
}

func NewAccountHandler(ar repository.AccountRepository, auth service.AuthService) *AccountHandler {
	return &AccountHandler{ar: ar, auth: auth}
}

// CheckAccount returns presence flags for a stored account without ever
// echoing the secret values themselves.
func (h *AccountHandler) CheckAccount(c *fiber.Ctx) error {
	accountName := c.Query("accountname")
	if accountName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Account name is required as a query parameter",
		})
	}

	account, err := h.ar.GetByName(accountName)
	if err != nil {
		return errorResponse(c, err)
	}

	channelTitle := account.ChannelTitle
	if channelTitle == "" {
		channelTitle = "Unknown"
	}
	scopes := account.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"account_info": transfer.AccountInfo{
			Account:         accountName,
			HasToken:        account.HasToken(),
			HasRefreshToken: account.RefreshToken != "",
			TokenExpiry:     account.TokenExpiry,
			ChannelTitle:    channelTitle,
			Scopes:          scopes,
		},
	})
}

func (h *AccountHandler) RefreshToken(c *fiber.Ctx) error {
	var req transfer.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if req.AccountName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Account name is required",
		})
	}

	_, expiry, err := h.auth.ForceRefresh(c.Context(), req.AccountName)
	if err != nil {
		return errorResponse(c, err)
	}

	expires := "unknown"
	if !expiry.IsZero() {
		expires = expiry.Format(time.RFC3339)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Token refreshed successfully",
		"expires": expires,
	})
}
