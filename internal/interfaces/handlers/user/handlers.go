package user

import (
	"context"

	usersvc "coinease-backend/internal/application/user"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/middleware"
	"coinease-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Service is what the user handlers need from the user service.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*usersvc.BalanceView, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, up usersvc.ProfileUpdate) (*domain.User, error)
}

type Handlers struct {
	Service Service
}

// Balance GET /api/v1/users/balance
func (h *Handlers) Balance(c *fiber.Ctx) error {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	b, err := h.Service.Balance(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Balance retrieved", b, nil)
}

// UpdateProfileRequest: absent fields are left unchanged.
type UpdateProfileRequest struct {
	FullName      *string `json:"full_name"`
	PhoneNumber   *string `json:"phone_number"`
	Address       *string `json:"address"`
	Occupation    *string `json:"occupation"`
	Country       *string `json:"country"`
	WalletNetwork *string `json:"wallet_network"`
	WalletAddress *string `json:"wallet_address"`
}

// UpdateProfile PUT /api/v1/users/update-profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), id, usersvc.ProfileUpdate{
		FullName:      req.FullName,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		Occupation:    req.Occupation,
		Country:       req.Country,
		WalletNetwork: req.WalletNetwork,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile updated successfully", fiber.Map{"user": u}, nil)
}
