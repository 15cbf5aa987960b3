package auth

import "coinease-backend/internal/domain"

var (
	ErrEmailPasswordRequired = domain.NewValidationError("Email and password are required")
	ErrNotAuthenticated      = &domain.Error{Kind: domain.KindUnauthorized, Message: "Not authenticated"}
)
