package auth

import (
	"context"

	authsvc "coinease-backend/internal/application/auth"
	usersvc "coinease-backend/internal/application/user"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/middleware"
	"coinease-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
}

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Users      Registrar
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

type RegisterRequest struct {
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Password       string `json:"password"`
	TransactionPin string `json:"transaction_pin"`
	WalletNetwork  string `json:"wallet_network"`
	WalletAddress  string `json:"wallet_address"`
}

// Register POST /api/v1/auth/register: create the account and log it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Users.Register(c.UserContext(), usersvc.RegisterInput{
		Email:          req.Email,
		FullName:       req.FullName,
		Password:       req.Password,
		TransactionPin: req.TransactionPin,
		WalletNetwork:  req.WalletNetwork,
		WalletAddress:  req.WalletAddress,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.startSession(c, u); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Account created successfully", fiber.Map{"user": u}, nil)
}

// Login POST /api/v1/auth/login: authenticate, create session, track it under user_sessions:<id>, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, authsvc.ErrEmailPasswordRequired)
	}
	if req.Email == "" || req.Password == "" {
		return response.FromError(c, authsvc.ErrEmailPasswordRequired)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.startSession(c, user); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": sessionShape(user)}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, user *domain.User) error {
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   user.ID.String(),
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err := h.Rdb.SAdd(context.Background(), middleware.UserSessionsPrefix+user.ID.String(), sessionID).Err(); err != nil {
		return err
	}
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return nil
}

func sessionShape(u *domain.User) authsvc.SessionUserShape {
	return authsvc.SessionUserShape{
		UserID:   u.ID.String(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// Me GET /api/v1/auth/me: current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		log.Debug().Str("path", "/auth/me").
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Bool("session_user_nil", sessionUser == nil).
			Msg("auth/me: not authenticated")
		return response.FromError(c, err)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if id, ok := middleware.CurrentUserID(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+id.String(), sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: end every session of the current user.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	n, err := middleware.DestroyUserSessions(c.UserContext(), h.Rdb, id.String())
	if err != nil {
		return response.FromError(c, err)
	}
	middleware.DestroySession(c)
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "All sessions ended", fiber.Map{"sessions": n}, nil)
}
