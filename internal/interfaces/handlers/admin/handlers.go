package admin

import (
	"context"
	"time"

	invsvc "coinease-backend/internal/application/investments"
	"coinease-backend/internal/application/signals"
	txsvc "coinease-backend/internal/application/transactions"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/middleware"
	"coinease-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobRunner runs a named background job on demand.
type JobRunner interface {
	RunNow(ctx context.Context, name string) (string, error)
}

// Handlers serves staff-only endpoints; routes are guarded by AuthorizePermission.
type Handlers struct {
	Transactions *txsvc.Service
	Investments  *invsvc.Service
	Signals      *signals.Service
	Jobs         JobRunner
	Now          func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now()
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("Invalid id")
	}
	return id, nil
}

// PendingDeposits GET /api/v1/admin/deposits/pending
func (h *Handlers) PendingDeposits(c *fiber.Ctx) error {
	list, err := h.Transactions.ListPendingDeposits(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pending deposits fetched successfully", list, fiber.Map{"count": len(list)})
}

type ReviewRequest struct {
	Approve *bool `json:"approve"`
}

// ReviewDeposit PATCH /api/v1/admin/deposits/:id
func (h *Handlers) ReviewDeposit(c *fiber.Ctx) error {
	reviewer, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil || req.Approve == nil {
		return response.Error(c, "approve must be true or false", fiber.StatusBadRequest, nil)
	}
	t, err := h.Transactions.ReviewDeposit(c.UserContext(), id, *req.Approve, reviewer)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Deposit rejected"
	if *req.Approve {
		msg = "Deposit approved"
	}
	return response.Success(c, msg, t, nil)
}

type PlanRequest struct {
	Tier       string          `json:"tier"`
	Level      string          `json:"level"`
	DailyROI   decimal.Decimal `json:"daily_roi"`
	MinDeposit decimal.Decimal `json:"min_deposit"`
	MaxDeposit decimal.Decimal `json:"max_deposit"`
	Duration   int             `json:"duration"`
	IsActive   *bool           `json:"is_active"`
}

// CreatePlan POST /api/v1/admin/plans
func (h *Handlers) CreatePlan(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p, err := h.Investments.CreatePlan(c.UserContext(), invsvc.PlanInput{
		Tier:       domain.PlanTier(req.Tier),
		Level:      domain.PlanLevel(req.Level),
		DailyROI:   req.DailyROI,
		MinDeposit: req.MinDeposit,
		MaxDeposit: req.MaxDeposit,
		Duration:   req.Duration,
		IsActive:   active,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Plan created successfully", p, nil)
}

type PlanUpdateRequest struct {
	DailyROI   *decimal.Decimal `json:"daily_roi"`
	MinDeposit *decimal.Decimal `json:"min_deposit"`
	MaxDeposit *decimal.Decimal `json:"max_deposit"`
	Duration   *int             `json:"duration"`
	IsActive   *bool            `json:"is_active"`
}

// UpdatePlan PATCH /api/v1/admin/plans/:id
func (h *Handlers) UpdatePlan(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req PlanUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Investments.UpdatePlan(c.UserContext(), id, invsvc.PlanUpdate{
		DailyROI:   req.DailyROI,
		MinDeposit: req.MinDeposit,
		MaxDeposit: req.MaxDeposit,
		Duration:   req.Duration,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Plan updated successfully", p, nil)
}

// CancelInvestment POST /api/v1/admin/investments/:id/cancel
func (h *Handlers) CancelInvestment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	v, err := h.Investments.CancelInvestment(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Investment cancelled", v, nil)
}

type SignalRequest struct {
	Level     int        `json:"signal_strength"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// GrantSignal PATCH /api/v1/admin/users/:id/signal
func (h *Handlers) GrantSignal(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req SignalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Signals.Grant(c.UserContext(), id, req.Level, req.ExpiresAt, h.now())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Signal strength updated", fiber.Map{
		"user_id":           u.ID,
		"signal_strength":   u.SignalStrength,
		"signal_expires_at": u.SignalExpiresAt,
	}, nil)
}

// RunJob POST /api/v1/admin/jobs/:name/run
func (h *Handlers) RunJob(c *fiber.Ctx) error {
	name := c.Params("name")
	result, err := h.Jobs.RunNow(c.UserContext(), name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Job completed", fiber.Map{"job": name, "result": result}, nil)
}
