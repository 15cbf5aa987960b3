package investments

import (
	invsvc "coinease-backend/internal/application/investments"
	"coinease-backend/internal/middleware"
	"coinease-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *invsvc.Service
}

// ListPlans GET /api/v1/investments/plans
func (h *Handlers) ListPlans(c *fiber.Ctx) error {
	plans, err := h.Service.ListPlans(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	out := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		out = append(out, fiber.Map{
			"id":          plans[i].ID,
			"name":        plans[i].Name(),
			"tier":        plans[i].Tier,
			"level":       plans[i].Level,
			"daily_roi":   plans[i].DailyROI,
			"min_deposit": plans[i].MinDeposit,
			"max_deposit": plans[i].MaxDeposit,
			"duration":    plans[i].Duration,
		})
	}
	return response.Success(c, "Plans fetched successfully", out, nil)
}

type CreateRequest struct {
	PlanID   string          `json:"plan_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Create POST /api/v1/investments
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return response.Error(c, "Invalid plan id", fiber.StatusBadRequest, nil)
	}
	v, err := h.Service.CreateInvestment(c.UserContext(), userID, invsvc.CreateInput{
		PlanID:   planID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Investment created successfully", v, nil)
}

// List GET /api/v1/investments?status=
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListInvestments(c.UserContext(), userID, c.Query("status"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Investments fetched successfully", list, fiber.Map{"count": len(list)})
}

// Get GET /api/v1/investments/:id. Evaluates a due payout before responding.
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid investment id", fiber.StatusBadRequest, nil)
	}
	v, err := h.Service.GetInvestment(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Investment fetched successfully", v, nil)
}
