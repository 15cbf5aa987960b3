package transactions

import (
	txsvc "coinease-backend/internal/application/transactions"
	"coinease-backend/internal/middleware"
	"coinease-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *txsvc.Service
}

type DepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	WalletAddress string          `json:"wallet_address"`
	Network       string          `json:"network"`
	Description   string          `json:"description"`
}

// CreateDeposit POST /api/v1/transactions/deposits
func (h *Handlers) CreateDeposit(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	t, err := h.Service.CreateDeposit(c.UserContext(), userID, txsvc.DepositInput{
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
		Network:       req.Network,
		Description:   req.Description,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Deposit submitted for review", t, nil)
}

type WithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Address        string          `json:"withdrawal_address"`
	Network        string          `json:"network"`
	Method         string          `json:"method"`
	TransactionPin string          `json:"transaction_pin"`
}

// CreateWithdrawal POST /api/v1/transactions/withdrawals
func (h *Handlers) CreateWithdrawal(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req WithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	t, err := h.Service.CreateWithdrawal(c.UserContext(), userID, txsvc.WithdrawalInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Address:  req.Address,
		Network:  req.Network,
		Method:   req.Method,
		Pin:      req.TransactionPin,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Withdrawal successful", t, nil)
}

// List GET /api/v1/transactions?type=&status=
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListTransactions(c.UserContext(), userID, c.Query("type"), c.Query("status"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transactions fetched successfully", list, fiber.Map{"count": len(list)})
}

// Get GET /api/v1/transactions/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid transaction id", fiber.StatusBadRequest, nil)
	}
	t, err := h.Service.GetTransaction(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction fetched successfully", t, nil)
}
