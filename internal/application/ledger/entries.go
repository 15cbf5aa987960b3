package ledger

import (
	"fmt"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/money"

	"github.com/shopspring/decimal"
)

// Entry is one kind of monetary event. Each kind knows how it moves a
// balance and which type-specific fields it records.
type Entry interface {
	Type() domain.TransactionType
	Amount() decimal.Decimal
	// ApplyToBalance returns the balance after the entry takes effect.
	ApplyToBalance(balance decimal.Decimal) (decimal.Decimal, error)
	Describe() string
	Details() map[string]interface{}
}

func credit(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	return money.Quantize(balance.Add(amount)), nil
}

func debit(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if balance.LessThan(amount) {
		return balance, domain.ErrInsufficientBalance
	}
	return money.Quantize(balance.Sub(amount)), nil
}

type Deposit struct {
	Amt           decimal.Decimal
	WalletAddress string
	Network       string
	Note          string
}

func (Deposit) Type() domain.TransactionType { return domain.TransactionDeposit }
func (d Deposit) Amount() decimal.Decimal    { return d.Amt }
func (d Deposit) ApplyToBalance(b decimal.Decimal) (decimal.Decimal, error) {
	return credit(b, d.Amt)
}
func (d Deposit) Describe() string {
	if d.Note != "" {
		return d.Note
	}
	return fmt.Sprintf("Deposit of %s", money.Format(d.Amt))
}
func (d Deposit) Details() map[string]interface{} {
	return map[string]interface{}{"wallet_address": d.WalletAddress, "network": d.Network}
}

type Withdrawal struct {
	Amt     decimal.Decimal
	Address string
	Network string
	Method  string
}

func (Withdrawal) Type() domain.TransactionType { return domain.TransactionWithdrawal }
func (w Withdrawal) Amount() decimal.Decimal    { return w.Amt }
func (w Withdrawal) ApplyToBalance(b decimal.Decimal) (decimal.Decimal, error) {
	return debit(b, w.Amt)
}
func (w Withdrawal) Describe() string {
	return fmt.Sprintf("Withdrawal to %s", w.Address)
}
func (w Withdrawal) Details() map[string]interface{} {
	return map[string]interface{}{"withdrawal_address": w.Address, "network": w.Network, "method": w.Method}
}

// InvestmentDebit moves principal out of the balance into a plan.
type InvestmentDebit struct {
	Amt      decimal.Decimal
	PlanName string
}

func (InvestmentDebit) Type() domain.TransactionType { return domain.TransactionInvestment }
func (i InvestmentDebit) Amount() decimal.Decimal    { return i.Amt }
func (i InvestmentDebit) ApplyToBalance(b decimal.Decimal) (decimal.Decimal, error) {
	return debit(b, i.Amt)
}
func (i InvestmentDebit) Describe() string {
	return fmt.Sprintf("Investment in %s", i.PlanName)
}
func (i InvestmentDebit) Details() map[string]interface{} {
	return map[string]interface{}{"plan": i.PlanName}
}

type InvestmentReturn struct {
	Amt      decimal.Decimal
	PlanName string
	Final    bool
}

func (InvestmentReturn) Type() domain.TransactionType { return domain.TransactionInvestmentReturn }
func (r InvestmentReturn) Amount() decimal.Decimal    { return r.Amt }
func (r InvestmentReturn) ApplyToBalance(b decimal.Decimal) (decimal.Decimal, error) {
	return credit(b, r.Amt)
}
func (r InvestmentReturn) Describe() string {
	if r.Final {
		return fmt.Sprintf("Final return from %s", r.PlanName)
	}
	return fmt.Sprintf("Daily return from %s", r.PlanName)
}
func (r InvestmentReturn) Details() map[string]interface{} {
	return map[string]interface{}{"plan": r.PlanName, "final": r.Final}
}

// InvestmentCompleted returns principal to the balance.
type InvestmentCompleted struct {
	Amt       decimal.Decimal
	PlanName  string
	Cancelled bool
}

func (InvestmentCompleted) Type() domain.TransactionType { return domain.TransactionInvestmentCompleted }
func (c InvestmentCompleted) Amount() decimal.Decimal    { return c.Amt }
func (c InvestmentCompleted) ApplyToBalance(b decimal.Decimal) (decimal.Decimal, error) {
	return credit(b, c.Amt)
}
func (c InvestmentCompleted) Describe() string {
	if c.Cancelled {
		return fmt.Sprintf("Principal returned from cancelled %s", c.PlanName)
	}
	return fmt.Sprintf("Principal returned from %s", c.PlanName)
}
func (c InvestmentCompleted) Details() map[string]interface{} {
	return map[string]interface{}{"plan": c.PlanName, "cancelled": c.Cancelled}
}
