package transactions

import (
	"context"
	"errors"
	"testing"

	"coinease-backend/internal/application/emails"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTransactionsTest(t *testing.T, balance string) (*Service, *gorm.DB, *domain.User, *emails.Recorder) {
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, testdb.UserOpts{Balance: balance})
	rec := &emails.Recorder{}
	svc := &Service{DB: db, Mailer: rec, AdminEmail: "ops@coinease.io", DefaultCurrency: "USDT"}
	return svc, db, user, rec
}

func TestCreateDeposit_PendingAndAlertsAdmin(t *testing.T) {
	svc, db, user, rec := setupTransactionsTest(t, "0")

	txn, err := svc.CreateDeposit(context.Background(), user.ID, DepositInput{
		Amount:        decimal.RequireFromString("250.5"),
		WalletAddress: "0xabc",
		Network:       "ERC20",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionPending, txn.Status)
	assert.Equal(t, "USDT", txn.Currency)
	assert.True(t, testdb.ReloadUser(t, db, user.ID).Balance.IsZero())

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "deposit_alert", sent[0].Kind)
	assert.Equal(t, "ops@coinease.io", sent[0].To)
	assert.Equal(t, "250.50", sent[0].Alert.Amount)
	assert.Equal(t, txn.ID.String(), sent[0].Alert.TransactionID)
}

func TestCreateDeposit_MailFailureIsSwallowed(t *testing.T) {
	svc, _, user, rec := setupTransactionsTest(t, "0")
	rec.Err = errors.New("smtp down")

	txn, err := svc.CreateDeposit(context.Background(), user.ID, DepositInput{Amount: decimal.NewFromInt(10), WalletAddress: "0xabc"})
	require.NoError(t, err)
	assert.NotNil(t, txn)
}

func TestCreateDeposit_Validation(t *testing.T) {
	svc, _, user, _ := setupTransactionsTest(t, "0")
	ctx := context.Background()

	_, err := svc.CreateDeposit(ctx, user.ID, DepositInput{Amount: decimal.NewFromInt(-5), WalletAddress: "0xabc"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.CreateDeposit(ctx, user.ID, DepositInput{Amount: decimal.NewFromInt(5)})
	kind, _ := domain.KindOf(err)
	assert.Equal(t, domain.KindValidation, kind)

	_, err = svc.CreateDeposit(ctx, uuid.New(), DepositInput{Amount: decimal.NewFromInt(5), WalletAddress: "0xabc"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestReviewDeposit(t *testing.T) {
	svc, db, user, _ := setupTransactionsTest(t, "10")
	ctx := context.Background()
	reviewer := uuid.New()

	dep, err := svc.CreateDeposit(ctx, user.ID, DepositInput{Amount: decimal.NewFromInt(90), WalletAddress: "0xabc"})
	require.NoError(t, err)

	pending, err := svc.ListPendingDeposits(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	reviewed, err := svc.ReviewDeposit(ctx, dep.ID, true, reviewer)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionSuccessful, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, reviewer, *reviewed.ReviewedBy)
	assert.True(t, testdb.ReloadUser(t, db, user.ID).Balance.Equal(decimal.NewFromInt(100)))

	_, err = svc.ReviewDeposit(ctx, dep.ID, false, reviewer)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	pending, err = svc.ListPendingDeposits(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.ReviewDeposit(ctx, uuid.New(), true, reviewer)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestReviewDeposit_RejectLeavesBalance(t *testing.T) {
	svc, db, user, _ := setupTransactionsTest(t, "10")
	ctx := context.Background()

	dep, err := svc.CreateDeposit(ctx, user.ID, DepositInput{Amount: decimal.NewFromInt(90), WalletAddress: "0xabc"})
	require.NoError(t, err)
	reviewed, err := svc.ReviewDeposit(ctx, dep.ID, false, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionFailed, reviewed.Status)
	assert.True(t, testdb.ReloadUser(t, db, user.ID).Balance.Equal(decimal.NewFromInt(10)))
}

func TestCreateWithdrawal(t *testing.T) {
	svc, db, user, _ := setupTransactionsTest(t, "100")
	ctx := context.Background()

	txn, err := svc.CreateWithdrawal(ctx, user.ID, WithdrawalInput{
		Amount:  decimal.RequireFromString("40.25"),
		Address: "TXabc",
		Network: "TRC20",
		Pin:     testdb.TestPin,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionSuccessful, txn.Status)
	assert.Equal(t, domain.TransactionWithdrawal, txn.Type)
	assert.JSONEq(t, `{"withdrawal_address":"TXabc","network":"TRC20","method":"crypto"}`, string(txn.Details))
	assert.Equal(t, "59.75", testdb.ReloadUser(t, db, user.ID).Balance.StringFixed(2))
}

func TestCreateWithdrawal_AboveBalanceWritesNothing(t *testing.T) {
	svc, db, user, _ := setupTransactionsTest(t, "100")

	_, err := svc.CreateWithdrawal(context.Background(), user.ID, WithdrawalInput{
		Amount:  decimal.RequireFromString("100.01"),
		Address: "TXabc",
		Pin:     testdb.TestPin,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, testdb.Entries(t, db, user.ID))
	assert.True(t, testdb.ReloadUser(t, db, user.ID).Balance.Equal(decimal.NewFromInt(100)))
}

func TestCreateWithdrawal_Rejections(t *testing.T) {
	svc, db, user, _ := setupTransactionsTest(t, "100")
	ctx := context.Background()

	_, err := svc.CreateWithdrawal(ctx, user.ID, WithdrawalInput{Amount: decimal.NewFromInt(10), Address: "TXabc", Pin: "9999"})
	assert.ErrorIs(t, err, domain.ErrInvalidPin)

	_, err = svc.CreateWithdrawal(ctx, user.ID, WithdrawalInput{Amount: decimal.NewFromInt(10), Address: "TXabc"})
	kind, _ := domain.KindOf(err)
	assert.Equal(t, domain.KindValidation, kind)

	_, err = svc.CreateWithdrawal(ctx, user.ID, WithdrawalInput{Amount: decimal.Zero, Address: "TXabc", Pin: testdb.TestPin})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.Empty(t, testdb.Entries(t, db, user.ID))
}

func TestListAndGetTransactions(t *testing.T) {
	svc, _, user, _ := setupTransactionsTest(t, "100")
	ctx := context.Background()

	dep, err := svc.CreateDeposit(ctx, user.ID, DepositInput{Amount: decimal.NewFromInt(5), WalletAddress: "0xabc"})
	require.NoError(t, err)
	_, err = svc.CreateWithdrawal(ctx, user.ID, WithdrawalInput{Amount: decimal.NewFromInt(5), Address: "TXabc", Pin: testdb.TestPin})
	require.NoError(t, err)

	all, err := svc.ListTransactions(ctx, user.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deposits, err := svc.ListTransactions(ctx, user.ID, "deposit", "pending")
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, dep.ID, deposits[0].ID)

	_, err = svc.ListTransactions(ctx, user.ID, "gift", "")
	kind, _ := domain.KindOf(err)
	assert.Equal(t, domain.KindValidation, kind)

	got, err := svc.GetTransaction(ctx, user.ID, dep.ID)
	require.NoError(t, err)
	assert.Equal(t, dep.ID, got.ID)

	_, err = svc.GetTransaction(ctx, uuid.New(), dep.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}
