package reward

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// stubRepo is an in-memory Repository for service tests.
type stubRepo struct {
	settings     *Settings
	ledgers      map[uuid.UUID]*Ledger
	transactions []Transaction
}

func newStubRepo(settings *Settings) *stubRepo {
	return &stubRepo{
		settings: settings,
		ledgers:  make(map[uuid.UUID]*Ledger),
	}
}

func (s *stubRepo) GetSettings(_ context.Context) (*Settings, error) {
	if s.settings == nil {
		return nil, ErrSettingsNotFound
	}
	return s.settings, nil
}

func (s *stubRepo) UpdateSettings(_ context.Context, settings *Settings) error {
	s.settings = settings
	return nil
}

func (s *stubRepo) GetLedger(_ context.Context, userID uuid.UUID) (*Ledger, error) {
	return s.ledgers[userID], nil
}

func (s *stubRepo) AwardPoints(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, points int64, description string) error {
	return s.AwardPointsTx(ctx, nil, userID, orderID, points, description)
}

func (s *stubRepo) AwardPointsTx(_ context.Context, _ *sqlx.Tx, userID uuid.UUID, orderID *uuid.UUID, points int64, description string) error {
	if points <= 0 {
		return ErrInvalidRedemptionAmount
	}
	l := s.ledgers[userID]
	if l == nil {
		l = &Ledger{UserID: userID}
		s.ledgers[userID] = l
	}
	l.CurrentPoints += points
	l.TotalEarned += points
	s.transactions = append(s.transactions, Transaction{
		UserID:      userID,
		PointsDelta: points,
		TxType:      TxTypeEarned,
		Description: description,
		OrderID:     orderID,
	})
	return nil
}

func (s *stubRepo) RedeemPoints(_ context.Context, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) error {
	l := s.ledgers[userID]
	if l == nil || l.CurrentPoints < points {
		return ErrInsufficientPoints
	}
	l.CurrentPoints -= points
	l.TotalRedeemed += points
	s.transactions = append(s.transactions, Transaction{
		UserID:      userID,
		PointsDelta: -points,
		TxType:      TxTypeRedeemed,
		Description: description,
		OrderID:     orderID,
	})
	return nil
}

func (s *stubRepo) ListTransactions(_ context.Context, userID uuid.UUID, _ Pagination) ([]Transaction, error) {
	result := make([]Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *stubRepo) ClearHistory(_ context.Context, userID uuid.UUID) error {
	remaining := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			remaining = append(remaining, tx)
		}
	}
	s.transactions = remaining
	return nil
}

func (s *stubRepo) checkInvariant(t *testing.T) {
	t.Helper()
	for userID, l := range s.ledgers {
		if l.CurrentPoints != l.TotalEarned-l.TotalRedeemed {
			t.Errorf("ledger invariant violated for %s: current=%d earned=%d redeemed=%d",
				userID, l.CurrentPoints, l.TotalEarned, l.TotalRedeemed)
		}
	}
}

func TestRedeemComputesDiscount(t *testing.T) {
	repo := newStubRepo(testSettings())
	svc := NewService(repo, nil)
	userID := uuid.New()

	if err := repo.AwardPoints(context.Background(), userID, nil, 500, "seed"); err != nil {
		t.Fatalf("seed award: %v", err)
	}

	discount, err := svc.Redeem(context.Background(), userID, 200, nil)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if !discount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("discount = %s, want 2", discount)
	}

	l := repo.ledgers[userID]
	if l.CurrentPoints != 300 {
		t.Errorf("balance = %d, want 300", l.CurrentPoints)
	}
	repo.checkInvariant(t)
}

func TestRedeemInsufficientPointsLeavesLedgerUnchanged(t *testing.T) {
	repo := newStubRepo(testSettings())
	svc := NewService(repo, nil)
	userID := uuid.New()

	if err := repo.AwardPoints(context.Background(), userID, nil, 100, "seed"); err != nil {
		t.Fatalf("seed award: %v", err)
	}

	_, err := svc.Redeem(context.Background(), userID, 200, nil)
	if err != ErrInsufficientPoints {
		t.Fatalf("error = %v, want ErrInsufficientPoints", err)
	}

	l := repo.ledgers[userID]
	if l.CurrentPoints != 100 || l.TotalRedeemed != 0 {
		t.Errorf("ledger changed after failed redemption: %+v", l)
	}
	repo.checkInvariant(t)
}

func TestRedeemBelowMinimumDoesNotTouchLedger(t *testing.T) {
	repo := newStubRepo(testSettings())
	svc := NewService(repo, nil)
	userID := uuid.New()

	if err := repo.AwardPoints(context.Background(), userID, nil, 100, "seed"); err != nil {
		t.Fatalf("seed award: %v", err)
	}

	_, err := svc.Redeem(context.Background(), userID, 10, nil)
	if err != ErrInvalidRedemptionAmount {
		t.Fatalf("error = %v, want ErrInvalidRedemptionAmount", err)
	}
	if len(repo.transactions) != 1 {
		t.Errorf("transaction log grew on rejected redemption")
	}
}

func TestAwardForOrderTx(t *testing.T) {
	repo := newStubRepo(testSettings())
	svc := NewService(repo, nil)
	userID := uuid.New()
	orderID := uuid.New()

	earned, err := svc.AwardForOrderTx(context.Background(), nil, userID, orderID,
		decimal.NewFromInt(100), CategoryRestaurant)
	if err != nil {
		t.Fatalf("AwardForOrderTx() error = %v", err)
	}
	if earned.TotalPoints != 110 {
		t.Errorf("TotalPoints = %d, want 110", earned.TotalPoints)
	}

	l := repo.ledgers[userID]
	if l == nil || l.CurrentPoints != 110 {
		t.Fatalf("ledger = %+v, want balance 110", l)
	}
	if len(repo.transactions) != 1 || repo.transactions[0].OrderID == nil || *repo.transactions[0].OrderID != orderID {
		t.Errorf("expected one earned transaction referencing the order")
	}
	repo.checkInvariant(t)
}

func TestAwardForOrderTxZeroPointsSkipsLedger(t *testing.T) {
	settings := testSettings()
	settings.PointsPerCurrencyUnit = decimal.Zero
	repo := newStubRepo(settings)
	svc := NewService(repo, nil)

	earned, err := svc.AwardForOrderTx(context.Background(), nil, uuid.New(), uuid.New(),
		decimal.NewFromInt(100), CategoryRestaurant)
	if err != nil {
		t.Fatalf("AwardForOrderTx() error = %v", err)
	}
	if earned.TotalPoints != 0 {
		t.Errorf("TotalPoints = %d, want 0", earned.TotalPoints)
	}
	if len(repo.transactions) != 0 {
		t.Errorf("no transaction expected for zero points")
	}
}

func TestGetBalanceWithoutLedger(t *testing.T) {
	svc := NewService(newStubRepo(testSettings()), nil)
	userID := uuid.New()

	ledger, err := svc.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if ledger.UserID != userID || ledger.CurrentPoints != 0 {
		t.Errorf("ledger = %+v, want zero-valued ledger", ledger)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	repo := newStubRepo(testSettings())
	svc := NewService(repo, nil)

	bad := testSettings()
	bad.PointsToCurrencyRatio = decimal.Zero
	if err := svc.UpdateSettings(context.Background(), bad); err != ErrInvalidSettings {
		t.Errorf("zero ratio: error = %v, want ErrInvalidSettings", err)
	}

	tiered := testSettings()
	tiered.RedemptionPolicy = PolicyTiered
	tiered.RedemptionTiers = nil
	if err := svc.UpdateSettings(context.Background(), tiered); err != ErrInvalidSettings {
		t.Errorf("tiered without tiers: error = %v, want ErrInvalidSettings", err)
	}
}
