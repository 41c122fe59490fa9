package order

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/cart"
	"github.com/bhojan/bhojan-api/internal/domain/catalog"
	"github.com/bhojan/bhojan-api/internal/domain/payment"
	"github.com/bhojan/bhojan-api/internal/domain/reward"
	"github.com/bhojan/bhojan-api/internal/pkg/khalti"
)

// --- fake sql driver so the service's Begin/Commit/Rollback have a real *sqlx.Tx ---

type fakeDriver struct{}
type fakeConn struct{}
type fakeTx struct{}
type fakeStmt struct{}

func (fakeDriver) Open(string) (driver.Conn, error)  { return fakeConn{}, nil }
func (fakeConn) Prepare(string) (driver.Stmt, error) { return fakeStmt{}, nil }
func (fakeConn) Close() error                        { return nil }
func (fakeConn) Begin() (driver.Tx, error)           { return fakeTx{}, nil }
func (fakeTx) Commit() error                         { return nil }
func (fakeTx) Rollback() error                       { return nil }
func (fakeStmt) Close() error                        { return nil }
func (fakeStmt) NumInput() int                       { return -1 }
func (fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}
func (fakeStmt) Query([]driver.Value) (driver.Rows, error) { return fakeRows{}, nil }

type fakeRows struct{}

func (fakeRows) Columns() []string         { return nil }
func (fakeRows) Close() error              { return nil }
func (fakeRows) Next([]driver.Value) error { return io.EOF }

var registerDriverOnce sync.Once

func newTxDB(t *testing.T) *sqlx.DB {
	t.Helper()
	registerDriverOnce.Do(func() {
		sql.Register("ordertest", fakeDriver{})
	})
	db, err := sqlx.Open("ordertest", "")
	if err != nil {
		t.Fatalf("open fake db: %v", err)
	}
	return db
}

// --- in-memory stubs ---

type stubOrderRepo struct {
	db     *sqlx.DB
	orders map[uuid.UUID]*Order
}

func newStubOrderRepo(db *sqlx.DB) *stubOrderRepo {
	return &stubOrderRepo{db: db, orders: make(map[uuid.UUID]*Order)}
}

func (s *stubOrderRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, nil)
}

func (s *stubOrderRepo) CreateTx(_ context.Context, _ *sqlx.Tx, o *Order) error {
	clone := *o
	s.orders[o.ID] = &clone
	return nil
}

func (s *stubOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	if o, ok := s.orders[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, nil
}

func (s *stubOrderRepo) GetForUpdateTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID) (*Order, error) {
	return s.GetByID(ctx, id)
}

func (s *stubOrderRepo) GetItems(_ context.Context, orderID uuid.UUID) ([]Item, error) {
	if o, ok := s.orders[orderID]; ok {
		return o.Items, nil
	}
	return nil, nil
}

func (s *stubOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]Order, error) {
	result := make([]Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *stubOrderRepo) ListByPartner(_ context.Context, partnerID uuid.UUID, _, _ int) ([]Order, error) {
	result := make([]Order, 0)
	for _, o := range s.orders {
		if o.PartnerID == partnerID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *stubOrderRepo) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, status Status) error {
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (s *stubOrderRepo) MarkConfirmedTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, status Status) error {
	if o, ok := s.orders[id]; ok {
		o.IsConfirmed = true
		o.Status = status
	}
	return nil
}

func (s *stubOrderRepo) MarkCompletedTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, rewardsAwarded bool) error {
	if o, ok := s.orders[id]; ok {
		o.Status = StatusCompleted
		o.RewardsAwarded = rewardsAwarded
	}
	return nil
}

type stubRewards struct {
	balance    int64
	awardCalls int
	awarded    int64
	returned   int64
}

func (s *stubRewards) AwardForOrderTx(_ context.Context, _ *sqlx.Tx, _, _ uuid.UUID, amount decimal.Decimal, _ reward.Category) (reward.EarnedPoints, error) {
	s.awardCalls++
	points := amount.Floor().IntPart()
	s.awarded += points
	s.balance += points
	return reward.EarnedPoints{BasePoints: points, TotalPoints: points}, nil
}

func (s *stubRewards) Redeem(_ context.Context, _ uuid.UUID, points int64, _ *uuid.UUID) (decimal.Decimal, error) {
	if points > s.balance {
		return decimal.Zero, reward.ErrInsufficientPoints
	}
	s.balance -= points
	// ratio 100 points per currency unit
	return decimal.NewFromInt(points).Div(decimal.NewFromInt(100)), nil
}

func (s *stubRewards) ReturnPoints(_ context.Context, _ uuid.UUID, points int64, _ string) error {
	s.balance += points
	s.returned += points
	return nil
}

type stubGateway struct {
	verifyOK    bool
	refundOK    bool
	verifyCalls int
	refundCalls int
}

func (s *stubGateway) VerifyPayment(_ context.Context, token string, amount int64) (*khalti.VerifyResult, error) {
	s.verifyCalls++
	if !s.verifyOK {
		return nil, errors.New("gateway timeout")
	}
	return &khalti.VerifyResult{Success: true, ReferenceID: "txn-" + token, Amount: amount}, nil
}

func (s *stubGateway) Refund(_ context.Context, _ string, _ int64) error {
	s.refundCalls++
	if !s.refundOK {
		return errors.New("refund rejected")
	}
	return nil
}

type stubPaymentRepo struct {
	payments map[uuid.UUID]*payment.Payment // keyed by order ID
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*payment.Payment)}
}

func (s *stubPaymentRepo) CreateTx(_ context.Context, _ *sqlx.Tx, p *payment.Payment) error {
	s.payments[p.OrderID] = p
	return nil
}

func (s *stubPaymentRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	return s.payments[orderID], nil
}

func (s *stubPaymentRepo) MarkRefundedTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID) error {
	for _, p := range s.payments {
		if p.ID == id {
			p.Status = payment.StatusRefunded
		}
	}
	return nil
}

func (s *stubPaymentRepo) ListByUser(_ context.Context, _ uuid.UUID, _, _ int) ([]payment.Payment, error) {
	return nil, nil
}

type stubCartRepo struct {
	lines   []cart.Item
	cleared bool
}

func (s *stubCartRepo) Upsert(context.Context, uuid.UUID, uuid.UUID, int) error { return nil }
func (s *stubCartRepo) UpdateQuantity(context.Context, uuid.UUID, uuid.UUID, int) (bool, error) {
	return false, nil
}
func (s *stubCartRepo) Remove(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}
func (s *stubCartRepo) ListByUser(context.Context, uuid.UUID) ([]cart.Item, error) {
	return s.lines, nil
}
func (s *stubCartRepo) Clear(context.Context, uuid.UUID) error { return nil }
func (s *stubCartRepo) ClearTx(context.Context, *sqlx.Tx, uuid.UUID) error {
	s.cleared = true
	return nil
}

type stubCatalogRepo struct {
	catalog.Repository
	partners map[uuid.UUID]*catalog.Partner
}

func (s *stubCatalogRepo) GetPartner(_ context.Context, id uuid.UUID) (*catalog.Partner, error) {
	return s.partners[id], nil
}

func (s *stubCatalogRepo) GetPartnerByOwner(context.Context, uuid.UUID) (*catalog.Partner, error) {
	return nil, nil
}

// --- fixtures ---

type fixture struct {
	svc     *Service
	repo    *stubOrderRepo
	rewards *stubRewards
	gateway *stubGateway
	pays    *stubPaymentRepo
	cart    *stubCartRepo
	cat     *stubCatalogRepo
}

func newFixture(t *testing.T) *fixture {
	db := newTxDB(t)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		repo:    newStubOrderRepo(db),
		rewards: &stubRewards{},
		gateway: &stubGateway{verifyOK: true, refundOK: true},
		pays:    newStubPaymentRepo(),
		cart:    &stubCartRepo{},
		cat:     &stubCatalogRepo{partners: make(map[uuid.UUID]*catalog.Partner)},
	}
	f.svc = NewService(f.repo, f.cart, f.cat, f.pays, f.rewards, f.gateway, nil, nil, decimal.NewFromInt(50))
	return f
}

func (f *fixture) seedOrder(userID uuid.UUID, status Status, confirmed bool, amount string) *Order {
	total, _ := decimal.NewFromString(amount)
	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		PartnerID:   uuid.New(),
		Category:    reward.CategoryRestaurant,
		Status:      status,
		TotalAmount: total,
		IsConfirmed: confirmed,
	}
	f.repo.orders[o.ID] = o
	return o
}

// --- tests ---

func TestCompleteAwardsPointsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	o := f.seedOrder(userID, StatusProcessing, true, "110")

	_, earned, err := f.svc.Complete(context.Background(), o.ID, userID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if earned.TotalPoints != 110 {
		t.Errorf("TotalPoints = %d, want 110", earned.TotalPoints)
	}
	if !f.repo.orders[o.ID].RewardsAwarded {
		t.Error("rewards_awarded flag not set")
	}

	// Second completion must not re-award
	_, _, err = f.svc.Complete(context.Background(), o.ID, userID)
	if err != ErrInvalidTransition {
		t.Errorf("second Complete: error = %v, want ErrInvalidTransition", err)
	}
	if f.rewards.awardCalls != 1 {
		t.Errorf("award calls = %d, want 1", f.rewards.awardCalls)
	}
}

func TestCompleteUnownedOrder(t *testing.T) {
	f := newFixture(t)
	o := f.seedOrder(uuid.New(), StatusProcessing, true, "100")

	_, _, err := f.svc.Complete(context.Background(), o.ID, uuid.New())
	if err != ErrOrderNotFound {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
	if f.rewards.awardCalls != 0 {
		t.Error("points awarded for unowned order")
	}
}

func TestCancelCompletedOrderFails(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	o := f.seedOrder(userID, StatusCompleted, true, "100")

	_, err := f.svc.Cancel(context.Background(), o.ID, userID)
	if err != ErrInvalidTransition {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelPendingOrder(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	o := f.seedOrder(userID, StatusPending, false, "100")

	cancelled, err := f.svc.Cancel(context.Background(), o.ID, userID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestConfirmTwice(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	o := f.seedOrder(userID, StatusPending, false, "100")

	confirmed, err := f.svc.Confirm(context.Background(), o.ID, userID)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.Status != StatusProcessing || !confirmed.IsConfirmed {
		t.Errorf("order = %+v, want confirmed processing", confirmed)
	}

	_, err = f.svc.Confirm(context.Background(), o.ID, userID)
	if err != ErrAlreadyConfirmed {
		t.Errorf("second Confirm: error = %v, want ErrAlreadyConfirmed", err)
	}
}

func TestVerifyPaymentFailureLeavesOrderUnchanged(t *testing.T) {
	f := newFixture(t)
	f.gateway.verifyOK = false
	userID := uuid.New()
	o := f.seedOrder(userID, StatusPending, false, "500")

	_, err := f.svc.VerifyPayment(context.Background(), o.ID, userID, "tok-1")
	if err != ErrPaymentVerificationFailed {
		t.Fatalf("error = %v, want ErrPaymentVerificationFailed", err)
	}

	stored := f.repo.orders[o.ID]
	if stored.Status != StatusPending || stored.IsConfirmed {
		t.Errorf("order state changed after failed verification: %+v", stored)
	}
	if len(f.pays.payments) != 0 {
		t.Error("payment record created for failed verification")
	}
}

func TestVerifyPaymentSuccess(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	o := f.seedOrder(userID, StatusPending, false, "500")

	pay, err := f.svc.VerifyPayment(context.Background(), o.ID, userID, "tok-1")
	if err != nil {
		t.Fatalf("VerifyPayment() error = %v", err)
	}
	if pay.Status != payment.StatusPaid || pay.ReferenceID == "" {
		t.Errorf("payment = %+v, want paid with reference", pay)
	}

	stored := f.repo.orders[o.ID]
	if stored.Status != StatusProcessing || !stored.IsConfirmed {
		t.Errorf("order = %+v, want confirmed processing", stored)
	}
}

func TestRefundWithoutPayment(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	o := f.seedOrder(userID, StatusProcessing, true, "500")

	err := f.svc.Refund(context.Background(), o.ID, userID, false)
	if err != ErrPaymentNotFound {
		t.Errorf("error = %v, want ErrPaymentNotFound", err)
	}
}

func TestRefundGatewayFailureLeavesPayment(t *testing.T) {
	f := newFixture(t)
	f.gateway.refundOK = false
	userID := uuid.New()
	o := f.seedOrder(userID, StatusPending, false, "500")

	if _, err := f.svc.VerifyPayment(context.Background(), o.ID, userID, "tok-1"); err != nil {
		t.Fatalf("VerifyPayment() error = %v", err)
	}

	err := f.svc.Refund(context.Background(), o.ID, userID, false)
	if err != ErrRefundFailed {
		t.Fatalf("error = %v, want ErrRefundFailed", err)
	}
	if f.pays.payments[o.ID].Status != payment.StatusPaid {
		t.Error("payment marked refunded despite gateway failure")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{Address: "Baneshwor, Kathmandu"})
	if err != ErrEmptyCart {
		t.Errorf("error = %v, want ErrEmptyCart", err)
	}
}

func TestCheckoutMixedPartners(t *testing.T) {
	f := newFixture(t)
	price := decimal.NewFromInt(100)
	f.cart.lines = []cart.Item{
		{ID: uuid.New(), MenuItemID: uuid.New(), PartnerID: uuid.New(), Quantity: 1, Price: price, IsAvailable: true},
		{ID: uuid.New(), MenuItemID: uuid.New(), PartnerID: uuid.New(), Quantity: 1, Price: price, IsAvailable: true},
	}

	_, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{Address: "Baneshwor, Kathmandu"})
	if err != ErrMixedPartners {
		t.Errorf("error = %v, want ErrMixedPartners", err)
	}
}

func TestCheckoutWithRedemption(t *testing.T) {
	f := newFixture(t)
	f.rewards.balance = 500

	partnerID := uuid.New()
	f.cat.partners[partnerID] = &catalog.Partner{ID: partnerID, Category: reward.CategoryCafe}
	f.cart.lines = []cart.Item{
		{ID: uuid.New(), MenuItemID: uuid.New(), PartnerID: partnerID, ItemName: "Momo",
			Quantity: 2, Price: decimal.NewFromInt(200), IsAvailable: true},
	}

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Address:      "Baneshwor, Kathmandu",
		RedeemPoints: 200,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	// subtotal 400 + delivery 50 - discount 2
	want, _ := decimal.NewFromString("448")
	if !o.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want 448", o.TotalAmount)
	}
	if !f.cart.cleared {
		t.Error("cart not cleared at checkout")
	}
	if f.rewards.balance != 300 {
		t.Errorf("points balance = %d, want 300", f.rewards.balance)
	}
}

func TestCheckoutInsufficientPointsKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.rewards.balance = 50

	partnerID := uuid.New()
	f.cat.partners[partnerID] = &catalog.Partner{ID: partnerID, Category: reward.CategoryCafe}
	f.cart.lines = []cart.Item{
		{ID: uuid.New(), MenuItemID: uuid.New(), PartnerID: partnerID,
			Quantity: 1, Price: decimal.NewFromInt(200), IsAvailable: true},
	}

	_, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Address:      "Baneshwor, Kathmandu",
		RedeemPoints: 200,
	})
	if err != reward.ErrInsufficientPoints {
		t.Fatalf("error = %v, want ErrInsufficientPoints", err)
	}
	if f.cart.cleared {
		t.Error("cart cleared despite failed checkout")
	}
	if len(f.repo.orders) != 0 {
		t.Error("order created despite failed redemption")
	}
}
