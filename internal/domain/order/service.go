package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/cart"
	"github.com/bhojan/bhojan-api/internal/domain/catalog"
	"github.com/bhojan/bhojan-api/internal/domain/payment"
	"github.com/bhojan/bhojan-api/internal/domain/reward"
	"github.com/bhojan/bhojan-api/internal/pkg/khalti"
)

// RewardLedger is the slice of the reward service the order lifecycle needs.
type RewardLedger interface {
	AwardForOrderTx(ctx context.Context, tx *sqlx.Tx, userID, orderID uuid.UUID, orderAmount decimal.Decimal, category reward.Category) (reward.EarnedPoints, error)
	Redeem(ctx context.Context, userID uuid.UUID, points int64, orderID *uuid.UUID) (decimal.Decimal, error)
	ReturnPoints(ctx context.Context, userID uuid.UUID, points int64, description string) error
}

// PaymentGateway is the verify/refund contract of the external gateway.
// Amounts are in paisa.
type PaymentGateway interface {
	VerifyPayment(ctx context.Context, token string, amount int64) (*khalti.VerifyResult, error)
	Refund(ctx context.Context, referenceID string, amount int64) error
}

// DeliveryPerks checks subscription-granted perks at checkout.
type DeliveryPerks interface {
	HasFreeDelivery(ctx context.Context, userID uuid.UUID) (bool, error)
}

// FeedPublisher broadcasts order status changes to live subscribers.
type FeedPublisher interface {
	PublishStatus(event StatusEvent)
}

// Service owns the order lifecycle
type Service struct {
	repo        Repository
	cartRepo    cart.Repository
	catalogRepo catalog.Repository
	paymentRepo payment.Repository
	rewards     RewardLedger
	gateway     PaymentGateway
	perks       DeliveryPerks // nil if subscriptions disabled
	feed        FeedPublisher // nil if live feed disabled
	deliveryFee decimal.Decimal
}

// NewService creates order service
func NewService(
	repo Repository,
	cartRepo cart.Repository,
	catalogRepo catalog.Repository,
	paymentRepo payment.Repository,
	rewards RewardLedger,
	gateway PaymentGateway,
	perks DeliveryPerks,
	feed FeedPublisher,
	deliveryFee decimal.Decimal,
) *Service {
	return &Service{
		repo:        repo,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		paymentRepo: paymentRepo,
		rewards:     rewards,
		gateway:     gateway,
		perks:       perks,
		feed:        feed,
		deliveryFee: deliveryFee,
	}
}

// CheckoutInput carries checkout parameters
type CheckoutInput struct {
	Address      string
	DeliveryNote string
	RedeemPoints int64 // 0 = no redemption
}

// Checkout turns the user's cart into a pending order. The order rows and the
// cart clearing commit in one transaction. Optional points redemption runs
// first under its own row lock; if order creation then fails the points are
// returned as a compensating credit.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*Order, error) {
	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	partnerID := lines[0].PartnerID
	subtotal := decimal.Zero
	items := make([]Item, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		if line.PartnerID != partnerID {
			return nil, ErrMixedPartners
		}
		if !line.IsAvailable {
			return nil, ErrItemUnavailable
		}
		subtotal = subtotal.Add(line.Subtotal())
		items = append(items, Item{
			ID:         uuid.New(),
			MenuItemID: line.MenuItemID,
			Name:       line.ItemName,
			UnitPrice:  line.Price,
			Quantity:   line.Quantity,
		})
	}

	p, err := s.catalogRepo.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrItemUnavailable
	}

	deliveryFee := s.deliveryFee
	if s.perks != nil {
		if free, err := s.perks.HasFreeDelivery(ctx, userID); err == nil && free {
			deliveryFee = decimal.Zero
		}
	}

	orderID := uuid.New()
	discount := decimal.Zero
	if input.RedeemPoints > 0 {
		discount, err = s.rewards.Redeem(ctx, userID, input.RedeemPoints, &orderID)
		if err != nil {
			return nil, err
		}
	}

	total := subtotal.Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	now := time.Now()
	o := &Order{
		ID:          orderID,
		UserID:      userID,
		PartnerID:   partnerID,
		Category:    p.Category,
		Status:      StatusPending,
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		TotalAmount: total,
		Address:     input.Address,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       items,
	}
	if input.DeliveryNote != "" {
		o.DeliveryNote = sql.NullString{String: input.DeliveryNote, Valid: true}
	}

	if err := s.createOrder(ctx, o); err != nil {
		if input.RedeemPoints > 0 {
			desc := fmt.Sprintf("Returned for failed checkout of order %s", orderID)
			if rerr := s.rewards.ReturnPoints(ctx, userID, input.RedeemPoints, desc); rerr != nil {
				log.Error().Err(rerr).
					Str("user_id", userID.String()).
					Int64("points", input.RedeemPoints).
					Msg("failed to return redeemed points after checkout failure")
			}
		}
		return nil, err
	}

	return o, nil
}

func (s *Service) createOrder(ctx context.Context, o *Order) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(ctx, tx, o); err != nil {
		return err
	}
	if err := s.cartRepo.ClearTx(ctx, tx, o.UserID); err != nil {
		return err
	}

	return tx.Commit()
}

// Get returns an order with its items, owner or admin only
func (s *Service) Get(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || (!isAdmin && o.UserID != userID) {
		return nil, ErrOrderNotFound
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListMy returns the user's orders
func (s *Service) ListMy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListForPartner returns orders placed at the caller's venue
func (s *Service) ListForPartner(ctx context.Context, ownerUserID uuid.UUID, limit, offset int) ([]Order, error) {
	p, err := s.catalogRepo.GetPartnerByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrOrderNotFound
	}
	return s.repo.ListByPartner(ctx, p.ID, limit, offset)
}

// Confirm marks a pending order confirmed and moves it to processing.
func (s *Service) Confirm(ctx context.Context, orderID, userID uuid.UUID) (*Order, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o, err := s.ownedForUpdate(ctx, tx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if o.IsConfirmed {
		return nil, ErrAlreadyConfirmed
	}
	if !o.Status.CanTransitionTo(StatusProcessing) {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.MarkConfirmedTx(ctx, tx, orderID, StatusProcessing); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	o.IsConfirmed = true
	o.Status = StatusProcessing
	s.publish(o)
	return o, nil
}

// Complete transitions the order to completed and awards reward points in the
// same transaction. The row lock plus the rewards_awarded flag guarantee the
// award happens at most once per order.
func (s *Service) Complete(ctx context.Context, orderID, userID uuid.UUID) (*Order, reward.EarnedPoints, error) {
	var earned reward.EarnedPoints

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, earned, err
	}
	defer tx.Rollback()

	o, err := s.ownedForUpdate(ctx, tx, orderID, userID)
	if err != nil {
		return nil, earned, err
	}

	if !o.Status.CanTransitionTo(StatusCompleted) {
		return nil, earned, ErrInvalidTransition
	}

	awarded := o.RewardsAwarded
	if !awarded {
		earned, err = s.rewards.AwardForOrderTx(ctx, tx, o.UserID, o.ID, o.TotalAmount, o.Category)
		if err != nil {
			return nil, reward.EarnedPoints{}, err
		}
		awarded = true
	}

	if err := s.repo.MarkCompletedTx(ctx, tx, orderID, awarded); err != nil {
		return nil, reward.EarnedPoints{}, err
	}
	if err := tx.Commit(); err != nil {
		return nil, reward.EarnedPoints{}, err
	}

	o.Status = StatusCompleted
	o.RewardsAwarded = awarded
	s.publish(o)
	return o, earned, nil
}

// Cancel moves a non-terminal order to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*Order, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o, err := s.ownedForUpdate(ctx, tx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if o.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatusTx(ctx, tx, orderID, StatusCancelled); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	o.Status = StatusCancelled
	s.publish(o)
	return o, nil
}

// VerifyPayment verifies a gateway token for the order amount. On success the
// payment record and the confirmed/processing transition commit together; on
// gateway failure the order is left untouched.
func (s *Service) VerifyPayment(ctx context.Context, orderID, userID uuid.UUID, token string) (*payment.Payment, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if o.IsConfirmed {
		return nil, ErrAlreadyConfirmed
	}
	if !o.Status.CanTransitionTo(StatusProcessing) {
		return nil, ErrInvalidTransition
	}

	result, err := s.gateway.VerifyPayment(ctx, token, toPaisa(o.TotalAmount))
	if err != nil || !result.Success {
		if err != nil {
			log.Warn().Err(err).Str("order_id", orderID.String()).Msg("payment verification failed")
		}
		return nil, ErrPaymentVerificationFailed
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Re-check under lock: another request may have confirmed meanwhile.
	locked, err := s.repo.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, ErrOrderNotFound
	}
	if locked.IsConfirmed {
		return nil, ErrAlreadyConfirmed
	}

	pay := &payment.Payment{
		ID:          uuid.New(),
		OrderID:     orderID,
		UserID:      userID,
		Amount:      o.TotalAmount,
		Provider:    payment.ProviderKhalti,
		ReferenceID: result.ReferenceID,
		Status:      payment.StatusPaid,
		CreatedAt:   time.Now(),
	}
	if err := s.paymentRepo.CreateTx(ctx, tx, pay); err != nil {
		return nil, err
	}
	if err := s.repo.MarkConfirmedTx(ctx, tx, orderID, StatusProcessing); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	o.IsConfirmed = true
	o.Status = StatusProcessing
	s.publish(o)
	return pay, nil
}

// Refund refunds the order's completed payment through the gateway and marks
// the payment refunded. A gateway failure leaves everything unchanged; no
// partial refund bookkeeping.
func (s *Service) Refund(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o == nil || (!isAdmin && o.UserID != userID) {
		return ErrOrderNotFound
	}

	pay, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if pay == nil || pay.Status != payment.StatusPaid {
		return ErrPaymentNotFound
	}

	if err := s.gateway.Refund(ctx, pay.ReferenceID, toPaisa(pay.Amount)); err != nil {
		log.Warn().Err(err).Str("order_id", orderID.String()).Msg("gateway refund failed")
		return ErrRefundFailed
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.paymentRepo.MarkRefundedTx(ctx, tx, pay.ID); err != nil {
		return err
	}

	// Cancel the order alongside the refund when it is still cancellable.
	locked, err := s.repo.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if locked != nil && !locked.Status.IsTerminal() {
		if err := s.repo.UpdateStatusTx(ctx, tx, orderID, StatusCancelled); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if locked != nil && !locked.Status.IsTerminal() {
		locked.Status = StatusCancelled
		s.publish(locked)
	}
	return nil
}

func (s *Service) ownedForUpdate(ctx context.Context, tx *sqlx.Tx, orderID, userID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) publish(o *Order) {
	if s.feed == nil {
		return
	}
	s.feed.PublishStatus(StatusEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		PartnerID: o.PartnerID,
		Status:    o.Status,
		At:        time.Now(),
	})
}

func toPaisa(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
