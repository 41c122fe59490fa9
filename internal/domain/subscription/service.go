package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const expirySweepInterval = time.Hour

// Service handles subscription business logic
type Service struct {
	repo Repository
}

// NewService creates subscription service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPlans returns active meal plans
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

// Subscribe starts a monthly subscription to a plan
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, planID PlanID) (*Subscription, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, ErrPlanNotFound
	}

	existing, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.IsExpired() {
		return nil, ErrAlreadySubscribed
	}

	now := time.Now()
	sub := &Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    planID,
		StartedAt: now,
		ExpiresAt: now.AddDate(0, 1, 0),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Current returns the user's active subscription with its plan
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*Subscription, *Plan, error) {
	sub, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil || sub.IsExpired() {
		return nil, nil, ErrNoActiveSubscription
	}

	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return sub, plan, nil
}

// Cancel cancels the user's active subscription
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrNoActiveSubscription
	}
	return s.repo.Cancel(ctx, sub.ID)
}

// HasFreeDelivery reports whether the user's plan waives the delivery fee.
// Used by order checkout.
func (s *Service) HasFreeDelivery(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if sub == nil || sub.IsExpired() {
		return false, nil
	}

	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil || plan == nil {
		return false, err
	}
	return plan.Perks.FreeDelivery, nil
}

// RunExpirySweeper periodically expires overdue subscriptions (call in goroutine)
func (s *Service) RunExpirySweeper(ctx context.Context) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.repo.ExpireOlderThan(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("subscription expiry sweep failed")
				continue
			}
			if count > 0 {
				log.Info().Int64("expired", count).Msg("expired overdue subscriptions")
			}
		}
	}
}
