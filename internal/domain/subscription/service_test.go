package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// stubSubRepo is an in-memory Repository for service tests.
type stubSubRepo struct {
	plans map[PlanID]*Plan
	subs  map[uuid.UUID]*Subscription // keyed by subscription ID
}

func newStubSubRepo() *stubSubRepo {
	return &stubSubRepo{
		plans: map[PlanID]*Plan{
			PlanBasic: {ID: PlanBasic, Name: "Basic", IsActive: true},
			PlanPremium: {
				ID:       PlanPremium,
				Name:     "Premium",
				IsActive: true,
				Perks:    PerksConfig{FreeDelivery: true},
			},
		},
		subs: make(map[uuid.UUID]*Subscription),
	}
}

func (s *stubSubRepo) ListPlans(_ context.Context) ([]Plan, error) {
	result := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		result = append(result, *p)
	}
	return result, nil
}

func (s *stubSubRepo) GetPlan(_ context.Context, id PlanID) (*Plan, error) {
	return s.plans[id], nil
}

func (s *stubSubRepo) Create(_ context.Context, sub *Subscription) error {
	s.subs[sub.ID] = sub
	return nil
}

func (s *stubSubRepo) GetActiveByUser(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == StatusActive {
			return sub, nil
		}
	}
	return nil, nil
}

func (s *stubSubRepo) Cancel(_ context.Context, id uuid.UUID) error {
	if sub, ok := s.subs[id]; ok {
		sub.Status = StatusCancelled
	}
	return nil
}

func (s *stubSubRepo) ExpireOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for _, sub := range s.subs {
		if sub.Status == StatusActive && sub.ExpiresAt.Before(cutoff) {
			sub.Status = StatusExpired
			count++
		}
	}
	return count, nil
}

func TestSubscribeOnlyOneActive(t *testing.T) {
	repo := newStubSubRepo()
	svc := NewService(repo)
	userID := uuid.New()

	sub, err := svc.Subscribe(context.Background(), userID, PlanBasic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if sub.Status != StatusActive {
		t.Errorf("status = %s, want active", sub.Status)
	}

	_, err = svc.Subscribe(context.Background(), userID, PlanPremium)
	if err != ErrAlreadySubscribed {
		t.Errorf("second subscribe: error = %v, want ErrAlreadySubscribed", err)
	}
}

func TestSubscribeUnknownPlan(t *testing.T) {
	svc := NewService(newStubSubRepo())

	_, err := svc.Subscribe(context.Background(), uuid.New(), PlanID("deluxe"))
	if err != ErrPlanNotFound {
		t.Errorf("error = %v, want ErrPlanNotFound", err)
	}
}

func TestHasFreeDelivery(t *testing.T) {
	repo := newStubSubRepo()
	svc := NewService(repo)

	basicUser := uuid.New()
	premiumUser := uuid.New()
	nonSubscriber := uuid.New()

	if _, err := svc.Subscribe(context.Background(), basicUser, PlanBasic); err != nil {
		t.Fatalf("Subscribe(basic) error = %v", err)
	}
	if _, err := svc.Subscribe(context.Background(), premiumUser, PlanPremium); err != nil {
		t.Fatalf("Subscribe(premium) error = %v", err)
	}

	tests := []struct {
		name   string
		userID uuid.UUID
		want   bool
	}{
		{"premium plan grants free delivery", premiumUser, true},
		{"basic plan does not", basicUser, false},
		{"non-subscriber does not", nonSubscriber, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasFreeDelivery(context.Background(), tt.userID)
			if err != nil {
				t.Fatalf("HasFreeDelivery() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("free delivery = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc := NewService(newStubSubRepo())

	err := svc.Cancel(context.Background(), uuid.New())
	if err != ErrNoActiveSubscription {
		t.Errorf("error = %v, want ErrNoActiveSubscription", err)
	}
}
