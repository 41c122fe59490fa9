package subscription

// SubscribeRequest for POST /subscriptions
type SubscribeRequest struct {
	PlanID string `json:"plan_id" validate:"required,oneof=basic regular premium"`
}
