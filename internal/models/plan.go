package models

// Plan is a subscription plan.
type Plan struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Price is in the smallest currency unit's parent (rupees, not paise).
	Price Amount `json:"price"`

	// DurationDays is how long a purchase extends the subscription.
	DurationDays int `json:"duration_days"`
}

// Order is a pending checkout created by /payment/order.
type Order struct {
	ID        string `json:"order_id"`
	PlanUUID  string `json:"plan_uuid"`
	TuitionID string `json:"-"`

	// Amount is in the smallest currency unit (paise).
	Amount int64 `json:"amount"`

	Currency  string `json:"currency,omitempty"`
	Paid      bool   `json:"-"`
	PaymentID string `json:"-"`
	CreatedAt int64  `json:"-"`
}
