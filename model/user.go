package model

import "time"

// User carries the subset of account state the redirection engine reads:
// identity and subscription plan. Plan is mutated only by the billing flow.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Plan      string    `json:"plan"` // FREE, BASIC or PRO
	CreatedAt time.Time `json:"createdAt"`
}
