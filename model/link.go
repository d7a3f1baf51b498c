package model

import "time"

// Link represents a managed short link with its attribution settings.
// ShortCode is immutable once assigned and globally unique across all
// serving domains; deleted codes are tombstoned and never reissued.
type Link struct {
	ID          string    `json:"id"`          // UUID v4
	ShortCode   string    `json:"shortCode"`   // Unique routing token
	OriginalURL string    `json:"originalURL"` // Destination before UTM composition
	Title       string    `json:"title,omitempty"`
	UTM         UTMParams `json:"utm"`
	CategoryID  string    `json:"categoryId,omitempty"` // Weak reference; category may be deleted independently
	UserID      string    `json:"userId"`
	Active      bool      `json:"active"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"` // Zero value means no expiry
	CreatedAt   time.Time `json:"createdAt"`
}

// UTMParams holds the stored tracking parameters of a link.
// Empty fields are absent and never written onto the destination URL.
type UTMParams struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// IsZero reports whether no tracking parameters are set.
func (p UTMParams) IsZero() bool {
	return p == UTMParams{}
}

// Expired reports whether the link is past its expiry at the given instant.
func (l *Link) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && now.After(l.ExpiresAt)
}

// ResolvedTarget is the outcome of a successful short-code resolution.
type ResolvedTarget struct {
	URL    string `json:"url"`    // Final redirect target with UTM parameters composed
	LinkID string `json:"linkId"` // Link identity for attribution recording
}
