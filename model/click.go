package model

import "time"

// Click is a single recorded attribution event. Rows are append-only and
// never mutated after recording; they are only counted and aggregated.
type Click struct {
	ID         string    `json:"id"`        // UUID v4
	LinkID     string    `json:"linkId"`    // Link that was followed
	CreatedAt  time.Time `json:"createdAt"` // Recording time, not redirect time
	Referrer   string    `json:"referrer,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	IP         string    `json:"ip,omitempty"`
	DeviceType string    `json:"deviceType,omitempty"` // MOBILE, TABLET, DESKTOP or BOT
	OS         string    `json:"os,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	Country    string    `json:"country,omitempty"` // Coarse geo, from upstream headers
	City       string    `json:"city,omitempty"`
}

// ClickMeta is the raw request metadata handed to the recorder while the
// redirect response is already in flight. User-agent classification happens
// on the worker side, off the request path.
type ClickMeta struct {
	LinkID    string
	Referrer  string
	UserAgent string
	IP        string
	Country   string
	City      string
}
