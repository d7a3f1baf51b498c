package model

import "time"

// CustomDomain is a user-owned domain serving redirects under the user's
// brand. Verified starts false and transitions to true exactly once; this
// component never clears it.
type CustomDomain struct {
	ID                string    `json:"id"`                // UUID v4
	UserID            string    `json:"userId"`            // Owner
	Domain            string    `json:"domain"`            // Normalized, unique
	VerificationToken string    `json:"verificationToken"` // Opaque secret published in DNS, immutable
	Verified          bool      `json:"verified"`
	VerifiedAt        time.Time `json:"verifiedAt,omitempty"` // Set exactly once
	CreatedAt         time.Time `json:"createdAt"`
}

// DNSRecord describes one record the domain owner must publish.
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
	TTL   int    `json:"ttl"`
}

// DNSRecords is the pair of records required for domain verification: the
// TXT record proves ownership, the CNAME routes traffic to the platform.
type DNSRecords struct {
	CNAME DNSRecord `json:"cname"`
	TXT   DNSRecord `json:"txt"`
}
