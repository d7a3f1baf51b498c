// Package plan maps subscription tiers to enabled capabilities.
//
// The mapping is an explicit per-tier table rather than a rank comparison:
// the billing source of truth keeps an independent boolean per capability
// per tier, so nothing here may assume capabilities grow monotonically with
// price.
package plan

// Plan is a subscription tier.
type Plan string

const (
	Free  Plan = "FREE"
	Basic Plan = "BASIC"
	Pro   Plan = "PRO"
)

// Capability is a plan-gated feature of the platform.
type Capability string

const (
	CustomDomain      Capability = "customDomain"
	APIAccess         Capability = "apiAccess"
	PDFExport         Capability = "pdfExport"
	AdvancedAnalytics Capability = "advancedAnalytics"
)

var capabilities = map[Plan]map[Capability]bool{
	Free: {
		CustomDomain:      false,
		APIAccess:         false,
		PDFExport:         false,
		AdvancedAnalytics: false,
	},
	Basic: {
		CustomDomain:      true,
		APIAccess:         true,
		PDFExport:         true,
		AdvancedAnalytics: true,
	},
	Pro: {
		CustomDomain:      true,
		APIAccess:         true,
		PDFExport:         true,
		AdvancedAnalytics: true,
	},
}

// Allows reports whether the given tier enables the capability. Unknown
// tiers and unknown capabilities resolve to false, which makes a missing or
// corrupt plan record behave like FREE.
func Allows(p Plan, c Capability) bool {
	caps, ok := capabilities[p]
	if !ok {
		caps = capabilities[Free]
	}
	return caps[c]
}

// FromString normalizes a stored tier value. Anything unrecognized is FREE.
func FromString(s string) Plan {
	switch Plan(s) {
	case Basic:
		return Basic
	case Pro:
		return Pro
	default:
		return Free
	}
}
