package plan

import "testing"

func TestAllows(t *testing.T) {
	tests := []struct {
		name       string
		plan       Plan
		capability Capability
		want       bool
	}{
		{"FREE has no custom domain", Free, CustomDomain, false},
		{"FREE has no API access", Free, APIAccess, false},
		{"FREE has no PDF export", Free, PDFExport, false},
		{"FREE has no advanced analytics", Free, AdvancedAnalytics, false},
		{"BASIC has custom domain", Basic, CustomDomain, true},
		{"BASIC has API access", Basic, APIAccess, true},
		{"BASIC has PDF export", Basic, PDFExport, true},
		{"BASIC has advanced analytics", Basic, AdvancedAnalytics, true},
		{"PRO has custom domain", Pro, CustomDomain, true},
		{"PRO has advanced analytics", Pro, AdvancedAnalytics, true},
		{"Unknown plan behaves as FREE", Plan("ENTERPRISE"), CustomDomain, false},
		{"Unknown capability is denied", Pro, Capability("whiteLabel"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allows(tt.plan, tt.capability); got != tt.want {
				t.Errorf("Allows(%v, %v) = %v, want %v", tt.plan, tt.capability, got, tt.want)
			}
		})
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{"FREE", Free},
		{"BASIC", Basic},
		{"PRO", Pro},
		{"", Free},
		{"pro", Free}, // Tier values are stored uppercase; anything else is FREE
		{"garbage", Free},
	}

	for _, tt := range tests {
		if got := FromString(tt.in); got != tt.want {
			t.Errorf("FromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
