package clicklog

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device type labels stored on click rows.
const (
	deviceBot     = "BOT"
	deviceTablet  = "TABLET"
	deviceMobile  = "MOBILE"
	deviceDesktop = "DESKTOP"
	deviceUnknown = "UNKNOWN"
)

// classifyUserAgent derives coarse device, OS and browser labels from a raw
// User-Agent header. Unknown or empty agents classify as UNKNOWN rather
// than failing the event.
func classifyUserAgent(raw string) (device, os, browser string) {
	if raw == "" {
		return deviceUnknown, "", ""
	}

	ua := useragent.New(raw)
	browser, _ = ua.Browser()
	os = ua.OSInfo().Name

	switch {
	case ua.Bot():
		device = deviceBot
	case isTablet(raw):
		device = deviceTablet
	case ua.Mobile():
		device = deviceMobile
	default:
		device = deviceDesktop
	}
	return device, os, browser
}

// isTablet covers the tablet signatures the underlying library folds into
// mobile or desktop.
func isTablet(raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range []string{"tablet", "ipad", "playbook", "silk"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
