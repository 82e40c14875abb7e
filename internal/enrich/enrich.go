// Package enrich classifies where a submission came from and what device sent
// it. Both classifiers are deterministic and depend only on their inputs.
package enrich

import (
	"net/url"
	"strings"

	"lead-relay/internal/models"
)

// TrafficSource tags a submission with its acquisition channel. A utm_source
// query parameter wins over everything; known referrer hosts map to their own
// tags; any other referrer counts as a generic referral.
func TrafficSource(referrer, rawQuery string) string {
	if q, err := url.ParseQuery(rawQuery); err == nil {
		if utm := q.Get("utm_source"); utm != "" {
			return "utm_" + utm
		}
	}
	ref := strings.ToLower(referrer)
	switch {
	case ref == "":
		return "direct"
	case strings.Contains(ref, "google"):
		return "google"
	case strings.Contains(ref, "facebook"):
		return "facebook"
	case strings.Contains(ref, "zalo"):
		return "zalo"
	default:
		return "referral"
	}
}

// Platform buckets a user agent into mobile, tablet, or desktop.
func Platform(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"),
		strings.Contains(ua, "android"),
		strings.Contains(ua, "iphone"),
		strings.Contains(ua, "ipad"):
		return models.PlatformMobile
	case strings.Contains(ua, "tablet"):
		return models.PlatformTablet
	default:
		return models.PlatformDesktop
	}
}
