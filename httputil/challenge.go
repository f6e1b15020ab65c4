package httputil

import (
	"net/http"
	"strings"
)

// challengeMarkers are body fragments served by bot walls instead of content.
var challengeMarkers = []string{
	"unusual traffic",
	"captcha",
	"are you a robot",
	"are you a human",
	"request unsuccessful. incapsula",
	"incapsula incident id",
	"access denied",
	"this request was blocked",
	"verify you are human",
}

// DetectChallenge returns the marker that identifies body as a bot
// challenge, or "".
func DetectChallenge(body []byte) string {
	lower := strings.ToLower(string(body))
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

// IsBlockingStatus reports the statuses search engines and portals use to
// refuse automated clients.
func IsBlockingStatus(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}
