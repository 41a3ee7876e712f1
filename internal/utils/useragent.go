package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

var tabletIndicators = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "xoom", "sm-t"}

// ParseUserAgent turns a User-Agent header into the device fields stored on a booking
func ParseUserAgent(userAgent string) models.SubmissionSource {
	if strings.TrimSpace(userAgent) == "" {
		return models.SubmissionSource{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)

	source := models.SubmissionSource{
		DeviceType: deviceType(parser),
		OS:         "Unknown",
		Browser:    "Unknown",
	}

	if info := parser.OSInfo(); info.Name != "" {
		source.OS = strings.TrimSpace(info.Name + " " + info.Version)
	}
	if name, version := parser.Browser(); name != "" {
		source.Browser = strings.TrimSpace(name + " " + version)
	}

	return source
}

// SubmissionSourceFromRequest records the client IP and device of a booking submission
func SubmissionSourceFromRequest(c *gin.Context) *models.SubmissionSource {
	source := ParseUserAgent(c.Request.UserAgent())
	source.IP = GetRealIP(c)
	return &source
}

func deviceType(parser *ua.UserAgent) string {
	if parser.Bot() {
		return "bot"
	}
	lower := strings.ToLower(parser.UA())
	for _, indicator := range tabletIndicators {
		if strings.Contains(lower, indicator) {
			return "tablet"
		}
	}
	if parser.Mobile() {
		return "mobile"
	}
	return "desktop"
}
