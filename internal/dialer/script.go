package dialer

import (
	"fmt"
	"strings"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

// DefaultScript is the opener used when a call request carries no script.
func DefaultScript(l *leads.Lead) string {
	city := "your area"
	if l != nil && strings.TrimSpace(l.City) != "" {
		city = strings.TrimSpace(l.City)
	}
	return fmt.Sprintf(
		"Hello, is this %s? This is Ava with Mobile Solutions. I'll be brief. "+
			"I understand your company provides %s services in %s. "+
			"Quick question: do your field crews use mobile phones or tablets for work?",
		l.FirstName(), l.IndustryLabel(), city,
	)
}
