package contact

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	confirmationPolicyOnce sync.Once
	confirmationPolicy     *bluemonday.Policy
)

// SanitizeConfirmation strips scripts, handlers and unsafe URLs from the
// confirmation markup authored in the WordPress admin.
func SanitizeConfirmation(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(confirmationSanitizer().Sanitize(trimmed))
}

func confirmationSanitizer() *bluemonday.Policy {
	confirmationPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").OnElements("p", "span", "div", "strong", "em", "a")
		policy.RequireNoFollowOnLinks(false)
		confirmationPolicy = policy
	})
	return confirmationPolicy
}
