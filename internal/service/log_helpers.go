package service

import "strings"

// maskEmailAddress keeps the first and last character of the local part.
func maskEmailAddress(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "***"
	}
	masked := local[:1] + "***"
	if len(local) > 2 {
		masked += local[len(local)-1:]
	}
	return masked + "@" + domain
}
