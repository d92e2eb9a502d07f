package http

import (
	"html/template"
	"net/http"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// formatMoney renders an amount the way the UI shows it ("$12.34").
func formatMoney(m core.Money) string {
	return "$" + m.String()
}

// formatDate renders a record date for lists ("Mar 1, 2024").
func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// avatarSrc marks the profile avatar as a trusted URL for templates. Only
// http(s) URLs and image data URLs produced by the avatar upload pass;
// anything else falls back to the generated avatar.
func avatarSrc(p store.Profile) template.URL {
	src := p.AvatarURL()
	switch {
	case strings.HasPrefix(src, "data:image/"),
		strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "http://"):
		return template.URL(src)
	}
	return template.URL(store.DefaultAvatar(p.Name))
}
