package middleware

import (
	"context"
	"net/http"

	"github.com/kozaktomas/face-overlay/internal/notice"
	"golang.org/x/text/language"
)

type contextKey string

const languageKey contextKey = "language"

// Language negotiates the notice language for each request. A "lang" query
// parameter takes precedence over the Accept-Language header.
func Language(catalog *notice.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept := r.Header.Get("Accept-Language")
			if lang := r.URL.Query().Get("lang"); lang != "" {
				accept = lang
			}
			tag := catalog.Match(accept)
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(SetLanguageInContext(r.Context(), tag)))
		})
	}
}

// SetLanguageInContext stores the negotiated language.
func SetLanguageInContext(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey, tag)
}

// GetLanguage returns the negotiated language or fallback when the request
// did not pass through Language.
func GetLanguage(ctx context.Context, fallback language.Tag) language.Tag {
	if tag, ok := ctx.Value(languageKey).(language.Tag); ok {
		return tag
	}
	return fallback
}
