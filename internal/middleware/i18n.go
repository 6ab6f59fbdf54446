package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// Locales the API formats amounts and dates for. The first entry is the
// locale used for requests from India that send no language preference.
var supportedLocales = []language.Tag{
	language.MustParse("en-IN"),
	language.English,
	language.Hindi,
	language.Gujarati,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, country string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		if tag, err := language.Parse(strings.TrimSpace(v)); err == nil {
			if locale, ok := matchLocale(tag); ok {
				return locale
			}
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		if locale, ok := matchLocale(tags...); ok {
			return locale
		}
	}
	if strings.EqualFold(country, "IN") {
		return "en-IN"
	}
	if country != "" {
		return "en"
	}
	if fallback != "" {
		if tag, err := language.Parse(fallback); err == nil {
			if locale, ok := matchLocale(tag); ok {
				return locale
			}
		}
	}
	return "en"
}

func matchLocale(tags ...language.Tag) (string, bool) {
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return supportedLocales[idx].String(), true
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code for the given request.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	tags := requestTags(r)
	for _, tag := range tags {
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	// Hindi and Gujarati speakers without an explicit region are in India.
	for _, tag := range tags {
		if base, _ := tag.Base(); isIndianLanguage(base) {
			return "IN"
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func requestTags(r *http.Request) []language.Tag {
	var tags []language.Tag
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			tags = append(tags, tag)
		}
	}
	if accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		tags = append(tags, accepted...)
	}
	return tags
}

func isIndianLanguage(base language.Base) bool {
	for _, t := range []language.Tag{language.Hindi, language.Gujarati} {
		if b, _ := t.Base(); b == base {
			return true
		}
	}
	return false
}
