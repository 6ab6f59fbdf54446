// Package geoip maps client IPs to ISO country codes with a MaxMind
// database. The locale middleware uses it when a request names no language.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// maxCached bounds the per-process lookup cache.
const maxCached = 4096

// CountryResolver resolves ISO country codes from IP addresses.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
	Close() error
}

// countryReader is the part of *geoip2.Reader the resolver uses.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Resolver provides cached country lookups backed by a GeoIP2 database.
type Resolver struct {
	reader countryReader

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver opens the GeoIP database at the given path. When the path is empty, nil is returned.
func NewResolver(path string) (CountryResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return newResolver(reader), nil
}

func newResolver(reader countryReader) *Resolver {
	return &Resolver{reader: reader, cache: make(map[string]string)}
}

// CountryCode returns the ISO country code for the provided IP. Private and
// loopback addresses resolve to the empty code without a lookup.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return "", nil
	}
	key := parsed.String()

	r.mu.Lock()
	code, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return code, nil
	}

	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record != nil {
		code = record.Country.IsoCode
	}

	r.mu.Lock()
	if len(r.cache) >= maxCached {
		r.cache = make(map[string]string)
	}
	r.cache[key] = code
	r.mu.Unlock()
	return code, nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
