package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	calls int
	codes map[string]string
	err   error
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rec := &geoip2.Country{}
	rec.Country.IsoCode = f.codes[ip.String()]
	return rec, nil
}

func (f *fakeReader) Close() error { return nil }

func TestCountryCodeCachesLookups(t *testing.T) {
	reader := &fakeReader{codes: map[string]string{"49.36.0.1": "IN"}}
	r := newResolver(reader)

	for i := 0; i < 3; i++ {
		code, err := r.CountryCode("49.36.0.1")
		require.NoError(t, err)
		assert.Equal(t, "IN", code)
	}
	assert.Equal(t, 1, reader.calls)

	code, err := r.CountryCode("192.168.1.10")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Equal(t, 1, reader.calls, "private addresses are not looked up")
}

func TestCountryCodeErrors(t *testing.T) {
	var nilResolver *Resolver
	_, err := nilResolver.CountryCode("49.36.0.1")
	assert.ErrorIs(t, err, ErrUnavailable)

	r := newResolver(&fakeReader{err: errors.New("corrupt")})
	_, err = r.CountryCode("not-an-ip")
	assert.Error(t, err)
	_, err = r.CountryCode("49.36.0.1")
	assert.Error(t, err)
}

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	assert.NoError(t, err)
	assert.Nil(t, r)

	_, err = NewResolver("/nonexistent/GeoLite2-Country.mmdb")
	assert.Error(t, err)
}
