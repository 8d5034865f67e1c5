package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	log, err := logger.NewLoggerFromEnv("test")
	require.NoError(t, err)

	c, err := NewClient(Config{BaseURL: baseURL, Timeout: timeout, RatePerMinute: 6000}, log, nil)
	require.NoError(t, err)
	return c
}

func TestLookupSuccessIsCached(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/json/203.0.113.9"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"Canada","countryCode":"CA","regionName":"Ontario","city":"Toronto","isp":"Example ISP","lat":43.7,"lon":-79.4}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, time.Second)

	info := c.Lookup(context.Background(), "::ffff:203.0.113.9")
	assert.Equal(t, "CA", info.CountryCode)
	assert.Equal(t, "Ontario", info.Region)
	assert.Equal(t, "Unknown", info.Timezone)

	again := c.Lookup(context.Background(), "203.0.113.9")
	assert.Equal(t, info, again)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestLookupFailStatusDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, time.Second)

	assert.Equal(t, models.UnknownGeo(), c.Lookup(context.Background(), "192.0.2.55"))
}

func TestLookupRejectionsKeepBreakerClosed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/json/198.51.100.7") {
			_, _ = w.Write([]byte(`{"status":"success","country":"Germany","countryCode":"DE","city":"Berlin"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, time.Second)

	for i := 0; i < 8; i++ {
		assert.Equal(t, models.UnknownGeo(), c.Lookup(context.Background(), "192.0.2.55"))
	}
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())

	info := c.Lookup(context.Background(), "198.51.100.7")
	assert.Equal(t, "DE", info.CountryCode)
}

func TestLookupTransportFailuresOpenBreaker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, time.Second)

	for i := 0; i < 5; i++ {
		c.Lookup(context.Background(), "192.0.2.55")
	}
	assert.Equal(t, gobreaker.StateOpen, c.breaker.State())
}

func TestLookupPrivateSkipsUpstream(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, time.Second)

	for i := 0; i < 5; i++ {
		for _, ip := range []string{"10.0.0.5", "192.168.1.20", "172.16.4.4", "169.254.10.1", "fd00::1", "fe80::1", "0.0.0.0"} {
			assert.Equal(t, models.UnknownGeo(), c.Lookup(context.Background(), ip), ip)
		}
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}

func TestLookupTimeoutDegrades(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := newTestClient(t, ts.URL, 50*time.Millisecond)

	start := time.Now()
	info := c.Lookup(context.Background(), "198.51.100.1")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, info.IsKnown())
}

func TestLookupLoopbackSkipsUpstream(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", time.Second)

	for _, ip := range []string{"", "127.0.0.1", "::1", "localhost"} {
		info := c.Lookup(context.Background(), ip)
		assert.Equal(t, "Localhost", info.City, ip)
		assert.Equal(t, models.UnknownCountryCode, info.CountryCode)
	}
}

func TestCleanIP(t *testing.T) {
	assert.Equal(t, "51.91.242.9", CleanIP(" ::ffff:51.91.242.9 "))
	assert.Equal(t, "2001:db8::1", CleanIP("2001:db8::1"))
}

func TestResolvable(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"203.0.113.10", true},
		{"2001:db8::1", true},
		{"::ffff:198.51.100.7", true},
		{"127.0.0.1", false},
		{"10.0.0.5", false},
		{"::ffff:192.168.0.9", false},
		{"169.254.1.1", false},
		{"fe80::1", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolvable(tt.ip), tt.ip)
	}
}
