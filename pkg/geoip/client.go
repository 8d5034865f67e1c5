// Package geoip resolves agent addresses to a geolocation snapshot. Lookups are
// bounded in time and never fail: any upstream problem degrades to models.UnknownGeo.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/metrics"
)

// Resolver is the collaborator the handshake and poll paths depend on.
type Resolver interface {
	Lookup(ctx context.Context, ip string) models.GeoInfo
}

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	CacheSize     int
	RatePerMinute int
	UserAgent     string
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://ip-api.com",
		Timeout:       3 * time.Second,
		CacheSize:     1024,
		RatePerMinute: 45,
		UserAgent:     "edge-controller/1.0",
	}
}

const lookupFields = "status,message,country,countryCode,region,regionName,city,timezone,isp,org,as,lat,lon"

var (
	errLookupFailed = errors.New("geolocation lookup failed")

	// errLookupRejected is an answered query the provider refused to place
	// (reserved or private ranges). It does not count against the breaker.
	errLookupRejected = errors.New("geolocation lookup rejected")
)

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Client talks to an ip-api.com compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	cache      *lru.Cache[string, models.GeoInfo]
	group      singleflight.Group
	logger     *logger.CanonicalLogger
	metrics    *metrics.Metrics
}

func NewClient(cfg Config, log *logger.CanonicalLogger, m *metrics.Metrics) (*Client, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = def.RatePerMinute
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	cache, err := lru.New[string, models.GeoInfo](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create geoip cache: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geoip",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errLookupRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("geoip circuit breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})

	perSecond := rate.Limit(float64(cfg.RatePerMinute) / 60.0)

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		limiter:    rate.NewLimiter(perSecond, cfg.RatePerMinute),
		cache:      cache,
		logger:     log.Component("geoip"),
		metrics:    m,
	}, nil
}

// Lookup never returns an error. Failures are logged, counted and reported as
// models.UnknownGeo; they are not cached so a later call tries again.
func (c *Client) Lookup(ctx context.Context, ip string) models.GeoInfo {
	ip = CleanIP(ip)
	if IsLocal(ip) {
		c.metrics.GeoLookups.WithLabelValues("local").Inc()
		return models.LocalGeo()
	}
	if IsPrivate(ip) {
		c.metrics.GeoLookups.WithLabelValues("private").Inc()
		return models.UnknownGeo()
	}
	if info, ok := c.cache.Get(ip); ok {
		c.metrics.GeoLookups.WithLabelValues("cached").Inc()
		return info
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	v, err, _ := c.group.Do(ip, func() (interface{}, error) {
		return c.breaker.Execute(func() (interface{}, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return c.fetch(ctx, ip)
		})
	})
	if errors.Is(err, errLookupRejected) {
		c.metrics.GeoLookups.WithLabelValues("rejected").Inc()
		c.logger.WithError(err).Info("geolocation rejected by provider", logger.String("ip", ip))
		return models.UnknownGeo()
	}
	if err != nil {
		c.metrics.GeoLookups.WithLabelValues("degraded").Inc()
		c.logger.WithError(err).Info("geolocation degraded to unknown", logger.String("ip", ip))
		return models.UnknownGeo()
	}

	info := v.(models.GeoInfo)
	c.cache.Add(ip, info)
	c.metrics.GeoLookups.WithLabelValues("ok").Inc()
	return info
}

func (c *Client) fetch(ctx context.Context, ip string) (models.GeoInfo, error) {
	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", c.cfg.BaseURL, url.PathEscape(ip), lookupFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.GeoInfo{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.GeoInfo{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GeoInfo{}, fmt.Errorf("%w: status %d", errLookupFailed, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.GeoInfo{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Status == "fail" {
		return models.GeoInfo{}, fmt.Errorf("%w: %s", errLookupRejected, body.Message)
	}

	return body.toGeoInfo(), nil
}

func (r ipAPIResponse) toGeoInfo() models.GeoInfo {
	region := r.RegionName
	if region == "" {
		region = r.Region
	}
	return models.GeoInfo{
		Country:     orUnknown(r.Country),
		CountryCode: orDefault(r.CountryCode, models.UnknownCountryCode),
		Region:      orUnknown(region),
		City:        orUnknown(r.City),
		Timezone:    orUnknown(r.Timezone),
		ISP:         orUnknown(r.ISP),
		Org:         orUnknown(r.Org),
		AS:          orUnknown(r.AS),
		Lat:         r.Lat,
		Lon:         r.Lon,
	}
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
