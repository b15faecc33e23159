package ads

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Locale and country used for geo target lookups.
const (
	DefaultLocale      = "ja"
	DefaultCountryCode = "JP"
)

// DefaultLocations are targeted when none are configured.
var DefaultLocations = []string{"Tokyo", "Osaka", "Chiba"}

// GeoResolver maps location names to geo target constant resource names.
type GeoResolver interface {
	Resolve(ctx context.Context, names []string) ([]string, error)
}

type geoSuggester interface {
	SuggestGeoTargets(ctx context.Context, locale, countryCode string, names []string) ([]string, error)
}

// NewGeoResolver resolves names through the suggest endpoint. With a
// positive ttl results are cached, since the constants rarely change.
func NewGeoResolver(api geoSuggester, locale, countryCode string, ttl time.Duration) GeoResolver {
	if locale == "" {
		locale = DefaultLocale
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	var base GeoResolver = &suggestResolver{api: api, locale: locale, country: countryCode}
	if ttl <= 0 {
		return base
	}
	return &cachedResolver{base: base, ttl: ttl, entries: make(map[string]cacheEntry)}
}

type suggestResolver struct {
	api     geoSuggester
	locale  string
	country string
}

func (r *suggestResolver) Resolve(ctx context.Context, names []string) ([]string, error) {
	return r.api.SuggestGeoTargets(ctx, r.locale, r.country, names)
}

type cachedResolver struct {
	base    GeoResolver
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	targets []string
	expires time.Time
}

func (c *cachedResolver) Resolve(ctx context.Context, names []string) ([]string, error) {
	key := cacheKey(names)
	now := time.Now()

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok && entry.expires.After(now) {
		c.mu.RUnlock()
		return append([]string(nil), entry.targets...), nil
	}
	c.mu.RUnlock()

	targets, err := c.base.Resolve(ctx, names)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		targets: append([]string(nil), targets...),
		expires: now.Add(c.ttl),
	}
	c.mu.Unlock()

	return targets, nil
}

func cacheKey(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(n)), " ")
	}
	return strings.Join(parts, "|")
}
