package geo

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/jonesrussell/partner-finder/internal/cache"
	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/telemetry"
)

// ZipInfo is the geocoder's view of a ZIP code.
type ZipInfo struct {
	City      string `json:"city"`
	State     string `json:"state"`
	StateAbbr string `json:"state_abbr"`
}

// Geocoder resolves ZIP codes the static table does not cover.
type Geocoder interface {
	// Lookup returns nil (with nil error) when the ZIP cannot be resolved.
	Lookup(ctx context.Context, zip string) (*ZipInfo, error)
}

// SplitQuery separates a search query into an optional ZIP code and a
// keyword. A leading 5-digit token is treated as a ZIP; the remaining text
// (or "nonprofit" when absent) is the keyword.
func SplitQuery(query string) (zip, keyword string) {
	parts := strings.Fields(query)
	if len(parts) > 0 && isZip(parts[0]) {
		zip = parts[0]
		parts = parts[1:]
	}

	keyword = strings.Join(parts, " ")
	if keyword == "" && zip != "" {
		keyword = domain.DefaultKeyword
	}
	if keyword == "" {
		keyword = query
	}
	return zip, keyword
}

func isZip(token string) bool {
	if len(token) != 5 {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Resolver turns ZIP codes into locations, preferring the static table and
// falling back to the remote geocoder with a read-through cache.
type Resolver struct {
	geocoder Geocoder
	store    cache.Store
	ttl      time.Duration
	metrics  *telemetry.Metrics
	log      logger.Logger
}

// NewResolver creates a resolver. The geocoder may be nil, in which case
// only the static table is consulted. metrics may be nil in tests.
func NewResolver(geocoder Geocoder, store cache.Store, ttl time.Duration, metrics *telemetry.Metrics, log logger.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		store:    store,
		ttl:      ttl,
		metrics:  metrics,
		log:      log,
	}
}

// Resolve returns the location for a ZIP code, or nil when it cannot be
// determined. Geocoder failures are treated as misses, never as errors.
func (r *Resolver) Resolve(ctx context.Context, zip string) *domain.Location {
	if loc := LookupZip(zip); loc != nil {
		return loc
	}

	cacheKey := "zip:" + zip
	if r.store != nil {
		if cached, ok := r.store.Get(ctx, cacheKey); ok {
			var info ZipInfo
			if err := json.Unmarshal([]byte(cached), &info); err == nil {
				r.countCache(true)
				return r.locationFromInfo(zip, &info)
			}
		}
		r.countCache(false)
	}

	if r.geocoder == nil {
		return nil
	}

	info, err := r.geocoder.Lookup(ctx, zip)
	if err != nil || info == nil {
		if err != nil {
			r.countGeocoder("error")
			r.log.Warn("zip geocode failed", logger.String("zip", zip), logger.Error(err))
		} else {
			r.countGeocoder("miss")
		}
		return nil
	}
	r.countGeocoder("ok")

	if r.store != nil {
		if data, err := json.Marshal(info); err == nil {
			r.store.Set(ctx, cacheKey, string(data), r.ttl)
		}
	}

	return r.locationFromInfo(zip, info)
}

func (r *Resolver) countCache(hit bool) {
	if r.metrics == nil {
		return
	}
	if hit {
		r.metrics.CacheHits.WithLabelValues("zip").Inc()
		return
	}
	r.metrics.CacheMisses.WithLabelValues("zip").Inc()
}

func (r *Resolver) countGeocoder(outcome string) {
	if r.metrics != nil {
		r.metrics.GeocoderCalls.WithLabelValues(outcome).Inc()
	}
}

// locationFromInfo maps a geocoder hit to a Location. Geocoded ZIPs carry no
// county; tiering degrades to city and state matching.
func (r *Resolver) locationFromInfo(zip string, info *ZipInfo) *domain.Location {
	state := info.StateAbbr
	if state == "" {
		state = info.State
	}
	return &domain.Location{
		Zip:   zip,
		City:  info.City,
		State: state,
	}
}
