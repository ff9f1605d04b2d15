package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partner-finder/internal/cache"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/telemetry"
)

func TestSplitQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantZip     string
		wantKeyword string
	}{
		{"zip and keyword", "75201 food bank", "75201", "food bank"},
		{"zip only", "75201", "75201", "nonprofit"},
		{"keyword only", "animal rescue", "", "animal rescue"},
		{"zip not leading", "food 75201", "", "food 75201"},
		{"four digit token", "7520 food", "", "7520 food"},
		{"six digit token", "752011 food", "", "752011 food"},
		{"alpha token of five", "abcde food", "", "abcde food"},
		{"extra whitespace", "  75201   housing  ", "75201", "housing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zip, keyword := SplitQuery(tt.query)
			assert.Equal(t, tt.wantZip, zip)
			assert.Equal(t, tt.wantKeyword, keyword)
		})
	}
}

type fakeGeocoder struct {
	info  *ZipInfo
	err   error
	calls int
}

func (f *fakeGeocoder) Lookup(_ context.Context, _ string) (*ZipInfo, error) {
	f.calls++
	return f.info, f.err
}

func newTestResolver(g Geocoder) *Resolver {
	return NewResolver(g, cache.NewMemory(nil), time.Hour, nil, logger.NewNop())
}

func TestResolveStaticTableFirst(t *testing.T) {
	g := &fakeGeocoder{}
	r := newTestResolver(g)

	loc := r.Resolve(context.Background(), "75201")
	require.NotNil(t, loc)
	assert.Equal(t, "Dallas", loc.City)
	assert.Equal(t, 0, g.calls, "static hit must not call the geocoder")
}

func TestResolveGeocoderFallback(t *testing.T) {
	g := &fakeGeocoder{info: &ZipInfo{City: "Boise", State: "Idaho", StateAbbr: "ID"}}
	r := newTestResolver(g)

	loc := r.Resolve(context.Background(), "83702")
	require.NotNil(t, loc)
	assert.Equal(t, "Boise", loc.City)
	assert.Equal(t, "ID", loc.State)
	assert.Empty(t, loc.County, "geocoded locations carry no county")

	// Second resolve is served from cache.
	loc = r.Resolve(context.Background(), "83702")
	require.NotNil(t, loc)
	assert.Equal(t, 1, g.calls)
}

func TestResolveGeocoderFailureIsMiss(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("timeout")}
	r := newTestResolver(g)

	assert.Nil(t, r.Resolve(context.Background(), "83702"))
}

func TestResolveNoGeocoder(t *testing.T) {
	r := newTestResolver(nil)

	assert.Nil(t, r.Resolve(context.Background(), "83702"))
}

func TestResolveRecordsMetrics(t *testing.T) {
	metrics := telemetry.NewMetricsWith(prometheus.NewRegistry())
	g := &fakeGeocoder{info: &ZipInfo{City: "Boise", State: "Idaho", StateAbbr: "ID"}}
	r := NewResolver(g, cache.NewMemory(nil), time.Hour, metrics, logger.NewNop())

	// First resolve: cache miss, geocoder hit. Second: cache hit.
	require.NotNil(t, r.Resolve(context.Background(), "83702"))
	require.NotNil(t, r.Resolve(context.Background(), "83702"))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues("zip")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheHits.WithLabelValues("zip")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocoderCalls.WithLabelValues("ok")), 1e-9)

	// Static table hits bypass cache and geocoder entirely.
	require.NotNil(t, r.Resolve(context.Background(), "75201"))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues("zip")), 1e-9)

	// Failures count as geocoder errors.
	failing := NewResolver(&fakeGeocoder{err: errors.New("timeout")}, nil, 0, metrics, logger.NewNop())
	assert.Nil(t, failing.Resolve(context.Background(), "83702"))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocoderCalls.WithLabelValues("error")), 1e-9)
}
