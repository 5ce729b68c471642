package conditions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/types"
)

var fresno = types.Coordinates{Latitude: 36.7378, Longitude: -119.7871}

func nwsServer(t *testing.T, alertsBody string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/points/36.7378,-119.7871", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprintf(w, `{"properties":{"forecastZone":"%s/zones/forecast/CAZ089"}}`, "https://api.weather.gov")
	})
	mux.HandleFunc("/alerts/active/zone/CAZ089", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, alertsBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

const denseFog = `{"features":[
	{"properties":{"event":"Dense Fog Advisory","severity":"Moderate","urgency":"Expected","headline":"Dense Fog Advisory until 10AM"}},
	{"properties":{"severity":"","urgency":""}}
]}`

func TestNWSClient_Alerts(t *testing.T) {
	srv, calls := nwsServer(t, denseFog)
	c := NewNWSClient(WithBaseURL(srv.URL), WithRateLimit(0, 0))

	snap, err := c.Alerts(context.Background(), fresno)
	require.NoError(t, err)
	require.Len(t, snap.Alerts, 2)
	assert.Equal(t, "Dense Fog Advisory", snap.Alerts[0].Event)
	assert.Equal(t, SeverityModerate, snap.Alerts[0].Severity)
	assert.Equal(t, "Weather Alert", snap.Alerts[1].Event)
	assert.Equal(t, SeverityUnknown, snap.Alerts[1].Severity)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNWSClient_NoAlerts(t *testing.T) {
	srv, _ := nwsServer(t, `{"features":[]}`)
	c := NewNWSClient(WithBaseURL(srv.URL))

	snap, err := c.Alerts(context.Background(), fresno)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Alerts)
}

func TestNWSClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewNWSClient(WithBaseURL(srv.URL)).Alerts(context.Background(), fresno)
	assert.Error(t, err)
}

func TestNWSClient_RespectsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewNWSClient(WithBaseURL(srv.URL)).Alerts(ctx, fresno)
	assert.Error(t, err)
}

func TestStaticFeed(t *testing.T) {
	_, err := StaticFeed{}.Alerts(context.Background(), fresno)
	assert.ErrorIs(t, err, ErrUnavailable)

	snap, err := StaticFeed{Snapshot: &Snapshot{}}.Alerts(context.Background(), fresno)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

// countingFeed counts upstream calls.
type countingFeed struct {
	calls atomic.Int32
	snap  *Snapshot
	err   error
}

func (f *countingFeed) Alerts(context.Context, types.Coordinates) (*Snapshot, error) {
	f.calls.Add(1)
	return f.snap, f.err
}

func setupCache(t *testing.T, next Feed, opts ...CacheOption) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCache(next, client, opts...), mr
}

func TestRedisCache_HitAvoidsUpstream(t *testing.T) {
	next := &countingFeed{snap: snapshot(Alert{Event: "Wind Advisory", Severity: SeverityModerate})}
	cache, mr := setupCache(t, next)
	ctx := context.Background()

	first, err := cache.Alerts(ctx, fresno)
	require.NoError(t, err)
	second, err := cache.Alerts(ctx, fresno)
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("waypoint:alerts:36.7378,-119.7871"))
}

func TestRedisCache_Expires(t *testing.T) {
	next := &countingFeed{snap: snapshot()}
	cache, mr := setupCache(t, next, WithCacheTTL(time.Minute))
	ctx := context.Background()

	_, err := cache.Alerts(ctx, fresno)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.Alerts(ctx, fresno)
	require.NoError(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
}

func TestRedisCache_FailuresAreNotCached(t *testing.T) {
	next := &countingFeed{err: errors.New("boom")}
	cache, mr := setupCache(t, next)

	_, err := cache.Alerts(context.Background(), fresno)
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestRedisCache_RedisDownFallsThrough(t *testing.T) {
	next := &countingFeed{snap: snapshot()}
	cache, mr := setupCache(t, next)
	mr.Close()

	snap, err := cache.Alerts(context.Background(), fresno)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}
