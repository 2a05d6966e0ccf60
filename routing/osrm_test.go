package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const osrmOK = `{
	"code": "Ok",
	"routes": [{
		"distance": 1520.3,
		"duration": 312.8,
		"geometry": {"coordinates": [[100.50, 13.75], [100.505, 13.755], [100.51, 13.76]], "type": "LineString"}
	}]
}`

func TestRouteParsesOSRMResponse(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	route, err := c.Route(context.Background(), LatLng{13.76, 100.51}, LatLng{13.75, 100.50})
	require.NoError(t, err)

	// OSRM wants lng,lat pairs in the path.
	assert.Contains(t, gotPath, "/route/v1/driving/100.510000,13.760000;100.500000,13.750000")

	assert.Equal(t, 1520.3, route.DistanceMeters)
	assert.Equal(t, 312.8, route.DurationSeconds)
	require.Len(t, route.Path, 3)
	// GeoJSON pairs are [lng, lat]; the client flips them.
	assert.Equal(t, LatLng{Lat: 13.75, Lng: 100.50}, route.Path[0])
	assert.GreaterOrEqual(t, route.DistanceMeters, 0.0)
	assert.GreaterOrEqual(t, route.DurationSeconds, 0.0)
}

func TestRouteServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Route(context.Background(), LatLng{13, 100}, LatLng{14, 101})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRouteNoRoutesIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Route(context.Background(), LatLng{13, 100}, LatLng{14, 101})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRouteUnreachableHostIsUnavailable(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").Route(context.Background(), LatLng{13, 100}, LatLng{14, 101})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHaversine(t *testing.T) {
	// ~1.55 km between these two Bangkok points.
	d := Haversine(LatLng{13.75, 100.50}, LatLng{13.76, 100.51})
	assert.InDelta(t, 1550, d, 100)

	assert.Zero(t, Haversine(LatLng{13.75, 100.50}, LatLng{13.75, 100.50}))
}
