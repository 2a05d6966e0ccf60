package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionFromPrimaryProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/reverse-geocode-client", r.URL.Path)
		assert.Equal(t, "th", r.URL.Query().Get("localityLanguage"))
		w.Write([]byte(`{"principalSubdivision": "จังหวัดสงขลา"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, nil)
	region, err := r.Region(context.Background(), 7.0, 100.5)
	require.NoError(t, err)
	assert.Equal(t, "สงขลา", region)
}

func TestRegionCachesResults(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"principalSubdivision": "กรุงเทพมหานคร"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, nil)
	for i := 0; i < 3; i++ {
		region, err := r.Region(context.Background(), 13.7563, 100.5018)
		require.NoError(t, err)
		assert.Equal(t, "กรุงเทพมหานคร", region)
	}
	assert.Equal(t, 1, calls)
}

func TestRegionFailsWhenPrimaryDownAndNoFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, nil)
	_, err := r.Region(context.Background(), 13.75, 100.50)
	assert.Error(t, err)
}

func TestRegionEmptySubdivisionIsNoRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"principalSubdivision": ""}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, nil)
	_, err := r.Region(context.Background(), 0.1, 0.1)
	assert.ErrorIs(t, err, ErrNoRegion)
}
