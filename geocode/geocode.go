// Package geocode maps a coordinate to a region label for the dashboard.
// BigDataCloud is the primary provider; the Google Maps client is the
// fallback when the primary fails. Both failing is fine; callers label the
// case with the raw coordinates instead.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"googlemaps.github.io/maps"
)

// ErrNoRegion means neither provider produced a region label.
var ErrNoRegion = errors.New("geocode: no region for coordinate")

const defaultPrimaryBaseURL = "https://api.bigdatacloud.net"

// mapsClient is a singleton maps client instance.
var (
	mapsClient *maps.Client
	clientOnce sync.Once
)

// InitMapsClient initializes and returns a singleton Google Maps client.
func InitMapsClient() (*maps.Client, error) {
	var err error
	clientOnce.Do(func() {
		apiKey := os.Getenv("MAPS_CREDENTIALS")
		if apiKey == "" {
			err = fmt.Errorf("MAPS_CREDENTIALS environment variable not set")
			return
		}
		mapsClient, err = maps.NewClient(maps.WithAPIKey(apiKey))
		if err != nil {
			log.WithError(err).Fatal("Failed to create maps client")
		}
	})
	return mapsClient, err
}

// RegionLookup resolves a coordinate to a human region label.
type RegionLookup interface {
	Region(ctx context.Context, lat, lng float64) (string, error)
}

// Resolver is the two-provider RegionLookup with an in-memory cache. The
// cache never expires; provinces do not move.
type Resolver struct {
	primaryBaseURL string
	http           *http.Client
	maps           *maps.Client

	mu    sync.Mutex
	cache map[string]string
}

func NewResolver(primaryBaseURL string, mapsClient *maps.Client) *Resolver {
	if primaryBaseURL == "" {
		primaryBaseURL = defaultPrimaryBaseURL
	}
	return &Resolver{
		primaryBaseURL: primaryBaseURL,
		http:           &http.Client{Timeout: 8 * time.Second},
		maps:           mapsClient,
		cache:          make(map[string]string),
	}
}

// Region returns the region label for a coordinate, trying the primary
// provider first and the maps client second.
func (r *Resolver) Region(ctx context.Context, lat, lng float64) (string, error) {
	key := fmt.Sprintf("%.3f,%.3f", lat, lng)

	r.mu.Lock()
	if label, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return label, nil
	}
	r.mu.Unlock()

	label, err := r.primary(ctx, lat, lng)
	if err != nil {
		log.WithError(err).Debug("Primary reverse geocode failed, trying fallback")
		label, err = r.fallback(ctx, lat, lng)
	}
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[key] = label
	r.mu.Unlock()
	return label, nil
}

func (r *Resolver) primary(ctx context.Context, lat, lng float64) (string, error) {
	url := fmt.Sprintf("%s/data/reverse-geocode-client?latitude=%f&longitude=%f&localityLanguage=th",
		r.primaryBaseURL, lat, lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode status %d", resp.StatusCode)
	}

	var body struct {
		PrincipalSubdivision string `json:"principalSubdivision"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.PrincipalSubdivision == "" {
		return "", ErrNoRegion
	}
	return strings.TrimSpace(strings.TrimPrefix(body.PrincipalSubdivision, "จังหวัด")), nil
}

func (r *Resolver) fallback(ctx context.Context, lat, lng float64) (string, error) {
	if r.maps == nil {
		return "", ErrNoRegion
	}

	results, err := r.maps.Geocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", err
	}

	for _, result := range results {
		for _, comp := range result.AddressComponents {
			for _, t := range comp.Types {
				if t == "administrative_area_level_1" {
					return comp.LongName, nil
				}
			}
		}
	}
	return "", ErrNoRegion
}
