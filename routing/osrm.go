// Package routing asks an OSRM server for a driving route between the
// responder and the reporter. The public router.project-osrm.org instance is
// the default; ROUTING_BASE_URL overrides it.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// ErrUnavailable covers every routing failure: network, non-200, empty
// result. Callers degrade to a straight-line estimate instead of surfacing
// the error to the viewer.
var ErrUnavailable = errors.New("routing: service unavailable")

const defaultBaseURL = "https://router.project-osrm.org"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is the external routing capability's answer for one coordinate pair.
type Route struct {
	DistanceMeters  float64  `json:"distanceMeters"`
	DurationSeconds float64  `json:"durationSeconds"`
	Path            []LatLng `json:"pathPoints"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route fetches the driving route from start to end.
func (c *Client) Route(ctx context.Context, start, end LatLng) (*Route, error) {
	// OSRM coordinate order is longitude,latitude.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, start.Lng, start.Lat, end.Lng, end.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("%w: no route", ErrUnavailable)
	}

	r := body.Routes[0]
	route := &Route{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Path:            make([]LatLng, 0, len(r.Geometry.Coordinates)),
	}
	for _, coord := range r.Geometry.Coordinates {
		if len(coord) < 2 {
			continue
		}
		route.Path = append(route.Path, LatLng{Lat: coord[1], Lng: coord[0]})
	}
	return route, nil
}

const earthRadiusMeters = 6371000

// Haversine is the straight-line distance in meters, used as the degraded
// estimate when the routing service is down.
func Haversine(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
