package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-lifeline/types"
)

type fakeLookup struct {
	regions map[string]string
	err     error
	calls   int
}

func (f *fakeLookup) Region(_ context.Context, lat, lng float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	key := ""
	if lat > 15 {
		key = "เชียงใหม่"
	} else {
		key = "สงขลา"
	}
	return key, nil
}

func TestSuccessRate(t *testing.T) {
	cases := []types.Case{
		{Status: types.StatusCompleted},
		{Status: types.StatusCompleted},
		{Status: types.StatusPending},
		{Status: types.StatusAccepted},
	}

	s := Compute(context.Background(), cases, nil, 5)
	assert.Equal(t, 4, s.TotalCases)
	assert.Equal(t, 2, s.CompletedCases)
	assert.Equal(t, 50, s.SuccessRate)
}

func TestEmptySetYieldsZeros(t *testing.T) {
	s := Compute(context.Background(), nil, nil, 5)
	assert.Equal(t, 0, s.TotalCases)
	assert.Equal(t, 0, s.SuccessRate)
	assert.Empty(t, s.TopRegions)
	assert.Empty(t, s.ByType)
}

func TestTypeDistributionWithMissingType(t *testing.T) {
	cases := []types.Case{
		{DisasterType: "น้ำท่วม"},
		{DisasterType: "น้ำท่วม"},
		{DisasterType: "ไฟไหม้"},
		{},
	}

	s := Compute(context.Background(), cases, nil, 5)
	assert.Equal(t, 2, s.ByType["น้ำท่วม"])
	assert.Equal(t, 1, s.ByType["ไฟไหม้"])
	assert.Equal(t, 1, s.ByType["อื่นๆ"])
}

func TestTopRegionsWithLookup(t *testing.T) {
	cases := []types.Case{
		{OriginLat: 18.8, OriginLng: 99.0},
		{OriginLat: 18.7, OriginLng: 98.9},
		{OriginLat: 7.0, OriginLng: 100.5},
	}
	lookup := &fakeLookup{}

	s := Compute(context.Background(), cases, lookup, 5)
	require.Len(t, s.TopRegions, 2)
	assert.Equal(t, RegionCount{Name: "เชียงใหม่", Count: 2}, s.TopRegions[0])
	assert.Equal(t, RegionCount{Name: "สงขลา", Count: 1}, s.TopRegions[1])
}

func TestRegionFallsBackToCoordinateOnLookupFailure(t *testing.T) {
	cases := []types.Case{{OriginLat: 13.75, OriginLng: 100.5}}
	lookup := &fakeLookup{err: errors.New("offline")}

	s := Compute(context.Background(), cases, lookup, 5)
	require.Len(t, s.TopRegions, 1)
	assert.Equal(t, "13.75,100.50", s.TopRegions[0].Name)
}

func TestMissingCoordinatesLabeledUnknown(t *testing.T) {
	s := Compute(context.Background(), []types.Case{{}}, &fakeLookup{}, 5)
	require.Len(t, s.TopRegions, 1)
	assert.Equal(t, "ไม่ระบุ", s.TopRegions[0].Name)
}

func TestTopNTruncation(t *testing.T) {
	var cases []types.Case
	for i := 0; i < 8; i++ {
		cases = append(cases, types.Case{OriginLat: float64(i) + 0.5, OriginLng: 100})
	}
	lookup := &fakeLookup{err: errors.New("offline")} // unique coordinate labels

	s := Compute(context.Background(), cases, lookup, 5)
	assert.Len(t, s.TopRegions, 5)
}

func TestHourOfDayBuckets(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 8, 30, h, 15, 0, 0, time.UTC) }
	cases := []types.Case{
		{CreatedAt: at(2)},
		{CreatedAt: at(2)},
		{CreatedAt: at(23)},
		{}, // zero createdAt is not bucketed
	}

	s := Compute(context.Background(), cases, nil, 5)
	assert.Equal(t, 2, s.ByHour[2])
	assert.Equal(t, 1, s.ByHour[23])
	assert.Equal(t, 0, s.ByHour[0])
}
