// Package stats derives the policy dashboard numbers from the full case set.
// Everything here is a pure function of the input slice; an empty set yields
// zeros, never a division fault.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/apex/log"

	"go-lifeline/geocode"
	"go-lifeline/types"
)

const unknownType = "อื่นๆ"

// RegionCount is one bar of the top-locations chart.
type RegionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the aggregate read model for the coordinator dashboard.
type Summary struct {
	TotalCases     int            `json:"totalCases"`
	CompletedCases int            `json:"completedCases"`
	SuccessRate    int            `json:"successRate"` // rounded percent
	ByType         map[string]int `json:"byType"`
	TopRegions     []RegionCount  `json:"topRegions"`
	ByHour         [24]int        `json:"byHour"`
}

// Compute builds the summary. lookup may be nil; cases whose coordinates
// cannot be resolved to a region are labeled with the raw coordinate instead.
func Compute(ctx context.Context, cases []types.Case, lookup geocode.RegionLookup, topN int) Summary {
	s := Summary{
		TotalCases: len(cases),
		ByType:     make(map[string]int),
	}

	regions := make(map[string]int)
	for _, c := range cases {
		if c.Status == types.StatusCompleted {
			s.CompletedCases++
		}

		t := c.DisasterType
		if t == "" {
			t = unknownType
		}
		s.ByType[t]++

		if !c.CreatedAt.IsZero() {
			s.ByHour[c.CreatedAt.Hour()]++
		}

		regions[regionLabel(ctx, c, lookup)]++
	}

	if s.TotalCases > 0 {
		s.SuccessRate = int(math.Round(float64(s.CompletedCases) / float64(s.TotalCases) * 100))
	}

	for name, count := range regions {
		s.TopRegions = append(s.TopRegions, RegionCount{Name: name, Count: count})
	}
	sort.Slice(s.TopRegions, func(i, j int) bool {
		if s.TopRegions[i].Count != s.TopRegions[j].Count {
			return s.TopRegions[i].Count > s.TopRegions[j].Count
		}
		return s.TopRegions[i].Name < s.TopRegions[j].Name
	})
	if topN > 0 && len(s.TopRegions) > topN {
		s.TopRegions = s.TopRegions[:topN]
	}

	return s
}

func regionLabel(ctx context.Context, c types.Case, lookup geocode.RegionLookup) string {
	if c.OriginLat == 0 && c.OriginLng == 0 {
		return "ไม่ระบุ"
	}
	if lookup != nil {
		name, err := lookup.Region(ctx, c.OriginLat, c.OriginLng)
		if err == nil {
			return name
		}
		log.WithError(err).Debugf("Region lookup failed for case %s", c.ID)
	}
	return fmt.Sprintf("%.2f,%.2f", c.OriginLat, c.OriginLng)
}
