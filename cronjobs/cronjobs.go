package cronjobs

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/apex/log"
	"github.com/robfig/cron/v3"

	"go-lifeline/db"
	"go-lifeline/geocode"
	"go-lifeline/stats"
)

const snapshotTopRegions = 5

// InitCronJobs schedules the periodic dashboard snapshot. Coordinators read
// the persisted summary instead of recomputing over the full collection on
// every page load.
func InitCronJobs(client *firestore.Client, store *db.CaseStore, regions geocode.RegionLookup) *cron.Cron {
	log.Info("Starting cron jobs")
	c := cron.New()

	// Policy dashboard snapshot: every 10 minutes.
	_, err := c.AddFunc("*/10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		cases, err := store.List(ctx)
		if err != nil {
			log.WithError(err).Error("Dashboard snapshot: listing cases failed")
			return
		}
		summary := stats.Compute(ctx, cases, regions, snapshotTopRegions)

		_, err = client.Collection("dashboards").Doc("policy").Set(ctx, map[string]interface{}{
			"summary":     summary,
			"generatedAt": firestore.ServerTimestamp,
		})
		if err != nil {
			log.WithError(err).Error("Dashboard snapshot: write failed")
			return
		}
		log.Infof("Dashboard snapshot written (%d cases)", summary.TotalCases)
	})
	if err != nil {
		log.WithError(err).Error("Error scheduling dashboard snapshot")
	}

	c.Start()
	return c
}
