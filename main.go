package main

import (
	"os"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"go-lifeline/cronjobs"
	"go-lifeline/db"
	"go-lifeline/geocode"
	"go-lifeline/handlers"
	"go-lifeline/realtime"
	"go-lifeline/routes"
	"go-lifeline/routing"
	"go-lifeline/tracking"
	"go-lifeline/triage"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Warn("No .env file loaded")
	}

	// Init Firestore
	firestoreClient, err := db.InitFirestore()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize Firestore")
	}
	defer db.CloseFirestore() // Firestore client is closed on exit

	store := db.NewCaseStore(firestoreClient)

	// Reverse-region lookup: BigDataCloud primary, Google Maps fallback. The
	// maps key is optional; without it only the primary provider is used.
	mapsClient, err := geocode.InitMapsClient()
	if err != nil {
		log.WithError(err).Warn("Maps client unavailable, reverse geocode runs without fallback")
		mapsClient = nil
	}
	regions := geocode.NewResolver(os.Getenv("GEOCODE_BASE_URL"), mapsClient)

	// Realtime hub with store-backed topic listeners.
	hub := realtime.NewHub()
	realtime.NewBridge(store, hub)
	go hub.Run()

	// Live location tracking and ETA.
	router := routing.NewClient(os.Getenv("ROUTING_BASE_URL"))
	tracker := tracking.New(store, router, hub)

	// Scheduled dashboard snapshot.
	cronjobs.InitCronJobs(firestoreClient, store, regions)

	h := handlers.New(store, hub, tracker, regions, triage.New())

	r := routes.SetupRouter(h)
	if err := r.Run(":8080"); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
