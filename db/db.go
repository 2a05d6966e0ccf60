package db

import (
	"context"
	"encoding/base64"
	"os"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/apex/log"
	"google.golang.org/api/option"
)

// client is a singleton Firestore client instance.
var (
	client     *firestore.Client
	clientOnce sync.Once
)

// InitFirestore initializes and returns a Firestore client. Credentials come
// from the FIREBASE_CREDENTIALS env var as base64-encoded service-account
// JSON.
func InitFirestore() (*firestore.Client, error) {
	var err error

	clientOnce.Do(func() {
		encodedCreds := os.Getenv("FIREBASE_CREDENTIALS")
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			log.WithError(err).Fatal("Failed to decode Firestore credentials")
		}

		opt := option.WithCredentialsJSON(creds)
		app, err := firebase.NewApp(context.Background(), nil, opt)
		if err != nil {
			log.WithError(err).Fatal("Error initializing Firebase app")
		}

		client, err = app.Firestore(context.Background())
		if err != nil {
			log.WithError(err).Fatal("Error getting Firestore client")
		}
	})

	return client, err
}

// CloseFirestore closes the Firestore client.
func CloseFirestore() {
	if client != nil {
		client.Close()
	}
}
