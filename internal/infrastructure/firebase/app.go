package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ClientOptions returns the credentials used by every Google client. Without
// a credentials file the application default credentials apply.
func ClientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}

// NewFirestore initializes the Firebase app for projectID and returns its
// Firestore client.
func NewFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*firestore.Client, error) {
	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firestore: %w", err)
	}
	return client, nil
}

// Ping reads at most one document to confirm Firestore is reachable.
func Ping(ctx context.Context, client *firestore.Client) error {
	iter := client.Collection("users").Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}
