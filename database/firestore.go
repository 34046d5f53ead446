package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultFirestoreCollection holds the key documents when none is configured.
const DefaultFirestoreCollection = "kv"

// FirestoreKV is a KVStore keeping one document per key in a collection.
type FirestoreKV struct {
	client     *firestore.Client
	collection string
}

// firestoreEntry is the document layout for a stored value.
type firestoreEntry struct {
	Value string `firestore:"value"`
}

// NewFirestoreKV connects to Firestore. An empty credentialsFile falls back
// to application default credentials.
func NewFirestoreKV(ctx context.Context, projectID, credentialsFile, collection string) (*FirestoreKV, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}

	if collection == "" {
		collection = DefaultFirestoreCollection
	}
	return &FirestoreKV{client: client, collection: collection}, nil
}

// Get returns the value stored under key.
func (s *FirestoreKV) Get(ctx context.Context, key string) (string, error) {
	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}

	var entry firestoreEntry
	if err := snap.DataTo(&entry); err != nil {
		return "", fmt.Errorf("decode %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set stores value under key, replacing the whole document.
func (s *FirestoreKV) Set(ctx context.Context, key, value string) error {
	_, err := s.client.Collection(s.collection).Doc(key).Set(ctx, firestoreEntry{Value: value})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close closes the Firestore client.
func (s *FirestoreKV) Close() error {
	return s.client.Close()
}
