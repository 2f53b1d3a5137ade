package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and documents one-to-one onto Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects with the service-account file when given,
// otherwise with application default credentials (or FIRESTORE_EMULATOR_HOST).
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return snapshotToDocument(snap)
}

func (s *FirestoreStore) List(ctx context.Context, collection string) ([]Document, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := snapshotToDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := normalize(fields)
	if err != nil {
		return "", err
	}

	if id == "" {
		ref := s.client.Collection(collection).NewDoc()
		if _, err := ref.Set(ctx, data); err != nil {
			return "", fmt.Errorf("failed to set document: %w", err)
		}
		return ref.ID, nil
	}

	if _, err := s.client.Collection(collection).Doc(id).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		value, err := normalize(u.Value)
		if err != nil {
			return err
		}
		if u.Append {
			value = firestore.ArrayUnion(value)
		}
		fsUpdates = append(fsUpdates, firestore.Update{Path: u.Path, Value: value})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, fsUpdates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func snapshotToDocument(snap *firestore.DocumentSnapshot) (*Document, error) {
	// Round-trip through JSON so timestamps and integers come back in the
	// same shapes the SQLite backend produces.
	fields, err := ToFields(snap.Data())
	if err != nil {
		return nil, err
	}
	return &Document{ID: snap.Ref.ID, Fields: fields}, nil
}
