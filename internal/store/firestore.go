package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreRecords keeps reference records in one collection with generated document ids.
type FirestoreRecords struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreRecords(client *firestore.Client, collection string) *FirestoreRecords {
	return &FirestoreRecords{client: client, collection: collection}
}

func (s *FirestoreRecords) Insert(ctx context.Context, rec models.StatementRecord) (string, error) {
	docRef := s.client.Collection(s.collection).NewDoc()
	if _, err := docRef.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to create reference document: %w", err)
	}
	return docRef.ID, nil
}

func (s *FirestoreRecords) Get(ctx context.Context, id string) (*models.StatementRecord, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read reference document: %w", err)
	}

	var rec models.StatementRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode reference document: %w", err)
	}
	rec.ID = snap.Ref.ID
	return &rec, nil
}
