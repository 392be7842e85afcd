package storage

import (
	"context"
	"encoding/json"
)

// Collection names used across the service
const (
	CollectionChallenges  = "challenges"
	CollectionUsers       = "users"
	CollectionAccounts    = "accounts"
	CollectionEnrollments = "enrollments"
	CollectionEssays      = "essays"
	CollectionPartners    = "partners"
	CollectionThreads     = "threads"
	CollectionComments    = "comments"
	CollectionPayments    = "payments"
)

// Document is a stored document and its id
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into dst
func (d Document) Decode(dst any) error {
	return json.Unmarshal(d.Data, dst)
}

// Filter is an equality match on a top-level field
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one collection.
// Without OrderBy documents come back in insertion order.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Store defines the document store used as the source of truth.
// Writes are atomic per document; RunInTx groups several writes.
type Store interface {
	// Create stores data under a generated id
	Create(ctx context.Context, collection string, data any) (string, error)
	// Put stores data under id, replacing any previous document
	Put(ctx context.Context, collection, id string, data any) error
	// Get decodes the document into dst; found is false when it does not exist
	Get(ctx context.Context, collection, id string, dst any) (found bool, err error)
	// Update shallow-merges patch into the document. With merge the document
	// is created when missing, otherwise models.ErrNotFound is returned.
	Update(ctx context.Context, collection, id string, patch map[string]any, merge bool) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// RunInTx runs fn against a transactional view of the store.
	// Nothing fn wrote is visible if it returns an error.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
