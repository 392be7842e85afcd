package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]memDoc
	seq  uint64
	inTx bool
}

type memDoc struct {
	raw []byte
	seq uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]memDoc)}
}

func (s *MemoryStore) collection(name string) map[string]memDoc {
	c, ok := s.data[name]
	if !ok {
		c = make(map[string]memDoc)
		s.data[name] = c
	}
	return c
}

func (s *MemoryStore) put(collection, id string, raw []byte) {
	c := s.collection(collection)
	doc, exists := c[id]
	if !exists {
		s.seq++
		doc.seq = s.seq
	}
	doc.raw = raw
	c[id] = doc
}

// Create stores data under a generated id
func (s *MemoryStore) Create(ctx context.Context, collection string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, raw)
	return id, nil
}

// Put stores data under id, replacing any previous document
func (s *MemoryStore) Put(ctx context.Context, collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, raw)
	return nil
}

// Get decodes the document into dst
func (s *MemoryStore) Get(ctx context.Context, collection, id string, dst any) (bool, error) {
	s.mu.RLock()
	doc, ok := s.data[collection][id]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(doc.raw, dst); err != nil {
		return true, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return true, nil
}

// Update shallow-merges patch into the stored document
func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make(map[string]any)
	doc, ok := s.data[collection][id]
	switch {
	case ok:
		if err := json.Unmarshal(doc.raw, &fields); err != nil {
			return fmt.Errorf("failed to unmarshal document: %w", err)
		}
	case !merge:
		return fmt.Errorf("document %s/%s: %w", collection, id, models.ErrNotFound)
	}

	for k, v := range patch {
		fields[k] = v
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	s.put(collection, id, raw)
	return nil
}

// Delete removes a document; deleting a missing document is not an error
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

// Query returns the documents of a collection matching q
func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	wants := make([]any, len(q.Where))
	for i, f := range q.Where {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid filter on %s: %w", f.Field, err)
		}
		wants[i] = v
	}

	type row struct {
		doc    Document
		fields map[string]any
		seq    uint64
	}

	s.mu.RLock()
	var rows []row
	for id, doc := range s.data[collection] {
		var fields map[string]any
		if err := json.Unmarshal(doc.raw, &fields); err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
		}

		matched := true
		for i, f := range q.Where {
			if !reflect.DeepEqual(fields[f.Field], wants[i]) {
				matched = false
				break
			}
		}
		if matched {
			raw := make([]byte, len(doc.raw))
			copy(raw, doc.raw)
			rows = append(rows, row{doc: Document{ID: id, Data: raw}, fields: fields, seq: doc.seq})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(rows[i].fields[q.OrderBy], rows[j].fields[q.OrderBy])
			if c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return rows[i].seq < rows[j].seq
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	result := make([]Document, len(rows))
	for i, r := range rows {
		result[i] = r.doc
	}
	return result, nil
}

// RunInTx runs fn on a copy of the store and commits the copy on success.
// Other writers are blocked until fn returns.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{data: s.cloneData(), seq: s.seq, inTx: true}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.data = tx.data
	s.seq = tx.seq
	return nil
}

func (s *MemoryStore) cloneData() map[string]map[string]memDoc {
	out := make(map[string]map[string]memDoc, len(s.data))
	for name, c := range s.data {
		cc := make(map[string]memDoc, len(c))
		for id, doc := range c {
			cc[id] = doc
		}
		out[name] = cc
	}
	return out
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// normalize converts v into the shape encoding/json decodes into
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			if at, bt, ok := parseTimes(av, bv); ok {
				return at.Compare(bt)
			}
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	if b == nil {
		return 1
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// parseTimes reports whether both values are RFC 3339 timestamps.
// Their text does not sort reliably since trailing fraction zeros are dropped.
func parseTimes(a, b string) (time.Time, time.Time, bool) {
	at, err := time.Parse(time.RFC3339Nano, a)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	bt, err := time.Parse(time.RFC3339Nano, b)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return at, bt, true
}
