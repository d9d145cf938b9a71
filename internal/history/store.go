package history

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fusionflow/meetlink/internal/meeting"
)

// Record is one created meeting. Once appended to a Store it is never
// mutated or individually removed.
type Record struct {
	ID           string       `json:"id"`
	Kind         meeting.Kind `json:"kind"`
	Title        string       `json:"title"`
	Link         string       `json:"link"`
	EventID      string       `json:"eventId,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	ScheduledFor *time.Time   `json:"scheduledFor,omitempty"`
}

// NewRecord builds a Record for a successfully created meeting. IDs only
// need to be unique within a session, but a UUID is cheap and avoids the
// collisions a millisecond timestamp would allow on a double-click.
func NewRecord(req meeting.Request, link, eventID string, now time.Time) Record {
	rec := Record{
		ID:        string(req.Kind) + "-" + uuid.NewString(),
		Kind:      req.Kind,
		Title:     req.Summary,
		Link:      link,
		EventID:   eventID,
		CreatedAt: now,
	}
	if req.Kind == meeting.KindScheduled {
		start := req.Start
		rec.ScheduledFor = &start
	}
	return rec
}

// Store is an append-only ordered collection of Records. It is safe for
// concurrent use; creation handlers may overlap even though each session
// serializes its own creations.
type Store struct {
	mu      sync.RWMutex
	records []Record
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a record to the store.
func (s *Store) Append(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// List returns all records ordered by creation time descending, most
// recent first. Ties keep insertion order (stable sort).
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
