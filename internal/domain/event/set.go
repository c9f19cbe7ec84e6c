package event

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Set is the ordered collection of events collected for one transaction.
// It keeps every appended record, including value-equal duplicates.
type Set struct {
	mu     sync.RWMutex
	txID   uuid.UUID
	events []Record
	sealed bool
}

// NewSet returns an empty Set for txID.
func NewSet(txID uuid.UUID) *Set {
	return &Set{txID: txID}
}

func (s *Set) TransactionID() uuid.UUID { return s.txID }

// Append adds records in the order given. It fails once the set is sealed.
func (s *Set) Append(records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return ErrSealed
	}
	s.events = append(s.events, records...)
	return nil
}

// Seal marks ingestion complete. Further appends fail.
func (s *Set) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

func (s *Set) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// Events returns a copy of the collected records.
func (s *Set) Events() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// MarshalJSON implements json.Marshaler.
func (s *Set) MarshalJSON() ([]byte, error) {
	events := s.Events()
	if events == nil {
		events = []Record{}
	}
	return json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		Events        []Record  `json:"events"`
	}{s.txID, events})
}
