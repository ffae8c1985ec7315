// Package memory implements storage.Repository in process memory. It is
// the default backend for development and the workhorse of the test suite.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"envelopes/internal/storage"
)

type Store struct {
	mu           sync.RWMutex
	periods      map[string]storage.Period
	envelopes    map[string]storage.Envelope
	envOrder     []string
	transactions map[string]storage.Transaction
}

func New() *Store {
	return &Store{
		periods:      make(map[string]storage.Period),
		envelopes:    make(map[string]storage.Envelope),
		transactions: make(map[string]storage.Transaction),
	}
}

func (s *Store) SavePeriod(_ context.Context, p storage.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[p.ID] = p
	return nil
}

func (s *Store) GetPeriod(_ context.Context, id string) (storage.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.periods[id]
	if !ok {
		return storage.Period{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetCurrentPeriod(_ context.Context, now time.Time) (storage.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current storage.Period
	found := false
	for _, p := range s.periods {
		// End date is inclusive: the period covers [start, end+1d)
		if now.Before(p.StartDate) || !now.Before(p.EndDate.AddDate(0, 0, 1)) {
			continue
		}
		if !found || p.StartDate.Before(current.StartDate) {
			current = p
			found = true
		}
	}
	if !found {
		return storage.Period{}, storage.ErrNotFound
	}
	return current, nil
}

func (s *Store) ListPeriods(_ context.Context) ([]storage.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]storage.Period, 0, len(s.periods))
	for _, p := range s.periods {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].StartDate.After(res[j].StartDate)
	})
	return res, nil
}

func (s *Store) CreateEnvelope(_ context.Context, e storage.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.envelopes {
		if strings.EqualFold(existing.Name, e.Name) {
			return storage.ErrDuplicateEnvelope
		}
	}
	s.envelopes[e.ID] = e
	s.envOrder = append(s.envOrder, e.ID)
	return nil
}

func (s *Store) GetEnvelope(_ context.Context, id string) (storage.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.envelopes[id]
	if !ok {
		return storage.Envelope{}, storage.ErrNotFound
	}
	return e, nil
}

// ListEnvelopes returns envelopes in creation order, which the dashboard
// relies on for stable category ordering.
func (s *Store) ListEnvelopes(_ context.Context) ([]storage.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]storage.Envelope, 0, len(s.envOrder))
	for _, id := range s.envOrder {
		if e, ok := s.envelopes[id]; ok {
			res = append(res, e)
		}
	}
	return res, nil
}

// DeleteEnvelope refuses to delete envelopes still referenced by
// transactions, matching the sqlite backend's foreign key behavior.
func (s *Store) DeleteEnvelope(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.envelopes[id]; !ok {
		return storage.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.EnvelopeID == id {
			return storage.ErrEnvelopeInUse
		}
	}
	delete(s.envelopes, id)
	for i, existing := range s.envOrder {
		if existing == id {
			s.envOrder = append(s.envOrder[:i], s.envOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t storage.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (storage.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return storage.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, filter storage.TransactionFilter) ([]storage.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]storage.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if filter.PeriodID != nil && t.PeriodID != *filter.PeriodID {
			continue
		}
		if filter.EnvelopeID != nil && t.EnvelopeID != *filter.EnvelopeID {
			continue
		}
		res = append(res, t)
	}
	// ISO 8601 strings order chronologically as text
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Date < res[j].Date
	})
	return res, nil
}

func (s *Store) Close() error {
	return nil
}
