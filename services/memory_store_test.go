package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"scoresheet_server/models"
)

// memoryLiveStore mimics the Redis store: versioned JSON envelopes, atomic
// name uniqueness on create, deep copies on read so callers never share
// state with the store.
type memoryLiveStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	names   map[string]string
}

type memoryEntry struct {
	version int64
	raw     []byte
}

func newMemoryLiveStore() *memoryLiveStore {
	return &memoryLiveStore{
		entries: map[string]memoryEntry{},
		names:   map[string]string{},
	}
}

func encodeMatch(match *models.LiveMatch) []byte {
	raw, err := json.Marshal(match)
	if err != nil {
		panic(err)
	}
	return raw
}

func decodeMatch(raw []byte) *models.LiveMatch {
	var match models.LiveMatch
	if err := json.Unmarshal(raw, &match); err != nil {
		panic(err)
	}
	return &match
}

func (s *memoryLiveStore) Create(ctx context.Context, id string, match *models.LiveMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[match.Name]; taken {
		return fmt.Errorf("match name %q already live: %w", match.Name, ErrConflict)
	}
	s.names[match.Name] = id
	s.entries[id] = memoryEntry{version: 1, raw: encodeMatch(match)}
	return nil
}

func (s *memoryLiveStore) Get(ctx context.Context, id string) (*models.LiveMatch, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, 0, fmt.Errorf("no live match %s: %w", id, ErrNotFound)
	}
	return decodeMatch(entry.raw), entry.version, nil
}

func (s *memoryLiveStore) CompareAndSwap(ctx context.Context, id string, version int64, match *models.LiveMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("no live match %s: %w", id, ErrNotFound)
	}
	if entry.version != version {
		return fmt.Errorf("match %s moved from version %d to %d: %w", id, version, entry.version, ErrVersionConflict)
	}
	s.entries[id] = memoryEntry{version: version + 1, raw: encodeMatch(match)}
	return nil
}

func (s *memoryLiveStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	delete(s.names, decodeMatch(entry.raw).Name)
	delete(s.entries, id)
	return nil
}

func (s *memoryLiveStore) Scan(ctx context.Context, keep func(id string, match *models.LiveMatch) bool) ([]models.LiveMatchEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []models.LiveMatchEntry
	for id, entry := range s.entries {
		match := decodeMatch(entry.raw)
		if keep == nil || keep(id, match) {
			entries = append(entries, models.LiveMatchEntry{ID: id, Value: *match})
		}
	}
	return entries, nil
}

// memoryResultStore records durable writes keyed the same way DynamoDB
// would, so tests can assert archival idempotency.
type memoryResultStore struct {
	mu          sync.Mutex
	completed   map[string]models.CompletedMatch
	scoresheets map[string]models.Scoresheet

	failScoresheets bool // simulate a durable-write failure mid-archive
}

func newMemoryResultStore() *memoryResultStore {
	return &memoryResultStore{
		completed:   map[string]models.CompletedMatch{},
		scoresheets: map[string]models.Scoresheet{},
	}
}

func (s *memoryResultStore) SaveCompletedMatch(ctx context.Context, match models.CompletedMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[match.ID] = match
	return nil
}

func (s *memoryResultStore) SaveScoresheet(ctx context.Context, sheet models.Scoresheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failScoresheets {
		return fmt.Errorf("simulated scoresheet write failure")
	}
	s.scoresheets[sheet.ID] = sheet
	return nil
}

func (s *memoryResultStore) CompletedMatchesByName(ctx context.Context, namePattern string) ([]models.CompletedMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []models.CompletedMatch
	for _, m := range s.completed {
		if strings.Contains(m.Name, namePattern) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *memoryResultStore) ScoresheetsByMatch(ctx context.Context, matchID string) ([]models.Scoresheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sheets []models.Scoresheet
	for _, sheet := range s.scoresheets {
		if sheet.MatchID == matchID {
			sheets = append(sheets, sheet)
		}
	}
	return sheets, nil
}
