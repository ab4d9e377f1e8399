package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"scoresheet_server/models"
	"scoresheet_server/services"
)

// fakeLiveStore is an in-memory stand-in for the Redis live match store
type fakeLiveStore struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	names   map[string]string
}

type fakeEntry struct {
	version int64
	raw     []byte
}

func newFakeLiveStore() *fakeLiveStore {
	return &fakeLiveStore{entries: map[string]fakeEntry{}, names: map[string]string{}}
}

func roundtrip(match *models.LiveMatch) ([]byte, *models.LiveMatch) {
	raw, err := json.Marshal(match)
	if err != nil {
		panic(err)
	}
	var copied models.LiveMatch
	if err := json.Unmarshal(raw, &copied); err != nil {
		panic(err)
	}
	return raw, &copied
}

func (s *fakeLiveStore) Create(ctx context.Context, id string, match *models.LiveMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[match.Name]; taken {
		return fmt.Errorf("match name %q already live: %w", match.Name, services.ErrConflict)
	}
	raw, _ := roundtrip(match)
	s.names[match.Name] = id
	s.entries[id] = fakeEntry{version: 1, raw: raw}
	return nil
}

func (s *fakeLiveStore) Get(ctx context.Context, id string) (*models.LiveMatch, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, 0, fmt.Errorf("no live match %s: %w", id, services.ErrNotFound)
	}
	var match models.LiveMatch
	if err := json.Unmarshal(entry.raw, &match); err != nil {
		return nil, 0, err
	}
	return &match, entry.version, nil
}

func (s *fakeLiveStore) CompareAndSwap(ctx context.Context, id string, version int64, match *models.LiveMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("no live match %s: %w", id, services.ErrNotFound)
	}
	if entry.version != version {
		return fmt.Errorf("match %s changed: %w", id, services.ErrVersionConflict)
	}
	raw, _ := roundtrip(match)
	s.entries[id] = fakeEntry{version: version + 1, raw: raw}
	return nil
}

func (s *fakeLiveStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	var match models.LiveMatch
	if err := json.Unmarshal(entry.raw, &match); err == nil {
		delete(s.names, match.Name)
	}
	delete(s.entries, id)
	return nil
}

func (s *fakeLiveStore) Scan(ctx context.Context, keep func(id string, match *models.LiveMatch) bool) ([]models.LiveMatchEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.LiveMatchEntry
	for id, entry := range s.entries {
		var match models.LiveMatch
		if err := json.Unmarshal(entry.raw, &match); err != nil {
			return nil, err
		}
		if keep == nil || keep(id, &match) {
			result = append(result, models.LiveMatchEntry{ID: id, Value: match})
		}
	}
	return result, nil
}

// fakeResultStore is an in-memory stand-in for the DynamoDB result store
type fakeResultStore struct {
	mu          sync.Mutex
	completed   map[string]models.CompletedMatch
	scoresheets map[string]models.Scoresheet
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{completed: map[string]models.CompletedMatch{}, scoresheets: map[string]models.Scoresheet{}}
}

func (s *fakeResultStore) SaveCompletedMatch(ctx context.Context, match models.CompletedMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[match.ID] = match
	return nil
}

func (s *fakeResultStore) SaveScoresheet(ctx context.Context, sheet models.Scoresheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoresheets[sheet.ID] = sheet
	return nil
}

func (s *fakeResultStore) CompletedMatchesByName(ctx context.Context, namePattern string) ([]models.CompletedMatch, error) {
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

func (s *fakeResultStore) ScoresheetsByMatch(ctx context.Context, matchID string) ([]models.Scoresheet, error) {
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
