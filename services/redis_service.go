package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"scoresheet_server/models"

	"github.com/gomodule/redigo/redis"
)

const (
	matchKeyPrefix    = "match:"
	nameKeyPrefix     = "matchname:"
	redisTimeout      = 5 * time.Second
	deleteRetryBudget = 8
)

// RedisService is the live match store. Every match is stored as a JSON
// envelope carrying a version counter; CompareAndSwap commits through
// WATCH/MULTI/EXEC so concurrent writers race on the key, not on a lock.
type RedisService struct {
	Pool *redis.Pool
}

// NewRedisPool builds a connection pool with per-operation timeouts
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(redisTimeout),
				redis.DialReadTimeout(redisTimeout),
				redis.DialWriteTimeout(redisTimeout))
		},
	}
}

// matchEnvelope is the stored value: the match plus its CAS version
type matchEnvelope struct {
	Version int64             `json:"version"`
	Match   *models.LiveMatch `json:"match"`
}

// Create stores a new match under id. A secondary name key guards match-name
// uniqueness atomically: both keys are written in one transaction watched on
// the name key, so two racing creations with the same name produce exactly
// one success and one ErrConflict.
func (rs *RedisService) Create(ctx context.Context, id string, match *models.LiveMatch) error {
	conn, err := rs.Pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	nameKey := nameKeyPrefix + match.Name
	if _, err := conn.Do("WATCH", nameKey); err != nil {
		return fmt.Errorf("failed to watch name key: %w", err)
	}
	existing, err := conn.Do("GET", nameKey)
	if err != nil {
		return fmt.Errorf("failed to check name key: %w", err)
	}
	if existing != nil {
		conn.Do("UNWATCH")
		return fmt.Errorf("match name %q already live: %w", match.Name, ErrConflict)
	}

	raw, err := json.Marshal(matchEnvelope{Version: 1, Match: match})
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}
	conn.Send("MULTI")
	conn.Send("SET", nameKey, id)
	conn.Send("SET", matchKeyPrefix+id, raw)
	reply, err := conn.Do("EXEC")
	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", id, err)
	}
	if reply == nil {
		// another creation with the same name won the race
		return fmt.Errorf("match name %q already live: %w", match.Name, ErrConflict)
	}
	return nil
}

// Get returns the match and its version token
func (rs *RedisService) Get(ctx context.Context, id string) (*models.LiveMatch, int64, error) {
	conn, err := rs.Pool.GetContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", matchKeyPrefix+id))
	if errors.Is(err, redis.ErrNil) {
		return nil, 0, fmt.Errorf("no live match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	var env matchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal match %s: %w", id, err)
	}
	return env.Match, env.Version, nil
}

// CompareAndSwap commits match if the stored version is still the one the
// caller read. The key is watched across the re-read so a concurrent commit
// aborts the transaction.
func (rs *RedisService) CompareAndSwap(ctx context.Context, id string, version int64, match *models.LiveMatch) error {
	conn, err := rs.Pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	key := matchKeyPrefix + id
	if _, err := conn.Do("WATCH", key); err != nil {
		return fmt.Errorf("failed to watch match %s: %w", id, err)
	}
	raw, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		conn.Do("UNWATCH")
		return fmt.Errorf("no live match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to re-read match %s: %w", id, err)
	}
	var env matchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal match %s: %w", id, err)
	}
	if env.Version != version {
		conn.Do("UNWATCH")
		return fmt.Errorf("match %s moved from version %d to %d: %w", id, version, env.Version, ErrVersionConflict)
	}

	newRaw, err := json.Marshal(matchEnvelope{Version: version + 1, Match: match})
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}
	conn.Send("MULTI")
	conn.Send("SET", key, newRaw)
	reply, err := conn.Do("EXEC")
	if err != nil {
		return fmt.Errorf("failed to commit match %s: %w", id, err)
	}
	if reply == nil {
		return fmt.Errorf("match %s was modified concurrently: %w", id, ErrVersionConflict)
	}
	return nil
}

// Delete removes the live record and frees its name. Absent ids are a no-op
// so archival retries are safe. The match key is watched across the read: if
// the record changes before the commit the transaction aborts and the delete
// restarts from a fresh read, so the name key of a match re-registered under
// the same name in the meantime is never stripped.
func (rs *RedisService) Delete(ctx context.Context, id string) error {
	conn, err := rs.Pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	key := matchKeyPrefix + id
	for attempt := 0; attempt < deleteRetryBudget; attempt++ {
		if _, err := conn.Do("WATCH", key); err != nil {
			return fmt.Errorf("failed to watch match %s: %w", id, err)
		}
		raw, err := redis.Bytes(conn.Do("GET", key))
		if errors.Is(err, redis.ErrNil) {
			conn.Do("UNWATCH")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get match %s: %w", id, err)
		}
		var env matchEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("failed to unmarshal match %s: %w", id, err)
		}
		conn.Send("MULTI")
		conn.Send("DEL", key)
		conn.Send("DEL", nameKeyPrefix+env.Match.Name)
		reply, err := conn.Do("EXEC")
		if err != nil {
			return fmt.Errorf("failed to delete match %s: %w", id, err)
		}
		if reply == nil {
			// the record changed between read and commit; re-read
			continue
		}
		return nil
	}
	return fmt.Errorf("delete of match %s: %w", id, ErrContention)
}

// Scan walks every live match with a cursor scan and returns the entries
// keep accepts. Restartable per call; insertion order of the store only.
func (rs *RedisService) Scan(ctx context.Context, keep func(id string, match *models.LiveMatch) bool) ([]models.LiveMatchEntry, error) {
	conn, err := rs.Pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	var entries []models.LiveMatchEntry
	cursor := 0
	for {
		values, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", matchKeyPrefix+"*", "COUNT", 100))
		if err != nil {
			return nil, fmt.Errorf("failed to scan live matches: %w", err)
		}
		cursor, err = redis.Int(values[0], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan cursor: %w", err)
		}
		keys, err := redis.Strings(values[1], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan keys: %w", err)
		}
		for _, key := range keys {
			raw, err := redis.Bytes(conn.Do("GET", key))
			if errors.Is(err, redis.ErrNil) {
				continue // deleted between scan and get
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get %s: %w", key, err)
			}
			var env matchEnvelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
			}
			id := strings.TrimPrefix(key, matchKeyPrefix)
			if keep == nil || keep(id, env.Match) {
				entries = append(entries, models.LiveMatchEntry{ID: id, Value: *env.Match})
			}
		}
		if cursor == 0 {
			break
		}
	}
	return entries, nil
}
