package services

import (
	"context"

	"scoresheet_server/models"
)

// LiveMatchStore is the accessor over the ephemeral store that owns every
// in-flight match. All mutation of a single match goes through
// CompareAndSwap, which makes lifecycle changes linearizable per match id
// without blocking unrelated matches.
type LiveMatchStore interface {
	// Create stores a new match under id. It fails with ErrConflict when the
	// match name is already taken by a live match, atomically, so two racing
	// creations with the same name yield exactly one success.
	Create(ctx context.Context, id string, match *models.LiveMatch) error

	// Get returns the match and the version token to pass to CompareAndSwap.
	// ErrNotFound when no live match has this id.
	Get(ctx context.Context, id string) (*models.LiveMatch, int64, error)

	// CompareAndSwap commits match if the stored version still equals
	// version, else ErrVersionConflict. The caller restarts its whole
	// check-and-commit cycle from a fresh Get on conflict.
	CompareAndSwap(ctx context.Context, id string, version int64, match *models.LiveMatch) error

	// Delete removes the live record. Deleting an absent id is not an error;
	// archival relies on that to stay idempotent.
	Delete(ctx context.Context, id string) error

	// Scan walks every live match and returns the entries keep accepts.
	// A nil keep returns everything. No ordering guarantee.
	Scan(ctx context.Context, keep func(id string, match *models.LiveMatch) bool) ([]models.LiveMatchEntry, error)
}

// ResultStore is the durable side of archival: completed matches and
// scoresheets. Saves are keyed upserts so archival retries never duplicate
// rows.
type ResultStore interface {
	SaveCompletedMatch(ctx context.Context, match models.CompletedMatch) error
	SaveScoresheet(ctx context.Context, sheet models.Scoresheet) error
	CompletedMatchesByName(ctx context.Context, namePattern string) ([]models.CompletedMatch, error)
	ScoresheetsByMatch(ctx context.Context, matchID string) ([]models.Scoresheet, error)
}
