package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scoresheet_server/models"
)

// ArchiveService migrates a finished match from the live store into durable
// storage: one CompletedMatch row and one Scoresheet per archer, then the
// live key is deleted. The live record is only removed after every durable
// write succeeded, so a crash mid-way leaves it in place as a safe retry
// marker, and all durable writes are keyed upserts so a retry never
// duplicates rows.
type ArchiveService struct {
	Live    LiveMatchStore
	Results ResultStore
}

// Archive runs the archival transition for a match. Re-running it for an
// already archived match finds no live record and is a no-op.
func (as *ArchiveService) Archive(ctx context.Context, matchID string) error {
	match, _, err := as.Live.Get(ctx, matchID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	completed := models.CompletedMatch{
		ID:         matchID,
		Name:       match.Name,
		Host:       match.Host,
		CreatedAt:  match.CreatedAt,
		FinishedAt: now,
	}
	if err := as.Results.SaveCompletedMatch(ctx, completed); err != nil {
		return fmt.Errorf("failed to archive match %s: %w", matchID, err)
	}

	for userID, p := range match.Participants {
		if p.Role != models.RoleArcher {
			continue
		}
		sheet := models.Scoresheet{
			ID:           models.ScoresheetID(matchID, userID),
			UserID:       userID,
			Round:        match.Round,
			ArrowsShot:   len(p.Scores),
			ArrowsPerEnd: match.ArrowsPerEnd,
			CreatedAt:    now,
			MatchID:      matchID,
			Scoresheet:   p.Scores,
		}
		if err := as.Results.SaveScoresheet(ctx, sheet); err != nil {
			return fmt.Errorf("failed to archive scoresheet for %s in match %s: %w", userID, matchID, err)
		}
	}

	return as.Live.Delete(ctx, matchID)
}
