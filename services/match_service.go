package services

import (
	"context"
	"fmt"
	"strings"

	"scoresheet_server/models"

	"github.com/google/uuid"
)

// CompletedMatchPrefix is the reserved name prefix that routes a lookup to
// the durable store instead of the live one.
const CompletedMatchPrefix = "completed_match"

// MatchService covers match creation and the read side: live listings,
// completed listings and results.
type MatchService struct {
	Live    LiveMatchStore
	Results ResultStore
}

// CreateMatch validates the parameters and stores a fresh live match under a
// generated id. Name uniqueness among live matches is enforced atomically by
// the store.
func (ms *MatchService) CreateMatch(ctx context.Context, params models.MatchParams, whitelist map[string]models.MatchRole, host string) (string, *models.LiveMatch, error) {
	if err := ValidateMatchParams(params); err != nil {
		return "", nil, err
	}
	if strings.HasPrefix(params.Name, CompletedMatchPrefix) {
		return "", nil, &ValidationError{Fields: map[string]string{
			"name": fmt.Sprintf("prefix %q is reserved", CompletedMatchPrefix),
		}}
	}
	id := uuid.NewString()
	match := models.NewLiveMatch(params, host, whitelist)
	if err := ms.Live.Create(ctx, id, match); err != nil {
		return "", nil, err
	}
	return id, match, nil
}

// FindLiveMatches lists live matches whose name contains namePattern,
// optionally narrowed by state and to the caller's own matches. A bare
// wildcard without host_only is rejected: unscoped full-store listings are
// disallowed to bound query cost.
func (ms *MatchService) FindLiveMatches(ctx context.Context, namePattern string, states []models.MatchState, hostOnly bool, callerID string) ([]models.LiveMatchEntry, error) {
	if (namePattern == "" || namePattern == "*") && !hostOnly {
		return nil, fmt.Errorf("wildcard name lookup requires host_only: %w", ErrInvalidInput)
	}
	stateSet := map[models.MatchState]bool{}
	for _, s := range states {
		stateSet[s] = true
	}

	entries, err := ms.Live.Scan(ctx, func(id string, m *models.LiveMatch) bool {
		if hostOnly && m.Host != callerID {
			return false
		}
		if namePattern != "" && namePattern != "*" && !strings.Contains(m.Name, namePattern) {
			return false
		}
		if len(stateSet) > 0 && !stateSet[m.CurrentState] {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	// non-hosts get the public projection
	for i := range entries {
		entries[i].Value = entries[i].Value.ViewFor(callerID)
	}
	return entries, nil
}

// FindCompletedMatches lists archived matches by name pattern
func (ms *MatchService) FindCompletedMatches(ctx context.Context, namePattern string) ([]models.CompletedMatch, error) {
	return ms.Results.CompletedMatchesByName(ctx, namePattern)
}

// DeleteMatch removes a live match. Only the host may do this.
func (ms *MatchService) DeleteMatch(ctx context.Context, id, callerID string) error {
	match, _, err := ms.Live.Get(ctx, id)
	if err != nil {
		return err
	}
	if match.Host != callerID {
		return fmt.Errorf("only the host may delete match %s: %w", id, ErrForbidden)
	}
	return ms.Live.Delete(ctx, id)
}

// GetResults returns the archived scoresheets of a match. Unknown matches
// and matches without scoresheets both yield an empty slice, not an error.
func (ms *MatchService) GetResults(ctx context.Context, matchID string) ([]models.Scoresheet, error) {
	return ms.Results.ScoresheetsByMatch(ctx, matchID)
}
