package services

import (
	"context"
	"errors"
	"fmt"

	"scoresheet_server/models"
)

// reserveRetryBudget bounds the optimistic-concurrency retry loop. Only
// successful commits bump the version, so a loser converges after at most
// max_participants conflicts in practice.
const reserveRetryBudget = 8

// ReservationService admits participants into live matches under the
// capacity bound and issues the per-match session credentials.
type ReservationService struct {
	Live   LiveMatchStore
	Tokens *TokenService
}

// Reserve claims a participant slot in the match for the identity and
// returns a signed session credential. presentedToken is the raw match token
// the client already holds, empty if none; holding a valid credential for a
// different live match rejects the reservation, while re-requesting the same
// match is idempotent.
//
// Preconditions are checked against one fetched snapshot and committed via
// compare-and-swap, so a concurrent modification restarts the whole
// check-and-commit cycle from a fresh read.
func (rs *ReservationService) Reserve(ctx context.Context, matchID, userID, presentedToken string) (string, *models.MatchTokenPayload, error) {
	if presentedToken != "" {
		if held, err := rs.Tokens.ParseMatchToken(presentedToken); err == nil && held.MatchUUID != matchID {
			_, _, err := rs.Live.Get(ctx, held.MatchUUID)
			switch {
			case err == nil:
				return "", nil, fmt.Errorf("identity %s holds a credential for match %s: %w", userID, held.MatchUUID, ErrAlreadyReserved)
			case errors.Is(err, ErrNotFound):
				// the credential's match is gone; the client may reserve again
			default:
				// a transient store failure must not open a second slot
				return "", nil, fmt.Errorf("checking held match %s: %w", held.MatchUUID, err)
			}
		}
	}

	for attempt := 0; attempt < reserveRetryBudget; attempt++ {
		match, version, err := rs.Live.Get(ctx, matchID)
		if err != nil {
			return "", nil, err
		}

		if existing, ok := match.Participants[userID]; ok {
			// idempotent re-reserve: same payload, no slot consumed
			payload := models.MatchTokenPayload{UserUUID: userID, MatchUUID: matchID, Role: existing.Role}
			token, err := rs.Tokens.IssueMatchToken(payload)
			if err != nil {
				return "", nil, err
			}
			return token, &payload, nil
		}

		if match.CurrentState != models.StateOpen {
			return "", nil, fmt.Errorf("match %s is %s: %w", matchID, match.CurrentState, ErrCapacityExceeded)
		}
		if len(match.Participants) >= match.MaxParticipants {
			return "", nil, fmt.Errorf("match %s has %d participants: %w", matchID, len(match.Participants), ErrCapacityExceeded)
		}

		role := models.RoleArcher
		if len(match.Whitelist) > 0 {
			r, invited := match.Whitelist[userID]
			if !invited {
				return "", nil, fmt.Errorf("identity %s is not whitelisted for match %s: %w", userID, matchID, ErrForbidden)
			}
			role = r
		}

		participant := models.MatchParticipant{Role: role}
		if role == models.RoleArcher {
			participant.Scores = []models.Arrow{}
		}
		match.Participants[userID] = participant

		// the slot that fills the match closes it in the same commit
		if len(match.Participants) == match.MaxParticipants {
			if err := match.Transition(models.StateFull); err != nil {
				return "", nil, err
			}
		}

		err = rs.Live.CompareAndSwap(ctx, matchID, version, match)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return "", nil, err
		}

		payload := models.MatchTokenPayload{UserUUID: userID, MatchUUID: matchID, Role: role}
		token, err := rs.Tokens.IssueMatchToken(payload)
		if err != nil {
			return "", nil, err
		}
		return token, &payload, nil
	}
	return "", nil, fmt.Errorf("reservation for match %s: %w", matchID, ErrContention)
}

// ValidateCredential checks signature and expiry and that the referenced
// match is still live. A credential for an archived match is invalid,
// forcing clients back through the results path.
func (rs *ReservationService) ValidateCredential(ctx context.Context, tokenString string) (*models.MatchTokenPayload, error) {
	payload, err := rs.Tokens.ParseMatchToken(tokenString)
	if err != nil {
		return nil, err
	}
	if _, _, err := rs.Live.Get(ctx, payload.MatchUUID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("match %s is no longer live: %w", payload.MatchUUID, ErrCredentialInvalid)
		}
		return nil, err
	}
	return payload, nil
}
