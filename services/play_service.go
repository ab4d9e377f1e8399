package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"scoresheet_server/models"
)

const playRetryBudget = 8

// PlayService drives a live match through its lifecycle: ready signals,
// end submission, end confirmation, pause and resume. Every operation is one
// read-mutate-commit cycle through the compare-and-swap store.
type PlayService struct {
	Live    LiveMatchStore
	Archive *ArchiveService
}

func (ps *PlayService) apply(ctx context.Context, matchID string, mutate func(*models.LiveMatch) error) (*models.LiveMatch, error) {
	for attempt := 0; attempt < playRetryBudget; attempt++ {
		match, version, err := ps.Live.Get(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if err := mutate(match); err != nil {
			return nil, err
		}
		err = ps.Live.CompareAndSwap(ctx, matchID, version, match)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if match.IsTerminal() && ps.Archive != nil {
			// Archival failures stay internal: the live record doubles as
			// the retry marker, so we log for operators and move on.
			if err := ps.Archive.Archive(ctx, matchID); err != nil {
				log.Printf("archival of match %s failed, live record retained for retry: %v", matchID, err)
			}
		}
		return match, nil
	}
	return nil, fmt.Errorf("update of match %s: %w", matchID, ErrContention)
}

// SetReady marks the participant ready; when the last participant readies up
// the match moves from full to submit.
func (ps *PlayService) SetReady(ctx context.Context, matchID, userID string) (*models.LiveMatch, error) {
	return ps.apply(ctx, matchID, func(m *models.LiveMatch) error {
		p, ok := m.Participants[userID]
		if !ok {
			return fmt.Errorf("identity %s is not a participant of match %s: %w", userID, matchID, ErrForbidden)
		}
		if m.CurrentState != models.StateFull {
			return fmt.Errorf("cannot ready up in state %s: %w", m.CurrentState, ErrConflict)
		}
		p.Ready = true
		m.Participants[userID] = p
		if m.AllReady() {
			return m.Transition(models.StateSubmit)
		}
		return nil
	})
}

// SubmitEnd records the archer's arrows for the current end. The first
// finisher moves the match to waiting_submit; the last one opens the
// confirmation phase.
func (ps *PlayService) SubmitEnd(ctx context.Context, matchID, userID string, scores []models.Score) (*models.LiveMatch, error) {
	return ps.apply(ctx, matchID, func(m *models.LiveMatch) error {
		p, ok := m.Participants[userID]
		if !ok || p.Role != models.RoleArcher {
			return fmt.Errorf("identity %s is not an archer of match %s: %w", userID, matchID, ErrForbidden)
		}
		if m.CurrentState != models.StateSubmit && m.CurrentState != models.StateWaitingSubmit {
			return fmt.Errorf("cannot submit arrows in state %s: %w", m.CurrentState, ErrConflict)
		}
		if m.HasSubmittedEnd(userID) {
			return fmt.Errorf("end %d already submitted: %w", m.CurrentEnd, ErrConflict)
		}
		if len(scores) != m.ArrowsPerEnd {
			return fmt.Errorf("expected %d arrows, got %d: %w", m.ArrowsPerEnd, len(scores), ErrInvalidInput)
		}
		for _, s := range scores {
			if !s.Valid() {
				return fmt.Errorf("arrow score out of range: %w", ErrInvalidInput)
			}
			p.Scores = append(p.Scores, models.Arrow{Score: s, PreviousScore: s})
		}
		m.Participants[userID] = p

		if m.CurrentState == models.StateSubmit {
			if err := m.Transition(models.StateWaitingSubmit); err != nil {
				return err
			}
		}
		if m.AllSubmittedEnd() {
			return m.Transition(models.StateConfirmation)
		}
		return nil
	})
}

// ConfirmEnd signs off the current end for the participant. Judges also
// stamp their identity on the arrows they verified. When every participant
// has confirmed, the match advances to the next end or finishes.
func (ps *PlayService) ConfirmEnd(ctx context.Context, matchID, userID string) (*models.LiveMatch, error) {
	return ps.apply(ctx, matchID, func(m *models.LiveMatch) error {
		p, ok := m.Participants[userID]
		if !ok {
			return fmt.Errorf("identity %s is not a participant of match %s: %w", userID, matchID, ErrForbidden)
		}
		if m.CurrentState != models.StateConfirmation && m.CurrentState != models.StateWaitingConfirmation {
			return fmt.Errorf("cannot confirm end in state %s: %w", m.CurrentState, ErrConflict)
		}
		if m.HasConfirmedEnd(userID) {
			return fmt.Errorf("end %d already confirmed: %w", m.CurrentEnd, ErrConflict)
		}

		for len(p.EndsConfirmed) <= m.CurrentEnd {
			p.EndsConfirmed = append(p.EndsConfirmed, false)
		}
		p.EndsConfirmed[m.CurrentEnd] = true
		m.Participants[userID] = p

		if p.Role == models.RoleJudge {
			stampEnd(m, userID)
		}

		if m.CurrentState == models.StateConfirmation {
			if err := m.Transition(models.StateWaitingConfirmation); err != nil {
				return err
			}
		}
		if m.AllConfirmedEnd() {
			if m.CurrentEnd < m.NumEnds-1 {
				m.CurrentEnd++
				return m.Transition(models.StateSubmit)
			}
			return m.Transition(models.StateFinished)
		}
		return nil
	})
}

// stampEnd records the judge on every arrow of the current end
func stampEnd(m *models.LiveMatch, judgeID string) {
	for id, p := range m.Participants {
		if p.Role != models.RoleArcher {
			continue
		}
		start := m.CurrentEnd * m.ArrowsPerEnd
		for i := start; i < start+m.ArrowsPerEnd && i < len(p.Scores); i++ {
			p.Scores[i].JudgeUUID = judgeID
		}
		m.Participants[id] = p
	}
}

// Pause suspends the match from any non-terminal state
func (ps *PlayService) Pause(ctx context.Context, matchID, userID string) (*models.LiveMatch, error) {
	return ps.apply(ctx, matchID, func(m *models.LiveMatch) error {
		if _, ok := m.Participants[userID]; !ok && m.Host != userID {
			return fmt.Errorf("identity %s is not part of match %s: %w", userID, matchID, ErrForbidden)
		}
		if err := m.Pause(); err != nil {
			return fmt.Errorf("%v: %w", err, ErrConflict)
		}
		return nil
	})
}

// Resume returns a paused match to the state it was paused from
func (ps *PlayService) Resume(ctx context.Context, matchID, userID string) (*models.LiveMatch, error) {
	return ps.apply(ctx, matchID, func(m *models.LiveMatch) error {
		if _, ok := m.Participants[userID]; !ok && m.Host != userID {
			return fmt.Errorf("identity %s is not part of match %s: %w", userID, matchID, ErrForbidden)
		}
		if err := m.Resume(); err != nil {
			return fmt.Errorf("%v: %w", err, ErrConflict)
		}
		return nil
	})
}
