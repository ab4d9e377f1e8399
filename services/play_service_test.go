package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scoresheet_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playFixture struct {
	play    *PlayService
	store   *memoryLiveStore
	results *memoryResultStore
	matchID string
}

// newPlayFixture builds a full match: two archers and a judge, ends of three
// arrows, numEnds ends.
func newPlayFixture(t *testing.T, numEnds int) *playFixture {
	t.Helper()
	store := newMemoryLiveStore()
	results := newMemoryResultStore()

	match := models.NewLiveMatch(models.MatchParams{
		Name:            "Full_Lifecycle",
		MaxParticipants: 3,
		ArrowsPerEnd:    3,
		NumEnds:         numEnds,
	}, "host-uuid", nil)
	match.CurrentState = models.StateFull
	match.Participants["archer-1"] = models.MatchParticipant{Role: models.RoleArcher, Scores: []models.Arrow{}}
	match.Participants["archer-2"] = models.MatchParticipant{Role: models.RoleArcher, Scores: []models.Arrow{}}
	match.Participants["judge-1"] = models.MatchParticipant{Role: models.RoleJudge}
	require.NoError(t, store.Create(context.Background(), "match-1", match))

	return &playFixture{
		play:    &PlayService{Live: store, Archive: &ArchiveService{Live: store, Results: results}},
		store:   store,
		results: results,
		matchID: "match-1",
	}
}

func (f *playFixture) state(t *testing.T) models.MatchState {
	t.Helper()
	match, _, err := f.store.Get(context.Background(), f.matchID)
	require.NoError(t, err)
	return match.CurrentState
}

func TestReadyMovesFullToSubmit(t *testing.T) {
	f := newPlayFixture(t, 2)
	ctx := context.Background()

	match, err := f.play.SetReady(ctx, f.matchID, "archer-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateFull, match.CurrentState)

	_, err = f.play.SetReady(ctx, f.matchID, "archer-2")
	require.NoError(t, err)

	match, err = f.play.SetReady(ctx, f.matchID, "judge-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateSubmit, match.CurrentState)
}

func TestReadyRejectsOutsiders(t *testing.T) {
	f := newPlayFixture(t, 2)
	_, err := f.play.SetReady(context.Background(), f.matchID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
}

func readyAll(t *testing.T, f *playFixture) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"archer-1", "archer-2", "judge-1"} {
		_, err := f.play.SetReady(ctx, f.matchID, id)
		require.NoError(t, err)
	}
}

func TestSubmitPhase(t *testing.T) {
	f := newPlayFixture(t, 2)
	readyAll(t, f)
	ctx := context.Background()
	end := []models.Score{10, 9, models.ScoreX}

	// judges cannot submit arrows
	_, err := f.play.SubmitEnd(ctx, f.matchID, "judge-1", end)
	assert.ErrorIs(t, err, ErrForbidden)

	// wrong arrow count
	_, err = f.play.SubmitEnd(ctx, f.matchID, "archer-1", []models.Score{10})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// out-of-range score
	_, err = f.play.SubmitEnd(ctx, f.matchID, "archer-1", []models.Score{10, 9, 11})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// first finisher waits for the rest
	match, err := f.play.SubmitEnd(ctx, f.matchID, "archer-1", end)
	require.NoError(t, err)
	assert.Equal(t, models.StateWaitingSubmit, match.CurrentState)

	// no double submission of the same end
	_, err = f.play.SubmitEnd(ctx, f.matchID, "archer-1", end)
	assert.ErrorIs(t, err, ErrConflict)

	// last finisher opens confirmation
	match, err = f.play.SubmitEnd(ctx, f.matchID, "archer-2", end)
	require.NoError(t, err)
	assert.Equal(t, models.StateConfirmation, match.CurrentState)

	recorded := match.Participants["archer-1"].Scores
	require.Len(t, recorded, 3)
	assert.Equal(t, models.Score(10), recorded[0].Score)
	assert.Equal(t, models.Score(10), recorded[0].PreviousScore)
	assert.Equal(t, models.ScoreX, recorded[2].Score)
}

func submitAll(t *testing.T, f *playFixture, end []models.Score) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"archer-1", "archer-2"} {
		_, err := f.play.SubmitEnd(ctx, f.matchID, id, end)
		require.NoError(t, err)
	}
}

func TestConfirmationAdvancesEnds(t *testing.T) {
	f := newPlayFixture(t, 2)
	readyAll(t, f)
	ctx := context.Background()
	end := []models.Score{10, 9, 8}

	submitAll(t, f, end)

	// first confirmation waits for the rest
	match, err := f.play.ConfirmEnd(ctx, f.matchID, "archer-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateWaitingConfirmation, match.CurrentState)

	_, err = f.play.ConfirmEnd(ctx, f.matchID, "archer-1")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.play.ConfirmEnd(ctx, f.matchID, "archer-2")
	require.NoError(t, err)

	// judge signs off last: arrows get stamped and the next end opens
	match, err = f.play.ConfirmEnd(ctx, f.matchID, "judge-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateSubmit, match.CurrentState)
	assert.Equal(t, 1, match.CurrentEnd)
	for _, archer := range []string{"archer-1", "archer-2"} {
		for _, arrow := range match.Participants[archer].Scores {
			assert.Equal(t, "judge-1", arrow.JudgeUUID)
		}
	}
}

func TestLastEndFinishesAndArchives(t *testing.T) {
	f := newPlayFixture(t, 1)
	readyAll(t, f)
	ctx := context.Background()

	submitAll(t, f, []models.Score{10, 9, 8})
	for _, id := range []string{"archer-1", "archer-2"} {
		_, err := f.play.ConfirmEnd(ctx, f.matchID, id)
		require.NoError(t, err)
	}
	match, err := f.play.ConfirmEnd(ctx, f.matchID, "judge-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, match.CurrentState)

	// archival ran: durable rows exist, live record is gone
	_, _, err = f.store.Get(ctx, f.matchID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.results.completed, 1)
	assert.Len(t, f.results.scoresheets, 2, "one scoresheet per archer, none for the judge")
}

func TestPauseResumeFlow(t *testing.T) {
	f := newPlayFixture(t, 2)
	readyAll(t, f)
	ctx := context.Background()

	match, err := f.play.Pause(ctx, f.matchID, "archer-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatePaused, match.CurrentState)
	assert.Equal(t, models.StateSubmit, match.PreviousState)

	// scoring is rejected while paused
	_, err = f.play.SubmitEnd(ctx, f.matchID, "archer-1", []models.Score{1, 2, 3})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.play.Pause(ctx, f.matchID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)

	match, err = f.play.Resume(ctx, f.matchID, "archer-2")
	require.NoError(t, err)
	assert.Equal(t, models.StateSubmit, match.CurrentState)
}

func TestPlayContentionBudget(t *testing.T) {
	f := newPlayFixture(t, 2)
	f.play.Live = &contentiousStore{LiveMatchStore: f.store}

	_, err := f.play.SetReady(context.Background(), f.matchID, "archer-1")
	assert.ErrorIs(t, err, ErrContention)
}

func TestConcurrentSubmissionsStayConsistent(t *testing.T) {
	f := newPlayFixture(t, 1)
	readyAll(t, f)

	// both archers submit at once; CAS retries keep both ends recorded
	done := make(chan error, 2)
	for _, id := range []string{"archer-1", "archer-2"} {
		go func(id string) {
			_, err := f.play.SubmitEnd(context.Background(), f.matchID, id, []models.Score{5, 5, 5})
			done <- err
		}(id)
	}
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("submission deadlocked")
		}
	}

	match, _, err := f.store.Get(context.Background(), f.matchID)
	require.NoError(t, err)
	assert.Equal(t, models.StateConfirmation, match.CurrentState)
	for _, id := range []string{"archer-1", "archer-2"} {
		assert.Len(t, match.Participants[id].Scores, 3, fmt.Sprintf("%s's end survived the race", id))
	}
}
