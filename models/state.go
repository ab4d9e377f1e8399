package models

import "fmt"

// MatchState is one phase of the match lifecycle
type MatchState string

const (
	StateOpen                MatchState = "open"
	StateFull                MatchState = "full"
	StateSubmit              MatchState = "submit"
	StateWaitingSubmit       MatchState = "waiting_submit"
	StateConfirmation        MatchState = "confirmation"
	StateWaitingConfirmation MatchState = "waiting_confirmation"
	StateFinished            MatchState = "finished"
	StatePaused              MatchState = "paused"
)

// AllStates lists every valid lifecycle state
var AllStates = []MatchState{
	StateOpen,
	StateFull,
	StateSubmit,
	StateWaitingSubmit,
	StateConfirmation,
	StateWaitingConfirmation,
	StateFinished,
	StatePaused,
}

// transitions is the legal lifecycle graph. Paused is handled separately by
// Pause/Resume since it is reachable from any non-terminal state.
var transitions = map[MatchState][]MatchState{
	StateOpen:                {StateFull},
	StateFull:                {StateSubmit},
	StateSubmit:              {StateWaitingSubmit},
	StateWaitingSubmit:       {StateConfirmation},
	StateConfirmation:        {StateWaitingConfirmation},
	StateWaitingConfirmation: {StateSubmit, StateFinished},
	StateFinished:            {},
}

// Transition moves the match to next if the lifecycle allows it
func (m *LiveMatch) Transition(next MatchState) error {
	for _, allowed := range transitions[m.CurrentState] {
		if allowed == next {
			m.PreviousState = m.CurrentState
			m.CurrentState = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", m.CurrentState, next)
}

// Pause suspends the match, remembering the state to resume into.
// Single-level only: a paused match cannot be paused again.
func (m *LiveMatch) Pause() error {
	if m.CurrentState == StatePaused || m.CurrentState == StateFinished {
		return fmt.Errorf("cannot pause match in state %s", m.CurrentState)
	}
	m.PreviousState = m.CurrentState
	m.CurrentState = StatePaused
	return nil
}

// Resume returns a paused match to the state it was paused from
func (m *LiveMatch) Resume() error {
	if m.CurrentState != StatePaused {
		return fmt.Errorf("cannot resume match in state %s", m.CurrentState)
	}
	m.CurrentState = m.PreviousState
	return nil
}

// IsTerminal reports whether the match has reached the end of its lifecycle
func (m *LiveMatch) IsTerminal() bool {
	return m.CurrentState == StateFinished
}
