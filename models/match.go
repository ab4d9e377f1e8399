package models

import "time"

// MatchRole determines what a participant may do inside a live match
type MatchRole string

const (
	RoleArcher MatchRole = "archer"
	RoleJudge  MatchRole = "judge"
)

// Arrow is one recorded shot. PreviousScore keeps the prior value for
// audit/undo; JudgeUUID identifies the judge that verified the arrow.
type Arrow struct {
	Score         Score  `dynamodbav:"score" json:"score"`
	PreviousScore Score  `dynamodbav:"previous_score" json:"previous_score"`
	JudgeUUID     string `dynamodbav:"judge_uuid,omitempty" json:"judge_uuid,omitempty"`
}

// MatchParticipant is one reserved seat in a live match. Scores stays nil
// for judges; EndsConfirmed holds one flag per confirmed end.
type MatchParticipant struct {
	Role          MatchRole `json:"role"`
	Ready         bool      `json:"ready"`
	Scores        []Arrow   `json:"scores,omitempty"`
	EndsConfirmed []bool    `json:"ends_confirmed,omitempty"`
}

// MatchParams are the immutable creation parameters of a match
type MatchParams struct {
	Name            string `json:"name"`
	Round           string `json:"round,omitempty"`
	MaxParticipants int    `json:"max_participants"`
	ArrowsPerEnd    int    `json:"arrows_per_end"`
	NumEnds         int    `json:"num_ends"`
}

// LiveMatch is the canonical in-flight representation of a match. It lives
// exclusively in the live match store until the match finishes and is
// archived.
type LiveMatch struct {
	MatchParams
	CreatedAt     time.Time                   `json:"created_at"`
	CurrentEnd    int                         `json:"current_end"`
	CurrentState  MatchState                  `json:"current_state"`
	PreviousState MatchState                  `json:"previous_state"`
	Host          string                      `json:"host"`
	Participants  map[string]MatchParticipant `json:"participants"`
	Whitelist     map[string]MatchRole        `json:"whitelist,omitempty"`
}

// LiveMatchEntry pairs a live match with its generated store key
type LiveMatchEntry struct {
	ID    string    `json:"id"`
	Value LiveMatch `json:"value"`
}

// NewLiveMatch builds a fresh match in the open state
func NewLiveMatch(params MatchParams, host string, whitelist map[string]MatchRole) *LiveMatch {
	return &LiveMatch{
		MatchParams:   params,
		CreatedAt:     time.Now().UTC(),
		CurrentState:  StateOpen,
		PreviousState: StateOpen,
		Host:          host,
		Participants:  map[string]MatchParticipant{},
		Whitelist:     whitelist,
	}
}

// ViewFor returns the projection of the match visible to the given caller.
// The whitelist is only part of the host's own view.
func (m *LiveMatch) ViewFor(callerID string) LiveMatch {
	view := *m
	if callerID == "" || callerID != m.Host {
		view.Whitelist = nil
	}
	return view
}

// AllReady reports whether every participant has signalled ready
func (m *LiveMatch) AllReady() bool {
	for _, p := range m.Participants {
		if !p.Ready {
			return false
		}
	}
	return true
}

// HasSubmittedEnd reports whether the archer has recorded every arrow up to
// and including the current end.
func (m *LiveMatch) HasSubmittedEnd(userID string) bool {
	p, ok := m.Participants[userID]
	if !ok || p.Role != RoleArcher {
		return false
	}
	return len(p.Scores) >= (m.CurrentEnd+1)*m.ArrowsPerEnd
}

// AllSubmittedEnd reports whether every archer has submitted the current end
func (m *LiveMatch) AllSubmittedEnd() bool {
	for id, p := range m.Participants {
		if p.Role != RoleArcher {
			continue
		}
		if !m.HasSubmittedEnd(id) {
			return false
		}
	}
	return true
}

// HasConfirmedEnd reports whether the participant has signed off the current end
func (m *LiveMatch) HasConfirmedEnd(userID string) bool {
	p, ok := m.Participants[userID]
	if !ok {
		return false
	}
	return len(p.EndsConfirmed) > m.CurrentEnd && p.EndsConfirmed[m.CurrentEnd]
}

// AllConfirmedEnd reports whether every participant has signed off the current end
func (m *LiveMatch) AllConfirmedEnd() bool {
	for id := range m.Participants {
		if !m.HasConfirmedEnd(id) {
			return false
		}
	}
	return true
}
