package services

import (
	"fmt"
	"regexp"

	"scoresheet_server/models"
)

var matchNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateMatchParams checks every creation parameter and reports all
// violations in a single ValidationError.
func ValidateMatchParams(params models.MatchParams) error {
	fields := map[string]string{}
	if params.Name == "" {
		fields["name"] = "required"
	} else if !matchNamePattern.MatchString(params.Name) {
		fields["name"] = "must contain only letters, digits and underscores"
	}
	if params.MaxParticipants <= 0 {
		fields["max_participants"] = "required and must be positive"
	}
	if params.ArrowsPerEnd <= 0 {
		fields["arrows_per_end"] = "required and must be positive"
	}
	if params.NumEnds <= 0 {
		fields["num_ends"] = "required and must be positive"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// liveStates is what the "live" filter alias expands to: every state a match
// can hold while still in the live store.
var liveStates = []models.MatchState{
	models.StateOpen,
	models.StateFull,
	models.StateSubmit,
	models.StateWaitingSubmit,
	models.StateConfirmation,
	models.StateWaitingConfirmation,
	models.StatePaused,
}

// ParseStateFilter validates the state query values. Unknown values are
// rejected; the alias "live" is accepted for clients that only care that a
// match has not finished.
func ParseStateFilter(values []string) ([]models.MatchState, error) {
	var states []models.MatchState
	for _, v := range values {
		if v == "live" {
			states = append(states, liveStates...)
			continue
		}
		valid := false
		for _, s := range models.AllStates {
			if models.MatchState(v) == s {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown match state %q: %w", v, ErrInvalidInput)
		}
		states = append(states, models.MatchState(v))
	}
	return states, nil
}
