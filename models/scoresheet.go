package models

import "time"

// Scoresheet is one archer's record of a completed match, copied out of the
// live match by archival. The id is derived from match and user so that an
// archival retry overwrites instead of duplicating.
type Scoresheet struct {
	ID           string    `dynamodbav:"id" json:"id"`
	Competition  string    `dynamodbav:"competition,omitempty" json:"competition,omitempty"`
	UserID       string    `dynamodbav:"user_id" json:"user_id"`
	Round        string    `dynamodbav:"round,omitempty" json:"round,omitempty"`
	ArrowsShot   int       `dynamodbav:"arrows_shot" json:"arrows_shot"`
	ArrowsPerEnd int       `dynamodbav:"arrows_per_end" json:"arrows_per_end"`
	Bow          string    `dynamodbav:"bow,omitempty" json:"bow,omitempty"`
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at"`
	MatchID      string    `dynamodbav:"match_id" json:"match_id"`
	Scoresheet   []Arrow   `dynamodbav:"scoresheet" json:"scoresheet"`
}

// ScoresheetID builds the deterministic scoresheet key for an archer of a match
func ScoresheetID(matchID, userID string) string {
	return matchID + "#" + userID
}

// ScoresheetsTable is the DynamoDB table name for scoresheets
const ScoresheetsTable = "Scoresheets"
