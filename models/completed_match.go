package models

import "time"

// CompletedMatch is the durable record written by archival. Immutable once
// written.
type CompletedMatch struct {
	ID          string    `dynamodbav:"id" json:"id"`
	Name        string    `dynamodbav:"name" json:"name"`
	Host        string    `dynamodbav:"host" json:"host"`
	CreatedAt   time.Time `dynamodbav:"created_at" json:"created_at"`
	FinishedAt  time.Time `dynamodbav:"finished_at" json:"finished_at"`
	Competition string    `dynamodbav:"competition,omitempty" json:"competition,omitempty"`
}

// CompletedMatchesTable is the DynamoDB table name for completed matches
const CompletedMatchesTable = "CompletedMatches"
