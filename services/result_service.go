package services

import (
	"context"
	"strings"

	"scoresheet_server/models"
	"scoresheet_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ResultService is the DynamoDB-backed ResultStore. Completed matches are
// keyed by match id and scoresheets by (match_id, id), so archival retries
// overwrite rather than duplicate.
type ResultService struct {
	Dynamo *DynamoService
}

func (s *ResultService) SaveCompletedMatch(ctx context.Context, match models.CompletedMatch) error {
	return s.Dynamo.PutItem(ctx, models.CompletedMatchesTable, match)
}

func (s *ResultService) SaveScoresheet(ctx context.Context, sheet models.Scoresheet) error {
	return s.Dynamo.PutItem(ctx, models.ScoresheetsTable, sheet)
}

// CompletedMatchesByName returns completed matches whose name contains the
// given pattern.
func (s *ResultService) CompletedMatchesByName(ctx context.Context, namePattern string) ([]models.CompletedMatch, error) {
	var matches []models.CompletedMatch
	err := s.Dynamo.ScanWithFilter(ctx, models.CompletedMatchesTable, func(item map[string]types.AttributeValue) bool {
		return strings.Contains(utils.ExtractString(item, "name"), namePattern)
	}, &matches)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ScoresheetsByMatch returns every scoresheet archived for a match. An
// unknown match simply yields an empty slice.
func (s *ResultService) ScoresheetsByMatch(ctx context.Context, matchID string) ([]models.Scoresheet, error) {
	items, err := s.Dynamo.QueryItems(ctx, models.ScoresheetsTable, "match_id = :match_id", map[string]types.AttributeValue{
		":match_id": &types.AttributeValueMemberS{Value: matchID},
	})
	if err != nil {
		return nil, err
	}
	var sheets []models.Scoresheet
	if err := utils.UnmarshalItems(items, &sheets); err != nil {
		return nil, err
	}
	return sheets, nil
}
