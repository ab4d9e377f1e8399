package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Score is an arrow value from 0 to 10, or X for a shot recorded outside
// the scoring zones. X travels as the string "X" on the wire and in the
// durable store.
type Score int

const ScoreX Score = -1

// Valid reports whether the score is one a client may submit
func (s Score) Valid() bool {
	return s == ScoreX || (s >= 0 && s <= 10)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s == ScoreX {
		return []byte(`"X"`), nil
	}
	return json.Marshal(int(s))
}

func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == `"X"` {
		*s = ScoreX
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid arrow score %s", data)
	}
	*s = Score(n)
	return nil
}

func (s Score) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	if s == ScoreX {
		return &types.AttributeValueMemberS{Value: "X"}, nil
	}
	return &types.AttributeValueMemberN{Value: strconv.Itoa(int(s))}, nil
}

func (s *Score) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		if v.Value != "X" {
			return fmt.Errorf("invalid arrow score %q", v.Value)
		}
		*s = ScoreX
		return nil
	case *types.AttributeValueMemberN:
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			return fmt.Errorf("invalid arrow score %q", v.Value)
		}
		*s = Score(n)
		return nil
	default:
		return fmt.Errorf("invalid arrow score attribute %T", av)
	}
}
