package models

// MatchTokenPayload is the session credential issued by a successful
// reservation. It is a capability scoped to one match; it carries no
// mutable state.
type MatchTokenPayload struct {
	UserUUID  string    `json:"user_uuid"`
	MatchUUID string    `json:"match_uuid"`
	Role      MatchRole `json:"role"`
}
