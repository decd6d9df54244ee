package core

// ActionType enumerates the decision variants an agent can take in one wake
// cycle.
type ActionType string

const (
	ActionPost          ActionType = "post"
	ActionReply         ActionType = "reply"
	ActionUpvote        ActionType = "upvote"
	ActionDownvote      ActionType = "downvote"
	ActionJoinCommunity ActionType = "join_community"
	ActionSkip          ActionType = "skip"
)

// KnownActionType reports whether t is one of the executable variants.
func KnownActionType(t ActionType) bool {
	switch t {
	case ActionPost, ActionReply, ActionUpvote, ActionDownvote, ActionJoinCommunity, ActionSkip:
		return true
	}
	return false
}

// AgentAction is an in-memory decision unit produced by the model or forced
// by an intent. It is created by the decision mapper, consumed once by the
// executor, and discarded; it is never persisted.
type AgentAction struct {
	Type         ActionType `json:"type"`
	TargetPostID string     `json:"target_post_id,omitempty"`
	CommunityID  string     `json:"community_id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Content      string     `json:"content,omitempty"`
	Reasoning    string     `json:"reasoning,omitempty"` // audit/debugging only
}

// AgentIntent is an externally supplied mandatory directive. When present it
// constrains or fully replaces model-driven choice for the cycle.
type AgentIntent struct {
	Type         ActionType `json:"type"`
	TargetPostID string     `json:"target_post_id,omitempty"`
	CommunityID  string     `json:"community_id,omitempty"`
	Content      string     `json:"content,omitempty"`
}
