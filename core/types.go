package core

import "time"

// AutonomyMode controls how an agent may be woken.
type AutonomyMode string

const (
	AutonomyManual    AutonomyMode = "manual"
	AutonomyScheduled AutonomyMode = "scheduled"
	AutonomyFull      AutonomyMode = "full"
)

// WakeStatus is the terminal status of one wake cycle.
type WakeStatus string

const (
	WakeSuccess        WakeStatus = "success"
	WakeBudgetExceeded WakeStatus = "budget_exceeded"
	WakeRateLimited    WakeStatus = "rate_limited"
	WakeError          WakeStatus = "error"
)

// Agent represents an autonomous social identity with its behavioral config
// and resource ceilings.
type Agent struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	OwnerID         string       `json:"owner_id"`
	Personality     string       `json:"personality"`
	Traits          []string     `json:"traits"`
	Interests       []string     `json:"interests"`
	AutonomyMode    AutonomyMode `json:"autonomy_mode"`
	Provider        string       `json:"provider"`
	Model           string       `json:"model,omitempty"`
	EncryptedAPIKey string       `json:"encrypted_api_key,omitempty"`

	DailyBudget      float64 `json:"daily_budget"`
	DailySpent       float64 `json:"daily_spent"`
	TotalSpent       float64 `json:"total_spent"`
	MaxPostsPerHour  int     `json:"max_posts_per_hour"`
	MaxPostsPerDay   int     `json:"max_posts_per_day"`
	ActiveHoursStart string  `json:"active_hours_start,omitempty"` // "HH:MM", local clock
	ActiveHoursEnd   string  `json:"active_hours_end,omitempty"`   // "HH:MM", exclusive

	LastWakeTime *time.Time `json:"last_wake_time,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Post is a content node in a reply tree. ThreadID is fixed at creation and
// equals the root's own id for every node in the tree; Depth is derived from
// the parent, never set independently.
type Post struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id,omitempty"`   // exactly one of AgentID
	ProfileID   string    `json:"profile_id,omitempty"` // or ProfileID is set
	AuthorName  string    `json:"author_name"`
	Title       string    `json:"title,omitempty"` // required for roots, absent for replies
	Content     string    `json:"content"`
	CommunityID string    `json:"community_id,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	ThreadID    string    `json:"thread_id"`
	Depth       int       `json:"depth"`
	Votes       int       `json:"votes"`
	ReplyCount  int       `json:"reply_count"`
	CreatedAt   time.Time `json:"created_at"`
	Deleted     bool      `json:"deleted,omitempty"`
}

// IsRoot reports whether the post is the top of its thread.
func (p *Post) IsRoot() bool { return p.ParentID == "" }

// VoteDirection is the direction of a cast vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Vote is one (voter, post) pair. At most one vote exists per pair; a second
// attempt is rejected, never overwritten.
type Vote struct {
	PostID    string        `json:"post_id"`
	VoterID   string        `json:"voter_id"`
	Direction VoteDirection `json:"direction"`
	CreatedAt time.Time     `json:"created_at"`
}

// Community is a named posting space agents can join.
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"created_at"`
}

// MembershipStatus is the state of a community join.
type MembershipStatus string

const (
	MembershipApproved MembershipStatus = "approved"
	MembershipPending  MembershipStatus = "pending"
)

// Membership records an agent's community join and its approval state.
type Membership struct {
	CommunityID string           `json:"community_id"`
	AgentID     string           `json:"agent_id"`
	Status      MembershipStatus `json:"status"`
	JoinedAt    time.Time        `json:"joined_at"`
}

// WakeLog is the immutable audit record of one wake cycle.
type WakeLog struct {
	ID           string     `json:"id"`
	AgentID      string     `json:"agent_id"`
	WakeTime     time.Time  `json:"wake_time"`
	ActionCount  int        `json:"action_count"`
	ActionTypes  []string   `json:"action_types,omitempty"`
	TotalCost    float64    `json:"total_cost"`
	TokensUsed   int        `json:"tokens_used"`
	Forced       bool       `json:"forced"`
	Status       WakeStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// PerformedAction summarizes one successfully executed action in a wake
// cycle result. PostID is the target for replies and votes, and the newly
// created post for post actions.
type PerformedAction struct {
	Type        ActionType `json:"type"`
	PostID      string     `json:"post_id,omitempty"`
	CommunityID string     `json:"community_id,omitempty"`
	Reasoning   string     `json:"reasoning,omitempty"`
}

// WakeCycleResult is the structured outcome returned to the wake trigger.
type WakeCycleResult struct {
	AgentID          string            `json:"agent_id"`
	WakeTime         time.Time         `json:"wake_time"`
	ActionsPerformed []PerformedAction `json:"actions_performed"`
	TotalCost        float64           `json:"total_cost"`
	TokensUsed       int               `json:"tokens_used"`
	NextWakeTime     *time.Time        `json:"next_wake_time,omitempty"`
	Status           WakeStatus        `json:"status"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	ThoughtProcess   string            `json:"thought_process,omitempty"`
}
