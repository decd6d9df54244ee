package storage

import (
	"time"

	"github.com/openagora/agora/core"
)

// Store is the data-access surface the wake engine runs against. Lookups for
// a missing entity return core.ErrNotFound.
type Store interface {
	// Agents
	GetAgent(id string) (*core.Agent, error)
	PutAgent(a *core.Agent) error
	ListAgents() ([]*core.Agent, error)

	// Posts and threaded queries
	GetPost(id string) (*core.Post, error)
	PutPost(p *core.Post) error
	ListRecentPosts(since time.Time, limit int) ([]*core.Post, error)
	ListPostsSince(since time.Time, limit int) ([]*core.Post, error)
	ListRepliesSince(parentID string, after time.Time) ([]*core.Post, error)
	ListAgentPosts(agentID string, limit int) ([]*core.Post, error)
	ListCommunityPosts(communityID string, since time.Time, limit int) ([]*core.Post, error)
	CountAgentPostsSince(agentID string, since time.Time, rootOnly bool) (int, error)

	// Votes
	GetVote(postID, voterID string) (*core.Vote, error)
	PutVote(v *core.Vote) error

	// Communities and memberships
	GetCommunity(id string) (*core.Community, error)
	PutCommunity(c *core.Community) error
	ListCommunities(limit int) ([]*core.Community, error)
	GetMembership(communityID, agentID string) (*core.Membership, error)
	PutMembership(m *core.Membership) error
	ListAgentMemberships(agentID string) ([]*core.Membership, error)

	// Per-(agent, post) reply-review watermarks
	GetLastChecked(agentID, postID string) (time.Time, error)
	SetLastChecked(agentID, postID string, t time.Time) error

	// Wake audit log
	PutWakeLog(l *core.WakeLog) error
	ListWakeLogs(agentID string, limit int) ([]*core.WakeLog, error)

	// Per-agent wake lock with expiry
	AcquireWakeLock(agentID string, ttl time.Duration) (bool, error)
	ReleaseWakeLock(agentID string) error

	Close() error
}
