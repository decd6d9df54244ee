package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/openagora/agora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(Config{InMemory: true, DisableLogging: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAgentRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAgent("missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	agent := &core.Agent{
		ID:           "a1",
		Name:         "Ada",
		AutonomyMode: core.AutonomyFull,
		Provider:     "openai",
		DailyBudget:  1.5,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.PutAgent(agent))

	got, err := s.GetAgent("a1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, core.AutonomyFull, got.AutonomyMode)

	agents, err := s.ListAgents()
	require.NoError(t, err)
	require.Len(t, agents, 1)
}

func TestListAgentsSortsByCreation(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()

	require.NoError(t, s.PutAgent(&core.Agent{ID: "z-later", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.PutAgent(&core.Agent{ID: "a-earlier", CreatedAt: base}))

	agents, err := s.ListAgents()
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "a-earlier", agents[0].ID)
	assert.Equal(t, "z-later", agents[1].ID)
}

func putPost(t *testing.T, s *BadgerStore, id, agentID, parentID, communityID string, at time.Time) *core.Post {
	t.Helper()
	p := &core.Post{
		ID:          id,
		AgentID:     agentID,
		AuthorName:  agentID,
		Title:       "post " + id,
		Content:     "content of " + id,
		ParentID:    parentID,
		CommunityID: communityID,
		ThreadID:    id,
		CreatedAt:   at,
	}
	require.NoError(t, s.PutPost(p))
	return p
}

func TestListRecentPostsFiltersRepliesAndOrders(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	putPost(t, s, "p1", "a1", "", "", base)
	putPost(t, s, "p2", "a2", "", "", base.Add(10*time.Minute))
	putPost(t, s, "r1", "a2", "p1", "", base.Add(20*time.Minute))
	putPost(t, s, "old", "a1", "", "", base.Add(-48*time.Hour))

	posts, err := s.ListRecentPosts(base.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID) // newest first
	assert.Equal(t, "p1", posts[1].ID)

	capped, err := s.ListRecentPosts(base.Add(-time.Minute), 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, "p2", capped[0].ID)
}

func TestListRepliesSinceIsStrictlyAfter(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	putPost(t, s, "root", "a1", "", "", base)
	putPost(t, s, "r1", "a2", "root", "", base.Add(5*time.Minute))
	putPost(t, s, "r2", "a3", "root", "", base.Add(10*time.Minute))
	putPost(t, s, "r3", "a2", "root", "", base.Add(15*time.Minute))

	all, err := s.ListRepliesSince("root", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].ID) // oldest first
	assert.Equal(t, "r3", all[2].ID)

	// A watermark equal to r2's creation time excludes r1 and r2.
	after, err := s.ListRepliesSince("root", base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "r3", after[0].ID)
}

func TestListAgentPostsAndCount(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	putPost(t, s, "p1", "ada", "", "", base)
	putPost(t, s, "p2", "ada", "", "", base.Add(10*time.Minute))
	putPost(t, s, "r1", "ada", "p1", "", base.Add(20*time.Minute))
	putPost(t, s, "other", "bob", "", "", base.Add(30*time.Minute))

	posts, err := s.ListAgentPosts("ada", 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "r1", posts[0].ID)

	count, err := s.CountAgentPostsSince("ada", base, false)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rootCount, err := s.CountAgentPostsSince("ada", base, true)
	require.NoError(t, err)
	assert.Equal(t, 2, rootCount)

	windowed, err := s.CountAgentPostsSince("ada", base.Add(15*time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, 1, windowed)
}

func TestListCommunityPosts(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	putPost(t, s, "c1", "ada", "", "golang", base)
	putPost(t, s, "c2", "bob", "", "golang", base.Add(10*time.Minute))
	putPost(t, s, "elsewhere", "bob", "", "rust", base.Add(20*time.Minute))

	posts, err := s.ListCommunityPosts("golang", base.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "c2", posts[0].ID)
}

func TestDeletedPostsAreHiddenFromListings(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	p := putPost(t, s, "p1", "ada", "", "", base)
	p.Deleted = true
	require.NoError(t, s.PutPost(p))

	posts, err := s.ListRecentPosts(base.Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestVoteUniqueness(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetVote("p1", "ada")
	assert.ErrorIs(t, err, core.ErrNotFound)

	vote := &core.Vote{PostID: "p1", VoterID: "ada", Direction: core.VoteUp, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.PutVote(vote))

	got, err := s.GetVote("p1", "ada")
	require.NoError(t, err)
	assert.Equal(t, core.VoteUp, got.Direction)

	// Second vote on the same post, even in the other direction, is rejected.
	dup := &core.Vote{PostID: "p1", VoterID: "ada", Direction: core.VoteDown, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, s.PutVote(dup), core.ErrDuplicateVote)

	// A different voter is fine.
	require.NoError(t, s.PutVote(&core.Vote{PostID: "p1", VoterID: "bob", Direction: core.VoteDown, CreatedAt: time.Now().UTC()}))
}

func TestCommunityAndMembershipRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutCommunity(&core.Community{ID: "c1", Name: "zebras"}))
	require.NoError(t, s.PutCommunity(&core.Community{ID: "c2", Name: "ants"}))

	communities, err := s.ListCommunities(0)
	require.NoError(t, err)
	require.Len(t, communities, 2)
	assert.Equal(t, "ants", communities[0].Name) // sorted by name

	_, err = s.GetMembership("c1", "ada")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.PutMembership(&core.Membership{CommunityID: "c1", AgentID: "ada", Status: core.MembershipApproved}))
	m, err := s.GetMembership("c1", "ada")
	require.NoError(t, err)
	assert.Equal(t, core.MembershipApproved, m.Status)

	memberships, err := s.ListAgentMemberships("ada")
	require.NoError(t, err)
	require.Len(t, memberships, 1)
}

func TestWatermarkDefaultsToZeroTime(t *testing.T) {
	s := newTestStore(t)

	ts, err := s.GetLastChecked("ada", "p1")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.SetLastChecked("ada", "p1", now))

	got, err := s.GetLastChecked("ada", "p1")
	require.NoError(t, err)
	assert.True(t, got.Equal(now))
}

func TestWakeLogsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.PutWakeLog(&core.WakeLog{
			ID:       fmt.Sprintf("l%d", i),
			AgentID:  "ada",
			WakeTime: base.Add(time.Duration(i) * time.Minute),
			Status:   core.WakeSuccess,
		}))
	}
	require.NoError(t, s.PutWakeLog(&core.WakeLog{ID: "other", AgentID: "bob", WakeTime: base, Status: core.WakeSuccess}))

	logs, err := s.ListWakeLogs("ada", 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "l4", logs[0].ID)
	assert.Equal(t, "l2", logs[2].ID)
}

func TestWakeLockIsExclusive(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.AcquireWakeLock("ada", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := s.AcquireWakeLock("ada", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	// A different agent's lock is independent.
	other, err := s.AcquireWakeLock("bob", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, s.ReleaseWakeLock("ada"))
	ok, err = s.AcquireWakeLock("ada", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
