package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openagora/agora/core"
	"github.com/openagora/agora/safety"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

// Fixed per-action cost units, charged on success only. Votes, joins and
// skips are free; only content creation costs.
const (
	postCost  = 0.02
	replyCost = 0.01
)

// ExecResult is the outcome of executing one action. A failed action is an
// ordinary result, not an error: the orchestrator logs it and moves on.
type ExecResult struct {
	Success bool
	Cost    float64
	PostID  string
	Reason  string
}

func execFailure(reason string) ExecResult { return ExecResult{Reason: reason} }

type actionHandler func(agent *core.Agent, action core.AgentAction) ExecResult

// Executor performs one concrete action against storage, applying the
// content safety filter first where content is involved. One handler per
// action variant; unknown variants fail with a warning.
type Executor struct {
	store    storage.Store
	log      zerolog.Logger
	now      func() time.Time
	handlers map[core.ActionType]actionHandler
}

// NewExecutor creates an executor over store.
func NewExecutor(store storage.Store, log zerolog.Logger) *Executor {
	e := &Executor{store: store, log: log, now: time.Now}
	e.handlers = map[core.ActionType]actionHandler{
		core.ActionPost:          e.executePost,
		core.ActionReply:         e.executeReply,
		core.ActionUpvote:        e.voteHandler(core.VoteUp),
		core.ActionDownvote:      e.voteHandler(core.VoteDown),
		core.ActionJoinCommunity: e.executeJoin,
		core.ActionSkip:          e.executeSkip,
	}
	return e
}

// Execute dispatches one action to its handler. Each call is independently
// fallible; a failure never aborts the caller's remaining queue.
func (e *Executor) Execute(agent *core.Agent, action core.AgentAction) ExecResult {
	handler, ok := e.handlers[action.Type]
	if !ok {
		e.log.Warn().Str("agent", agent.ID).Str("type", string(action.Type)).Msg("unknown action type")
		return execFailure(fmt.Sprintf("unknown action type %q", action.Type))
	}
	return handler(agent, action)
}

func (e *Executor) executePost(agent *core.Agent, action core.AgentAction) ExecResult {
	if action.Content == "" {
		return execFailure("post requires content")
	}
	if verdict := safety.Check(action.Content); !verdict.OK {
		e.log.Info().Str("agent", agent.ID).Str("reason", verdict.Reason).Msg("post blocked by safety filter")
		return execFailure("content rejected: " + verdict.Reason)
	}

	title := action.Title
	if title == "" {
		title = excerpt(action.Content, 80)
	}

	id := uuid.New().String()
	post := &core.Post{
		ID:          id,
		AgentID:     agent.ID,
		AuthorName:  agent.Name,
		Title:       title,
		Content:     action.Content,
		CommunityID: action.CommunityID,
		ThreadID:    id, // a root anchors its own thread
		CreatedAt:   e.now(),
	}
	if err := e.store.PutPost(post); err != nil {
		return execFailure(fmt.Sprintf("failed to create post: %v", err))
	}
	return ExecResult{Success: true, Cost: postCost, PostID: post.ID}
}

func (e *Executor) executeReply(agent *core.Agent, action core.AgentAction) ExecResult {
	if action.Content == "" {
		return execFailure("reply requires content")
	}
	if action.TargetPostID == "" {
		return execFailure("reply requires a target post")
	}
	if verdict := safety.Check(action.Content); !verdict.OK {
		e.log.Info().Str("agent", agent.ID).Str("reason", verdict.Reason).Msg("reply blocked by safety filter")
		return execFailure("content rejected: " + verdict.Reason)
	}

	parent, err := e.store.GetPost(action.TargetPostID)
	if err != nil {
		return execFailure(fmt.Sprintf("parent post: %v", err))
	}
	if parent.Deleted {
		return execFailure("parent post was deleted")
	}

	threadID := parent.ThreadID
	if threadID == "" {
		threadID = parent.ID
	}
	reply := &core.Post{
		ID:          uuid.New().String(),
		AgentID:     agent.ID,
		AuthorName:  agent.Name,
		Content:     action.Content,
		CommunityID: parent.CommunityID,
		ParentID:    parent.ID,
		ThreadID:    threadID,
		Depth:       parent.Depth + 1,
		CreatedAt:   e.now(),
	}
	if err := e.store.PutPost(reply); err != nil {
		return execFailure(fmt.Sprintf("failed to create reply: %v", err))
	}

	parent.ReplyCount++
	if err := e.store.PutPost(parent); err != nil {
		e.log.Warn().Err(err).Str("post", parent.ID).Msg("failed to bump reply count")
	}
	return ExecResult{Success: true, Cost: replyCost, PostID: reply.ID}
}

func (e *Executor) voteHandler(direction core.VoteDirection) actionHandler {
	return func(agent *core.Agent, action core.AgentAction) ExecResult {
		if action.TargetPostID == "" {
			return execFailure("vote requires a target post")
		}
		if _, err := e.store.GetVote(action.TargetPostID, agent.ID); err == nil {
			// At most one vote per (voter, post); no overwrite semantics.
			return execFailure("already voted on this post")
		}

		post, err := e.store.GetPost(action.TargetPostID)
		if err != nil {
			return execFailure(fmt.Sprintf("target post: %v", err))
		}

		vote := &core.Vote{
			PostID:    post.ID,
			VoterID:   agent.ID,
			Direction: direction,
			CreatedAt: e.now(),
		}
		if err := e.store.PutVote(vote); err != nil {
			return execFailure(fmt.Sprintf("failed to record vote: %v", err))
		}

		if direction == core.VoteUp {
			post.Votes++
		} else {
			post.Votes--
		}
		if err := e.store.PutPost(post); err != nil {
			e.log.Warn().Err(err).Str("post", post.ID).Msg("failed to update vote tally")
		}
		return ExecResult{Success: true, PostID: post.ID}
	}
}

func (e *Executor) executeJoin(agent *core.Agent, action core.AgentAction) ExecResult {
	if action.CommunityID == "" {
		return execFailure("join requires a community")
	}
	community, err := e.store.GetCommunity(action.CommunityID)
	if err != nil {
		return execFailure(fmt.Sprintf("community: %v", err))
	}
	if _, err := e.store.GetMembership(community.ID, agent.ID); err == nil {
		return execFailure("already a member")
	}

	status := core.MembershipApproved
	if community.Private {
		status = core.MembershipPending
	}
	membership := &core.Membership{
		CommunityID: community.ID,
		AgentID:     agent.ID,
		Status:      status,
		JoinedAt:    e.now(),
	}
	if err := e.store.PutMembership(membership); err != nil {
		return execFailure(fmt.Sprintf("failed to join community: %v", err))
	}
	return ExecResult{Success: true}
}

func (e *Executor) executeSkip(agent *core.Agent, action core.AgentAction) ExecResult {
	return ExecResult{Success: true}
}
