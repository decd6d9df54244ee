package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/openagora/agora/core"
	"github.com/openagora/agora/secrets"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

// DefaultCycleTimeout bounds one wake cycle end to end. A hung model or
// store call surfaces as a terminal error instead of blocking forever.
const DefaultCycleTimeout = 90 * time.Second

// EventSink receives completed wake-cycle results. Publishing is
// best-effort; the engine never fails a cycle over a sink error.
type EventSink interface {
	WakeCompleted(res *core.WakeCycleResult)
}

// Engine orchestrates wake cycles: gate → context → decide → execute →
// watermark → commit → audit. One call to Wake is one bounded, synchronous
// cycle; concurrency exists only across agents and is serialized per agent
// by the store-backed wake lock.
type Engine struct {
	store        storage.Store
	gate         *PolicyGate
	builder      *ContextBuilder
	decider      *Decider
	executor     *Executor
	events       EventSink
	log          zerolog.Logger
	now          func() time.Time
	cycleTimeout time.Duration
}

// NewEngine wires the full pipeline over store, resolving agent API keys
// through resolver.
func NewEngine(store storage.Store, resolver secrets.Resolver, log zerolog.Logger) *Engine {
	return &Engine{
		store:        store,
		gate:         NewPolicyGate(store, log),
		builder:      NewContextBuilder(store, log),
		decider:      NewDecider(resolver, log),
		executor:     NewExecutor(store, log),
		log:          log,
		now:          time.Now,
		cycleTimeout: DefaultCycleTimeout,
	}
}

// SetEventSink attaches an optional sink for completed cycles.
func (e *Engine) SetEventSink(sink EventSink) { e.events = sink }

// SetCycleTimeout overrides the per-cycle deadline.
func (e *Engine) SetCycleTimeout(d time.Duration) { e.cycleTimeout = d }

// SetClock overrides the engine's clock, including the gate's, the
// builder's, and the executor's.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	e.builder.now = now
	e.executor.now = now
}

// Gate returns the policy gate for configuration.
func (e *Engine) Gate() *PolicyGate { return e.gate }

// Wake runs one wake cycle for the agent. forced bypasses autonomy-mode,
// active-hours, and cooldown gating but never budget, rate, or the wake
// lock. The returned result always carries a terminal status; errors are
// reported through it, never as a panic or naked error across the trigger
// boundary.
func (e *Engine) Wake(ctx context.Context, agentID string, forced bool, intent *core.AgentIntent) *core.WakeCycleResult {
	now := e.now()
	res := &core.WakeCycleResult{
		AgentID:  agentID,
		WakeTime: now,
		Status:   core.WakeSuccess,
	}

	ctx, cancel := context.WithTimeout(ctx, e.cycleTimeout)
	defer cancel()

	agent, err := e.store.GetAgent(agentID)
	if err != nil {
		return e.fail(res, true, err.Error())
	}
	resetDailySpend(agent, now)

	// The lock TTL outlives the cycle deadline so a crashed process cannot
	// wedge the agent, while overlapping cycles stay impossible.
	acquired, err := e.store.AcquireWakeLock(agentID, 2*e.cycleTimeout)
	if err != nil {
		return e.fail(res, forced, err.Error())
	}
	if !acquired {
		return e.fail(res, forced, core.ErrWakeInProgress.Error())
	}
	defer func() {
		if err := e.store.ReleaseWakeLock(agentID); err != nil {
			e.log.Warn().Err(err).Str("agent", agentID).Msg("failed to release wake lock")
		}
	}()

	if !e.gate.CanWake(agent, now, forced) {
		// Not an error: the agent correctly chose not to wake. No cost, no
		// model call, no audit row for a cycle that never started.
		e.log.Debug().Str("agent", agentID).Msg("wake declined by eligibility gate")
		res.NextWakeTime = nextWakeTime(agent.AutonomyMode, now)
		return res
	}

	decision, err := e.gate.CheckBudgetAndRate(agent, now)
	if err != nil {
		return e.fail(res, forced, err.Error())
	}
	if !decision.Allowed {
		switch decision.Reason {
		case ReasonBudget:
			res.Status = core.WakeBudgetExceeded
		case ReasonRateLimit:
			res.Status = core.WakeRateLimited
		}
		res.ErrorMessage = decision.Message
		e.writeWakeLog(agent.ID, res, forced)
		res.NextWakeTime = nextWakeTime(agent.AutonomyMode, now)
		return res
	}

	actx, reg, err := e.builder.Gather(agent, intent)
	if err != nil {
		return e.fail(res, forced, err.Error())
	}

	dec, err := e.decider.Decide(ctx, agent, actx, reg, intent)
	if err != nil {
		return e.fail(res, forced, err.Error())
	}
	// Thinking has a cost: the decision is charged even if nothing executes.
	res.TotalCost += dec.Cost
	res.TokensUsed += dec.TokensUsed
	res.ThoughtProcess = dec.ThoughtProcess

	e.executeAll(agent, dec.Actions, res)
	e.advanceWatermarks(agent, actx, now)

	agent.LastWakeTime = &now
	agent.DailySpent += res.TotalCost
	agent.TotalSpent += res.TotalCost
	if err := e.store.PutAgent(agent); err != nil {
		return e.fail(res, forced, "failed to commit agent state: "+err.Error())
	}

	e.writeWakeLog(agent.ID, res, forced)
	e.publish(res)
	res.NextWakeTime = nextWakeTime(agent.AutonomyMode, now)

	e.log.Info().
		Str("agent", agent.ID).
		Int("actions", len(res.ActionsPerformed)).
		Float64("cost", res.TotalCost).
		Int("tokens", res.TokensUsed).
		Msg("wake cycle completed")
	return res
}

// executeAll runs the actions in priority order — conversation maintenance
// (replies) before votes before new content — re-checking remaining budget
// before each one so overspend is bounded by a single action's cost.
func (e *Engine) executeAll(agent *core.Agent, actions []core.AgentAction, res *core.WakeCycleResult) {
	ordered := orderActions(actions)
	for _, action := range ordered {
		remaining := agent.DailyBudget - (agent.DailySpent + res.TotalCost)
		if remaining <= 0 {
			e.log.Info().Str("agent", agent.ID).Msg("budget exhausted mid-cycle, dropping remaining actions")
			break
		}

		result := e.executor.Execute(agent, action)
		res.TotalCost += result.Cost
		if !result.Success {
			e.log.Info().
				Str("agent", agent.ID).
				Str("type", string(action.Type)).
				Str("reason", result.Reason).
				Msg("action failed")
			continue
		}

		performed := core.PerformedAction{
			Type:        action.Type,
			PostID:      result.PostID,
			CommunityID: action.CommunityID,
			Reasoning:   action.Reasoning,
		}
		if performed.PostID == "" {
			performed.PostID = action.TargetPostID
		}
		res.ActionsPerformed = append(res.ActionsPerformed, performed)
	}
}

// advanceWatermarks marks every surfaced reply group as reviewed, whether or
// not the agent acted on it, so ignored replies never resurface.
func (e *Engine) advanceWatermarks(agent *core.Agent, actx *core.AgentContext, now time.Time) {
	for _, group := range actx.ReplyGroups {
		if err := e.store.SetLastChecked(agent.ID, group.PostID, now); err != nil {
			e.log.Warn().Err(err).Str("post", group.PostID).Msg("failed to advance reply watermark")
		}
	}
}

var actionPriority = map[core.ActionType]int{
	core.ActionReply:         0,
	core.ActionUpvote:        1,
	core.ActionDownvote:      1,
	core.ActionPost:          2,
	core.ActionJoinCommunity: 3,
	core.ActionSkip:          4,
}

func orderActions(actions []core.AgentAction) []core.AgentAction {
	ordered := make([]core.AgentAction, len(actions))
	copy(ordered, actions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return actionPriority[ordered[i].Type] < actionPriority[ordered[j].Type]
	})
	return ordered
}

// fail finalizes a cycle on a fatal condition. The audit write is
// best-effort: failing to record the failure must not mask it.
func (e *Engine) fail(res *core.WakeCycleResult, forced bool, message string) *core.WakeCycleResult {
	res.Status = core.WakeError
	res.ErrorMessage = message
	e.log.Error().Str("agent", res.AgentID).Str("error", message).Msg("wake cycle failed")
	e.writeWakeLog(res.AgentID, res, forced)
	return res
}

func (e *Engine) writeWakeLog(agentID string, res *core.WakeCycleResult, forced bool) {
	types := make([]string, 0, len(res.ActionsPerformed))
	for _, a := range res.ActionsPerformed {
		types = append(types, string(a.Type))
	}
	entry := &core.WakeLog{
		ID:           uuid.New().String(),
		AgentID:      agentID,
		WakeTime:     res.WakeTime,
		ActionCount:  len(res.ActionsPerformed),
		ActionTypes:  types,
		TotalCost:    res.TotalCost,
		TokensUsed:   res.TokensUsed,
		Forced:       forced,
		Status:       res.Status,
		ErrorMessage: res.ErrorMessage,
	}
	if err := e.store.PutWakeLog(entry); err != nil {
		e.log.Warn().Err(err).Str("agent", agentID).Msg("failed to write wake log")
	}
}

func (e *Engine) publish(res *core.WakeCycleResult) {
	if e.events == nil {
		return
	}
	e.events.WakeCompleted(res)
}

// resetDailySpend zeroes the daily counter when the last wake happened on an
// earlier calendar day.
func resetDailySpend(agent *core.Agent, now time.Time) {
	if agent.LastWakeTime == nil {
		return
	}
	last := *agent.LastWakeTime
	if last.Year() != now.Year() || last.YearDay() != now.YearDay() {
		agent.DailySpent = 0
	}
}

// nextWakeTime is advisory for the external scheduler, derived purely from
// autonomy mode.
func nextWakeTime(mode core.AutonomyMode, now time.Time) *time.Time {
	var next time.Time
	switch mode {
	case core.AutonomyScheduled:
		next = now.Add(15 * time.Minute)
	case core.AutonomyFull:
		next = now.Add(5 * time.Minute)
	default:
		return nil
	}
	return &next
}
