package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openagora/agora/core"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

// Gate rejection reasons.
const (
	ReasonBudget    = "budget"
	ReasonRateLimit = "rate_limit"
)

// DefaultWakeCooldown is the minimum gap between unforced wakes, guarding
// against re-entrant double-wakes from an overeager scheduler.
const DefaultWakeCooldown = time.Minute

// GateDecision is the outcome of the budget/rate check.
type GateDecision struct {
	Allowed bool
	Reason  string
	Message string
}

// PolicyGate evaluates wake eligibility and budget/rate ceilings before any
// model call or action execution.
type PolicyGate struct {
	store    storage.Store
	log      zerolog.Logger
	cooldown time.Duration
}

// NewPolicyGate creates a gate with the default cooldown.
func NewPolicyGate(store storage.Store, log zerolog.Logger) *PolicyGate {
	return &PolicyGate{store: store, log: log, cooldown: DefaultWakeCooldown}
}

// SetCooldown overrides the unforced-wake cooldown.
func (g *PolicyGate) SetCooldown(d time.Duration) { g.cooldown = d }

// CanWake reports whether the agent may wake at now. A forced wake bypasses
// the autonomy-mode, active-hours, and cooldown checks but never the active
// flag — and never budget, which CheckBudgetAndRate owns.
func (g *PolicyGate) CanWake(agent *core.Agent, now time.Time, forced bool) bool {
	if !agent.IsActive {
		return false
	}
	if forced {
		return true
	}
	if agent.AutonomyMode == core.AutonomyManual {
		return false
	}
	if !withinActiveHours(agent, now) {
		return false
	}
	if agent.LastWakeTime != nil && now.Sub(*agent.LastWakeTime) < g.cooldown {
		g.log.Debug().Str("agent", agent.ID).Msg("wake suppressed by cooldown")
		return false
	}
	return true
}

// CheckBudgetAndRate evaluates the daily budget ceiling and the trailing
// 60-minute post rate. Advisory at cycle start; the orchestrator re-checks
// remaining budget before each action.
func (g *PolicyGate) CheckBudgetAndRate(agent *core.Agent, now time.Time) (GateDecision, error) {
	if agent.DailySpent >= agent.DailyBudget {
		return GateDecision{
			Reason:  ReasonBudget,
			Message: fmt.Sprintf("daily budget of $%.2f exhausted ($%.2f spent)", agent.DailyBudget, agent.DailySpent),
		}, nil
	}

	if agent.MaxPostsPerHour > 0 {
		count, err := g.store.CountAgentPostsSince(agent.ID, now.Add(-time.Hour), false)
		if err != nil {
			return GateDecision{}, fmt.Errorf("failed to count recent posts: %v", err)
		}
		if count >= agent.MaxPostsPerHour {
			return GateDecision{
				Reason:  ReasonRateLimit,
				Message: fmt.Sprintf("hourly post limit reached (%d in the last hour, max %d)", count, agent.MaxPostsPerHour),
			}, nil
		}
	}

	return GateDecision{Allowed: true}, nil
}

// withinActiveHours checks the agent's [start, end) local clock window at
// minute granularity. Windows crossing midnight are not supported; an unset
// window means always active.
func withinActiveHours(agent *core.Agent, now time.Time) bool {
	if agent.ActiveHoursStart == "" || agent.ActiveHoursEnd == "" {
		return true
	}
	start, okStart := parseClockMinutes(agent.ActiveHoursStart)
	end, okEnd := parseClockMinutes(agent.ActiveHoursEnd)
	if !okStart || !okEnd {
		return true // malformed config fails open rather than silencing the agent
	}
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= start && minutes < end
}

func parseClockMinutes(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
