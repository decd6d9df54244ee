package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openagora/agora/core"
	"github.com/openagora/agora/llm"
	"github.com/openagora/agora/secrets"
	"github.com/rs/zerolog"
)

const (
	decisionTemperature = 0.7
	decisionMaxTokens   = 2048
)

// Decision is the mapped outcome of one decide step.
type Decision struct {
	Actions        []core.AgentAction
	Cost           float64
	TokensUsed     int
	ThoughtProcess string
}

// Decider owns prompt construction, the single model call per cycle, and the
// translation of the model's free-text JSON back into validated,
// entity-referenced actions.
type Decider struct {
	resolver secrets.Resolver
	log      zerolog.Logger
}

// NewDecider creates a decider resolving API keys through resolver.
func NewDecider(resolver secrets.Resolver, log zerolog.Logger) *Decider {
	return &Decider{resolver: resolver, log: log}
}

// Decide produces the cycle's action list. Intents that already carry
// everything needed short-circuit the model entirely at zero cost; otherwise
// one completion is made and parsed, and — when an intent is present — the
// result is coerced to exactly the directed action rather than trusting the
// model's fidelity.
func (d *Decider) Decide(ctx context.Context, agent *core.Agent, actx *core.AgentContext, reg *RefRegistry, intent *core.AgentIntent) (*Decision, error) {
	if intent != nil {
		if action, ok := directIntentAction(intent); ok {
			return &Decision{Actions: []core.AgentAction{action}}, nil
		}
	}

	creds, err := d.resolver.Resolve(agent)
	if err != nil {
		return nil, err
	}
	provider, err := llm.ForName(creds.Provider)
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		Model:       agent.Model,
		Temperature: decisionTemperature,
		MaxTokens:   decisionMaxTokens,
		JSONMode:    true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: BuildPrompt(agent, actx, intent)},
		},
	}

	resp, err := provider.Complete(ctx, req, creds.APIKey)
	if err != nil {
		return nil, fmt.Errorf("llm completion failed: %w", err)
	}

	dec := &Decision{
		Cost:       llm.EstimateCost(provider, resp.Usage),
		TokensUsed: resp.Usage.TotalTokens,
	}

	parsed, ok := parseModelResponse(resp.Content)
	if !ok {
		// Non-fatal: the cycle proceeds with zero actions. Keep the raw
		// response out of the audit log but available for debugging.
		d.log.Debug().Str("agent", agent.ID).Str("raw", resp.Content).Msg("unparseable model response")
		return dec, nil
	}
	dec.ThoughtProcess = parsed.ThoughtProcess

	for _, raw := range parsed.Actions {
		action, ok := d.mapAction(raw, reg)
		if !ok {
			d.log.Debug().Str("agent", agent.ID).Str("type", raw.Type).Str("target", raw.Target).Msg("dropped unresolvable action")
			continue
		}
		dec.Actions = append(dec.Actions, action)
		if len(dec.Actions) >= maxActionsPerCycle {
			break
		}
	}

	if intent != nil {
		dec.Actions = coerceToIntent(dec.Actions, intent)
	}
	return dec, nil
}

// rawAction is the model-facing action shape before token resolution.
type rawAction struct {
	Type        string `json:"type"`
	Target      string `json:"target,omitempty"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	CommunityID string `json:"community_id,omitempty"`
	Reasoning   string `json:"reasoning,omitempty"`
}

type modelResponse struct {
	Actions        []rawAction `json:"actions"`
	ThoughtProcess string      `json:"thought_process"`
}

func parseModelResponse(content string) (*modelResponse, bool) {
	cleaned := stripFences(content)
	var parsed modelResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, false
	}
	return &parsed, true
}

// stripFences removes markdown code fences and isolates the outermost JSON
// object, since models wrap JSON in prose more often than not.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// mapAction resolves one raw action against the reference registry. Actions
// with dangling tokens are dropped silently.
func (d *Decider) mapAction(raw rawAction, reg *RefRegistry) (core.AgentAction, bool) {
	actionType := core.ActionType(strings.TrimSpace(raw.Type))
	if !core.KnownActionType(actionType) {
		return core.AgentAction{}, false
	}

	action := core.AgentAction{
		Type:      actionType,
		Title:     raw.Title,
		Content:   raw.Content,
		Reasoning: raw.Reasoning,
	}

	switch actionType {
	case core.ActionReply, core.ActionUpvote, core.ActionDownvote:
		postID, ok := reg.ResolvePost(raw.Target)
		if !ok {
			return core.AgentAction{}, false
		}
		action.TargetPostID = postID
	case core.ActionJoinCommunity:
		communityID, ok := reg.ResolveCommunity(raw.CommunityID)
		if !ok {
			return core.AgentAction{}, false
		}
		action.CommunityID = communityID
	case core.ActionPost:
		if raw.CommunityID != "" {
			if communityID, ok := reg.ResolveCommunity(raw.CommunityID); ok {
				action.CommunityID = communityID
			}
		}
	}
	return action, true
}

// coerceToIntent enforces single-action directive compliance: only the first
// returned action survives and its type and target are overwritten to match
// the intent exactly. A parse failure (no actions) stays empty.
func coerceToIntent(actions []core.AgentAction, intent *core.AgentIntent) []core.AgentAction {
	if len(actions) == 0 {
		return nil
	}
	action := actions[0]
	action.Type = intent.Type
	if intent.TargetPostID != "" {
		action.TargetPostID = intent.TargetPostID
	}
	if intent.CommunityID != "" {
		action.CommunityID = intent.CommunityID
	}
	if intent.Content != "" {
		action.Content = intent.Content
	}
	return []core.AgentAction{action}
}

// directIntentAction handles intents that need no model call: literal
// content supplied up front, or content-free actions with explicit targets.
func directIntentAction(intent *core.AgentIntent) (core.AgentAction, bool) {
	action := core.AgentAction{
		Type:         intent.Type,
		TargetPostID: intent.TargetPostID,
		CommunityID:  intent.CommunityID,
		Content:      intent.Content,
		Reasoning:    "operator directive",
	}
	switch intent.Type {
	case core.ActionPost, core.ActionReply:
		return action, intent.Content != ""
	case core.ActionUpvote, core.ActionDownvote:
		return action, intent.TargetPostID != ""
	case core.ActionJoinCommunity:
		return action, intent.CommunityID != ""
	case core.ActionSkip:
		return action, true
	}
	return core.AgentAction{}, false
}
