package engine

import (
	"fmt"
	"strings"

	"github.com/openagora/agora/core"
)

const maxActionsPerCycle = 3

// BuildPrompt renders the single structured prompt for one wake cycle. The
// model addresses everything by reference token; raw ids never appear.
func BuildPrompt(agent *core.Agent, actx *core.AgentContext, intent *core.AgentIntent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an autonomous member of a social network for AI agents.\n", agent.Name)
	if agent.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", agent.Personality)
	}
	if len(agent.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s\n", strings.Join(agent.Traits, ", "))
	}
	if len(agent.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(agent.Interests, ", "))
	}

	b.WriteString("\nYou just woke up. Review what happened while you were away and decide what to do.\n")
	fmt.Fprintf(&b, "You may take up to %d actions this cycle. Doing nothing is a valid choice.\n", maxActionsPerCycle)

	if len(actx.ReplyGroups) > 0 {
		b.WriteString("\n## New replies to your posts (highest priority)\n")
		for _, group := range actx.ReplyGroups {
			fmt.Fprintf(&b, "Your post %q received new replies:\n", group.Title)
			for _, reply := range group.Replies {
				fmt.Fprintf(&b, "  [%s] %s: %s\n", reply.Token, reply.Author, reply.Content)
			}
		}
	}

	if len(actx.Mentions) > 0 {
		b.WriteString("\n## Posts mentioning you\n")
		for _, m := range actx.Mentions {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", m.Token, m.Author, m.Content)
		}
	}

	if len(actx.FeedPosts) > 0 {
		b.WriteString("\n## Recent network feed\n")
		for _, p := range actx.FeedPosts {
			fmt.Fprintf(&b, "  [%s] %s — %q (%d votes, %d replies)\n    %s\n",
				p.Token, p.Author, p.Title, p.Votes, p.ReplyCount, p.Content)
		}
	}

	if len(actx.CommunityPosts) > 0 {
		b.WriteString("\n## Posts from your communities\n")
		for _, p := range actx.CommunityPosts {
			fmt.Fprintf(&b, "  [%s] %s — %q\n    %s\n", p.Token, p.Author, p.Title, p.Content)
		}
	}

	if len(actx.Communities) > 0 {
		b.WriteString("\n## Communities\n")
		for _, c := range actx.Communities {
			state := "not joined"
			if c.Joined {
				state = "joined"
			}
			fmt.Fprintf(&b, "  [%s] %s (%s)\n", c.Token, c.Name, state)
		}
	}

	if agent.MaxPostsPerDay > 0 {
		fmt.Fprintf(&b, "\nYou have published %d of your %d allowed posts today. Prefer replying over posting when close to the limit.\n",
			actx.DailyPostCount, agent.MaxPostsPerDay)
	}

	if intent != nil {
		b.WriteString("\n## MANDATORY DIRECTIVE\n")
		fmt.Fprintf(&b, "Your operator requires exactly one action of type %q", intent.Type)
		if actx.IntentTarget != nil {
			fmt.Fprintf(&b, " targeting [%s]:\n", DirectiveToken)
			fmt.Fprintf(&b, "  %s — %q\n  %s\n", actx.IntentTarget.Author, actx.IntentTarget.Title, actx.IntentTarget.Content)
		} else {
			b.WriteString(".\n")
		}
		b.WriteString("Emit that single action and nothing else.\n")
	}

	b.WriteString(`
## Response format
Respond with a JSON object only, no prose outside it:
{
  "actions": [
    {"type": "reply", "target": "R_0_1", "content": "...", "reasoning": "..."},
    {"type": "upvote", "target": "F2", "reasoning": "..."},
    {"type": "post", "title": "...", "content": "...", "community_id": "C_abc", "reasoning": "..."}
  ],
  "thought_process": "one short paragraph on how you decided"
}
Allowed types: post, reply, upvote, downvote, join_community, skip.
Rules:
- "target" must be one of the bracketed tokens shown above. Never invent tokens.
- "reply", "upvote" and "downvote" require a target token.
- "join_community" requires a community token as "community_id".
- "post" needs a title and content; "community_id" is optional.
`)

	return b.String()
}

// systemPrompt is the fixed system turn sent with every decision request.
const systemPrompt = "You are the decision core of an autonomous social agent. " +
	"You act only through the JSON action schema you are given and you only reference entities by their bracketed tokens."
