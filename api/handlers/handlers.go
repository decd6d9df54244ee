package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openagora/agora/core"
	"github.com/openagora/agora/engine"
	"github.com/openagora/agora/secrets"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

// Handler bundles the dependencies the HTTP surface needs.
type Handler struct {
	Engine    *engine.Engine
	Scheduler *engine.Scheduler
	Store     storage.Store
	MasterKey string
	Log       zerolog.Logger
}

type createAgentRequest struct {
	Name             string   `json:"name" binding:"required"`
	OwnerID          string   `json:"owner_id"`
	Personality      string   `json:"personality"`
	Traits           []string `json:"traits"`
	Interests        []string `json:"interests"`
	AutonomyMode     string   `json:"autonomy_mode"`
	Provider         string   `json:"provider" binding:"required"`
	Model            string   `json:"model"`
	APIKey           string   `json:"api_key" binding:"required"`
	DailyBudget      float64  `json:"daily_budget"`
	MaxPostsPerHour  int      `json:"max_posts_per_hour"`
	MaxPostsPerDay   int      `json:"max_posts_per_day"`
	ActiveHoursStart string   `json:"active_hours_start"`
	ActiveHoursEnd   string   `json:"active_hours_end"`
}

// CreateAgent registers a new agent. The plaintext API key is encrypted
// under the master key before it touches the store.
func (h *Handler) CreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent data"})
		return
	}

	encrypted, err := secrets.Encrypt(h.MasterKey, req.APIKey)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to encrypt API key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	mode := core.AutonomyMode(req.AutonomyMode)
	if mode == "" {
		mode = core.AutonomyManual
	}
	dailyBudget := req.DailyBudget
	if dailyBudget == 0 {
		dailyBudget = 1.00
	}

	agent := &core.Agent{
		ID:               uuid.New().String(),
		Name:             req.Name,
		OwnerID:          req.OwnerID,
		Personality:      req.Personality,
		Traits:           req.Traits,
		Interests:        req.Interests,
		AutonomyMode:     mode,
		Provider:         req.Provider,
		Model:            req.Model,
		EncryptedAPIKey:  encrypted,
		DailyBudget:      dailyBudget,
		MaxPostsPerHour:  req.MaxPostsPerHour,
		MaxPostsPerDay:   req.MaxPostsPerDay,
		ActiveHoursStart: req.ActiveHoursStart,
		ActiveHoursEnd:   req.ActiveHoursEnd,
		IsActive:         true,
		CreatedAt:        time.Now(),
	}
	if err := h.Store.PutAgent(agent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create agent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "agent registered", "agentID": agent.ID})
}

// ListAgents returns all agents with credentials redacted.
func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.Store.ListAgents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list agents"})
		return
	}
	for _, a := range agents {
		a.EncryptedAPIKey = ""
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// GetAgent returns one agent with credentials redacted.
func (h *Handler) GetAgent(c *gin.Context) {
	agent, err := h.Store.GetAgent(c.Param("agentID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load agent"})
		return
	}
	agent.EncryptedAPIKey = ""
	c.JSON(http.StatusOK, agent)
}

type wakeRequest struct {
	Forced bool              `json:"forced"`
	Intent *core.AgentIntent `json:"intent,omitempty"`
}

// WakeAgent triggers one wake cycle. The response always carries a terminal
// status; engine failures surface in the body, never as a 5xx panic.
func (h *Handler) WakeAgent(c *gin.Context) {
	// An absent body means an unforced, intent-free wake.
	var req wakeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wake request"})
			return
		}
	}
	if req.Intent != nil && !core.KnownActionType(req.Intent.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown intent type"})
		return
	}

	res := h.Engine.Wake(c.Request.Context(), c.Param("agentID"), req.Forced, req.Intent)
	c.JSON(http.StatusOK, res)
}

// WakeAll runs one fan-out pass over all automated agents.
func (h *Handler) WakeAll(c *gin.Context) {
	results := h.Scheduler.WakeAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetWakeLogs returns the agent's recent wake audit records.
func (h *Handler) GetWakeLogs(c *gin.Context) {
	logs, err := h.Store.ListWakeLogs(c.Param("agentID"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wake logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetFeed returns recent top-level posts.
func (h *Handler) GetFeed(c *gin.Context) {
	posts, err := h.Store.ListRecentPosts(time.Now().Add(-24*time.Hour), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns one post.
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.Store.GetPost(c.Param("postID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetReplies returns every direct reply to a post.
func (h *Handler) GetReplies(c *gin.Context) {
	replies, err := h.Store.ListRepliesSince(c.Param("postID"), time.Time{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load replies"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

type createCommunityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

// CreateCommunity registers a new community.
func (h *Handler) CreateCommunity(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community data"})
		return
	}
	community := &core.Community{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Private:     req.Private,
		CreatedAt:   time.Now(),
	}
	if err := h.Store.PutCommunity(community); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create community"})
		return
	}
	c.JSON(http.StatusOK, community)
}

// ListCommunities returns all communities.
func (h *Handler) ListCommunities(c *gin.Context) {
	communities, err := h.Store.ListCommunities(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list communities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": communities})
}
