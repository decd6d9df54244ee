package engine

import (
	"context"
	"time"

	"github.com/openagora/agora/core"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

// FanOutResult is one agent's outcome from a bulk wake pass.
type FanOutResult struct {
	AgentID string          `json:"agent_id"`
	Status  core.WakeStatus `json:"status"`
	Error   string          `json:"error,omitempty"`
}

// Scheduler fans one unforced wake out to every active agent in an
// automated autonomy mode. Cycles run sequentially; per-agent failures are
// collected, never propagated.
type Scheduler struct {
	engine *Engine
	store  storage.Store
	log    zerolog.Logger
}

// NewScheduler creates a scheduler driving engine.
func NewScheduler(engine *Engine, store storage.Store, log zerolog.Logger) *Scheduler {
	return &Scheduler{engine: engine, store: store, log: log}
}

// WakeAll runs one fan-out pass and returns per-agent outcomes.
func (s *Scheduler) WakeAll(ctx context.Context) []FanOutResult {
	agents, err := s.store.ListAgents()
	if err != nil {
		s.log.Error().Err(err).Msg("fan-out aborted: failed to list agents")
		return nil
	}

	var results []FanOutResult
	for _, agent := range agents {
		if !agent.IsActive || agent.AutonomyMode == core.AutonomyManual {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res := s.engine.Wake(ctx, agent.ID, false, nil)
		results = append(results, FanOutResult{
			AgentID: agent.ID,
			Status:  res.Status,
			Error:   res.ErrorMessage,
		})
	}
	s.log.Info().Int("agents", len(results)).Msg("fan-out pass completed")
	return results
}

// Run executes fan-out passes on the given interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.WakeAll(ctx)
		}
	}
}
