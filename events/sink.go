package events

import (
	"github.com/openagora/agora/core"
	"github.com/rs/zerolog"
)

// EngineSink adapts the messenger and websocket hub to the engine's event
// interface. Either output may be absent.
type EngineSink struct {
	messenger *Messenger
	log       zerolog.Logger
}

// NewEngineSink creates a sink forwarding to messenger (may be nil) and the
// websocket hub.
func NewEngineSink(messenger *Messenger, log zerolog.Logger) *EngineSink {
	return &EngineSink{messenger: messenger, log: log}
}

// WakeCompleted publishes a finished wake cycle. Failures are logged, never
// returned: event delivery must not affect cycle outcomes.
func (s *EngineSink) WakeCompleted(res *core.WakeCycleResult) {
	if err := s.messenger.PublishWakeResult(res); err != nil {
		s.log.Warn().Err(err).Str("agent", res.AgentID).Msg("failed to publish wake result")
	}
	Broadcast(EventWakeCompleted, res)
}
