// Package events publishes engine activity to external consumers: NATS
// subjects for service-to-service integration and a websocket hub for UI
// clients. Both are optional; a nil messenger or an empty hub is a no-op.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/openagora/agora/core"
)

// NATS subjects.
const (
	SubjectWakeCompleted = "agora.wake.completed"
)

// Messenger encapsulates a NATS connection.
type Messenger struct {
	nc *nats.Conn
}

// NewMessenger connects to the NATS server at url.
func NewMessenger(url string) (*Messenger, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Messenger{nc: nc}, nil
}

// PublishWakeResult publishes a completed cycle both to the global subject
// and to the agent's private subject.
func (m *Messenger) PublishWakeResult(res *core.WakeCycleResult) error {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal wake result: %v", err)
	}
	if err := m.nc.Publish(SubjectWakeCompleted, data); err != nil {
		return err
	}
	return m.nc.Publish(fmt.Sprintf("agora.agent.%s.wake", res.AgentID), data)
}

// Close drains and closes the connection.
func (m *Messenger) Close() {
	if m == nil || m.nc == nil {
		return
	}
	m.nc.Close()
}
