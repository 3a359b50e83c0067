package agents

import (
	"sync"
	"time"

	"aegis/internal/metrics"
)

// CollaborationBus is the append-only inter-agent message log. Posts from
// concurrently running workflows are serialized by the mutex so the stored
// order matches emission order. Messages are never mutated or removed.
type CollaborationBus struct {
	mu       sync.Mutex
	messages []CollaborationMessage
	registry *Registry
}

// NewCollaborationBus constructs an empty bus. The registry is used to
// mirror message content onto the sender's and recipient's
// conversation history.
func NewCollaborationBus(registry *Registry) *CollaborationBus {
	return &CollaborationBus{registry: registry}
}

// Post appends one message. Thread-safe. The history mirror happens
// under the bus lock so log order and conversation-history order cannot
// disagree across concurrent posters.
func (b *CollaborationBus) Post(from, to AgentID, msgType, content string, data map[string]interface{}) {
	b.mu.Lock()
	b.messages = append(b.messages, CollaborationMessage{
		FromAgent:   from,
		ToAgent:     to,
		MessageType: msgType,
		Content:     content,
		Data:        data,
		Timestamp:   time.Now().UTC(),
	})
	b.registry.AppendHistory(from, "→ "+content)
	if to != AgentBroadcast {
		b.registry.AppendHistory(to, "← "+content)
	}
	b.mu.Unlock()

	metrics.BusMessages.WithLabelValues(string(from), msgType).Inc()
}

// Recent returns a copy of the last n messages in submission order.
func (b *CollaborationBus) Recent(n int) []CollaborationMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.messages) {
		n = len(b.messages)
	}
	out := make([]CollaborationMessage, n)
	copy(out, b.messages[len(b.messages)-n:])
	return out
}

// Len returns the number of posted messages.
func (b *CollaborationBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Reset empties the log.
func (b *CollaborationBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}
