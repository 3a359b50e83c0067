package agents

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PostMirrorsHistory(t *testing.T) {
	registry := NewRegistry()
	bus := NewCollaborationBus(registry)

	bus.Post(AgentResearch, AgentCoordinator, "findings_report", "health looks good", nil)

	require.Equal(t, 1, bus.Len())

	sender, err := registry.Get(AgentResearch)
	require.NoError(t, err)
	require.Len(t, sender.ConversationHistory, 1)
	assert.Equal(t, "→ health looks good", sender.ConversationHistory[0])

	recipient, err := registry.Get(AgentCoordinator)
	require.NoError(t, err)
	require.Len(t, recipient.ConversationHistory, 1)
	assert.Equal(t, "← health looks good", recipient.ConversationHistory[0])
}

func TestBus_BroadcastSkipsRecipientMirror(t *testing.T) {
	registry := NewRegistry()
	bus := NewCollaborationBus(registry)

	bus.Post(AgentCoordinator, AgentBroadcast, "task_delegation", "deploying agents", nil)

	sender, _ := registry.Get(AgentCoordinator)
	assert.Len(t, sender.ConversationHistory, 1)

	for _, id := range AllAgents {
		if id == AgentCoordinator {
			continue
		}
		state, _ := registry.Get(id)
		assert.Emptyf(t, state.ConversationHistory, "broadcast must not mirror onto %s", id)
	}
}

func TestBus_RecentOrderAndBounds(t *testing.T) {
	bus := NewCollaborationBus(NewRegistry())

	for i := 0; i < 15; i++ {
		bus.Post(AgentResearch, AgentRisk, "seq", fmt.Sprintf("msg %d", i), nil)
	}

	recent := bus.Recent(10)
	require.Len(t, recent, 10)
	assert.Equal(t, "msg 5", recent[0].Content)
	assert.Equal(t, "msg 14", recent[9].Content)

	all := bus.Recent(100)
	assert.Len(t, all, 15)
}

func TestBus_ConcurrentPosts(t *testing.T) {
	bus := NewCollaborationBus(NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				bus.Post(AgentResearch, AgentRisk, "concurrent", fmt.Sprintf("w%d-%d", n, j), nil)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 60, bus.Len())
}

func TestBus_HistoryOrderMatchesBusOrder(t *testing.T) {
	registry := NewRegistry()
	bus := NewCollaborationBus(registry)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				bus.Post(AgentResearch, AgentRisk, "race", fmt.Sprintf("w%d-%d", n, j), nil)
			}
		}(i)
	}
	wg.Wait()

	messages := bus.Recent(bus.Len())
	sender, err := registry.Get(AgentResearch)
	require.NoError(t, err)
	require.Len(t, sender.ConversationHistory, len(messages))

	// The two views must agree message for message.
	for i, msg := range messages {
		assert.Equal(t, "→ "+msg.Content, sender.ConversationHistory[i])
	}

	recipient, err := registry.Get(AgentRisk)
	require.NoError(t, err)
	require.Len(t, recipient.ConversationHistory, len(messages))
	for i, msg := range messages {
		assert.Equal(t, "← "+msg.Content, recipient.ConversationHistory[i])
	}
}

func TestBus_Reset(t *testing.T) {
	bus := NewCollaborationBus(NewRegistry())
	bus.Post(AgentResearch, AgentRisk, "x", "y", nil)

	bus.Reset()
	assert.Equal(t, 0, bus.Len())
	assert.Empty(t, bus.Recent(10))
}
