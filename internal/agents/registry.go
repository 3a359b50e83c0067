package agents

import (
	"sync"
	"time"

	"aegis/pkg/errors"
)

// agentProfiles fixes the identity of the five agents.
var agentProfiles = map[AgentID]struct {
	name           string
	specialization string
}{
	AgentResearch:    {"Protocol Research Agent", "DeFi Protocol Analysis & Market Intelligence"},
	AgentRisk:        {"Risk Analysis Agent", "Multi-dimensional Risk Assessment & Compliance Scoring"},
	AgentRegulatory:  {"Regulatory Compliance Agent", "Cross-jurisdictional Compliance & AML Analysis"},
	AgentExecution:   {"Execution Agent", "Smart Contract Interaction & Transaction Management"},
	AgentCoordinator: {"Coordination Agent", "Multi-agent Orchestration & Decision Synthesis"},
}

// Registry holds the state of the five fixed agents. Workflows own writes to
// their own entry exclusively; the lock exists for concurrent dashboard
// reads, not for cross-workflow write arbitration.
type Registry struct {
	mu     sync.RWMutex
	agents map[AgentID]*AgentState
}

// NewRegistry constructs a registry with all agents IDLE.
func NewRegistry() *Registry {
	r := &Registry{agents: make(map[AgentID]*AgentState, len(AllAgents))}
	r.initLocked()
	return r
}

func (r *Registry) initLocked() {
	for _, id := range AllAgents {
		profile := agentProfiles[id]
		r.agents[id] = &AgentState{
			AgentID:             id,
			Name:                profile.name,
			Specialization:      profile.specialization,
			Status:              StatusIdle,
			Progress:            0,
			LastAction:          "Initialized",
			Timestamp:           time.Now().UTC(),
			ConversationHistory: []string{},
			Findings:            map[string]interface{}{},
		}
	}
}

// Get returns a copy of one agent's state.
func (r *Registry) Get(id AgentID) (AgentState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.agents[id]
	if !ok {
		return AgentState{}, errors.Wrapf(errors.ErrUnknownAgent, "agent %q", id)
	}
	return copyState(state), nil
}

// UpdateStatus transitions an agent and records its current task.
func (r *Registry) UpdateStatus(id AgentID, status AgentStatus, task string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.agents[id]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownAgent, "agent %q", id)
	}

	state.Status = status
	state.CurrentTask = task
	state.LastAction = task
	state.Timestamp = time.Now().UTC()
	return nil
}

// SetProgress records an agent's progress and the action driving it.
func (r *Registry) SetProgress(id AgentID, value float64, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.agents[id]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownAgent, "agent %q", id)
	}

	state.Progress = value
	state.LastAction = action
	state.Timestamp = time.Now().UTC()
	return nil
}

// SetFindings attaches a workflow's findings and confidence to its agent.
func (r *Registry) SetFindings(id AgentID, findings Findings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.agents[id]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownAgent, "agent %q", id)
	}

	state.Findings = findings.Metrics()
	state.ConfidenceLevel = findings.Confidence()
	state.Timestamp = time.Now().UTC()
	return nil
}

// AppendHistory appends one line to an agent's conversation history.
// Unknown ids (the broadcast sentinel) are ignored.
func (r *Registry) AppendHistory(id AgentID, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.agents[id]; ok {
		state.ConversationHistory = append(state.ConversationHistory, line)
	}
}

// FailNonTerminal marks every non-terminal agent FAILED with the given reason.
// Used on cancellation so no agent is left mid-flight.
func (r *Registry) FailNonTerminal(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, state := range r.agents {
		if !state.Status.Terminal() {
			state.Status = StatusFailed
			state.CurrentTask = reason
			state.LastAction = reason
			state.Timestamp = time.Now().UTC()
		}
	}
}

// Snapshot returns a copy of every agent's state.
func (r *Registry) Snapshot() map[AgentID]AgentState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[AgentID]AgentState, len(r.agents))
	for id, state := range r.agents {
		out[id] = copyState(state)
	}
	return out
}

// Active reports whether any agent is off IDLE.
func (r *Registry) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, state := range r.agents {
		if state.Status != StatusIdle {
			return true
		}
	}
	return false
}

// Reset returns every agent to its initial IDLE state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initLocked()
}

func copyState(s *AgentState) AgentState {
	out := *s
	out.ConversationHistory = append([]string(nil), s.ConversationHistory...)
	out.Findings = make(map[string]interface{}, len(s.Findings))
	for k, v := range s.Findings {
		out.Findings[k] = v
	}
	return out
}
