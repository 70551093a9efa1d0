package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"soloboss/pkg/domain"
)

// ListAgents returns the active agents from the shared catalog.
func (a *App) ListAgents() ([]domain.AIAgent, error) {
	agents, err := a.store.ListActiveAgents()
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// SendMessage runs one chat exchange: persist the caller's message, compute
// a reply from the agent's specialization, persist the agent's message, and
// return the agent-authored row.
//
// The two inserts are deliberately not wrapped in a transaction: a failure
// between them leaves a user message with no paired response, which is an
// accepted inconsistency (the reply generator is in-process and cannot
// fail, so the window is a store outage mid-request).
func (a *App) SendMessage(ownerID, agentID, message string) (domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if strings.TrimSpace(agentID) == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: agent id is required", ErrInvalidInput)
	}
	if _, ok, err := a.store.GetUser(ownerID); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("load user: %w", err)
	} else if !ok {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
	}
	agent, ok, err := a.store.GetAgent(agentID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("load agent: %w", err)
	}
	if !ok {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	if !agent.IsActive {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrAgentInactive, agentID)
	}

	if _, err := a.store.AppendChatMessage(domain.ChatMessage{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		AgentID:       agentID,
		Message:       message,
		IsUserMessage: true,
	}); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("save user message: %w", err)
	}

	response := a.responder.Respond(agent.Specialization, message)
	reply, err := a.store.AppendChatMessage(domain.ChatMessage{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		AgentID:       agentID,
		Message:       message,
		Response:      &response,
		IsUserMessage: false,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("save agent message: %w", err)
	}
	if err := a.recordActivity(ownerID, "chat_message", "Chatted with "+agent.Name, domain.EntityChat, reply.ID); err != nil {
		return domain.ChatMessage{}, err
	}
	return reply, nil
}

// ChatHistory returns recent messages for the caller and one agent, newest
// first. Limit defaults to 50 and is capped to keep responses bounded.
func (a *App) ChatHistory(ownerID, agentID string, limit int) ([]domain.ChatMessage, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	msgs, err := a.store.ListChatMessages(ownerID, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}
