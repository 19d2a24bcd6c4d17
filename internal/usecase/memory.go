package usecase

import (
	"strings"
	"time"

	"spritely/internal/domain"
)

// ConversationMemory keeps a bounded window of prior exchanges used to build
// context for the completion request. Oldest entries are evicted first. It
// is not persisted across restarts and is only mutated from the bridge
// context, so it needs no locking.
type ConversationMemory struct {
	history []domain.Exchange
	max     int
}

func NewConversationMemory(max int) *ConversationMemory {
	if max <= 0 {
		max = 10
	}
	return &ConversationMemory{max: max}
}

// AddExchange records one conversation turn, evicting the oldest entry when
// the cap is exceeded.
func (m *ConversationMemory) AddExchange(userInput string, response string, responseType domain.Channel) {
	m.history = append(m.history, domain.Exchange{
		Timestamp:    time.Now(),
		UserInput:    userInput,
		Response:     response,
		ResponseType: responseType,
	})
	if len(m.history) > m.max {
		m.history = m.history[1:]
	}
}

// Context renders the remembered exchanges for inclusion in a prompt.
func (m *ConversationMemory) Context() string {
	if len(m.history) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, exchange := range m.history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[User]: " + exchange.UserInput + "\n")
		sb.WriteString("[Assistant (" + string(exchange.ResponseType) + ")]: " + exchange.Response)
	}
	return sb.String()
}

// Len reports the number of remembered exchanges.
func (m *ConversationMemory) Len() int {
	return len(m.history)
}
