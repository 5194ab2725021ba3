package session

import (
	"sync"
	"time"

	"rag-assistant-be/pkg/llm"
)

// State of a conversation. A reset is equivalent to discarding the
// conversation and starting a fresh EMPTY one.
type State string

const (
	StateEmpty  State = "EMPTY"  // no turns yet, persona mutable
	StateActive State = "ACTIVE" // >=1 turn exchanged, persona immutable
)

// Turn is one user/assistant exchange.
type Turn struct {
	UserText      string
	AssistantText string
	CreatedAt     time.Time
}

// Conversation holds the bounded message history and the one-time persona
// lock for a single chat. All mutation goes through RecordTurn/SetPersona/
// Reset so the invariants (role lock, window bound) are enforced in one
// place; callers never get raw mutable access.
//
// Concurrent requests against the same conversation must be serialized by
// the caller via Acquire/Release, held across the whole exchange including
// the model call. The inner mutex mu only guards field access.
type Conversation struct {
	gate sync.Mutex // per-session serialization, held across an exchange
	mu   sync.Mutex

	persona        string
	defaultPersona string
	roleLocked     bool
	turns          []Turn
	window         int
}

// NewConversation creates an EMPTY conversation. window bounds the number
// of retained turns (FIFO eviction); defaultPersona is committed on the
// first turn when the caller never set one.
func NewConversation(window int, defaultPersona string) *Conversation {
	if window <= 0 {
		window = 10
	}
	return &Conversation{
		window:         window,
		defaultPersona: defaultPersona,
	}
}

// Acquire blocks until this conversation's exchange gate is free.
// At most one request per session may be in flight.
func (c *Conversation) Acquire() { c.gate.Lock() }

// Release frees the exchange gate.
func (c *Conversation) Release() { c.gate.Unlock() }

// State reports EMPTY or ACTIVE.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.roleLocked {
		return StateActive
	}
	return StateEmpty
}

// SetPersona updates the persona directive. Allowed only before the first
// turn; after the lock it is silently ignored and returns false.
func (c *Conversation) SetPersona(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roleLocked {
		return false
	}
	c.persona = text
	return true
}

// Persona returns the current persona directive (the default persona once
// the conversation is active and none was set).
func (c *Conversation) Persona() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectivePersona()
}

func (c *Conversation) effectivePersona() string {
	if c.persona != "" {
		return c.persona
	}
	return c.defaultPersona
}

// RoleLocked reports whether the persona is committed.
func (c *Conversation) RoleLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roleLocked
}

// RecordTurn appends one exchange. The first call transitions
// EMPTY -> ACTIVE and commits the persona (or the default) as immutable
// for the rest of the conversation. Oldest turns are evicted FIFO beyond
// the window; the persona directive is never evicted.
func (c *Conversation) RecordTurn(userText, assistantText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roleLocked {
		c.persona = c.effectivePersona()
		c.roleLocked = true
	}

	c.turns = append(c.turns, Turn{
		UserText:      userText,
		AssistantText: assistantText,
		CreatedAt:     time.Now(),
	})

	if len(c.turns) > c.window {
		c.turns = c.turns[len(c.turns)-c.window:]
	}
}

// Reset clears history and persona and returns to EMPTY.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.persona = ""
	c.roleLocked = false
}

// Turns returns a copy of the retained history, oldest first.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Snapshot renders the persona directive plus the windowed history as
// provider-agnostic messages, ready for prompt assembly.
func (c *Conversation) Snapshot() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]llm.Message, 0, len(c.turns)*2+1)
	if persona := c.effectivePersona(); persona != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: persona})
	}
	for _, turn := range c.turns {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.UserText},
			llm.Message{Role: llm.RoleAssistant, Content: turn.AssistantText},
		)
	}
	return messages
}
