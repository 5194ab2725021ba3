package session

import (
	"fmt"
	"testing"

	"rag-assistant-be/pkg/llm"
)

func TestPersonaLocksOnFirstTurn(t *testing.T) {
	conv := NewConversation(10, "default persona")

	if conv.State() != StateEmpty {
		t.Fatalf("new conversation state = %s, want EMPTY", conv.State())
	}
	if !conv.SetPersona("translator") {
		t.Fatal("SetPersona before first turn should succeed")
	}

	conv.RecordTurn("hello", "bonjour")

	if conv.State() != StateActive {
		t.Errorf("state after first turn = %s, want ACTIVE", conv.State())
	}
	if !conv.RoleLocked() {
		t.Error("role should be locked after first turn")
	}
	if conv.SetPersona("travel guide") {
		t.Error("SetPersona after lock should be refused")
	}
	if conv.Persona() != "translator" {
		t.Errorf("persona = %q, want the locked one", conv.Persona())
	}
}

func TestDefaultPersonaCommittedWhenNoneSet(t *testing.T) {
	conv := NewConversation(10, "default persona")

	conv.RecordTurn("q", "a")

	if conv.Persona() != "default persona" {
		t.Errorf("persona = %q, want the default", conv.Persona())
	}
	if conv.SetPersona("late change") {
		t.Error("default persona must lock like an explicit one")
	}
}

func TestWindowEvictsOldestTurns(t *testing.T) {
	conv := NewConversation(3, "")

	for i := 0; i < 5; i++ {
		conv.RecordTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := conv.Turns()
	if len(turns) != 3 {
		t.Fatalf("retained %d turns, want 3", len(turns))
	}
	if turns[0].UserText != "q2" || turns[2].UserText != "q4" {
		t.Errorf("unexpected retained range: %s .. %s", turns[0].UserText, turns[2].UserText)
	}
}

func TestSnapshotShape(t *testing.T) {
	conv := NewConversation(10, "persona text")
	conv.RecordTurn("first question", "first answer")
	conv.RecordTurn("second question", "second answer")

	messages := conv.Snapshot()

	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5 (system + 2 pairs)", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || messages[0].Content != "persona text" {
		t.Errorf("first message should carry the persona, got %+v", messages[0])
	}
	if messages[1].Role != llm.RoleUser || messages[2].Role != llm.RoleAssistant {
		t.Error("history pairs must alternate user/assistant")
	}
	if messages[3].Content != "second question" {
		t.Errorf("messages out of order: %q", messages[3].Content)
	}
}

func TestSnapshotWithoutPersona(t *testing.T) {
	conv := NewConversation(10, "")
	conv.RecordTurn("q", "a")

	messages := conv.Snapshot()
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2 (no system message)", len(messages))
	}
}

func TestPersonaSurvivesWindowEviction(t *testing.T) {
	conv := NewConversation(2, "")
	conv.SetPersona("sticky persona")

	for i := 0; i < 10; i++ {
		conv.RecordTurn("q", "a")
	}

	messages := conv.Snapshot()
	if messages[0].Role != llm.RoleSystem || messages[0].Content != "sticky persona" {
		t.Error("persona directive must never be evicted by the window")
	}
}

func TestResetUnlocksPersona(t *testing.T) {
	conv := NewConversation(10, "default")
	conv.SetPersona("translator")
	conv.RecordTurn("q", "a")

	conv.Reset()

	if conv.State() != StateEmpty {
		t.Errorf("state after reset = %s, want EMPTY", conv.State())
	}
	if len(conv.Turns()) != 0 {
		t.Error("reset must clear history")
	}
	if !conv.SetPersona("travel guide") {
		t.Error("reset must unlock the persona")
	}
	if conv.Persona() != "travel guide" {
		t.Errorf("persona = %q, want the newly set one", conv.Persona())
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	conv := NewConversation(10, "")
	conv.RecordTurn("q", "a")

	turns := conv.Turns()
	turns[0].UserText = "mutated"

	if conv.Turns()[0].UserText != "q" {
		t.Error("Turns must return a copy, not the backing slice")
	}
}
