package dto

import "time"

type AskRequest struct {
	SessionId string `json:"session_id"`
	Question  string `json:"question" validate:"required"`
}

type AskResponse struct {
	SessionId     string `json:"session_id"`
	Answer        string `json:"answer"`
	UsedRetrieval bool   `json:"used_retrieval"`
}

type SetPersonaRequest struct {
	SessionId string `json:"session_id"`
	Persona   string `json:"persona" validate:"required"`
}

type SetPersonaResponse struct {
	SessionId string `json:"session_id"`
	Applied   bool   `json:"applied"` // false once the first exchange locked the persona
}

type NewConversationRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type TurnResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type PersonaResponse struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

type IndexStatusResponse struct {
	Label    string `json:"label"`
	Segments int    `json:"segments"`
}

type HealthResponse struct {
	Status  string                `json:"status"`
	Indexes []IndexStatusResponse `json:"indexes"`
}

// ReingestMessage is the event payload published to trigger an index rebuild.
type ReingestMessage struct {
	RequestedAt time.Time `json:"requested_at"`
}
