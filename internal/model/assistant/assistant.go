// Package assistant holds the payloads of AI-assisted rooms.
package assistant

import (
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/model/room"
)

const (
	DefaultName         = "AI Assistant"
	DefaultSystemPrompt = "You are a helpful AI assistant in a video call. Provide concise, friendly responses."
)

// RoomMetadata is stored as JSON on the provider room.
type RoomMetadata struct {
	HasAIAssistant  bool   `json:"hasAIAssistant"`
	AIAssistantName string `json:"aiAssistantName"`
	SystemPrompt    string `json:"systemPrompt"`
}

type CreateRoomRequest struct {
	RoomName        string `json:"roomName" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required"`
	AIAssistantName string `json:"aiAssistantName"`
	SystemPrompt    string `json:"systemPrompt"`
}

type CreateRoomResult struct {
	Room            room.Info `json:"room"`
	UserToken       string    `json:"userToken"`
	URL             string    `json:"url"`
	AIAssistantName string    `json:"aiAssistantName"`
}

type JoinRoomRequest struct {
	RoomName        string `json:"roomName" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required"`
}

type JoinRoomResult struct {
	Token           string      `json:"token"`
	URL             string      `json:"url"`
	AIAssistantName string      `json:"aiAssistantName"`
	ChatHistory     []chat.Turn `json:"chatHistory"`
}

type SendMessageRequest struct {
	RoomName      string `json:"roomName" validate:"required"`
	Message       string `json:"message" validate:"required"`
	ParticipantID string `json:"participantId"`
}
