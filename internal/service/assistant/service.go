// Package assistant runs AI-assisted rooms: a provider room whose chat history
// is replayed to the chat model on every message.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/livekit/protocol/livekit"

	"github.com/learnhub/backend/internal/apperr"
	model "github.com/learnhub/backend/internal/model/assistant"
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/model/room"
	chatservice "github.com/learnhub/backend/internal/service/chat"
	"github.com/learnhub/backend/internal/validation"
)

const (
	fallbackReply  = "I apologize, but I cannot provide a response at the moment."
	emptyMeeting   = "No conversation took place in this meeting."
	summaryPreface = "Please provide a concise summary of the following conversation from a video call meeting:"
	summaryClosing = "Please summarize the key points discussed, decisions made, and action items if any."
)

// RoomProvider is the room service surface used by the orchestrator.
type RoomProvider interface {
	CreateRoom(ctx context.Context, req room.CreateRequest) (room.Info, error)
	GetRoom(ctx context.Context, name string) (room.Info, error)
	JoinRoom(ctx context.Context, req room.JoinRequest) (room.JoinResult, error)
	IssueJoinToken(req room.TokenRequest) (string, error)
	HandleEvent(ctx context.Context, event *livekit.WebhookEvent)
	URL() string
}

// Completer produces chat completions and summaries.
type Completer interface {
	Complete(ctx context.Context, turns []chat.Turn) (string, error)
	Summarize(ctx context.Context, transcript string) (string, error)
}

type Service struct {
	rooms   RoomProvider
	ai      Completer
	history chatservice.Store
}

// NewService wires the orchestrator. ai may be nil, in which case messaging
// and summaries report the feature as unconfigured.
func NewService(rooms RoomProvider, ai Completer, history chatservice.Store) *Service {
	return &Service{rooms: rooms, ai: ai, history: history}
}

// CreateRoom creates the provider room, seeds history with the system prompt
// and issues the caller's token.
func (s *Service) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (model.CreateRoomResult, error) {
	if err := validation.Struct(req); err != nil {
		return model.CreateRoomResult{}, err
	}
	if req.AIAssistantName == "" {
		req.AIAssistantName = model.DefaultName
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = model.DefaultSystemPrompt
	}

	metadata, err := json.Marshal(model.RoomMetadata{
		HasAIAssistant:  true,
		AIAssistantName: req.AIAssistantName,
		SystemPrompt:    req.SystemPrompt,
	})
	if err != nil {
		return model.CreateRoomResult{}, fmt.Errorf("encode room metadata: %w", err)
	}

	info, err := s.rooms.CreateRoom(ctx, room.CreateRequest{Name: req.RoomName, Metadata: string(metadata)})
	if err != nil {
		return model.CreateRoomResult{}, err
	}

	if err := s.history.Clear(ctx, req.RoomName); err != nil {
		return model.CreateRoomResult{}, err
	}
	if err := s.history.Append(ctx, req.RoomName, chat.Turn{Role: chat.RoleSystem, Content: req.SystemPrompt}); err != nil {
		return model.CreateRoomResult{}, err
	}

	token, err := s.rooms.IssueJoinToken(room.TokenRequest{RoomName: req.RoomName, ParticipantName: req.ParticipantName})
	if err != nil {
		return model.CreateRoomResult{}, err
	}

	log.Printf("[assistant] created room=%s assistant=%s", req.RoomName, req.AIAssistantName)
	return model.CreateRoomResult{
		Room:            info,
		UserToken:       token,
		URL:             s.rooms.URL(),
		AIAssistantName: req.AIAssistantName,
	}, nil
}

// JoinRoom joins an existing assistant room and returns the visible history.
func (s *Service) JoinRoom(ctx context.Context, req model.JoinRoomRequest) (model.JoinRoomResult, error) {
	if err := validation.Struct(req); err != nil {
		return model.JoinRoomResult{}, err
	}

	info, err := s.rooms.GetRoom(ctx, req.RoomName)
	if err != nil {
		return model.JoinRoomResult{}, err
	}

	var metadata model.RoomMetadata
	if info.Metadata != "" {
		if err := json.Unmarshal([]byte(info.Metadata), &metadata); err != nil {
			log.Printf("[assistant] room=%s has unreadable metadata: %v", req.RoomName, err)
		}
	}
	if !metadata.HasAIAssistant {
		return model.JoinRoomResult{}, apperr.Validation("This room does not have an AI assistant enabled")
	}

	joined, err := s.rooms.JoinRoom(ctx, room.JoinRequest{RoomName: req.RoomName, ParticipantName: req.ParticipantName})
	if err != nil {
		return model.JoinRoomResult{}, err
	}

	turns, err := s.history.Get(ctx, req.RoomName)
	if err != nil {
		return model.JoinRoomResult{}, err
	}
	visible := make([]chat.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role != chat.RoleSystem {
			visible = append(visible, turn)
		}
	}

	name := metadata.AIAssistantName
	if name == "" {
		name = model.DefaultName
	}
	return model.JoinRoomResult{Token: joined.Token, URL: joined.URL, AIAssistantName: name, ChatHistory: visible}, nil
}

// SendMessage appends the user turn, completes over the whole history and
// appends the reply. Concurrent messages to one room may interleave.
func (s *Service) SendMessage(ctx context.Context, req model.SendMessageRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	if s.ai == nil {
		return "", apperr.NotConfigured("chat provider is not configured")
	}

	userTurn := chat.Turn{Role: chat.RoleUser, Content: req.Message, ParticipantID: req.ParticipantID}
	if err := s.history.Append(ctx, req.RoomName, userTurn); err != nil {
		return "", err
	}
	turns, err := s.history.Get(ctx, req.RoomName)
	if err != nil {
		return "", err
	}

	reply, err := s.ai.Complete(ctx, turns)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}

	if err := s.history.Append(ctx, req.RoomName, chat.Turn{Role: chat.RoleAssistant, Content: reply}); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Service) History(ctx context.Context, roomName string) ([]chat.Turn, error) {
	return s.history.Get(ctx, roomName)
}

func (s *Service) Clear(ctx context.Context, roomName string) error {
	return s.history.Clear(ctx, roomName)
}

// Summarize condenses the non-system history of a room.
func (s *Service) Summarize(ctx context.Context, roomName string) (string, error) {
	turns, err := s.history.Get(ctx, roomName)
	if err != nil {
		return "", err
	}
	if len(turns) <= 1 {
		return emptyMeeting, nil
	}
	if s.ai == nil {
		return "", apperr.NotConfigured("chat provider is not configured")
	}

	var transcript strings.Builder
	transcript.WriteString(summaryPreface)
	transcript.WriteString("\n\n")
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleSystem:
			continue
		case chat.RoleUser:
			transcript.WriteString("Participant: ")
		default:
			transcript.WriteString("AI Assistant: ")
		}
		transcript.WriteString(turn.Content)
		transcript.WriteString("\n")
	}
	transcript.WriteString("\n")
	transcript.WriteString(summaryClosing)

	summary, err := s.ai.Summarize(ctx, transcript.String())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "Unable to generate meeting summary.", nil
	}
	return summary, nil
}

// HandleRoomEvent drops the history of finished rooms and forwards the event
// to the room service.
func (s *Service) HandleRoomEvent(ctx context.Context, event *livekit.WebhookEvent) error {
	roomName := event.GetRoom().GetName()

	switch event.GetEvent() {
	case "room_finished":
		if roomName != "" {
			if err := s.history.Clear(ctx, roomName); err != nil {
				return err
			}
			log.Printf("[assistant] cleared history of finished room=%s", roomName)
		}
	case "participant_joined":
		log.Printf("[assistant] participant %s joined room %s", event.GetParticipant().GetIdentity(), roomName)
	case "participant_left":
		log.Printf("[assistant] participant %s left room %s", event.GetParticipant().GetIdentity(), roomName)
	}

	s.rooms.HandleEvent(ctx, event)
	return nil
}
