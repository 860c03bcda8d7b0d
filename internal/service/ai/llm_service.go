package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/model/chat"
)

const summarySystemPrompt = "You are a meeting assistant that creates concise meeting summaries."

// Service wraps the chat-completion provider.
type Service struct {
	chatModel model.BaseChatModel
	summary   compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates a new AI service instance
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{transcript}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	return &Service{chatModel: chatModel, summary: runnable}, nil
}

// Complete runs a single-shot completion over turns.
func (s *Service) Complete(ctx context.Context, turns []chat.Turn) (string, error) {
	if len(turns) == 0 {
		return "", apperr.Validation("messages must not be empty")
	}

	response, err := s.chatModel.Generate(ctx, toSchemaMessages(turns))
	if err != nil {
		return "", apperr.Provider("chat completion failed: %v", err)
	}

	log.Printf("[ai] completion finished, turns=%d, length=%d", len(turns), len(response.Content))
	return response.Content, nil
}

// StreamComplete starts an incremental completion. The caller must drain or Close the stream.
func (s *Service) StreamComplete(ctx context.Context, turns []chat.Turn) (*Stream, error) {
	if len(turns) == 0 {
		return nil, apperr.Validation("messages must not be empty")
	}

	reader, err := s.chatModel.Stream(ctx, toSchemaMessages(turns))
	if err != nil {
		return nil, apperr.Provider("chat stream failed: %v", err)
	}
	return &Stream{reader: reader}, nil
}

// Summarize asks the provider for a short summary of transcript.
func (s *Service) Summarize(ctx context.Context, transcript string) (string, error) {
	response, err := s.summary.Invoke(ctx, map[string]any{
		"system":     summarySystemPrompt,
		"transcript": transcript,
	})
	if err != nil {
		return "", apperr.Provider("summary generation failed: %v", err)
	}
	return response.Content, nil
}

func toSchemaMessages(turns []chat.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch strings.ToLower(turn.Role) {
		case chat.RoleSystem:
			messages = append(messages, schema.SystemMessage(turn.Content))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}
	return messages
}

// Chunk is one increment of a streamed completion.
type Chunk struct {
	Text      string    `json:"content"`
	IsFinal   bool      `json:"isComplete"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream yields one chunk per non-empty provider delta, then a single final
// chunk with empty text, then io.EOF.
type Stream struct {
	reader *schema.StreamReader[*schema.Message]
	done   bool
}

// Recv returns the next chunk. Provider failures end the stream.
func (s *Stream) Recv() (Chunk, error) {
	if s.done {
		return Chunk{}, io.EOF
	}

	for {
		msg, err := s.reader.Recv()
		if errors.Is(err, io.EOF) {
			s.finish()
			return Chunk{IsFinal: true, Timestamp: time.Now().UTC()}, nil
		}
		if err != nil {
			s.finish()
			return Chunk{}, apperr.Provider("chat stream failed: %v", err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		return Chunk{Text: msg.Content, Timestamp: time.Now().UTC()}, nil
	}
}

// Close releases the provider stream.
func (s *Stream) Close() {
	s.finish()
}

func (s *Stream) finish() {
	if s.done {
		return
	}
	s.done = true
	s.reader.Close()
}
