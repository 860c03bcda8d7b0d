// Package reacttopic serves the React topics referenced by learning sections.
package reacttopic

import (
	"context"
	"errors"
	"time"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/model/react"
	"github.com/learnhub/backend/internal/validation"
)

type Service struct {
	coll docstore.Collection[react.Topic]
}

func NewService(coll docstore.Collection[react.Topic]) *Service {
	return &Service{coll: coll}
}

func (s *Service) Create(ctx context.Context, in react.TopicInput) (react.Topic, error) {
	if err := validation.Struct(in); err != nil {
		return react.Topic{}, err
	}

	mcq := in.McqContent
	if mcq == nil {
		mcq = []react.McqContent{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	record := react.Topic{
		ID:            docstore.NewID(),
		TopicID:       in.TopicID,
		Title:         in.Title,
		Description:   in.Description,
		EstimatedTime: in.EstimatedTime,
		HTMLContent:   in.HTMLContent,
		McqContent:    mcq,
		IsCompleted:   in.IsCompleted,
		SectionID:     in.SectionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.coll.Insert(ctx, record); err != nil {
		return react.Topic{}, err
	}
	return record, nil
}

// List returns every topic, or only those of sectionID when it is non-empty.
func (s *Service) List(ctx context.Context, sectionID string) ([]react.Topic, error) {
	if sectionID == "" {
		return s.coll.Find(ctx, docstore.Filter{})
	}
	return s.coll.Find(ctx, docstore.Where("sectionId", sectionID))
}

func (s *Service) Get(ctx context.Context, id string) (react.Topic, error) {
	record, err := s.coll.Get(ctx, id)
	return record, notFound(err, id)
}

func (s *Service) GetByTopicID(ctx context.Context, topicID string) (react.Topic, error) {
	record, err := s.coll.FindOne(ctx, docstore.Where("topicId", topicID))
	if errors.Is(err, docstore.ErrNoDocument) {
		return record, apperr.NotFound("Topic with topicId %s not found", topicID)
	}
	return record, err
}

// FindByIDs returns the topics whose ids appear in ids. Unknown ids are skipped.
func (s *Service) FindByIDs(ctx context.Context, ids []string) ([]react.Topic, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if docstore.ValidID(id) {
			valid = append(valid, id)
		}
	}
	return s.coll.Find(ctx, docstore.ByIDs(valid...))
}

func (s *Service) Update(ctx context.Context, id string, patch react.TopicPatch) (react.Topic, error) {
	if err := validation.Struct(patch); err != nil {
		return react.Topic{}, err
	}
	return s.update(ctx, id, patch.Fields())
}

func (s *Service) MarkCompleted(ctx context.Context, id string) (react.Topic, error) {
	return s.update(ctx, id, map[string]any{"isCompleted": true})
}

func (s *Service) MarkIncomplete(ctx context.Context, id string) (react.Topic, error) {
	return s.update(ctx, id, map[string]any{"isCompleted": false})
}

func (s *Service) update(ctx context.Context, id string, set map[string]any) (react.Topic, error) {
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	record, err := s.coll.Update(ctx, id, set)
	return record, notFound(err, id)
}

func (s *Service) Remove(ctx context.Context, id string) (react.Topic, error) {
	record, err := s.coll.Delete(ctx, id)
	return record, notFound(err, id)
}

func notFound(err error, id string) error {
	if errors.Is(err, docstore.ErrNoDocument) {
		return apperr.NotFound("Topic with ID %s not found", id)
	}
	return err
}
