// Package topic serves the system-design and agentic-AI topic collections.
package topic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/docstore"
	model "github.com/learnhub/backend/internal/model/topic"
	"github.com/learnhub/backend/internal/validation"
)

var searchFields = []string{"title", "description", "category", "content"}

// Service implements CRUD and lookups over one topic collection.
type Service struct {
	coll  docstore.Collection[model.Topic]
	label string
}

// NewService binds the service to coll. label names the resource in error messages.
func NewService(coll docstore.Collection[model.Topic], label string) *Service {
	return &Service{coll: coll, label: label}
}

// Label returns the resource name used in messages.
func (s *Service) Label() string { return s.label }

func (s *Service) Create(ctx context.Context, in model.Input) (model.Topic, error) {
	if err := validation.Struct(in); err != nil {
		return model.Topic{}, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	record := model.Topic{
		ID:          docstore.NewID(),
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		SectionLink: in.SectionLink,
		AudioURL:    in.AudioURL,
		Content:     in.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.coll.Insert(ctx, record); err != nil {
		return model.Topic{}, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]model.Topic, error) {
	return s.coll.Find(ctx, docstore.Filter{})
}

func (s *Service) Get(ctx context.Context, id string) (model.Topic, error) {
	record, err := s.coll.Get(ctx, id)
	return record, s.notFound(err, "ID", id)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]model.Topic, error) {
	return s.coll.Find(ctx, docstore.Where("category", category))
}

func (s *Service) GetBySectionLink(ctx context.Context, link string) (model.Topic, error) {
	record, err := s.coll.FindOne(ctx, docstore.Where("sectionLink", link))
	return record, s.notFound(err, "sectionLink", link)
}

// Search matches q case-insensitively against title, description, category and content.
func (s *Service) Search(ctx context.Context, q string) ([]model.Topic, error) {
	if strings.TrimSpace(q) == "" {
		return nil, apperr.Validation("query parameter q is required")
	}
	return s.coll.Find(ctx, docstore.MatchAny(q, searchFields...))
}

func (s *Service) Update(ctx context.Context, id string, patch model.Patch) (model.Topic, error) {
	if err := validation.Struct(patch); err != nil {
		return model.Topic{}, err
	}

	set := patch.Fields()
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	record, err := s.coll.Update(ctx, id, set)
	return record, s.notFound(err, "ID", id)
}

func (s *Service) Remove(ctx context.Context, id string) (model.Topic, error) {
	record, err := s.coll.Delete(ctx, id)
	return record, s.notFound(err, "ID", id)
}

func (s *Service) notFound(err error, key, value string) error {
	if errors.Is(err, docstore.ErrNoDocument) {
		return apperr.NotFound("%s with %s %s not found", s.label, key, value)
	}
	return err
}
