// Package reactlearning serves the React learning-path sections.
package reactlearning

import (
	"context"
	"errors"
	"time"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/model/react"
	"github.com/learnhub/backend/internal/validation"
)

// TopicFinder resolves topic ids to records.
type TopicFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]react.Topic, error)
}

type Service struct {
	coll   docstore.Collection[react.Section]
	topics TopicFinder
}

func NewService(coll docstore.Collection[react.Section], topics TopicFinder) *Service {
	return &Service{coll: coll, topics: topics}
}

func (s *Service) Create(ctx context.Context, in react.SectionInput) (react.Section, error) {
	if err := validation.Struct(in); err != nil {
		return react.Section{}, err
	}

	topicIDs := in.TopicIDs
	if topicIDs == nil {
		topicIDs = []string{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	record := react.Section{
		ID:          docstore.NewID(),
		SectionID:   in.SectionID,
		Level:       in.Level,
		Title:       in.Title,
		Emoji:       in.Emoji,
		Description: in.Description,
		Color:       in.Color,
		Gradient:    in.Gradient,
		TopicIDs:    topicIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.coll.Insert(ctx, record); err != nil {
		return react.Section{}, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]react.Section, error) {
	return s.coll.Find(ctx, docstore.Filter{})
}

func (s *Service) ListByLevel(ctx context.Context, level string) ([]react.Section, error) {
	return s.coll.Find(ctx, docstore.Where("level", level))
}

func (s *Service) Get(ctx context.Context, id string) (react.Section, error) {
	record, err := s.coll.Get(ctx, id)
	return record, notFound(err, id)
}

func (s *Service) GetBySectionID(ctx context.Context, sectionID string) (react.Section, error) {
	record, err := s.coll.FindOne(ctx, docstore.Where("sectionId", sectionID))
	if errors.Is(err, docstore.ErrNoDocument) {
		return record, apperr.NotFound("Section with sectionId %s not found", sectionID)
	}
	return record, err
}

func (s *Service) Update(ctx context.Context, id string, patch react.SectionPatch) (react.Section, error) {
	if err := validation.Struct(patch); err != nil {
		return react.Section{}, err
	}
	return s.update(ctx, id, patch.Fields())
}

func (s *Service) Remove(ctx context.Context, id string) (react.Section, error) {
	record, err := s.coll.Delete(ctx, id)
	return record, notFound(err, id)
}

// Topics returns the ordered topic ids of a section.
func (s *Service) Topics(ctx context.Context, id string) ([]string, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if section.TopicIDs == nil {
		return []string{}, nil
	}
	return section.TopicIDs, nil
}

// WithTopics resolves the section's topics in topicIds order. Dangling ids are skipped.
func (s *Service) WithTopics(ctx context.Context, id string) (react.SectionWithTopics, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return react.SectionWithTopics{}, err
	}
	populated, err := s.Populate(ctx, section)
	if err != nil {
		return react.SectionWithTopics{}, err
	}
	return react.SectionWithTopics{Section: section, Topics: populated[0].TopicIDs}, nil
}

// Populate replaces each section's topic ids with the topic records, keeping
// topicIds order. All sections are resolved with one lookup.
func (s *Service) Populate(ctx context.Context, sections ...react.Section) ([]react.PopulatedSection, error) {
	var ids []string
	for _, section := range sections {
		ids = append(ids, section.TopicIDs...)
	}

	byID := make(map[string]react.Topic)
	if len(ids) > 0 {
		found, err := s.topics.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			byID[t.ID] = t
		}
	}

	out := make([]react.PopulatedSection, 0, len(sections))
	for _, section := range sections {
		topics := make([]react.Topic, 0, len(section.TopicIDs))
		for _, topicID := range section.TopicIDs {
			if t, ok := byID[topicID]; ok {
				topics = append(topics, t)
			}
		}
		out = append(out, react.PopulatedSection{Section: section, TopicIDs: topics})
	}
	return out, nil
}

// AddTopic appends topicID to the section unless already present.
func (s *Service) AddTopic(ctx context.Context, id, topicID string) (react.Section, error) {
	if !docstore.ValidID(topicID) {
		return react.Section{}, apperr.Validation("topicId must be a mongodb id")
	}
	section, err := s.Get(ctx, id)
	if err != nil {
		return react.Section{}, err
	}
	for _, existing := range section.TopicIDs {
		if existing == topicID {
			return section, nil
		}
	}
	return s.update(ctx, id, map[string]any{"topicIds": append(section.TopicIDs, topicID)})
}

func (s *Service) RemoveTopic(ctx context.Context, id, topicID string) (react.Section, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return react.Section{}, err
	}
	kept := make([]string, 0, len(section.TopicIDs))
	for _, existing := range section.TopicIDs {
		if existing != topicID {
			kept = append(kept, existing)
		}
	}
	return s.update(ctx, id, map[string]any{"topicIds": kept})
}

func (s *Service) LevelStats(ctx context.Context, level string) (react.LevelStats, error) {
	sections, err := s.ListByLevel(ctx, level)
	if err != nil {
		return react.LevelStats{}, err
	}

	stats := react.LevelStats{
		Level:         level,
		TotalSections: len(sections),
		Sections:      make([]react.SectionSummary, 0, len(sections)),
	}
	for _, section := range sections {
		stats.TotalTopics += len(section.TopicIDs)
		stats.Sections = append(stats.Sections, react.SectionSummary{
			SectionID:   section.SectionID,
			Title:       section.Title,
			TotalTopics: len(section.TopicIDs),
		})
	}
	return stats, nil
}

func (s *Service) update(ctx context.Context, id string, set map[string]any) (react.Section, error) {
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	record, err := s.coll.Update(ctx, id, set)
	return record, notFound(err, id)
}

func notFound(err error, id string) error {
	if errors.Is(err, docstore.ErrNoDocument) {
		return apperr.NotFound("Section with ID %s not found", id)
	}
	return err
}
