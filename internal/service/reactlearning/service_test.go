package reactlearning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/docstore/docstoretest"
	"github.com/learnhub/backend/internal/model/react"
	"github.com/learnhub/backend/internal/service/reactlearning"
	"github.com/learnhub/backend/internal/service/reacttopic"
)

type fixture struct {
	sections *reactlearning.Service
	topics   *reacttopic.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := docstoretest.Backend(t)
	topics := reacttopic.NewService(docstoretest.Collection[react.Topic](t, backend, "reacttopics"))
	sections := docstoretest.Collection[react.Section](t, backend, "reactlearnings")
	return fixture{sections: reactlearning.NewService(sections, topics), topics: topics}
}

func sectionInput(sectionID, level string) react.SectionInput {
	return react.SectionInput{
		SectionID:   sectionID,
		Level:       level,
		Title:       "Foundations",
		Emoji:       "⚛️",
		Description: "Components and JSX",
		Color:       "#61dafb",
		Gradient:    "from-cyan-400 to-blue-500",
	}
}

func TestSectionTopicsKeepOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	section, err := f.sections.Create(ctx, sectionInput("foundations", "beginner"))
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if section.TopicIDs == nil || len(section.TopicIDs) != 0 {
		t.Fatalf("expected empty topic list, got %v", section.TopicIDs)
	}

	var ids []string
	for _, topicID := range []string{"jsx", "props"} {
		topic, err := f.topics.Create(ctx, react.TopicInput{
			TopicID: topicID, Title: topicID, Description: "d", EstimatedTime: "5 min", SectionID: section.ID,
		})
		if err != nil {
			t.Fatalf("create topic: %v", err)
		}
		ids = append(ids, topic.ID)
	}

	// props first, then jsx, then a dangling id
	for _, id := range []string{ids[1], ids[0], ids[1], docstore.NewID()} {
		if _, err := f.sections.AddTopic(ctx, section.ID, id); err != nil {
			t.Fatalf("AddTopic err: %v", err)
		}
	}

	topicIDs, err := f.sections.Topics(ctx, section.ID)
	if err != nil {
		t.Fatalf("Topics err: %v", err)
	}
	if len(topicIDs) != 3 {
		t.Fatalf("expected duplicates to be ignored, got %v", topicIDs)
	}

	withTopics, err := f.sections.WithTopics(ctx, section.ID)
	if err != nil {
		t.Fatalf("WithTopics err: %v", err)
	}
	if len(withTopics.Topics) != 2 || withTopics.Topics[0].TopicID != "props" || withTopics.Topics[1].TopicID != "jsx" {
		t.Fatalf("unexpected resolved topics: %+v", withTopics.Topics)
	}

	updated, err := f.sections.RemoveTopic(ctx, section.ID, ids[1])
	if err != nil {
		t.Fatalf("RemoveTopic err: %v", err)
	}
	if len(updated.TopicIDs) != 2 || updated.TopicIDs[0] != ids[0] {
		t.Fatalf("unexpected topics after removal: %v", updated.TopicIDs)
	}

	if _, err := f.sections.AddTopic(ctx, section.ID, "not-an-id"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.sections.AddTopic(ctx, docstore.NewID(), ids[0]); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLevelStatsAndLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := sectionInput("foundations", "beginner")
	in.TopicIDs = []string{docstore.NewID(), docstore.NewID()}
	if _, err := f.sections.Create(ctx, in); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if _, err := f.sections.Create(ctx, sectionInput("hooks", "intermediate")); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	stats, err := f.sections.LevelStats(ctx, "beginner")
	if err != nil {
		t.Fatalf("LevelStats err: %v", err)
	}
	if stats.TotalSections != 1 || stats.TotalTopics != 2 || stats.Sections[0].SectionID != "foundations" {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := f.sections.GetBySectionID(ctx, "hooks"); err != nil {
		t.Fatalf("GetBySectionID err: %v", err)
	}
	if _, err := f.sections.GetBySectionID(ctx, "unknown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bad := sectionInput("broken", "beginner")
	bad.TopicIDs = []string{"nope"}
	if _, err := f.sections.Create(ctx, bad); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for malformed topic id, got %v", err)
	}
}

func TestPopulateResolvesTopicsPerSection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.sections.Create(ctx, sectionInput("foundations", "beginner"))
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	second, err := f.sections.Create(ctx, sectionInput("state", "beginner"))
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	topicIDs := map[string]string{}
	for _, name := range []string{"jsx", "props", "useState"} {
		topic, err := f.topics.Create(ctx, react.TopicInput{
			TopicID: name, Title: name, Description: "d", EstimatedTime: "5 min", SectionID: first.ID,
		})
		if err != nil {
			t.Fatalf("create topic: %v", err)
		}
		topicIDs[name] = topic.ID
	}

	for _, step := range []struct{ section, topic string }{
		{first.ID, topicIDs["props"]},
		{first.ID, topicIDs["jsx"]},
		{second.ID, topicIDs["useState"]},
		{second.ID, docstore.NewID()},
	} {
		if _, err := f.sections.AddTopic(ctx, step.section, step.topic); err != nil {
			t.Fatalf("AddTopic err: %v", err)
		}
	}

	sections, err := f.sections.ListByLevel(ctx, "beginner")
	if err != nil {
		t.Fatalf("ListByLevel err: %v", err)
	}
	populated, err := f.sections.Populate(ctx, sections...)
	if err != nil {
		t.Fatalf("Populate err: %v", err)
	}
	if len(populated) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(populated))
	}

	got := populated[0].TopicIDs
	if len(got) != 2 || got[0].TopicID != "props" || got[1].TopicID != "jsx" {
		t.Fatalf("expected topics in topicIds order, got %+v", got)
	}
	if len(populated[1].TopicIDs) != 1 || populated[1].TopicIDs[0].TopicID != "useState" {
		t.Fatalf("expected dangling id skipped, got %+v", populated[1].TopicIDs)
	}

	empty, err := f.sections.Populate(ctx, react.Section{ID: docstore.NewID()})
	if err != nil {
		t.Fatalf("Populate empty err: %v", err)
	}
	if empty[0].TopicIDs == nil || len(empty[0].TopicIDs) != 0 {
		t.Fatalf("expected empty topic list, got %v", empty[0].TopicIDs)
	}
}
