package mcq_test

import (
	"context"
	"errors"
	"testing"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/docstore/docstoretest"
	model "github.com/learnhub/backend/internal/model/mcq"
	"github.com/learnhub/backend/internal/service/mcq"
)

func newService(t *testing.T) *mcq.Service {
	t.Helper()
	return mcq.NewService(docstoretest.Collection[model.Question](t, docstoretest.Backend(t), "mcqtrainings"))
}

func choices() []model.Choice {
	return []model.Choice{
		{ID: "a", Text: "useState"},
		{ID: "b", Text: "useEffect"},
		{ID: "c", Text: "useMemo"},
		{ID: "d", Text: "useRef"},
	}
}

func input(topic string, level int) model.Input {
	return model.Input{
		Topic:         topic,
		Level:         level,
		Question:      "Which hook stores local state?",
		Choices:       choices(),
		CorrectAnswer: "a",
		Explanation:   "useState keeps state between renders",
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newService(t)

	q, err := svc.Create(context.Background(), input("hooks", 1))
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if q.Points != model.DefaultPoints || q.Difficulty != model.DefaultDifficulty {
		t.Fatalf("unexpected defaults: points=%d difficulty=%s", q.Points, q.Difficulty)
	}
}

func TestCreateRejectsWrongChoiceCount(t *testing.T) {
	svc := newService(t)
	in := input("hooks", 1)
	in.Choices = in.Choices[:3]

	_, err := svc.Create(context.Background(), in)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "Each question must have exactly 4 choices" {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestCreateRejectsUnknownAnswer(t *testing.T) {
	svc := newService(t)
	in := input("hooks", 1)
	in.CorrectAnswer = "z"

	if _, err := svc.Create(context.Background(), in); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsOutOfRangeLevel(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Create(context.Background(), input("hooks", 4)); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateChecksAnswerAgainstStoredChoices(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, input("hooks", 1))
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	bad := "z"
	if _, err := svc.Update(ctx, q.ID, model.Patch{CorrectAnswer: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	good := "c"
	updated, err := svc.Update(ctx, q.ID, model.Patch{CorrectAnswer: &good})
	if err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if updated.CorrectAnswer != "c" || updated.Question != q.Question {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := svc.Update(ctx, q.ID, model.Patch{Choices: choices()[:2]}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected choice count validation, got %v", err)
	}

	if _, err := svc.Update(ctx, docstore.NewID(), model.Patch{CorrectAnswer: &good}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuizAndValidateAnswer(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, input("hooks", 2))
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	quiz, err := svc.Quiz(ctx, "hooks", 2)
	if err != nil {
		t.Fatalf("Quiz err: %v", err)
	}
	if len(quiz) != 1 || quiz[0].ID != q.ID {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}

	if _, err := svc.Quiz(ctx, "hooks", 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for empty level, got %v", err)
	}

	right, err := svc.ValidateAnswer(ctx, model.AnswerRequest{QuestionID: q.ID, SelectedAnswer: "a"})
	if err != nil {
		t.Fatalf("ValidateAnswer err: %v", err)
	}
	if !right.IsCorrect || right.Points != model.DefaultPoints {
		t.Fatalf("unexpected result: %+v", right)
	}

	wrong, err := svc.ValidateAnswer(ctx, model.AnswerRequest{QuestionID: q.ID, SelectedAnswer: "b"})
	if err != nil {
		t.Fatalf("ValidateAnswer err: %v", err)
	}
	if wrong.IsCorrect || wrong.Points != 0 || wrong.CorrectAnswer != "a" {
		t.Fatalf("unexpected result: %+v", wrong)
	}

	count, err := svc.Count(ctx, "hooks", 2)
	if err != nil {
		t.Fatalf("Count err: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 question, got %d", count)
	}
}

func TestTopicStatistics(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	hard := input("state", 2)
	hard.Difficulty = "hard"
	five := 5
	hard.Points = &five
	for _, in := range []model.Input{input("hooks", 1), input("hooks", 2), input("state", 1), hard} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create err: %v", err)
		}
	}

	topics, err := svc.Topics(ctx)
	if err != nil {
		t.Fatalf("Topics err: %v", err)
	}
	if len(topics) != 2 || topics[0] != "hooks" || topics[1] != "state" {
		t.Fatalf("unexpected topics: %v", topics)
	}

	levels, err := svc.Levels(ctx, "state")
	if err != nil {
		t.Fatalf("Levels err: %v", err)
	}
	if len(levels) != 2 || levels[0] != 1 || levels[1] != 2 {
		t.Fatalf("unexpected levels: %v", levels)
	}

	summaries, err := svc.TopicsWithStats(ctx)
	if err != nil {
		t.Fatalf("TopicsWithStats err: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Topic != "hooks" || summaries[0].TotalQuestions != 2 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	stats, err := svc.TopicStats(ctx, "state")
	if err != nil {
		t.Fatalf("TopicStats err: %v", err)
	}
	if stats.DifficultyBreakdown["hard"] != 1 || stats.DifficultyBreakdown["medium"] != 1 {
		t.Fatalf("unexpected breakdown: %v", stats.DifficultyBreakdown)
	}
	if len(stats.Levels) != 2 || stats.Levels[1].Difficulties["hard"] != 1 {
		t.Fatalf("unexpected level stats: %+v", stats.Levels)
	}

	infos, err := svc.TopicLevels(ctx, "state")
	if err != nil {
		t.Fatalf("TopicLevels err: %v", err)
	}
	if infos[0].MaxPoints != model.DefaultPoints || infos[1].MaxPoints != 5 {
		t.Fatalf("unexpected level infos: %+v", infos)
	}

	if _, err := svc.TopicStats(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.TopicLevels(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
