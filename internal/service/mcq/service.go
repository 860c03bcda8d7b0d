// Package mcq serves the multiple-choice training questions.
package mcq

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/docstore"
	model "github.com/learnhub/backend/internal/model/mcq"
	"github.com/learnhub/backend/internal/validation"
)

var (
	errChoiceCount   = apperr.Validation("Each question must have exactly %d choices", model.ChoiceCount)
	errAnswerChoices = apperr.Validation("correctAnswer must match one of the choice IDs")
)

// Service implements question CRUD, quiz retrieval and answer checking.
type Service struct {
	coll docstore.Collection[model.Question]
}

func NewService(coll docstore.Collection[model.Question]) *Service {
	return &Service{coll: coll}
}

func (s *Service) Create(ctx context.Context, in model.Input) (model.Question, error) {
	if err := validation.Struct(in); err != nil {
		return model.Question{}, err
	}
	if len(in.Choices) != model.ChoiceCount {
		return model.Question{}, errChoiceCount
	}
	if !model.HasChoice(in.Choices, in.CorrectAnswer) {
		return model.Question{}, errAnswerChoices
	}

	points := model.DefaultPoints
	if in.Points != nil {
		points = *in.Points
	}
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = model.DefaultDifficulty
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	record := model.Question{
		ID:            docstore.NewID(),
		Topic:         in.Topic,
		Level:         in.Level,
		Question:      in.Question,
		Choices:       in.Choices,
		CorrectAnswer: in.CorrectAnswer,
		Explanation:   in.Explanation,
		Points:        points,
		Difficulty:    difficulty,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.coll.Insert(ctx, record); err != nil {
		return model.Question{}, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]model.Question, error) {
	return s.coll.Find(ctx, docstore.Filter{})
}

func (s *Service) Get(ctx context.Context, id string) (model.Question, error) {
	record, err := s.coll.Get(ctx, id)
	return record, notFound(err, id)
}

// Update merges patch into the stored question. A new correctAnswer is checked
// against the new choices, or the stored ones when choices are unchanged.
func (s *Service) Update(ctx context.Context, id string, patch model.Patch) (model.Question, error) {
	if err := validation.Struct(patch); err != nil {
		return model.Question{}, err
	}
	if patch.Choices != nil && len(patch.Choices) != model.ChoiceCount {
		return model.Question{}, errChoiceCount
	}

	switch {
	case patch.Choices != nil && patch.CorrectAnswer != nil:
		if !model.HasChoice(patch.Choices, *patch.CorrectAnswer) {
			return model.Question{}, errAnswerChoices
		}
	case patch.Choices != nil || patch.CorrectAnswer != nil:
		current, err := s.Get(ctx, id)
		if err != nil {
			return model.Question{}, err
		}
		choices, answer := current.Choices, current.CorrectAnswer
		if patch.Choices != nil {
			choices = patch.Choices
		}
		if patch.CorrectAnswer != nil {
			answer = *patch.CorrectAnswer
		}
		if !model.HasChoice(choices, answer) {
			return model.Question{}, errAnswerChoices
		}
	}

	set := patch.Fields()
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	record, err := s.coll.Update(ctx, id, set)
	return record, notFound(err, id)
}

func (s *Service) Remove(ctx context.Context, id string) (model.Question, error) {
	record, err := s.coll.Delete(ctx, id)
	return record, notFound(err, id)
}

// Topics returns the distinct topics, sorted.
func (s *Service) Topics(ctx context.Context) ([]string, error) {
	return s.coll.Distinct(ctx, "topic", docstore.Filter{})
}

// Levels returns the distinct levels of topic, ascending.
func (s *Service) Levels(ctx context.Context, topic string) ([]int, error) {
	questions, err := s.coll.Find(ctx, docstore.Where("topic", topic))
	if err != nil {
		return nil, err
	}
	return distinctLevels(questions), nil
}

// Quiz returns the questions of one topic level with answers stripped.
func (s *Service) Quiz(ctx context.Context, topic string, level int) ([]model.PublicQuestion, error) {
	questions, err := s.coll.Find(ctx, docstore.Where("topic", topic).And("level", level))
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperr.NotFound("No questions found for topic %q and level %d", topic, level)
	}

	public := make([]model.PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, q.Public())
	}
	return public, nil
}

func (s *Service) Count(ctx context.Context, topic string, level int) (int64, error) {
	return s.coll.Count(ctx, docstore.Where("topic", topic).And("level", level))
}

// ValidateAnswer checks selected against the stored answer. Points are zero when wrong.
func (s *Service) ValidateAnswer(ctx context.Context, req model.AnswerRequest) (model.AnswerResult, error) {
	if err := validation.Struct(req); err != nil {
		return model.AnswerResult{}, err
	}
	q, err := s.Get(ctx, req.QuestionID)
	if err != nil {
		return model.AnswerResult{}, err
	}

	result := model.AnswerResult{
		IsCorrect:     q.CorrectAnswer == req.SelectedAnswer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
	if result.IsCorrect {
		result.Points = q.Points
	}
	return result, nil
}

// TopicsWithStats lists every topic with its per-level question counts.
func (s *Service) TopicsWithStats(ctx context.Context) ([]model.TopicSummary, error) {
	questions, err := s.coll.Find(ctx, docstore.Filter{})
	if err != nil {
		return nil, err
	}

	byTopic := map[string][]model.Question{}
	for _, q := range questions {
		byTopic[q.Topic] = append(byTopic[q.Topic], q)
	}

	summaries := make([]model.TopicSummary, 0, len(byTopic))
	for topic, qs := range byTopic {
		summary := model.TopicSummary{Topic: topic, TotalQuestions: len(qs)}
		counts := map[int]int{}
		for _, q := range qs {
			counts[q.Level]++
		}
		for _, level := range distinctLevels(qs) {
			summary.Levels = append(summary.Levels, model.LevelCount{Level: level, Count: counts[level]})
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Topic < summaries[j].Topic })
	return summaries, nil
}

// TopicStats breaks a topic down by level and difficulty.
func (s *Service) TopicStats(ctx context.Context, topic string) (model.TopicStats, error) {
	questions, err := s.coll.Find(ctx, docstore.Where("topic", topic))
	if err != nil {
		return model.TopicStats{}, err
	}
	if len(questions) == 0 {
		return model.TopicStats{}, apperr.NotFound("Topic %q not found", topic)
	}

	stats := model.TopicStats{
		Topic:               topic,
		TotalQuestions:      len(questions),
		DifficultyBreakdown: map[string]int{},
	}
	perLevel := map[int]*model.LevelStats{}
	for _, q := range questions {
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = model.DefaultDifficulty
		}
		stats.DifficultyBreakdown[difficulty]++

		ls, ok := perLevel[q.Level]
		if !ok {
			ls = &model.LevelStats{Level: q.Level, Difficulties: map[string]int{}}
			perLevel[q.Level] = ls
		}
		ls.Count++
		ls.Difficulties[difficulty]++
	}
	for _, level := range distinctLevels(questions) {
		stats.Levels = append(stats.Levels, *perLevel[level])
	}
	return stats, nil
}

// TopicLevels lists each level of topic with its question count and total points.
func (s *Service) TopicLevels(ctx context.Context, topic string) ([]model.LevelInfo, error) {
	questions, err := s.coll.Find(ctx, docstore.Where("topic", topic))
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperr.NotFound("No levels found for topic %q", topic)
	}

	infos := map[int]*model.LevelInfo{}
	for _, q := range questions {
		info, ok := infos[q.Level]
		if !ok {
			info = &model.LevelInfo{Level: q.Level}
			infos[q.Level] = info
		}
		info.Count++
		info.MaxPoints += q.Points
	}

	levels := make([]model.LevelInfo, 0, len(infos))
	for _, level := range distinctLevels(questions) {
		levels = append(levels, *infos[level])
	}
	return levels, nil
}

func distinctLevels(questions []model.Question) []int {
	seen := map[int]bool{}
	levels := make([]int, 0)
	for _, q := range questions {
		if !seen[q.Level] {
			seen[q.Level] = true
			levels = append(levels, q.Level)
		}
	}
	sort.Ints(levels)
	return levels
}

func notFound(err error, id string) error {
	if errors.Is(err, docstore.ErrNoDocument) {
		return apperr.NotFound("MCQ question with ID %s not found", id)
	}
	return err
}
