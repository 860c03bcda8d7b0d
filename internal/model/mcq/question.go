// Package mcq models multiple-choice training questions.
package mcq

import "time"

const (
	ChoiceCount       = 4
	DefaultPoints     = 10
	DefaultDifficulty = "medium"
)

// Choice is one answer option.
type Choice struct {
	ID   string `json:"id" bson:"id" validate:"required"`
	Text string `json:"text" bson:"text" validate:"required"`
}

// Question is a stored quiz question.
type Question struct {
	ID            string    `json:"_id" bson:"_id"`
	Topic         string    `json:"topic" bson:"topic"`
	Level         int       `json:"level" bson:"level"`
	Question      string    `json:"question" bson:"question"`
	Choices       []Choice  `json:"choices" bson:"choices"`
	CorrectAnswer string    `json:"correctAnswer" bson:"correctAnswer"`
	Explanation   string    `json:"explanation" bson:"explanation"`
	Points        int       `json:"points" bson:"points"`
	Difficulty    string    `json:"difficulty" bson:"difficulty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (q Question) DocumentID() string { return q.ID }

// HasChoice reports whether id names one of choices.
func HasChoice(choices []Choice, id string) bool {
	for _, c := range choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Input is the create payload.
type Input struct {
	Topic         string   `json:"topic" validate:"required"`
	Level         int      `json:"level" validate:"required,min=1,max=3"`
	Question      string   `json:"question" validate:"required"`
	Choices       []Choice `json:"choices" validate:"required,dive"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Explanation   string   `json:"explanation" validate:"required"`
	Points        *int     `json:"points" validate:"omitnil,min=1"`
	Difficulty    string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// Patch carries the fields of a partial update.
type Patch struct {
	Topic         *string  `json:"topic" validate:"omitnil,min=1"`
	Level         *int     `json:"level" validate:"omitnil,min=1,max=3"`
	Question      *string  `json:"question" validate:"omitnil,min=1"`
	Choices       []Choice `json:"choices" validate:"omitempty,dive"`
	CorrectAnswer *string  `json:"correctAnswer" validate:"omitnil,min=1"`
	Explanation   *string  `json:"explanation" validate:"omitnil,min=1"`
	Points        *int     `json:"points" validate:"omitnil,min=1"`
	Difficulty    *string  `json:"difficulty" validate:"omitnil,oneof=easy medium hard"`
}

// Fields returns the provided fields keyed by stored name.
func (p Patch) Fields() map[string]any {
	set := map[string]any{}
	if p.Topic != nil {
		set["topic"] = *p.Topic
	}
	if p.Level != nil {
		set["level"] = *p.Level
	}
	if p.Question != nil {
		set["question"] = *p.Question
	}
	if p.Choices != nil {
		set["choices"] = p.Choices
	}
	if p.CorrectAnswer != nil {
		set["correctAnswer"] = *p.CorrectAnswer
	}
	if p.Explanation != nil {
		set["explanation"] = *p.Explanation
	}
	if p.Points != nil {
		set["points"] = *p.Points
	}
	if p.Difficulty != nil {
		set["difficulty"] = *p.Difficulty
	}
	return set
}

// PublicQuestion is a question as served to a quiz taker.
type PublicQuestion struct {
	ID         string   `json:"_id"`
	Topic      string   `json:"topic"`
	Level      int      `json:"level"`
	Question   string   `json:"question"`
	Choices    []Choice `json:"choices"`
	Points     int      `json:"points"`
	Difficulty string   `json:"difficulty"`
}

// Public strips the answer and explanation.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Topic:      q.Topic,
		Level:      q.Level,
		Question:   q.Question,
		Choices:    q.Choices,
		Points:     q.Points,
		Difficulty: q.Difficulty,
	}
}

// AnswerRequest is the validate payload.
type AnswerRequest struct {
	QuestionID     string `json:"questionId" validate:"required,objectid"`
	SelectedAnswer string `json:"selectedAnswer" validate:"required"`
}

// AnswerResult reports whether a submitted answer was right.
type AnswerResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	Points        int    `json:"points"`
}

// LevelCount is the number of questions at one level.
type LevelCount struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

// TopicSummary is one row of the topics-with-stats listing.
type TopicSummary struct {
	Topic          string       `json:"topic"`
	TotalQuestions int          `json:"totalQuestions"`
	Levels         []LevelCount `json:"levels"`
}

// LevelStats breaks one level of a topic down by difficulty.
type LevelStats struct {
	Level        int            `json:"level"`
	Count        int            `json:"count"`
	Difficulties map[string]int `json:"difficulties"`
}

// TopicStats is the per-topic statistics response.
type TopicStats struct {
	Topic               string         `json:"topic"`
	TotalQuestions      int            `json:"totalQuestions"`
	Levels              []LevelStats   `json:"levels"`
	DifficultyBreakdown map[string]int `json:"difficultyBreakdown"`
}

// LevelInfo summarises one level of a topic.
type LevelInfo struct {
	Level     int `json:"level"`
	Count     int `json:"count"`
	MaxPoints int `json:"maxPoints"`
}
