// Package react models the React learning path: sections grouping topics.
package react

import "time"

// Fields holding ids of documents in other collections.
var (
	SectionRefs = []string{"topicIds"}
	TopicRefs   = []string{"sectionId"}
)

// Section is a learning-path section.
type Section struct {
	ID          string    `json:"_id" bson:"_id"`
	SectionID   string    `json:"sectionId" bson:"sectionId"`
	Level       string    `json:"level" bson:"level"`
	Title       string    `json:"title" bson:"title"`
	Emoji       string    `json:"emoji" bson:"emoji"`
	Description string    `json:"description" bson:"description"`
	Color       string    `json:"color" bson:"color"`
	Gradient    string    `json:"gradient" bson:"gradient"`
	TopicIDs    []string  `json:"topicIds" bson:"topicIds"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (s Section) DocumentID() string { return s.ID }

// SectionInput is the section create payload.
type SectionInput struct {
	SectionID   string   `json:"sectionId" validate:"required"`
	Level       string   `json:"level" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Emoji       string   `json:"emoji" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Color       string   `json:"color" validate:"required"`
	Gradient    string   `json:"gradient" validate:"required"`
	TopicIDs    []string `json:"topicIds" validate:"omitempty,dive,objectid"`
}

// SectionPatch carries the fields of a partial section update.
type SectionPatch struct {
	SectionID   *string  `json:"sectionId" validate:"omitnil,min=1"`
	Level       *string  `json:"level" validate:"omitnil,min=1"`
	Title       *string  `json:"title" validate:"omitnil,min=1"`
	Emoji       *string  `json:"emoji" validate:"omitnil,min=1"`
	Description *string  `json:"description" validate:"omitnil,min=1"`
	Color       *string  `json:"color" validate:"omitnil,min=1"`
	Gradient    *string  `json:"gradient" validate:"omitnil,min=1"`
	TopicIDs    []string `json:"topicIds" validate:"omitempty,dive,objectid"`
}

// Fields returns the provided fields keyed by stored name.
func (p SectionPatch) Fields() map[string]any {
	set := map[string]any{}
	for key, v := range map[string]*string{
		"sectionId":   p.SectionID,
		"level":       p.Level,
		"title":       p.Title,
		"emoji":       p.Emoji,
		"description": p.Description,
		"color":       p.Color,
		"gradient":    p.Gradient,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if p.TopicIDs != nil {
		set["topicIds"] = p.TopicIDs
	}
	return set
}

// SectionWithTopics is a section with its topic ids resolved to records.
type SectionWithTopics struct {
	Section
	Topics []Topic `json:"topics"`
}

// PopulatedSection is a section whose topicIds carry the topic records
// instead of their ids.
type PopulatedSection struct {
	Section
	TopicIDs []Topic `json:"topicIds"`
}

// SectionSummary is one section line of a level overview.
type SectionSummary struct {
	SectionID   string `json:"sectionId"`
	Title       string `json:"title"`
	TotalTopics int    `json:"totalTopics"`
}

// LevelStats summarises the sections of one level.
type LevelStats struct {
	Level         string           `json:"level"`
	TotalSections int              `json:"totalSections"`
	TotalTopics   int              `json:"totalTopics"`
	Sections      []SectionSummary `json:"sections"`
}

// McqContent is a practice question embedded in a topic.
type McqContent struct {
	Question      string   `json:"question" bson:"question" validate:"required"`
	Options       []string `json:"options" bson:"options" validate:"required,min=1"`
	CorrectAnswer string   `json:"correctAnswer" bson:"correctAnswer" validate:"required"`
}

// Topic is a React topic belonging to a section.
type Topic struct {
	ID            string       `json:"_id" bson:"_id"`
	TopicID       string       `json:"topicId" bson:"topicId"`
	Title         string       `json:"title" bson:"title"`
	Description   string       `json:"description" bson:"description"`
	EstimatedTime string       `json:"estimatedTime" bson:"estimatedTime"`
	HTMLContent   string       `json:"htmlContent" bson:"htmlContent"`
	McqContent    []McqContent `json:"mcqContent" bson:"mcqContent"`
	IsCompleted   bool         `json:"isCompleted" bson:"isCompleted"`
	SectionID     string       `json:"sectionId" bson:"sectionId"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt" bson:"updatedAt"`
}

func (t Topic) DocumentID() string { return t.ID }

// TopicInput is the topic create payload.
type TopicInput struct {
	TopicID       string       `json:"topicId" validate:"required"`
	Title         string       `json:"title" validate:"required"`
	Description   string       `json:"description" validate:"required"`
	EstimatedTime string       `json:"estimatedTime" validate:"required"`
	HTMLContent   string       `json:"htmlContent"`
	McqContent    []McqContent `json:"mcqContent" validate:"omitempty,dive"`
	IsCompleted   bool         `json:"isCompleted"`
	SectionID     string       `json:"sectionId" validate:"required,objectid"`
}

// TopicPatch carries the fields of a partial topic update.
type TopicPatch struct {
	TopicID       *string      `json:"topicId" validate:"omitnil,min=1"`
	Title         *string      `json:"title" validate:"omitnil,min=1"`
	Description   *string      `json:"description" validate:"omitnil,min=1"`
	EstimatedTime *string      `json:"estimatedTime" validate:"omitnil,min=1"`
	HTMLContent   *string      `json:"htmlContent"`
	McqContent    []McqContent `json:"mcqContent" validate:"omitempty,dive"`
	IsCompleted   *bool        `json:"isCompleted"`
	SectionID     *string      `json:"sectionId" validate:"omitnil,objectid"`
}

// Fields returns the provided fields keyed by stored name.
func (p TopicPatch) Fields() map[string]any {
	set := map[string]any{}
	for key, v := range map[string]*string{
		"topicId":       p.TopicID,
		"title":         p.Title,
		"description":   p.Description,
		"estimatedTime": p.EstimatedTime,
		"htmlContent":   p.HTMLContent,
		"sectionId":     p.SectionID,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if p.McqContent != nil {
		set["mcqContent"] = p.McqContent
	}
	if p.IsCompleted != nil {
		set["isCompleted"] = *p.IsCompleted
	}
	return set
}
