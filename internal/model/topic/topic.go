// Package topic models the system-design and agentic-AI study topics. Both
// collections share one record shape.
package topic

import "time"

// Topic is a stored study topic.
type Topic struct {
	ID          string    `json:"_id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	ImageURL    string    `json:"imageUrl" bson:"imageUrl"`
	Category    string    `json:"category" bson:"category"`
	SectionLink string    `json:"sectionLink" bson:"sectionLink"`
	AudioURL    string    `json:"audioUrl" bson:"audioUrl"`
	Content     string    `json:"content" bson:"content"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (t Topic) DocumentID() string { return t.ID }

// Input is the create payload.
type Input struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"required"`
	Category    string `json:"category" validate:"required"`
	SectionLink string `json:"sectionLink" validate:"required"`
	AudioURL    string `json:"audioUrl" validate:"required"`
	Content     string `json:"content"`
}

// Patch carries the fields of a partial update; nil means unchanged.
type Patch struct {
	Title       *string `json:"title" validate:"omitnil,min=1"`
	Description *string `json:"description" validate:"omitnil,min=1"`
	ImageURL    *string `json:"imageUrl" validate:"omitnil,min=1"`
	Category    *string `json:"category" validate:"omitnil,min=1"`
	SectionLink *string `json:"sectionLink" validate:"omitnil,min=1"`
	AudioURL    *string `json:"audioUrl" validate:"omitnil,min=1"`
	Content     *string `json:"content"`
}

// Fields returns the provided fields keyed by stored name.
func (p Patch) Fields() map[string]any {
	set := map[string]any{}
	putString(set, "title", p.Title)
	putString(set, "description", p.Description)
	putString(set, "imageUrl", p.ImageURL)
	putString(set, "category", p.Category)
	putString(set, "sectionLink", p.SectionLink)
	putString(set, "audioUrl", p.AudioURL)
	putString(set, "content", p.Content)
	return set
}

func putString(set map[string]any, key string, v *string) {
	if v != nil {
		set[key] = *v
	}
}
