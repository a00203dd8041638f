package domain

import "time"

// Tag is a community-wide label for categorizing questions. Names are unique
// case-insensitively; the first writer's casing is preserved for display.
// QuestionCount is the denormalized reference count and must always equal
// the number of association rows pointing at the tag. Tags with a zero count
// are retained rather than garbage-collected.
type Tag struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// TagAssociation is the many-to-many link between a question and a tag,
// unique per (tag, question) pair. It exists iff the tag appears in the
// question's tag set, and is the source of truth for reference-count
// recomputation and for tag cleanup when a question is deleted.
type TagAssociation struct {
	TagID      string    `json:"tag_id"`
	QuestionID string    `json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
