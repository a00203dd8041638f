// Package domain defines the core record types of the Q&A platform and the
// invariants that hold between them.
package domain

import "time"

// Question is the primary content document. Vote, view, and answer counters
// are denormalized onto it so list endpoints never fan out per row; the vote
// engine and answer lifecycle are the only writers of those counters.
type Question struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	AuthorID    string    `json:"author_id"`
	TagIDs      []string  `json:"tag_ids"` // Source of truth mirrored by the association index
	Upvotes     int       `json:"upvotes"`
	Downvotes   int       `json:"downvotes"`
	Views       int       `json:"views"`
	AnswerCount int       `json:"answer_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (q *Question) Touch() {
	q.UpdatedAt = time.Now()
}

// HasTag reports whether the question currently carries the tag.
func (q *Question) HasTag(tagID string) bool {
	for _, id := range q.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// Target returns the tagged reference for this question.
func (q *Question) Target() Target {
	return Target{Kind: TargetQuestion, ID: q.ID}
}
