package domain

import "time"

// Answer is a reply to a question. Its lifecycle is bound to the parent:
// deleting a question removes all of its answers in the same transaction.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	AuthorID   string    `json:"author_id"`
	Body       string    `json:"body"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (a *Answer) Touch() {
	a.UpdatedAt = time.Now()
}

// Target returns the tagged reference for this answer.
func (a *Answer) Target() Target {
	return Target{Kind: TargetAnswer, ID: a.ID}
}
