package domain

import "time"

// SavedQuestion is a bookmark in a user's collection, unique per
// (user, question) pair. Saving an already-saved question removes the
// bookmark, mirroring the vote toggle.
type SavedQuestion struct {
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
