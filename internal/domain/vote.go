package domain

import "time"

// VoteKind is the direction of a vote.
type VoteKind string

const (
	// VoteUp is a positive vote.
	VoteUp VoteKind = "upvote"
	// VoteDown is a negative vote.
	VoteDown VoteKind = "downvote"
)

// Valid reports whether the kind is a known vote direction.
func (k VoteKind) Valid() bool {
	return k == VoteUp || k == VoteDown
}

// Vote records a user's current stance on a piece of content. At most one
// vote exists per (author, target) pair; toggling and flipping mutate or
// remove this record rather than append new ones.
type Vote struct {
	AuthorID  string    `json:"author_id"`
	Target    Target    `json:"target"`
	Kind      VoteKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
