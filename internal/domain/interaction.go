package domain

import "time"

// ActionKind classifies a recorded user interaction.
type ActionKind string

const (
	ActionView     ActionKind = "view"
	ActionUpvote   ActionKind = "upvote"
	ActionDownvote ActionKind = "downvote"
	ActionPost     ActionKind = "post"
	ActionDelete   ActionKind = "delete"
	ActionBookmark ActionKind = "bookmark"
)

// Valid reports whether the kind is a known action.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionView, ActionUpvote, ActionDownvote, ActionPost, ActionDelete, ActionBookmark:
		return true
	}
	return false
}

// Interaction is an append-only activity record. The recommendation engine
// reads a user's recent interactions to infer tag affinity; the reputation
// ledger is applied alongside each interaction write. OwnerID is the author
// of the target content at the time of the action.
type Interaction struct {
	ID        string     `json:"id"`
	ActorID   string     `json:"actor_id"`
	Action    ActionKind `json:"action"`
	Target    Target     `json:"target"`
	OwnerID   string     `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}
