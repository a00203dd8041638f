// Package service orchestrates domain operations on top of the store,
// composing multi-entity writes into single units of work.
package service

import (
	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// Reputation deltas per action. Actor is the user performing the action,
// owner is the author of the target content. Posting and deleting are
// self-actions, so only the owner column applies.
const (
	repUpvoteActor   = 2
	repUpvoteOwner   = 10
	repDownvoteActor = -1
	repDownvoteOwner = -2

	repPostQuestion   = 5
	repPostAnswer     = 10
	repDeleteQuestion = -5
	repDeleteAnswer   = -10
)

// reputationDeltas computes the per-user reputation changes for an action,
// merged: when the actor votes on their own content, the actor and owner
// deltas collapse into one entry so a single read-modify-write applies both.
func reputationDeltas(action domain.ActionKind, target domain.Target, actorID, ownerID string) map[string]int {
	var actorDelta, ownerDelta int

	switch action {
	case domain.ActionUpvote:
		actorDelta, ownerDelta = repUpvoteActor, repUpvoteOwner
	case domain.ActionDownvote:
		actorDelta, ownerDelta = repDownvoteActor, repDownvoteOwner
	case domain.ActionPost:
		if target.Kind == domain.TargetQuestion {
			ownerDelta = repPostQuestion
		} else {
			ownerDelta = repPostAnswer
		}
	case domain.ActionDelete:
		if target.Kind == domain.TargetQuestion {
			ownerDelta = repDeleteQuestion
		} else {
			ownerDelta = repDeleteAnswer
		}
	case domain.ActionView, domain.ActionBookmark:
		// No reputation movement.
	}

	deltas := make(map[string]int, 2)
	if actorDelta != 0 {
		deltas[actorID] += actorDelta
	}
	if ownerDelta != 0 {
		deltas[ownerID] += ownerDelta
	}
	return deltas
}
