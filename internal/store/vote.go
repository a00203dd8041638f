package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// votePrefix keys the vote records: vote:{kind}:{targetID}:{userID} → Vote
// JSON. One record per (author, target); direction changes rewrite it in
// place.
const votePrefix = "vote:"

// Vote errors.
var ErrVoteNotFound = errors.New("vote not found")

func voteKey(authorID string, target domain.Target) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", votePrefix, target.String(), authorID))
}

// GetVoteTxn reads the author's current vote on a target inside the unit of
// work. The read participates in conflict detection, which is what makes
// the toggle race-safe: two concurrent toggles of the same vote conflict at
// commit.
func (s *Store) GetVoteTxn(uow *UnitOfWork, authorID string, target domain.Target) (*domain.Vote, error) {
	var v domain.Vote
	err := uow.getJSON(voteKey(authorID, target), &v)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrVoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVote reads the author's current vote on a target outside any unit of
// work, for display purposes.
func (s *Store) GetVote(ctx context.Context, authorID string, target domain.Target) (*domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var v domain.Vote
	err := s.get(voteKey(authorID, target), &v)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrVoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// PutVote writes the vote record inside the unit of work.
func (s *Store) PutVote(uow *UnitOfWork, v *domain.Vote) error {
	return uow.setJSON(voteKey(v.AuthorID, v.Target), v)
}

// DeleteVote removes the vote record inside the unit of work.
func (s *Store) DeleteVote(uow *UnitOfWork, authorID string, target domain.Target) error {
	return uow.delete(voteKey(authorID, target))
}

// deleteVotesForTarget removes every vote on a target. Used by content
// deletion cascades.
func (s *Store) deleteVotesForTarget(uow *UnitOfWork, target domain.Target) error {
	prefix := fmt.Sprintf("%s%s:", votePrefix, target.String())

	authorIDs, err := uow.suffixesWithPrefix(prefix)
	if err != nil {
		return err
	}

	for _, authorID := range authorIDs {
		if err := uow.delete([]byte(prefix + authorID)); err != nil {
			return err
		}
	}
	return nil
}
