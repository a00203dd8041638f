package store

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// Answer keys.
const (
	answerPrefix           = "answer:"              // answer:{id} → Answer JSON
	answerIdxPrefix        = "answer:idx:"
	answerByQuestionPrefix = "answer:idx:question:" // answer:idx:question:{questionID}:{answerID} → empty
)

// Answer errors.
var ErrAnswerNotFound = errors.New("answer not found")

// AnswerSort selects the ordering for answer listings.
type AnswerSort string

const (
	// AnswerSortNewest orders by creation time descending.
	AnswerSortNewest AnswerSort = "newest"
	// AnswerSortPopular orders by upvotes descending.
	AnswerSortPopular AnswerSort = "popular"
)

// CreateAnswer writes the answer document, its question index row, and the
// parent's answer count inside one unit of work.
func (s *Store) CreateAnswer(uow *UnitOfWork, a *domain.Answer) error {
	if err := uow.setJSON([]byte(answerPrefix+a.ID), a); err != nil {
		return err
	}

	idxKey := []byte(fmt.Sprintf("%s%s:%s", answerByQuestionPrefix, a.QuestionID, a.ID))
	if err := uow.set(idxKey, []byte{}); err != nil {
		return err
	}

	return s.adjustQuestionAnswerCount(uow, a.QuestionID, 1)
}

// UpdateAnswer rewrites the answer document inside the unit of work.
func (s *Store) UpdateAnswer(uow *UnitOfWork, a *domain.Answer) error {
	return uow.setJSON([]byte(answerPrefix+a.ID), a)
}

// GetAnswer retrieves an answer by ID.
func (s *Store) GetAnswer(ctx context.Context, answerID string) (*domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a domain.Answer
	err := s.get([]byte(answerPrefix+answerID), &a)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAnswerTxn retrieves an answer inside the unit of work.
func (s *Store) GetAnswerTxn(uow *UnitOfWork, answerID string) (*domain.Answer, error) {
	var a domain.Answer
	err := uow.getJSON([]byte(answerPrefix+answerID), &a)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnswers returns one page of a question's answers.
func (s *Store) ListAnswers(ctx context.Context, questionID string, params PageParams, sortBy AnswerSort) (Paged[*domain.Answer], error) {
	var zero Paged[*domain.Answer]
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	prefix := fmt.Sprintf("%s%s:", answerByQuestionPrefix, questionID)
	var answerIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().Key())
			answerIDs = append(answerIDs, key[len(prefix):])
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	answers := make([]*domain.Answer, 0, len(answerIDs))
	for _, answerID := range answerIDs {
		a, err := s.GetAnswer(ctx, answerID)
		if err != nil {
			continue // Skip rows whose document vanished mid-scan.
		}
		answers = append(answers, a)
	}

	sortAnswers(answers, sortBy)
	return PageSlice(answers, params), nil
}

// sortAnswers orders answers in place with an ID tie-break for
// deterministic pagination.
func sortAnswers(answers []*domain.Answer, sortBy AnswerSort) {
	sort.Slice(answers, func(i, j int) bool {
		if sortBy == AnswerSortPopular {
			if answers[i].Upvotes != answers[j].Upvotes {
				return answers[i].Upvotes > answers[j].Upvotes
			}
		} else {
			if !answers[i].CreatedAt.Equal(answers[j].CreatedAt) {
				return answers[i].CreatedAt.After(answers[j].CreatedAt)
			}
		}
		return answers[i].ID > answers[j].ID
	})
}

// CountAnswersByAuthor returns how many answers the author has written.
func (s *Store) CountAnswersByAuthor(ctx context.Context, authorID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	prefix := []byte(answerPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Skip index rows sharing the prefix.
			if bytes.HasPrefix(it.Item().Key(), []byte(answerIdxPrefix)) {
				continue
			}
			var a domain.Answer
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			})
			if err != nil {
				continue
			}
			if a.AuthorID == authorID {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count answers for author: %w", err)
	}

	return count, nil
}

// answerIDsForQuestion returns the answer IDs of a question, read inside
// the unit of work so cascades see a consistent view.
func (s *Store) answerIDsForQuestion(uow *UnitOfWork, questionID string) ([]string, error) {
	prefix := fmt.Sprintf("%s%s:", answerByQuestionPrefix, questionID)
	return uow.suffixesWithPrefix(prefix)
}

// DeleteAnswerCascade removes an answer, its votes, and decrements the
// parent question's answer count inside the unit of work.
func (s *Store) DeleteAnswerCascade(uow *UnitOfWork, answerID string) (*domain.Answer, error) {
	a, err := s.GetAnswerTxn(uow, answerID)
	if err != nil {
		return nil, err
	}

	if err := s.deleteAnswerRows(uow, a.QuestionID, answerID); err != nil {
		return nil, err
	}

	if err := s.adjustQuestionAnswerCount(uow, a.QuestionID, -1); err != nil {
		return nil, err
	}

	return a, nil
}

// deleteAnswerRows removes the answer document, its question index row,
// and any votes on it. Used by both the answer delete and the question
// cascade, which handles the parent's counters itself.
func (s *Store) deleteAnswerRows(uow *UnitOfWork, questionID, answerID string) error {
	if err := uow.delete([]byte(answerPrefix + answerID)); err != nil {
		return err
	}

	idxKey := []byte(fmt.Sprintf("%s%s:%s", answerByQuestionPrefix, questionID, answerID))
	if err := uow.delete(idxKey); err != nil {
		return err
	}

	return s.deleteVotesForTarget(uow, domain.Target{Kind: domain.TargetAnswer, ID: answerID})
}
