package store

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
)

// Question document keys. Index rows share the entity prefix under
// question:idx: and are skipped during document scans.
const (
	questionPrefix    = "question:" // question:{id} → Question JSON
	questionIdxPrefix = "question:idx:"
)

// Question errors.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionSort selects the ordering for question listings.
type QuestionSort string

const (
	// QuestionSortNewest orders by creation time descending.
	QuestionSortNewest QuestionSort = "newest"
	// QuestionSortPopular orders by upvotes descending.
	QuestionSortPopular QuestionSort = "popular"
	// QuestionSortUnanswered restricts to questions without answers, newest first.
	QuestionSortUnanswered QuestionSort = "unanswered"
)

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	TagID    string       // Only questions carrying this tag
	AuthorID string       // Only questions by this author
	Query    string       // Case-insensitive substring over title or body
	Sort     QuestionSort // Ordering (default newest)
}

// matchesQuery reports whether the question's title or body contains the
// folded query as a substring. An empty query matches everything.
func matchesQuery(q *domain.Question, folded string) bool {
	if folded == "" {
		return true
	}
	return strings.Contains(normalize.Fold(q.Title), folded) ||
		strings.Contains(normalize.Fold(q.Body), folded)
}

// PutQuestion writes the question document inside the unit of work.
func (s *Store) PutQuestion(uow *UnitOfWork, q *domain.Question) error {
	return uow.setJSON([]byte(questionPrefix+q.ID), q)
}

// GetQuestion retrieves a question by ID.
func (s *Store) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var q domain.Question
	err := s.get([]byte(questionPrefix+questionID), &q)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuestionTxn retrieves a question inside the unit of work, so the read
// participates in conflict detection.
func (s *Store) GetQuestionTxn(uow *UnitOfWork, questionID string) (*domain.Question, error) {
	var q domain.Question
	err := uow.getJSON([]byte(questionPrefix+questionID), &q)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions returns one page of questions matching the filter.
func (s *Store) ListQuestions(ctx context.Context, filter QuestionFilter, params PageParams) (Paged[*domain.Question], error) {
	var zero Paged[*domain.Question]
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	prefix := []byte(questionPrefix)
	folded := normalize.Fold(strings.TrimSpace(filter.Query))
	var questions []*domain.Question

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Skip index rows sharing the prefix.
			if bytes.HasPrefix(it.Item().Key(), []byte(questionIdxPrefix)) {
				continue
			}
			var q domain.Question
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &q)
			})
			if err != nil {
				continue
			}
			if filter.TagID != "" && !q.HasTag(filter.TagID) {
				continue
			}
			if filter.AuthorID != "" && q.AuthorID != filter.AuthorID {
				continue
			}
			if filter.Sort == QuestionSortUnanswered && q.AnswerCount > 0 {
				continue
			}
			if !matchesQuery(&q, folded) {
				continue
			}
			questions = append(questions, &q)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	sortQuestions(questions, filter.Sort)
	return PageSlice(questions, params), nil
}

// sortQuestions orders questions in place. Ties always break on ID
// descending so repeated listings paginate deterministically.
func sortQuestions(questions []*domain.Question, sortBy QuestionSort) {
	sort.Slice(questions, func(i, j int) bool {
		if sortBy == QuestionSortPopular {
			if questions[i].Upvotes != questions[j].Upvotes {
				return questions[i].Upvotes > questions[j].Upvotes
			}
		} else {
			if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
				return questions[i].CreatedAt.After(questions[j].CreatedAt)
			}
		}
		return questions[i].ID > questions[j].ID
	})
}

// GetQuestionsByIDs loads questions for the given IDs, skipping missing ones.
func (s *Store) GetQuestionsByIDs(ctx context.Context, ids []string) ([]*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	questions := make([]*domain.Question, 0, len(ids))
	for _, questionID := range ids {
		q, err := s.GetQuestion(ctx, questionID)
		if err != nil {
			if errors.Is(err, ErrQuestionNotFound) {
				continue
			}
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// TagCountsByAuthor groups the author's questions by tag, returning
// tagID → how many of their questions carry it.
func (s *Store) TagCountsByAuthor(ctx context.Context, authorID string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	prefix := []byte(questionPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Skip index rows sharing the prefix.
			if bytes.HasPrefix(it.Item().Key(), []byte(questionIdxPrefix)) {
				continue
			}
			var q domain.Question
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &q)
			})
			if err != nil {
				continue
			}
			if q.AuthorID != authorID {
				continue
			}
			for _, tagID := range q.TagIDs {
				counts[tagID]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tag counts for author: %w", err)
	}

	return counts, nil
}

// DeleteQuestionCascade removes a question and everything hanging off it:
// answers with their votes, the question's own votes, tag associations
// (decrementing counts), and bookmarks. All inside the unit of work, so a
// failure partway leaves the question fully intact.
func (s *Store) DeleteQuestionCascade(uow *UnitOfWork, questionID string) (*domain.Question, error) {
	q, err := s.GetQuestionTxn(uow, questionID)
	if err != nil {
		return nil, err
	}

	// Answers and their votes.
	answerIDs, err := s.answerIDsForQuestion(uow, questionID)
	if err != nil {
		return nil, err
	}
	for _, answerID := range answerIDs {
		if err := s.deleteAnswerRows(uow, questionID, answerID); err != nil {
			return nil, err
		}
	}

	// Votes on the question itself.
	if err := s.deleteVotesForTarget(uow, q.Target()); err != nil {
		return nil, err
	}

	// Tag associations, with count decrements. Tag records stay.
	tagIDs, err := s.tagIDsForQuestion(uow, questionID)
	if err != nil {
		return nil, err
	}
	for _, tagID := range tagIDs {
		if err := s.DetachTagFromQuestion(uow, tagID, questionID); err != nil {
			return nil, err
		}
	}

	// Bookmarks pointing at the question.
	if err := s.deleteBookmarksForQuestion(uow, questionID); err != nil {
		return nil, err
	}

	// Finally the document.
	if err := uow.delete([]byte(questionPrefix + questionID)); err != nil {
		return nil, err
	}

	return q, nil
}

// adjustQuestionAnswerCount updates the denormalized answer count within
// the transaction.
func (s *Store) adjustQuestionAnswerCount(uow *UnitOfWork, questionID string, delta int) error {
	q, err := s.GetQuestionTxn(uow, questionID)
	if err != nil {
		return err
	}

	q.AnswerCount += delta
	if q.AnswerCount < 0 {
		q.AnswerCount = 0 // Safety guard.
	}

	return s.PutQuestion(uow, q)
}

// IncrementQuestionViews bumps the view counter inside the unit of work.
func (s *Store) IncrementQuestionViews(uow *UnitOfWork, questionID string) (*domain.Question, error) {
	q, err := s.GetQuestionTxn(uow, questionID)
	if err != nil {
		return nil, err
	}

	q.Views++

	if err := s.PutQuestion(uow, q); err != nil {
		return nil, err
	}
	return q, nil
}

// CountQuestions returns the total number of question documents.
func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	prefix := []byte(questionPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if bytes.HasPrefix(it.Item().Key(), []byte(questionIdxPrefix)) {
				continue
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}

	return count, nil
}
