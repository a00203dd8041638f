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

// Bookmark keys. The reverse index lets question deletion find every
// bookmark pointing at it.
const (
	bookmarkPrefix           = "collection:"              // collection:{userID}:{questionID} → SavedQuestion JSON
	bookmarkIdxPrefix        = "collection:idx:"
	bookmarkByQuestionPrefix = "collection:idx:question:" // collection:idx:question:{questionID}:{userID} → empty
)

// Bookmark errors.
var ErrBookmarkNotFound = errors.New("bookmark not found")

func bookmarkKey(userID, questionID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", bookmarkPrefix, userID, questionID))
}

// GetBookmarkTxn reads a bookmark inside the unit of work, so the save
// toggle's existence check participates in conflict detection.
func (s *Store) GetBookmarkTxn(uow *UnitOfWork, userID, questionID string) (*domain.SavedQuestion, error) {
	var sq domain.SavedQuestion
	err := uow.getJSON(bookmarkKey(userID, questionID), &sq)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBookmarkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sq, nil
}

// PutBookmark writes the bookmark and its reverse index inside the unit of
// work.
func (s *Store) PutBookmark(uow *UnitOfWork, sq *domain.SavedQuestion) error {
	if err := uow.setJSON(bookmarkKey(sq.UserID, sq.QuestionID), sq); err != nil {
		return err
	}
	reverseKey := []byte(fmt.Sprintf("%s%s:%s", bookmarkByQuestionPrefix, sq.QuestionID, sq.UserID))
	return uow.set(reverseKey, []byte{})
}

// DeleteBookmark removes the bookmark and its reverse index inside the unit
// of work. Idempotent.
func (s *Store) DeleteBookmark(uow *UnitOfWork, userID, questionID string) error {
	if err := uow.delete(bookmarkKey(userID, questionID)); err != nil {
		return err
	}
	reverseKey := []byte(fmt.Sprintf("%s%s:%s", bookmarkByQuestionPrefix, questionID, userID))
	return uow.delete(reverseKey)
}

// IsBookmarked reports whether the user has saved the question.
func (s *Store) IsBookmarked(ctx context.Context, userID, questionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists(bookmarkKey(userID, questionID))
}

// ListBookmarks returns one page of the user's saved questions, newest
// save first.
func (s *Store) ListBookmarks(ctx context.Context, userID string, params PageParams) (Paged[*domain.SavedQuestion], error) {
	var zero Paged[*domain.SavedQuestion]
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	prefix := []byte(fmt.Sprintf("%s%s:", bookmarkPrefix, userID))
	var saved []*domain.SavedQuestion

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if bytes.HasPrefix(it.Item().Key(), []byte(bookmarkIdxPrefix)) {
				continue
			}
			var sq domain.SavedQuestion
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sq)
			})
			if err != nil {
				continue
			}
			saved = append(saved, &sq)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	sort.Slice(saved, func(i, j int) bool {
		if !saved[i].CreatedAt.Equal(saved[j].CreatedAt) {
			return saved[i].CreatedAt.After(saved[j].CreatedAt)
		}
		return saved[i].QuestionID > saved[j].QuestionID
	})

	return PageSlice(saved, params), nil
}

// deleteBookmarksForQuestion removes every bookmark on a question via the
// reverse index. Used by the question deletion cascade.
func (s *Store) deleteBookmarksForQuestion(uow *UnitOfWork, questionID string) error {
	prefix := fmt.Sprintf("%s%s:", bookmarkByQuestionPrefix, questionID)

	userIDs, err := uow.suffixesWithPrefix(prefix)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		if err := s.DeleteBookmark(uow, userID, questionID); err != nil {
			return err
		}
	}
	return nil
}
