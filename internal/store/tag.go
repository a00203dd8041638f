package store

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
)

// Key prefixes for global tag storage.
// Tags are community-wide — no user ownership.
const (
	tagPrefix          = "tag:"               // tag:{id} → Tag JSON
	tagIdxPrefix       = "tag:idx:"           // index rows sharing the entity prefix
	tagByNamePrefix    = "tag:idx:name:"      // tag:idx:name:{folded} → tagID
	tagQuestionsPrefix = "tag:idx:questions:" // tag:idx:questions:{tagID}:{questionID} → TagAssociation JSON
	questionTagsPrefix = "question:idx:tags:" // question:idx:tags:{questionID}:{tagID} → empty
)

// Tag errors.
var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag already exists")
	ErrTagInUse    = errors.New("tag still referenced by questions")
)

// TagSort selects the ordering for tag listings.
type TagSort string

const (
	// TagSortPopular orders by question count descending.
	TagSortPopular TagSort = "popular"
	// TagSortName orders alphabetically by folded name.
	TagSortName TagSort = "name"
	// TagSortRecent orders by creation time descending.
	TagSortRecent TagSort = "recent"
)

// FindOrCreateTag finds a tag by case-folded name or creates it inside the
// unit of work. The uniqueness check and the insert share the transaction,
// so two concurrent creators conflict at commit instead of both inserting.
// Returns (tag, created, error).
func (s *Store) FindOrCreateTag(uow *UnitOfWork, name string) (*domain.Tag, bool, error) {
	display := normalize.TagName(name)
	if display == "" {
		return nil, false, fmt.Errorf("%w: empty tag name", ErrTagNotFound)
	}
	folded := normalize.Fold(display)

	nameKey := []byte(tagByNamePrefix + folded)

	// Existing tag: follow the name index.
	item, err := uow.txn.Get(nameKey)
	if err == nil {
		var tagID string
		if err := item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		}); err != nil {
			return nil, false, err
		}

		var t domain.Tag
		if err := uow.getJSON([]byte(tagPrefix+tagID), &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil, false, ErrTagNotFound
			}
			return nil, false, err
		}
		return &t, false, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, err
	}

	// New tag.
	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	t := &domain.Tag{
		ID:            tagID,
		Name:          display,
		QuestionCount: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uow.setJSON([]byte(tagPrefix+tagID), t); err != nil {
		return nil, false, err
	}
	if err := uow.set(nameKey, []byte(tagID)); err != nil {
		return nil, false, err
	}

	return t, true, nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.get([]byte(tagPrefix+tagID), &t)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagByName retrieves a tag by its case-folded name.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folded := normalize.Fold(normalize.TagName(name))
	var tagID string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tagByNamePrefix + folded))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetTag(ctx, tagID)
}

// ListTags returns one page of tags under the requested ordering.
// Zero-count tags are included: a tag outlives its last question.
func (s *Store) ListTags(ctx context.Context, params PageParams, sortBy TagSort) (Paged[*domain.Tag], error) {
	var zero Paged[*domain.Tag]
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	prefix := []byte(tagPrefix)
	var tags []*domain.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Skip index rows sharing the prefix.
			if bytes.HasPrefix(it.Item().Key(), []byte(tagIdxPrefix)) {
				continue
			}
			var t domain.Tag
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				continue
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	sortTags(tags, sortBy)
	return PageSlice(tags, params), nil
}

// sortTags orders tags in place. Ties always break on ID descending so
// repeated listings paginate deterministically.
func sortTags(tags []*domain.Tag, sortBy TagSort) {
	sort.Slice(tags, func(i, j int) bool {
		switch sortBy {
		case TagSortName:
			a, b := normalize.Fold(tags[i].Name), normalize.Fold(tags[j].Name)
			if a != b {
				return a < b
			}
		case TagSortRecent:
			if !tags[i].CreatedAt.Equal(tags[j].CreatedAt) {
				return tags[i].CreatedAt.After(tags[j].CreatedAt)
			}
		default: // TagSortPopular
			if tags[i].QuestionCount != tags[j].QuestionCount {
				return tags[i].QuestionCount > tags[j].QuestionCount
			}
		}
		return tags[i].ID > tags[j].ID
	})
}

// TopTags returns the n most-referenced tags.
func (s *Store) TopTags(ctx context.Context, n int) ([]*domain.Tag, error) {
	page, err := s.ListTags(ctx, PageParams{Page: 1, PageSize: n}, TagSortPopular)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// AttachTagToQuestion links a tag to a question inside the unit of work.
// Idempotent. Increments the tag's question count in the same transaction.
func (s *Store) AttachTagToQuestion(uow *UnitOfWork, tagID, questionID string) error {
	forwardKey := []byte(fmt.Sprintf("%s%s:%s", tagQuestionsPrefix, tagID, questionID))

	exists, err := uow.exists(forwardKey)
	if err != nil {
		return err
	}
	if exists {
		// Already linked, idempotent success.
		return nil
	}

	assoc := domain.TagAssociation{
		TagID:      tagID,
		QuestionID: questionID,
		CreatedAt:  time.Now(),
	}
	if err := uow.setJSON(forwardKey, assoc); err != nil {
		return err
	}

	reverseKey := []byte(fmt.Sprintf("%s%s:%s", questionTagsPrefix, questionID, tagID))
	if err := uow.set(reverseKey, []byte{}); err != nil {
		return err
	}

	return s.adjustTagQuestionCount(uow, tagID, 1)
}

// DetachTagFromQuestion unlinks a tag from a question inside the unit of
// work. Idempotent. Decrements the tag's question count in the same
// transaction. The tag record itself is never removed, even at zero count.
func (s *Store) DetachTagFromQuestion(uow *UnitOfWork, tagID, questionID string) error {
	forwardKey := []byte(fmt.Sprintf("%s%s:%s", tagQuestionsPrefix, tagID, questionID))

	exists, err := uow.exists(forwardKey)
	if err != nil {
		return err
	}
	if !exists {
		// Not linked, idempotent success.
		return nil
	}

	if err := uow.delete(forwardKey); err != nil {
		return err
	}

	reverseKey := []byte(fmt.Sprintf("%s%s:%s", questionTagsPrefix, questionID, tagID))
	if err := uow.delete(reverseKey); err != nil {
		return err
	}

	return s.adjustTagQuestionCount(uow, tagID, -1)
}

// adjustTagQuestionCount updates the tag's question count within the
// transaction.
func (s *Store) adjustTagQuestionCount(uow *UnitOfWork, tagID string, delta int) error {
	key := []byte(tagPrefix + tagID)

	var t domain.Tag
	if err := uow.getJSON(key, &t); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	t.QuestionCount += delta
	if t.QuestionCount < 0 {
		t.QuestionCount = 0 // Safety guard.
	}
	t.Touch()

	return uow.setJSON(key, t)
}

// QuestionIDsForTag returns all question IDs carrying the tag.
func (s *Store) QuestionIDsForTag(ctx context.Context, tagID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%s%s:", tagQuestionsPrefix, tagID)
	var questionIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().Key())
			questionIDs = append(questionIDs, key[len(prefix):])
		}
		return nil
	})

	return questionIDs, err
}

// tagIDsForQuestion returns the tag IDs linked to a question, read inside
// the unit of work so cascades see their own writes.
func (s *Store) tagIDsForQuestion(uow *UnitOfWork, questionID string) ([]string, error) {
	prefix := fmt.Sprintf("%s%s:", questionTagsPrefix, questionID)
	return uow.suffixesWithPrefix(prefix)
}

// DeleteTagIfUnused hard-deletes a tag record and its name index, but only
// when nothing references it anymore. Zero-count tags are otherwise retained
// indefinitely; this is the manual cleanup path, there is no automatic GC.
func (s *Store) DeleteTagIfUnused(ctx context.Context, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.RunInTxn(ctx, func(uow *UnitOfWork) error {
		var t domain.Tag
		if err := uow.getJSON([]byte(tagPrefix+tagID), &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTagNotFound
			}
			return err
		}

		// The association index is authoritative; the counter alone could
		// be stale.
		questionIDs, err := uow.suffixesWithPrefix(fmt.Sprintf("%s%s:", tagQuestionsPrefix, tagID))
		if err != nil {
			return err
		}
		if t.QuestionCount > 0 || len(questionIDs) > 0 {
			return ErrTagInUse
		}

		if err := uow.delete([]byte(tagByNamePrefix + normalize.Fold(t.Name))); err != nil {
			return err
		}
		return uow.delete([]byte(tagPrefix + tagID))
	})
}

// RecalculateTagQuestionCount recomputes a tag's question count from the
// association index. Use for data repair or verification.
func (s *Store) RecalculateTagQuestionCount(ctx context.Context, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s%s:", tagQuestionsPrefix, tagID)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.RunInTxn(ctx, func(uow *UnitOfWork) error {
		key := []byte(tagPrefix + tagID)

		var t domain.Tag
		if err := uow.getJSON(key, &t); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTagNotFound
			}
			return err
		}

		t.QuestionCount = count
		t.Touch()

		return uow.setJSON(key, t)
	})
}
