package store

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
)

// User keys. The email index is case-insensitive via folding.
const (
	userPrefix        = "user:"           // user:{id} → User JSON
	userIdxPrefix     = "user:idx:"
	userByEmailPrefix = "user:idx:email:" // user:idx:email:{folded} → userID
)

// User errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserSort selects the ordering for user listings.
type UserSort string

const (
	// UserSortReputation orders by reputation descending.
	UserSortReputation UserSort = "reputation"
	// UserSortNewest orders by creation time descending.
	UserSortNewest UserSort = "newest"
)

// CreateUser writes the user document and its email index inside the unit
// of work. Fails with ErrUserExists if the folded email is taken; the check
// and the insert share the transaction.
func (s *Store) CreateUser(uow *UnitOfWork, u *domain.User) error {
	emailKey := []byte(userByEmailPrefix + normalize.Email(u.Email))

	taken, err := uow.exists(emailKey)
	if err != nil {
		return err
	}
	if taken {
		return ErrUserExists
	}

	if err := uow.setJSON([]byte(userPrefix+u.ID), u); err != nil {
		return err
	}
	return uow.set(emailKey, []byte(u.ID))
}

// UpdateUser rewrites the user document inside the unit of work.
// Email is immutable, so the email index stays untouched.
func (s *Store) UpdateUser(uow *UnitOfWork, u *domain.User) error {
	return uow.setJSON([]byte(userPrefix+u.ID), u)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u domain.User
	err := s.get([]byte(userPrefix+userID), &u)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserTxn retrieves a user inside the unit of work.
func (s *Store) GetUserTxn(uow *UnitOfWork, userID string) (*domain.User, error) {
	var u domain.User
	err := uow.getJSON([]byte(userPrefix+userID), &u)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by case-folded email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userByEmailPrefix + normalize.Email(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

// AdjustReputation applies a signed delta to the user's reputation inside
// the unit of work. Reputation may go negative.
func (s *Store) AdjustReputation(uow *UnitOfWork, userID string, delta int) error {
	if delta == 0 {
		return nil
	}

	u, err := s.GetUserTxn(uow, userID)
	if err != nil {
		return err
	}

	u.Reputation += delta
	u.Touch()

	return s.UpdateUser(uow, u)
}

// ListUsers returns one page of users under the requested ordering.
func (s *Store) ListUsers(ctx context.Context, params PageParams, sortBy UserSort) (Paged[*domain.User], error) {
	var zero Paged[*domain.User]
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	prefix := []byte(userPrefix)
	var users []*domain.User

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if bytes.HasPrefix(it.Item().Key(), []byte(userIdxPrefix)) {
				continue
			}
			var u domain.User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			})
			if err != nil {
				continue
			}
			users = append(users, &u)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	sortUsers(users, sortBy)
	return PageSlice(users, params), nil
}

// sortUsers orders users in place with an ID tie-break for deterministic
// pagination.
func sortUsers(users []*domain.User, sortBy UserSort) {
	sort.Slice(users, func(i, j int) bool {
		if sortBy == UserSortNewest {
			if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
				return users[i].CreatedAt.After(users[j].CreatedAt)
			}
		} else {
			if users[i].Reputation != users[j].Reputation {
				return users[i].Reputation > users[j].Reputation
			}
		}
		return users[i].ID > users[j].ID
	})
}
