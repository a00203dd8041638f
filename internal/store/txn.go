package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// ErrTxnConflict is returned when a unit of work loses a write-write race
// under snapshot isolation. Callers may retry or surface it as a conflict.
var ErrTxnConflict = errors.New("transaction conflict")

// UnitOfWork is a single Badger read-write transaction. Every store method
// that mutates state takes one explicitly, so a service operation can stack
// any number of entity writes into one atomic commit. The handle must not
// escape the RunInTxn callback.
type UnitOfWork struct {
	txn   *badger.Txn
	hooks []func()
}

// AfterCommit registers fn to run once, after the transaction commits
// successfully. Hooks never run on rollback. Use for side effects that must
// not happen on a failed commit (queueing jobs, emitting events).
func (u *UnitOfWork) AfterCommit(fn func()) {
	u.hooks = append(u.hooks, fn)
}

// RunInTxn executes fn inside a read-write transaction. If fn returns an
// error the transaction is discarded and nothing is written. Badger's
// conflict detection maps to ErrTxnConflict at commit time.
func (s *Store) RunInTxn(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	uow := &UnitOfWork{txn: txn}
	if err := fn(uow); err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return ErrTxnConflict
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, hook := range uow.hooks {
		hook()
	}

	return nil
}

// getJSON reads and unmarshals a value inside the transaction.
// Returns badger.ErrKeyNotFound unwrapped so callers can map it per entity.
func (u *UnitOfWork) getJSON(key []byte, dest any) error {
	item, err := u.txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setJSON marshals and writes a value inside the transaction.
func (u *UnitOfWork) setJSON(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return u.txn.Set(key, data)
}

// set writes a raw value inside the transaction.
func (u *UnitOfWork) set(key, value []byte) error {
	return u.txn.Set(key, value)
}

// delete removes a key inside the transaction. Missing keys are not an error.
func (u *UnitOfWork) delete(key []byte) error {
	if err := u.txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return nil
}

// exists checks if a key exists inside the transaction.
func (u *UnitOfWork) exists(key []byte) (bool, error) {
	_, err := u.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// suffixesWithPrefix collects the key suffixes under a prefix inside the
// transaction. Used for association scans during cascades.
func (u *UnitOfWork) suffixesWithPrefix(prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false

	it := u.txn.NewIterator(opts)
	defer it.Close()

	var suffixes []string
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		key := string(it.Item().Key())
		suffixes = append(suffixes, strings.TrimPrefix(key, prefix))
	}
	return suffixes, nil
}
