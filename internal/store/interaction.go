package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// Interaction keys. The per-user index embeds a fixed-width sortable
// timestamp so a reverse prefix scan yields newest-first.
const (
	interactionPrefix       = "interaction:"          // interaction:{id} → Interaction JSON
	interactionByUserPrefix = "interaction:idx:user:" // interaction:idx:user:{userID}:{timestamp}:{id} → empty
)

// interactionIndexKey creates a per-user index key with a sortable timestamp.
// Zero-padded nanoseconds keep lexicographic order equal to time order.
// Format: interaction:idx:user:{userID}:{YYYY-MM-DDTHH:MM:SS.NNNNNNNNNZ}:{id}.
func interactionIndexKey(userID string, timestamp time.Time, interactionID string) []byte {
	timestampStr := timestamp.UTC().Format("2006-01-02T15:04:05") + fmt.Sprintf(".%09d", timestamp.Nanosecond()) + "Z"
	return fmt.Appendf(nil, "%s%s:%s:%s", interactionByUserPrefix, userID, timestampStr, interactionID)
}

// PutInteraction writes the interaction document and its per-user index row
// inside the unit of work.
func (s *Store) PutInteraction(uow *UnitOfWork, in *domain.Interaction) error {
	if err := uow.setJSON([]byte(interactionPrefix+in.ID), in); err != nil {
		return err
	}
	return uow.set(interactionIndexKey(in.ActorID, in.CreatedAt, in.ID), []byte{})
}

// RecentInteractions returns up to limit of the user's most recent
// interactions, newest first.
func (s *Store) RecentInteractions(ctx context.Context, userID string, limit int) ([]*domain.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	prefix := []byte(fmt.Sprintf("%s%s:", interactionByUserPrefix, userID))
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the end of the prefix range: append a
		// 0xFF sentinel so the first key visited is the newest index row.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(ids) < limit; it.Next() {
			key := string(it.Item().Key())
			// The interaction ID follows the last colon; timestamps have a
			// fixed width, so the final segment is unambiguous.
			ids = append(ids, key[len(string(prefix))+31:])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	interactions := make([]*domain.Interaction, 0, len(ids))
	for _, interactionID := range ids {
		var in domain.Interaction
		err := s.get([]byte(interactionPrefix+interactionID), &in)
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, &in)
	}
	return interactions, nil
}
