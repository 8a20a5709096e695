package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/devaloi/guestbook/internal/domain"
)

const (
	messagePrefix = "msg:"
	sequenceKey   = "seq:msg"
	// sequenceLease is how many ids are reserved per lease.
	sequenceLease = 100
)

// BadgerStore implements Store on top of BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
	now func() time.Time
}

type diskMessage struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NewBadger opens a Badger database in dir. An empty dir opens an in-memory database.
func NewBadger(dir string, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceLease)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, log: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Save stores the message under "msg:{sequence_padded}" so a prefix scan
// yields insertion order regardless of clock resolution.
func (s *BadgerStore) Save(_ context.Context, msg domain.Message) error {
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("badger sequence: %w", err)
	}
	dm := diskMessage{ID: uuid.New(), Name: msg.Name, Message: msg.Message, At: s.now()}
	key := fmt.Sprintf("%s%020d", messagePrefix, n)
	data, err := json.Marshal(dm)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// List returns all messages, oldest first.
func (s *BadgerStore) List(ctx context.Context) ([]domain.Message, error) {
	var stored []diskMessage
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(val, &dm); err != nil {
					return err
				}
				stored = append(stored, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("listed messages", "count", len(stored))
	return lo.Map(stored, func(dm diskMessage, _ int) domain.Message {
		return domain.Message{Name: dm.Name, Message: dm.Message}
	}), nil
}

// Close releases unused sequence ids and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.log.Warn("release badger sequence", "error", err)
	}
	return s.db.Close()
}
