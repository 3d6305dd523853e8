// Package journal persists routed platform messages in BadgerDB so traffic
// can be inspected after the fact with the debug server or the inspect tool.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"render-host/domain"
)

// KeyPrefix namespaces journal entries inside the shared Badger store.
const KeyPrefix = "pmsg:"

// Entry is one recorded platform message.
type Entry struct {
	ID        uuid.UUID        `json:"id"`
	Channel   string           `json:"channel"`
	Direction domain.Direction `json:"direction"`
	Payload   []byte           `json:"payload"`
	At        time.Time        `json:"at"`
}

type Repository struct {
	db           *badger.DB
	log          *slog.Logger
	limitEntries *int
}

func NewRepository(db *badger.DB, log *slog.Logger, limitEntries *int) Repository {
	return Repository{db: db, log: log, limitEntries: limitEntries}
}

// Record persists one entry.
// The key is formatted as "pmsg:{channel}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (r Repository) Record(entry Entry) error {
	key := fmt.Sprintf("%s%s:%019d:%s",
		KeyPrefix,
		entry.Channel,
		entry.At.UnixNano(),
		entry.ID,
	)
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// List retrieves the most recent entries for a channel, newest first, using a
// reverse prefix scan. It stops once the configured limit is reached.
func (r Repository) List(channel string) ([]Entry, error) {
	var rawEntries [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(KeyPrefix + channel + ":")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this channel, then walk back
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if r.limitEntries != nil && len(rawEntries) == *r.limitEntries {
				r.log.Debug(fmt.Sprintf("Maximum of %d journal entries reached", *r.limitEntries))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				rawEntries = append(rawEntries, append([]byte{}, value...))
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

	entries := make([]Entry, 0, len(rawEntries))
	for _, raw := range rawEntries {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Channels lists the distinct channel names present in the journal.
func (r Repository) Channels() ([]string, error) {
	seen := make(map[string]struct{})
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(KeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if channel, ok := channelFromKey(key[len(KeyPrefix):]); ok {
				seen[channel] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Keys(seen), nil
}

// channelFromKey strips the ":{timestamp}:{uuid}" suffix from a journal key
// remainder, tolerating ':' inside the channel name itself.
func channelFromKey(rest string) (string, bool) {
	// uuid is 36 chars, timestamp is 19, plus two separators
	const suffixLen = 36 + 19 + 2
	if len(rest) <= suffixLen {
		return "", false
	}
	return rest[:len(rest)-suffixLen], true
}
