package journal

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"render-host/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_And_List_Multiple_Entries(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewRepository(db, slog.Default(), nil)
	channel := "engine/keyevent"
	at := time.Now().UTC()
	entries := []Entry{
		{uuid.New(), channel, domain.Inbound, []byte("first"), at},
		{uuid.New(), channel, domain.Reply, []byte("second"), at.Add(1 * time.Minute)},
		{uuid.New(), channel, domain.Outbound, []byte("third"), at.Add(2 * time.Minute)},
	}
	for _, entry := range entries {
		req.NoError(repository.Record(entry))
	}

	fetched, err := repository.List(channel)
	req.NoError(err)
	req.Len(fetched, len(entries))

	// Newest first thanks to the padded timestamp key
	req.Equal([]byte("third"), fetched[0].Payload)
	req.Equal([]byte("first"), fetched[2].Payload)
}

func Test_Record_And_List_With_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	limit := 2
	repository := NewRepository(db, slog.Default(), &limit)
	channel := "engine/pointerevent"
	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		req.NoError(repository.Record(Entry{
			ID:        uuid.New(),
			Channel:   channel,
			Direction: domain.Outbound,
			Payload:   []byte{byte(i)},
			At:        at.Add(time.Duration(i) * time.Second),
		}))
	}

	fetched, err := repository.List(channel)
	req.NoError(err)
	req.Len(fetched, limit)
}

func Test_List_Is_Scoped_To_Channel(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewRepository(db, slog.Default(), nil)
	at := time.Now().UTC()

	req.NoError(repository.Record(Entry{uuid.New(), "a", domain.Inbound, []byte("a"), at}))
	req.NoError(repository.Record(Entry{uuid.New(), "b", domain.Inbound, []byte("b"), at}))

	fetched, err := repository.List("a")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("a", fetched[0].Channel)

	channels, err := repository.Channels()
	req.NoError(err)
	req.ElementsMatch([]string{"a", "b"}, channels)
}

func Test_Tap_Records_Router_Traffic(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewRepository(db, slog.Default(), nil)
	tap := NewTap(repository, slog.Default())

	tap.MessageDispatched("echo", []byte("in"), true)
	tap.ReplySent("echo", []byte("out"))
	tap.DuplicateReply("echo")

	fetched, err := repository.List("echo")
	req.NoError(err)
	req.Len(fetched, 2)

	directions := []domain.Direction{fetched[0].Direction, fetched[1].Direction}
	req.ElementsMatch([]domain.Direction{domain.Inbound, domain.Reply}, directions)
}
