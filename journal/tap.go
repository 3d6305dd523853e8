package journal

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"render-host/domain"
)

// Tap records router traffic into the journal as a passive observer.
// Persistence failures are logged and swallowed: the journal must never
// influence routing.
type Tap struct {
	repo Repository
	log  *slog.Logger
}

func NewTap(repo Repository, log *slog.Logger) *Tap {
	return &Tap{repo: repo, log: log}
}

func (t *Tap) MessageDispatched(channel string, payload []byte, handled bool) {
	t.record(channel, payload, domain.Inbound)
}

func (t *Tap) MessageSent(channel string, payload []byte) {
	t.record(channel, payload, domain.Outbound)
}

func (t *Tap) ReplySent(channel string, payload []byte) {
	t.record(channel, payload, domain.Reply)
}

func (t *Tap) SendFailed(channel string) {
	// Counted by monitoring; nothing reached the engine.
}

func (t *Tap) DuplicateReply(channel string) {
	// Counted by monitoring; nothing to persist since no payload was sent.
}

func (t *Tap) record(channel string, payload []byte, direction domain.Direction) {
	err := t.repo.Record(Entry{
		ID:        uuid.New(),
		Channel:   channel,
		Direction: direction,
		Payload:   payload,
		At:        time.Now().UTC(),
	})
	if err != nil {
		t.log.Warn("Failed to journal platform message", "channel", channel, "error", err)
	}
}
