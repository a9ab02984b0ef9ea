package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recorder appends audit entries on a best-effort basis. A failed write
// must never block or fail the clinical operation being audited, so
// Record reports nothing to its caller; store failures go to the
// operational log instead.
type Recorder struct {
	store   Store
	logger  zerolog.Logger
	now     func() time.Time
	entropy io.Reader
}

// NewRecorder creates a Recorder over the given store, with the wall
// clock and crypto/rand as defaults.
func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger.With().Str("component", "audit-recorder").Logger(),
		now:     time.Now,
		entropy: rand.Reader,
	}
}

// WithClock returns a copy of the Recorder using the given clock and
// entropy source. Test seam.
func (r *Recorder) WithClock(now func() time.Time, entropy io.Reader) *Recorder {
	clone := *r
	clone.now = now
	clone.entropy = entropy
	return &clone
}

// Record fills in the generated fields and appends exactly one entry.
// Missing risk level defaults to low; the session hash is derived from
// (actor id, timestamp, random bytes) through SHA-256 and is only usable
// for correlating entries from one logical session, never for recovering
// its inputs.
func (r *Recorder) Record(ctx context.Context, entry *Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Recorded.IsZero() {
		entry.Recorded = r.now().UTC()
	}
	if entry.RiskLevel == "" {
		entry.RiskLevel = RiskLow
	}
	if entry.SessionHash == "" {
		entry.SessionHash = r.sessionHash(entry.ActorID, entry.Recorded)
	}

	if err := r.store.Insert(ctx, entry); err != nil {
		r.logger.Error().Err(err).
			Str("actor_id", entry.ActorID).
			Str("action", entry.Action).
			Str("resource_type", entry.ResourceType).
			Msg("audit write failed, entry dropped")
	}
}

func (r *Recorder) sessionHash(actorID string, ts time.Time) string {
	nonce := make([]byte, 16)
	if _, err := io.ReadFull(r.entropy, nonce); err != nil {
		// Entropy exhaustion is not a reason to drop the entry; the hash
		// degrades to (actor, timestamp) correlation only.
		r.logger.Error().Err(err).Msg("session hash entropy unavailable")
	}

	h := sha256.New()
	h.Write([]byte(actorID))
	h.Write([]byte(fmt.Sprintf("%d", ts.UnixNano())))
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil))
}
