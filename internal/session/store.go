package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"photostudio/internal/imaging"
	"photostudio/internal/kv"
)

// GalleryKey is the single key the whole gallery is stored under.
const GalleryKey = "photoEditorSessions"

// Store owns the in-memory gallery and mirrors it into a key-value byte
// store. Persistence failures are deliberately non-fatal: the gallery keeps
// working from memory and the failure is only logged.
type Store struct {
	mu      sync.Mutex
	gallery Gallery
	lastID  int64

	kv     kv.Store
	engine *imaging.Engine
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore builds a Store. A nil clock defaults to time.Now.
func NewStore(backing kv.Store, engine *imaging.Engine, logger zerolog.Logger, clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		kv:     backing,
		engine: engine,
		logger: logger,
		now:    clock,
	}
}

// Bootstrap reads the persisted gallery. An absent value starts empty; a
// corrupt or malformed value also starts empty and clears the stored bytes so
// the next save is not fighting garbage.
func (s *Store) Bootstrap(ctx context.Context) {
	data, err := s.kv.Get(ctx, GalleryKey)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("session: failed to read persisted gallery")
		return
	}
	var sessions []Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		s.logger.Warn().Err(err).Msg("session: persisted gallery is corrupt, resetting")
		if err := s.kv.Remove(ctx, GalleryKey); err != nil {
			s.logger.Warn().Err(err).Msg("session: failed to clear corrupt gallery")
		}
		return
	}
	s.mu.Lock()
	s.gallery.Replace(sessions)
	s.mu.Unlock()
}

// NewID allocates a clock-based identifier unique among held sessions.
func (s *Store) NewID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for {
		if _, taken := s.gallery.Find(id); !taken {
			break
		}
		id++
	}
	s.lastID = id
	return id
}

// Save regenerates the thumbnail, upserts the session at the front of the
// gallery and persists the whole gallery. Sessions missing either image are
// skipped. A persist failure never rolls back the in-memory gallery and is
// never raised to the caller.
func (s *Store) Save(ctx context.Context, sess Session) {
	if !sess.Complete() {
		return
	}
	sess.Timestamp = s.now().UnixMilli()
	thumb, err := s.engine.Thumbnail(sess.UserImage, 0)
	if err != nil {
		s.logger.Warn().Err(err).Int64("session_id", sess.ID).Msg("session: thumbnail generation failed")
	} else {
		sess.Thumbnail = thumb
	}

	s.mu.Lock()
	s.gallery.Upsert(sess)
	snapshot := s.gallery.Sessions()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// Delete removes a session from memory and from the persisted store, and
// reports whether it was present. Callers editing the deleted session are
// expected to reset their editing context.
func (s *Store) Delete(ctx context.Context, id int64) bool {
	s.mu.Lock()
	removed := s.gallery.Delete(id)
	snapshot := s.gallery.Sessions()
	s.mu.Unlock()
	if removed {
		s.persist(ctx, snapshot)
	}
	return removed
}

// Find returns a held session by ID.
func (s *Store) Find(id int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gallery.Find(id)
}

// Sessions returns the current gallery entries, most recent first.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gallery.Sessions()
}

// Len returns the number of held sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gallery.Len()
}

func (s *Store) persist(ctx context.Context, snapshot []Session) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session: failed to encode gallery")
		return
	}
	if err := s.kv.Set(ctx, GalleryKey, data); err != nil {
		if errors.Is(err, kv.ErrQuotaExceeded) {
			s.logger.Warn().Msg("session: could not save gallery, storage quota exceeded")
			return
		}
		s.logger.Warn().Err(err).Msg("session: failed to persist gallery")
	}
}
