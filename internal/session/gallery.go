package session

// MaxSessions bounds the gallery. The oldest entries beyond the cap are
// dropped silently on insert.
const MaxSessions = 10

// Gallery is an ordered collection of sessions, most recent first. No two
// entries share an ID. The zero value is an empty gallery.
type Gallery struct {
	sessions []Session
}

// Upsert inserts the session at the front. An existing entry with the same ID
// is replaced rather than duplicated, and the gallery is truncated to
// MaxSessions.
func (g *Gallery) Upsert(s Session) {
	kept := make([]Session, 0, len(g.sessions)+1)
	kept = append(kept, s)
	for _, existing := range g.sessions {
		if existing.ID != s.ID {
			kept = append(kept, existing)
		}
	}
	if len(kept) > MaxSessions {
		kept = kept[:MaxSessions]
	}
	g.sessions = kept
}

// Delete removes the session with the given ID and reports whether it was
// present.
func (g *Gallery) Delete(id int64) bool {
	for i, s := range g.sessions {
		if s.ID == id {
			g.sessions = append(g.sessions[:i], g.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the session with the given ID.
func (g *Gallery) Find(id int64) (Session, bool) {
	for _, s := range g.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// Len returns the number of held sessions.
func (g *Gallery) Len() int {
	return len(g.sessions)
}

// Sessions returns a copy of the ordered entries.
func (g *Gallery) Sessions() []Session {
	out := make([]Session, len(g.sessions))
	copy(out, g.sessions)
	return out
}

// Replace swaps the gallery content wholesale, enforcing the capacity bound
// and ID uniqueness (first occurrence wins).
func (g *Gallery) Replace(sessions []Session) {
	seen := make(map[int64]struct{}, len(sessions))
	kept := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		kept = append(kept, s)
		if len(kept) == MaxSessions {
			break
		}
	}
	g.sessions = kept
}
