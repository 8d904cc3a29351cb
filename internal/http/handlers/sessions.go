package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"photostudio/internal/session"
)

type sessionSummary struct {
	ID         int64          `json:"id"`
	Timestamp  int64          `json:"timestamp"`
	Prompt     string         `json:"prompt"`
	Status     session.Status `json:"status"`
	Thumbnail  string         `json:"thumbnail"`
	IsExtended bool           `json:"isExtended"`
}

// ListSessions returns the gallery, most recent first. Image payloads are
// omitted; the thumbnail stands in for them.
func (a *App) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := a.Store.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			ID:         s.ID,
			Timestamp:  s.Timestamp,
			Prompt:     s.Prompt,
			Status:     s.Status,
			Thumbnail:  s.Thumbnail,
			IsExtended: s.IsExtended,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"sessions": out})
}

// LoadSession makes a stored session the active editing context.
func (a *App) LoadSession(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	if err := a.Editor.Load(id); err != nil {
		a.editorError(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

// DeleteSession removes a stored session.
func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	if !a.Editor.DeleteSession(r.Context(), id) {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid session id")
		return 0, false
	}
	return id, true
}
