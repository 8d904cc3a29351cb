package handlers

import (
	"errors"
	"net/http"

	"photostudio/internal/editor"
	"photostudio/internal/enhance"
)

// Enhance runs one enhancement attempt. The call blocks until the editing
// collaborator answers; progress is also pushed over the event stream.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	err := a.Editor.Enhance(r.Context())
	switch {
	case err == nil:
		a.json(w, http.StatusOK, a.Editor.Snapshot())
	case errors.Is(err, editor.ErrBusy),
		errors.Is(err, editor.ErrModeActive),
		errors.Is(err, editor.ErrStaleEdit),
		errors.Is(err, enhance.ErrNoImage):
		a.editorError(w, err)
	default:
		// The editor already recorded the failure; the snapshot carries the
		// human-readable message.
		a.json(w, http.StatusBadGateway, a.Editor.Snapshot())
	}
}

func (a *App) Presets(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"presets": enhance.StylePresets()})
}
