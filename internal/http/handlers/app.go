package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"photostudio/internal/editor"
	"photostudio/internal/enhance"
	"photostudio/internal/imaging"
	"photostudio/internal/session"
)

// App carries the handler dependencies.
type App struct {
	Editor *editor.Context
	Store  *session.Store
	Events http.Handler
	Logger zerolog.Logger
}

func NewApp(ed *editor.Context, store *session.Store, events http.Handler, logger zerolog.Logger) *App {
	return &App{Editor: ed, Store: store, Events: events, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// editorError maps editing failures onto the wire.
func (a *App) editorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrNoSession), errors.Is(err, enhance.ErrNoImage):
		a.error(w, http.StatusBadRequest, "no_image", "upload an image first")
	case errors.Is(err, editor.ErrModeActive):
		a.error(w, http.StatusConflict, "edit_pending", "another edit is already pending")
	case errors.Is(err, editor.ErrWrongMode):
		a.error(w, http.StatusConflict, "wrong_mode", "operation does not match the active edit mode")
	case errors.Is(err, editor.ErrBusy):
		a.error(w, http.StatusConflict, "busy", "enhancement already in progress")
	case errors.Is(err, editor.ErrStaleEdit):
		a.error(w, http.StatusConflict, "stale_edit", "edit was canceled before the result arrived")
	case errors.Is(err, editor.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, imaging.ErrEmptyCrop):
		a.error(w, http.StatusBadRequest, "empty_crop", "crop region has no area")
	case errors.Is(err, imaging.ErrShrinkExpand):
		a.error(w, http.StatusBadRequest, "shrink_expand", "expand target must not be smaller than the image")
	case errors.Is(err, imaging.ErrUnknownMIME), errors.Is(err, imaging.ErrEmptyPayload):
		a.error(w, http.StatusBadRequest, "bad_image", "image payload is not a valid data URL")
	default:
		a.error(w, http.StatusBadRequest, "bad_image", "could not process the image")
	}
}
