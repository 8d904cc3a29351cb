package handlers

import (
	"encoding/json"
	"net/http"

	"photostudio/internal/editor"
	"photostudio/internal/imaging"
)

type uploadRequest struct {
	Image string `json:"image"`
}

func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Image == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image required")
		return
	}
	if err := a.Editor.Upload(req.Image); err != nil {
		a.error(w, http.StatusBadRequest, "bad_image", "could not process the selected file")
		return
	}
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

func (a *App) State(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (a *App) EnterMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Editor.EnterMode(editor.Mode(req.Mode)); err != nil {
		a.editorError(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

type cropRequest struct {
	Region  imaging.Region `json:"region"`
	Display struct {
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		PixelRatio float64 `json:"pixelRatio"`
	} `json:"display"`
}

func (a *App) ApplyCrop(w http.ResponseWriter, r *http.Request) {
	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	opts := imaging.CropOptions{
		DisplayWidth:  req.Display.Width,
		DisplayHeight: req.Display.Height,
		PixelRatio:    req.Display.PixelRatio,
	}
	if err := a.Editor.ApplyCrop(req.Region, opts); err != nil {
		a.editorError(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

type expandRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (a *App) ApplyExpand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Editor.ApplyExpand(req.Width, req.Height); err != nil {
		a.editorError(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

func (a *App) CancelEdit(w http.ResponseWriter, r *http.Request) {
	a.Editor.CancelEdit()
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (a *App) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	a.Editor.SetPrompt(req.Prompt)
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}

func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	a.Editor.Reset()
	a.json(w, http.StatusOK, a.Editor.Snapshot())
}
