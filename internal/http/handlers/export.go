package handlers

import (
	"fmt"
	"net/http"

	"photostudio/internal/imaging"
	"photostudio/pkg/zip"
)

// ExportSessions streams the whole gallery as a zip archive, one file per
// image. Sessions whose payloads no longer decode are skipped.
func (a *App) ExportSessions(w http.ResponseWriter, r *http.Request) {
	sessions := a.Store.Sessions()
	if len(sessions) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no sessions to export")
		return
	}

	var assets []zip.Asset
	for _, s := range sessions {
		if asset, ok := payloadAsset(s.UserImage, fmt.Sprintf("session-%d", s.ID)); ok {
			assets = append(assets, asset)
		}
		if asset, ok := payloadAsset(s.Edited(), fmt.Sprintf("session-%d-edited", s.ID)); ok {
			assets = append(assets, asset)
		}
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: gallery export failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="photo-sessions.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func payloadAsset(payload, base string) (zip.Asset, bool) {
	if payload == "" {
		return zip.Asset{}, false
	}
	mime, data, err := imaging.DecodePayload(payload)
	if err != nil {
		return zip.Asset{}, false
	}
	return zip.Asset{
		Filename: base + imageExtension(mime),
		MIME:     mime,
		Data:     data,
	}, true
}

func imageExtension(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
