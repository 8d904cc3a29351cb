// Package session holds the editing-project model and the capacity-bounded
// gallery of recent projects, persisted through a key-value byte store.
package session

// Status is the lifecycle state of an editing project.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusError      Status = "ERROR"
)

// Valid reports whether s is a recognized status value.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusProcessing, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Session is one editing project. The JSON field names are the persisted
// wire shape and must stay stable across releases.
type Session struct {
	ID            int64   `json:"id"`
	Timestamp     int64   `json:"timestamp"`
	UserImage     string  `json:"userImage"`
	OriginalImage string  `json:"originalImage"`
	EditedImage   *string `json:"editedImage"`
	Prompt        string  `json:"prompt"`
	Status        Status  `json:"status"`
	Thumbnail     string  `json:"thumbnail"`
	IsExtended    bool    `json:"isExtended"`
}

// Edited returns the AI output payload, or "" when none exists yet.
func (s *Session) Edited() string {
	if s.EditedImage == nil {
		return ""
	}
	return *s.EditedImage
}

// SetEdited stores the AI output payload; an empty string clears it back to
// null in the persisted shape.
func (s *Session) SetEdited(payload string) {
	if payload == "" {
		s.EditedImage = nil
		return
	}
	s.EditedImage = &payload
}

// Complete reports whether the session satisfies the persistence invariant:
// both the working and the original image are present.
func (s *Session) Complete() bool {
	return s.UserImage != "" && s.OriginalImage != ""
}
