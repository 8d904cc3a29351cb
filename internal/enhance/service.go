// Package enhance composes the final editing prompt and drives the external
// AI image-editing collaborator.
package enhance

import (
	"context"
	"errors"
)

var (
	// ErrNoImage is returned when enhancement is requested without a working
	// image. No network call is attempted.
	ErrNoImage = errors.New("enhance: no image to enhance, please upload an image first")
	// ErrServiceFailure wraps failures reported by the editing collaborator.
	ErrServiceFailure = errors.New("enhance: editing service failed")
)

// Service is the external AI editing collaborator: raw image bytes in,
// base64-decoded edited image bytes out. Implementations own their transport;
// the orchestrator never retries.
type Service interface {
	EditImage(ctx context.Context, data []byte, mimeType, prompt string) ([]byte, error)
}
