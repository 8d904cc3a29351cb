package enhance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"photostudio/internal/imaging"
)

// DefaultPrompt is the standard enhancement instruction a new session starts
// with.
const DefaultPrompt = "Make this photo look more professional and high-quality, with better lighting and sharpness."

// extendInstruction is prepended when the working image carries transparent
// margins from a canvas expansion. The wording is part of the contract with
// the editing service.
const extendInstruction = "First, extend the background of the image in the center to fill the transparent areas seamlessly, matching the existing style."

const (
	resultCacheTTL   = 10 * time.Minute
	resultCacheSweep = 15 * time.Minute
)

// Request carries everything needed for one enhancement attempt.
type Request struct {
	// Image is the working image payload.
	Image string
	// Prompt is the user's literal instruction.
	Prompt string
	// Extended marks a canvas-expanded working image.
	Extended bool
	// AspectDescription optionally names the expanded canvas ratio.
	AspectDescription string
}

// Orchestrator validates the request, composes the final prompt, invokes the
// collaborator exactly once per distinct request (concurrent duplicates share
// one upstream call, recent results are served from cache) and re-tags the
// result with the source MIME type. It never retries.
type Orchestrator struct {
	service Service
	cache   *gocache.Cache
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewOrchestrator builds an Orchestrator around the given collaborator.
func NewOrchestrator(service Service, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		service: service,
		cache:   gocache.New(resultCacheTTL, resultCacheSweep),
		logger:  logger,
	}
}

// ComposePrompt builds the final instruction sent to the editing service.
// Extended images get the fill-transparent-margins preamble, optionally with
// the target aspect ratio, and the user's prompt quoted as a sub-instruction.
// Non-extended images send the user's prompt verbatim.
func ComposePrompt(req Request) string {
	if !req.Extended {
		return req.Prompt
	}
	instruction := extendInstruction
	if req.AspectDescription != "" {
		instruction += fmt.Sprintf(" The final image should have a %s aspect ratio.", req.AspectDescription)
	}
	return fmt.Sprintf("%s Then, apply this user request: %q", instruction, req.Prompt)
}

// Enhance runs one enhancement attempt and returns the edited image payload,
// re-tagged with the source image's MIME type.
func (o *Orchestrator) Enhance(ctx context.Context, req Request) (string, error) {
	if req.Image == "" {
		return "", ErrNoImage
	}
	mimeType, data, err := imaging.DecodePayload(req.Image)
	if err != nil {
		return "", err
	}
	finalPrompt := ComposePrompt(req)
	key := requestKey(req.Image, finalPrompt)

	if cached, ok := o.cache.Get(key); ok {
		o.logger.Debug().Str("key", key).Msg("enhance: serving cached result")
		return cached.(string), nil
	}

	result, err, shared := o.group.Do(key, func() (any, error) {
		edited, err := o.service.EditImage(ctx, data, mimeType, finalPrompt)
		if err != nil {
			return nil, err
		}
		payload := imaging.EncodePayload(mimeType, edited)
		o.cache.Set(key, payload, gocache.DefaultExpiration)
		return payload, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		o.logger.Debug().Str("key", key).Msg("enhance: shared in-flight upstream call")
	}
	return result.(string), nil
}

func requestKey(image, prompt string) string {
	h := sha256.New()
	h.Write([]byte(image))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))[:24]
}
