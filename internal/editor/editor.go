// Package editor owns the single editing context: the working image, the
// active edit mode, and the transitions between them. All mutations go
// through Context methods so the one-pending-edit invariant and the autosave
// policy live in one place.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"photostudio/internal/enhance"
	"photostudio/internal/imaging"
	"photostudio/internal/session"
)

// Mode is the active geometric edit. Only one non-none mode may be active at
// a time.
type Mode string

const (
	ModeNone        Mode = ""
	ModeCrop        Mode = "crop"
	ModeMagicExpand Mode = "magic-expand"
)

var (
	// ErrNoSession is returned for edit operations without an uploaded image.
	ErrNoSession = errors.New("editor: no image loaded")
	// ErrModeActive is returned when entering a mode while another edit is
	// pending.
	ErrModeActive = errors.New("editor: another edit is already pending")
	// ErrWrongMode is returned when an apply does not match the active mode.
	ErrWrongMode = errors.New("editor: operation does not match the active edit mode")
	// ErrBusy is returned when an enhancement is already in flight.
	ErrBusy = errors.New("editor: enhancement already in progress")
	// ErrStaleEdit is returned when a geometry result completed after the
	// mode changed underneath it; the result is discarded.
	ErrStaleEdit = errors.New("editor: edit canceled before the result arrived")
	// ErrSessionNotFound is returned when loading an unknown session.
	ErrSessionNotFound = errors.New("editor: session not found")
)

// geometry is the slice of the imaging engine the editor drives.
type geometry interface {
	Crop(payload string, region imaging.Region, opts imaging.CropOptions) (string, error)
	Expand(payload string, width, height int) (string, error)
	Dimensions(payload string) (width, height int, err error)
}

// StatusListener observes session status transitions, e.g. to push them to
// connected clients.
type StatusListener func(sessionID int64, status session.Status, message string)

// Context is the application's single editing context.
type Context struct {
	mu sync.Mutex

	engine       geometry
	store        *session.Store
	orchestrator *enhance.Orchestrator
	autosave     *session.Debouncer
	logger       zerolog.Logger
	notify       StatusListener

	sessionID      int64
	status         session.Status
	userImage      string
	originalImage  string
	editedImage    string
	prompt         string
	lastError      string
	mode           Mode
	isExtended     bool
	extendedAspect string

	// epoch invalidates in-flight async work: every cancel, reset, load and
	// commit bumps it, and results tagged with an older epoch are dropped.
	epoch uint64
}

// New builds an editing Context. notify may be nil.
func New(engine *imaging.Engine, store *session.Store, orchestrator *enhance.Orchestrator, autosave *session.Debouncer, logger zerolog.Logger, notify StatusListener) *Context {
	return &Context{
		engine:       engine,
		store:        store,
		orchestrator: orchestrator,
		autosave:     autosave,
		logger:       logger,
		notify:       notify,
		status:       session.StatusIdle,
		prompt:       enhance.DefaultPrompt,
	}
}

// Snapshot is a point-in-time copy of the editing context for rendering.
type Snapshot struct {
	SessionID      int64          `json:"sessionId"`
	Status         session.Status `json:"status"`
	Mode           Mode           `json:"mode"`
	UserImage      string         `json:"userImage"`
	OriginalImage  string         `json:"originalImage"`
	EditedImage    string         `json:"editedImage"`
	Prompt         string         `json:"prompt"`
	IsExtended     bool           `json:"isExtended"`
	ExtendedAspect string         `json:"extendedAspect"`
	Error          string         `json:"error,omitempty"`
}

// Snapshot returns the current editing state.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID:      c.sessionID,
		Status:         c.status,
		Mode:           c.mode,
		UserImage:      c.userImage,
		OriginalImage:  c.originalImage,
		EditedImage:    c.editedImage,
		Prompt:         c.prompt,
		IsExtended:     c.isExtended,
		ExtendedAspect: c.extendedAspect,
		Error:          c.lastError,
	}
}

// Upload starts a new session from the given image payload. The original
// image of the new session is immutable until the next upload.
func (c *Context) Upload(payload string) error {
	if _, _, err := c.engine.Dimensions(payload); err != nil {
		c.mu.Lock()
		c.status = session.StatusError
		c.lastError = "Could not process the selected file."
		c.mu.Unlock()
		c.emit()
		return err
	}

	c.mu.Lock()
	c.sessionID = c.store.NewID()
	c.originalImage = payload
	c.userImage = payload
	c.editedImage = ""
	c.status = session.StatusIdle
	c.lastError = ""
	c.mode = ModeNone
	c.isExtended = false
	c.extendedAspect = ""
	c.epoch++
	c.mu.Unlock()

	c.emit()
	c.queueAutosave()
	return nil
}

// EnterMode activates a geometric edit mode. Only one may be pending.
func (c *Context) EnterMode(mode Mode) error {
	if mode != ModeCrop && mode != ModeMagicExpand {
		return ErrWrongMode
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userImage == "" {
		return ErrNoSession
	}
	if c.mode != ModeNone {
		return ErrModeActive
	}
	c.mode = mode
	return nil
}

// ApplyCrop runs the crop and commits the result as the new working image.
// On geometry failure the mode still resolves to none but the working image
// is untouched.
func (c *Context) ApplyCrop(region imaging.Region, opts imaging.CropOptions) error {
	c.mu.Lock()
	if c.mode != ModeCrop {
		c.mu.Unlock()
		return ErrWrongMode
	}
	source := c.userImage
	token := c.epoch
	c.mu.Unlock()

	cropped, err := c.engine.Crop(source, region, opts)

	c.mu.Lock()
	if c.epoch != token || c.mode != ModeCrop {
		c.mu.Unlock()
		return ErrStaleEdit
	}
	c.mode = ModeNone
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn().Err(err).Msg("editor: crop failed")
		return err
	}
	c.userImage = cropped
	c.isExtended = false
	c.extendedAspect = ""
	c.epoch++
	c.mu.Unlock()

	c.queueAutosave()
	return nil
}

// ApplyExpand runs the canvas expansion. Targets smaller than the current
// image on either axis are rejected and the mode stays pending, mirroring a
// disabled apply control.
func (c *Context) ApplyExpand(width, height int) error {
	c.mu.Lock()
	if c.mode != ModeMagicExpand {
		c.mu.Unlock()
		return ErrWrongMode
	}
	source := c.userImage
	token := c.epoch
	c.mu.Unlock()

	srcW, srcH, err := c.engine.Dimensions(source)
	if err == nil && (width < srcW || height < srcH) {
		err = imaging.ErrShrinkExpand
	}
	if err != nil {
		if errors.Is(err, imaging.ErrShrinkExpand) {
			return err
		}
		c.resolveFailedExpand(token, err)
		return err
	}

	expanded, err := c.engine.Expand(source, width, height)

	c.mu.Lock()
	if c.epoch != token || c.mode != ModeMagicExpand {
		c.mu.Unlock()
		return ErrStaleEdit
	}
	c.mode = ModeNone
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn().Err(err).Msg("editor: expand failed")
		return err
	}
	c.userImage = expanded
	c.isExtended = true
	c.extendedAspect = imaging.AspectDescription(width, height)
	c.epoch++
	c.mu.Unlock()

	c.queueAutosave()
	return nil
}

func (c *Context) resolveFailedExpand(token uint64, err error) {
	c.mu.Lock()
	if c.epoch == token && c.mode == ModeMagicExpand {
		c.mode = ModeNone
	}
	c.mu.Unlock()
	c.logger.Warn().Err(err).Msg("editor: expand failed")
}

// CancelEdit leaves the active mode, reverts the working image to the
// session's original and invalidates any in-flight geometry result.
func (c *Context) CancelEdit() {
	c.mu.Lock()
	if c.mode == ModeNone {
		c.mu.Unlock()
		return
	}
	c.mode = ModeNone
	c.userImage = c.originalImage
	c.isExtended = false
	c.extendedAspect = ""
	c.epoch++
	c.mu.Unlock()

	c.queueAutosave()
}

// SetPrompt updates the enhancement instruction.
func (c *Context) SetPrompt(prompt string) {
	c.mu.Lock()
	c.prompt = prompt
	c.mu.Unlock()
	c.queueAutosave()
}

// Enhance runs one enhancement attempt against the editing collaborator.
// Failures set the error status and are never retried automatically.
func (c *Context) Enhance(ctx context.Context) error {
	c.mu.Lock()
	if c.status == session.StatusProcessing {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.mode != ModeNone {
		c.mu.Unlock()
		return ErrModeActive
	}
	if c.userImage == "" {
		c.status = session.StatusError
		c.lastError = "Please upload an image first."
		c.mu.Unlock()
		c.emit()
		return enhance.ErrNoImage
	}
	c.status = session.StatusProcessing
	c.lastError = ""
	req := enhance.Request{
		Image:             c.userImage,
		Prompt:            c.prompt,
		Extended:          c.isExtended,
		AspectDescription: c.extendedAspect,
	}
	token := c.epoch
	c.mu.Unlock()

	// No autosave while processing; a pending timer from before is void.
	c.autosave.Cancel()
	c.emit()

	result, err := c.orchestrator.Enhance(ctx, req)

	c.mu.Lock()
	if c.epoch != token {
		// The context was reset or another session was loaded mid-flight.
		c.mu.Unlock()
		return ErrStaleEdit
	}
	if err != nil {
		c.status = session.StatusError
		c.lastError = humanMessage(err)
		c.mu.Unlock()
		c.emit()
		return err
	}
	c.editedImage = result
	c.status = session.StatusSuccess
	c.mu.Unlock()

	c.emit()
	c.queueAutosave()
	return nil
}

// Reset clears the whole editing context back to empty.
func (c *Context) Reset() {
	c.mu.Lock()
	c.sessionID = 0
	c.status = session.StatusIdle
	c.userImage = ""
	c.originalImage = ""
	c.editedImage = ""
	c.prompt = enhance.DefaultPrompt
	c.lastError = ""
	c.mode = ModeNone
	c.isExtended = false
	c.extendedAspect = ""
	c.epoch++
	c.mu.Unlock()

	c.autosave.Cancel()
}

// Load makes a stored session the current editing context. Loading always
// starts clean: no active mode, no transient error.
func (c *Context) Load(id int64) error {
	sess, ok := c.store.Find(id)
	if !ok {
		return ErrSessionNotFound
	}
	c.mu.Lock()
	c.sessionID = sess.ID
	c.originalImage = sess.OriginalImage
	c.userImage = sess.UserImage
	c.editedImage = sess.Edited()
	c.prompt = sess.Prompt
	c.status = sess.Status
	c.isExtended = sess.IsExtended
	c.extendedAspect = ""
	c.mode = ModeNone
	c.lastError = ""
	c.epoch++
	c.mu.Unlock()

	c.queueAutosave()
	return nil
}

// DeleteSession removes a stored session. Deleting the session currently
// being edited resets the whole editing context.
func (c *Context) DeleteSession(ctx context.Context, id int64) bool {
	removed := c.store.Delete(ctx, id)

	c.mu.Lock()
	active := c.sessionID == id && id != 0
	c.mu.Unlock()
	if active {
		c.Reset()
	}
	return removed
}

// queueAutosave debounces a gallery save. The save fires only if the state
// still qualifies when the quiet period elapses.
func (c *Context) queueAutosave() {
	c.autosave.Trigger(func() {
		c.saveNow(context.Background())
	})
}

func (c *Context) saveNow(ctx context.Context) {
	c.mu.Lock()
	if c.status != session.StatusIdle && c.status != session.StatusSuccess {
		c.mu.Unlock()
		return
	}
	if c.userImage == "" || c.originalImage == "" {
		c.mu.Unlock()
		return
	}
	sess := session.Session{
		ID:            c.sessionID,
		UserImage:     c.userImage,
		OriginalImage: c.originalImage,
		Prompt:        c.prompt,
		Status:        c.status,
		IsExtended:    c.isExtended,
	}
	sess.SetEdited(c.editedImage)
	c.mu.Unlock()

	c.store.Save(ctx, sess)
}

func (c *Context) emit() {
	if c.notify == nil {
		return
	}
	snap := c.Snapshot()
	c.notify(snap.SessionID, snap.Status, snap.Error)
}

func humanMessage(err error) string {
	if errors.Is(err, enhance.ErrNoImage) {
		return "Please upload an image first."
	}
	return err.Error()
}
