package editor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"photostudio/internal/enhance"
	"photostudio/internal/imaging"
	"photostudio/internal/kv"
	"photostudio/internal/session"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// stubGeometry lets tests control transform results and timing.
type stubGeometry struct {
	cropResult   string
	cropErr      error
	cropEntered  chan struct{} // closed when Crop is running, if set
	cropRelease  chan struct{} // Crop blocks until closed, if set
	expandResult string
	expandErr    error
	width        int
	height       int
	dimErr       error
	thumb        string
}

func (s *stubGeometry) Crop(payload string, region imaging.Region, opts imaging.CropOptions) (string, error) {
	if s.cropEntered != nil {
		close(s.cropEntered)
	}
	if s.cropRelease != nil {
		<-s.cropRelease
	}
	return s.cropResult, s.cropErr
}

func (s *stubGeometry) Expand(payload string, width, height int) (string, error) {
	return s.expandResult, s.expandErr
}

func (s *stubGeometry) Dimensions(payload string) (int, int, error) {
	return s.width, s.height, s.dimErr
}

type stubService struct {
	mu     sync.Mutex
	calls  int
	result []byte
	err    error
}

func (s *stubService) EditImage(ctx context.Context, data []byte, mimeType, prompt string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (m *manualScheduler) schedule(d time.Duration, fn func()) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

func (m *manualScheduler) fireAll() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

type fixture struct {
	ctx   *Context
	geo   *stubGeometry
	svc   *stubService
	store *session.Store
	sched *manualScheduler
}

const uploadPayload = "data:image/png;base64,b3JpZ2luYWw="

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	geo := &stubGeometry{width: 100, height: 100}
	svc := &stubService{result: []byte{1, 2, 3}}
	store := session.NewStore(newMemKV(), imaging.NewEngine(nil), logger, nil)
	sched := &manualScheduler{}
	autosave := session.NewDebouncer(time.Second, sched.schedule)
	ctx := New(nil, store, enhance.NewOrchestrator(svc, logger), autosave, logger, nil)
	ctx.engine = geo
	return &fixture{ctx: ctx, geo: geo, svc: svc, store: store, sched: sched}
}

func (f *fixture) upload(t *testing.T) {
	t.Helper()
	if err := f.ctx.Upload(uploadPayload); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
}

func TestUploadBeginsSession(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	snap := f.ctx.Snapshot()
	if snap.SessionID == 0 {
		t.Fatal("upload must allocate a session id")
	}
	if snap.UserImage != uploadPayload || snap.OriginalImage != uploadPayload {
		t.Fatal("upload must set both the original and the working image")
	}
	if snap.EditedImage != "" || snap.Status != session.StatusIdle || snap.IsExtended {
		t.Fatalf("upload must start clean, got %+v", snap)
	}
	if snap.Prompt != enhance.DefaultPrompt {
		t.Fatalf("prompt = %q, want default", snap.Prompt)
	}
}

func TestUploadUndecodableImage(t *testing.T) {
	f := newFixture(t)
	f.geo.dimErr = errors.New("bad image")

	if err := f.ctx.Upload("data:image/png;base64,????"); err == nil {
		t.Fatal("expected error for undecodable upload")
	}
	snap := f.ctx.Snapshot()
	if snap.Status != session.StatusError || snap.Error == "" {
		t.Fatalf("status = %q error = %q, want error surfaced", snap.Status, snap.Error)
	}
	if snap.UserImage != "" {
		t.Fatal("failed upload must not set a working image")
	}
}

func TestEnterModeExclusive(t *testing.T) {
	f := newFixture(t)

	if err := f.ctx.EnterMode(ModeCrop); !errors.Is(err, ErrNoSession) {
		t.Fatalf("enter mode without image: err = %v, want ErrNoSession", err)
	}
	f.upload(t)
	if err := f.ctx.EnterMode(ModeCrop); err != nil {
		t.Fatalf("EnterMode(crop) returned error: %v", err)
	}
	if err := f.ctx.EnterMode(ModeMagicExpand); !errors.Is(err, ErrModeActive) {
		t.Fatalf("second mode: err = %v, want ErrModeActive", err)
	}
}

func TestApplyCropCommitsWorkingImage(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.geo.cropResult = "data:image/png;base64,Y3JvcHBlZA=="

	if err := f.ctx.EnterMode(ModeCrop); err != nil {
		t.Fatalf("EnterMode: %v", err)
	}
	if err := f.ctx.ApplyCrop(imaging.Region{X: 0, Y: 0, Width: 10, Height: 10}, imaging.CropOptions{}); err != nil {
		t.Fatalf("ApplyCrop returned error: %v", err)
	}
	snap := f.ctx.Snapshot()
	if snap.UserImage != f.geo.cropResult {
		t.Fatal("crop result did not become the working image")
	}
	if snap.Mode != ModeNone || snap.IsExtended {
		t.Fatalf("after crop: mode=%q extended=%v, want resolved and not extended", snap.Mode, snap.IsExtended)
	}
	if snap.OriginalImage != uploadPayload {
		t.Fatal("crop must never touch the original image")
	}
}

func TestApplyCropFailureResolvesModeWithoutMutation(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.geo.cropErr = imaging.ErrEmptyCrop

	f.ctx.EnterMode(ModeCrop)
	err := f.ctx.ApplyCrop(imaging.Region{}, imaging.CropOptions{})
	if !errors.Is(err, imaging.ErrEmptyCrop) {
		t.Fatalf("err = %v, want ErrEmptyCrop", err)
	}
	snap := f.ctx.Snapshot()
	if snap.Mode != ModeNone {
		t.Fatal("mode must resolve even when the crop fails")
	}
	if snap.UserImage != uploadPayload {
		t.Fatal("failed crop must leave the working image unchanged")
	}
}

func TestApplyCropRequiresCropMode(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	if err := f.ctx.ApplyCrop(imaging.Region{Width: 1, Height: 1}, imaging.CropOptions{}); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("err = %v, want ErrWrongMode", err)
	}
}

func TestApplyExpandSetsExtendedState(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.geo.width, f.geo.height = 1000, 1000
	f.geo.expandResult = "data:image/png;base64,ZXhwYW5kZWQ="

	f.ctx.EnterMode(ModeMagicExpand)
	if err := f.ctx.ApplyExpand(1920, 1080); err != nil {
		t.Fatalf("ApplyExpand returned error: %v", err)
	}
	snap := f.ctx.Snapshot()
	if snap.UserImage != f.geo.expandResult {
		t.Fatal("expand result did not become the working image")
	}
	if !snap.IsExtended {
		t.Fatal("expand must mark the session extended")
	}
	if snap.ExtendedAspect != "16:9 cinematic widescreen" {
		t.Fatalf("aspect description = %q, want canonical 16:9 label", snap.ExtendedAspect)
	}
	if snap.Mode != ModeNone {
		t.Fatal("mode must resolve after a successful expand")
	}
}

func TestApplyExpandRejectsShrinking(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.geo.width, f.geo.height = 1000, 1000

	f.ctx.EnterMode(ModeMagicExpand)
	err := f.ctx.ApplyExpand(500, 2000)
	if !errors.Is(err, imaging.ErrShrinkExpand) {
		t.Fatalf("err = %v, want ErrShrinkExpand", err)
	}
	snap := f.ctx.Snapshot()
	if snap.Mode != ModeMagicExpand {
		t.Fatal("rejected expand is a no-op; the mode stays pending")
	}
	if snap.UserImage != uploadPayload || snap.IsExtended {
		t.Fatal("rejected expand must not mutate the session")
	}
}

func TestCancelEditRestoresOriginal(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.geo.expandResult = "data:image/png;base64,ZXhwYW5kZWQ="
	f.geo.width, f.geo.height = 10, 10

	f.ctx.EnterMode(ModeMagicExpand)
	if err := f.ctx.ApplyExpand(20, 20); err != nil {
		t.Fatalf("ApplyExpand: %v", err)
	}
	f.ctx.EnterMode(ModeCrop)
	f.ctx.CancelEdit()

	snap := f.ctx.Snapshot()
	if snap.UserImage != uploadPayload {
		t.Fatal("cancel must restore the original image bit-for-bit")
	}
	if snap.IsExtended || snap.ExtendedAspect != "" {
		t.Fatal("cancel must clear the extended state")
	}
	if snap.Mode != ModeNone {
		t.Fatal("cancel must leave the edit mode")
	}
}

func TestStaleCropResultIsDiscardedAfterCancel(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.geo.cropResult = "data:image/png;base64,bGF0ZQ=="
	f.geo.cropEntered = make(chan struct{})
	f.geo.cropRelease = make(chan struct{})

	f.ctx.EnterMode(ModeCrop)

	done := make(chan error, 1)
	go func() {
		done <- f.ctx.ApplyCrop(imaging.Region{Width: 5, Height: 5}, imaging.CropOptions{})
	}()

	<-f.geo.cropEntered
	f.ctx.CancelEdit()
	close(f.geo.cropRelease)

	if err := <-done; !errors.Is(err, ErrStaleEdit) {
		t.Fatalf("err = %v, want ErrStaleEdit", err)
	}
	if snap := f.ctx.Snapshot(); snap.UserImage != uploadPayload {
		t.Fatal("stale crop result must not be applied after cancel")
	}
}

func TestEnhanceSuccess(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	var statuses []session.Status
	f.ctx.notify = func(id int64, st session.Status, msg string) {
		statuses = append(statuses, st)
	}

	if err := f.ctx.Enhance(context.Background()); err != nil {
		t.Fatalf("Enhance returned error: %v", err)
	}
	snap := f.ctx.Snapshot()
	if snap.Status != session.StatusSuccess {
		t.Fatalf("status = %q, want SUCCESS", snap.Status)
	}
	if snap.EditedImage == "" {
		t.Fatal("edited image missing after success")
	}
	if len(statuses) < 2 || statuses[0] != session.StatusProcessing || statuses[len(statuses)-1] != session.StatusSuccess {
		t.Fatalf("status transitions = %v, want PROCESSING then SUCCESS", statuses)
	}
}

func TestEnhanceWithoutImage(t *testing.T) {
	f := newFixture(t)

	err := f.ctx.Enhance(context.Background())
	if !errors.Is(err, enhance.ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
	snap := f.ctx.Snapshot()
	if snap.Status != session.StatusError || snap.Error != "Please upload an image first." {
		t.Fatalf("status = %q error = %q", snap.Status, snap.Error)
	}
	if f.svc.calls != 0 {
		t.Fatal("no collaborator call may happen without an image")
	}
}

func TestEnhanceServiceFailure(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.svc.err = errors.New("model overloaded")

	if err := f.ctx.Enhance(context.Background()); err == nil {
		t.Fatal("expected enhancement failure")
	}
	snap := f.ctx.Snapshot()
	if snap.Status != session.StatusError {
		t.Fatalf("status = %q, want ERROR", snap.Status)
	}
	if snap.Error == "" {
		t.Fatal("failure must record a human-readable message")
	}
	if f.svc.calls != 1 {
		t.Fatalf("calls = %d, the orchestrator must not retry", f.svc.calls)
	}
}

func TestEnhanceRejectedWhileEditing(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.ctx.EnterMode(ModeCrop)

	if err := f.ctx.Enhance(context.Background()); !errors.Is(err, ErrModeActive) {
		t.Fatalf("err = %v, want ErrModeActive", err)
	}
}

func TestDeleteActiveSessionResetsContext(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.ctx.SetPrompt("custom prompt")
	f.sched.fireAll() // flush autosave so the session is held by the store

	id := f.ctx.Snapshot().SessionID
	if !f.ctx.DeleteSession(context.Background(), id) {
		t.Fatal("DeleteSession = false, want true")
	}
	snap := f.ctx.Snapshot()
	if snap.SessionID != 0 || snap.UserImage != "" || snap.Prompt != enhance.DefaultPrompt {
		t.Fatalf("context not fully reset: %+v", snap)
	}
	if snap.Status != session.StatusIdle || snap.Error != "" {
		t.Fatal("reset context must be idle and error-free")
	}
	if f.store.Len() != 0 {
		t.Fatal("session must be gone from the store")
	}
}

func TestDeleteOtherSessionKeepsContext(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.sched.fireAll()
	first := f.ctx.Snapshot().SessionID

	f.upload(t)
	f.sched.fireAll()
	second := f.ctx.Snapshot().SessionID

	f.ctx.DeleteSession(context.Background(), first)
	snap := f.ctx.Snapshot()
	if snap.SessionID != second || snap.UserImage == "" {
		t.Fatal("deleting another session must not reset the active context")
	}
}

func TestAutosaveDebounceAndPolicy(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.ctx.SetPrompt("a")
	f.ctx.SetPrompt("ab")
	f.sched.fireAll()

	if f.store.Len() != 1 {
		t.Fatalf("store length = %d, want exactly one autosaved session", f.store.Len())
	}
	saved := f.store.Sessions()[0]
	if saved.Prompt != "ab" {
		t.Fatalf("saved prompt = %q, want the latest value", saved.Prompt)
	}
}

func TestNoAutosaveWhileErrored(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.sched.fireAll()
	f.svc.err = errors.New("boom")
	if err := f.ctx.Enhance(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	before := f.store.Sessions()[0].Status

	// A timer that fires while the context is errored must not save.
	f.ctx.queueAutosave()
	f.sched.fireAll()
	if got := f.store.Sessions()[0].Status; got != before {
		t.Fatalf("errored context was autosaved: status %q -> %q", before, got)
	}
}

func TestLoadSessionStartsClean(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	f.ctx.SetPrompt("stored prompt")
	f.sched.fireAll()
	id := f.ctx.Snapshot().SessionID

	f.ctx.Reset()
	if err := f.ctx.Load(id); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	snap := f.ctx.Snapshot()
	if snap.SessionID != id || snap.Prompt != "stored prompt" {
		t.Fatalf("loaded snapshot = %+v", snap)
	}
	if snap.Mode != ModeNone || snap.Error != "" {
		t.Fatal("loading must clear the mode and any transient error")
	}
	if snap.UserImage != uploadPayload || snap.OriginalImage != uploadPayload {
		t.Fatal("loaded images must match the stored session")
	}

	if err := f.ctx.Load(99999); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrSessionNotFound", err)
	}
}
