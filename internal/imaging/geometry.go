package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var (
	// ErrEmptyCrop is returned for crop regions without positive area.
	ErrEmptyCrop = errors.New("imaging: crop region has no area")
	// ErrShrinkExpand is returned when an expansion target is smaller than
	// the source on either axis. Expansion only ever grows the canvas.
	ErrShrinkExpand = errors.New("imaging: expansion target smaller than source")
)

const (
	// DefaultThumbnailWidth is the gallery thumbnail width in pixels.
	DefaultThumbnailWidth = 200
	thumbnailJPEGQuality  = 80
)

// Region is a crop rectangle expressed in displayed-image pixel coordinates.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CropOptions carries the display geometry a Region was drawn against.
type CropOptions struct {
	// DisplayWidth and DisplayHeight are the on-screen dimensions of the
	// image the region coordinates refer to. Zero means the region is
	// already in natural pixels.
	DisplayWidth  float64
	DisplayHeight float64
	// PixelRatio is the device pixel density. The output canvas is the crop
	// size multiplied by this ratio so high-density displays stay sharp.
	// Zero or negative falls back to 1.
	PixelRatio float64
}

// Engine performs the pixel-level geometric transforms. It is stateless; all
// methods take and return self-describing payloads.
type Engine struct {
	newSurface NewSurfaceFunc
}

// NewEngine builds an Engine. A nil allocator selects the default in-memory
// surface.
func NewEngine(newSurface NewSurfaceFunc) *Engine {
	if newSurface == nil {
		newSurface = NewSurface
	}
	return &Engine{newSurface: newSurface}
}

// Crop extracts the region from the source payload and returns it as a PNG
// payload with its origin reset to (0,0). The region is rescaled from display
// to natural coordinates first; parts of it outside the source bounds are
// clipped transparently.
func (e *Engine) Crop(payload string, region Region, opts CropOptions) (string, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return "", ErrEmptyCrop
	}
	src, err := decodePayloadImage(payload)
	if err != nil {
		return "", err
	}
	natural := src.Bounds()

	scaleX, scaleY := 1.0, 1.0
	if opts.DisplayWidth > 0 {
		scaleX = float64(natural.Dx()) / opts.DisplayWidth
	}
	if opts.DisplayHeight > 0 {
		scaleY = float64(natural.Dy()) / opts.DisplayHeight
	}
	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}

	outW := int(math.Round(region.Width * ratio))
	outH := int(math.Round(region.Height * ratio))
	if outW <= 0 || outH <= 0 {
		return "", ErrEmptyCrop
	}
	surface, err := e.newSurface(outW, outH)
	if err != nil {
		return "", err
	}

	sr := image.Rect(
		int(math.Round(region.X*scaleX)),
		int(math.Round(region.Y*scaleY)),
		int(math.Round((region.X+region.Width)*scaleX)),
		int(math.Round((region.Y+region.Height)*scaleY)),
	)
	surface.DrawRegion(src, sr, image.Rect(0, 0, outW, outH))

	data, err := surface.EncodePNG()
	if err != nil {
		return "", err
	}
	return EncodePayload("image/png", data), nil
}

// Expand re-renders the source payload centered on a larger transparent
// canvas of targetWidth x targetHeight. The output is always PNG: the
// transparent margin is the region the editing service is asked to fill, and
// a lossy format would discard it.
func (e *Engine) Expand(payload string, targetWidth, targetHeight int) (string, error) {
	src, err := decodePayloadImage(payload)
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	if targetWidth < b.Dx() || targetHeight < b.Dy() {
		return "", ErrShrinkExpand
	}
	surface, err := e.newSurface(targetWidth, targetHeight)
	if err != nil {
		return "", err
	}
	surface.DrawCentered(src)

	data, err := surface.EncodePNG()
	if err != nil {
		return "", err
	}
	return EncodePayload("image/png", data), nil
}

// Thumbnail scales the payload down to maxWidth, preserving aspect ratio, and
// re-encodes it as JPEG at fixed quality. Thumbnails are lossy on purpose:
// they exist only to keep the persisted gallery small.
func (e *Engine) Thumbnail(payload string, maxWidth int) (string, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailWidth
	}
	src, err := decodePayloadImage(payload)
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	aspect := float64(b.Dx()) / float64(b.Dy())
	outH := int(math.Round(float64(maxWidth) / aspect))
	if outH < 1 {
		outH = 1
	}
	surface, err := e.newSurface(maxWidth, outH)
	if err != nil {
		return "", err
	}
	surface.DrawRegion(src, b, image.Rect(0, 0, maxWidth, outH))

	data, err := surface.EncodeJPEG(thumbnailJPEGQuality)
	if err != nil {
		return "", err
	}
	return EncodePayload("image/jpeg", data), nil
}

// Dimensions reports the natural pixel size of a payload.
func (e *Engine) Dimensions(payload string) (width, height int, err error) {
	_, data, err := DecodePayload(payload)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodePayloadImage(payload string) (image.Image, error) {
	_, data, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode image: %w", err)
	}
	return img, nil
}
