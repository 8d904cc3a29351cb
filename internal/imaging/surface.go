package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Surface is a headless raster canvas. The geometry engine renders onto a
// Surface instead of a display context, so every transform can run (and be
// tested) without a GUI environment.
type Surface interface {
	// Size reports the pixel dimensions of the canvas.
	Size() (width, height int)
	// DrawRegion resamples the source rectangle sr of src into the
	// destination rectangle dr. Portions of sr outside the source bounds are
	// clipped and left transparent rather than erroring.
	DrawRegion(src image.Image, sr, dr image.Rectangle)
	// DrawCentered draws src at its natural resolution, centered on the
	// canvas. The offset per axis is (canvas-source)/2, truncated to whole
	// pixels.
	DrawCentered(src image.Image)
	// EncodePNG exports the canvas as PNG bytes, preserving alpha.
	EncodePNG() ([]byte, error)
	// EncodeJPEG exports the canvas as JPEG bytes at the given quality.
	EncodeJPEG(quality int) ([]byte, error)
}

// NewSurfaceFunc allocates a fully transparent Surface of the given size.
type NewSurfaceFunc func(width, height int) (Surface, error)

// NewSurface is the default allocator backed by an in-memory RGBA image.
func NewSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imaging: invalid surface size %dx%d", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	// NewRGBA zeroes the buffer, but clear explicitly so the transparent
	// background does not depend on allocator behavior.
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	return &rasterSurface{img: img}, nil
}

type rasterSurface struct {
	img *image.RGBA
}

func (s *rasterSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *rasterSurface) DrawRegion(src image.Image, sr, dr image.Rectangle) {
	clipped := sr.Intersect(src.Bounds())
	if clipped.Empty() || dr.Empty() {
		return
	}
	if clipped != sr {
		// Keep the mapping of the requested region intact: shrink the
		// destination rectangle by the same proportion that clipping removed
		// from the source, so in-bounds pixels land where they would have on
		// a clipping canvas.
		sx := float64(dr.Dx()) / float64(sr.Dx())
		sy := float64(dr.Dy()) / float64(sr.Dy())
		dr = image.Rect(
			dr.Min.X+int(float64(clipped.Min.X-sr.Min.X)*sx),
			dr.Min.Y+int(float64(clipped.Min.Y-sr.Min.Y)*sy),
			dr.Min.X+int(float64(clipped.Max.X-sr.Min.X)*sx),
			dr.Min.Y+int(float64(clipped.Max.Y-sr.Min.Y)*sy),
		)
		sr = clipped
	}
	xdraw.CatmullRom.Scale(s.img, dr, src, sr, xdraw.Over, nil)
}

func (s *rasterSurface) DrawCentered(src image.Image) {
	b := s.img.Bounds()
	sb := src.Bounds()
	offset := image.Pt((b.Dx()-sb.Dx())/2, (b.Dy()-sb.Dy())/2)
	draw.Draw(s.img, sb.Sub(sb.Min).Add(offset), src, sb.Min, draw.Over)
}

func (s *rasterSurface) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("imaging: export png: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *rasterSurface) EncodeJPEG(quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		return nil, errors.New("imaging: jpeg quality out of range")
	}
	// JPEG has no alpha channel; composite onto white first.
	b := s.img.Bounds()
	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, b, s.img, b.Min, draw.Over)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: export jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
