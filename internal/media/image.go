package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"mediatagger/internal/errors"

	"github.com/nfnt/resize"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// maxImageBytes bounds how much of a file the decoders may read.
const maxImageBytes = 256 << 20

// defaultSVGSize is used when an SVG has no usable viewBox.
const defaultSVGSize = 512

// LoadImage decodes the image at path and scales it down to fit within
// maxWidth x maxHeight, preserving the aspect ratio. Images that already fit
// are returned unscaled. A zero bound means unbounded in that direction.
// Any failure is returned as a MediaError.
func LoadImage(path string, maxWidth, maxHeight int) (img image.Image, err error) {
	defer func() {
		// Some decoders panic on truncated input.
		if r := recover(); r != nil {
			img = nil
			err = errors.NewMediaError("cannot decode image", path, fmt.Errorf("decoder panic: %v", r))
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewMediaError("cannot open image", path, err)
	}
	defer file.Close()

	img, err = decode(filepath.Ext(path), io.LimitReader(file, maxImageBytes))
	if err != nil {
		return nil, errors.NewMediaError("cannot decode image", path, err)
	}

	return Fit(img, maxWidth, maxHeight), nil
}

func decode(ext string, r io.Reader) (image.Image, error) {
	switch ext {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	case ".gif":
		return gif.Decode(r)
	case ".bmp":
		return bmp.Decode(r)
	case ".tiff", ".tif":
		return tiff.Decode(r)
	case ".svg":
		return rasterizeSVG(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}

func rasterizeSVG(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		w, h = defaultSVGSize, defaultSVGSize
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}

// Fit scales img down to fit within maxWidth x maxHeight preserving the
// aspect ratio. It never enlarges.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return img
	}
	if maxWidth <= 0 {
		maxWidth = width
	}
	if maxHeight <= 0 {
		maxHeight = height
	}
	if width <= maxWidth && height <= maxHeight {
		return img
	}

	// Paletted images resize poorly; convert first.
	if _, isPaletted := img.(*image.Paletted); isPaletted {
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
		img = rgba
	}

	return resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Lanczos3)
}
