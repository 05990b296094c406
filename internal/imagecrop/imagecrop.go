// Package imagecrop performs the synchronous sub-rectangle copy and
// encode for still-image crop jobs. Pixel codec correctness is delegated
// to the imaging libraries; this package only wires decode, crop, and
// encode together.
package imagecrop

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/hyase/cropbatch/internal/geometry"
)

// Static errors for image cropping.
var (
	// ErrRegionOutOfBounds is returned when the crop rectangle does not
	// lie fully inside the source image.
	ErrRegionOutOfBounds = errors.New("imagecrop: region out of image bounds")
	// ErrEmptyRegion is returned when the crop rectangle has no area.
	ErrEmptyRegion = errors.New("imagecrop: empty region")
)

// webpQuality is the lossy encode quality used for webp output.
const webpQuality = 90

// Crop reads the image at src, extracts the given source-pixel rectangle,
// and writes the result to dst. The output format follows dst's
// extension.
func Crop(src, dst string, r geometry.Rect) error {
	if r.IsEmpty() {
		return ErrEmptyRegion
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	bounds := img.Bounds()
	if r.X < 0 || r.Y < 0 || r.Right() > bounds.Dx() || r.Bottom() > bounds.Dy() {
		return fmt.Errorf("%w: %+v in %dx%d", ErrRegionOutOfBounds, r, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, image.Rect(r.X, r.Y, r.Right(), r.Bottom()))

	return save(cropped, dst)
}

// save encodes the image according to dst's extension. webp is handled
// separately since the imaging package does not cover it.
func save(img image.Image, dst string) error {
	if strings.ToLower(filepath.Ext(dst)) == ".webp" {
		return saveWebP(img, dst)
	}

	if err := imaging.Save(img, dst); err != nil {
		return fmt.Errorf("save %s: %w", dst, err)
	}
	return nil
}

func saveWebP(img image.Image, dst string) error {
	f, err := os.Create(dst) // #nosec G304 - dst is derived by the executor
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if err := webp.Encode(f, img, &webp.Options{Quality: webpQuality}); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("encode webp %s: %w", dst, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
