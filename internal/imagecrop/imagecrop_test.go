package imagecrop

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/hyase/cropbatch/internal/geometry"
)

// writeTestPNG creates an image with a red block at the crop target so
// pixel content can be verified after cropping.
func writeTestPNG(t *testing.T, path string, w, h int, mark geometry.Rect) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := mark.Y; y < mark.Bottom(); y++ {
		for x := mark.X; x < mark.Right(); x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestCrop_PNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	r := geometry.Rect{X: 20, Y: 30, W: 50, H: 40}

	writeTestPNG(t, src, 200, 150, r)

	if err := Crop(src, dst, r); err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 40 {
		t.Errorf("output = %dx%d, want 50x40", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// The marked block filled the crop region, so every output pixel is red.
	c := color.RGBAModel.Convert(out.At(0, 0)).(color.RGBA)
	if c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("pixel (0,0) = %+v, want red", c)
	}
	c = color.RGBAModel.Convert(out.At(49, 39)).(color.RGBA)
	if c.R != 255 {
		t.Errorf("pixel (49,39) = %+v, want red", c)
	}
}

func TestCrop_FormatConversion(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	r := geometry.Rect{X: 0, Y: 0, W: 32, H: 32}
	writeTestPNG(t, src, 64, 64, r)

	exts := []string{".jpg", ".bmp", ".gif", ".webp"}
	for _, ext := range exts {
		t.Run(ext, func(t *testing.T) {
			dst := filepath.Join(dir, "out"+ext)
			if err := Crop(src, dst, r); err != nil {
				t.Fatalf("Crop to %s failed: %v", ext, err)
			}

			out, err := imaging.Open(dst)
			if err != nil {
				t.Fatalf("open output: %v", err)
			}
			if out.Bounds().Dx() != 32 || out.Bounds().Dy() != 32 {
				t.Errorf("output = %dx%d, want 32x32", out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}

func TestCrop_Rejections(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeTestPNG(t, src, 100, 100, geometry.Rect{})

	tests := []struct {
		name string
		r    geometry.Rect
		want error
	}{
		{"empty region", geometry.Rect{X: 10, Y: 10}, ErrEmptyRegion},
		{"out of bounds right", geometry.Rect{X: 80, Y: 0, W: 40, H: 40}, ErrRegionOutOfBounds},
		{"out of bounds bottom", geometry.Rect{X: 0, Y: 90, W: 40, H: 40}, ErrRegionOutOfBounds},
		{"negative origin", geometry.Rect{X: -1, Y: 0, W: 40, H: 40}, ErrRegionOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Crop(src, filepath.Join(dir, "out.png"), tt.r)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCrop_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Crop(filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.png"), geometry.Rect{W: 10, H: 10})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
