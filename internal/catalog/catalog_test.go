package catalog

import (
	"context"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// writePNG creates a real PNG file with the given dimensions.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func skipIfNoFFprobe(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// writeTestClip synthesizes a short video via ffmpeg's test source.
func writeTestClip(t *testing.T, path string) {
	t.Helper()
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=64x48:rate=10",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot synthesize test clip: %v: %s", err, out)
	}
}

func TestExtractFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	skipIfNoFFprobe(t)

	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	writeTestClip(t, clip)

	p := NewProber("", "")
	frame := filepath.Join(dir, "frame.png")
	if err := p.ExtractFrame(context.Background(), clip, frame); err != nil {
		t.Fatalf("ExtractFrame failed: %v", err)
	}

	w, h, err := imageDimensions(frame)
	if err != nil {
		t.Fatalf("decode extracted frame: %v", err)
	}
	if w != 64 || h != 48 {
		t.Errorf("frame = %dx%d, want 64x48", w, h)
	}
}

func TestDuration_Clip(t *testing.T) {
	skipIfNoFFmpeg(t)
	skipIfNoFFprobe(t)

	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	writeTestClip(t, clip)

	p := NewProber("", "")
	d, err := p.Duration(context.Background(), clip)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if d < 0.5 || d > 2.0 {
		t.Errorf("duration = %.2fs, want about 1s", d)
	}
}

func TestProbe_Image(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 320, 240)

	p := NewProber("", "")
	item, err := p.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if item.Kind != KindImage {
		t.Errorf("kind = %v, want image", item.Kind)
	}
	if item.Width != 320 || item.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", item.Width, item.Height)
	}
}

func TestProbe_Unreadable(t *testing.T) {
	dir := t.TempDir()
	p := NewProber("", "")
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := p.Probe(ctx, filepath.Join(dir, "nope.png"))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unrecognized format", func(t *testing.T) {
		path := filepath.Join(dir, "junk.bin")
		if err := os.WriteFile(path, []byte("not really media content"), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := p.Probe(ctx, path)
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCatalog_AddAndGroup(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	junk := filepath.Join(dir, "junk.bin")

	writePNG(t, a, 800, 600)
	writePNG(t, b, 800, 600)
	writePNG(t, c, 640, 480)
	if err := os.WriteFile(junk, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	cat := New(NewProber("", ""), nil)
	added, unreadable := cat.Add(context.Background(), a, b, c, junk)

	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	if unreadable != 1 {
		t.Errorf("unreadable = %d, want 1", unreadable)
	}
	if cat.Len() != 3 {
		t.Errorf("Len = %d, want 3", cat.Len())
	}

	t.Run("duplicate add ignored", func(t *testing.T) {
		added, _ := cat.Add(context.Background(), a)
		if added != 0 {
			t.Errorf("added = %d, want 0 for duplicate", added)
		}
	})

	t.Run("same size grouping", func(t *testing.T) {
		ref, ok := cat.Get(a)
		if !ok {
			t.Fatal("reference item missing")
		}
		group := cat.SameSizeAs(ref)
		if len(group) != 2 {
			t.Errorf("group size = %d, want 2", len(group))
		}
		for _, item := range group {
			if item.Path == c {
				t.Error("640x480 item must not join the 800x600 group")
			}
		}
	})

	t.Run("size groups", func(t *testing.T) {
		groups := cat.SizeGroups()
		if len(groups) != 2 {
			t.Fatalf("groups = %d, want 2", len(groups))
		}
		if len(groups["800x600"]) != 2 || len(groups["640x480"]) != 1 {
			t.Errorf("unexpected grouping: %v", groups)
		}
	})
}

func TestCatalog_RemoveAndClear(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 100, 100)
	writePNG(t, b, 100, 100)

	cat := New(NewProber("", ""), nil)
	cat.Add(context.Background(), a, b)

	if !cat.Remove(a) {
		t.Error("expected Remove to report presence")
	}
	if cat.Remove(a) {
		t.Error("expected second Remove to report absence")
	}
	if cat.Len() != 1 {
		t.Errorf("Len = %d, want 1", cat.Len())
	}
	if _, ok := cat.Get(b); !ok {
		t.Error("remaining item must stay reachable after remove")
	}

	cat.Clear()
	if cat.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", cat.Len())
	}
}

func TestDuration_RequiresFFprobe(t *testing.T) {
	skipIfNoFFprobe(t)

	// A still image has no duration stream but exercises the full
	// ffprobe round trip; errors here must be well-formed.
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	writePNG(t, path, 64, 64)

	p := NewProber("", "")
	if _, err := p.Duration(context.Background(), filepath.Join(dir, "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}
