package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 50, G: 188, B: 173, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProcessBase64ImageResizesToWebP(t *testing.T) {
	dir := t.TempDir()
	p := NewImageProcessor(Options{BasePath: dir, URLPrefix: "media/", MaxWidth: 100}, nil)

	stored, err := p.ProcessBase64Image(pngDataURI(t, 400, 200), "logo-1", "logos")
	if err != nil {
		t.Fatalf("ProcessBase64Image: %v", err)
	}

	if stored.OriginalURL != "/media/logos/logo-1.png" || stored.WebPURL != "/media/logos/logo-1.webp" {
		t.Errorf("urls = %q %q", stored.OriginalURL, stored.WebPURL)
	}
	if stored.Width != 100 || stored.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", stored.Width, stored.Height)
	}
	if stored.URL() != stored.WebPURL {
		t.Error("URL should prefer the webp variant")
	}
	for _, name := range []string{"logo-1.png", "logo-1.webp"} {
		if _, err := os.Stat(filepath.Join(dir, "logos", name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	if err := p.Delete("logo-1", "logos"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "logos", "logo-1.png")); !os.IsNotExist(err) {
		t.Error("original survived delete")
	}
}

func TestProcessBase64ImageSVG(t *testing.T) {
	p := NewImageProcessor(Options{BasePath: t.TempDir()}, nil)
	svg := base64.StdEncoding.EncodeToString([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))

	stored, err := p.ProcessBase64Image("data:image/svg+xml;base64,"+svg, "mark", "elements")
	if err != nil {
		t.Fatal(err)
	}
	if stored.WebPURL != "" || stored.URL() != "/media/elements/mark.svg" {
		t.Errorf("svg stored = %+v", stored)
	}
}

func TestProcessBase64ImageRejects(t *testing.T) {
	p := NewImageProcessor(Options{BasePath: t.TempDir(), MaxBytes: 10}, nil)

	if _, err := p.ProcessBase64Image("", "x", "logos"); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty = %v", err)
	}
	if _, err := p.ProcessBase64Image("data:text/html;base64,PGgxPg==", "x", "logos"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("html = %v", err)
	}
	if _, err := p.ProcessBase64Image("data:image/tiff;base64,AAAA", "x", "logos"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("tiff = %v", err)
	}
	if _, err := p.ProcessBase64Image(pngDataURI(t, 8, 8), "x", "logos"); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("oversize = %v", err)
	}
}
