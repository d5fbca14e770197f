package prismblog

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	w, h, data, err := processImage(bytes.NewReader(encodePNG(t, 2400, 1000)))
	if err != nil {
		t.Fatalf("processImage: %v", err)
	}
	if w != maxImageWidth || h != 500 {
		t.Errorf("size = %dx%d, want %dx500", w, h, maxImageWidth)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Errorf("encoded size = %v, want %dx%d", b, w, h)
	}
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	w, h, _, err := processImage(bytes.NewReader(encodePNG(t, 300, 200)))
	if err != nil {
		t.Fatalf("processImage: %v", err)
	}
	if w != 300 || h != 200 {
		t.Errorf("size = %dx%d, want 300x200", w, h)
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	if _, _, _, err := processImage(strings.NewReader("not an image")); err == nil {
		t.Error("expected an error for non-image input")
	}
}

func TestLocalizeBanner(t *testing.T) {
	body := encodePNG(t, 1600, 900)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/b.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()
	out := t.TempDir()

	got, err := localizeBanner(context.Background(), srv.Client(), srv.URL+"/b.png", "hooks", out)
	if err != nil {
		t.Fatalf("localizeBanner: %v", err)
	}
	if got != "/public/images/hooks.jpg" {
		t.Errorf("path = %q", got)
	}
	f, err := os.Open(filepath.Join(out, "public", "images", "hooks.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != maxImageWidth {
		t.Errorf("width = %d, want %d", cfg.Width, maxImageWidth)
	}

	if _, err := localizeBanner(context.Background(), srv.Client(), srv.URL+"/gone.png", "gone", out); err == nil {
		t.Error("expected an error for a 404 banner")
	}
}
