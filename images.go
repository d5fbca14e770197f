package prismblog

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/image/draw"
)

const (
	maxImageWidth  = 1200
	jpegQuality    = 80
	maxBannerBytes = 10 << 20 // 10MB
	imagesSubdir   = "images"
)

// processImage decodes an image from src, resizes it to maxImageWidth when
// wider, and encodes it as JPEG. It returns the final size and the bytes.
func processImage(src io.Reader) (width, height int, data []byte, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return 0, 0, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return w, h, buf.Bytes(), nil
}

// localizeBanner downloads the banner at rawURL, resizes it and writes it
// under {outDir}/public/images/{uid}.jpg. It returns the site path of the
// written file.
func localizeBanner(ctx context.Context, hc *http.Client, rawURL, uid, outDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download banner: status %d", resp.StatusCode)
	}

	_, _, data, err := processImage(io.LimitReader(resp.Body, maxBannerBytes))
	if err != nil {
		return "", err
	}

	dir := filepath.Join(outDir, "public", imagesSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	name := uid + ".jpg"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join("/public", imagesSubdir, name), nil
}
