package httpapi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Processed image dimensions. Uploads are center-cropped to a square so
// every served image renders uniformly.
const (
	imageSize = 512
)

// processImage decodes an upload, center-crops it to imageSize x imageSize,
// and writes it as PNG under dir with a fresh random name. Returns the
// stored file name.
func processImage(dir string, upload io.Reader) (string, error) {
	img, err := imaging.Decode(upload, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	img = imaging.Fill(img, imageSize, imageSize, imaging.Center, imaging.Lanczos)

	name := uuid.NewString() + ".png"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("save processed image: %w", err)
	}

	return name, nil
}
