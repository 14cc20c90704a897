package images

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// StorefrontSizes are the square variants the storefront serves: thumbnail,
// card and detail view.
var StorefrontSizes = []int{160, 320, 500}

// Resizer produces square storefront variants from downloaded originals.
type Resizer struct {
	inputDir  string
	outputDir string
}

// NewResizer creates a resizer reading originals from inputDir and writing
// variants under outputDir/<size>/.
func NewResizer(inputDir, outputDir string) *Resizer {
	if inputDir == "" {
		inputDir = "images/originals"
	}
	if outputDir == "" {
		outputDir = "images/resized"
	}
	return &Resizer{inputDir: inputDir, outputDir: outputDir}
}

// FindOriginals returns paths to all downloaded originals.
func (r *Resizer) FindOriginals() ([]string, error) {
	var found []string

	err := filepath.Walk(r.inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".webp" {
			found = append(found, path)
		}
		return nil
	})

	return found, err
}

// ResizeVariants produces every storefront size for one original, returning
// the written paths.
func (r *Resizer) ResizeVariants(srcPath string) ([]string, error) {
	paths := make([]string, 0, len(StorefrontSizes))
	for _, size := range StorefrontSizes {
		dest, err := r.ResizeSquare(srcPath, size)
		if err != nil {
			return paths, fmt.Errorf("failed to resize %s to %d: %w", srcPath, size, err)
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

// ResizeSquare center-crops an image to a square and scales it to size.
func (r *Resizer) ResizeSquare(srcPath string, size int) (string, error) {
	src, err := imaging.Open(srcPath)
	if err != nil {
		return "", err
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var cropped image.Image
	switch {
	case width > height:
		offset := (width - height) / 2
		cropped = imaging.Crop(src, image.Rect(offset, 0, offset+height, height))
	case height > width:
		offset := (height - width) / 2
		cropped = imaging.Crop(src, image.Rect(0, offset, width, offset+width))
	default:
		cropped = imaging.Clone(src)
	}

	resized := imaging.Resize(cropped, size, size, imaging.Lanczos)

	sizeDir := filepath.Join(r.outputDir, fmt.Sprintf("%d", size))
	if err := os.MkdirAll(sizeDir, 0755); err != nil {
		return "", err
	}

	destPath := filepath.Join(sizeDir, filepath.Base(srcPath))
	if err := imaging.Save(resized, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}
