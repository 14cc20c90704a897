package images

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher downloads product images from Amazon's CDN into a local directory,
// one file per ASIN.
type Fetcher struct {
	client    *http.Client
	outputDir string
}

// NewFetcher creates a fetcher writing originals under outputDir.
func NewFetcher(outputDir string) *Fetcher {
	if outputDir == "" {
		outputDir = "images/originals"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		outputDir: outputDir,
	}
}

// Download fetches an image and saves it as <asin>.<ext>. Returns the
// destination path and a human-readable size.
func (f *Fetcher) Download(url, asin string) (string, string, error) {
	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return "", "", err
	}

	ext := ".jpg"
	if strings.Contains(url, ".png") {
		ext = ".png"
	} else if strings.Contains(url, ".webp") {
		ext = ".webp"
	}

	destPath := filepath.Join(f.outputDir, asin+ext)

	resp, err := f.client.Get(url)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to download: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", "", err
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", "", err
	}

	return destPath, formatSize(n), nil
}

// ValidateURL checks if a URL is accessible (returns HTTP 200)
func (f *Fetcher) ValidateURL(url string) (bool, error) {
	resp, err := f.client.Head(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// DownloadWithValidation downloads an image only if a HEAD probe succeeds
// first, avoiding half-written files for dead CDN links.
func (f *Fetcher) DownloadWithValidation(url, asin string) (string, string, error) {
	valid, err := f.ValidateURL(url)
	if err != nil {
		return "", "", fmt.Errorf("validation failed: %w", err)
	}
	if !valid {
		return "", "", fmt.Errorf("URL returned non-200 status")
	}

	return f.Download(url, asin)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
