// utils/file_utils.go
package utils

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const uploadBaseDir = "uploads"

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func cleanFilename(filename string) string {
	name := filepath.Base(filename)
	return filenameSanitizer.ReplaceAllString(name, "_")
}

// SaveUpload stores a multipart file under uploads/<subDir> with a
// timestamped name and returns the relative path.
func SaveUpload(file *multipart.FileHeader, subDir string) (string, error) {
	dir := filepath.Join(uploadBaseDir, subDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), cleanFilename(file.Filename))
	fullPath := filepath.Join(dir, filename)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return fullPath, nil
}

// GenerateCoverThumbnail resamples a stored cover image down to a 320px-wide
// JPEG next to the original under uploads/thumbnails and returns its path.
func GenerateCoverThumbnail(coverPath string) (string, error) {
	img, err := imaging.Open(coverPath)
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}

	resized := imaging.Resize(img, 320, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	base := filepath.Base(coverPath)
	thumbName := strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
	thumbDir := filepath.Join(uploadBaseDir, "thumbnails")
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	thumbPath := filepath.Join(thumbDir, thumbName)
	if err := os.WriteFile(thumbPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return thumbPath, nil
}
