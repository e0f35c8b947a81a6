// Package media provides image processing utilities
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

var (
	ErrEmptyImage       = errors.New("empty base64 data")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrImageTooLarge    = errors.New("image exceeds maximum upload size")
)

var dataURIPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)

// formats maps data URI subtypes to file extensions.
var formats = map[string]string{
	"png":     "png",
	"jpeg":    "jpg",
	"jpg":     "jpg",
	"gif":     "gif",
	"webp":    "webp",
	"svg+xml": "svg",
}

// Options configures an ImageProcessor.
type Options struct {
	BasePath  string
	URLPrefix string
	MaxBytes  int
	MaxWidth  int
	Quality   float32
}

// StoredImage describes the files written for one upload. WebPURL is empty
// for vector images.
type StoredImage struct {
	OriginalURL string `json:"originalUrl"`
	WebPURL     string `json:"webpUrl,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Bytes       int    `json:"bytes"`
}

// URL returns the variant to embed in pages.
func (s *StoredImage) URL() string {
	if s.WebPURL != "" {
		return s.WebPURL
	}
	return s.OriginalURL
}

// ImageProcessor stores uploaded page images under BasePath and serves them
// under URLPrefix.
type ImageProcessor struct {
	opts   Options
	logger *logging.ChanneledLogger
}

// NewImageProcessor creates a new ImageProcessor instance
func NewImageProcessor(opts Options, logger *logging.ChanneledLogger) *ImageProcessor {
	if opts.URLPrefix == "" {
		opts.URLPrefix = "/media"
	}
	opts.URLPrefix = "/" + strings.Trim(opts.URLPrefix, "/")
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1200
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &ImageProcessor{opts: opts, logger: logger}
}

// ProcessBase64Image decodes a data URI, stores the original as
// {subdir}/{name}.{ext} and, for raster images, a WebP variant no wider than
// MaxWidth as {subdir}/{name}.webp.
func (p *ImageProcessor) ProcessBase64Image(data, name, subdir string) (*StoredImage, error) {
	if data == "" {
		return nil, ErrEmptyImage
	}

	match := dataURIPattern.FindStringSubmatch(data)
	if match == nil {
		return nil, fmt.Errorf("%w: missing data URI prefix", ErrUnsupportedImage)
	}
	ext, ok := formats[strings.ToLower(match[1])]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, match[1])
	}

	decoded, err := base64.StdEncoding.DecodeString(data[len(match[0]):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	if p.opts.MaxBytes > 0 && len(decoded) > p.opts.MaxBytes {
		return nil, ErrImageTooLarge
	}

	targetDir := filepath.Join(p.opts.BasePath, subdir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// the webp variant takes the .webp name, so a webp original is stored as source
	originalName := name + "." + ext
	if ext == "webp" {
		originalName = name + ".source.webp"
	}
	originalPath := filepath.Join(targetDir, originalName)
	if err := os.WriteFile(originalPath, decoded, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}

	stored := &StoredImage{
		OriginalURL: p.publicURL(subdir, originalName),
		Bytes:       len(decoded),
	}

	if ext == "svg" {
		p.logger.Media().Info("Stored vector image", "path", originalPath, "bytes", len(decoded))
		return stored, nil
	}

	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		os.Remove(originalPath)
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > p.opts.MaxWidth {
		img = imaging.Resize(img, p.opts.MaxWidth, 0, imaging.Lanczos)
	}

	webpName := name + ".webp"
	webpPath := filepath.Join(targetDir, webpName)
	if err := webp.Save(webpPath, img, &webp.Options{Quality: p.opts.Quality}); err != nil {
		os.Remove(originalPath)
		p.logger.Media().Error("Failed to save WebP variant", "path", webpPath, "error", err.Error())
		return nil, fmt.Errorf("failed to save WebP variant: %w", err)
	}

	stored.WebPURL = p.publicURL(subdir, webpName)
	stored.Width = img.Bounds().Dx()
	stored.Height = img.Bounds().Dy()

	p.logger.Media().Info("Stored image", "original", originalPath, "webp", webpPath,
		"width", stored.Width, "height", stored.Height, "bytes", len(decoded))
	return stored, nil
}

// Delete removes every file stored for name under subdir.
func (p *ImageProcessor) Delete(name, subdir string) error {
	matches, err := filepath.Glob(filepath.Join(p.opts.BasePath, subdir, name+".*"))
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove image %s: %w", m, err)
		}
	}
	p.logger.Media().Debug("Deleted images", "name", name, "subdir", subdir, "count", len(matches))
	return nil
}

func (p *ImageProcessor) publicURL(subdir, filename string) string {
	return path.Join(p.opts.URLPrefix, filepath.ToSlash(subdir), filename)
}
