package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/media"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

// Upload kinds and the directories they are stored in.
const (
	MediaKindLogo    = "logo"
	MediaKindElement = "element"
)

var mediaDirs = map[string]string{
	MediaKindLogo:    "logos",
	MediaKindElement: "elements",
}

// UploadInput is one base64 data URI image upload. A logo upload with a
// PageID becomes that page's logo.
type UploadInput struct {
	Kind   string `json:"kind"`
	PageID string `json:"pageId"`
	Data   string `json:"data"`
}

// UploadResult describes a stored upload.
type UploadResult struct {
	ID    string             `json:"id"`
	URL   string             `json:"url"`
	Image *media.StoredImage `json:"image"`
	Page  *checkout.Page     `json:"page,omitempty"`
}

// ImageStore persists uploaded images.
type ImageStore interface {
	ProcessBase64Image(data, name, subdir string) (*media.StoredImage, error)
	Delete(name, subdir string) error
}

// MediaService stores page logos and element images.
type MediaService struct {
	images ImageStore
	pages  *PageService
	logger *logging.ChanneledLogger
}

// NewMediaService creates the media service.
func NewMediaService(images ImageStore, pages *PageService, logger *logging.ChanneledLogger) *MediaService {
	return &MediaService{images: images, pages: pages, logger: logger}
}

// Upload stores an image and returns the URL to embed in pages.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = MediaKindElement
	}
	dir, ok := mediaDirs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown upload kind %q", checkout.ErrInvalidInput, in.Kind)
	}

	var page *checkout.Page
	if kind == MediaKindLogo && in.PageID != "" {
		p, err := s.pages.Get(ctx, in.PageID)
		if err != nil {
			return nil, err
		}
		page = p
	}

	start := time.Now()
	id := security.GenerateULID()
	stored, err := s.images.ProcessBase64Image(in.Data, id, dir)
	if err != nil {
		if errors.Is(err, media.ErrEmptyImage) || errors.Is(err, media.ErrUnsupportedImage) || errors.Is(err, media.ErrImageTooLarge) {
			return nil, fmt.Errorf("%w: %v", checkout.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	result := &UploadResult{ID: id, URL: stored.URL(), Image: stored}
	if page != nil {
		saved, err := s.pages.SetLogo(ctx, page, result.URL)
		if err != nil {
			if cleanupErr := s.images.Delete(id, dir); cleanupErr != nil {
				s.logger.Media().Warn("Failed to remove orphaned upload", "id", id, "error", cleanupErr.Error())
			}
			return nil, err
		}
		result.Page = saved
	}

	s.logger.Media().Info("Image uploaded", "id", id, "kind", kind, "url", result.URL, "pageId", in.PageID, "duration", time.Since(start))
	return result, nil
}
