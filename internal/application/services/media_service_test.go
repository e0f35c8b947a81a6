package services

import (
	"context"
	"errors"
	"testing"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/media"
)

type fakeImages struct {
	stored  []string
	deleted []string
	err     error
}

func (f *fakeImages) ProcessBase64Image(data, name, subdir string) (*media.StoredImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.stored = append(f.stored, subdir+"/"+name)
	return &media.StoredImage{
		OriginalURL: "/media/" + subdir + "/" + name + ".png",
		WebPURL:     "/media/" + subdir + "/" + name + ".webp",
	}, nil
}

func (f *fakeImages) Delete(name, subdir string) error {
	f.deleted = append(f.deleted, subdir+"/"+name)
	return nil
}

func TestUploadLogoUpdatesPage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	images := &fakeImages{}
	svc := NewMediaService(images, e.pages, e.logger)
	page := e.createPage(t, "Curso")

	result, err := svc.Upload(ctx, UploadInput{Kind: "logo", PageID: page.ID, Data: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatal(err)
	}
	if result.URL != "/media/logos/"+result.ID+".webp" {
		t.Errorf("url = %s", result.URL)
	}

	stored, _ := e.pages.Get(ctx, page.ID)
	if stored.LogoURL != result.URL || !stored.ShowLogo {
		t.Errorf("page logo = %q show=%v", stored.LogoURL, stored.ShowLogo)
	}
}

func TestUploadElementImage(t *testing.T) {
	e := newEnv(t)
	images := &fakeImages{}
	svc := NewMediaService(images, e.pages, e.logger)

	result, err := svc.Upload(context.Background(), UploadInput{Data: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatal(err)
	}
	if len(images.stored) != 1 || images.stored[0] != "elements/"+result.ID || result.Page != nil {
		t.Errorf("stored = %v", images.stored)
	}
}

func TestUploadErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	svc := NewMediaService(&fakeImages{}, e.pages, e.logger)
	if _, err := svc.Upload(ctx, UploadInput{Kind: "video"}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("unknown kind: %v", err)
	}
	if _, err := svc.Upload(ctx, UploadInput{Kind: "logo", PageID: "missing", Data: "x"}); !IsNotFound(err) {
		t.Errorf("missing page: %v", err)
	}

	tooLarge := NewMediaService(&fakeImages{err: media.ErrImageTooLarge}, e.pages, e.logger)
	if _, err := tooLarge.Upload(ctx, UploadInput{Data: "x"}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("oversized upload: %v", err)
	}
}
