package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Curso de Programação!", "curso-de-programacao"},
		{"  Olá   Mundo  ", "ola-mundo"},
		{"Açaí & Café 2024", "acai-cafe-2024"},
		{"***", ""},
		{strings.Repeat("a", 80), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreatePageAssignsUniqueSlugs(t *testing.T) {
	e := newEnv(t)

	first := e.createPage(t, "Curso de Go")
	second := e.createPage(t, "Curso de Go")

	if first.Slug != "curso-de-go" || second.Slug != "curso-de-go-2" {
		t.Errorf("slugs = %q, %q", first.Slug, second.Slug)
	}
	if !security.IsULID(first.ID) || !first.Active {
		t.Errorf("page = %+v", first)
	}
}

func TestCreatePageValidates(t *testing.T) {
	e := newEnv(t)
	_, err := e.pages.Create(context.Background(), PageInput{Title: "x", ProductName: "y", AmountCents: 0, PrimaryColor: "red;}"})
	if !errors.Is(err, checkout.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "amountCents") || !strings.Contains(err.Error(), "invalid color") {
		t.Errorf("err = %v", err)
	}
}

func TestUpdatePageSlugConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.createPage(t, "Primeira")
	e.createPage(t, "Segunda")

	_, err := e.pages.Update(ctx, a.ID, PageInput{Title: "Primeira", Slug: "segunda", ProductName: "P", AmountCents: 100})
	if !errors.Is(err, checkout.ErrSlugTaken) {
		t.Fatalf("err = %v", err)
	}

	active := false
	updated, err := e.pages.Update(ctx, a.ID, PageInput{Title: "Primeira", Slug: "Nova Página", ProductName: "P", AmountCents: 100, Active: &active})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Slug != "nova-pagina" || updated.Active {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := e.pages.GetActiveBySlug(ctx, "nova-pagina"); !errors.Is(err, checkout.ErrPageInactive) {
		t.Errorf("inactive page served: %v", err)
	}
}

func TestSaveElementsInvalidatesFragments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")

	e.cache.SetHTMLChunk(page.ID, types.VariantCheckoutForm, "<old>", []string{page.ID})

	saved, err := e.pages.SaveElements(ctx, page, []layout.CustomElement{
		{Type: layout.TypeText, Position: layout.At(5), Content: "<b>ok</b><script>x</script>"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := e.cache.GetHTMLChunk(page.ID, types.VariantCheckoutForm); ok {
		t.Error("form chunk survived an element save")
	}
	if page.CustomElements == saved.CustomElements {
		t.Error("SaveElements modified its input page")
	}

	elements, err := saved.Elements()
	if err != nil {
		t.Fatal(err)
	}
	if len(elements) != 1 || elements[0].ID == "" || strings.Contains(elements[0].Content, "script") {
		t.Errorf("elements = %+v", elements)
	}
}

func TestDeletePage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")

	if err := e.pages.Delete(ctx, page.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.pages.Get(ctx, page.ID); !IsNotFound(err) {
		t.Errorf("deleted page still found: %v", err)
	}
}
