package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
)

func strPtr(s string) *string { return &s }

func addText(t *testing.T, e *env, pageID string, pos layout.Position, content string) *layout.CustomElement {
	t.Helper()
	el, err := e.elements.Add(context.Background(), pageID, ElementInput{Position: &pos, Content: strPtr(content)})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return el
}

func TestAddElementDefaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")

	text, err := e.elements.Add(ctx, page.ID, ElementInput{Content: strPtr("Oferta")})
	if err != nil {
		t.Fatal(err)
	}
	if text.Type != layout.TypeText || text.Position.Symbol() != layout.SymbolMiddle || text.ID == "" {
		t.Errorf("text element = %+v", text)
	}

	img, err := e.elements.Add(ctx, page.ID, ElementInput{Type: strPtr("image"), Content: strPtr("/media/elements/a.webp")})
	if err != nil {
		t.Fatal(err)
	}
	if img.Styles == nil || img.Styles.ImageSize.CSS() != "200px" || img.Bucket() != layout.BucketMiddle {
		t.Errorf("image element = %+v", img)
	}

	list, err := e.elements.List(ctx, page.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("List = %d elements", len(list))
	}
}

func TestUpdateAndMoveElement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")
	el := addText(t, e, page.ID, layout.At(5), "antes")

	updated, err := e.elements.Update(ctx, page.ID, el.ID, ElementInput{Content: strPtr("depois")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Content != "depois" || updated.Position.Value() != 5 {
		t.Errorf("updated = %+v", updated)
	}

	moved, err := e.elements.Move(ctx, page.ID, el.ID, layout.At(1200))
	if err != nil {
		t.Fatal(err)
	}
	if moved.Bucket() != layout.BucketFooter {
		t.Errorf("moved into %s", moved.Bucket())
	}

	if _, err := e.elements.Move(ctx, page.ID, el.ID, layout.Position{}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("move without position: %v", err)
	}
	if _, err := e.elements.Update(ctx, page.ID, "missing", ElementInput{}); !errors.Is(err, checkout.ErrElementNotFound) {
		t.Errorf("update missing: %v", err)
	}
}

func TestDeleteElementCompacts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")
	a := addText(t, e, page.ID, layout.At(20), "a")
	b := addText(t, e, page.ID, layout.At(40), "b")
	c := addText(t, e, page.ID, layout.At(60), "c")

	if err := e.elements.Delete(ctx, page.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	list, err := e.elements.List(ctx, page.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]float64{}
	for _, el := range list {
		got[el.ID] = el.Position.Value()
	}
	want := map[string]float64{a.ID: 10, c.ID: 11}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
}

func TestReorderBucket(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")
	a := addText(t, e, page.ID, layout.At(10), "a")
	b := addText(t, e, page.ID, layout.At(11), "b")
	c := addText(t, e, page.ID, layout.Named(layout.SymbolMiddle), "c")
	top := addText(t, e, page.ID, layout.At(2), "top")

	ordered, err := e.elements.Reorder(ctx, page.ID, layout.BucketMiddle, []string{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, el := range ordered {
		ids = append(ids, el.ID)
	}
	if !reflect.DeepEqual(ids, []string{c.ID, a.ID, b.ID}) {
		t.Errorf("order = %v", ids)
	}
	if !ordered[0].Position.IsSymbolic() {
		t.Errorf("symbolic position rewritten to %v", ordered[0].Position)
	}

	ordered, err = e.elements.Reorder(ctx, page.ID, layout.BucketMiddle, []string{a.ID, c.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	ids = ids[:0]
	for _, el := range ordered {
		ids = append(ids, el.ID)
	}
	if !reflect.DeepEqual(ids, []string{a.ID, c.ID, b.ID}) {
		t.Errorf("order around symbolic = %v", ids)
	}

	list, _ := e.elements.List(ctx, page.ID)
	for _, el := range list {
		if el.ID == top.ID && el.Position.Value() != 2 {
			t.Error("reorder moved an element of another bucket")
		}
	}

	if _, err := e.elements.Reorder(ctx, page.ID, layout.BucketMiddle, []string{a.ID, b.ID}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("short id list: %v", err)
	}
	if _, err := e.elements.Reorder(ctx, page.ID, layout.BucketMiddle, []string{a.ID, b.ID, top.ID}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("foreign id: %v", err)
	}
	if _, err := e.elements.Reorder(ctx, page.ID, layout.BucketHeader, nil); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("header reorder: %v", err)
	}
}

func TestCompactElements(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")
	addText(t, e, page.ID, layout.At(-30), "antes do logo")
	addText(t, e, page.ID, layout.Named(layout.SymbolBottom), "fim")

	compacted, err := e.elements.Compact(ctx, page.ID)
	if err != nil {
		t.Fatal(err)
	}
	if compacted[0].Position.Value() != -11 {
		t.Errorf("before-logo position = %v", compacted[0].Position.Value())
	}
	bottom := compacted[1]
	if !bottom.Position.IsSymbolic() || bottom.Position.Symbol() != layout.SymbolBottom {
		t.Errorf("symbolic bottom rewritten to %v", bottom.Position)
	}
	if layout.IsFooterLike(bottom, bottom.Bucket()) {
		t.Error("compacted symbolic bottom picked up footer styling")
	}
}

func TestPreviewRendersDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")
	addText(t, e, page.ID, layout.At(1), "salvo")

	draft := &checkout.Template{
		CustomTitle: "Título do rascunho",
		CustomElements: []layout.CustomElement{
			{ID: "d1", Type: layout.TypeText, Position: layout.At(1500), Content: "rodapé do rascunho"},
		},
	}
	html, err := e.elements.Preview(ctx, page.ID, draft)
	if err != nil {
		t.Fatal(err)
	}
	out := string(html)
	if !strings.Contains(out, "Título do rascunho") || !strings.Contains(out, "rodapé do rascunho") {
		t.Error("draft not rendered")
	}
	if strings.Contains(out, "salvo") {
		t.Error("stored elements rendered instead of the draft")
	}
	if !strings.Contains(out, "R$ 49,90") {
		t.Error("preview slot missing")
	}

	stored, _ := e.pages.Get(ctx, page.ID)
	if stored.CustomTitle == "Título do rascunho" {
		t.Error("preview saved the draft")
	}
}
