package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/ai"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

type staticConfig struct{ cfg ai.Config }

func (s *staticConfig) AIConfig(context.Context) (ai.Config, error) { return s.cfg, nil }

type scriptedCompleter struct {
	reply   string
	prompts []string
}

func (c *scriptedCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.reply, nil
}

func TestAIEditReconcilesAndApplies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")
	kept := addText(t, e, page.ID, layout.At(5), "Oferta")
	page, _ = e.pages.Get(ctx, page.ID)

	completer := &scriptedCompleter{reply: "Claro! Aqui está:\n```json\n{" +
		`"customTitle": "<i>Black Friday</i>",` +
		`"primaryColor": "red; background: url(x)",` +
		`"headerHeight": -4,` +
		`"customElements": [` +
		`{"id": "` + kept.ID + `", "type": "text", "position": 5, "content": "Oferta <b>imperdível</b>"},` +
		`{"id": "", "type": "text", "position": "bottom", "content": "Garantia<script>x()</script>"},` +
		`{"id": "` + kept.ID + `", "type": "footer", "position": 1000, "content": "duplicado"}` +
		"]}\n```"}
	factoryCalls := 0
	svc := NewTemplateAIService(e.pages, &staticConfig{cfg: ai.Config{Provider: "openai", APIKey: "k"}},
		func(ai.Config) (ai.Completer, error) {
			factoryCalls++
			return completer, nil
		}, e.logger, e.tracker)

	result, err := svc.Edit(ctx, page.ID, "deixe com cara de black friday", nil, true)
	if err != nil {
		t.Fatal(err)
	}

	tmpl := result.Template
	if tmpl.CustomTitle != "Black Friday" {
		t.Errorf("title = %q", tmpl.CustomTitle)
	}
	if tmpl.PrimaryColor != page.PrimaryColor || tmpl.HeaderHeight != page.HeaderHeight {
		t.Errorf("invalid model values kept: %q %d", tmpl.PrimaryColor, tmpl.HeaderHeight)
	}
	if len(tmpl.CustomElements) != 3 {
		t.Fatalf("elements = %d", len(tmpl.CustomElements))
	}
	if tmpl.CustomElements[0].ID != kept.ID {
		t.Error("existing element lost its id")
	}
	for _, el := range tmpl.CustomElements[1:] {
		if el.ID == kept.ID || !security.IsULID(el.ID) {
			t.Errorf("new element id = %q", el.ID)
		}
	}
	if strings.Contains(tmpl.CustomElements[1].Content, "script") {
		t.Error("unsafe content survived")
	}
	if !strings.Contains(completer.prompts[0], kept.ID) {
		t.Error("current template not sent to the model")
	}

	if !result.Applied || result.Page == nil {
		t.Fatal("edit not applied")
	}
	stored, _ := e.pages.Get(ctx, page.ID)
	elements, _ := stored.Elements()
	if len(elements) != 3 || stored.CustomTitle != "Black Friday" {
		t.Errorf("stored page = %+v", stored)
	}

	if _, err := svc.Edit(ctx, page.ID, "outra mudança", &tmpl, false); err != nil {
		t.Fatal(err)
	}
	if factoryCalls != 1 {
		t.Errorf("editor rebuilt %d times for an unchanged config", factoryCalls)
	}
}

func TestAIEditErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	page := e.createPage(t, "Curso")

	notConfigured := NewTemplateAIService(e.pages, &staticConfig{}, LangchainCompleters(0, e.logger), e.logger, e.tracker)
	if _, err := notConfigured.Edit(ctx, page.ID, "mude a cor", nil, false); !errors.Is(err, checkout.ErrAINotConfigured) {
		t.Errorf("unconfigured provider: %v", err)
	}

	svc := NewTemplateAIService(e.pages, &staticConfig{}, func(ai.Config) (ai.Completer, error) {
		return &scriptedCompleter{reply: "não consegui"}, nil
	}, e.logger, e.tracker)
	if _, err := svc.Edit(ctx, page.ID, "  ", nil, false); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("empty command: %v", err)
	}
	if _, err := svc.Edit(ctx, page.ID, "mude a cor", nil, false); !errors.Is(err, ai.ErrNoJSON) {
		t.Errorf("reply without JSON: %v", err)
	}
	if _, err := svc.Edit(ctx, "missing", "mude a cor", nil, false); !IsNotFound(err) {
		t.Errorf("missing page: %v", err)
	}
}
