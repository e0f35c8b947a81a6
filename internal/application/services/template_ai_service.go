package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/ai"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

const maxAICommandLength = 2000

// AIConfigSource supplies the current AI provider settings.
type AIConfigSource interface {
	AIConfig(ctx context.Context) (ai.Config, error)
}

// CompleterFactory builds a completer for a provider configuration.
type CompleterFactory func(cfg ai.Config) (ai.Completer, error)

// LangchainCompleters builds completers backed by langchaingo models.
func LangchainCompleters(timeout time.Duration, logger *logging.ChanneledLogger) CompleterFactory {
	return func(cfg ai.Config) (ai.Completer, error) {
		model, err := ai.NewModel(cfg)
		if err != nil {
			return nil, err
		}
		return ai.NewLLMCompleter(model, cfg.Provider, timeout, logger), nil
	}
}

// AIEditResult is the outcome of one AI edit.
type AIEditResult struct {
	Template checkout.Template `json:"template"`
	Page     *checkout.Page    `json:"page,omitempty"`
	Applied  bool              `json:"applied"`
}

// TemplateAIService edits page templates from natural-language commands.
type TemplateAIService struct {
	pages       *PageService
	config      AIConfigSource
	completers  CompleterFactory
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	mu      sync.Mutex
	current ai.Config
	editor  *ai.TemplateEditor
}

// NewTemplateAIService creates the AI editing service.
func NewTemplateAIService(pages *PageService, config AIConfigSource, completers CompleterFactory, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *TemplateAIService {
	return &TemplateAIService{
		pages:       pages,
		config:      config,
		completers:  completers,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Edit applies command to the page template, or to draft when given. The
// edited template is validated and sanitized; with apply it is also saved.
func (s *TemplateAIService) Edit(ctx context.Context, pageID, command string, draft *checkout.Template, apply bool) (*AIEditResult, error) {
	marker := s.perfTracker.StartOperation("ai:edit", pageID)
	defer marker.Complete()

	command = strings.TrimSpace(command)
	if command == "" {
		return nil, fmt.Errorf("%w: command is required", checkout.ErrInvalidInput)
	}
	if len(command) > maxAICommandLength {
		return nil, fmt.Errorf("%w: command exceeds %d characters", checkout.ErrInvalidInput, maxAICommandLength)
	}

	page, err := s.pages.Get(ctx, pageID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	var base checkout.Template
	if draft != nil {
		base = *draft
	} else if base, err = page.Template(); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("page %s has unreadable elements: %w", pageID, err)
	}

	editor, err := s.editorFor(ctx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	start := time.Now()
	edited, err := editor.Edit(ctx, base, command)
	if err != nil {
		marker.SetError(err)
		s.logger.AI().Error("Template edit failed", "pageId", pageID, "error", err.Error(), "duration", time.Since(start))
		return nil, err
	}
	edited = reconcileTemplate(base, edited)

	result := &AIEditResult{Template: edited}
	if apply {
		saved, err := s.pages.SaveTemplate(ctx, page, edited)
		if err != nil {
			marker.SetError(err)
			return nil, err
		}
		result.Page = saved
		result.Applied = true
	}

	s.logger.AI().Info("Template edited", "pageId", pageID, "elements", len(edited.CustomElements), "applied", apply, "duration", time.Since(start))
	marker.SetSuccess(true)
	return result, nil
}

// editorFor returns an editor for the current settings, rebuilding it when
// the provider configuration changed.
func (s *TemplateAIService) editorFor(ctx context.Context) (*ai.TemplateEditor, error) {
	cfg, err := s.config.AIConfig(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil && cfg == s.current {
		return s.editor, nil
	}

	completer, err := s.completers(cfg)
	if err != nil {
		return nil, err
	}
	s.editor = ai.NewTemplateEditor(completer)
	s.current = cfg
	s.logger.AI().Info("AI provider ready", "provider", cfg.Provider, "model", cfg.Model)
	return s.editor, nil
}

// reconcileTemplate keeps the ids of elements that already existed, gives new
// ULIDs to the rest, sanitizes content and falls back to base for values the
// model got wrong.
func reconcileTemplate(base, edited checkout.Template) checkout.Template {
	known := make(map[string]bool, len(base.CustomElements))
	for _, el := range base.CustomElements {
		known[el.ID] = true
	}

	seen := make(map[string]bool, len(edited.CustomElements))
	elements := make([]layout.CustomElement, 0, len(edited.CustomElements))
	for _, el := range edited.CustomElements {
		if !known[el.ID] || seen[el.ID] {
			el.ID = security.GenerateULID()
		}
		seen[el.ID] = true
		elements = append(elements, el)
	}
	edited.CustomElements = sanitizeElements(elements)

	if edited.PrimaryColor != "" && !layout.SafeCSSValue(edited.PrimaryColor) {
		edited.PrimaryColor = base.PrimaryColor
	}
	if edited.BackgroundColor != "" && !layout.SafeCSSValue(edited.BackgroundColor) {
		edited.BackgroundColor = base.BackgroundColor
	}
	if edited.HeaderHeight < 0 {
		edited.HeaderHeight = base.HeaderHeight
	}
	if edited.LogoSize < 0 {
		edited.LogoSize = base.LogoSize
	}
	edited.CustomTitle = security.StripTags(edited.CustomTitle)
	edited.CustomSubtitle = security.StripTags(edited.CustomSubtitle)
	return edited
}
