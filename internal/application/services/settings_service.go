package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/repositories"
	"github.com/pixpage/pixpage/internal/infrastructure/ai"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

const secretMask = "****"

// GatewayConfigurer accepts new gateway credentials at runtime.
type GatewayConfigurer interface {
	Configure(baseURL, secretKey string)
}

// SenderConfigurer accepts a new email sender at runtime.
type SenderConfigurer interface {
	Configure(fromEmail, fromName string)
}

// SettingView is a setting as shown to the admin. Secret values are masked.
type SettingView struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Secret    bool       `json:"secret"`
	Source    string     `json:"source"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// SettingsService stores runtime settings. Stored values override the
// environment defaults; secrets are kept AES-GCM encrypted.
type SettingsService struct {
	settings      repositories.SettingsRepository
	encryptionKey string
	defaults      map[string]string
	gateway       GatewayConfigurer
	sender        SenderConfigurer
	logger        *logging.ChanneledLogger
}

// NewSettingsService creates the settings service. gateway and sender may be
// nil.
func NewSettingsService(
	settings repositories.SettingsRepository,
	encryptionKey string,
	defaults map[string]string,
	gateway GatewayConfigurer,
	sender SenderConfigurer,
	logger *logging.ChanneledLogger,
) *SettingsService {
	if defaults == nil {
		defaults = map[string]string{}
	}
	return &SettingsService{
		settings:      settings,
		encryptionKey: encryptionKey,
		defaults:      defaults,
		gateway:       gateway,
		sender:        sender,
		logger:        logger,
	}
}

// All returns every known setting with its effective value.
func (s *SettingsService) All(ctx context.Context) ([]SettingView, error) {
	stored, err := s.settings.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	byKey := make(map[string]*checkout.Setting, len(stored))
	for _, st := range stored {
		byKey[st.Key] = st
	}

	views := make([]SettingView, 0, len(checkout.KnownSettings))
	for _, key := range checkout.KnownSettings {
		view := SettingView{Key: key, Secret: checkout.SecretSettings[key], Source: "unset"}
		value := s.defaults[key]
		if value != "" {
			view.Source = "env"
		}
		if st, ok := byKey[key]; ok {
			if plain, err := s.reveal(st); err == nil {
				value = plain
				view.Source = "stored"
				updated := st.UpdatedAt
				view.UpdatedAt = &updated
			}
		}
		if view.Secret {
			value = maskSecret(value)
		}
		view.Value = value
		views = append(views, view)
	}
	return views, nil
}

// Value returns the effective plain value of a setting.
func (s *SettingsService) Value(ctx context.Context, key string) (string, error) {
	st, err := s.settings.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load setting %s: %w", key, err)
	}
	if st == nil {
		return s.defaults[key], nil
	}
	plain, err := s.reveal(st)
	if err != nil {
		return s.defaults[key], nil
	}
	return plain, nil
}

// Set stores the given values. An empty value removes the stored setting so
// the environment default applies again; a masked secret is left unchanged.
// The new values are applied to the running clients.
func (s *SettingsService) Set(ctx context.Context, values map[string]string) ([]SettingView, error) {
	for key, value := range values {
		if !slices.Contains(checkout.KnownSettings, key) {
			return nil, fmt.Errorf("%w: unknown setting %q", checkout.ErrInvalidInput, key)
		}
		if key == checkout.SettingAIProvider && value != "" && !validProvider(value) {
			return nil, fmt.Errorf("%w: unknown AI provider %q", checkout.ErrInvalidInput, value)
		}
		if checkout.SecretSettings[key] && value != "" && !strings.HasPrefix(value, secretMask) && s.encryptionKey == "" {
			return nil, fmt.Errorf("%w: SETTINGS_ENCRYPTION_KEY is required to store %s", checkout.ErrInvalidInput, key)
		}
	}

	for key, value := range values {
		value = strings.TrimSpace(value)
		secret := checkout.SecretSettings[key]
		if secret && strings.HasPrefix(value, secretMask) {
			continue
		}

		if value == "" {
			if err := s.settings.Delete(ctx, key); err != nil {
				return nil, fmt.Errorf("failed to delete setting %s: %w", key, err)
			}
			s.logger.System().Info("Setting cleared", "key", key)
			continue
		}

		st := &checkout.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
		if secret {
			encrypted, err := security.Encrypt(value, s.encryptionKey)
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt setting %s: %w", key, err)
			}
			st.Value = encrypted
			st.Encrypted = true
		}
		if err := s.settings.Set(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to store setting %s: %w", key, err)
		}
		s.logger.System().Info("Setting stored", "key", key, "encrypted", st.Encrypted)
	}

	if err := s.Apply(ctx); err != nil {
		return nil, err
	}
	return s.All(ctx)
}

// Apply pushes the effective settings to the gateway and email clients.
func (s *SettingsService) Apply(ctx context.Context) error {
	if s.gateway != nil {
		apiURL, err := s.Value(ctx, checkout.SettingGatewayAPIURL)
		if err != nil {
			return err
		}
		key, err := s.Value(ctx, checkout.SettingGatewaySecretKey)
		if err != nil {
			return err
		}
		s.gateway.Configure(apiURL, key)
		s.logger.Gateway().Info("Gateway configured", "apiUrl", apiURL, "hasKey", key != "")
	}

	if s.sender != nil {
		from, err := s.Value(ctx, checkout.SettingEmailFrom)
		if err != nil {
			return err
		}
		name, err := s.Value(ctx, checkout.SettingEmailFromName)
		if err != nil {
			return err
		}
		s.sender.Configure(from, name)
	}
	return nil
}

// AIConfig returns the effective AI provider settings.
func (s *SettingsService) AIConfig(ctx context.Context) (ai.Config, error) {
	var cfg ai.Config
	var err error
	if cfg.Provider, err = s.Value(ctx, checkout.SettingAIProvider); err != nil {
		return ai.Config{}, err
	}
	if cfg.Model, err = s.Value(ctx, checkout.SettingAIModel); err != nil {
		return ai.Config{}, err
	}
	if cfg.APIKey, err = s.Value(ctx, checkout.SettingAIAPIKey); err != nil {
		return ai.Config{}, err
	}
	if cfg.BaseURL, err = s.Value(ctx, checkout.SettingAIBaseURL); err != nil {
		return ai.Config{}, err
	}
	return cfg, nil
}

func (s *SettingsService) reveal(st *checkout.Setting) (string, error) {
	if !st.Encrypted {
		return st.Value, nil
	}
	plain, err := security.Decrypt(st.Value, s.encryptionKey)
	if err != nil {
		s.logger.System().Warn("Stored secret unreadable, using default", "key", st.Key, "error", err.Error())
		return "", err
	}
	return plain, nil
}

func validProvider(p string) bool {
	switch strings.ToLower(p) {
	case ai.ProviderNone, ai.ProviderOpenAI, ai.ProviderAnthropic, ai.ProviderOllama:
		return true
	}
	return false
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return secretMask
	}
	return secretMask + v[len(v)-4:]
}
