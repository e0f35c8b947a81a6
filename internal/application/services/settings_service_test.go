package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

type fakeConfigurer struct {
	calls [][2]string
}

func (f *fakeConfigurer) Configure(a, b string) {
	f.calls = append(f.calls, [2]string{a, b})
}

func (f *fakeConfigurer) last() [2]string {
	if len(f.calls) == 0 {
		return [2]string{}
	}
	return f.calls[len(f.calls)-1]
}

func viewOf(t *testing.T, views []SettingView, key string) SettingView {
	t.Helper()
	for _, v := range views {
		if v.Key == key {
			return v
		}
	}
	t.Fatalf("setting %s missing", key)
	return SettingView{}
}

func TestSettingsSecretsAreEncrypted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway, sender := &fakeConfigurer{}, &fakeConfigurer{}
	svc := NewSettingsService(e.settings, testEncryptionKey, map[string]string{
		checkout.SettingGatewayAPIURL: "https://gateway.test/api",
		checkout.SettingEmailFromName: "Loja",
	}, gateway, sender, e.logger)

	views, err := svc.Set(ctx, map[string]string{
		checkout.SettingGatewaySecretKey: "sk_live_123456789",
		checkout.SettingEmailFrom:        "vendas@loja.test",
	})
	if err != nil {
		t.Fatal(err)
	}

	stored, err := e.settings.Get(ctx, checkout.SettingGatewaySecretKey)
	if err != nil || stored == nil {
		t.Fatalf("stored = %v, %v", stored, err)
	}
	if !stored.Encrypted || strings.Contains(stored.Value, "sk_live") {
		t.Errorf("secret stored in clear: %+v", stored)
	}

	secret := viewOf(t, views, checkout.SettingGatewaySecretKey)
	if secret.Value != "****6789" || !secret.Secret || secret.Source != "stored" {
		t.Errorf("secret view = %+v", secret)
	}
	if v := viewOf(t, views, checkout.SettingGatewayAPIURL); v.Source != "env" || v.Value != "https://gateway.test/api" {
		t.Errorf("api url view = %+v", v)
	}

	if got := gateway.last(); got != [2]string{"https://gateway.test/api", "sk_live_123456789"} {
		t.Errorf("gateway configured with %v", got)
	}
	if got := sender.last(); got != [2]string{"vendas@loja.test", "Loja"} {
		t.Errorf("sender configured with %v", got)
	}
}

func TestSettingsMaskedValueIsIgnoredAndEmptyClears(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewSettingsService(e.settings, testEncryptionKey, map[string]string{checkout.SettingAIModel: "gpt-4o-mini"}, nil, nil, e.logger)

	if _, err := svc.Set(ctx, map[string]string{checkout.SettingAIAPIKey: "key-abcdef", checkout.SettingAIModel: "claude"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Set(ctx, map[string]string{checkout.SettingAIAPIKey: "****cdef", checkout.SettingAIModel: ""}); err != nil {
		t.Fatal(err)
	}

	cfg, err := svc.AIConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "key-abcdef" {
		t.Errorf("api key = %q", cfg.APIKey)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want the default back", cfg.Model)
	}
}

func TestSettingsValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	svc := NewSettingsService(e.settings, testEncryptionKey, nil, nil, nil, e.logger)
	if _, err := svc.Set(ctx, map[string]string{"unknown": "x"}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("unknown key: %v", err)
	}
	if _, err := svc.Set(ctx, map[string]string{checkout.SettingAIProvider: "skynet"}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("unknown provider: %v", err)
	}

	noKey := NewSettingsService(e.settings, "", nil, nil, nil, e.logger)
	if _, err := noKey.Set(ctx, map[string]string{checkout.SettingGatewaySecretKey: "sk"}); !errors.Is(err, checkout.ErrInvalidInput) {
		t.Errorf("secret without encryption key: %v", err)
	}
}

func TestSettingsUnreadableSecretFallsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	writer := NewSettingsService(e.settings, testEncryptionKey, nil, nil, nil, e.logger)
	if _, err := writer.Set(ctx, map[string]string{checkout.SettingAIAPIKey: "key-abcdef"}); err != nil {
		t.Fatal(err)
	}

	rotated := NewSettingsService(e.settings, "fedcba9876543210fedcba9876543210", map[string]string{checkout.SettingAIAPIKey: "env-key"}, nil, nil, e.logger)
	v, err := rotated.Value(ctx, checkout.SettingAIAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	if v != "env-key" {
		t.Errorf("value = %q", v)
	}
}
