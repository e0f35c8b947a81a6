// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"time"

	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/manager"
	"github.com/pixpage/pixpage/internal/infrastructure/email"
	"github.com/pixpage/pixpage/internal/infrastructure/gateway/for4payments"
	"github.com/pixpage/pixpage/internal/infrastructure/media"
	"github.com/pixpage/pixpage/internal/infrastructure/messaging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	persistence "github.com/pixpage/pixpage/internal/infrastructure/persistence/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
	checkouttpl "github.com/pixpage/pixpage/internal/presentation/templates/checkout"
	"github.com/pixpage/pixpage/pkg/config"
)

// paymentTokenGrace keeps payment links readable after the payment settles.
const paymentTokenGrace = 24 * time.Hour

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	PageService       *services.PageService
	ElementService    *services.ElementService
	PaymentService    *services.PaymentService
	RenderService     *services.RenderService
	SettingsService   *services.SettingsService
	TemplateAIService *services.TemplateAIService
	MediaService      *services.MediaService

	// Infrastructure
	DB           *database.DB
	CacheManager *manager.Manager
	Gateway      *for4payments.Client
	Broadcaster  *messaging.PaymentBroadcaster
	Mailer       *email.ResendClient
	Renderer     *checkouttpl.Renderer

	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewContainer creates and wires all singleton services on top of an open
// database and cache manager.
func NewContainer(db *database.DB, cacheManager *manager.Manager, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) (*Container, error) {
	c := &Container{
		DB:           db,
		CacheManager: cacheManager,
		Logger:       logger,
		PerfTracker:  perfTracker,
	}

	pageRepo := persistence.NewPageRepository(db.DB, cacheManager, logger)
	paymentRepo := persistence.NewPaymentRepository(db.DB, logger)
	settingsRepo := persistence.NewSettingsRepository(db.DB, logger)

	c.Gateway = for4payments.NewClient(for4payments.Options{
		BaseURL:   config.GatewayAPIURL,
		SecretKey: config.GatewaySecretKey,
		Timeout:   config.GatewayTimeout,
		Logger:    logger,
	})
	c.Broadcaster = messaging.NewPaymentBroadcaster(logger)
	c.Renderer = checkouttpl.NewRenderer(config.ImagePlaceholderURL, logger)

	var mailer email.Service
	var sender services.SenderConfigurer
	if config.ResendAPIKey != "" {
		client, err := email.NewResendClient(config.ResendAPIKey, config.EmailFrom, config.EmailFromName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create email client: %w", err)
		}
		c.Mailer = client
		mailer, sender = client, client
	} else {
		logger.Email().Warn("RESEND_API_KEY not set, payment confirmations will not be emailed")
	}

	tokenSecret := config.PaymentTokenSecret
	if tokenSecret == "" {
		generated, err := security.GenerateSecureKey(64)
		if err != nil {
			return nil, fmt.Errorf("failed to generate payment token secret: %w", err)
		}
		tokenSecret = generated
		logger.Payment().Warn("PAYMENT_TOKEN_SECRET not set, payment links will not survive a restart")
	}
	tokens := security.NewPaymentTokens(tokenSecret, config.PaymentExpiration+paymentTokenGrace)

	c.PageService = services.NewPageService(pageRepo, cacheManager, logger, perfTracker)
	c.ElementService = services.NewElementService(c.PageService, c.Renderer, logger)
	c.RenderService = services.NewRenderService(c.Renderer, cacheManager, config.PaymentPollInterval, logger, perfTracker)
	c.PaymentService = services.NewPaymentService(
		paymentRepo,
		c.PageService,
		c.Gateway,
		tokens,
		c.Broadcaster,
		mailer,
		services.PaymentOptions{
			Expiration:    config.PaymentExpiration,
			PollInterval:  config.PaymentPollInterval,
			PublicBaseURL: config.PublicBaseURL,
		},
		logger,
		perfTracker,
	)
	c.SettingsService = services.NewSettingsService(settingsRepo, config.SettingsEncryptionKey, settingDefaults(), c.Gateway, sender, logger)
	c.TemplateAIService = services.NewTemplateAIService(c.PageService, c.SettingsService, services.LangchainCompleters(config.AITimeout, logger), logger, perfTracker)

	images := media.NewImageProcessor(media.Options{
		BasePath:  config.MediaDir,
		URLPrefix: config.MediaURLPrefix,
		MaxBytes:  config.MediaMaxUploadBytes,
		MaxWidth:  config.MediaMaxWidth,
		Quality:   float32(config.MediaWebPQuality),
	}, logger)
	c.MediaService = services.NewMediaService(images, c.PageService, logger)

	return c, nil
}

// settingDefaults are the environment values stored settings override.
func settingDefaults() map[string]string {
	return map[string]string{
		checkout.SettingGatewayAPIURL:    config.GatewayAPIURL,
		checkout.SettingGatewaySecretKey: config.GatewaySecretKey,
		checkout.SettingAIProvider:       config.AIProvider,
		checkout.SettingAIModel:          config.AIModel,
		checkout.SettingAIAPIKey:         config.AIAPIKey,
		checkout.SettingAIBaseURL:        config.AIBaseURL,
		checkout.SettingEmailFrom:        config.EmailFrom,
		checkout.SettingEmailFromName:    config.EmailFromName,
	}
}
