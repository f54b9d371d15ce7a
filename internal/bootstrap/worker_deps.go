// Package bootstrap wires configuration into adapters and services.
package bootstrap

import (
	"context"
	"fmt"

	"draft_worker/adapter/in/http"
	"draft_worker/adapter/out/llm"
	"draft_worker/adapter/out/messaging"
	"draft_worker/adapter/out/mongodb"
	"draft_worker/adapter/out/persistence"
	"draft_worker/adapter/out/provider"
	"draft_worker/adapter/out/web"
	"draft_worker/config"
	"draft_worker/core/port/out"
	"draft_worker/core/service/dedupe"
	"draft_worker/core/service/draft"
	"draft_worker/core/service/notification"
	"draft_worker/core/service/pack"
	"draft_worker/core/service/triage"
	"draft_worker/infra/database"
	"draft_worker/pkg/cache"
	"draft_worker/pkg/httputil"
	"draft_worker/pkg/logger"
	"draft_worker/pkg/metrics"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type Dependencies struct {
	Config  *config.Config
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Providers
	Gmail  *provider.GmailAdapter
	Drive  *provider.DriveAdapter
	Sheets *provider.SheetsAdapter
	Docs   *provider.DocsAdapter
	Slides *provider.SlidesAdapter
	LLM    *llm.Client
	Titles out.TitleFetcher

	// Repositories
	Properties out.PropertyStore
	Reports    out.ReportRepository

	Latency *metrics.Registry

	// Services
	SeenStore           *dedupe.Store
	Drafter             *draft.Drafter
	PackService         *pack.Service
	NotificationService *notification.Service
	TriageService       *triage.Service
}

// NewDependencies connects every backend named by cfg and builds the triage service.
// cfg must have passed Validate. The returned cleanup closes the connections.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// State backends
	if cfg.NeedsSQL() {
		db, err := database.NewSQL(ctx, cfg.StateBackend, cfg.DatabaseURL, nil)
		if err != nil {
			return fail(err)
		}
		deps.SQLDB = db
		closers = append(closers, func() { _ = db.Close() })
		logger.Info("SQL state store connected (%s)", cfg.StateBackend)
	}
	if cfg.NeedsRedis() {
		client, err := database.NewRedis(ctx, cfg.RedisURL, nil)
		if err != nil {
			return fail(err)
		}
		deps.Redis = client
		closers = append(closers, func() { _ = client.Close() })
		logger.Info("Redis connected")
	}
	if cfg.MongoDBURL != "" {
		client, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
		if err != nil {
			return fail(err)
		}
		deps.MongoDB = client
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		logger.Info("MongoDB connected")
	}

	if err := deps.initRepositories(ctx); err != nil {
		return fail(err)
	}
	if err := deps.initProviders(ctx); err != nil {
		return fail(err)
	}
	deps.initServices()

	return deps, cleanup, nil
}

func (d *Dependencies) initRepositories(ctx context.Context) error {
	cfg := d.Config

	if cfg.StateBackend == config.BackendRedis {
		d.Properties = persistence.NewRedisPropertyAdapter(d.Redis, "")
	} else {
		props := persistence.NewPropertyAdapter(d.SQLDB, cfg.PropertyTable)
		if err := props.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("property store schema: %w", err)
		}
		d.Properties = props
	}

	switch {
	case d.MongoDB != nil:
		reports := mongodb.NewReportAdapter(d.MongoDB.Database(cfg.MongoDBName), cfg.ReportRetention)
		if err := reports.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to create run report indexes")
		}
		d.Reports = reports
	case d.SQLDB != nil:
		reports := persistence.NewReportAdapter(d.SQLDB, "")
		if err := reports.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("run report schema: %w", err)
		}
		d.Reports = reports
	default:
		logger.Info("Run reports disabled (no MongoDB or SQL backend)")
	}
	return nil
}

func (d *Dependencies) initProviders(ctx context.Context) error {
	cfg := d.Config

	// Token refreshes and API calls share the pooled Google transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.NewClient(httputil.GoogleClientConfig()))
	ts := provider.NewTokenSource(ctx, provider.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
	})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}

	var err error
	if d.Gmail, err = provider.NewGmailAdapter(ctx, ts, provider.GmailConfig{
		InboxLabel:     cfg.InboxLabel,
		ProcessedLabel: cfg.ProcessedLabel,
	}, opts...); err != nil {
		return err
	}
	if d.Drive, err = provider.NewDriveAdapter(ctx, ts, opts...); err != nil {
		return err
	}
	if d.Sheets, err = provider.NewSheetsAdapter(ctx, ts, cfg.SheetID, cfg.SheetTab, opts...); err != nil {
		return err
	}
	if d.Docs, err = provider.NewDocsAdapter(ctx, ts, opts...); err != nil {
		return err
	}
	if d.Slides, err = provider.NewSlidesAdapter(ctx, ts, opts...); err != nil {
		return err
	}

	if cfg.LLMEnabled() {
		d.LLM = llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.OpenAIBaseURL,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			HTTPClient:  httputil.NewClient(httputil.OpenAIClientConfig()),
		})
		logger.Info("LLM captions enabled (model=%s, all types=%v)", d.LLM.Model(), cfg.DraftAIAll)
	}
	d.Titles = web.NewTitleFetcher(nil, "")
	if d.Redis != nil {
		titles := cache.NewRedisCache(d.Redis, "draft_worker:titles:")
		d.Titles = web.NewCachedTitleFetcher(d.Titles, titles, web.DefaultTitleTTL, logger.Component("titles"))
	}
	return nil
}

func (d *Dependencies) initServices() {
	cfg := d.Config

	d.Latency = metrics.NewRegistry(metrics.DefaultWindow)
	d.SeenStore = dedupe.NewStore(d.Properties, dedupe.StoreConfig{
		Key:       cfg.StateKey,
		Retention: cfg.DedupeRetention,
	}, logger.Component("dedupe"))

	var gen *draft.Generator
	if d.LLM != nil {
		gen = draft.NewGenerator(d.LLM)
	}
	d.Drafter = draft.NewDrafter(gen, cfg.DraftAIAll, logger.Component("draft"))

	d.PackService = pack.NewService(d.Drive, d.Docs, d.Slides, pack.Config{
		RootFolderID:     cfg.OutputRootFolderID,
		SlidesTemplateID: cfg.SlidesTemplateID,
		DocTemplateID:    cfg.DocTemplateID,
		RetryAttempts:    cfg.RetryAttempts,
	}, logger.Component("pack"))

	channels := []out.Notifier{notification.NewMailChannel(d.Gmail, cfg.NotifyEmail)}
	if cfg.TelegramEnabled() {
		tg, err := messaging.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.WithError(err).Warn("Telegram channel disabled")
		} else {
			channels = append(channels, tg)
		}
	}
	if cfg.StreamEnabled {
		channels = append(channels, messaging.NewStreamNotifier(d.Redis, cfg.StreamName, cfg.StreamMaxLen))
	}
	d.NotificationService = notification.NewService(logger.Component("notification"), channels...)
	logger.Info("Notification channels: %v", d.NotificationService.Channels())

	d.TriageService = triage.NewService(triage.Deps{
		Mailbox:  d.Gmail,
		Sheet:    d.Sheets,
		Titles:   d.Titles,
		Seen:     d.SeenStore,
		Drafter:  d.Drafter,
		Packs:    d.PackService,
		Notifier: d.NotificationService,
		Reports:  d.Reports,
		Latency:  d.Latency,
	}, triage.Config{
		InboxLabel:     cfg.InboxLabel,
		ProcessedLabel: cfg.ProcessedLabel,
		LookbackHours:  cfg.LookbackHours,
		MaxThreads:     cfg.MaxThreadsPerRun,
	}, logger.Default().WithField("component", "triage"))
}

// HealthChecks returns the dependencies probed by /ready.
func (d *Dependencies) HealthChecks() map[string]http.HealthChecker {
	checks := map[string]http.HealthChecker{
		"state": d.Properties,
		"gmail": d.Gmail,
	}
	if d.MongoDB != nil {
		checks["mongodb"] = pingFunc(func(ctx context.Context) error { return d.MongoDB.Ping(ctx, nil) })
	}
	return checks
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
