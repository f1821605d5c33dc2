package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/InternHub-KE/client/internal/backend"
	"github.com/InternHub-KE/client/internal/config"
	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/idp"
	"github.com/InternHub-KE/client/internal/moderation"
	"github.com/InternHub-KE/client/internal/session"
	"github.com/InternHub-KE/client/internal/stats"
)

// app bundles the wired client for one command invocation: config, logger,
// session state restored from the cache, the backend client reading its
// bearer token from the store, and the provider bridge.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	store   *session.Store
	cache   *session.Cache
	client  *backend.Client
	bridge  *idp.RESTBridge
	syncer  *session.Synchronizer
	cleanup func()
}

// newApp loads configuration and wires the client stack. Callers must defer
// a.Close().
func newApp(ctx context.Context) (*app, error) {
	if envFile != "" {
		config.LoadEnvFile(envFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if serverURL != "" {
		cfg.Backend.BaseURL = serverURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger := config.NewLogger(cfg.Logging)

	cache, err := session.OpenCache(cfg.Cache.Path, cfg.Cache.MasterSecret)
	if err != nil {
		return nil, fmt.Errorf("open session cache: %w", err)
	}
	restored, err := cache.Load(ctx)
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	store := session.NewStore(restored)

	client := backend.NewClient(cfg.Backend.BaseURL, logger,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithRateLimit(cfg.Backend.RequestsPerSec),
		backend.WithMaxRetries(cfg.Backend.MaxRetries),
		backend.WithTokenSource(store.Token),
	)

	flow := idp.NewLoopbackFlow(idp.LoopbackConfig{
		AuthURL:  cfg.Provider.BaseURL,
		ClientID: cfg.Provider.ClientID,
		Port:     cfg.Provider.CallbackPort,
		OpenURL: func(url string) error {
			fmt.Printf("Open this URL in your browser to sign in:\n\n  %s\n\n", url)
			return nil
		},
	}, logger)
	bridge := idp.NewRESTBridge(idp.RESTConfig{
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		TokenURL:    cfg.Provider.TokenURL,
		RefreshSkew: cfg.Provider.RefreshSkew,
	}, logger, idp.WithFederatedFlow(flow))

	syncer := session.NewSynchronizer(store, cache, bridge, client, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		cache:  cache,
		client: client,
		bridge: bridge,
		syncer: syncer,
	}, nil
}

// Close releases the provider bridge and the cache.
func (a *app) Close() {
	a.bridge.Close()
	_ = a.cache.Close()
}

// gateway builds the moderation gateway over this app's backend client.
func (a *app) gateway() *moderation.Gateway {
	aggregator := stats.NewAggregator(a.client, a.logger)
	return moderation.NewGateway(a.client, aggregator, a.store,
		opportunities.Status(a.cfg.Moderation.DefaultCreateStatus), a.logger)
}
