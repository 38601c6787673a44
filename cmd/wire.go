package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bnema/guac-console/internal/adapters/auth"
	"github.com/bnema/guac-console/internal/adapters/cache/ttl"
	tomlrepo "github.com/bnema/guac-console/internal/adapters/repo/toml"
	"github.com/bnema/guac-console/internal/adapters/rest"
	chainstore "github.com/bnema/guac-console/internal/adapters/secrets/chain"
	filestore "github.com/bnema/guac-console/internal/adapters/secrets/file"
	passstore "github.com/bnema/guac-console/internal/adapters/secrets/pass"
	"github.com/bnema/guac-console/internal/application"
	"github.com/bnema/guac-console/internal/config"
	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/logging"
	"github.com/bnema/guac-console/internal/metrics"
	"github.com/bnema/guac-console/internal/ports"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	opts        *rootOptions
	cfg         config.Config
	log         *slog.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	clock       clockwork.Clock
	httpClient  *http.Client
	secretStore ports.SecretStore
	cache       *ttl.Cache
	profiles    *application.ProfileService
}

func wireApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	secretStore, err := newSecretStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	a := &app{
		opts:        opts,
		cfg:         cfg,
		log:         logging.Discard(),
		registry:    registry,
		metrics:     m,
		clock:       clockwork.NewRealClock(),
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		secretStore: secretStore,
		cache: ttl.New(
			ttl.WithTTL(cfg.CacheTTL),
			ttl.WithCapacity(cfg.CacheCapacity),
			ttl.WithMetrics(m),
		),
	}
	a.profiles = application.NewProfileService(repo, secretStore, a.authenticatorFor)
	return a, nil
}

func newSecretStore(cfg config.Config) (ports.SecretStore, error) {
	switch cfg.SecretsBackend {
	case config.SecretsBackendPass:
		return passstore.NewStore(), nil
	case config.SecretsBackendFile:
		return filestore.NewStore(cfg.SecretsPath), nil
	default:
		return chainstore.NewPassFirstWithFileFallback(cfg.SecretsPath)
	}
}

// start runs before every command: it points the logger at the command's stderr
// and starts the metrics endpoint when one was requested.
func (a *app) start(cmd *cobra.Command) error {
	level := logging.ParseLevel(a.cfg.LogLevel)
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	a.log = logging.New(cmd.ErrOrStderr(), level, a.opts.noColor)

	if a.opts.metricsAddr == "" {
		return nil
	}
	addr, err := metrics.Serve(cmd.Context(), a.log, a.opts.metricsAddr, a.registry)
	if err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}
	a.log.Info("serving metrics", "addr", addr.String())
	return nil
}

// finish logs what the response cache did during the command.
func (a *app) finish() {
	stats := a.cache.Stats()
	a.log.Debug("response cache",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"evictions", stats.Evictions,
		"entries", stats.Entries,
	)
}

func (a *app) authenticatorFor(profile domain.Profile) ports.Authenticator {
	return auth.TokenClient{
		BaseURL:        profile.BaseURL,
		HTTPClient:     a.httpClient,
		RequestTimeout: a.cfg.HTTPTimeout,
		MaxTries:       a.cfg.AuthRetries,
		Clock:          a.clock,
	}
}

// poolImageService builds the authenticated request pipeline for one profile.
func (a *app) poolImageService(profile domain.Profile) (*application.PoolImageService, *auth.SessionProvider, error) {
	provider := auth.NewSessionProvider(profile, a.secretStore, a.authenticatorFor(profile), a.log)

	client, err := rest.NewClient(rest.Config{
		BaseURL:     profile.BaseURL,
		HTTPClient:  a.httpClient,
		Credentials: provider,
		Cache:       a.cache,
		Logger:      a.log,
		Clock:       a.clock,
		Metrics:     a.metrics,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire rest client: %w", err)
	}

	return application.NewPoolImageService(client, a.cache, a.log), provider, nil
}

func (a *app) profileID() domain.ProfileID {
	if a.opts.profile != "" {
		return domain.ProfileID(a.opts.profile)
	}
	return domain.ProfileID(a.cfg.DefaultProfile)
}

func (a *app) resolveProfile(cmd *cobra.Command) (domain.Profile, error) {
	id := a.profileID()
	profile, err := a.profiles.GetProfile(cmd.Context(), id)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, fmt.Errorf("profile %q not found, add it with `guacc profile add %s --url URL`", id, id)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// userError rewrites failures that the user can act on.
func userError(profile domain.Profile, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		return fmt.Errorf("profile %s: session expired, run `guacc login --profile %s`: %w", profile.ID, profile.ID, err)
	}
	if errors.Is(err, domain.ErrUnreachable) {
		return fmt.Errorf("profile %s: %s is unreachable: %w", profile.ID, profile.BaseURL, err)
	}
	return err
}
