package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lei/datagov-gateway/internal/api"
	"github.com/lei/datagov-gateway/internal/config"
	"github.com/lei/datagov-gateway/internal/models"
	"github.com/lei/datagov-gateway/internal/service"
	"github.com/lei/datagov-gateway/pkg/datagov"
	"github.com/lei/datagov-gateway/pkg/logger"
)

// Proxy is an HTTP front for the data.gov.gr query API that can be embedded in applications
type Proxy struct {
	config  *Config
	service *service.Service
	router  http.Handler
	server  *http.Server
	logger  *logger.Logger
}

// Config holds the configuration for the Proxy
type Config struct {
	Server ServerConfig

	Auth AuthConfig

	DataGov DataGovConfig

	// Resources lists the exposed resources. Empty exposes every registered resource.
	Resources []*models.Resource

	Logging LoggingConfig

	Metrics MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// APIKeys is a list of API keys accepted from proxy clients
	APIKeys []APIKey
}

// APIKey represents an API key for authentication
type APIKey struct {
	Name string
	Key  string
}

// DataGovConfig holds the upstream connection settings
type DataGovConfig struct {
	Token   string
	Timeout time.Duration

	// Registry overrides the built-in resource registry
	Registry *datagov.Registry

	// Transport overrides the HTTP client built from Timeout
	Transport datagov.Transport
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool
}

// New creates a new Proxy instance with the provided configuration
func New(cfg *Config) (*Proxy, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.DataGov.Token == "" {
		return nil, errors.New("datagov token is required")
	}

	appLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	opts := []datagov.Option{datagov.WithLogger(appLogger)}
	switch {
	case cfg.DataGov.Transport != nil:
		opts = append(opts, datagov.WithTransport(cfg.DataGov.Transport))
	case cfg.DataGov.Timeout > 0:
		opts = append(opts, datagov.WithHTTPClient(&http.Client{Timeout: cfg.DataGov.Timeout}))
	}
	if cfg.DataGov.Registry != nil {
		opts = append(opts, datagov.WithRegistry(cfg.DataGov.Registry))
	}
	gw := datagov.New(cfg.DataGov.Token, opts...)

	var metrics *service.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = service.NewMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	svc, err := service.NewService(gw, cfg.Resources, appLogger, metrics)
	if err != nil {
		return nil, fmt.Errorf("initialize service: %w", err)
	}
	appLogger.Info("initialized datagov proxy",
		"resources", len(svc.ListResources(context.Background())),
		"metrics", cfg.Metrics.Enabled)

	configAPIKeys := make([]config.APIKey, len(cfg.Auth.APIKeys))
	for i, key := range cfg.Auth.APIKeys {
		configAPIKeys[i] = config.APIKey{Name: key.Name, Key: key.Key}
	}

	router := api.NewRouter(
		api.NewHandlers(svc),
		api.NewAuthMiddleware(configAPIKeys),
		api.NewLoggingMiddleware(appLogger),
		metricsHandler,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Proxy{
		config:  cfg,
		service: svc,
		router:  router,
		server:  srv,
		logger:  appLogger,
	}, nil
}

// Start starts the HTTP server.
// It blocks until the context is canceled or the server fails.
func (p *Proxy) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		p.logger.Info("starting http server", "port", p.config.Server.Port)
		serverErrors <- p.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		p.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := p.server.Shutdown(shutdownCtx); err != nil {
			p.server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		p.logger.Info("server stopped gracefully")
		return nil
	}
}

// Handler returns the http.Handler for mounting the proxy in an existing server
func (p *Proxy) Handler() http.Handler {
	return p.router
}

// Service returns the underlying service layer
func (p *Proxy) Service() *service.Service {
	return p.service
}

// NewFromEnv creates a Proxy from environment variables and an optional
// resources file. An empty resourcesFile exposes every built-in resource.
func NewFromEnv(resourcesFile string) (*Proxy, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	resources, err := loadResources(resourcesFile)
	if err != nil {
		return nil, err
	}

	return New(FromConfig(cfg, resources))
}

// NewFromFile creates a Proxy from a YAML configuration file and an optional
// resources file. Environment references in the file are expanded.
func NewFromFile(configPath, resourcesFile string) (*Proxy, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	resources, err := loadResources(resourcesFile)
	if err != nil {
		return nil, err
	}

	return New(FromConfig(cfg, resources))
}

func loadResources(path string) ([]*models.Resource, error) {
	if path == "" {
		return nil, nil
	}
	resources, err := config.LoadResources(path)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	return resources, nil
}

// FromConfig converts a loaded configuration into a proxy Config
func FromConfig(cfg *config.Config, resources []*models.Resource) *Config {
	apiKeys := make([]APIKey, len(cfg.Auth.APIKeys))
	for i, key := range cfg.Auth.APIKeys {
		apiKeys[i] = APIKey{Name: key.Name, Key: key.Key}
	}

	return &Config{
		Server: ServerConfig{
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		Auth: AuthConfig{APIKeys: apiKeys},
		DataGov: DataGovConfig{
			Token:   cfg.DataGov.Token,
			Timeout: cfg.DataGov.Timeout,
		},
		Resources: resources,
		Logging: LoggingConfig{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
		Metrics: MetricsConfig{Enabled: cfg.Metrics.Enabled},
	}
}
