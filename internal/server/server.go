package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/presetmarket/internal/backend"
	"github.com/nfrund/presetmarket/internal/config"
	"github.com/nfrund/presetmarket/internal/handlers"
	"github.com/nfrund/presetmarket/internal/middleware"
	"github.com/nfrund/presetmarket/internal/pubsub"
	"github.com/nfrund/presetmarket/internal/rendering"
	"github.com/nfrund/presetmarket/internal/session"
	"github.com/nfrund/presetmarket/internal/storage"
	"github.com/nfrund/presetmarket/internal/upload"
	"github.com/nfrund/presetmarket/web"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	Cfg config.Provider

	injector *do.RootScope
	bus      *pubsub.WatermillBridge
	// stopAudit cancels the session audit subscription.
	stopAudit       context.CancelFunc
	shutdownTracing func(context.Context) error
}

// tracing bundles the bus tracer with its flush function.
type tracing struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Options override pieces of the wiring, mainly for tests.
type Options struct {
	// HTTPClient is used to reach the backend.
	HTTPClient *http.Client
	// DraftStore replaces the on-disk draft directory.
	DraftStore storage.Store
	Tracing    *pubsub.TracingConfig
}

// New wires the application. cfg must carry a session secret.
func New(cfg config.Provider, opts Options) (*Server, error) {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	registerServices(injector, opts)

	client, err := do.Invoke[*backend.Client](injector)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	profiles := do.MustInvoke[*session.ProfileCache](injector)
	drafts, err := do.Invoke[*upload.DraftStore](injector)
	if err != nil {
		return nil, fmt.Errorf("draft store: %w", err)
	}
	tr, err := do.Invoke[*tracing](injector)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	bus := do.MustInvoke[*pubsub.WatermillBridge](injector)
	renderer := do.MustInvoke[rendering.Renderer](injector)

	auditCtx, stopAudit := context.WithCancel(context.Background())
	if err := bus.Subscribe(auditCtx, session.TopicChanged, session.AuditHandler(slog.Default())); err != nil {
		stopAudit()
		return nil, fmt.Errorf("subscribe to session events: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Renderer = renderer.(echo.Renderer)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))

	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.GetSessionMaxAge().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(echosession.Middleware(store))
	e.Use(middleware.Session(profiles, client.LoginURL(),
		session.PublishEvents(bus, sessionEventMetadata)))

	e.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	setupErrorHandling(e)

	s := &Server{
		E:               e,
		Cfg:             cfg,
		injector:        injector,
		bus:             bus,
		stopAudit:       stopAudit,
		shutdownTracing: tr.shutdown,
	}
	s.RegisterRoutes(routeHandlers{
		auth:      handlers.NewAuthHandler(profiles),
		catalog:   handlers.NewCatalogHandler(client, client.AssetURL, renderer),
		presets:   handlers.NewPresetHandler(client, client.AssetURL, renderer),
		upload:    handlers.NewUploadHandler(client, drafts, cfg.GetMaxPresetFileSize(), renderer),
		myPresets: handlers.NewMyPresetsHandler(client, renderer),
	})
	return s, nil
}

// registerServices declares how each shared service is built.
func registerServices(i do.Injector, opts Options) {
	do.Provide(i, func(i do.Injector) (*backend.Client, error) {
		cfg := do.MustInvoke[config.Provider](i)
		clientOpts := []backend.Option{
			backend.WithTimeout(cfg.GetRequestTimeout()),
			backend.WithPublicURL(cfg.GetBackendPublicURL()),
			backend.WithLogger(slog.Default()),
		}
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, backend.WithHTTPClient(opts.HTTPClient))
		}
		return backend.New(cfg.GetBackendURL(), clientOpts...)
	})
	do.Provide(i, func(i do.Injector) (*session.ProfileCache, error) {
		cfg := do.MustInvoke[config.Provider](i)
		client, err := do.Invoke[*backend.Client](i)
		if err != nil {
			return nil, err
		}
		return session.NewProfileCache(backend.NewAuthenticator(client), cfg.GetProfileCacheTTL()), nil
	})
	do.Provide(i, func(i do.Injector) (*upload.DraftStore, error) {
		if opts.DraftStore != nil {
			return upload.NewDraftStore(opts.DraftStore), nil
		}
		cfg := do.MustInvoke[config.Provider](i)
		disk, err := storage.NewDiskStore(cfg.GetDraftDir())
		if err != nil {
			return nil, err
		}
		return upload.NewDraftStore(disk), nil
	})
	do.Provide(i, func(i do.Injector) (*tracing, error) {
		cfg := do.MustInvoke[config.Provider](i)
		tc := pubsub.TracingConfig{
			Enabled:     cfg.GetTracingEnabled(),
			ServiceName: cfg.GetTracingServiceName(),
			ZipkinURL:   cfg.GetTracingZipkinURL(),
		}
		if opts.Tracing != nil {
			tc = *opts.Tracing
		}
		tracer, shutdown, err := pubsub.SetupTracing(context.Background(), tc)
		if err != nil {
			return nil, err
		}
		return &tracing{tracer: tracer, shutdown: shutdown}, nil
	})
	do.Provide(i, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		tr, err := do.Invoke[*tracing](i)
		if err != nil {
			return nil, err
		}
		return pubsub.NewWatermillBridge(
			pubsub.WithTracer(tr.tracer),
			pubsub.WithLogger(slog.Default()),
		), nil
	})
	do.Provide(i, func(i do.Injector) (rendering.Renderer, error) {
		return rendering.NewUniversalRenderer(), nil
	})
}

// sessionEventMetadata tags bus messages with the request that caused them.
func sessionEventMetadata(ctx context.Context) map[string]string {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		return map[string]string{"request_id": id}
	}
	return nil
}
