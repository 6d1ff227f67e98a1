package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/yasny-slukh/internal/admin"
	"github.com/debemdeboas/yasny-slukh/internal/api"
	"github.com/debemdeboas/yasny-slukh/internal/auth"
	"github.com/debemdeboas/yasny-slukh/internal/cache"
	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/db"
	"github.com/debemdeboas/yasny-slukh/internal/draft"
	"github.com/debemdeboas/yasny-slukh/internal/ingest"
	"github.com/debemdeboas/yasny-slukh/internal/logger"
	"github.com/debemdeboas/yasny-slukh/internal/render"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/routes"
	"github.com/debemdeboas/yasny-slukh/internal/session"
	"github.com/debemdeboas/yasny-slukh/internal/site"
	"github.com/debemdeboas/yasny-slukh/internal/sse"
	"github.com/debemdeboas/yasny-slukh/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

var clients = sse.NewSSEClients()

var mainLogger zerolog.Logger

func setLoggers(l zerolog.Logger) {
	mainLogger = logger.Component(l, "main")
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))
	draft.SetLogger(logger.Component(l, "draft"))
	session.SetLogger(logger.Component(l, "session"))
	auth.SetLogger(logger.Component(l, "auth"))
	api.SetLogger(logger.Component(l, "api"))
	admin.SetLogger(logger.Component(l, "admin"))
	site.SetLogger(logger.Component(l, "site"))
	render.SetLogger(logger.Component(l, "render"))
	sse.SetLogger(logger.Component(l, "sse"))
	ingest.SetLogger(logger.Component(l, "ingest"))
}

func main() {
	envErr := godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	cfg.ApplyEnv(os.Getenv)

	setLoggers(logger.New(cfg.Logging.Level))
	if envErr != nil {
		mainLogger.Debug().Err(envErr).Msg("No .env file loaded")
	}
	if err := cfg.Validate(); err != nil {
		mainLogger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repository.Open(ctx, cfg.Storage, os.Getenv)
	if err != nil {
		mainLogger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msgf(config.ErrOpenStoreFmt, err)
	}
	defer closeStore()
	mainLogger.Info().Str("backend", cfg.Storage.Backend).Msg("Content store opened")

	var apiOpts []api.Option
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := ingest.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, cfg.Kafka.GroupID, store)
		go consumer.Run(ctx)

		publisher := ingest.NewStatusPublisher(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic)
		defer publisher.Close()
		apiOpts = append(apiOpts, api.WithStatusPublisher(publisher))

		mainLogger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Order ingest enabled")
	}

	handler, sessions, err := newServer(ctx, cfg, store, apiOpts...)
	if err != nil {
		mainLogger.Fatal().Err(err).Msg("Error building server")
	}
	defer sessions.Close()
	go sessions.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			mainLogger.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	mainLogger.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		mainLogger.Fatal().Err(err).Msg("Server failed")
	}
	mainLogger.Info().Msg("Server stopped")
}

// newServer wires the public site, the admin panel and the data endpoint on
// top of store. Background work stops with ctx.
func newServer(ctx context.Context, cfg *config.Config, store repository.Store, apiOpts ...api.Option) (http.Handler, *session.Manager, error) {
	static, err := fs.Sub(content, config.StaticLocalDir)
	if err != nil {
		return nil, nil, err
	}
	hashStatic(static)

	pages, err := site.New(content, clients)
	if err != nil {
		return nil, nil, err
	}
	if err := pages.Load(ctx, store); err != nil {
		mainLogger.Error().Err(err).Msg(config.ErrLoadContent)
	}
	if err := pages.Follow(ctx, store); err != nil {
		mainLogger.Error().Err(err).Msg(config.ErrReloadingContent)
	}

	opts, follow := sessionOptions(cfg, store)
	sessions := session.NewManager(opts, follow, cfg.Admin.SessionTimeout)

	if cfg.Admin.Passphrase == "" {
		mainLogger.Warn().Msg("ADMIN_PASSPHRASE is not set, the admin panel is disabled")
	}
	provider := auth.NewPassphraseProvider(
		cfg.Admin.Passphrase,
		sessions,
		cfg.Admin.LoginRate,
		cfg.Admin.LoginBurst,
		cfg.Admin.SessionTimeout,
	)
	panel, err := admin.New(content, provider, clients)
	if err != nil {
		sessions.Close()
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(cacheIt, secureHeaders)

	r.Handle(routes.APIData, api.NewRouter(api.NewHandlers(store, apiOpts...)))
	r.Handle(config.StaticUrlPath+"*", http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))
	panel.Routes(r)
	pages.Routes(r)

	return r, sessions, nil
}

// sessionOptions configures admin drafts. Local backends behave like a
// browser-held draft: records get their id on creation, every edit is written
// through and changes from other writers are followed.
func sessionOptions(cfg *config.Config, store repository.Store) (session.Options, repository.Watcher) {
	local := cfg.Storage.IsLocal()

	var follow repository.Watcher
	if cfg.Admin.Follow || local {
		follow = store
	}
	return session.Options{
		Store:    store,
		Editor:   draft.NewEditor(draft.Options{ClientIDs: cfg.Admin.ClientIDs || local}),
		Mirror:   cfg.Admin.Mirror || local,
		Notifier: admin.NewNotifier(clients),
	}, follow
}

// hashStatic records a content hash per static file for the ETag header.
func hashStatic(static fs.FS) {
	fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return err
		}
		cache.SetStaticHash(config.StaticUrlPath+path, `"`+util.ContentHash(data)+`"`)
		return nil
	})
}

func cacheIt(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)
			if r.Header.Get("If-None-Match") == hash {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")

		next.ServeHTTP(w, r)
	})
}
