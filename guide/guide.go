// Package guide boots a basecamp application: it resolves configuration,
// wires the service graph in dependency order, assembles the HTTP pipeline
// and runs the server until told to stop.
package guide

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

	// Loads a local .env file into the process environment when present.
	_ "github.com/joho/godotenv/autoload"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/account"
	"github.com/outpost-labs/basecamp/http/render"
	"github.com/outpost-labs/basecamp/http/router"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/identity"
	"github.com/outpost-labs/basecamp/logger"
	"github.com/outpost-labs/basecamp/postgres"
	"gorm.io/gorm"
)

//go:embed tmpl
var tmpls embed.FS

const shutdownTimeout = 5 * time.Second

// A Guide is the assembled application: configuration, services and the
// HTTP server, ready to Serve.
type Guide struct {
	cfg        Config
	l          logger.Logger
	db         *gorm.DB
	users      *identity.UserManager
	signin     *identity.SignInManager
	router     *router.Router
	server     *http.Server
	migrations []postgres.Migration
}

// An OptFn adjusts the parts a Guide is assembled from before wiring.
type OptFn func(*parts)

type parts struct {
	l          logger.Logger
	sender     identity.EmailSender
	files      fs.FS
	migrations []postgres.Migration
}

// WithLogger replaces the environment-derived Logger.
func WithLogger(l logger.Logger) OptFn {
	return func(p *parts) { p.l = l }
}

// WithEmailSender replaces the default EmailSender.
func WithEmailSender(s identity.EmailSender) OptFn {
	return func(p *parts) { p.sender = s }
}

// WithTemplates replaces the embedded template FS.
func WithTemplates(files fs.FS) OptFn {
	return func(p *parts) { p.files = files }
}

// WithMigrations appends application migrations after the base schema.
func WithMigrations(ms ...postgres.Migration) OptFn {
	return func(p *parts) { p.migrations = append(p.migrations, ms...) }
}

// New assembles a Guide from the process environment.
//
// Wiring happens in dependency order: configuration, then the logger,
// the database, session storage, the identity services, rendering and
// finally the HTTP pipeline. Any failure aborts the boot.
func New(opts ...OptFn) (*Guide, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	p := &parts{
		files:      tmpls,
		migrations: baseMigrations(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.l == nil {
		p.l = newLogger(cfg)
	}

	db, err := postgres.Connect(cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	if p.sender == nil {
		p.sender = defaultSender(cfg.Env, p.l)
	}

	tokens, err := identity.NewTokenIssuer(cfg.TokenSigningKey)
	if err != nil {
		return nil, err
	}

	users, err := identity.NewUserManager(identity.NewPostgresStore(postgres.NewService(db)), tokens, p.sender, p.l, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	signin, err := identity.NewSignInManager(users, p.l)
	if err != nil {
		return nil, err
	}

	var google *identity.GoogleVerifier
	if cfg.GoogleClientID != "" {
		redirect := *cfg.BaseURL
		redirect.Path = "/auth/google/callback"
		google, err = identity.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, redirect.String())
		if err != nil {
			return nil, err
		}
	}

	renderer, err := render.NewRenderer(p.files, render.WithLogger(p.l))
	if err != nil {
		return nil, err
	}

	accounts, err := account.NewHandler(renderer, users, signin, google, p.l)
	if err != nil {
		return nil, err
	}

	g := &Guide{
		cfg:        cfg,
		l:          p.l,
		db:         db,
		users:      users,
		signin:     signin,
		migrations: p.migrations,
	}
	g.router = g.buildRouter(store, renderer, accounts)
	g.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Serve migrates the schema when configured to, then runs the HTTP server
// until SIGINT or SIGTERM arrives, draining in-flight requests on the
// way out.
func (g *Guide) Serve() error {
	if g.cfg.MigrateOnBoot {
		if err := postgres.MigrateUp(g.db, g.migrations); err != nil {
			return fmt.Errorf("migrating on boot: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		g.l.Info(fmt.Sprintf("listening on :%s", g.cfg.Port), nil)
		errc <- g.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	g.l.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return g.server.Shutdown(shutdownCtx)
}

// Env exposes the resolved runtime environment.
func (g *Guide) Env() basecamp.Environment { return g.cfg.Env }

// Router exposes the assembled handler, fitting tests driving requests
// through the full pipeline.
func (g *Guide) Router() http.Handler { return g.router }

func newLogger(cfg Config) logger.Logger {
	opts := []logger.LoggerOptFn{logger.WithLevel(cfg.LogLevel)}
	if cfg.Env.IsDevelopment() {
		opts = append(opts, logger.WithColor())
	}

	bl := logger.New(opts...)
	if cfg.SentryDSN != "" {
		return logger.NewSentryLogger(bl, cfg.SentryDSN, cfg.Env.String())
	}

	return bl
}

func newSessionStore(cfg Config) (session.Service, error) {
	sessionCfg := session.Config{
		Env:         cfg.Env,
		SessionName: cfg.SessionName,
		AuthKey:     cfg.SessionAuthKey,
		EncryptKey:  cfg.SessionEncryptKey,
	}

	if cfg.RedisURI != "" {
		return session.NewStoreService(sessionCfg, session.WithRedis(cfg.RedisURI, cfg.RedisPassword))
	}

	return session.NewStoreService(sessionCfg)
}

// defaultSender picks the EmailSender fitting the environment: emails log
// locally and are dropped elsewhere until a real sender is plugged in.
func defaultSender(env basecamp.Environment, l logger.Logger) identity.EmailSender {
	if env.IsDevelopment() || env.IsTesting() {
		return identity.NewLogSender(l)
	}

	return identity.NoopSender{}
}

// baseMigrations is the schema every basecamp application starts from.
func baseMigrations() []postgres.Migration {
	return []postgres.Migration{
		{
			Key: "202608010000_create_users",
			Executor: func(db *gorm.DB) error {
				return db.AutoMigrate(&basecamp.User{})
			},
		},
	}
}
