package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bobvengers/mapmate/internal/application/assemble"
	"github.com/bobvengers/mapmate/internal/application/auth"
	"github.com/bobvengers/mapmate/internal/application/collection"
	"github.com/bobvengers/mapmate/internal/application/review"
	"github.com/bobvengers/mapmate/internal/application/view"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
	"github.com/bobvengers/mapmate/internal/infrastructure/config"
	"github.com/bobvengers/mapmate/internal/infrastructure/logger"
	"github.com/bobvengers/mapmate/internal/infrastructure/metrics"
	"github.com/bobvengers/mapmate/internal/infrastructure/placesearch"
	"github.com/bobvengers/mapmate/internal/infrastructure/sessionstore"
	"github.com/bobvengers/mapmate/internal/infrastructure/telemetry"
	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"go.uber.org/zap"
)

// App wires configuration, infrastructure, and application services for one
// command invocation.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Recorder *metrics.Recorder
	API      *apiclient.Client

	Sessions *auth.SessionService
	Maps     *collection.MapService
	Reviews  *review.ReviewService
	Assemble *assemble.AssembleService

	Out    *render.Renderer
	Stdin  io.Reader
	Stderr io.Writer

	store       sessionstore.Store
	tracing     *telemetry.TracerProvider
	scope       *view.Scope
	mount       *view.Mount
	places      *placesearch.Client
	unsubscribe func()
}

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configFile string
	logLevel   string
	output     string
	stats      bool
}

// newApp loads configuration and builds every dependency. The saved session
// is restored before any command runs.
func newApp(ctx context.Context, opts globalOptions, build BuildInfo, stdio IO) (*App, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logCfg := loggerConfig(cfg, opts.logLevel)
	var log *zap.Logger
	if strings.EqualFold(logCfg.Output, "stderr") {
		log = logger.NewWithWriter(logCfg, stdio.Err)
	} else if log, err = logger.New(logCfg); err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log = log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	formatName := cfg.Output.Format
	if opts.output != "" {
		formatName = opts.output
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	tracing, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    build.Version,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("starting telemetry: %w", err)
	}

	recorder := metrics.NewRecorder(metrics.DefaultConfig())
	client, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
	}, log, apiclient.WithRecorder(recorder), apiclient.WithTracerProvider(tracing.Provider()))
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	store, err := sessionstore.Open(ctx, cfg, log)
	if err != nil {
		_ = tracing.Shutdown(ctx)
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	sessions := auth.NewSessionService(client, store, log)
	app := &App{
		Config:   cfg,
		Logger:   log,
		Recorder: recorder,
		API:      client,
		Sessions: sessions,
		Maps:     collection.NewMapService(client, sessions, log),
		Reviews:  review.NewReviewService(client, sessions, log),
		Assemble: assemble.NewAssembleService(client, sessions, log),
		Out:      render.New(format, stdio.Out),
		Stdin:    stdio.In,
		Stderr:   stdio.Err,
		store:    store,
		tracing:  tracing,
		scope:    view.NewScope(ctx),
	}
	app.unsubscribe = sessions.Subscribe(func(user *identity.User) {
		if user == nil {
			log.Debug("signed out")
			return
		}
		log.Debug("signed in", zap.Int64("user_id", user.UserID), zap.String("nickname", user.Nickname))
	})

	if _, err := sessions.Restore(ctx); err != nil {
		log.Warn("could not restore saved session", zap.Error(err))
	}
	return app, nil
}

// loggerConfig starts from the preset for app.env, then applies the log
// section of the configuration and finally the --log-level flag.
func loggerConfig(cfg *config.Config, levelFlag string) *logger.Config {
	lc := logger.ConfigForEnvironment(cfg.App.Env)
	if cfg.Log.Level != "" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		lc.Output = cfg.Log.Output
	}
	if levelFlag != "" {
		lc.Level = levelFlag
	}
	return lc
}

// View starts the command's view lifetime and returns its context. Requests
// made with it are cancelled when the app closes, and their log entries carry
// the signed-in user's ID.
func (a *App) View() context.Context {
	a.mount = a.scope.Mount()
	ctx := a.mount.Context()
	if a.Sessions != nil {
		if user := a.Sessions.CurrentUser(); user != nil {
			ctx = logger.WithUserID(ctx, strconv.FormatInt(user.UserID, 10))
		}
	}
	return ctx
}

// Render writes v in the configured format, unless the view was unmounted
// while its data was loading.
func (a *App) Render(v any, table func(*render.Table)) error {
	return a.commit(func() error { return a.Out.Render(v, table) })
}

// Message writes a one-line result under the same rule as Render
func (a *App) Message(msg string) error {
	return a.commit(func() error { return a.Out.Message(msg) })
}

func (a *App) commit(write func() error) error {
	if a.mount == nil {
		return write()
	}
	var err error
	if !a.mount.Commit(func() { err = write() }) {
		return context.Canceled
	}
	return err
}

// Places returns the place search client, created on first use so commands
// that never search do not need an API key.
func (a *App) Places() (*placesearch.Client, error) {
	if a.places != nil {
		return a.places, nil
	}
	c, err := placesearch.New(a.Config.Places.BaseURL, a.Config.Places.APIKey, a.Logger,
		apiclient.WithRecorder(a.Recorder), apiclient.WithTracerProvider(a.tracing.Provider()))
	if err != nil {
		return nil, err
	}
	a.places = c
	return c, nil
}

// Close cancels outstanding requests and releases what newApp acquired
func (a *App) Close() error {
	a.scope.Unmount()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if err := a.tracing.Shutdown(context.Background()); err != nil {
		a.Logger.Warn("could not flush traces", zap.Error(err))
	}
	_ = logger.Sync(a.Logger)
	return a.store.Close()
}
