package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/five82/librarian/internal/config"
	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/listsync"
	"github.com/five82/librarian/internal/logtail"
	"github.com/five82/librarian/internal/prefs"
	"github.com/five82/librarian/internal/session"
	"github.com/five82/librarian/internal/state"
	"github.com/five82/librarian/internal/ui"
)

// Options configure a librarian environment. Zero values use the config
// file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/librarian/prefs.toml
	APIBase    string
	PageSize   int
	Verbose    bool
}

// Env is everything a command needs: loaded settings, the signed-in
// session, an API client bound to it and the logger.
type Env struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Session   *session.Holder
	Client    *library.Client
	Logger    *slog.Logger

	logCloser io.Closer
}

// Open loads config, prefs and the session and builds the client.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIBase); v != "" {
		cfg.APIBase = v
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, closer, err := logtail.Open(cfg.LogFile, level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	sess, err := session.Load(cfg.SessionFile)
	if err != nil {
		logger.Warn("session unreadable, starting signed out", "path", cfg.SessionFile, "error", err)
		sess = session.Session{}
	}
	holder := session.NewHolder(cfg.SessionFile, sess)

	client, err := library.NewClient(cfg.APIBase,
		library.WithTimeout(cfg.RequestTimeout),
		library.WithCredentials(holder),
		library.WithLogger(logger),
	)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	logger.Debug("environment ready", "api_base", client.BaseURL(), "signed_in", sess.LoggedIn())
	return &Env{
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Session:   holder,
		Client:    client,
		Logger:    logger,
		logCloser: closer,
	}, nil
}

// Close flushes and closes the log file.
func (e *Env) Close() error {
	if e == nil || e.logCloser == nil {
		return nil
	}
	return e.logCloser.Close()
}

// PageSize returns the preferred page size, falling back to the config.
func (e *Env) PageSize() int {
	if e.Prefs.PageSize > 0 {
		return e.Prefs.PageSize
	}
	return e.Config.PageSize
}

// ListOptions builds the list settings for the named collection.
func (e *Env) ListOptions(name string) listsync.Options {
	sort, err := state.ParseSort(e.Prefs.SortFor(name))
	if err != nil {
		e.Logger.Warn("ignoring saved sort", "list", name, "error", err)
		sort = state.SortSpec{}
	}
	return listsync.Options{
		Name:               name,
		PageSize:           e.PageSize(),
		Sort:               sort,
		Debounce:           e.Config.SearchDebounce,
		DeletePolicy:       e.Config.DeletePolicy,
		RefetchAfterCommit: e.Config.RefetchAfterCommit,
		Logger:             e.Logger,
	}
}

// RequireLogin fails when there is no session, and refreshes an expired
// access token before the first call.
func (e *Env) RequireLogin(ctx context.Context) error {
	sess := e.Session.Session()
	if !sess.LoggedIn() {
		return ErrNotLoggedIn
	}
	if sess.Expired(time.Now()) && sess.RefreshToken != "" {
		if _, err := e.Client.Refresh(ctx); err != nil {
			e.Logger.Warn("token refresh failed", "error", err)
			return fmt.Errorf("session expired, log in again: %w", err)
		}
		e.Logger.Info("access token refreshed")
	}
	return nil
}

// Login signs in and records who the session belongs to.
func (e *Env) Login(ctx context.Context, email, password string) (library.AuthResponse, error) {
	auth, err := e.Client.Login(ctx, email, password)
	if err != nil {
		e.Logger.Warn("login failed", "email", email, "error", err)
		return auth, err
	}
	userID := auth.ID
	if userID == "" {
		if claims, err := e.Session.Session().Claims(); err == nil {
			userID = claims.Subject
		}
	}
	if err := e.Session.SetIdentity(userID, auth.Email); err != nil {
		return auth, fmt.Errorf("store session: %w", err)
	}
	e.Logger.Info("logged in", "email", auth.Email)
	return auth, nil
}

// ErrNotLoggedIn is returned by RequireLogin when no session exists.
var ErrNotLoggedIn = errors.New("not logged in (run `librarian login`)")

// Run boots the librarian TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.RequireLogin(ctx); err != nil && !errors.Is(err, ErrNotLoggedIn) {
		env.Logger.Warn("starting signed out", "error", err)
	}

	books := listsync.New[library.Book](env.Client.Books(), env.ListOptions("books"))
	defer books.Close()
	topics := listsync.New[library.Topic](env.Client.Topics(), env.ListOptions("topics"))
	defer topics.Close()
	issues := listsync.New[library.Issue](env.Client.Issues(), env.ListOptions("issues"))
	defer issues.Close()
	users := listsync.New[library.User](env.Client.Users(), env.ListOptions("users"))
	defer users.Close()

	stats := &state.StatsStore{}
	loggedIn := func() bool { return env.Session.Session().LoggedIn() }
	StartStatsPoller(ctx, stats, env.Client, defaultStatsInterval, loggedIn, env.Logger)

	env.Logger.Info("tui starting")
	return ui.Run(ui.Options{
		Context:   ctx,
		Auth:      env,
		Client:    env.Client,
		Session:   env.Session,
		Books:     books,
		Topics:    topics,
		Issues:    issues,
		Users:     users,
		Stats:     stats,
		Titles:    library.NewTitleResolver(env.Client.Books()),
		Prefs:     env.Prefs,
		PrefsPath: env.PrefsPath,
		LogFile:   env.Config.LogFile,
		Logger:    env.Logger,
	})
}
