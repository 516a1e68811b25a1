package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	wishlog "github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"folio-terminal/internal/colorscheme"
	"folio-terminal/internal/config"
	"folio-terminal/internal/router"
	"folio-terminal/internal/theme"
	"folio-terminal/internal/themecontrol"
	"folio-terminal/internal/themestore"
	"folio-terminal/internal/tui"
)

const (
	version         = "dev"
	shutdownTimeout = 10 * time.Second
)

// Runtime wires config + middleware + Wish server as a testable unit.
type Runtime struct {
	cfg           config.Config
	logger        *log.Logger
	themes        themestore.Persistence
	middlewareIDs []string
	server        *ssh.Server
}

// New builds the SSH server. Theme choices of every visitor are kept in the
// file named by cfg.ThemeStorePath.
func New(cfg config.Config, logger *log.Logger) (*Runtime, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &Runtime{
		cfg:    cfg,
		logger: logger,
		themes: themestore.NewFileStore(cfg.ThemeStorePath),
	}

	chain := r.chain()
	ids := make([]string, 0, len(chain))
	for _, descriptor := range chain {
		ids = append(ids, descriptor.Name)
	}
	r.middlewareIDs = ids

	wishServer, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithKeyboardInteractiveAuth(func(ssh.Context, gossh.KeyboardInteractiveChallenge) bool { return true }),
		wish.WithMiddleware(wishOrder(router.MiddlewareFromDescriptors(chain))...),
	)
	if err != nil {
		return nil, fmt.Errorf("create ssh server: %w", err)
	}
	r.server = wishServer
	return r, nil
}

// chain lists the session middleware in execution order.
func (r *Runtime) chain() []router.Descriptor {
	chain := []router.Descriptor{
		{Name: "rate-limit", Middleware: RateLimitMiddleware(r.cfg.RateLimitPerMinute, r.cfg.RateLimitBurst)},
		{Name: "max-sessions", Middleware: MaxSessionsMiddleware(r.cfg.MaxSessions)},
		{Name: "logging", Middleware: wishlog.MiddlewareWithLogger(r.logger)},
		{Name: "active-term", Middleware: activeterm.Middleware()},
	}
	chain = append(chain, router.DefaultChain()...)
	return append(chain, router.Descriptor{Name: "bubbletea", Middleware: bm.Middleware(r.teaHandler)})
}

// wishOrder reverses mw: wish runs the last middleware it is given first.
func wishOrder(mw []wish.Middleware) []wish.Middleware {
	out := make([]wish.Middleware, len(mw))
	for i, m := range mw {
		out[len(mw)-1-i] = m
	}
	return out
}

func (r *Runtime) MiddlewareIDs() []string {
	out := make([]string, len(r.middlewareIDs))
	copy(out, r.middlewareIDs)
	return out
}

func (r *Runtime) Address() string {
	return r.server.Addr
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("server starting",
			"event", "startup",
			"version", version,
			"address", r.Address(),
			"middleware", r.middlewareIDs,
			"host_key_path", r.cfg.HostKeyPath,
			"idle_timeout", r.cfg.IdleTimeout,
			"max_sessions", r.cfg.MaxSessions,
			"theme_store", r.themePath(),
		)
		err := r.server.ListenAndServe()
		if err == nil || errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		r.logger.Info("server stopping", "event", "shutdown")
		if err := r.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (r *Runtime) themePath() string {
	if fs, ok := r.themes.(*themestore.FileStore); ok {
		return fs.Path()
	}
	return ""
}

func (r *Runtime) teaHandler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	m, _ := r.newSessionApp(s, bm.MakeRenderer(s))
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

// sessionPainter resolves palettes from the client's TERM. A client that sent
// none is treated as dumb rather than inheriting the server's TERM.
func sessionPainter(renderer *lipgloss.Renderer, term string) themecontrol.Painter {
	if strings.TrimSpace(term) == "" {
		term = "dumb"
	}
	return themecontrol.Painter{Renderer: renderer, Options: theme.OptionsFromEnv(term)}
}

// newSessionApp gives the session its own theme store, keyed by visitor, and
// ties the store's lifetime to the session context.
func (r *Runtime) newSessionApp(s ssh.Session, renderer *lipgloss.Renderer) (tui.Model, *themestore.Store) {
	info, ok := router.InfoFrom(s.Context())
	if !ok {
		info = router.SessionInfo{Identity: router.IdentityOf(s), SessionID: s.Context().SessionID()}
	}
	pty, _, _ := s.Pty()
	logger := r.logger.With("session", info.SessionID, "visitor", info.Identity.Visitor)

	resolver := colorscheme.NewResolver(
		[]colorscheme.Detector{
			colorscheme.EnvDetector{Lookup: colorscheme.LookupFromList(s.Environ())},
			colorscheme.RendererDetector{Renderer: renderer},
		},
		colorscheme.WithInterval(r.cfg.ThemePollInterval),
		colorscheme.WithLogger(logger),
	)
	store := themestore.New(themestore.Options{
		Key:         themestore.VisitorKey(info.Identity.Visitor),
		Persistence: r.themes,
		Preference:  resolver,
		Logger:      logger,
	})

	model := tui.New(tui.Options{
		Store:   store,
		Painter: sessionPainter(renderer, pty.Term),
		Context: s.Context(),
		Width:   pty.Window.Width,
		Height:  pty.Window.Height,
		Visitor: info.Identity.Visitor,
	})

	go func() {
		<-s.Context().Done()
		model.Close()
		store.Close()
	}()
	return model, store
}
