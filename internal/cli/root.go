// Package cli implements the local folio command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"folio-terminal/internal/colorscheme"
	"folio-terminal/internal/config"
	"folio-terminal/internal/logging"
	"folio-terminal/internal/theme"
	"folio-terminal/internal/themecontrol"
	"folio-terminal/internal/themestore"
	"folio-terminal/internal/tui"
)

// App holds the process-level dependencies of the command tree. Zero fields
// fall back to the real terminal and environment.
type App struct {
	Stdout    io.Writer
	Stderr    io.Writer
	IsTTY     func() bool
	Detectors []colorscheme.Detector
	Renderer  *lipgloss.Renderer
	RunTUI    func(ctx context.Context, m tui.Model) error

	storePath string
	logLevel  string
	page      string

	cfg    config.Config
	logger *log.Logger
}

// NewRootCommand builds the folio command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}
	app.defaults()

	root := &cobra.Command{
		Use:           "folio",
		Short:         "Terminal portfolio",
		Long:          "folio shows the portfolio in the terminal. The light/dark choice is shared with `folio theme`.",
		Version:       "dev",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runRoot(cmd.Context())
		},
	}
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	root.PersistentFlags().StringVar(&app.storePath, "store", "", "theme preferences file (default: FOLIO_THEME_STORE or the user config dir)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&app.page, "page", "home", "page to open: home, projects or appearance")

	root.AddCommand(newThemeCommand(app))
	return root
}

// Execute runs the command tree against the real process.
func Execute() error {
	root := NewRootCommand(nil)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *App) defaults() {
	if a.Stdout == nil {
		a.Stdout = os.Stdout
	}
	if a.Stderr == nil {
		a.Stderr = os.Stderr
	}
	if a.IsTTY == nil {
		a.IsTTY = func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		}
	}
	if a.RunTUI == nil {
		a.RunTUI = func(ctx context.Context, m tui.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		}
	}
}

func (a *App) setup() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.storePath != "" {
		cfg.ThemeStorePath = a.storePath
	}
	a.cfg = cfg

	// Local commands stay quiet unless asked otherwise.
	level := a.logLevel
	if level == "" {
		level = "warn"
	}
	logger, err := logging.New(a.Stderr, level)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *App) detectors() []colorscheme.Detector {
	if a.Detectors != nil {
		return a.Detectors
	}
	return []colorscheme.Detector{
		colorscheme.EnvDetector{Lookup: os.LookupEnv},
		colorscheme.RendererDetector{Renderer: a.renderer()},
		colorscheme.CommandDetector{GOOS: goruntime.GOOS},
	}
}

func (a *App) renderer() *lipgloss.Renderer {
	if a.Renderer != nil {
		return a.Renderer
	}
	return lipgloss.DefaultRenderer()
}

// openStore builds the local store. Callers close it.
func (a *App) openStore(watch bool) *themestore.Store {
	interval := a.cfg.ThemePollInterval
	if !watch {
		interval = 0
	}
	resolver := colorscheme.NewResolver(a.detectors(),
		colorscheme.WithInterval(interval),
		colorscheme.WithLogger(a.logger),
	)
	return themestore.New(themestore.Options{
		Persistence: themestore.NewFileStore(a.cfg.ThemeStorePath),
		Preference:  resolver,
		Logger:      a.logger,
	})
}

func (a *App) painter() themecontrol.Painter {
	return themecontrol.Painter{Renderer: a.renderer(), Options: theme.OptionsFromEnv(os.Getenv("TERM"))}
}

func (a *App) runRoot(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	page, err := parsePage(a.page)
	if err != nil {
		return err
	}

	interactive := a.IsTTY()
	store := a.openStore(interactive)
	defer store.Close()

	opts := tui.Options{Store: store, Painter: a.painter(), Context: ctx}
	if !interactive {
		opts.Width = 80
		_, err := fmt.Fprintln(a.Stdout, tui.Snapshot(opts, page))
		return err
	}

	// Ask the terminal for its background before the program owns stdin.
	_ = a.renderer().HasDarkBackground()

	m := tui.New(opts)
	defer m.Close()
	return a.RunTUI(ctx, m)
}

func parsePage(raw string) (tui.Page, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "home", "1":
		return tui.PageHome, nil
	case "projects", "2":
		return tui.PageProjects, nil
	case "appearance", "theme", "3":
		return tui.PageAppearance, nil
	default:
		return tui.PageHome, fmt.Errorf("unknown page %q", raw)
	}
}
