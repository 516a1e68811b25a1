package server

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/muesli/termenv"

	"folio-terminal/internal/config"
	"folio-terminal/internal/router"
	"folio-terminal/internal/theme"
	"folio-terminal/internal/themestore"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Host = "127.0.0.1"
	cfg.Port = 2222
	cfg.HostKeyPath = filepath.Join(dir, "host_ed25519")
	cfg.ThemeStorePath = filepath.Join(dir, "themes.json")
	cfg.ThemePollInterval = 0
	return cfg
}

func TestNewRuntimeStartupPipeline(t *testing.T) {
	runtime, err := New(testConfig(t), log.New(io.Discard))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := runtime.Address(); got != "127.0.0.1:2222" {
		t.Fatalf("Address() = %q, want %q", got, "127.0.0.1:2222")
	}

	want := []string{"rate-limit", "max-sessions", "logging", "active-term", "visitor-identity", "session-metadata", "bubbletea"}
	got := runtime.MiddlewareIDs()
	if len(got) != len(want) {
		t.Fatalf("middleware length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("middleware[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got[0] = "mutated"
	if runtime.MiddlewareIDs()[0] != "rate-limit" {
		t.Fatal("MiddlewareIDs() exposed internal slice")
	}
}

func TestWishOrderReversesExecutionOrder(t *testing.T) {
	chain := router.MiddlewareFromDescriptors(router.DefaultChain())
	out := wishOrder(chain)
	if len(out) != len(chain) {
		t.Fatalf("len = %d", len(out))
	}
	if len(wishOrder(nil)) != 0 {
		t.Fatal("wishOrder(nil) not empty")
	}
}

func TestSessionAppScopesThemeToVisitor(t *testing.T) {
	runtime, err := New(testConfig(t), log.New(io.Discard))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.Ascii)

	ctx, cancel := context.WithCancel(context.Background())
	sess := newFakeSession(ctx, tcpAddr("203.0.113.70"))
	sess.env = []string{"FOLIO_COLOR_SCHEME=dark"}
	sess.hasPTY = true
	sess.pty.Term = "xterm-256color"

	var model interface{ State() themestore.State }
	var store *themestore.Store
	router.Compose(func(s ssh.Session) {
		model, store = runtime.newSessionApp(s, renderer)
	}, router.MiddlewareFromDescriptors(router.DefaultChain()))(sess)

	store.Initialize(context.Background())
	if got := store.State(); got.Theme != theme.Dark {
		t.Fatalf("session environment ignored: %+v", got)
	}
	if model.State().Mounted {
		t.Fatal("model state should only change through program messages")
	}

	store.Toggle()
	info, _ := router.InfoFrom(sess.Context())
	v, err := runtime.themes.Load(themestore.VisitorKey(info.Identity.Visitor))
	if err != nil || v != "light" {
		t.Fatalf("visitor choice not persisted: %q, %v", v, err)
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for store.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session end did not release store subscribers (%d left)", store.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionPainterIgnoresServerTerm(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("FOLIO_THEME_FORCE_COLOR", "")
	t.Setenv("FOLIO_THEME_FORCE_MONO", "")
	renderer := lipgloss.NewRenderer(io.Discard)

	p := sessionPainter(renderer, "  ")
	if p.Options.Term != "dumb" {
		t.Fatalf("Term = %q, want dumb", p.Options.Term)
	}
	if got := theme.ResolveWithDetector(theme.Dark, p.Options, nil); !got.Mono {
		t.Fatal("client without TERM should get the monochrome palette")
	}

	if p := sessionPainter(renderer, "xterm-256color"); p.Options.Term != "xterm-256color" {
		t.Fatalf("Term = %q, client TERM must be kept", p.Options.Term)
	}
}
