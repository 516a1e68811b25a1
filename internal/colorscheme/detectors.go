package colorscheme

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// EnvOverrideKey lets a user or an SSH client (via SendEnv) state a preference.
const EnvOverrideKey = "FOLIO_COLOR_SCHEME"

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// LookupFromList builds a LookupFunc over KEY=VALUE pairs, such as an SSH
// session's Environ(). Later entries win.
func LookupFromList(environ []string) LookupFunc {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// EnvDetector reads FOLIO_COLOR_SCHEME and the COLORFGBG convention used by
// rxvt, Konsole and others.
type EnvDetector struct {
	Lookup LookupFunc
}

func (EnvDetector) Name() string  { return "env" }
func (EnvDetector) Priority() int { return 100 }

func (d EnvDetector) Detect(context.Context) (bool, bool) {
	lookup := d.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvOverrideKey); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "dark":
			return true, true
		case "light":
			return false, true
		}
	}

	if v, ok := lookup("COLORFGBG"); ok {
		return parseColorFGBG(v)
	}
	return false, false
}

// parseColorFGBG interprets "fg;bg" or "fg;default;bg". Background indexes
// 0-6 and 8 are the dark half of the 16-color palette.
func parseColorFGBG(v string) (bool, bool) {
	parts := strings.Split(strings.TrimSpace(v), ";")
	if len(parts) < 2 {
		return false, false
	}
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || bg < 0 || bg > 15 {
		return false, false
	}
	return bg <= 6 || bg == 8, true
}

// RendererDetector asks the terminal behind a lipgloss renderer for its
// background color. Renderers without color support cannot answer.
//
// lipgloss caches the answer per renderer, so this detector reports the
// terminal's state at first use and does not observe later changes.
type RendererDetector struct {
	Renderer *lipgloss.Renderer
}

func (RendererDetector) Name() string  { return "terminal" }
func (RendererDetector) Priority() int { return 50 }

func (d RendererDetector) Detect(context.Context) (bool, bool) {
	if d.Renderer == nil || d.Renderer.ColorProfile() == termenv.Ascii {
		return false, false
	}
	return d.Renderer.HasDarkBackground(), true
}

// RunFunc executes a command and returns its standard output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandDetector reads the desktop setting on macOS (defaults) and GNOME
// (gsettings).
type CommandDetector struct {
	GOOS string
	Run  RunFunc
}

func (CommandDetector) Name() string  { return "os" }
func (CommandDetector) Priority() int { return 10 }

func (d CommandDetector) Detect(ctx context.Context) (bool, bool) {
	goos := d.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	run := d.Run
	if run == nil {
		run = runCommand
	}

	switch goos {
	case "darwin":
		out, err := run(ctx, "defaults", "read", "-g", "AppleInterfaceStyle")
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				// The key only exists while dark mode is on.
				return false, true
			}
			return false, false
		}
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	case "linux", "freebsd", "openbsd":
		out, err := run(ctx, "gsettings", "get", "org.gnome.desktop.interface", "color-scheme")
		if err != nil {
			return false, false
		}
		switch strings.Trim(strings.TrimSpace(string(out)), "'\"") {
		case "prefer-dark":
			return true, true
		case "prefer-light", "default":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
