package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-terminal/internal/colorscheme"
	"folio-terminal/internal/tui"
)

type harness struct {
	store  string
	env    []string
	tty    bool
	ran    int
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("FOLIO_CONFIG_FILE", "")
	t.Setenv("FOLIO_THEME_STORE", "")
	return &harness{store: filepath.Join(t.TempDir(), "theme.json")}
}

func (h *harness) run(args ...string) (string, error) {
	h.stdout.Reset()
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	app := &App{
		Stdout:    &h.stdout,
		Stderr:    &h.stderr,
		IsTTY:     func() bool { return h.tty },
		Renderer:  r,
		Detectors: []colorscheme.Detector{colorscheme.EnvDetector{Lookup: colorscheme.LookupFromList(h.env)}},
		RunTUI: func(ctx context.Context, m tui.Model) error {
			h.ran++
			return nil
		},
	}
	root := NewRootCommand(app)
	root.SetArgs(append([]string{"--store", h.store}, args...))
	err := root.Execute()
	return strings.TrimSpace(h.stdout.String()), err
}

func TestThemeGetDefaultsToLight(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "light", out)

	out, err = h.run("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", out)
}

func TestThemeGetFollowsEnvironmentUntilChosen(t *testing.T) {
	h := newHarness(t)
	h.env = []string{"FOLIO_COLOR_SCHEME=dark"}

	out, err := h.run("theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "dark", out)

	out, err = h.run("theme", "set", "light")
	require.NoError(t, err)
	assert.Equal(t, "light", out)

	out, err = h.run("theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "light", out, "explicit choice outranks the environment")
}

func TestThemeSetAndTogglePersist(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("theme", "set", " DARK ")
	require.NoError(t, err)
	assert.Equal(t, "dark", out)

	out, err = h.run("theme", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "light", out)

	out, err = h.run("theme", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "dark", out)

	out, err = h.run("theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "dark", out)
}

func TestThemeSetRejectsUnknownMode(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("theme", "set", "sepia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sepia")

	out, err := h.run("theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "light", out)
}

func TestRootWithoutTerminalPrintsSnapshot(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("theme", "set", "dark")
	require.NoError(t, err)

	out, err := h.run("--page", "appearance")
	require.NoError(t, err)
	assert.Contains(t, out, "Dark Mode Demo")
	assert.Contains(t, out, "Dark Active")
	assert.Zero(t, h.ran)
}

func TestRootWithTerminalRunsProgram(t *testing.T) {
	h := newHarness(t)
	h.tty = true
	_, err := h.run()
	require.NoError(t, err)
	assert.Equal(t, 1, h.ran)
}

func TestRootRejectsUnknownPage(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--page", "blog")
	require.Error(t, err)
}

func TestParsePage(t *testing.T) {
	cases := map[string]tui.Page{
		"":           tui.PageHome,
		"Projects":   tui.PageProjects,
		"3":          tui.PageAppearance,
		"appearance": tui.PageAppearance,
	}
	for in, want := range cases {
		got, err := parsePage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
