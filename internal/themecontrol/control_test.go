package themecontrol

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-terminal/internal/theme"
	"folio-terminal/internal/themestore"
)

func asciiPainter() Painter {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return Painter{Renderer: r, Options: theme.ResolveOptions{Term: "xterm-256color"}}
}

func colorPainter() Painter {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	return Painter{Renderer: r, Options: theme.ResolveOptions{Term: "xterm-kitty"}}
}

func mounted(v theme.Value) themestore.State {
	return themestore.State{Theme: v, IsDark: v == theme.Dark, IsLight: v == theme.Light, Mounted: true}
}

func newStore(t *testing.T, persisted string) *themestore.Store {
	t.Helper()
	mem := themestore.NewMemoryStore()
	if persisted != "" {
		require.NoError(t, mem.Save(themestore.DefaultKey, persisted))
	}
	s := themestore.New(themestore.Options{Persistence: mem, Logger: log.New(io.Discard)})
	t.Cleanup(s.Close)
	return s
}

var allConfigs = func() []Config {
	var out []Config
	for _, v := range []Variant{Full, CompactIcon, LabeledSwitch} {
		for _, s := range []Size{Small, Medium, Large} {
			out = append(out, Config{Variant: v, Size: s, ShowLabel: true}, Config{Variant: v, Size: s})
		}
	}
	return append(out, SmartConfig)
}()

func TestNormalizeFallsBackToDefaults(t *testing.T) {
	got := Config{Variant: "ghost", Size: "xl", ShowLabel: true}.Normalize()
	assert.Equal(t, Config{Variant: Full, Size: Medium, ShowLabel: true}, got)

	kept := Config{Variant: LabeledSwitch, Size: Small}.Normalize()
	assert.Equal(t, Config{Variant: LabeledSwitch, Size: Small}, kept)
}

func TestUnknownVariantRendersLikeDefault(t *testing.T) {
	p := colorPainter()
	for _, state := range []themestore.State{{}, mounted(theme.Light), mounted(theme.Dark)} {
		for _, label := range []bool{true, false} {
			unknown := Render(state, Config{Variant: "minimal", Size: "huge", ShowLabel: label}, p)
			def := Render(state, Config{Variant: DefaultVariant, Size: DefaultSize, ShowLabel: label}, p)
			assert.Equal(t, def, unknown)
		}
	}
}

func TestPlaceholderIsThemeIndependent(t *testing.T) {
	for _, cfg := range allConfigs {
		light := Render(themestore.State{}, cfg, colorPainter())
		dark := Render(themestore.State{Theme: theme.Dark}, cfg, colorPainter())
		assert.Equal(t, light, dark, "%+v", cfg)
		assert.NotContains(t, light, sunIcon)
		assert.NotContains(t, light, moonIcon)
		assert.Contains(t, light, placeholder)
	}
}

func TestPlaceholderMatchesMountedFootprint(t *testing.T) {
	p := asciiPainter()
	for _, cfg := range allConfigs {
		ph := Render(themestore.State{}, cfg, p)
		for _, v := range []theme.Value{theme.Light, theme.Dark} {
			real := Render(mounted(v), cfg, p)
			assert.Equal(t, lipgloss.Width(real), lipgloss.Width(ph), "width %+v %s", cfg, v)
			assert.Equal(t, lipgloss.Height(real), lipgloss.Height(ph), "height %+v %s", cfg, v)
		}
	}
}

func TestVariantsShowModeSpecificContent(t *testing.T) {
	p := asciiPainter()

	full := Render(mounted(theme.Light), Config{Variant: Full, ShowLabel: true}, p)
	assert.Contains(t, full, sunIcon)
	assert.Contains(t, full, "Dark", "label names the target mode")
	assert.Contains(t, full, "╭")

	fullDark := Render(mounted(theme.Dark), Config{Variant: Full, ShowLabel: true}, p)
	assert.Contains(t, fullDark, moonIcon)
	assert.Contains(t, fullDark, "Light")

	noLabel := Render(mounted(theme.Light), Config{Variant: Full}, p)
	assert.NotContains(t, noLabel, "Dark")

	compact := Render(mounted(theme.Dark), Config{Variant: CompactIcon, Size: Small, ShowLabel: true}, p)
	assert.Equal(t, " "+moonIcon+" ", compact, "compact ignores ShowLabel")

	sw := Render(mounted(theme.Dark), Config{Variant: LabeledSwitch, ShowLabel: true}, p)
	assert.True(t, strings.HasPrefix(sw, "Theme "), sw)
	assert.Contains(t, sw, "   "+knob+" Dark")

	swLight := Render(mounted(theme.Light), Config{Variant: LabeledSwitch}, p)
	assert.Contains(t, swLight, knob+"    Light")
}

func TestSmartLeadsWithIconAndAutoCaption(t *testing.T) {
	p := asciiPainter()

	dark := Render(mounted(theme.Dark), SmartConfig, p)
	assert.True(t, strings.HasPrefix(dark, " "+moonIcon+"  Auto "), dark)
	assert.Contains(t, dark, "   "+knob+" Dark")
	assert.NotContains(t, dark, switchLabel)

	light := Render(mounted(theme.Light), SmartConfig, p)
	assert.True(t, strings.HasPrefix(light, " "+sunIcon+"  Auto "), light)
	assert.Contains(t, light, knob+"    Light")
}

func TestSizesChangeFootprint(t *testing.T) {
	p := asciiPainter()
	small := Render(mounted(theme.Light), Config{Variant: CompactIcon, Size: Small}, p)
	medium := Render(mounted(theme.Light), Config{Variant: CompactIcon, Size: Medium}, p)
	large := Render(mounted(theme.Light), Config{Variant: CompactIcon, Size: Large}, p)

	assert.Less(t, lipgloss.Width(small), lipgloss.Width(medium))
	assert.Less(t, lipgloss.Width(medium), lipgloss.Width(large))
	assert.Equal(t, 3, lipgloss.Height(large))
}

func TestHint(t *testing.T) {
	assert.Equal(t, "Loading theme", Hint(themestore.State{}))
	assert.Equal(t, "Switch to dark mode", Hint(mounted(theme.Light)))
	assert.Equal(t, "Switch to light mode", Hint(mounted(theme.Dark)))
}

func TestControlRendersPlaceholderUntilMounted(t *testing.T) {
	s := newStore(t, "dark")
	c := New(s, Config{Variant: Full, ShowLabel: true}, asciiPainter())
	defer c.Close()

	assert.Contains(t, c.View(), placeholder)
	assert.Equal(t, "Loading theme", c.Hint())

	s.Initialize(context.Background())

	assert.Contains(t, c.View(), moonIcon)
	assert.Equal(t, "Switch to light mode", c.Hint())
}

func TestControlsStayInSyncWithStore(t *testing.T) {
	s := newStore(t, "")
	s.Initialize(context.Background())

	p := asciiPainter()
	header := Compact(s, p)
	panel := New(s, Config{Variant: Full, Size: Large, ShowLabel: true}, p)
	smart := Smart(s, p)
	defer header.Close()
	defer panel.Close()
	defer smart.Close()

	header.Activate()

	// Every bound control re-rendered before Activate returned.
	for _, c := range []*Control{header, panel, smart} {
		assert.Equal(t, Render(mounted(theme.Dark), c.Config(), p), c.View())
	}
	assert.Equal(t, theme.Dark, s.State().Theme)
}

func TestActivateTogglesExactlyOncePerCall(t *testing.T) {
	s := newStore(t, "")
	s.Initialize(context.Background())
	c := Smart(s, asciiPainter())
	defer c.Close()

	before := c.Renders()
	for i := 0; i < 5; i++ {
		c.Activate()
	}
	assert.Equal(t, theme.Dark, s.State().Theme)
	assert.Equal(t, before+5, c.Renders())
}

func TestClosedControlNoLongerRenders(t *testing.T) {
	s := newStore(t, "")
	s.Initialize(context.Background())

	closed := Compact(s, asciiPainter())
	open := Compact(s, asciiPainter())
	defer open.Close()

	closed.Close()
	closed.Close()
	frozen := closed.View()
	renders := closed.Renders()

	s.Toggle()

	assert.Equal(t, frozen, closed.View())
	assert.Equal(t, renders, closed.Renders())
	assert.NotEqual(t, frozen, open.View())
	assert.Equal(t, 1, s.Subscribers())
}

func TestControlNormalizesConfig(t *testing.T) {
	s := newStore(t, "")
	c := New(s, Config{Variant: "icon-only", Size: "md"}, asciiPainter())
	defer c.Close()
	assert.Equal(t, Config{Variant: Full, Size: Medium}, c.Config())
}
