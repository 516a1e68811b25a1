// Package themecontrol renders the light/dark toggle in its visual variants.
//
// Rendering is a pure function of the store state and the control's
// configuration; the only way a control changes the mode is Toggle on the
// store it is bound to.
package themecontrol

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"folio-terminal/internal/theme"
	"folio-terminal/internal/themestore"
)

// Variant selects the visual form of a control.
type Variant string

const (
	Full          Variant = "full"
	CompactIcon   Variant = "compact-icon"
	LabeledSwitch Variant = "labeled-switch"
)

// Size selects padding and track length.
type Size string

const (
	Small  Size = "small"
	Medium Size = "medium"
	Large  Size = "large"
)

// Fallbacks for unrecognized configuration values.
const (
	DefaultVariant = Full
	DefaultSize    = Medium
)

const (
	sunIcon     = "☀"
	moonIcon    = "☾"
	knob        = "●"
	placeholder = "░"
	labelWidth  = 5
	switchLabel = "Theme"
	iconGap     = " "
)

// Config is a control's configuration input.
type Config struct {
	Variant   Variant
	Size      Size
	ShowLabel bool
	// Icon leads a labeled switch with a small mode icon.
	Icon bool
	// Caption replaces the switch label text.
	Caption string
}

func (c Config) caption() string {
	if c.Caption == "" {
		return switchLabel
	}
	return c.Caption
}

// Normalize substitutes defaults for unknown variant or size values.
func (c Config) Normalize() Config {
	switch c.Variant {
	case Full, CompactIcon, LabeledSwitch:
	default:
		c.Variant = DefaultVariant
	}
	switch c.Size {
	case Small, Medium, Large:
	default:
		c.Size = DefaultSize
	}
	return c
}

// Painter turns a mode into concrete styles for one output.
type Painter struct {
	Renderer *lipgloss.Renderer
	Options  theme.ResolveOptions
	Detector theme.TermProfileDetector
}

// Styles resolves the styles for v.
func (p Painter) Styles(v theme.Value) theme.Styles {
	return theme.ResolveWithDetector(v, p.Options, p.Detector).Styles(p.Renderer)
}

func (p Painter) renderer() *lipgloss.Renderer {
	if p.Renderer == nil {
		return lipgloss.DefaultRenderer()
	}
	return p.Renderer
}

// Render draws a control. Before the store is mounted it draws a neutral
// placeholder whose shape depends only on the configuration.
func Render(state themestore.State, cfg Config, p Painter) string {
	cfg = cfg.Normalize()
	if !state.Mounted {
		return renderPlaceholder(cfg, p)
	}

	styles := p.Styles(state.Theme)
	switch cfg.Variant {
	case CompactIcon:
		return renderIcon(state, cfg, styles, false)
	case LabeledSwitch:
		return renderSwitch(state, cfg, styles)
	default:
		button := renderIcon(state, cfg, styles, true)
		if !cfg.ShowLabel {
			return button
		}
		label := styles.Muted.Width(labelWidth).Render(targetLabel(state))
		return lipgloss.JoinHorizontal(lipgloss.Center, button, " ", label)
	}
}

// Hint describes what activating the control will do.
func Hint(state themestore.State) string {
	if !state.Mounted {
		return "Loading theme"
	}
	return "Switch to " + strings.ToLower(targetLabel(state)) + " mode"
}

func renderIcon(state themestore.State, cfg Config, styles theme.Styles, bordered bool) string {
	icon := styles.Sun.Render(sunIcon)
	if state.IsDark {
		icon = styles.Moon.Render(moonIcon)
	}

	vpad, hpad := padding(cfg.Size)
	box := styles.Button.Padding(vpad, hpad)
	if bordered {
		box = box.Border(lipgloss.RoundedBorder()).BorderForeground(styles.Border)
	}
	return box.Render(icon)
}

func renderSwitch(state themestore.State, cfg Config, styles theme.Styles) string {
	track := trackLength(cfg.Size)
	cells := strings.Repeat(" ", track-1)
	thumb := cells + knob
	if !state.IsDark {
		thumb = knob + cells
	}
	parts := []string{styles.Track.Render(styles.Knob.Inline(true).Render(thumb))}
	if cfg.ShowLabel {
		parts = append([]string{styles.Muted.Render(cfg.caption()), " "}, parts...)
	}
	if cfg.Icon {
		parts = append([]string{renderIcon(state, Config{Size: Small}, styles, false), iconGap}, parts...)
	}
	parts = append(parts, " ", styles.Body.Width(labelWidth).Render(currentLabel(state)))
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// renderPlaceholder mirrors the footprint of the mounted control so the
// layout does not shift once the real mode is known.
func renderPlaceholder(cfg Config, p Painter) string {
	inert := p.renderer().NewStyle()
	block := func(w, h int) string {
		row := strings.Repeat(placeholder, w)
		rows := make([]string, h)
		for i := range rows {
			rows[i] = row
		}
		return inert.Render(strings.Join(rows, "\n"))
	}

	vpad, hpad := padding(cfg.Size)
	iconW, iconH := 1+2*hpad, 1+2*vpad

	switch cfg.Variant {
	case CompactIcon:
		return block(iconW, iconH)
	case LabeledSwitch:
		parts := []string{block(trackLength(cfg.Size), 1), " ", block(labelWidth, 1)}
		if cfg.ShowLabel {
			parts = append([]string{block(lipgloss.Width(cfg.caption()), 1), " "}, parts...)
		}
		if cfg.Icon {
			_, smallPad := padding(Small)
			parts = append([]string{block(1+2*smallPad, 1), iconGap}, parts...)
		}
		return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	default:
		button := block(iconW+2, iconH+2)
		if !cfg.ShowLabel {
			return button
		}
		return lipgloss.JoinHorizontal(lipgloss.Center, button, " ", block(labelWidth, 1))
	}
}

func padding(size Size) (vertical, horizontal int) {
	switch size {
	case Small:
		return 0, 1
	case Large:
		return 1, 3
	default:
		return 0, 2
	}
}

func trackLength(size Size) int {
	switch size {
	case Small:
		return 3
	case Large:
		return 5
	default:
		return 4
	}
}

// targetLabel names the mode the control switches to.
func targetLabel(state themestore.State) string {
	if state.IsDark {
		return "Light"
	}
	return "Dark"
}

func currentLabel(state themestore.State) string {
	if state.IsDark {
		return "Dark"
	}
	return "Light"
}
