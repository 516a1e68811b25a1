package theme

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Value identifies the active display mode.
type Value string

const (
	Light Value = "light"
	Dark  Value = "dark"
)

// Default is used whenever a value is missing or invalid.
const Default = Light

// ErrInvalidValue is returned when a raw value is neither light nor dark.
var ErrInvalidValue = errors.New("invalid theme value")

// Parse validates a raw theme value. Surrounding whitespace and case are ignored.
func Parse(raw string) (Value, error) {
	switch v := Value(strings.ToLower(strings.TrimSpace(raw))); v {
	case Light, Dark:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
}

// Normalize maps any raw value onto light or dark, defaulting to light.
func Normalize(raw string) Value {
	v, err := Parse(raw)
	if err != nil {
		return Default
	}
	return v
}

// Valid reports whether v is exactly light or dark.
func (v Value) Valid() bool {
	return v == Light || v == Dark
}

// Opposite returns the other mode. Invalid values are treated as the default first.
func (v Value) Opposite() Value {
	if Normalize(string(v)) == Dark {
		return Light
	}
	return Dark
}

func (v Value) String() string { return string(v) }

// SemanticRoles defines stable semantic color slots used across the UI.
//
// Components should depend on these roles rather than mode-specific literals.
type SemanticRoles struct {
	Primary     string
	Secondary   string
	Accent      string
	Muted       string
	Success     string
	Warning     string
	Error       string
	Destructive string
	Border      string
}

// Style describes presentational attributes for a UI element.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// StyleSet provides strongly-typed styles for the portfolio surfaces.
type StyleSet struct {
	Header  Style
	Body    Style
	Muted   Style
	Card    Style
	Button  Style
	Track   Style
	Knob    Style
	Sun     Style
	Moon    Style
	Hotkeys Style
}

// Bundle contains all display styles needed for one mode.
type Bundle struct {
	StyleSet
	Roles SemanticRoles
	Mono  bool
}

// TermProfile describes terminal rendering capabilities derived from TERM.
type TermProfile struct {
	Colors    int
	TrueColor bool
	IsTTY     bool
}

// TermProfileDetector maps a TERM value to a terminal capability profile.
type TermProfileDetector func(term string) TermProfile

var (
	termProfileCache sync.Map
	knownProfiles    = map[string]TermProfile{
		"dumb":           {Colors: 0, TrueColor: false, IsTTY: false},
		"ansi":           {Colors: 8, TrueColor: false, IsTTY: true},
		"linux":          {Colors: 16, TrueColor: false, IsTTY: true},
		"xterm":          {Colors: 16, TrueColor: false, IsTTY: true},
		"xterm-256color": {Colors: 256, TrueColor: false, IsTTY: true},
		"screen":         {Colors: 8, TrueColor: false, IsTTY: true},
		"tmux":           {Colors: 256, TrueColor: false, IsTTY: true},
		"vt100":          {Colors: 8, TrueColor: false, IsTTY: true},
		"xterm-kitty":    {Colors: 1 << 24, TrueColor: true, IsTTY: true},
		"wezterm":        {Colors: 1 << 24, TrueColor: true, IsTTY: true},
	}
)

var palettes = map[Value]Bundle{
	Light: {
		StyleSet: StyleSet{
			Header:  Style{Foreground: "#111827", Background: "#FFFFFF", Bold: true},
			Body:    Style{Foreground: "#1F2937"},
			Muted:   Style{Foreground: "#6B7280"},
			Card:    Style{Foreground: "#111827", Background: "#F9FAFB"},
			Button:  Style{Foreground: "#374151", Background: "#F3F4F6"},
			Track:   Style{Background: "#E5E7EB"},
			Knob:    Style{Foreground: "#FFFFFF"},
			Sun:     Style{Foreground: "#EAB308", Bold: true},
			Moon:    Style{Foreground: "#60A5FA", Bold: true},
			Hotkeys: Style{Foreground: "#2563EB"},
		},
		Roles: SemanticRoles{Primary: "#2563EB", Secondary: "#7C3AED", Accent: "#DBEAFE", Muted: "#F3F4F6", Success: "#16A34A", Warning: "#D97706", Error: "#DC2626", Destructive: "#B91C1C", Border: "#E5E7EB"},
	},
	Dark: {
		StyleSet: StyleSet{
			Header:  Style{Foreground: "#FFFFFF", Background: "#111827", Bold: true},
			Body:    Style{Foreground: "#D1D5DB"},
			Muted:   Style{Foreground: "#9CA3AF"},
			Card:    Style{Foreground: "#F9FAFB", Background: "#1F2937"},
			Button:  Style{Foreground: "#D1D5DB", Background: "#1F2937"},
			Track:   Style{Background: "#374151"},
			Knob:    Style{Foreground: "#FFFFFF"},
			Sun:     Style{Foreground: "#EAB308", Bold: true},
			Moon:    Style{Foreground: "#60A5FA", Bold: true},
			Hotkeys: Style{Foreground: "#60A5FA"},
		},
		Roles: SemanticRoles{Primary: "#3B82F6", Secondary: "#A78BFA", Accent: "#1E3A8A", Muted: "#374151", Success: "#22C55E", Warning: "#F59E0B", Error: "#EF4444", Destructive: "#F87171", Border: "#374151"},
	},
}

var values = [...]Value{Light, Dark}

// Resolve resolves a concrete style bundle for a mode and TERM value.
//
// Terminals with fewer than eight colors (dumb, unset TERM) get a monochrome
// bundle unless color is explicitly forced. Invalid modes resolve as light.
func Resolve(v Value, term string) Bundle {
	bundle, _ := resolveWithProfile(v, ResolveOptions{Term: term}, detectTermProfile)
	return bundle
}

// ResolveWithDetector resolves a bundle using a caller-provided TERM detector.
//
// This is primarily intended for tests and for hosts that already know the
// client's capabilities, such as SSH sessions.
func ResolveWithDetector(v Value, opts ResolveOptions, detector TermProfileDetector) Bundle {
	if detector == nil {
		detector = detectTermProfile
	}
	bundle, _ := resolveWithProfile(v, opts, detector)
	return bundle
}

// DetectTermProfile maps TERM to a terminal capability profile.
func DetectTermProfile(term string) TermProfile {
	return detectTermProfile(term)
}

// ProfileFromTermenv converts a termenv color profile into a TermProfile.
func ProfileFromTermenv(p termenv.Profile) TermProfile {
	switch p {
	case termenv.TrueColor:
		return TermProfile{Colors: 1 << 24, TrueColor: true, IsTTY: true}
	case termenv.ANSI256:
		return TermProfile{Colors: 256, IsTTY: true}
	case termenv.ANSI:
		return TermProfile{Colors: 16, IsTTY: true}
	default:
		return TermProfile{}
	}
}

// ResolveOptions controls how a bundle is selected once a TERM profile exists.
type ResolveOptions struct {
	Term       string
	ForceColor bool
	ForceMono  bool
}

// OptionsFromEnv reads FOLIO_THEME_FORCE_COLOR and FOLIO_THEME_FORCE_MONO.
//
// When FOLIO_THEME_DEBUG is true, the decision is logged.
func OptionsFromEnv(term string) ResolveOptions {
	opts := ResolveOptions{
		Term:       term,
		ForceColor: parseBoolEnv("FOLIO_THEME_FORCE_COLOR"),
		ForceMono:  parseBoolEnv("FOLIO_THEME_FORCE_MONO"),
	}
	if parseBoolEnv("FOLIO_THEME_DEBUG") {
		profile := detectTermProfile(term)
		log.Debug("theme options", "event", "theme_resolve", "term", term, "colors", profile.Colors, "truecolor", profile.TrueColor, "tty", profile.IsTTY, "force_color", opts.ForceColor, "force_mono", opts.ForceMono)
	}
	return opts
}

func resolveWithProfile(v Value, opts ResolveOptions, detector TermProfileDetector) (Bundle, TermProfile) {
	v = Normalize(string(v))

	term := strings.TrimSpace(opts.Term)
	if term == "" {
		term = os.Getenv("TERM")
	}

	profile := detector(term)
	if shouldUseMonochrome(profile, opts) {
		return monochromeBundle(v), profile
	}
	return palettes[v], profile
}

func parseBoolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func shouldUseMonochrome(profile TermProfile, opts ResolveOptions) bool {
	if opts.ForceMono {
		return true
	}
	if opts.ForceColor {
		return false
	}
	if !profile.IsTTY {
		return true
	}
	return !profile.TrueColor && profile.Colors < 8
}

func detectTermProfile(term string) TermProfile {
	norm := strings.ToLower(strings.TrimSpace(term))
	if cached, ok := termProfileCache.Load(norm); ok {
		return cached.(TermProfile)
	}

	profile := detectTermProfileUncached(norm)
	termProfileCache.Store(norm, profile)
	return profile
}

func detectTermProfileUncached(norm string) TermProfile {
	if norm == "" {
		return TermProfile{Colors: 0, TrueColor: false, IsTTY: false}
	}

	if p, ok := knownProfiles[norm]; ok {
		return p
	}

	profile := TermProfile{Colors: 16, TrueColor: false, IsTTY: true}
	if strings.Contains(norm, "truecolor") || strings.Contains(norm, "24bit") || strings.Contains(norm, "kitty") || strings.Contains(norm, "wezterm") {
		profile.TrueColor = true
		profile.Colors = 1 << 24
	}
	if strings.Contains(norm, "256") {
		profile.Colors = 256
	}
	if strings.Contains(norm, "dumb") {
		profile = TermProfile{Colors: 0, TrueColor: false, IsTTY: false}
	}
	if strings.Contains(norm, "screen") {
		profile.Colors = 8
	}

	return profile
}

// monochromeBundle drops every color but keeps emphasis, so both modes stay
// legible on terminals that cannot render the palette.
func monochromeBundle(v Value) Bundle {
	return Bundle{
		StyleSet: StyleSet{
			Header: Style{Bold: true},
			Sun:    Style{Bold: v == Light},
			Moon:   Style{Bold: v == Dark},
			Knob:   Style{Bold: true},
		},
		Mono: true,
	}
}
