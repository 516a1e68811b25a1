package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"folio-terminal/internal/theme"
	"folio-terminal/internal/themecontrol"
	"folio-terminal/internal/themestore"
)

// Page identifies the active top-level view.
type Page int

const (
	PageHome Page = iota
	PageProjects
	PageAppearance
)

var pageTitles = [...]string{"Home", "Projects", "Appearance"}

func (p Page) String() string {
	if p < 0 || int(p) >= len(pageTitles) {
		return "Unknown"
	}
	return pageTitles[p]
}

func (p Page) next() Page { return (p + 1) % Page(len(pageTitles)) }
func (p Page) prev() Page { return (p + Page(len(pageTitles)) - 1) % Page(len(pageTitles)) }

// Project is one entry on the projects page.
type Project struct {
	Title       string
	Description string
	Stack       []string
}

// DefaultProjects is shown when Options.Projects is empty.
var DefaultProjects = []Project{
	{
		Title:       "Real-time Leaderboard",
		Description: "Analytics platform processing a million daily transactions with live charts and predictive insights.",
		Stack:       []string{"Go", "WebSockets", "Redis"},
	},
	{
		Title:       "Cinematic Landing",
		Description: "Scroll-driven cinematic site with layered animation and aggressive asset streaming.",
		Stack:       []string{"TypeScript", "GSAP", "Vite"},
	},
	{
		Title:       "Weather Desk",
		Description: "Search any city and get current conditions plus a five day forecast.",
		Stack:       []string{"Go", "OpenWeather", "Bubble Tea"},
	},
}

// pageContext carries what a page needs to draw itself.
type pageContext struct {
	state    themestore.State
	styles   theme.Styles
	renderer *lipgloss.Renderer
	width    int
	visitor  string
	projects []Project
	demo     []*themecontrol.Control
}

func renderPage(p Page, pc pageContext) string {
	switch p {
	case PageProjects:
		return renderProjects(pc)
	case PageAppearance:
		return renderAppearance(pc)
	default:
		return renderHome(pc)
	}
}

func renderHome(pc pageContext) string {
	title := pc.styles.Header.Padding(0, 1).Render("Hi, I build terminal-first software.")

	// The hero copy shifts tone with the active mode.
	tagline := "Bright ideas, shipped daily."
	if pc.state.IsDark {
		tagline = "Quiet screens, loud results."
	}

	lines := []string{
		title,
		"",
		pc.styles.Body.Render(tagline),
		pc.styles.Muted.Render("Press 2 for projects or 3 to tune the appearance."),
	}
	if pc.visitor != "" {
		lines = append(lines, "", pc.styles.Muted.Render("visitor "+pc.visitor))
	}
	return strings.Join(lines, "\n")
}

func renderProjects(pc pageContext) string {
	cardWidth := clamp(pc.width-4, 24, 72)
	card := pc.styles.Card.
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pc.styles.Border).
		Padding(0, 1).
		Width(cardWidth)

	blocks := make([]string, 0, len(pc.projects)+1)
	blocks = append(blocks, pc.styles.Header.Padding(0, 1).Render("Featured Projects"))
	for _, p := range pc.projects {
		body := strings.Join([]string{
			pc.styles.Body.Bold(true).Render(p.Title),
			pc.styles.Muted.Render(p.Description),
			pc.styles.Hotkeys.Render(strings.Join(p.Stack, " · ")),
		}, "\n")
		blocks = append(blocks, card.Render(body))
	}
	return strings.Join(blocks, "\n")
}

func renderAppearance(pc pageContext) string {
	section := func(title string, body ...string) string {
		return strings.Join(append([]string{pc.styles.Body.Bold(true).Render(title)}, body...), "\n")
	}

	var variants []string
	names := []string{"Default toggle", "Compact toggle", "Smart toggle"}
	for i, c := range pc.demo {
		name := "Toggle"
		if i < len(names) {
			name = names[i]
		}
		variants = append(variants, fmt.Sprintf("%-15s %s", name, c.View()))
	}

	return strings.Join([]string{
		pc.styles.Header.Padding(0, 1).Render("Dark Mode Demo"),
		pc.styles.Muted.Render("Switch between light and dark at any time; your choice is remembered."),
		"",
		section("Theme toggle components", variants...),
		"",
		section("Current theme status", statusLines(pc.state)...),
		"",
		section("Color palette", swatches(pc.styles.Roles, pc.renderer)...),
	}, "\n")
}

func statusLines(state themestore.State) []string {
	if !state.Mounted {
		return []string{"Current theme: resolving", "Mode: -", "Status: loading"}
	}
	mode, status := "Light", "Light Active"
	if state.IsDark {
		mode, status = "Dark", "Dark Active"
	}
	return []string{
		"Current theme: " + state.Theme.String(),
		"Mode: " + mode,
		"Status: " + status,
	}
}

func swatches(roles theme.SemanticRoles, r *lipgloss.Renderer) []string {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	entries := []struct {
		name  string
		color string
	}{
		{"Primary", roles.Primary},
		{"Secondary", roles.Secondary},
		{"Accent", roles.Accent},
		{"Muted", roles.Muted},
		{"Success", roles.Success},
		{"Warning", roles.Warning},
		{"Error", roles.Error},
		{"Destructive", roles.Destructive},
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.color == "" {
			out = append(out, fmt.Sprintf("%s %-12s %s", "   ", e.name, "monochrome"))
			continue
		}
		block := r.NewStyle().Foreground(lipgloss.Color(e.color)).Render("███")
		out = append(out, fmt.Sprintf("%s %-12s %s", block, e.name, e.color))
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
