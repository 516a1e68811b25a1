package theme

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles computed from a Bundle for one renderer.
type Styles struct {
	Header  lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Card    lipgloss.Style
	Button  lipgloss.Style
	Track   lipgloss.Style
	Knob    lipgloss.Style
	Sun     lipgloss.Style
	Moon    lipgloss.Style
	Hotkeys lipgloss.Style
	Border  lipgloss.Color
	Roles   SemanticRoles
}

// Styles converts the bundle into lipgloss styles bound to r. A nil renderer
// uses the lipgloss default renderer.
func (b Bundle) Styles(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Styles{
		Header:  b.Header.lipgloss(r),
		Body:    b.Body.lipgloss(r),
		Muted:   b.Muted.lipgloss(r),
		Card:    b.Card.lipgloss(r),
		Button:  b.Button.lipgloss(r),
		Track:   b.Track.lipgloss(r),
		Knob:    b.Knob.lipgloss(r),
		Sun:     b.Sun.lipgloss(r),
		Moon:    b.Moon.lipgloss(r),
		Hotkeys: b.Hotkeys.lipgloss(r),
		Border:  lipgloss.Color(b.Roles.Border),
		Roles:   b.Roles,
	}
}

func (s Style) lipgloss(r *lipgloss.Renderer) lipgloss.Style {
	out := r.NewStyle().Bold(s.Bold)
	if s.Foreground != "" {
		out = out.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		out = out.Background(lipgloss.Color(s.Background))
	}
	return out
}
